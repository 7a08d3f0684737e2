package initialize_test

import (
	"context"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"

	prof "github.com/ai-field-tools/iris-api/cmd/iris/config/profiles"
	"github.com/ai-field-tools/iris-api/cmd/iris/config/profiles/testutils"
	"github.com/ai-field-tools/iris-api/cmd/iris/subcommands/common"
	"github.com/ai-field-tools/iris-api/cmd/iris/subcommands/initialize"
	"github.com/ai-field-tools/iris-api/cmd/iris/subcommands/internal/commandline"
	"github.com/ai-field-tools/iris-api/cmd/iris/subcommands/logger"
	"github.com/ai-field-tools/iris-api/pkg/utils/try"
	"github.com/youta-t/flarc"
)

func TestInitCommand(t *testing.T) {
	t.Run("when profile store does not exist, it creates one", func(t *testing.T) {
		temp := try.To(os.MkdirTemp("", "")).OrFatal(t)
		defer os.RemoveAll(temp)
		storePath := filepath.Join(temp, ".iris", "profile")

		testee := initialize.Task
		ctx := context.Background()
		err := testee(
			ctx, logger.Null(),
			common.CommonFlags{Profile: "default", ProfileStore: storePath},
			commandline.MockCommandline[initialize.Flag]{
				Flags_: initialize.Flag{ApiRoot: "https://api.example.com/api"},
			},
			[]any{},
		)
		if err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}

		store := try.To(prof.LoadProfileStore(storePath)).OrFatal(t)
		p, ok := store["default"]
		if !ok {
			t.Fatal("profile is not registered")
		}
		if p.ApiRoot != "https://api.example.com/api" {
			t.Errorf("unexpected apiRoot: %s", p.ApiRoot)
		}
	})

	t.Run("when the profile is re-registered with the same api-root, tokens survive", func(t *testing.T) {
		storePath := try.To(testutils.TempProfile(t, "default", &prof.IrisProfile{
			ApiRoot: "https://api.example.com/api",
			Auth: prof.IrisAuth{
				AccessToken:  "some-access-token",
				RefreshToken: "some-refresh-token",
			},
		})).OrFatal(t)

		testee := initialize.Task
		ctx := context.Background()
		err := testee(
			ctx, logger.Null(),
			common.CommonFlags{Profile: "default", ProfileStore: storePath},
			commandline.MockCommandline[initialize.Flag]{
				Flags_: initialize.Flag{ApiRoot: "https://api.example.com/api"},
			},
			[]any{},
		)
		if err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}

		store := try.To(prof.LoadProfileStore(storePath)).OrFatal(t)
		p := store["default"]
		if p.Auth.AccessToken != "some-access-token" || p.Auth.RefreshToken != "some-refresh-token" {
			t.Errorf("tokens are lost: %+v", p.Auth)
		}
	})

	t.Run("when the profile is re-registered with another api-root, tokens are dropped", func(t *testing.T) {
		storePath := try.To(testutils.TempProfile(t, "default", &prof.IrisProfile{
			ApiRoot: "https://old.example.com/api",
			Auth: prof.IrisAuth{
				AccessToken:  "some-access-token",
				RefreshToken: "some-refresh-token",
			},
		})).OrFatal(t)

		testee := initialize.Task
		ctx := context.Background()
		err := testee(
			ctx, logger.Null(),
			common.CommonFlags{Profile: "default", ProfileStore: storePath},
			commandline.MockCommandline[initialize.Flag]{
				Flags_: initialize.Flag{ApiRoot: "https://new.example.com/api"},
			},
			[]any{},
		)
		if err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}

		store := try.To(prof.LoadProfileStore(storePath)).OrFatal(t)
		p := store["default"]
		if p.ApiRoot != "https://new.example.com/api" {
			t.Errorf("unexpected apiRoot: %s", p.ApiRoot)
		}
		if p.Auth.AccessToken != "" || p.Auth.RefreshToken != "" {
			t.Errorf("tokens of another server survive: %+v", p.Auth)
		}
	})

	t.Run("when --cacert is passed, the certificate is stored base64 encoded", func(t *testing.T) {
		temp := try.To(os.MkdirTemp("", "")).OrFatal(t)
		defer os.RemoveAll(temp)
		storePath := filepath.Join(temp, "profile")

		cert := pem.EncodeToMemory(&pem.Block{
			Type:  "CERTIFICATE",
			Bytes: []byte("this is not a real certificate, but it is PEM"),
		})
		certPath := filepath.Join(temp, "ca.crt")
		if err := os.WriteFile(certPath, cert, os.FileMode(0644)); err != nil {
			t.Fatal(err)
		}

		testee := initialize.Task
		ctx := context.Background()
		err := testee(
			ctx, logger.Null(),
			common.CommonFlags{Profile: "default", ProfileStore: storePath},
			commandline.MockCommandline[initialize.Flag]{
				Flags_: initialize.Flag{
					ApiRoot: "https://api.example.com/api",
					Cacert:  certPath,
				},
			},
			[]any{},
		)
		if err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}

		store := try.To(prof.LoadProfileStore(storePath)).OrFatal(t)
		expected := base64.StdEncoding.EncodeToString(cert)
		if actual := store["default"].Cert.CA; actual != expected {
			t.Errorf("unexpected cert (actual, expected) = (%s, %s)", actual, expected)
		}
	})

	t.Run("when --api-root is missing, it is a usage error", func(t *testing.T) {
		temp := try.To(os.MkdirTemp("", "")).OrFatal(t)
		defer os.RemoveAll(temp)

		testee := initialize.Task
		ctx := context.Background()
		err := testee(
			ctx, logger.Null(),
			common.CommonFlags{Profile: "default", ProfileStore: filepath.Join(temp, "profile")},
			commandline.MockCommandline[initialize.Flag]{
				Flags_: initialize.Flag{},
			},
			[]any{},
		)
		if !errors.Is(err, flarc.ErrUsage) {
			t.Errorf("unexpected error: %+v", err)
		}
	})

	t.Run("when --cacert does not name a PEM file, it is a usage error", func(t *testing.T) {
		temp := try.To(os.MkdirTemp("", "")).OrFatal(t)
		defer os.RemoveAll(temp)
		certPath := filepath.Join(temp, "ca.crt")
		if err := os.WriteFile(certPath, []byte("plain text"), os.FileMode(0644)); err != nil {
			t.Fatal(err)
		}

		testee := initialize.Task
		ctx := context.Background()
		err := testee(
			ctx, logger.Null(),
			common.CommonFlags{Profile: "default", ProfileStore: filepath.Join(temp, "profile")},
			commandline.MockCommandline[initialize.Flag]{
				Flags_: initialize.Flag{
					ApiRoot: "https://api.example.com/api",
					Cacert:  certPath,
				},
			},
			[]any{},
		)
		if !errors.Is(err, flarc.ErrUsage) {
			t.Errorf("unexpected error: %+v", err)
		}
	})

	t.Run("when --cacert does not exist, it returns error", func(t *testing.T) {
		temp := try.To(os.MkdirTemp("", "")).OrFatal(t)
		defer os.RemoveAll(temp)

		testee := initialize.Task
		ctx := context.Background()
		err := testee(
			ctx, logger.Null(),
			common.CommonFlags{Profile: "default", ProfileStore: filepath.Join(temp, "profile")},
			commandline.MockCommandline[initialize.Flag]{
				Flags_: initialize.Flag{
					ApiRoot: "https://api.example.com/api",
					Cacert:  filepath.Join(temp, "no-such.crt"),
				},
			},
			[]any{},
		)
		if err == nil {
			t.Fatal("no error is returned")
		}
		if errors.Is(err, flarc.ErrUsage) {
			t.Errorf("missing file should not be a usage error: %+v", err)
		}
	})
}

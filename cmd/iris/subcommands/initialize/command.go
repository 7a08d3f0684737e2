package initialize

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"

	prof "github.com/ai-field-tools/iris-api/cmd/iris/config/profiles"
	"github.com/ai-field-tools/iris-api/cmd/iris/subcommands/common"
	"github.com/youta-t/flarc"
)

type Flag struct {
	ApiRoot string `flag:"api-root" metavar:"URL" help:"endpoint of the iris API, like https://iris.example.com/api"`
	Cacert  string `flag:"cacert" metavar:"PATH" help:"path to a CA certificate (PEM) to trust for the server"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Register an iris API server into your profile store.",
		Flag{},
		flarc.Args{},
		common.NewTaskWithCommonFlag(Task),
		flarc.WithDescription(`
Register an iris API server into your profile store.

The profile name is given by "--profile" ( default: "`+common.DefaultProfileName+`" ).
Tokens stored by "iris signin" survive as long as --api-root does not change.

Example
-------

Register a server as the default profile:

	{{ .Command }} --api-root https://iris.example.com/api

Register a server under a name, trusting its private CA:

	{{ .Command }} --profile staging --api-root https://stg.example.com/api --cacert ./ca.crt
`),
	)
}

func Task(
	ctx context.Context,
	logger *log.Logger,
	cf common.CommonFlags,
	cl flarc.Commandline[Flag],
	_ []any,
) error {
	flags := cl.Flags()
	if flags.ApiRoot == "" {
		return fmt.Errorf("%w: --api-root is required", flarc.ErrUsage)
	}

	store, err := prof.LoadProfileStore(cf.ProfileStore)
	if errors.Is(err, prof.ErrProfileStoreNotFound) {
		// ok.
		store = prof.ProfileStore{}
	} else if err != nil {
		return fmt.Errorf(
			"failed to load profile store (%s): %w", cf.ProfileStore, err,
		)
	}

	newProf := &prof.IrisProfile{ApiRoot: flags.ApiRoot}

	// Tokens are bound to the server which issued them.
	if old, ok := store[cf.Profile]; ok && old.ApiRoot == newProf.ApiRoot {
		newProf.Auth = old.Auth
	}

	if flags.Cacert != "" {
		content, err := os.ReadFile(flags.Cacert)
		if err != nil {
			return fmt.Errorf("failed to read CA certificate (%s): %w", flags.Cacert, err)
		}
		newProf.Cert.CA = base64.StdEncoding.EncodeToString(content)
	}

	if err := newProf.Verify(); err != nil {
		return fmt.Errorf("%w: %s", flarc.ErrUsage, err)
	}

	store[cf.Profile] = newProf
	if err := store.Save(cf.ProfileStore); err != nil {
		return fmt.Errorf(
			"failed to save profile store (%s): %w", cf.ProfileStore, err,
		)
	}
	logger.Printf("profile %s is saved to %s", cf.Profile, cf.ProfileStore)

	return nil
}

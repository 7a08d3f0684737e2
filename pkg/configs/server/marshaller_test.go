package server_test

import (
	"testing"
	"time"

	kcs "github.com/ai-field-tools/iris-api/pkg/configs/server"
)

func TestConfigMarshall(t *testing.T) {
	t.Run("it loads config from yaml: ", func(t *testing.T) {
		serverYml := []byte(`
port: "8000"
dbURI: postgres://iris-test-pgdb-svc:32555/iris
model:
  path: ./testdata/model.json
auth:
  secretKey: test-secret-key-do-not-use
  accessTokenExpiry: 20m
  refreshTokenExpiry: 72h
  maxLoginFailures: 3
  throttleWindow: 10m
  lockDuration: 45m
`)
		result, err := kcs.Unmarshal(serverYml)

		if err != nil {
			t.Fatalf("failed to parse config.: %v", err)
		}

		t.Run(".port", func(t *testing.T) {
			actual := result.Port()
			expected := "8000"
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%s, %s)", expected, actual)
			}
		})

		t.Run(".dbURI", func(t *testing.T) {
			actual := result.DBURI()
			expected := "postgres://iris-test-pgdb-svc:32555/iris"
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%s, %s)", expected, actual)
			}
		})

		t.Run(".model.path", func(t *testing.T) {
			actual := result.Model().Path()
			expected := "./testdata/model.json"
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%s, %s)", expected, actual)
			}
		})

		t.Run(".auth.secretKey", func(t *testing.T) {
			actual := string(result.Auth().SecretKey())
			expected := "test-secret-key-do-not-use"
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%s, %s)", expected, actual)
			}
		})

		t.Run(".auth.accessTokenExpiry", func(t *testing.T) {
			actual := result.Auth().AccessTokenExpiry()
			expected := 20 * time.Minute
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%v, %v)", expected, actual)
			}
		})

		t.Run(".auth.refreshTokenExpiry", func(t *testing.T) {
			actual := result.Auth().RefreshTokenExpiry()
			expected := 72 * time.Hour
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%v, %v)", expected, actual)
			}
		})

		t.Run(".auth.maxLoginFailures", func(t *testing.T) {
			actual := result.Auth().MaxLoginFailures()
			expected := 3
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%d, %d)", expected, actual)
			}
		})

		t.Run(".auth.throttleWindow", func(t *testing.T) {
			actual := result.Auth().ThrottleWindow()
			expected := 10 * time.Minute
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%v, %v)", expected, actual)
			}
		})

		t.Run(".auth.lockDuration", func(t *testing.T) {
			actual := result.Auth().LockDuration()
			expected := 45 * time.Minute
			if actual != expected {
				t.Errorf("mismatch. (expected, actual) = (%v, %v)", expected, actual)
			}
		})
	})

	t.Run("it fills defaults for omitted auth durations: ", func(t *testing.T) {
		serverYml := []byte(`
port: "8000"
dbURI: postgres://iris-test-pgdb-svc:32555/iris
model:
  path: ./testdata/model.json
auth:
  secretKey: test-secret-key-do-not-use
`)
		result, err := kcs.Unmarshal(serverYml)
		if err != nil {
			t.Fatalf("failed to parse config.: %v", err)
		}

		if result.Auth().AccessTokenExpiry() != 15*time.Minute {
			t.Errorf("accessTokenExpiry default mismatch: %v", result.Auth().AccessTokenExpiry())
		}
		if result.Auth().RefreshTokenExpiry() != 168*time.Hour {
			t.Errorf("refreshTokenExpiry default mismatch: %v", result.Auth().RefreshTokenExpiry())
		}
		if result.Auth().PasswordResetExpiry() != time.Hour {
			t.Errorf("passwordResetExpiry default mismatch: %v", result.Auth().PasswordResetExpiry())
		}
		if result.Auth().MaxLoginFailures() != 5 {
			t.Errorf("maxLoginFailures default mismatch: %d", result.Auth().MaxLoginFailures())
		}
		if result.Auth().ThrottleWindow() != 15*time.Minute {
			t.Errorf("throttleWindow default mismatch: %v", result.Auth().ThrottleWindow())
		}
		if result.Auth().LockDuration() != 30*time.Minute {
			t.Errorf("lockDuration default mismatch: %v", result.Auth().LockDuration())
		}
	})

	t.Run("it panics when required fields are missing: ", func(t *testing.T) {
		serverYml := []byte(`
port: "8000"
model:
  path: ./testdata/model.json
auth:
  secretKey: test-secret-key-do-not-use
`)
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("no panic for missing dbURI")
			}
		}()
		if _, err := kcs.Unmarshal(serverYml); err != nil {
			t.Fatalf("failed to parse config.: %v", err)
		}
	})
}

func TestLoadServerConfig(t *testing.T) {
	t.Run("it can be created from a config file", func(t *testing.T) {
		result, err := kcs.LoadServerConfig("./testdata/config.yaml")

		if err != nil {
			t.Fatalf("failed to parse config.: %v", err)
		}
		expectedURI := "postgres://iris-test-pgdb-svc:32555/iris"
		if result.DBURI() != expectedURI {
			t.Errorf("unmatch dbURI:%s, expected:%s", result.DBURI(), expectedURI)
		}
		expectedPort := "8000"
		if result.Port() != expectedPort {
			t.Errorf("unmatch port:%s, expected:%s", result.Port(), expectedPort)
		}
		expectedModelPath := "/etc/iris/model/model.json"
		if result.Model().Path() != expectedModelPath {
			t.Errorf("unmatch model path:%s, expected:%s", result.Model().Path(), expectedModelPath)
		}
	})
}

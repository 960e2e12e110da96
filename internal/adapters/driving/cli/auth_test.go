package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagemirror/pagemirror/internal/adapters/driven/auth"
	"github.com/pagemirror/pagemirror/internal/adapters/driven/config/file"
)

func setupAuthTest(t *testing.T) (*file.ConfigStore, func()) {
	t.Helper()
	store, err := file.NewConfigStore(t.TempDir())
	require.NoError(t, err)

	oldConfig := configStore
	oldValidate := validateCredentials
	configStore = store
	return store, func() {
		configStore = oldConfig
		validateCredentials = oldValidate
	}
}

func TestAuthSetTokenCmd_WithFlag(t *testing.T) {
	store, cleanup := setupAuthTest(t)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"auth", "set-token", "--token", "secret_abc"})
	defer func() {
		rootCmd.SetArgs(nil)
		authToken = ""
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Integration token stored.")
	assert.Equal(t, "secret_abc", store.GetString(auth.ConfigKeyToken))
}

func TestAuthSetTokenCmd_PromptsFromStdin(t *testing.T) {
	store, cleanup := setupAuthTest(t)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetIn(strings.NewReader("secret_from_stdin\n"))
	rootCmd.SetArgs([]string{"auth", "set-token"})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		authToken = ""
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, "secret_from_stdin", store.GetString(auth.ConfigKeyToken))
}

func TestAuthStatusCmd(t *testing.T) {
	_, cleanup := setupAuthTest(t)
	defer cleanup()
	validateCredentials = func(_ context.Context) error { return nil }

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"auth", "status"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Integration token OK.")
}

func TestAuthStatusCmd_Invalid(t *testing.T) {
	_, cleanup := setupAuthTest(t)
	defer cleanup()
	validateCredentials = func(_ context.Context) error { return errors.New("401 unauthorized") }

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"auth", "status"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "token check failed")
}

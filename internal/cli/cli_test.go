// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/shopfront/internal/cli"
)

// setupEnv points every command at a throwaway SQLite file with cheap hashing.
func setupEnv(t *testing.T) {
	t.Helper()

	t.Setenv("DATABASE_URL", "file:"+filepath.Join(t.TempDir(), "shopctl.db"))
	t.Setenv("REDIS_URL", "")
	t.Setenv("PASSWORD_KDF", "argon2id")
	t.Setenv("KDF_COST", "1")
	t.Setenv("KDF_MEMORY_KIB", "64")
	t.Setenv("PUBLIC_BASE_URL", "https://shop.example")
}

// execute runs one command line with stdin and captures stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	root := cli.NewRootCmd("test")
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func exitCode(err error) int {
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

/*
TestCLI_AdminWorkflow migrates, creates users, changes a role and issues links.
*/
func TestCLI_AdminWorkflow(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "", "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 3")

	out, err = execute(t, "CorrectHorse9\n", "user", "create", "Alice")
	require.NoError(t, err)
	assert.Contains(t, out, "created alice (regular)")

	_, err = execute(t, "CorrectHorse9\n", "user", "create", "ALICE")
	assert.Equal(t, 1, exitCode(err))

	_, err = execute(t, "short\n", "user", "create", "bob")
	assert.Equal(t, 1, exitCode(err))

	_, err = execute(t, "", "user", "create", "carol")
	assert.Equal(t, 2, exitCode(err))

	out, err = execute(t, "RootPassword1\n", "user", "create", "root", "--admin")
	require.NoError(t, err)
	assert.Contains(t, out, "(admin)")

	out, err = execute(t, "", "user", "set-role", "alice", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "alice is now admin")

	_, err = execute(t, "", "user", "set-role", "alice", "superuser")
	assert.Equal(t, 2, exitCode(err))

	out, err = execute(t, "", "newsletter", "link", "alice")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "https://shop.example/unsubscribe?token="), out)

	// Confirmation links exist only for a recorded subscription.
	_, err = execute(t, "", "newsletter", "link", "alice", "--confirm")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
	assert.Contains(t, err.Error(), "Subscription")

	_, err = execute(t, "", "newsletter", "link", "nobody")
	assert.Error(t, err)

	out, err = execute(t, "", "purge")
	require.NoError(t, err)
	assert.Contains(t, out, "purge complete")
}

func TestCLI_BadConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("SESSION_TTL", "-1s")

	_, err := execute(t, "", "migrate", "version")
	assert.Equal(t, 2, exitCode(err))
}

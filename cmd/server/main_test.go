package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Dias221467/Employee_Manager/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", ":memory:")
	t.Setenv("REDIS_URL", "")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	out, err := runCmd(t, "token", "--user", "12", "--role", "admin")
	require.NoError(t, err)

	claims, err := jwt.ValidateToken(strings.TrimSpace(out), "cli-secret")
	require.NoError(t, err)
	assert.Equal(t, int64(12), claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	_, err = runCmd(t, "token")
	assert.Error(t, err)
}

func TestScanCommand(t *testing.T) {
	out, err := runCmd(t, "scan")
	require.NoError(t, err)
	assert.Contains(t, out, "On Track")
	assert.Contains(t, out, "No Due Date")
}

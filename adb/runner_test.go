package adb

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// writeADB installs a shell script standing in for the adb binary.
func writeADB(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "adb")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestExecRunner_RemoteExitStatus(t *testing.T) {
	path := writeADB(t, `printf 'total 8\n'
printf 'drwxr-xr-x 2 root root 4096 2024-03-01 10:22 acct\n'
printf 'drwxr-xr-x 9 root root 4096 2024-03-01 10:22 data\n'
echo 'ls: /cache: Permission denied' >&2
exit 1
`)
	r := NewExecRunner(path, 5*time.Second, zap.NewNop())

	out, err := r.Run(context.Background(), "-s", "SER1", "shell", "ls", "-la", "/")
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 1, cmdErr.ExitCode)
	assert.Equal(t, "ls: /cache: Permission denied", cmdErr.Stderr)
	assert.Contains(t, string(out), "acct")

	transport := newWiredTransport(r, "SER1")
	out, code, err := transport.ExecuteStatus("ls", "-la", "/")
	require.NoError(t, err)
	assert.Equal(t, 1, code)
	assert.Contains(t, string(out), "data")
}

func TestExecRunner_DeviceNotFound(t *testing.T) {
	path := writeADB(t, `echo "adb: device 'SER1' not found" >&2
exit 1
`)
	transport := newWiredTransport(NewExecRunner(path, 5*time.Second, zap.NewNop()), "SER1")

	_, err := transport.Execute("getprop", "ro.serialno")
	require.ErrorIs(t, err, ErrCommunication)
	assert.Contains(t, err.Error(), "not found")
}

func TestExecRunner_Success(t *testing.T) {
	path := writeADB(t, `echo "$@"
`)
	out, err := NewExecRunner(path, 5*time.Second, zap.NewNop()).Run(context.Background(), "-s", "SER1", "shell", "getprop")
	require.NoError(t, err)
	assert.Equal(t, "-s SER1 shell getprop\n", string(out))
}

func TestExecRunner_Timeout(t *testing.T) {
	path := writeADB(t, `exec sleep 5
`)
	_, err := NewExecRunner(path, 50*time.Millisecond, zap.NewNop()).Run(context.Background(), "wait-for-device")
	require.ErrorIs(t, err, ErrTimeout)
}

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execRun(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRunCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRunMissingConfigFallsBack(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yml")
	stdout, stderr, err := execRun(t, "--config", missing, "--duration", "50ms")
	require.NoError(t, err)

	assert.Contains(t, stderr, "config not found, using defaults")
	assert.Contains(t, stdout, "TASK             PRI")
	assert.Contains(t, stdout, "Control")
	assert.Contains(t, stdout, "Telemetry:")
}

func TestRunPolicyFlag(t *testing.T) {
	dir := t.TempDir()
	_, _, err := execRun(t, "--config", filepath.Join(dir, "x.yml"), "--policy", "fastest", "--duration", "10ms")
	assert.ErrorContains(t, err, "unknown dispatch policy")

	stdout, stderr, err := execRun(t, "--config", filepath.Join(dir, "x.yml"),
		"--policy", "round_robin", "--duration", "20ms", "--log-level", "info")
	require.NoError(t, err)
	assert.Contains(t, stderr, "round_robin")
	assert.NotEmpty(t, stdout)
}

func TestRunWritesCSV(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "events.csv")
	stdout, _, err := execRun(t, "--config", filepath.Join(dir, "x.yml"),
		"--duration", "30ms", "--csv", csvPath, "--report=false")
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Greater(t, len(lines), 1)
	assert.Equal(t, "ticks,event,task,priority,state,late_us,duration_us", lines[0])
	assert.Contains(t, string(data), ",Run,Encoder,")
}

func TestRunReadsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("policy: round_robin\nload_busy_us: 0\n"), 0o644))

	_, stderr, err := execRun(t, "--config", path, "--duration", "20ms")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "using defaults")
	assert.Contains(t, stderr, "round_robin")
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xsnow/pkg/distributed/xclaim"
	"github.com/omeyang/xsnow/pkg/util/xsnow"
)

// syncBuffer claim 测试中命令与断言并发访问输出
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv(xsnow.EnvDatacenterID, "")
	t.Setenv(xsnow.EnvWorkerID, "")
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"xsnowctl"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xsnow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func parseLines(t *testing.T, out string) []xsnow.ID {
	t.Helper()
	var ids []xsnow.ID
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		id, err := xsnow.ParseDecimal(line)
		require.NoError(t, err, line)
		ids = append(ids, id)
	}
	return ids
}

func TestNext_UsesFlagIdentity(t *testing.T) {
	isolateEnv(t)
	code, stdout, stderr := runCLI(t, "--datacenter-id", "3", "--worker-id", "7", "--log-level", "error", "next", "-n", "50")
	require.Equal(t, exitOK, code, stderr)

	ids := parseLines(t, stdout)
	require.Len(t, ids, 50)
	for i, id := range ids {
		c := id.Components()
		assert.Equal(t, int64(3), c.DatacenterID)
		assert.Equal(t, int64(7), c.WorkerID)
		if i > 0 {
			assert.Greater(t, id, ids[i-1])
		}
	}
}

func TestNext_Formats(t *testing.T) {
	isolateEnv(t)

	code, stdout, stderr := runCLI(t, "--worker-id", "5", "next", "--format", "base36")
	require.Equal(t, exitOK, code, stderr)
	id, err := xsnow.ParseID(strings.TrimSpace(stdout))
	require.NoError(t, err)
	assert.Equal(t, int64(5), id.Components().WorkerID)

	code, stdout, stderr = runCLI(t, "--datacenter-id", "2", "next", "-n", "2", "-f", "json", "--no-retry")
	require.Equal(t, exitOK, code, stderr)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.EqualValues(t, 2, rec["datacenter_id"])
	assert.EqualValues(t, 0, rec["worker_id"])
	assert.NotEmpty(t, rec["base36"])
	_, err = time.Parse(time.RFC3339Nano, rec["time"].(string))
	assert.NoError(t, err)
}

func TestNext_UsageErrors(t *testing.T) {
	isolateEnv(t)
	tests := []struct {
		name string
		args []string
	}{
		{"count zero", []string{"next", "-n", "0"}},
		{"count too large", []string{"next", "-n", strconv.Itoa(maxNextCount + 1)}},
		{"unknown format", []string{"next", "--format", "hex"}},
		{"worker out of range", []string{"--worker-id", "32", "next"}},
		{"datacenter negative", []string{"--datacenter-id", "-1", "next"}},
		{"bad log level", []string{"--log-level", "loud", "next"}},
		{"unknown flag", []string{"next", "--bogus"}},
		{"derive and explicit worker", []string{"--derive-worker-id", "name", "--worker-id", "1", "next"}},
		{"unknown derive mode", []string{"--derive-worker-id", "mac", "next"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			assert.Equal(t, exitUsage, code, stderr)
			assert.Contains(t, stderr, "参数错误")
		})
	}
}

func TestNext_EnvIdentity(t *testing.T) {
	t.Setenv(xsnow.EnvDatacenterID, "6")
	t.Setenv(xsnow.EnvWorkerID, "9")

	code, stdout, stderr := runCLI(t, "next")
	require.Equal(t, exitOK, code, stderr)
	c := parseLines(t, stdout)[0].Components()
	assert.Equal(t, int64(6), c.DatacenterID)
	assert.Equal(t, int64(9), c.WorkerID)

	// 命令行优先于环境变量
	code, stdout, stderr = runCLI(t, "--worker-id", "1", "next")
	require.Equal(t, exitOK, code, stderr)
	c = parseLines(t, stdout)[0].Components()
	assert.Equal(t, int64(6), c.DatacenterID)
	assert.Equal(t, int64(1), c.WorkerID)
}

func TestNext_ConfigFile(t *testing.T) {
	isolateEnv(t)
	path := writeConfig(t, "datacenter-id: 4\nworker-id: 11\nlog:\n  level: warn\n")

	code, stdout, stderr := runCLI(t, "--config", path, "next")
	require.Equal(t, exitOK, code, stderr)
	c := parseLines(t, stdout)[0].Components()
	assert.Equal(t, int64(4), c.DatacenterID)
	assert.Equal(t, int64(11), c.WorkerID)

	code, _, stderr = runCLI(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "next")
	assert.Equal(t, exitRuntime, code)
	assert.Contains(t, stderr, "错误")
}

func TestNext_DeriveWorkerID(t *testing.T) {
	isolateEnv(t)
	t.Setenv(xsnow.EnvPodName, "snow-0")

	code, stdout, stderr := runCLI(t, "--derive-worker-id", "name", "next")
	require.Equal(t, exitOK, code, stderr)
	assert.Equal(t, xsnow.WorkerIDFromName("snow-0"), parseLines(t, stdout)[0].Components().WorkerID)
}

func TestDecode(t *testing.T) {
	isolateEnv(t)
	id, err := xsnow.Compose(xsnow.Components{Timestamp: 1234, DatacenterID: 1, WorkerID: 2, Sequence: 3})
	require.NoError(t, err)

	code, stdout, stderr := runCLI(t, "decode", id.Decimal())
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "datacenter=1 worker=2 sequence=3")
	assert.Contains(t, stdout, time.UnixMilli(xsnow.Epoch+1234).UTC().Format(time.RFC3339Nano))

	code, stdout, stderr = runCLI(t, "decode", "--base36", "--json", id.String(), id.String())
	require.Equal(t, exitOK, code, stderr)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	assert.EqualValues(t, id.Int64(), rec["id"])
	assert.EqualValues(t, 1234, rec["timestamp"])
	assert.EqualValues(t, 3, rec["sequence"])
}

func TestDecode_UsageErrors(t *testing.T) {
	isolateEnv(t)
	for _, args := range [][]string{
		{"decode"},
		{"decode", "not-a-number"},
		{"decode", "--", "-5"},
		{"decode", "--base36", "!!"},
	} {
		code, _, stderr := runCLI(t, args...)
		assert.Equal(t, exitUsage, code, "%v: %s", args, stderr)
	}
}

func TestCompose(t *testing.T) {
	isolateEnv(t)
	code, stdout, stderr := runCLI(t, "--datacenter-id", "1", "--worker-id", "2",
		"compose", "--timestamp", "1000", "--sequence", "5")
	require.Equal(t, exitOK, code, stderr)
	want := int64(1000)<<xsnow.TimestampShift | 1<<xsnow.DatacenterShift | 2<<xsnow.WorkerShift | 5
	assert.Equal(t, strconv.FormatInt(want, 10), strings.TrimSpace(stdout))

	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	code, stdout, stderr = runCLI(t, "compose", "--time", at.Format(time.RFC3339))
	require.Equal(t, exitOK, code, stderr)
	id := parseLines(t, stdout)[0]
	assert.True(t, id.Time().Equal(at))
	assert.Equal(t, int64(0), id.Components().Sequence)
}

func TestCompose_UsageErrors(t *testing.T) {
	isolateEnv(t)
	for _, args := range [][]string{
		{"compose", "--time", "2026-01-01T00:00:00Z", "--timestamp", "1"},
		{"compose", "--time", "yesterday"},
		{"compose", "--timestamp", "-1"},
		{"compose", "--sequence", "4096"},
		{"compose", "--time", "2024-01-01T00:00:00Z"},
	} {
		code, _, stderr := runCLI(t, args...)
		assert.Equal(t, exitUsage, code, "%v: %s", args, stderr)
	}
}

func TestVersion(t *testing.T) {
	code, stdout, _ := runCLI(t, "version")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "xsnowctl "+Version)
	assert.Contains(t, stdout, "2025-01-01T00:00:00Z")
}

func TestIsCLIUsageError(t *testing.T) {
	assert.True(t, isCLIUsageError(errors.New("flag provided but not defined: -x")))
	assert.True(t, isCLIUsageError(fmt.Errorf("invalid value \"a\" for flag -n")))
	assert.False(t, isCLIUsageError(errors.New("connection refused")))
}

func TestClaim_RequiresBackend(t *testing.T) {
	isolateEnv(t)
	code, _, stderr := runCLI(t, "claim")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "claim.backend")
}

func redisConfig(t *testing.T, mr *miniredis.Miniredis) string {
	t.Helper()
	return writeConfig(t, fmt.Sprintf(`datacenter-id: 1
worker-id: 2
log:
  level: error
claim:
  backend: redis
  endpoints: ["%s"]
  ttl: 2s
  owner: test-node
`, mr.Addr()))
}

func TestClaim_HoldsAndReleases(t *testing.T) {
	isolateEnv(t)
	mr := miniredis.RunT(t)
	path := redisConfig(t, mr)
	key := xclaim.Key(xclaim.DefaultPrefix, xsnow.Identity{DatacenterID: 1, WorkerID: 2})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var stdout, stderr syncBuffer
	done := make(chan int, 1)
	go func() {
		done <- run(ctx, []string{"xsnowctl", "--config", path, "claim", "--interval", "200ms"}, &stdout, &stderr)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), key)
	}, 5*time.Second, 20*time.Millisecond, stderr.String())
	assert.True(t, mr.Exists(key))
	assert.True(t, strings.HasPrefix(stdout.String(), "1-2\t"))

	// 多次续期后仍持有
	mr.FastForward(time.Second)
	time.Sleep(500 * time.Millisecond)
	mr.FastForward(time.Second)
	assert.True(t, mr.Exists(key))

	cancel()
	select {
	case code := <-done:
		assert.Equal(t, exitOK, code, stderr.String())
	case <-time.After(5 * time.Second):
		t.Fatal("claim did not exit after cancel")
	}
	assert.False(t, mr.Exists(key))
}

func TestClaim_IdentityTaken(t *testing.T) {
	isolateEnv(t)
	mr := miniredis.RunT(t)
	path := redisConfig(t, mr)
	key := xclaim.Key(xclaim.DefaultPrefix, xsnow.Identity{DatacenterID: 1, WorkerID: 2})
	require.NoError(t, mr.Set(key, "other-node"))

	code, stdout, stderr := runCLI(t, "--config", path, "claim")
	assert.Equal(t, exitRuntime, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "held by another owner")
	v, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "other-node", v)
}

func TestClaim_Any(t *testing.T) {
	isolateEnv(t)
	mr := miniredis.RunT(t)
	path := redisConfig(t, mr)
	require.NoError(t, mr.Set(xclaim.Key(xclaim.DefaultPrefix, xsnow.Identity{DatacenterID: 1, WorkerID: 2}), "other-node"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var stdout, stderr syncBuffer
	done := make(chan int, 1)
	go func() {
		done <- run(ctx, []string{"xsnowctl", "--config", path, "claim", "--any"}, &stdout, &stderr)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), xclaim.DefaultPrefix+"/1/")
	}, 5*time.Second, 20*time.Millisecond, stderr.String())
	assert.False(t, strings.HasPrefix(stdout.String(), "1-2\t"))

	cancel()
	assert.Equal(t, exitOK, <-done, stderr.String())
}

func TestClaim_InvalidInterval(t *testing.T) {
	isolateEnv(t)
	mr := miniredis.RunT(t)
	code, _, stderr := runCLI(t, "--config", redisConfig(t, mr), "claim", "--interval", "3s")
	assert.Equal(t, exitUsage, code, stderr)
}

package linear_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/adapters/detector"
	"go.trai.ch/strata/internal/adapters/linear"
)

func TestRenderer_TaskLifecycle(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var stdout, stderr bytes.Buffer
	r := linear.NewRenderer(&stdout, &stderr)

	require.NoError(t, r.Start(context.Background()))

	r.OnPlanEmit([]string{"solve default/linux-64", "solve default/osx-arm64"})
	assert.Contains(t, stderr.String(), "Planning 2 unit(s): solve default/linux-64, solve default/osx-arm64")

	start := time.Now()
	r.OnTaskStart("span1", "", "install default", start)
	assert.Contains(t, stderr.String(), "[install default] Starting...")

	r.OnTaskLog("span1", []byte("remove foo@1.1\n"))
	r.OnTaskLog("span1", []byte("install foo@1.2\n"))
	assert.Equal(t, "[install default] remove foo@1.1\n[install default] install foo@1.2\n", stdout.String())

	r.OnTaskComplete("span1", start.Add(120*time.Millisecond), nil)
	assert.Contains(t, stderr.String(), "[install default] ✓ Completed in 120ms")

	require.NoError(t, r.Stop())
	require.NoError(t, r.Wait())
}

func TestRenderer_PartialLines(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var stdout, stderr bytes.Buffer
	r := linear.NewRenderer(&stdout, &stderr)

	r.OnTaskStart("span1", "", "install default", time.Now())
	r.OnTaskLog("span1", []byte("install fo"))
	assert.Empty(t, stdout.String())

	r.OnTaskLog("span1", []byte("o@1.2\nrelink "))
	assert.Equal(t, "[install default] install foo@1.2\n", stdout.String())

	require.NoError(t, r.Stop())
	assert.Equal(t, "[install default] install foo@1.2\n[install default] relink \n", stdout.String())
}

func TestRenderer_Failure(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var stdout, stderr bytes.Buffer
	r := linear.NewRenderer(&stdout, &stderr)

	start := time.Now()
	r.OnTaskStart("span1", "", "solve test/linux-64", start)
	r.OnTaskComplete("span1", start.Add(time.Second), errors.New("nothing provides foo >=9"))

	assert.Contains(t, stderr.String(), "[solve test/linux-64] ✗ Failed after 1s: nothing provides foo >=9")
}

func TestRenderer_UnknownSpanIgnored(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := linear.NewRenderer(&stdout, &stderr)

	r.OnTaskLog("missing", []byte("line\n"))
	r.OnTaskComplete("missing", time.Now(), nil)

	assert.Empty(t, stdout.String())
	assert.Empty(t, stderr.String())
}

func TestRenderer_Compact(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var stdout, stderr bytes.Buffer
	r := linear.NewRenderer(&stdout, &stderr, linear.WithCompact())

	start := time.Now()
	r.OnPlanEmit([]string{"install default"})
	r.OnTaskStart("span1", "", "install default", start)
	r.OnTaskLog("span1", []byte("install foo@1.2\n"))
	r.OnTaskComplete("span1", start.Add(time.Millisecond), nil)

	assert.Empty(t, stdout.String())
	assert.Equal(t, "[install default] ✓ Completed in 1ms\n", stderr.String())
}

func TestForMode(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var stdout, stderr bytes.Buffer

	linear.ForMode(detector.ModeCompact, &stdout, &stderr).OnTaskStart("span1", "", "lock", time.Now())
	assert.Empty(t, stderr.String())

	linear.ForMode(detector.ModeLinear, &stdout, &stderr).OnTaskStart("span1", "", "lock", time.Now())
	assert.Equal(t, "[lock] Starting...\n", stderr.String())
}

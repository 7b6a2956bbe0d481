package tui_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/adapters/tui"
)

func headlessRenderer() *tui.Renderer {
	model := tui.NewModel(io.Discard)
	return tui.NewRenderer(
		&model,
		tea.WithInput(strings.NewReader("")),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
		tea.WithoutRenderer(),
	)
}

func TestRenderer_Lifecycle(t *testing.T) {
	r := headlessRenderer()

	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Stop())
	require.NoError(t, r.Wait())
}

func TestRenderer_ForwardsSpans(t *testing.T) {
	r := headlessRenderer()
	require.NoError(t, r.Start(context.Background()))

	data := []byte("resolved 12 packages")
	r.OnPlanEmit([]string{"solve default/linux-64", "install default"})
	r.OnTaskStart("s1", "", "solve default/linux-64", epoch)
	r.OnTaskLog("s1", data)
	copy(data, "xxxxxxxx")
	r.OnTaskComplete("s1", epoch.Add(time.Second), nil)
	r.OnTaskStart("s2", "", "install default", epoch)
	r.OnTaskComplete("s2", epoch.Add(time.Second), errors.New("link failed"))

	require.NoError(t, r.Stop())
	require.NoError(t, r.Wait())

	m := r.Model()
	require.Len(t, m.Spans, 2)
	assert.Equal(t, tui.StatusDone, m.Spans[0].Status)
	assert.Equal(t, tui.StatusError, m.Spans[1].Status)

	log := m.Spans[0].Log
	log.Resize(80, 5)
	assert.Contains(t, log.View(), "resolved 12 packages", "log data is copied before the caller reuses it")
}

func TestRenderer_SendAfterExitDoesNotBlock(t *testing.T) {
	r := headlessRenderer()
	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Stop())
	require.NoError(t, r.Wait())

	done := make(chan struct{})
	go func() {
		r.OnTaskStart("s1", "", "solve default/linux-64", epoch)
		r.OnTaskLog("s1", []byte("late"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sending to an exited renderer blocked")
	}
}

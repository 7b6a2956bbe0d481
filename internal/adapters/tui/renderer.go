package tui

import (
	"bytes"
	"context"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/strata/internal/core/ports"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer runs the bubbletea program of a Model as a ports.Renderer.
type Renderer struct {
	program *tea.Program
	model   *Model
	errCh   chan error
}

// NewRenderer creates a renderer for model.
func NewRenderer(model *Model, opts ...tea.ProgramOption) *Renderer {
	return &Renderer{
		program: tea.NewProgram(model, opts...),
		model:   model,
		errCh:   make(chan error, 1),
	}
}

// New creates a renderer drawing on w.
func New(w io.Writer, opts ...tea.ProgramOption) *Renderer {
	model := NewModel(w)
	return NewRenderer(&model, append([]tea.ProgramOption{tea.WithOutput(w)}, opts...)...)
}

// Start runs the program in the background.
func (r *Renderer) Start(_ context.Context) error {
	go func() {
		_, err := r.program.Run()
		r.errCh <- err
	}()
	return nil
}

// Stop asks the program to quit.
func (r *Renderer) Stop() error {
	r.program.Quit()
	return nil
}

// Wait blocks until the program exits. It returns tea.ErrInterrupted when the user pressed ctrl+c.
func (r *Renderer) Wait() error {
	return <-r.errCh
}

// OnPlanEmit adds the planned spans to the list.
func (r *Renderer) OnPlanEmit(names []string) {
	r.program.Send(MsgPlan{Names: names})
}

// OnTaskStart marks a span as running.
func (r *Renderer) OnTaskStart(spanID, parentID, name string, startTime time.Time) {
	r.program.Send(MsgSpanStart{SpanID: spanID, ParentID: parentID, Name: name, StartTime: startTime})
}

// OnTaskLog appends output to the log of a span.
func (r *Renderer) OnTaskLog(spanID string, data []byte) {
	r.program.Send(MsgSpanLog{SpanID: spanID, Data: bytes.Clone(data)})
}

// OnTaskComplete marks a span as finished.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, err error) {
	r.program.Send(MsgSpanComplete{SpanID: spanID, EndTime: endTime, Err: err})
}

// Model returns the model driven by the renderer.
func (r *Renderer) Model() *Model {
	return r.model
}

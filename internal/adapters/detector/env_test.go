package detector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/strata/internal/adapters/detector"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		isTTY bool
		ci    string
		want  detector.OutputMode
	}{
		{name: "terminal", isTTY: true, want: detector.ModeTUI},
		{name: "terminal with CI=false", isTTY: true, ci: "false", want: detector.ModeTUI},
		{name: "terminal with CI=true", isTTY: true, ci: "true", want: detector.ModeLinear},
		{name: "terminal with CI=1", isTTY: true, ci: "1", want: detector.ModeLinear},
		{name: "pipe", isTTY: false, want: detector.ModeLinear},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detector.Detect(tt.isTTY, tt.ci))
		})
	}
}

func TestDetectEnvironment_CI(t *testing.T) {
	t.Setenv("CI", "true")
	assert.Equal(t, detector.ModeLinear, detector.DetectEnvironment())
}

func TestResolveMode(t *testing.T) {
	tests := []struct {
		flag string
		auto detector.OutputMode
		want detector.OutputMode
	}{
		{flag: "", auto: detector.ModeCompact, want: detector.ModeCompact},
		{flag: "auto", auto: detector.ModeLinear, want: detector.ModeLinear},
		{flag: "compact", auto: detector.ModeLinear, want: detector.ModeCompact},
		{flag: "tui", auto: detector.ModeLinear, want: detector.ModeTUI},
		{flag: "compact", auto: detector.ModeTUI, want: detector.ModeCompact},
		{flag: "linear", auto: detector.ModeCompact, want: detector.ModeLinear},
		{flag: "ci", auto: detector.ModeCompact, want: detector.ModeLinear},
		{flag: "bogus", auto: detector.ModeCompact, want: detector.ModeCompact},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			assert.Equal(t, tt.want, detector.ResolveMode(tt.auto, tt.flag))
		})
	}
}

func TestOutputMode_String(t *testing.T) {
	assert.Equal(t, "auto", detector.ModeAuto.String())
	assert.Equal(t, "compact", detector.ModeCompact.String())
	assert.Equal(t, "linear", detector.ModeLinear.String())
	assert.Equal(t, "tui", detector.ModeTUI.String())
}

package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLevel(t *testing.T) {
	original := Logger.GetLevel()
	defer Logger.SetLevel(original)

	tests := []struct {
		input string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"WARN", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{" error ", logrus.ErrorLevel},
		{"", logrus.InfoLevel},
		{"verbose", logrus.InfoLevel},
	}

	for _, tt := range tests {
		SetLevel(tt.input)
		if got := Logger.GetLevel(); got != tt.want {
			t.Errorf("SetLevel(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestUseTextOutput(t *testing.T) {
	originalOut, originalFormatter := Logger.Out, Logger.Formatter
	defer func() {
		Logger.SetOutput(originalOut)
		Logger.SetFormatter(originalFormatter)
	}()

	var buf bytes.Buffer
	UseTextOutput(&buf)
	WithField("modality", "text").Warn("scored")

	out := buf.String()
	if !strings.Contains(out, "modality=text") || !strings.Contains(out, "scored") {
		t.Errorf("Expected text formatted line, got %q", out)
	}
}

package logger

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name   string
		config Config
	}{
		{
			name: "file output",
			config: Config{
				Level:      "info",
				File:       filepath.Join(dir, "mock.log"),
				MaxSize:    1,
				MaxBackups: 1,
				MaxAge:     1,
			},
		},
		{
			name:   "stdout only",
			config: Config{Level: "debug", EnableStdout: true},
		},
		{
			name: "file and stdout",
			config: Config{
				Level:        "warn",
				File:         filepath.Join(dir, "both.log"),
				EnableStdout: true,
			},
		},
		{
			name:   "no writers",
			config: Config{Level: "info"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, InitLogger(tt.config))
			assert.NotNil(t, GetLogger())
		})
	}
}

func TestInitLogger_CreatesLogDirectory(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "nested", "logs")

	err := InitLogger(Config{Level: "info", File: filepath.Join(logDir, "mock.log")})
	require.NoError(t, err)

	info, err := os.Stat(logDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestGetLogger_ReturnsSameInstance(t *testing.T) {
	assert.Same(t, GetLogger(), GetLogger())
}

func TestLogFunctions_RespectLevel(t *testing.T) {
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	require.NoError(t, InitLogger(Config{Level: "info", EnableStdout: true}))

	Debug("debug-event")
	Info("info-event")
	Warn("warn-event")
	Error("error-event")
	Errorf("formatted-%s", "event")
	WithFields(logrus.Fields{"token": MaskSecret("123456789:ABC-DEF1234ghIkl")}).Info("fields-event")
	WithField("chat_id", 42).Info("field-event")

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	output := buf.String()

	assert.Contains(t, output, "info-event")
	assert.Contains(t, output, "warn-event")
	assert.Contains(t, output, "error-event")
	assert.Contains(t, output, "formatted-event")
	assert.Contains(t, output, "1234567***hIkl")
	assert.Contains(t, output, `"chat_id":42`)
	assert.NotContains(t, output, "debug-event")
	assert.NotContains(t, output, "ABC-DEF")
}

func TestNew_LevelAndFormatter(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		expected  logrus.Level
		formatter logrus.Formatter
	}{
		{"debug uses text", "debug", logrus.DebugLevel, &logrus.TextFormatter{}},
		{"trace uses text", "trace", logrus.TraceLevel, &logrus.TextFormatter{}},
		{"info uses json", "info", logrus.InfoLevel, &logrus.JSONFormatter{}},
		{"error uses json", "error", logrus.ErrorLevel, &logrus.JSONFormatter{}},
		{"invalid defaults to info", "loud", logrus.InfoLevel, &logrus.JSONFormatter{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(Config{Level: tt.level})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, l.GetLevel())
			assert.IsType(t, tt.formatter, l.Formatter)
		})
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "***"},
		{"short", "***"},
		{"1234567890", "***"},
		{"123456789:ABC-DEF1234ghIkl-zyx57W2v1u123ew11", "1234567***ew11"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskSecret(tt.input))
		})
	}
}

package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cernauth/cernauth/internal/logger"
)

func TestInitValidation(t *testing.T) {
	require.ErrorIs(t, logger.Init(logger.Log{LogLevel: "info", AppName: "cernauth"}), logger.ErrServiceNameIsEmpty)
	require.ErrorIs(t, logger.Init(logger.Log{LogLevel: "info", ServiceName: "cernauth"}), logger.ErrAppNameIsEmpty)
	require.Error(t, logger.Init(logger.Log{LogLevel: "loud", ServiceName: "cernauth", AppName: "cernauth"}))
}

func TestInitConsole(t *testing.T) {
	tests := []struct {
		name       string
		cfg        logger.Log
		wantOutput bool
		wantJSON   bool
	}{
		{
			name:       "no output enabled",
			cfg:        logger.Log{LogLevel: "info"},
			wantOutput: false,
		},
		{
			name:       "console json",
			cfg:        logger.Log{LogLevel: "info", Console: logger.Console{Enabled: true}},
			wantOutput: true,
			wantJSON:   true,
		},
		{
			name:       "console writer",
			cfg:        logger.Log{LogLevel: "info", Console: logger.Console{Enabled: true, UseConsoleWriter: true}},
			wantOutput: true,
		},
		{
			name:       "trace with caller and stack",
			cfg:        logger.Log{LogLevel: "trace", ReportCaller: true, Console: logger.Console{Enabled: true}},
			wantOutput: true,
			wantJSON:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.AppName = "cernauth"
			tt.cfg.ServiceName = "test"

			out := captureOutput(t, func() {
				require.NoError(t, logger.Init(tt.cfg))

				log.Info().Msg("info message")
				log.Error().Err(errors.New("boom")).Msg("error message")
			})

			if !tt.wantOutput {
				assert.Empty(t, out)

				return
			}

			require.NotEmpty(t, out)

			if tt.wantJSON {
				for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
					var entry map[string]any
					require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
					assert.Equal(t, "cernauth", entry["app"])
				}
			}
		})
	}
}

func TestInitFile(t *testing.T) {
	dir := t.TempDir()

	cfg := logger.Log{
		LogLevel:    "debug",
		AppName:     "cernauth",
		ServiceName: "test",
		File: logger.LogFile{
			Enabled: true,
			Path:    dir,
			Error:   logger.Rotation{File: "error.log", MaxSize: 1},
			Info:    logger.Rotation{File: "info.log", MaxSize: 1},
			Trace:   logger.Rotation{File: "trace.log", MaxSize: 1},
			Warn:    logger.Rotation{File: "warn.log", MaxSize: 1},
		},
	}

	require.NoError(t, logger.Init(cfg))

	log.Info().Msg("to info")
	log.Warn().Msg("to warn")
	log.Error().Msg("to error")

	for name, want := range map[string]string{"info.log": "to info", "warn.log": "to warn", "error.log": "to error"} {
		content, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Contains(t, string(content), want)
	}
}

func TestLevelWriterDisabled(t *testing.T) {
	var buf bytes.Buffer

	lw := &logger.LevelWriter{InfoWriter: &buf}

	n, err := lw.WriteLevel(zerolog.Disabled, []byte("nope"))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, buf.String())
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	stdout, stderr := os.Stdout, os.Stderr

	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout, os.Stderr = w, w

	outC := make(chan string)

	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	fn()

	_ = w.Close()
	os.Stdout, os.Stderr = stdout, stderr

	return <-outC
}

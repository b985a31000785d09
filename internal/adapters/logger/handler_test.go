package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/planoci/plano/internal/adapters/logger"
	"github.com/sebdah/goldie/v2"
)

func TestPrettyHandler_Handle_Levels(t *testing.T) {
	tests := []struct {
		name       string
		level      slog.Level
		msg        string
		goldenName string
	}{
		{
			name:       "info level",
			level:      slog.LevelInfo,
			msg:        "information message",
			goldenName: "handler_info",
		},
		{
			name:       "warn level",
			level:      slog.LevelWarn,
			msg:        "warning message",
			goldenName: "handler_warn",
		},
		{
			name:       "error level",
			level:      slog.LevelError,
			msg:        "error message",
			goldenName: "handler_error",
		},
		{
			name:       "debug level filtered",
			level:      slog.LevelDebug,
			msg:        "debug message",
			goldenName: "handler_debug_filtered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			handler := logger.NewPrettyHandler(buf, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			})
			lg := slog.New(handler)

			lg.Log(t.Context(), tt.level, tt.msg)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestPrettyHandler_Attrs(t *testing.T) {
	tests := []struct {
		name       string
		log        func(lg *slog.Logger)
		goldenName string
	}{
		{
			name: "single attribute",
			log: func(lg *slog.Logger) {
				lg.Info("single attr message", "key", "value")
			},
			goldenName: "handler_attrs_single",
		},
		{
			name: "multiple attributes",
			log: func(lg *slog.Logger) {
				lg.Info("multi attr message", "a", "1", "b", 2)
			},
			goldenName: "handler_attrs_multi",
		},
		{
			name: "handler level attributes",
			log: func(lg *slog.Logger) {
				lg.With("phase", "expand").Info("bound attr message")
			},
			goldenName: "handler_attrs_bound",
		},
		{
			name: "grouped attributes",
			log: func(lg *slog.Logger) {
				lg.WithGroup("req").Info("grouped message", "id", "42")
			},
			goldenName: "handler_attrs_group",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			handler := logger.NewPrettyHandler(buf, nil)
			tt.log(slog.New(handler))

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

package logger

import (
	"context"
	"log/slog"
	"testing"
)

func TestParseLevelRecognizesKnownNamesCaseInsensitively(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDefaultLazilyInitializesWithoutPanicking(t *testing.T) {
	defaultLogger = nil
	if l := Default(); l == nil {
		t.Fatal("Default() returned nil")
	}
}

func TestFromContextOnNilContextReturnsDefault(t *testing.T) {
	if l := FromContext(nil); l == nil {
		t.Fatal("FromContext(nil) returned nil, want a usable default logger")
	}
}

func TestFromContextOnBareContextDoesNotPanic(t *testing.T) {
	if l := FromContext(context.Background()); l == nil {
		t.Fatal("FromContext(context.Background()) returned nil")
	}
}

func TestWithContextValueIsRetrievableViaFromContext(t *testing.T) {
	ctx := WithContext(context.Background(), ProjectIDKey, "proj-1")
	if got := ctx.Value(ProjectIDKey); got != "proj-1" {
		t.Errorf("ctx.Value(ProjectIDKey) = %v, want proj-1", got)
	}
	if l := FromContext(ctx); l == nil {
		t.Fatal("FromContext on an enriched context returned nil")
	}
}

package app

import (
	"bytes"
	"flag"
	"strings"
	"testing"

	"github.com/parlab/sumforge/internal/reduce"
)

func TestHasVersionFlag(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"No args", nil, false},
		{"Single dash", []string{"-version"}, true},
		{"Double dash", []string{"--version"}, true},
		{"Mixed with other flags", []string{"-port", "9090", "--version"}, true},
		{"After terminator", []string{"--", "--version"}, false},
		{"Unrelated flag", []string{"-port", "9090"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasVersionFlag(tt.args); got != tt.want {
				t.Errorf("HasVersionFlag(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintVersion(&buf)

	out := buf.String()
	if !strings.Contains(out, "sumforge") {
		t.Errorf("version banner %q should contain the program name", out)
	}
	if !strings.Contains(out, Version) {
		t.Errorf("version banner %q should contain %q", out, Version)
	}
}

func TestNew(t *testing.T) {
	t.Run("Valid flags", func(t *testing.T) {
		var errBuf bytes.Buffer
		a, err := New([]string{"sumforge", "-port", "9191", "-workers", "2"}, &errBuf)
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		if a.Config.Port != 9191 {
			t.Errorf("Port = %d, want 9191", a.Config.Port)
		}
		if a.Config.Workers != 2 {
			t.Errorf("Workers = %d, want 2", a.Config.Workers)
		}
		if a.Source == nil {
			t.Error("default source factory should be set")
		}
	})

	t.Run("Invalid flag value", func(t *testing.T) {
		var errBuf bytes.Buffer
		if _, err := New([]string{"sumforge", "-port", "-1"}, &errBuf); err == nil {
			t.Error("expected error for invalid port")
		}
	})

	t.Run("Help flag", func(t *testing.T) {
		var errBuf bytes.Buffer
		_, err := New([]string{"sumforge", "--help"}, &errBuf)
		if !IsHelpError(err) {
			t.Errorf("expected flag.ErrHelp, got %v", err)
		}
	})

	t.Run("Empty args fall back to defaults", func(t *testing.T) {
		var errBuf bytes.Buffer
		a, err := New(nil, &errBuf)
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		if a.Config.DefaultSize == 0 {
			t.Error("default size should be populated")
		}
	})

	t.Run("WithSourceFactory overrides the default", func(t *testing.T) {
		var errBuf bytes.Buffer
		called := false
		factory := func(c reduce.Chunk) reduce.Source {
			called = true
			return nil
		}
		a, err := New([]string{"sumforge"}, &errBuf, WithSourceFactory(factory))
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		a.Source(reduce.Chunk{})
		if !called {
			t.Error("custom source factory was not installed")
		}
	})
}

func TestIsHelpError(t *testing.T) {
	if !IsHelpError(flag.ErrHelp) {
		t.Error("flag.ErrHelp should be recognized")
	}
	if IsHelpError(nil) {
		t.Error("nil is not a help error")
	}
}

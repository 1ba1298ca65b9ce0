package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name     string
		config   LoggingConfig
		override string
		wantErr  bool
	}{
		{"Defaults", LoggingConfig{}, "", false},
		{"Console debug", LoggingConfig{Level: "debug", Format: "console"}, "", false},
		{"Override wins", LoggingConfig{Level: "bogus"}, "warn", false},
		{"Uppercase level", LoggingConfig{Level: "ERROR"}, "", false},
		{"Invalid level", LoggingConfig{Level: "loud"}, "", true},
		{"Invalid format", LoggingConfig{Format: "xml"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.config, tt.override)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if logger == nil {
				t.Fatalf("expected a logger")
			}
		})
	}
}

func TestNewLoggerOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "fincalc.log")

	logger, err := NewLogger(LoggingConfig{OutputFile: path}, "info")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected log output in %s", path)
	}
}

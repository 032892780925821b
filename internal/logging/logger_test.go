package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewLoggerWritesJSONToFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "crawl.log")

	cfg := DefaultConfig()
	cfg.Console = false
	cfg.FilePath = logFile
	cfg.Level = slog.LevelDebug

	logger, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.Info("fetching page", "url", "https://a.test/", "depth", 2)

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(content, &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "fetching page" {
		t.Errorf("msg = %v, expected 'fetching page'", entry["msg"])
	}
	if entry["url"] != "https://a.test/" {
		t.Errorf("url attr = %v, expected https://a.test/", entry["url"])
	}
}

func TestNewLoggerLevelFilter(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "crawl.log")

	cfg := DefaultConfig()
	cfg.Console = false
	cfg.FilePath = logFile
	cfg.Level = slog.LevelWarn

	logger, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.Info("should be filtered")
	logger.Warn("should appear")

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if string(content) == "" {
		t.Fatal("warn entry missing from log file")
	}

	var entry map[string]any
	if err := json.Unmarshal(content, &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "should appear" {
		t.Errorf("msg = %v, expected the warn entry only", entry["msg"])
	}
}

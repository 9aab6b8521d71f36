package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenLogFilePrunesOldest(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"datapack-2026-01-01T00-00-00.log",
		"datapack-2026-01-02T00-00-00.log",
		"datapack-2026-01-03T00-00-00.log",
		"unrelated.txt",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := &Config{LogDir: dir, MaxLogFiles: 2}
	f, err := cfg.OpenLogFile()
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var logs []string
	unrelated := false
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), logFilePrefix) {
			logs = append(logs, entry.Name())
		}
		if entry.Name() == "unrelated.txt" {
			unrelated = true
		}
	}
	if len(logs) != cfg.MaxLogFiles {
		t.Errorf("got %d log files, want %d: %v", len(logs), cfg.MaxLogFiles, logs)
	}
	for _, name := range logs {
		if name == "datapack-2026-01-01T00-00-00.log" || name == "datapack-2026-01-02T00-00-00.log" {
			t.Errorf("oldest file survived pruning: %s", name)
		}
	}
	if !unrelated {
		t.Error("non-log file was removed")
	}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const logFilePrefix = "datapack-"

// OpenLogFile creates a timestamped log file under LogDir and prunes
// the oldest files beyond MaxLogFiles. The caller closes the handle.
func (c *Config) OpenLogFile() (*os.File, error) {
	if err := os.MkdirAll(c.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	name := logFilePrefix + time.Now().Format("2006-01-02T15-04-05") + ".log"
	f, err := os.Create(filepath.Join(c.LogDir, name))
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	// Pruning failure is non-fatal; the new file is already open.
	if err := c.pruneLogFiles(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: prune old logs: %v\n", err)
	}
	return f, nil
}

// pruneLogFiles removes the oldest log files once the directory holds
// more than MaxLogFiles. The timestamp in the name sorts chronologically.
func (c *Config) pruneLogFiles() error {
	entries, err := os.ReadDir(c.LogDir)
	if err != nil {
		return err
	}

	var logs []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, logFilePrefix) && strings.HasSuffix(name, ".log") {
			logs = append(logs, name)
		}
	}
	if len(logs) <= c.MaxLogFiles {
		return nil
	}

	sort.Strings(logs)
	for _, name := range logs[:len(logs)-c.MaxLogFiles] {
		if err := os.Remove(filepath.Join(c.LogDir, name)); err != nil {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}

package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCleanOldLogs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"manawire_2026-01-01.log",
		"manawire_2026-01-02.log",
		"manawire_2026-01-03.log",
		"other.log",
	} {
		os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644)
	}

	if got := cleanOldLogs(dir, 2); got != 1 {
		t.Fatalf("cleanOldLogs() removed %d, want 1", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "manawire_2026-01-01.log")); !os.IsNotExist(err) {
		t.Error("oldest log kept")
	}
	if _, err := os.Stat(filepath.Join(dir, "other.log")); err != nil {
		t.Error("unrelated file removed")
	}
}

func TestInitLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	path, err := InitLogger(LogConfig{Level: "debug", Directory: dir})
	if err != nil {
		t.Fatalf("InitLogger() error = %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("log file %s not in %s", path, dir)
	}
	logger := ComponentLogger("test")
	logger.Info().Msg("hello")

	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		t.Errorf("log file empty: %v", err)
	}
}

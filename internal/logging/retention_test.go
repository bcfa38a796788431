package logging_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"sftpsync/internal/config"
	"sftpsync/internal/logging"
)

func writeAged(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.WriteFile(path, []byte("line\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	stamp := time.Now().Add(-age)
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func TestPruneLogsRemovesExpiredDailyFiles(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Dir = t.TempDir()
	cfg.Logging.RetentionDays = 7

	old := logging.LogFilePath(cfg.Logging.Dir, time.Now().AddDate(0, 0, -10))
	recent := logging.LogFilePath(cfg.Logging.Dir, time.Now().AddDate(0, 0, -2))
	today := logging.LogFilePath(cfg.Logging.Dir, time.Now())
	unrelated := filepath.Join(cfg.Logging.Dir, "notes.txt")

	writeAged(t, old, 10*24*time.Hour)
	writeAged(t, recent, 2*24*time.Hour)
	writeAged(t, today, 30*24*time.Hour)
	writeAged(t, unrelated, 30*24*time.Hour)

	logging.PruneLogs(logging.NewNop(), &cfg)

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be pruned", old)
	}
	for _, keep := range []string{recent, today, unrelated} {
		if _, err := os.Stat(keep); err != nil {
			t.Fatalf("expected %s to remain: %v", keep, err)
		}
	}
}

func TestCleanupOldLogsDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sftpsync-2020-01-01.log")
	writeAged(t, path, 365*24*time.Hour)

	if removed := logging.CleanupOldLogs(nil, 0, logging.RetentionTarget{Dir: dir, Pattern: "sftpsync-*.log"}); len(removed) != 0 {
		t.Fatalf("expected nothing removed, got %v", removed)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file to remain: %v", err)
	}
}

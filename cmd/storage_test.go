package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStorageClearFileBackend(t *testing.T) {
	dir := setTestHome(t)
	_, url := newFakeService(t)
	submitOnce(t, url)

	cachePath := filepath.Join(dir, "state", "oriki", "last-result.json")
	if _, err := os.Stat(cachePath); err != nil {
		t.Fatalf("expected cache file after submit: %v", err)
	}
	if err := os.WriteFile(cachePath+".lock", []byte("1\n"), 0o600); err != nil {
		t.Fatalf("write lock: %v", err)
	}

	_, errOut, err := runCLI(t, "", "storage", "clear")
	if err != nil {
		t.Fatalf("storage clear: %v", err)
	}
	for _, p := range []string{cachePath, cachePath + ".lock"} {
		if _, statErr := os.Stat(p); !os.IsNotExist(statErr) {
			t.Fatalf("expected %s removed, stat err: %v", p, statErr)
		}
	}
	if !strings.Contains(errOut, "Cleared storage for file backend") {
		t.Fatalf("expected clear summary, got: %q", errOut)
	}
}

func TestStorageClearSQLiteBackend(t *testing.T) {
	dir := setTestHome(t)
	_, url := newFakeService(t)
	if _, _, err := runCLI(t, "", "config", "set", "cache.backend", "sqlite"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	submitOnce(t, url)

	dbPath := filepath.Join(dir, "state", "oriki", "cache.db")
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected sqlite db after submit: %v", err)
	}
	out, _, err := runCLI(t, "", "show")
	if err != nil || !strings.Contains(out, "Child of the secular dawn") {
		t.Fatalf("expected result from sqlite, got %q (%v)", out, err)
	}

	_, errOut, err := runCLI(t, "", "storage", "clear")
	if err != nil {
		t.Fatalf("storage clear: %v", err)
	}
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm", dbPath + "-journal"} {
		if _, statErr := os.Stat(p); !os.IsNotExist(statErr) {
			t.Fatalf("expected %s removed, stat err: %v", p, statErr)
		}
	}
	if !strings.Contains(errOut, "Deleted "+dbPath) {
		t.Fatalf("expected delete line, got: %q", errOut)
	}
}

func TestStorageClearNothingToDo(t *testing.T) {
	setTestHome(t)

	_, errOut, err := runCLI(t, "", "storage", "clear")
	if err != nil {
		t.Fatalf("storage clear: %v", err)
	}
	if !strings.Contains(errOut, "No storage files found for file backend") {
		t.Fatalf("expected empty summary, got: %q", errOut)
	}
}

func TestStorageClearWithLogs(t *testing.T) {
	dir := setTestHome(t)

	logPath := filepath.Join(dir, "state", "oriki", "oriki.log")
	_, errOut, err := runCLI(t, "", "storage", "clear", "--logs")
	if err != nil {
		t.Fatalf("storage clear --logs: %v", err)
	}
	// The logger opened the file during setup, so there is always one to delete.
	if !strings.Contains(errOut, "Deleted "+logPath) {
		t.Fatalf("expected log file deleted, got: %q", errOut)
	}
}

func TestDedupeNonEmpty(t *testing.T) {
	got := dedupeNonEmpty([]string{" a ", "", "b", "a", "  ", "b"})
	if strings.Join(got, ",") != "a,b" {
		t.Fatalf("unexpected dedupe result: %v", got)
	}
}

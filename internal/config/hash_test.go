package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultFileName)
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLockDryRun(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeConfig(t, tmpDir, "bridge:\n  listen: 127.0.0.1:0\n")

	report, err := Lock(path, true)
	if err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}
	if report.Written {
		t.Fatal("report.Written = true, want false in dry-run")
	}
	if report.Hash == "" {
		t.Fatal("expected computed hash")
	}
	if _, err := os.Stat(filepath.Join(tmpDir, ChecksumFileName)); !os.IsNotExist(err) {
		t.Fatal(".checksums should not be written in dry-run mode")
	}
}

func TestLockWritesManifest(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeConfig(t, tmpDir, "bridge:\n  listen: 127.0.0.1:0\n")

	report, err := Lock(tmpDir, false)
	if err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}
	if !report.Written {
		t.Fatal("report.Written = false, want true")
	}

	manifest, err := LoadChecksums(tmpDir)
	if err != nil {
		t.Fatalf("LoadChecksums() failed: %v", err)
	}
	if manifest.Hashes[DefaultFileName] != report.Hash {
		t.Fatalf("manifest hash = %q, want %q", manifest.Hashes[DefaultFileName], report.Hash)
	}
	if err := VerifyFileHash(path, report.Hash); err != nil {
		t.Fatalf("VerifyFileHash() failed: %v", err)
	}
}

func TestLoadRejectsTamperedConfig(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeConfig(t, tmpDir, "bridge:\n  listen: 127.0.0.1:0\n")

	if _, err := Lock(path, false); err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("Load() of locked config failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("bridge:\n  listen: 0.0.0.0:9004\n"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected hash mismatch error")
	}
	if !strings.Contains(err.Error(), "hash mismatch") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadChecksumsMissing(t *testing.T) {
	_, err := LoadChecksums(t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "config lock") {
		t.Fatalf("expected hint to run config lock, got %v", err)
	}
}

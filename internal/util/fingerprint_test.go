package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFingerprintDeterministic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "video.mp4")
	if err := os.WriteFile(path, []byte("some video bytes"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	first, err := Fingerprint(path)
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	second, err := Fingerprint(path)
	if err != nil {
		t.Fatalf("Fingerprint failed on second pass: %v", err)
	}

	if first != second {
		t.Errorf("expected identical fingerprints, got %s and %s", first, second)
	}

	// MD5 hex digest is 32 characters
	if len(first) != 32 {
		t.Errorf("expected 32-character digest, got %d (%s)", len(first), first)
	}
}

func TestFingerprintDiffersForDifferentContent(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.mp4")
	pathB := filepath.Join(dir, "b.mp4")
	if err := os.WriteFile(pathA, []byte("content A"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if err := os.WriteFile(pathB, []byte("content B"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	hashA, err := Fingerprint(pathA)
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	hashB, err := Fingerprint(pathB)
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}

	if hashA == hashB {
		t.Errorf("expected different fingerprints for different content, both were %s", hashA)
	}
}

func TestFingerprintSameContentDifferentPath(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "original.mp4")
	pathB := filepath.Join(dir, "copy.mp4")
	content := []byte("identical bytes")
	if err := os.WriteFile(pathA, content, 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if err := os.WriteFile(pathB, content, 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	hashA, err := Fingerprint(pathA)
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	hashB, err := Fingerprint(pathB)
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}

	if hashA != hashB {
		t.Errorf("expected identical fingerprints for identical bytes, got %s and %s", hashA, hashB)
	}
}

func TestFingerprintMissingFile(t *testing.T) {
	_, err := Fingerprint(filepath.Join(t.TempDir(), "missing.mp4"))
	if err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

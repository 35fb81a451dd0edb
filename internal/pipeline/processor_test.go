package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/franz/ta2music/internal/ledger"
	"github.com/franz/ta2music/internal/util"
)

func testLogger() *util.Logger {
	return util.NewLogger(io.Discard, util.LevelError)
}

// fakeGate is a canned playlist gate
type fakeGate struct {
	musicIDs map[string]bool
	titles   map[string]string
}

func (g *fakeGate) IsInMusicPlaylist(ctx context.Context, videoID string) bool {
	return g.musicIDs[videoID]
}

func (g *fakeGate) VideoTitle(ctx context.Context, videoID string) string {
	return g.titles[videoID]
}

// fakeFetcher records invocations instead of running yt-dlp
type fakeFetcher struct {
	calls []string // "videoID|title" per invocation
	err   error
}

func (f *fakeFetcher) Fetch(ctx context.Context, videoID, title string) (string, error) {
	f.calls = append(f.calls, videoID+"|"+title)
	if f.err != nil {
		return "", f.err
	}
	name := videoID
	if title != "" {
		name = title
	}
	return "/music/" + name + ".mp3", nil
}

func openTestLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"), testLogger())
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func writeVideo(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("video bytes for "+name), 0o644); err != nil {
		t.Fatalf("failed to write video file: %v", err)
	}
	return path
}

func TestProcessFetchesQualifyingVideo(t *testing.T) {
	led := openTestLedger(t)
	gate := &fakeGate{
		musicIDs: map[string]bool{"abc123": true},
		titles:   map[string]string{"abc123": "Song Title"},
	}
	fetcher := &fakeFetcher{}
	p := New(&Config{Ledger: led, Gate: gate, Fetcher: fetcher, Logger: testLogger()})

	path := writeVideo(t, "abc123.mp4")

	if !p.Process(context.Background(), path) {
		t.Fatal("expected pipeline pass to succeed")
	}

	if len(fetcher.calls) != 1 || fetcher.calls[0] != "abc123|Song Title" {
		t.Errorf("unexpected fetch calls: %v", fetcher.calls)
	}

	count, err := led.Count()
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected ledger count 1, got %d", count)
	}

	hash, err := util.Fingerprint(path)
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}
	if !led.Contains(hash) {
		t.Error("expected ledger to contain the file's hash")
	}
}

func TestProcessSkipsAlreadyProcessedContent(t *testing.T) {
	led := openTestLedger(t)
	gate := &fakeGate{musicIDs: map[string]bool{"abc123": true}}
	fetcher := &fakeFetcher{}
	p := New(&Config{Ledger: led, Gate: gate, Fetcher: fetcher, Logger: testLogger()})

	path := writeVideo(t, "abc123.mp4")

	if !p.Process(context.Background(), path) {
		t.Fatal("expected first pass to succeed")
	}

	// Same bytes reappear (e.g. the file was re-copied): the hash matches
	// the ledger entry and the fetcher must not run again.
	if p.Process(context.Background(), path) {
		t.Error("expected second pass to be rejected")
	}

	if len(fetcher.calls) != 1 {
		t.Errorf("expected exactly one fetch, got %d", len(fetcher.calls))
	}

	count, err := led.Count()
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected ledger count to stay at 1, got %d", count)
	}
}

func TestProcessSkipsNonQualifyingVideo(t *testing.T) {
	led := openTestLedger(t)
	gate := &fakeGate{musicIDs: map[string]bool{}}
	fetcher := &fakeFetcher{}
	p := New(&Config{Ledger: led, Gate: gate, Fetcher: fetcher, Logger: testLogger()})

	path := writeVideo(t, "xyz999.mp4")

	if p.Process(context.Background(), path) {
		t.Error("expected non-qualifying video to be rejected")
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("expected no fetch, got %d", len(fetcher.calls))
	}

	count, err := led.Count()
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty ledger, got %d", count)
	}
}

func TestProcessDegradedModeWithoutGate(t *testing.T) {
	led := openTestLedger(t)
	fetcher := &fakeFetcher{}
	p := New(&Config{Ledger: led, Gate: nil, Fetcher: fetcher, Logger: testLogger()})

	path := writeVideo(t, "abc123.mp4")

	if p.Process(context.Background(), path) {
		t.Error("expected pass to be skipped without a configured gate")
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("expected no fetch in degraded mode, got %d", len(fetcher.calls))
	}

	count, err := led.Count()
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty ledger in degraded mode, got %d", count)
	}
}

func TestProcessFetchFailureLeavesLedgerUntouched(t *testing.T) {
	led := openTestLedger(t)
	gate := &fakeGate{musicIDs: map[string]bool{"abc123": true}}
	fetcher := &fakeFetcher{err: errors.New("network down")}
	p := New(&Config{Ledger: led, Gate: gate, Fetcher: fetcher, Logger: testLogger()})

	path := writeVideo(t, "abc123.mp4")

	if p.Process(context.Background(), path) {
		t.Error("expected failed fetch to be reported as not processed")
	}

	count, err := led.Count()
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected ledger untouched after fetch failure, got %d", count)
	}

	// A later pass over the same file may retry
	fetcher.err = nil
	if !p.Process(context.Background(), path) {
		t.Error("expected retry after failure to succeed")
	}
}

func TestProcessMissingFile(t *testing.T) {
	led := openTestLedger(t)
	fetcher := &fakeFetcher{}
	p := New(&Config{Ledger: led, Gate: &fakeGate{}, Fetcher: fetcher, Logger: testLogger()})

	if p.Process(context.Background(), filepath.Join(t.TempDir(), "gone.mp4")) {
		t.Error("expected missing file to be rejected")
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("expected no fetch for missing file, got %d", len(fetcher.calls))
	}
}

func TestProcessRejectsNonVideoFile(t *testing.T) {
	led := openTestLedger(t)
	fetcher := &fakeFetcher{}
	p := New(&Config{Ledger: led, Gate: &fakeGate{}, Fetcher: fetcher, Logger: testLogger()})

	path := filepath.Join(t.TempDir(), "abc123.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if p.Process(context.Background(), path) {
		t.Error("expected non-video file to be rejected")
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("expected no fetch, got %d", len(fetcher.calls))
	}
}

// Package pipeline wires the fingerprinting, dedup ledger, playlist gate
// and fetch executor into the per-file decision pipeline.
package pipeline

import (
	"context"
	"os"

	"github.com/franz/ta2music/internal/ledger"
	"github.com/franz/ta2music/internal/util"
	"github.com/google/uuid"
)

// Gate answers playlist membership and title lookups against the metadata
// service. Both methods degrade to negative answers on failure instead of
// returning errors. *tubearchivist.Client implements it.
type Gate interface {
	IsInMusicPlaylist(ctx context.Context, videoID string) bool
	VideoTitle(ctx context.Context, videoID string) string
}

// Fetcher downloads the audio copy of a video. *fetch.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, videoID, title string) (string, error)
}

// Processor runs one pipeline pass per settled video file
type Processor struct {
	ledger  *ledger.Ledger
	gate    Gate // nil when the API is not configured (degraded mode)
	fetcher Fetcher
	logger  *util.Logger
}

// Config holds processor configuration
type Config struct {
	Ledger  *ledger.Ledger
	Gate    Gate
	Fetcher Fetcher
	Logger  *util.Logger
}

// New creates a new Processor
func New(cfg *Config) *Processor {
	return &Processor{
		ledger:  cfg.Ledger,
		gate:    cfg.Gate,
		fetcher: cfg.Fetcher,
		logger:  cfg.Logger,
	}
}

// Process runs the pipeline for one file and reports whether an MP3 was
// fetched. Every failure is contained here: rejected or failed files are
// logged and abandoned without side effects, and the ledger is only written
// after a fetch fully completes.
func (p *Processor) Process(ctx context.Context, path string) bool {
	// Correlation id so interleaved log lines from concurrent passes can
	// be told apart
	pass := uuid.NewString()[:8]

	if _, err := os.Stat(path); err != nil {
		p.logger.Warnf("[%s] File no longer exists: %s", pass, path)
		return false
	}
	if !util.IsVideoFile(path) {
		p.logger.Debugf("[%s] Not a video file: %s", pass, path)
		return false
	}

	hash, err := util.Fingerprint(path)
	if err != nil {
		p.logger.Warnf("[%s] Failed to fingerprint %s: %v", pass, path, err)
		return false
	}

	if p.ledger.Contains(hash) {
		p.logger.Debugf("[%s] Already processed, skipping: %s", pass, path)
		return false
	}

	if p.gate == nil {
		p.logger.Warnf("[%s] TubeArchivist API not configured, skipping: %s", pass, path)
		return false
	}

	videoID := util.VideoID(path)
	if videoID == "" {
		p.logger.Warnf("[%s] Could not derive a video id from %s", pass, path)
		return false
	}

	if !p.gate.IsInMusicPlaylist(ctx, videoID) {
		p.logger.Infof("[%s] Video %s is not in a MUSIC playlist, skipping", pass, videoID)
		return false
	}

	title := p.gate.VideoTitle(ctx, videoID)
	if title == "" {
		p.logger.Warnf("[%s] No title for video %s, using the id as filename", pass, videoID)
	}

	outputPath, err := p.fetcher.Fetch(ctx, videoID, title)
	if err != nil {
		// No ledger mutation: a future duplicate creation event for a
		// re-copied file is the retry path.
		p.logger.Errorf("[%s] Download failed for %s: %v", pass, path, err)
		return false
	}

	if err := p.ledger.Mark(hash); err != nil {
		// The MP3 exists; the fetcher's pre-existence check absorbs the
		// redundant fetch a lost mark would cause.
		p.logger.Errorf("[%s] Failed to record %s in ledger: %v", pass, hash, err)
	}

	p.logger.Successf("[%s] %s -> %s", pass, path, outputPath)
	return true
}

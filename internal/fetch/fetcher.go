// Package fetch downloads the audio track of a YouTube video into the music
// library by invoking yt-dlp as an external command.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/franz/ta2music/internal/util"
)

const (
	// DefaultTimeout is the wall-clock limit for one yt-dlp invocation
	DefaultTimeout = time.Hour

	// audioExtension is the fixed output format of every fetch
	audioExtension = ".mp3"

	// defaultCommand is the fetch tool looked up on PATH
	defaultCommand = "yt-dlp"

	// watchURLBase is the canonical video URL prefix yt-dlp is pointed at
	watchURLBase = "https://www.youtube.com/watch?v="
)

// Fetcher invokes yt-dlp to produce MP3 files with embedded cover art
type Fetcher struct {
	outputDir string
	command   string
	timeout   time.Duration
	logger    *util.Logger
}

// Config holds fetcher configuration
type Config struct {
	OutputDir string        // Music library directory the MP3s land in
	Command   string        // Fetch command (default "yt-dlp"; tests inject a stub)
	Timeout   time.Duration // Wall-clock limit per invocation (0 = DefaultTimeout)
	Logger    *util.Logger
}

// New creates a new Fetcher
func New(cfg *Config) *Fetcher {
	if cfg.Command == "" {
		cfg.Command = defaultCommand
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Fetcher{
		outputDir: cfg.OutputDir,
		command:   cfg.Command,
		timeout:   cfg.Timeout,
		logger:    cfg.Logger,
	}
}

// OutputPath returns the final MP3 path a fetch for the given video would
// produce: sanitized title when available, otherwise the raw video id.
func (f *Fetcher) OutputPath(videoID, title string) string {
	name := videoID
	if title != "" {
		name = SanitizeFilename(title)
	}
	return filepath.Join(f.outputDir, name+audioExtension)
}

// Fetch downloads the audio track for videoID and returns the path of the
// resulting MP3. If the expected output already exists the command is not
// invoked and the existing path is returned: a partially processed prior
// run, or a second source sanitizing to the same name, counts as done.
//
// The invocation is bounded by the configured timeout and is cancelled if
// ctx is cancelled. Returned errors wrap util.ErrTimeout and
// util.ErrNotProduced where applicable.
func (f *Fetcher) Fetch(ctx context.Context, videoID, title string) (string, error) {
	expected := f.OutputPath(videoID, title)
	if _, err := os.Stat(expected); err == nil {
		f.logger.Infof("MP3 already exists, skipping download: %s", expected)
		return expected, nil
	}

	// yt-dlp picks the intermediate container itself; %(ext)s lets it
	// write temp stages while the final transcode lands on .mp3.
	template := strings.TrimSuffix(expected, audioExtension) + ".%(ext)s"
	videoURL := watchURLBase + videoID

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	// -x extracts audio only, quality 0 is the best available, and the
	// thumbnail becomes the cover art the music server displays.
	cmd := exec.CommandContext(ctx, f.command,
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "0",
		"--embed-thumbnail",
		"--output", template,
		videoURL,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	f.logger.Infof("Downloading %s -> %s", videoURL, expected)

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%w after %v: %s", util.ErrTimeout, f.timeout, videoURL)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s failed for %s: %w: %s", f.command, videoURL, err, msg)
		}
		return "", fmt.Errorf("%s failed for %s: %w", f.command, videoURL, err)
	}

	if _, err := os.Stat(expected); err != nil {
		// The tool reported success but the file is not there; this must
		// surface instead of being assumed successful.
		return "", fmt.Errorf("%w: expected %s", util.ErrNotProduced, expected)
	}

	f.logger.Infof("Download complete: %s", expected)
	f.verifyTags(expected)

	return expected, nil
}

// verifyTags confirms the produced file parses as tagged audio. Best-effort
// only: the download itself already succeeded, so problems are logged, not
// returned.
func (f *Fetcher) verifyTags(path string) {
	file, err := os.Open(path)
	if err != nil {
		f.logger.Warnf("Cannot open produced file for verification: %s: %v", path, err)
		return
	}
	defer file.Close()

	m, err := tag.ReadFrom(file)
	if err != nil {
		f.logger.Warnf("Produced file has no readable tags: %s: %v", path, err)
		return
	}

	if title := m.Title(); title != "" {
		f.logger.Debugf("Embedded title of %s: %q", filepath.Base(path), title)
	}
}

// Package tubearchivist is a client for the TubeArchivist HTTP API. It
// answers the only two questions the pipeline has: is a video part of a
// MUSIC playlist, and what is its display title.
package tubearchivist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/franz/ta2music/internal/util"
)

const (
	// RequestTimeout bounds every individual API call
	RequestTimeout = 10 * time.Second

	// musicPrefix marks playlists whose members qualify for MP3 extraction.
	// Matched case-insensitively against the playlist name, e.g. MUSIC2025
	// or music_rock.
	musicPrefix = "MUSIC"
)

// Client handles TubeArchivist API requests
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *util.Logger
}

// NewClient creates a TubeArchivist API client authenticating with the
// given token.
func NewClient(baseURL, token string, logger *util.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: RequestTimeout,
		},
		logger: logger,
	}
}

// Video represents video metadata from TubeArchivist
type Video struct {
	YoutubeID  string `json:"youtube_id"`
	Title      string `json:"title"`
	VideoTitle string `json:"video_title"`
}

// Playlist represents a playlist from TubeArchivist
type Playlist struct {
	PlaylistID   string `json:"playlist_id"`
	PlaylistName string `json:"playlist_name"`
}

type playlistListResponse struct {
	Data []Playlist `json:"data"`
}

type playlistEntry struct {
	YoutubeID string `json:"youtube_id"`
}

type playlistDetailResponse struct {
	PlaylistEntries []playlistEntry `json:"playlist_entries"`
}

// get performs an authenticated GET against the API and decodes the JSON
// response into out.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// GetVideo retrieves metadata for a single video by id
func (c *Client) GetVideo(ctx context.Context, videoID string) (*Video, error) {
	if videoID == "" {
		return nil, fmt.Errorf("video id cannot be empty")
	}

	var video Video
	if err := c.get(ctx, "/api/video/"+videoID+"/", &video); err != nil {
		return nil, err
	}
	return &video, nil
}

// GetPlaylists lists all playlists known to TubeArchivist
func (c *Client) GetPlaylists(ctx context.Context) ([]Playlist, error) {
	var resp playlistListResponse
	if err := c.get(ctx, "/api/playlist/", &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetPlaylistVideoIDs returns the youtube ids of all entries in a playlist
func (c *Client) GetPlaylistVideoIDs(ctx context.Context, playlistID string) ([]string, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("playlist id cannot be empty")
	}

	var resp playlistDetailResponse
	if err := c.get(ctx, "/api/playlist/"+playlistID+"/", &resp); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(resp.PlaylistEntries))
	for _, entry := range resp.PlaylistEntries {
		if entry.YoutubeID != "" {
			ids = append(ids, entry.YoutubeID)
		}
	}
	return ids, nil
}

// IsInMusicPlaylist reports whether the video appears in at least one
// playlist whose name starts with the MUSIC marker. It enumerates playlists
// on every call (membership is not cached across calls) and stops at the
// first playlist containing the id.
//
// It never fails: any transport or protocol error is logged and degrades to
// false, so the caller skips the file instead of crashing.
func (c *Client) IsInMusicPlaylist(ctx context.Context, videoID string) bool {
	playlists, err := c.GetPlaylists(ctx)
	if err != nil {
		c.logger.Errorf("Failed to list playlists: %v", err)
		return false
	}

	for _, playlist := range playlists {
		if !strings.HasPrefix(strings.ToUpper(playlist.PlaylistName), musicPrefix) {
			continue
		}
		if playlist.PlaylistID == "" {
			continue
		}

		ids, err := c.GetPlaylistVideoIDs(ctx, playlist.PlaylistID)
		if err != nil {
			c.logger.Errorf("Failed to list videos of playlist %s: %v", playlist.PlaylistID, err)
			continue
		}

		for _, id := range ids {
			if id == videoID {
				c.logger.Infof("Video %s is in playlist %q", videoID, playlist.PlaylistName)
				return true
			}
		}
	}

	return false
}

// VideoTitle returns the display title for a video, preferring the title
// field and falling back to video_title. Returns "" when the lookup fails
// or neither field is set; the caller falls back to the video id.
func (c *Client) VideoTitle(ctx context.Context, videoID string) string {
	video, err := c.GetVideo(ctx, videoID)
	if err != nil {
		c.logger.Warnf("Failed to fetch video info for %s: %v", videoID, err)
		return ""
	}

	if video.Title != "" {
		return video.Title
	}
	return video.VideoTitle
}

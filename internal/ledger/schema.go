package ledger

// Schema v1 - processed-video ledger
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Videos that already have an MP3 in the music library, keyed by the
-- content hash of the source video file. Append-only: rows are never
-- updated or deleted.
CREATE TABLE IF NOT EXISTS processed_videos (
  content_hash TEXT PRIMARY KEY,
  processed_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_processed_videos_hash
  ON processed_videos(content_hash);
`

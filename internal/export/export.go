// Package export periodically snapshots each user's video library, hotcues
// included, to object storage. One user is claimed per tick; a library is
// re-exported once it is older than a day.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cuetube/cuetube/internal/database"
	"github.com/cuetube/cuetube/internal/hotcue"
	"github.com/cuetube/cuetube/internal/metrics"
)

// ObjectStorage is the slice of the S3 client the worker needs.
type ObjectStorage interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
}

type exportedVideo struct {
	VideoID    string     `json:"videoId"`
	Title      string     `json:"title"`
	YouTubeURL string     `json:"youtubeUrl"`
	Hotcues    hotcue.Set `json:"hotcues"`
}

type librarySnapshot struct {
	Username   string          `json:"username"`
	ExportedAt time.Time       `json:"exportedAt"`
	Videos     []exportedVideo `json:"videos"`
}

// SnapshotKey is where a user's export lands in the bucket.
func SnapshotKey(username string) string {
	return fmt.Sprintf("exports/%s/library.json", username)
}

func processNextExport(ctx context.Context, db database.DBTX, storage ObjectStorage, m *metrics.Metrics) {
	var userID, username string
	err := db.QueryRow(ctx,
		`UPDATE users SET last_export_at = now()
		 WHERE id = (
		     SELECT id FROM users
		     WHERE last_export_at IS NULL OR last_export_at < now() - INTERVAL '24 hours'
		     ORDER BY last_export_at ASC NULLS FIRST LIMIT 1
		     FOR UPDATE SKIP LOCKED
		 )
		 RETURNING id, username`,
	).Scan(&userID, &username)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("export-worker: failed to claim user: %v", err)
		}
		return
	}

	snapshot, err := buildSnapshot(ctx, db, userID, username)
	if err != nil {
		log.Printf("export-worker: failed to build snapshot for %s: %v", username, err)
		markExportFailed(ctx, db, userID)
		return
	}

	body, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		log.Printf("export-worker: failed to encode snapshot for %s: %v", username, err)
		markExportFailed(ctx, db, userID)
		return
	}

	if err := storage.PutObject(ctx, SnapshotKey(username), body, "application/json"); err != nil {
		log.Printf("export-worker: upload failed for %s: %v", username, err)
		markExportFailed(ctx, db, userID)
		return
	}

	if m != nil {
		m.IncExports()
	}
	log.Printf("export-worker: exported %d videos for %s", len(snapshot.Videos), username)
}

func buildSnapshot(ctx context.Context, db database.DBTX, userID, username string) (*librarySnapshot, error) {
	rows, err := db.Query(ctx,
		"SELECT video_id, title, youtube_url, hotcues FROM videos WHERE user_id = $1 ORDER BY created_at ASC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	snapshot := &librarySnapshot{
		Username:   username,
		ExportedAt: time.Now().UTC(),
		Videos:     []exportedVideo{},
	}
	for rows.Next() {
		var v exportedVideo
		var rawCues []byte
		if err := rows.Scan(&v.VideoID, &v.Title, &v.YouTubeURL, &rawCues); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		v.Hotcues = hotcue.Normalize(rawCues)
		snapshot.Videos = append(snapshot.Videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return snapshot, nil
}

// markExportFailed clears the claim so the next tick retries the user.
func markExportFailed(ctx context.Context, db database.DBTX, userID string) {
	if _, err := db.Exec(ctx,
		"UPDATE users SET last_export_at = NULL WHERE id = $1",
		userID,
	); err != nil {
		log.Printf("export-worker: failed to reset claim for user %s: %v", userID, err)
	}
}

// StartExportWorker runs the export loop until ctx is cancelled. A nil
// storage disables the worker.
func StartExportWorker(ctx context.Context, db database.DBTX, storage ObjectStorage, m *metrics.Metrics, interval time.Duration) {
	if storage == nil {
		return
	}
	go func() {
		log.Println("export-worker: started")
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Println("export-worker: shutting down")
				return
			case <-ticker.C:
				processNextExport(ctx, db, storage, m)
			}
		}
	}()
}

package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateVideos, downCreateVideos)
}

func upCreateVideos(ctx context.Context, tx *sql.Tx) error {
	createVideoTable := `
	CREATE TABLE IF NOT EXISTS videos (
		id VARCHAR(64) PRIMARY KEY,
		collection VARCHAR(100) NOT NULL,
		filename VARCHAR(255),
		mime_type VARCHAR(100),
		path VARCHAR(1024),
		url VARCHAR(1024),
		filesize BIGINT NOT NULL DEFAULT 0,
		width BIGINT,
		height BIGINT,
		duration DOUBLE PRECISION,
		bitrate BIGINT,
		thumbnail_url VARCHAR(1024),
		variants TEXT,
		video_processing_status TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);
	`
	if _, err := tx.ExecContext(ctx, createVideoTable); err != nil {
		return fmt.Errorf("could not create videos table: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_videos_collection ON videos (collection);`); err != nil {
		return fmt.Errorf("could not create collection index: %w", err)
	}
	return nil
}

func downCreateVideos(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS videos;"); err != nil {
		return fmt.Errorf("could not drop table videos: %w", err)
	}
	return nil
}

package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"post_syncer/internal/domain"
)

type AttachmentStore struct {
	db *sqlx.DB
}

func NewAttachmentStore(db *sqlx.DB) *AttachmentStore {
	return &AttachmentStore{db: db}
}

func (s *AttachmentStore) Create(ctx context.Context, a *domain.Attachment) (int64, error) {
	var id int64
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, `
		INSERT INTO attachments (
			post_id, filename, path, mime_type, title, size, width, height, blurhash, source_url
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
		RETURNING id`,
		a.PostID,
		a.Filename,
		a.Path,
		a.MimeType,
		a.Title,
		a.Size,
		a.Width,
		a.Height,
		a.BlurHash,
		a.SourceURL,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *AttachmentStore) ListByPostID(ctx context.Context, postID int64) ([]domain.Attachment, error) {
	query := `
		SELECT id, post_id, filename, path, mime_type, title, size, width, height, blurhash, source_url, created_at
		FROM attachments
		WHERE post_id = $1
		ORDER BY id`

	var attachments []domain.Attachment
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &attachments, query, postID)
	return attachments, err
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"post_syncer/internal/domain"
)

const postColumns = `
	p.id, p.post_type, p.title, p.body_html, p.published_at, p.status,
	p.author_id, p.thumbnail_id, p.created_at, p.updated_at`

type PostStore struct {
	db *sqlx.DB
}

func NewPostStore(db *sqlx.DB) *PostStore {
	return &PostStore{db: db}
}

// FindBySourceID returns the post of postType whose _source_id meta equals sourceID, in any status.
// It returns nil when there is none.
func (s *PostStore) FindBySourceID(ctx context.Context, postType string, sourceID int64) (*domain.Post, error) {
	query := `
		SELECT` + postColumns + `, m.meta_value::BIGINT AS source_id
		FROM posts p
		INNER JOIN post_meta m ON m.post_id = p.id AND m.meta_key = $1
		WHERE p.post_type = $2 AND m.meta_value = $3
		ORDER BY p.id
		LIMIT 1`

	var post domain.Post
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &post, query,
		domain.SourceIDMetaKey, postType, strconv.FormatInt(sourceID, 10),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetByID returns a post with its source id, or nil when it does not exist.
func (s *PostStore) GetByID(ctx context.Context, id int64) (*domain.Post, error) {
	query := `
		SELECT` + postColumns + `, COALESCE(m.meta_value, '0')::BIGINT AS source_id
		FROM posts p
		LEFT JOIN post_meta m ON m.post_id = p.id AND m.meta_key = $1
		WHERE p.id = $2
		LIMIT 1`

	var post domain.Post
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &post, query, domain.SourceIDMetaKey, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Create inserts the post row and its _source_id meta. Run it inside a transaction
// so both rows land together.
func (s *PostStore) Create(ctx context.Context, post *domain.Post) (int64, error) {
	exec := GetExecutor(ctx, s.db)

	var id int64
	err := exec.QueryRowxContext(ctx, `
		INSERT INTO posts (post_type, title, body_html, published_at, status, author_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		post.PostType,
		post.Title,
		post.BodyHTML,
		post.PublishedAt,
		post.Status,
		post.AuthorID,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	_, err = exec.ExecContext(ctx,
		"INSERT INTO post_meta (post_id, meta_key, meta_value) VALUES ($1, $2, $3)",
		id, domain.SourceIDMetaKey, strconv.FormatInt(post.SourceID, 10),
	)
	if err != nil {
		return 0, err
	}

	return id, nil
}

// UpdateContent overwrites the mutable content fields. source_id is never touched.
func (s *PostStore) UpdateContent(ctx context.Context, id int64, title, body string, publishedAt time.Time, status string) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, `
		UPDATE posts
		SET title = $2, body_html = $3, published_at = $4, status = $5, updated_at = NOW()
		WHERE id = $1`,
		id, title, body, publishedAt, status,
	)
	return err
}

// SetThumbnailIfEmpty assigns the thumbnail only when the post has none. It reports whether it did.
func (s *PostStore) SetThumbnailIfEmpty(ctx context.Context, postID, attachmentID int64) (bool, error) {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		"UPDATE posts SET thumbnail_id = $2 WHERE id = $1 AND thumbnail_id IS NULL",
		postID, attachmentID,
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PostStore) CountByType(ctx context.Context, postType string) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &count,
		"SELECT COUNT(*) FROM posts WHERE post_type = $1", postType)
	return count, err
}

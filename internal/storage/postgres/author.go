package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"post_syncer/internal/domain"
)

type AuthorStore struct {
	db *sqlx.DB
}

func NewAuthorStore(db *sqlx.DB) *AuthorStore {
	return &AuthorStore{db: db}
}

// FindByEmail returns nil when no author has that email.
func (s *AuthorStore) FindByEmail(ctx context.Context, email string) (*domain.Author, error) {
	query := `
		SELECT id, username, email, password_hash, role, display_name, created_at
		FROM authors
		WHERE email = $1`

	var author domain.Author
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &author, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &author, nil
}

func (s *AuthorStore) Create(ctx context.Context, author *domain.Author) (int64, error) {
	var id int64
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, `
		INSERT INTO authors (username, email, password_hash, role, display_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		author.Username,
		author.Email,
		author.PasswordHash,
		author.Role,
		author.DisplayName,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *AuthorStore) Count(ctx context.Context) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &count, "SELECT COUNT(*) FROM authors")
	return count, err
}

func (s *AuthorStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &exists,
		"SELECT EXISTS (SELECT 1 FROM authors WHERE username = $1)", username)
	return exists, err
}

package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"post_syncer/internal/domain"
)

type TermStore struct {
	db *sqlx.DB
}

func NewTermStore(db *sqlx.DB) *TermStore {
	return &TermStore{db: db}
}

// TaxonomyExists reports whether name is a registered local taxonomy.
func (s *TermStore) TaxonomyExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &exists,
		"SELECT EXISTS (SELECT 1 FROM taxonomies WHERE name = $1)", name)
	return exists, err
}

func (s *TermStore) RegisterTaxonomy(ctx context.Context, name string) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		"INSERT INTO taxonomies (name) VALUES ($1) ON CONFLICT DO NOTHING", name)
	return err
}

// FindBySlug returns nil when the term does not exist.
func (s *TermStore) FindBySlug(ctx context.Context, taxonomy, slug string) (*domain.Term, error) {
	var term domain.Term
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &term,
		"SELECT id, taxonomy, name, slug FROM terms WHERE taxonomy = $1 AND slug = $2",
		taxonomy, slug,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &term, nil
}

func (s *TermStore) Create(ctx context.Context, term *domain.Term) (int64, error) {
	var id int64
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx,
		"INSERT INTO terms (taxonomy, name, slug) VALUES ($1, $2, $3) RETURNING id",
		term.Taxonomy, term.Name, term.Slug,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// AttachToPost links a term to a post. Existing links are kept.
func (s *TermStore) AttachToPost(ctx context.Context, postID, termID int64) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		"INSERT INTO post_terms (post_id, term_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		postID, termID,
	)
	return err
}

func (s *TermStore) GetByPostID(ctx context.Context, postID int64) ([]domain.Term, error) {
	query := `
		SELECT t.id, t.taxonomy, t.name, t.slug
		FROM terms t
		INNER JOIN post_terms pt ON pt.term_id = t.id
		WHERE pt.post_id = $1
		ORDER BY t.id`

	var terms []domain.Term
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &terms, query, postID)
	return terms, err
}

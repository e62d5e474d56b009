package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"post_syncer/internal/domain"
)

type Source interface {
	FetchItems(ctx context.Context, cfg domain.SyncConfig) ([]domain.RemoteItem, error)
	FetchAuthor(ctx context.Context, baseURL string, id int64) (*domain.RemoteAuthor, error)
	FetchImage(ctx context.Context, url string) (*domain.RemoteImage, error)
}

type PostStore interface {
	FindBySourceID(ctx context.Context, postType string, sourceID int64) (*domain.Post, error)
	Create(ctx context.Context, post *domain.Post) (int64, error)
	UpdateContent(ctx context.Context, id int64, title, body string, publishedAt time.Time, status string) error
	SetThumbnailIfEmpty(ctx context.Context, postID, attachmentID int64) (bool, error)
}

type AuthorStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.Author, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, author *domain.Author) (int64, error)
}

type TermStore interface {
	TaxonomyExists(ctx context.Context, name string) (bool, error)
	FindBySlug(ctx context.Context, taxonomy, slug string) (*domain.Term, error)
	Create(ctx context.Context, term *domain.Term) (int64, error)
	AttachToPost(ctx context.Context, postID, termID int64) error
}

type AttachmentStore interface {
	Create(ctx context.Context, attachment *domain.Attachment) (int64, error)
}

type SettingsStore interface {
	GetSyncConfig(ctx context.Context) (domain.SyncConfig, error)
	SaveLog(ctx context.Context, lines []string) error
}

type Uploads interface {
	Save(data []byte, ext string, now time.Time) (*domain.StoredFile, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, post *domain.Post, isNew bool) error
	Close() error
}

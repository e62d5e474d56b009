//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"post_syncer/internal/domain"
	"post_syncer/testdata/utils"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db

	version, err := Migrate(s.db)
	s.Require().NoError(err)
	s.Equal(uint(4), version)
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, err := s.db.ExecContext(s.ctx, "TRUNCATE posts, post_meta, post_terms, terms, attachments, authors, settings RESTART IDENTITY CASCADE")
	s.Require().NoError(err)
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) createPost(sourceID int64, postType, body string) int64 {
	store := NewPostStore(s.db)
	tm := NewTransactionManager(s.db)

	var id int64
	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		var err error
		id, err = store.Create(ctx, &domain.Post{
			PostType:    postType,
			Title:       "Hello",
			BodyHTML:    body,
			PublishedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Status:      domain.StatusPublish,
			AuthorID:    1,
			SourceID:    sourceID,
		})
		return err
	})
	s.Require().NoError(err)
	return id
}

func (s *PostgresIntegrationSuite) TestMigrate_Idempotent() {
	version, err := Migrate(s.db)
	s.NoError(err)
	s.Equal(uint(4), version)
}

func (s *PostgresIntegrationSuite) TestPostStore_CreateAndFindBySourceID() {
	store := NewPostStore(s.db)
	id := s.createPost(42, "posts", "<p>Hi</p>")

	post, err := store.FindBySourceID(s.ctx, "posts", 42)
	s.Require().NoError(err)
	s.Require().NotNil(post)
	s.Equal(id, post.ID)
	s.Equal(int64(42), post.SourceID)
	s.Equal("<p>Hi</p>", post.BodyHTML)
	s.Equal(domain.StatusPublish, post.Status)
	s.Nil(post.ThumbnailID)

	missing, err := store.FindBySourceID(s.ctx, "posts", 43)
	s.NoError(err)
	s.Nil(missing)

	otherType, err := store.FindBySourceID(s.ctx, "pages", 42)
	s.NoError(err)
	s.Nil(otherType)
}

func (s *PostgresIntegrationSuite) TestPostStore_FindBySourceID_AnyStatus() {
	store := NewPostStore(s.db)
	id := s.createPost(7, "posts", "body")

	_, err := s.db.ExecContext(s.ctx, "UPDATE posts SET status = 'draft' WHERE id = $1", id)
	s.Require().NoError(err)

	post, err := store.FindBySourceID(s.ctx, "posts", 7)
	s.NoError(err)
	s.Require().NotNil(post)
	s.Equal("draft", post.Status)
}

func (s *PostgresIntegrationSuite) TestPostStore_CreateRollback() {
	store := NewPostStore(s.db)
	tm := NewTransactionManager(s.db)

	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		if _, err := store.Create(ctx, &domain.Post{PostType: "posts", PublishedAt: time.Now(), SourceID: 5}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	s.Error(err)

	count, err := store.CountByType(s.ctx, "posts")
	s.NoError(err)
	s.Equal(0, count)

	post, err := store.FindBySourceID(s.ctx, "posts", 5)
	s.NoError(err)
	s.Nil(post)
}

func (s *PostgresIntegrationSuite) TestTransactionManager_NestedJoinsOuter() {
	store := NewPostStore(s.db)
	tm := NewTransactionManager(s.db)
	errAbort := errors.New("abort")

	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		outer := txFromContext(ctx)
		s.Require().NotNil(outer)

		err := tm.WithTransaction(ctx, func(ctx context.Context) error {
			s.Same(outer, txFromContext(ctx))
			_, err := store.Create(ctx, &domain.Post{PostType: "posts", PublishedAt: time.Now(), SourceID: 6})
			return err
		})
		s.Require().NoError(err)
		return errAbort
	})
	s.ErrorIs(err, errAbort)

	post, err := store.FindBySourceID(s.ctx, "posts", 6)
	s.NoError(err)
	s.Nil(post)
}

func (s *PostgresIntegrationSuite) TestPostStore_UpdateContent() {
	store := NewPostStore(s.db)
	id := s.createPost(42, "posts", "<p>Hi</p>")
	publishedAt := time.Date(2024, 2, 2, 10, 30, 0, 0, time.UTC)

	err := store.UpdateContent(s.ctx, id, "New title", "<p>New</p>", publishedAt, domain.StatusPublish)
	s.Require().NoError(err)

	post, err := store.GetByID(s.ctx, id)
	s.Require().NoError(err)
	s.Require().NotNil(post)
	s.Equal("New title", post.Title)
	s.Equal("<p>New</p>", post.BodyHTML)
	s.True(publishedAt.Equal(post.PublishedAt))
	s.Equal(int64(42), post.SourceID)
}

func (s *PostgresIntegrationSuite) TestPostStore_SetThumbnailIfEmpty() {
	posts := NewPostStore(s.db)
	attachments := NewAttachmentStore(s.db)
	id := s.createPost(42, "posts", "body")

	first, err := attachments.Create(s.ctx, &domain.Attachment{PostID: id, Filename: "image_a.jpg", Path: "2024/01/image_a.jpg", MimeType: "image/jpeg"})
	s.Require().NoError(err)
	second, err := attachments.Create(s.ctx, &domain.Attachment{PostID: id, Filename: "image_b.png", Path: "2024/01/image_b.png", MimeType: "image/png", Width: 10, Height: 5, BlurHash: "LKO2?U%2Tw=w"})
	s.Require().NoError(err)

	set, err := posts.SetThumbnailIfEmpty(s.ctx, id, first)
	s.NoError(err)
	s.True(set)

	set, err = posts.SetThumbnailIfEmpty(s.ctx, id, second)
	s.NoError(err)
	s.False(set)

	post, err := posts.GetByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(utils.Ptr(first), post.ThumbnailID)

	list, err := attachments.ListByPostID(s.ctx, id)
	s.NoError(err)
	s.Len(list, 2)
	s.Equal(10, list[1].Width)
	s.Equal("LKO2?U%2Tw=w", list[1].BlurHash)
}

func (s *PostgresIntegrationSuite) TestAuthorStore() {
	store := NewAuthorStore(s.db)

	missing, err := store.FindByEmail(s.ctx, "jane@example.com")
	s.NoError(err)
	s.Nil(missing)

	id, err := store.Create(s.ctx, &domain.Author{
		Username:     "Jane Doe",
		Email:        "jane@example.com",
		PasswordHash: "hash",
		Role:         domain.RoleAuthor,
		DisplayName:  "Jane Doe",
	})
	s.Require().NoError(err)

	found, err := store.FindByEmail(s.ctx, "jane@example.com")
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(id, found.ID)
	s.Equal(domain.RoleAuthor, found.Role)

	exists, err := store.UsernameExists(s.ctx, "Jane Doe")
	s.NoError(err)
	s.True(exists)

	_, err = store.Create(s.ctx, &domain.Author{Username: "Other", Email: "jane@example.com", PasswordHash: "x"})
	s.Error(err)

	count, err := store.Count(s.ctx)
	s.NoError(err)
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestTermStore() {
	store := NewTermStore(s.db)
	postID := s.createPost(42, "posts", "body")

	known, err := store.TaxonomyExists(s.ctx, "category")
	s.NoError(err)
	s.True(known)

	known, err = store.TaxonomyExists(s.ctx, "genre")
	s.NoError(err)
	s.False(known)

	s.Require().NoError(store.RegisterTaxonomy(s.ctx, "genre"))
	known, err = store.TaxonomyExists(s.ctx, "genre")
	s.NoError(err)
	s.True(known)

	missing, err := store.FindBySlug(s.ctx, "category", "news")
	s.NoError(err)
	s.Nil(missing)

	termID, err := store.Create(s.ctx, &domain.Term{Taxonomy: "category", Name: "News", Slug: "news"})
	s.Require().NoError(err)

	_, err = store.Create(s.ctx, &domain.Term{Taxonomy: "category", Name: "News again", Slug: "news"})
	s.Error(err)

	found, err := store.FindBySlug(s.ctx, "category", "news")
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(termID, found.ID)

	s.NoError(store.AttachToPost(s.ctx, postID, termID))
	s.NoError(store.AttachToPost(s.ctx, postID, termID))

	terms, err := store.GetByPostID(s.ctx, postID)
	s.NoError(err)
	s.Len(terms, 1)
	s.Equal("News", terms[0].Name)
}

func (s *PostgresIntegrationSuite) TestSettingsStore_SyncConfig() {
	store := NewSettingsStore(s.db)

	empty, err := store.GetSyncConfig(s.ctx)
	s.NoError(err)
	s.Equal(domain.SyncConfig{}, empty)

	cfg := domain.SyncConfig{
		ExternalSiteURL: "https://remote.example/",
		ContentTypeName: "posts",
		CategoryFilter:  "3",
	}
	s.Require().NoError(store.SaveSyncConfig(s.ctx, cfg))

	got, err := store.GetSyncConfig(s.ctx)
	s.NoError(err)
	s.Equal(cfg, got)
}

func (s *PostgresIntegrationSuite) TestSettingsStore_SeedOnlyFillsEmpty() {
	store := NewSettingsStore(s.db)

	s.Require().NoError(store.SaveSyncConfig(s.ctx, domain.SyncConfig{ContentTypeName: "pages"}))
	s.Require().NoError(store.SeedSyncConfig(s.ctx, domain.SyncConfig{
		ExternalSiteURL: "https://seed.example",
		ContentTypeName: "posts",
		TagFilter:       "9",
	}))

	got, err := store.GetSyncConfig(s.ctx)
	s.NoError(err)
	s.Equal("https://seed.example", got.ExternalSiteURL)
	s.Equal("pages", got.ContentTypeName)
	s.Equal("", got.CategoryFilter)
	s.Equal("9", got.TagFilter)
}

func (s *PostgresIntegrationSuite) TestSettingsStore_Log() {
	store := NewSettingsStore(s.db)

	lines, err := store.GetLog(s.ctx)
	s.NoError(err)
	s.Empty(lines)

	s.Require().NoError(store.SaveLog(s.ctx, []string{"Imported post ID 1 from source ID 42.", "Updated post ID 2."}))
	s.Require().NoError(store.SaveLog(s.ctx, []string{"No changes detected for post ID 1."}))

	lines, err = store.GetLog(s.ctx)
	s.NoError(err)
	s.Equal([]string{"No changes detected for post ID 1."}, lines)
}

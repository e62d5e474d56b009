package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"post_syncer/internal/config"
	"post_syncer/internal/domain"
	"post_syncer/internal/password"
)

const (
	msgMissingSettings = "Error: Missing required settings."
	msgInvalidResponse = "Invalid response from API."
)

// Stores groups the local content stores the sync writes to.
type Stores struct {
	Posts       PostStore
	Authors     AuthorStore
	Terms       TermStore
	Attachments AttachmentStore
	Settings    SettingsStore
}

type SyncService struct {
	source      Source
	posts       PostStore
	authors     AuthorStore
	terms       TermStore
	attachments AttachmentStore
	settings    SettingsStore
	uploads     Uploads
	txManager   TransactionManager
	publisher   Publisher
	logger      *slog.Logger
	config      config.SyncConfig

	validate     *validator.Validate
	hashPassword func() (string, error)
	now          func() time.Time
}

func NewSyncService(
	source Source,
	stores Stores,
	uploads Uploads,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.SyncConfig,
) *SyncService {
	return &SyncService{
		source:       source,
		posts:        stores.Posts,
		authors:      stores.Authors,
		terms:        stores.Terms,
		attachments:  stores.Attachments,
		settings:     stores.Settings,
		uploads:      uploads,
		txManager:    txManager,
		publisher:    publisher,
		logger:       logger.With("component", "sync"),
		config:       cfg,
		validate:     validator.New(),
		hashPassword: password.GenerateHash,
		now:          time.Now,
	}
}

// Sync runs one full reconciliation pass and stores its log, replacing the previous one.
// Sync problems are reported only through the log; the returned error covers loading
// the settings and saving the log.
func (s *SyncService) Sync(ctx context.Context) (*domain.SyncResult, error) {
	startTime := time.Now()

	cfg, err := s.settings.GetSyncConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sync settings: %w", err)
	}
	cfg.ExternalSiteURL = strings.TrimRight(cfg.ExternalSiteURL, "/")

	s.logger.Info("starting sync",
		"external_site_url", cfg.ExternalSiteURL,
		"content_type", cfg.ContentTypeName,
		"category_filter", cfg.CategoryFilter,
		"tag_filter", cfg.TagFilter,
	)

	runLog := NewRunLog(s.logger)
	stats := &domain.SyncStats{}

	s.run(ctx, cfg, runLog, stats)

	stats.Duration = time.Since(startTime)
	result := &domain.SyncResult{
		Log:   runLog.Lines(),
		Stats: stats,
	}

	// The log slot is written even when ctx was cancelled mid-run.
	if err := s.settings.SaveLog(context.WithoutCancel(ctx), result.Log); err != nil {
		return result, fmt.Errorf("save sync log: %w", err)
	}

	s.logger.Info("sync completed",
		"fetched", stats.Fetched,
		"new", stats.New,
		"updated", stats.Updated,
		"unchanged", stats.Unchanged,
		"errors", stats.Errors,
		"images", stats.Images,
		"image_errors", stats.ImageErrors,
		"published", stats.Published,
		"duration", stats.Duration,
	)

	return result, nil
}

func (s *SyncService) run(ctx context.Context, cfg domain.SyncConfig, runLog *RunLog, stats *domain.SyncStats) {
	if cfg.ExternalSiteURL == "" || cfg.ContentTypeName == "" {
		runLog.Add(msgMissingSettings)
		return
	}

	items, err := s.source.FetchItems(ctx, cfg)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidResponse) {
			runLog.Add(msgInvalidResponse)
		} else {
			runLog.Add("Error fetching posts: " + err.Error())
		}
		return
	}

	stats.Fetched = len(items)
	s.logger.Info("fetched items from source", "count", len(items))

	for i := range items {
		s.importItem(ctx, cfg, &items[i], runLog, stats)
	}
}

func (s *SyncService) importItem(ctx context.Context, cfg domain.SyncConfig, item *domain.RemoteItem, runLog *RunLog, stats *domain.SyncStats) {
	existing, err := s.posts.FindBySourceID(ctx, cfg.ContentTypeName, item.ID)
	if err != nil {
		stats.Errors++
		s.logger.Error("failed to look up post", "source_id", item.ID, "error", err)
		return
	}

	if existing != nil {
		s.updatePost(ctx, existing, item, runLog, stats)
		return
	}

	s.createPost(ctx, cfg, item, runLog, stats)
}

func (s *SyncService) createPost(ctx context.Context, cfg domain.SyncConfig, item *domain.RemoteItem, runLog *RunLog, stats *domain.SyncStats) {
	post := &domain.Post{
		PostType:    cfg.ContentTypeName,
		Title:       item.Title,
		BodyHTML:    item.BodyHTML,
		PublishedAt: item.PublishedAt,
		Status:      domain.StatusPublish,
		AuthorID:    s.resolveAuthor(ctx, cfg, item.AuthorID),
		SourceID:    item.ID,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		id, err := s.posts.Create(txCtx, post)
		if err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		post.ID = id
		return nil
	})
	if err != nil {
		stats.Errors++
		s.logger.Error("failed to import post", "source_id", item.ID, "error", err)
		return
	}

	s.attachTerms(ctx, post.ID, item.Terms)
	s.importImages(ctx, post, item.BodyHTML, runLog, stats)

	runLog.Addf("Imported post ID %d from source ID %d.", post.ID, item.ID)
	stats.New++

	s.publish(ctx, post, true, stats)
}

// updatePost rewrites the post only when the body changed. Terms and images are left alone.
func (s *SyncService) updatePost(ctx context.Context, existing *domain.Post, item *domain.RemoteItem, runLog *RunLog, stats *domain.SyncStats) {
	if existing.BodyHTML == item.BodyHTML {
		runLog.Addf("No changes detected for post ID %d.", existing.ID)
		stats.Unchanged++
		return
	}

	err := s.posts.UpdateContent(ctx, existing.ID, item.Title, item.BodyHTML, item.PublishedAt, domain.StatusPublish)
	if err != nil {
		stats.Errors++
		s.logger.Error("failed to update post", "post_id", existing.ID, "source_id", item.ID, "error", err)
		return
	}

	existing.Title = item.Title
	existing.BodyHTML = item.BodyHTML
	existing.PublishedAt = item.PublishedAt
	existing.Status = domain.StatusPublish

	runLog.Addf("Updated post ID %d.", existing.ID)
	stats.Updated++

	s.publish(ctx, existing, false, stats)
}

func (s *SyncService) publish(ctx context.Context, post *domain.Post, isNew bool, stats *domain.SyncStats) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, post, isNew); err != nil {
		stats.Errors++
		s.logger.Warn("failed to publish post", "post_id", post.ID, "error", err)
		return
	}
	stats.Published++
}

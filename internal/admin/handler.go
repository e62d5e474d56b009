package admin

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"post_syncer/internal/domain"
)

type SettingsStore interface {
	GetSyncConfig(ctx context.Context) (domain.SyncConfig, error)
	SaveSyncConfig(ctx context.Context, cfg domain.SyncConfig) error
	GetLog(ctx context.Context) ([]string, error)
}

type Syncer interface {
	Sync(ctx context.Context) (*domain.SyncResult, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	settings SettingsStore
	syncer   Syncer
	db       Pinger
	logger   *slog.Logger
}

func NewHandler(settings SettingsStore, syncer Syncer, db Pinger, logger *slog.Logger) *Handler {
	return &Handler{
		settings: settings,
		syncer:   syncer,
		db:       db,
		logger:   logger.With("component", "admin"),
	}
}

type settingsPage struct {
	Config domain.SyncConfig
	Log    []string
	Saved  bool
}

func (h *Handler) GetSettings(c *gin.Context) {
	ctx := c.Request.Context()

	cfg, err := h.settings.GetSyncConfig(ctx)
	if err != nil {
		h.logger.Error("failed to load settings", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	lines, err := h.settings.GetLog(ctx)
	if err != nil {
		h.logger.Error("failed to load sync log", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.HTML(http.StatusOK, settingsTemplateName, settingsPage{
		Config: cfg,
		Log:    lines,
		Saved:  c.Query("saved") == "1",
	})
}

// SaveSettings stores the four form fields verbatim.
func (h *Handler) SaveSettings(c *gin.Context) {
	var cfg domain.SyncConfig
	if err := c.ShouldBind(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.settings.SaveSyncConfig(c.Request.Context(), cfg); err != nil {
		h.logger.Error("failed to save settings", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	h.logger.Info("settings saved",
		"external_site_url", cfg.ExternalSiteURL,
		"content_type", cfg.ContentTypeName,
	)

	c.Redirect(http.StatusSeeOther, "/admin/settings?saved=1")
}

// RunSync performs a full reconciliation within the request.
// The run is detached from the request so a dropped client cannot abort it.
func (h *Handler) RunSync(c *gin.Context) {
	result, err := h.syncer.Sync(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		h.logger.Error("manual sync failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sync failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetLog(c *gin.Context) {
	lines, err := h.settings.GetLog(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to load sync log", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"log": lines})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.PingContext(ctx); err != nil {
			h.logger.Warn("health check failed", "error", err)
			health["status"] = "unhealthy"
			health["database"] = "unreachable"
			c.JSON(http.StatusServiceUnavailable, health)
			return
		}
		health["database"] = "ok"
	}

	c.JSON(http.StatusOK, health)
}

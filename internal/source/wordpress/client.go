package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"post_syncer/internal/domain"
)

const (
	// PageSize is fixed; only the first page of the listing is ever read.
	PageSize = 100

	itemsPath = "/wp-json/wp/v2/"
	usersPath = "/wp-json/wp/v2/users/"
)

// ErrInvalidResponse is returned when the listing body is not a JSON array of items.
var ErrInvalidResponse = domain.ErrInvalidResponse

var dateLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// Config holds WordPress client configuration.
type Config struct {
	ListingTimeout time.Duration
	DefaultTimeout time.Duration
	UserAgent      string
}

// Client talks to the WordPress REST API of the external site.
type Client struct {
	listingClient *http.Client
	httpClient    *http.Client
	userAgent     string
	logger        *slog.Logger
}

// New creates a new WordPress client. The listing request gets its own timeout;
// author and image requests use the default one.
func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		listingClient: &http.Client{
			Timeout: cfg.ListingTimeout,
		},
		httpClient: &http.Client{
			Timeout: cfg.DefaultTimeout,
		},
		userAgent: cfg.UserAgent,
		logger:    logger.With("component", "wordpress"),
	}
}

// ListingURL builds the listing request URL for the given settings.
func ListingURL(cfg domain.SyncConfig) string {
	base := strings.TrimRight(cfg.ExternalSiteURL, "/")

	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString(itemsPath)
	sb.WriteString(url.PathEscape(cfg.ContentTypeName))
	fmt.Fprintf(&sb, "?per_page=%d", PageSize)
	if cfg.CategoryFilter != "" {
		sb.WriteString("&categories=")
		sb.WriteString(url.QueryEscape(cfg.CategoryFilter))
	}
	if cfg.TagFilter != "" {
		sb.WriteString("&tags=")
		sb.WriteString(url.QueryEscape(cfg.TagFilter))
	}
	sb.WriteString("&_embed")
	return sb.String()
}

// FetchItems fetches the first page of the listing with embedded terms.
// A body that is not an array of objects returns ErrInvalidResponse. Objects
// whose fields do not decode are skipped so the rest of the listing survives.
func (c *Client) FetchItems(ctx context.Context, cfg domain.SyncConfig) ([]domain.RemoteItem, error) {
	listingURL := ListingURL(cfg)

	body, _, err := c.get(ctx, c.listingClient, listingURL, "application/json")
	if err != nil {
		return nil, err
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(body, &elements); err != nil || elements == nil {
		c.logger.Debug("listing did not decode", "url", listingURL, "error", err)
		return nil, ErrInvalidResponse
	}

	items := make([]Item, 0, len(elements))
	for i, raw := range elements {
		if !isObject(raw) {
			c.logger.Debug("listing element is not an object", "url", listingURL, "index", i)
			return nil, ErrInvalidResponse
		}

		var it Item
		if err := json.Unmarshal(raw, &it); err != nil {
			c.logger.Warn("skipping undecodable item", "index", i, "error", err)
			continue
		}
		items = append(items, it)
	}

	c.logger.Debug("fetched listing", "url", listingURL, "items", len(items), "skipped", len(elements)-len(items))

	return c.transform(items), nil
}

// FetchAuthor looks up a remote user. Only transport failures are errors: a body that
// does not decode yields an author with no name or email.
func (c *Client) FetchAuthor(ctx context.Context, baseURL string, id int64) (*domain.RemoteAuthor, error) {
	userURL := fmt.Sprintf("%s%s%d", strings.TrimRight(baseURL, "/"), usersPath, id)

	body, _, err := c.get(ctx, c.httpClient, userURL, "application/json")
	if err != nil {
		return nil, err
	}

	author := &domain.RemoteAuthor{ID: id}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		c.logger.Debug("author did not decode", "url", userURL, "error", err)
		return author, nil
	}

	author.Name = user.Name
	author.Email = user.Email
	return author, nil
}

// FetchImage downloads raw bytes. The HTTP status is not checked.
func (c *Client) FetchImage(ctx context.Context, imageURL string) (*domain.RemoteImage, error) {
	body, header, err := c.get(ctx, c.httpClient, imageURL, "")
	if err != nil {
		return nil, err
	}

	return &domain.RemoteImage{
		URL:         imageURL,
		ContentType: header.Get("Content-Type"),
		Data:        body,
	}, nil
}

func (c *Client) get(ctx context.Context, client *http.Client, rawURL, accept string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	req.Header.Set("User-Agent", c.userAgent)

	// The *url.Error already names the method and URL and ends up verbatim in the run log.
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read body: %w", err)
	}

	return body, resp.Header, nil
}

func (c *Client) transform(items []Item) []domain.RemoteItem {
	result := make([]domain.RemoteItem, 0, len(items))

	for _, it := range items {
		item := domain.RemoteItem{
			ID:       it.ID,
			Title:    it.Title.Rendered,
			BodyHTML: it.Content.Rendered,
			RawDate:  it.Date,
			AuthorID: it.Author,
			Terms:    c.terms(it),
		}

		publishedAt, err := parseDate(item.RawDate)
		if err != nil {
			c.logger.Warn("failed to parse date",
				"external_id", item.ID,
				"date", item.RawDate,
			)
			publishedAt = time.Now().UTC()
		}
		item.PublishedAt = publishedAt

		result = append(result, item)
	}

	return result
}

func (c *Client) terms(it Item) []domain.TermRef {
	if len(it.Embedded.Terms) == 0 {
		return nil
	}

	var groups []json.RawMessage
	if err := json.Unmarshal(it.Embedded.Terms, &groups); err != nil {
		c.logger.Debug("wp:term is not a list", "external_id", it.ID)
		return nil
	}

	var refs []domain.TermRef
	for _, group := range groups {
		var terms []Term
		if err := json.Unmarshal(group, &terms); err != nil || len(terms) == 0 {
			continue
		}
		for _, t := range terms {
			refs = append(refs, domain.TermRef{
				Name:     t.Name,
				Slug:     t.Slug,
				Taxonomy: t.Taxonomy,
			})
		}
	}

	return refs
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

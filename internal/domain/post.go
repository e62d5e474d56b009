package domain

import "time"

const (
	StatusPublish = "publish"
	RoleAuthor    = "author"

	// SourceIDMetaKey is the post_meta key holding the remote item id.
	SourceIDMetaKey = "_source_id"
)

type Post struct {
	ID          int64     `db:"id" json:"id"`
	PostType    string    `db:"post_type" json:"post_type"`
	Title       string    `db:"title" json:"title"`
	BodyHTML    string    `db:"body_html" json:"body_html"`
	PublishedAt time.Time `db:"published_at" json:"published_at"`
	Status      string    `db:"status" json:"status"`
	AuthorID    int64     `db:"author_id" json:"author_id"`
	SourceID    int64     `db:"source_id" json:"source_id"`
	ThumbnailID *int64    `db:"thumbnail_id" json:"thumbnail_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type Author struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	DisplayName  string    `db:"display_name"`
	CreatedAt    time.Time `db:"created_at"`
}

type Term struct {
	ID       int64  `db:"id"`
	Taxonomy string `db:"taxonomy"`
	Name     string `db:"name"`
	Slug     string `db:"slug"`
}

type Attachment struct {
	ID        int64     `db:"id"`
	PostID    int64     `db:"post_id"`
	Filename  string    `db:"filename"`
	Path      string    `db:"path"`
	MimeType  string    `db:"mime_type"`
	Title     string    `db:"title"`
	Size      int64     `db:"size"`
	Width     int       `db:"width"`
	Height    int       `db:"height"`
	BlurHash  string    `db:"blurhash"`
	SourceURL string    `db:"source_url"`
	CreatedAt time.Time `db:"created_at"`
}

// StoredFile describes bytes written to the upload area.
type StoredFile struct {
	Filename string
	Path     string // relative to the upload root
	Size     int64
}

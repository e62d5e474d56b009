package domain

import "time"

// RemoteItem is one entry of the remote listing. It lives for a single pass.
type RemoteItem struct {
	ID          int64
	Title       string
	BodyHTML    string
	PublishedAt time.Time
	RawDate     string
	AuthorID    int64
	Terms       []TermRef
}

type TermRef struct {
	Name     string
	Slug     string
	Taxonomy string
}

type RemoteAuthor struct {
	ID    int64
	Name  string
	Email string
}

type RemoteImage struct {
	URL         string
	ContentType string
	Data        []byte
}

package wordpress

import "encoding/json"

// Item is one entry of the /wp-json/wp/v2/{type} listing.
type Item struct {
	ID       int64    `json:"id"`
	Date     string   `json:"date"`
	Title    Rendered `json:"title"`
	Content  Rendered `json:"content"`
	Author   int64    `json:"author"`
	Embedded Embedded `json:"_embedded"`
}

type Rendered struct {
	Rendered string `json:"rendered"`
}

// Embedded keeps wp:term raw; groups that are not arrays of terms are skipped on transform.
type Embedded struct {
	Terms json.RawMessage `json:"wp:term"`
}

type Term struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Taxonomy string `json:"taxonomy"`
}

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

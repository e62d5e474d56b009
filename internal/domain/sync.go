package domain

import "time"

// SyncConfig is the user-supplied part of the configuration, edited through the admin form.
type SyncConfig struct {
	ExternalSiteURL string `json:"external_site_url" form:"external_site_url"`
	ContentTypeName string `json:"content_type_name" form:"content_type_name"`
	CategoryFilter  string `json:"category_filter" form:"category_filter"`
	TagFilter       string `json:"tag_filter" form:"tag_filter"`
}

// SyncStats holds statistics about a sync operation.
type SyncStats struct {
	Fetched     int           `json:"fetched"`
	New         int           `json:"new"`
	Updated     int           `json:"updated"`
	Unchanged   int           `json:"unchanged"`
	Errors      int           `json:"errors"`
	Images      int           `json:"images"`
	ImageErrors int           `json:"image_errors"`
	Published   int           `json:"published"`
	Duration    time.Duration `json:"duration"`
}

// SyncResult is what one reconciliation pass produced.
type SyncResult struct {
	Log   []string   `json:"log"`
	Stats *SyncStats `json:"stats"`
}

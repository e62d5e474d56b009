package service

import (
	"context"
	"regexp"

	"post_syncer/internal/domain"
	"post_syncer/internal/media"
)

var imgSrcRe = regexp.MustCompile(`(?i)<img[^>]+src=["'](.*?)["']`)

// extractImageURLs returns the src of every <img> tag in order of appearance.
func extractImageURLs(html string) []string {
	matches := imgSrcRe.FindAllStringSubmatch(html, -1)
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		urls = append(urls, m[1])
	}
	return urls
}

// importImages downloads every image referenced by the body and attaches it to the post.
// The first attached image becomes the thumbnail if the post has none.
func (s *SyncService) importImages(ctx context.Context, post *domain.Post, body string, runLog *RunLog, stats *domain.SyncStats) {
	for _, imageURL := range extractImageURLs(body) {
		s.importImage(ctx, post, imageURL, runLog, stats)
	}
}

func (s *SyncService) importImage(ctx context.Context, post *domain.Post, imageURL string, runLog *RunLog, stats *domain.SyncStats) {
	img, err := s.source.FetchImage(ctx, imageURL)
	if err != nil {
		runLog.Add("Error downloading image: " + err.Error())
		stats.ImageErrors++
		return
	}

	stored, err := s.uploads.Save(img.Data, media.ExtensionFor(img.ContentType), s.now())
	if err != nil {
		stats.ImageErrors++
		s.logger.Error("failed to store image", "url", imageURL, "post_id", post.ID, "error", err)
		return
	}

	attachment := &domain.Attachment{
		PostID:    post.ID,
		Filename:  stored.Filename,
		Path:      stored.Path,
		MimeType:  media.MimeTypeFor(stored.Filename),
		Title:     stored.Filename,
		Size:      stored.Size,
		SourceURL: imageURL,
	}

	info, err := media.Inspect(img.Data)
	if info != nil {
		attachment.Width = info.Width
		attachment.Height = info.Height
		attachment.BlurHash = info.BlurHash
	}
	if err != nil {
		s.logger.Debug("image metadata unavailable", "url", imageURL, "error", err)
	}

	attachmentID, err := s.attachments.Create(ctx, attachment)
	if err != nil {
		stats.ImageErrors++
		s.logger.Error("failed to register attachment", "url", imageURL, "post_id", post.ID, "error", err)
		return
	}

	if post.ThumbnailID == nil {
		set, err := s.posts.SetThumbnailIfEmpty(ctx, post.ID, attachmentID)
		if err != nil {
			s.logger.Warn("failed to set thumbnail", "post_id", post.ID, "attachment_id", attachmentID, "error", err)
		} else if set {
			post.ThumbnailID = &attachmentID
		}
	}

	runLog.Addf("Downloaded and attached image (%s) to post ID %d.", stored.Filename, post.ID)
	stats.Images++
}

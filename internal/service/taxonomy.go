package service

import (
	"context"

	"post_syncer/internal/domain"
)

// attachTerms links the embedded terms to the post. Terms of unknown taxonomies
// and terms that cannot be created are skipped. Attachment is additive.
func (s *SyncService) attachTerms(ctx context.Context, postID int64, refs []domain.TermRef) {
	for _, ref := range refs {
		termID, ok := s.resolveTerm(ctx, ref)
		if !ok {
			continue
		}

		if err := s.terms.AttachToPost(ctx, postID, termID); err != nil {
			s.logger.Warn("failed to attach term",
				"post_id", postID,
				"term_id", termID,
				"error", err,
			)
		}
	}
}

func (s *SyncService) resolveTerm(ctx context.Context, ref domain.TermRef) (int64, bool) {
	known, err := s.terms.TaxonomyExists(ctx, ref.Taxonomy)
	if err != nil {
		s.logger.Warn("failed to check taxonomy", "taxonomy", ref.Taxonomy, "error", err)
		return 0, false
	}
	if !known {
		s.logger.Debug("skipping term of unknown taxonomy", "taxonomy", ref.Taxonomy, "slug", ref.Slug)
		return 0, false
	}

	slug := ref.Slug
	if slug == "" {
		slug = slugify(ref.Name)
	}
	if slug == "" {
		return 0, false
	}

	term, err := s.terms.FindBySlug(ctx, ref.Taxonomy, slug)
	if err != nil {
		s.logger.Warn("failed to look up term", "taxonomy", ref.Taxonomy, "slug", slug, "error", err)
		return 0, false
	}
	if term != nil {
		return term.ID, true
	}

	id, err := s.terms.Create(ctx, &domain.Term{
		Taxonomy: ref.Taxonomy,
		Name:     ref.Name,
		Slug:     slug,
	})
	if err != nil {
		s.logger.Warn("failed to create term", "taxonomy", ref.Taxonomy, "slug", slug, "error", err)
		return 0, false
	}

	return id, true
}

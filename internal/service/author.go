package service

import (
	"context"
	"fmt"

	"post_syncer/internal/domain"
)

// resolveAuthor maps a remote user to a local author id. It never fails: a lookup
// transport error, or any local failure, falls back to the acting user.
func (s *SyncService) resolveAuthor(ctx context.Context, cfg domain.SyncConfig, remoteID int64) int64 {
	remote, err := s.source.FetchAuthor(ctx, cfg.ExternalSiteURL, remoteID)
	if err != nil {
		s.logger.Warn("failed to fetch author, using acting user",
			"remote_author_id", remoteID,
			"acting_user_id", s.config.ActingUserID,
			"error", err,
		)
		return s.config.ActingUserID
	}

	email := s.sanitizeEmail(remote.Email)
	if email == "" {
		email = placeholderEmail(remoteID)
	}

	existing, err := s.authors.FindByEmail(ctx, email)
	if err != nil {
		s.logger.Warn("failed to look up author", "email", email, "error", err)
		return s.config.ActingUserID
	}
	if existing != nil {
		return existing.ID
	}

	id, err := s.createAuthor(ctx, remote, email)
	if err != nil {
		s.logger.Warn("failed to create author, using acting user",
			"remote_author_id", remoteID,
			"email", email,
			"error", err,
		)
		return s.config.ActingUserID
	}

	s.logger.Info("created author", "author_id", id, "email", email, "remote_author_id", remoteID)
	return id
}

func (s *SyncService) createAuthor(ctx context.Context, remote *domain.RemoteAuthor, email string) (int64, error) {
	username, err := s.uniqueUsername(ctx, remote)
	if err != nil {
		return 0, err
	}

	hash, err := s.hashPassword()
	if err != nil {
		return 0, fmt.Errorf("generate password: %w", err)
	}

	return s.authors.Create(ctx, &domain.Author{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAuthor,
		DisplayName:  remote.Name,
	})
}

func (s *SyncService) uniqueUsername(ctx context.Context, remote *domain.RemoteAuthor) (string, error) {
	username := sanitizeUsername(remote.Name)
	if username == "" {
		username = fmt.Sprintf("author%d", remote.ID)
	}

	taken, err := s.authors.UsernameExists(ctx, username)
	if err != nil {
		return "", fmt.Errorf("check username: %w", err)
	}
	if taken {
		username = fmt.Sprintf("%s-%d", username, remote.ID)
	}
	return username, nil
}

// sanitizeEmail returns the lowercased address, or "" when it is not a valid email.
func (s *SyncService) sanitizeEmail(raw string) string {
	email := normalizeEmail(raw)
	if email == "" {
		return ""
	}
	if err := s.validate.Var(email, "required,email"); err != nil {
		return ""
	}
	return email
}

func placeholderEmail(remoteID int64) string {
	return fmt.Sprintf("author%d@example.com", remoteID)
}

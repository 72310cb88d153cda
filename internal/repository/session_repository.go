package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"wellnesshub/internal/model"
)

// SessionRepository is the gorm-backed session store. Every accessor except
// ListPublished is scoped by owner id.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("create session failed: %w", err)
	}
	return nil
}

// Update overwrites every column of the session owned by userID.
func (r *SessionRepository) Update(ctx context.Context, userID string, session *model.Session) error {
	err := r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("id = ? AND user_id = ?", session.ID, userID).
		Select("title", "content", "tags", "json_file_url", "status", "updated_at").
		Updates(session).Error
	if err != nil {
		return fmt.Errorf("update session failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) ListByUserID(ctx context.Context, userID string) ([]model.Session, error) {
	sessions := []model.Session{}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("updated_at DESC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions failed: %w", err)
	}
	return sessions, nil
}

func (r *SessionRepository) ListPublished(ctx context.Context) ([]model.PublishedSession, error) {
	var sessions []model.Session
	if err := r.db.WithContext(ctx).
		Where("status = ?", model.SessionStatusPublished).
		Order("updated_at DESC").
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list published sessions failed: %w", err)
	}
	if len(sessions) == 0 {
		return []model.PublishedSession{}, nil
	}

	ownerIDs := make([]string, 0, len(sessions))
	seen := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		if _, ok := seen[s.UserID]; ok {
			continue
		}
		seen[s.UserID] = struct{}{}
		ownerIDs = append(ownerIDs, s.UserID)
	}

	var users []model.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ownerIDs).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("load session authors failed: %w", err)
	}
	return attachAuthors(sessions, users), nil
}

func (r *SessionRepository) GetByIDAndUserID(ctx context.Context, sessionID, userID string) (*model.Session, error) {
	var session model.Session
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session failed: %w", err)
	}
	return &session, nil
}

// DeleteByIDAndUserID reports whether a row owned by userID was removed.
func (r *SessionRepository) DeleteByIDAndUserID(ctx context.Context, sessionID, userID string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", sessionID, userID).Delete(&model.Session{})
	if result.Error != nil {
		return false, fmt.Errorf("delete session failed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func attachAuthors(sessions []model.Session, users []model.User) []model.PublishedSession {
	byID := make(map[string]*model.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	out := make([]model.PublishedSession, 0, len(sessions))
	for _, s := range sessions {
		item := model.PublishedSession{Session: s}
		if u, ok := byID[s.UserID]; ok {
			item.Author = u.Author()
		}
		out = append(out, item)
	}
	return out
}

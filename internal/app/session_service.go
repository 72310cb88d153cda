package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"wellnesshub/internal/logger"
	"wellnesshub/internal/model"
)

// SessionStore is the persistence contract for sessions. Apart from
// ListPublished every method is scoped to the owning user id.
type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	Update(ctx context.Context, userID string, session *model.Session) error
	ListByUserID(ctx context.Context, userID string) ([]model.Session, error)
	ListPublished(ctx context.Context) ([]model.PublishedSession, error)
	GetByIDAndUserID(ctx context.Context, sessionID, userID string) (*model.Session, error)
	DeleteByIDAndUserID(ctx context.Context, sessionID, userID string) (bool, error)
}

type FeedCache interface {
	GetPublished(ctx context.Context) ([]model.PublishedSession, bool, error)
	SetPublished(ctx context.Context, sessions []model.PublishedSession) error
	Invalidate(ctx context.Context) error
}

type SessionEventPublisher interface {
	Publish(ctx context.Context, event model.SessionEvent) error
}

type SessionService struct {
	store    SessionStore
	cache    FeedCache
	events   SessionEventPublisher
	log      *slog.Logger
	validate *validator.Validate

	now   func() time.Time
	newID func() string
}

type CreateSessionInput struct {
	UserID  string
	Title   string
	Content string
	Status  string
}

// UpdateSessionInput carries only the fields the client supplied; nil means
// "leave unchanged".
type UpdateSessionInput struct {
	UserID    string
	SessionID string
	Title     *string
	Content   *string
	Status    *string
}

// SaveSessionInput drives both save-draft and publish. An empty SessionID
// creates a new session.
type SaveSessionInput struct {
	UserID      string
	SessionID   string
	Title       string
	Tags        *TagsInput
	JSONFileURL string
}

// NewSessionService wires the session core. cache and events may be nil.
func NewSessionService(store SessionStore, cache FeedCache, events SessionEventPublisher, log *slog.Logger) *SessionService {
	if log == nil {
		log = slog.Default()
	}
	return &SessionService{
		store:    store,
		cache:    cache,
		events:   events,
		log:      log.With(logger.Component("session_service")),
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

func (s *SessionService) ListPublished(ctx context.Context) ([]model.PublishedSession, error) {
	if s.cache != nil {
		cached, hit, err := s.cache.GetPublished(ctx)
		if err != nil {
			s.log.WarnContext(ctx, "read feed cache failed", logger.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	sessions, err := s.store.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetPublished(ctx, sessions); err != nil {
			s.log.WarnContext(ctx, "write feed cache failed", logger.Error(err))
		}
	}
	return sessions, nil
}

func (s *SessionService) ListMine(ctx context.Context, userID string) ([]model.Session, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.store.ListByUserID(ctx, userID)
}

func (s *SessionService) Get(ctx context.Context, userID, sessionID string) (*model.Session, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	session, err := s.store.GetByIDAndUserID(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionService) Create(ctx context.Context, input CreateSessionInput) (*model.Session, error) {
	if input.UserID == "" {
		return nil, ErrInvalidInput
	}

	verr := &ValidationError{}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		verr.Add("title", "Title is required")
	}
	status := input.Status
	if status == "" {
		status = model.SessionStatusDraft
	}
	switch status {
	case model.SessionStatusDraft:
	case model.SessionStatusPublished:
		// A plain create has no json_file_url, so it can never satisfy publishing.
		verr.Add("json_file_url", "JSON file URL is required to publish")
	default:
		verr.Add("status", "Status must be draft or published")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	session := &model.Session{
		ID:        s.newID(),
		UserID:    input.UserID,
		Title:     title,
		Content:   input.Content,
		Tags:      []string{},
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, session); err != nil {
		return nil, err
	}
	s.afterChange(ctx, model.SessionEventCreated, session)
	return session, nil
}

func (s *SessionService) Update(ctx context.Context, input UpdateSessionInput) (*model.Session, error) {
	if input.UserID == "" {
		return nil, ErrInvalidInput
	}

	verr := &ValidationError{}
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		verr.Add("title", "Title cannot be empty")
	}
	if input.Status != nil && !validStatus(*input.Status) {
		verr.Add("status", "Status must be draft or published")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	session, err := s.Get(ctx, input.UserID, input.SessionID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		session.Title = strings.TrimSpace(*input.Title)
	}
	if input.Content != nil {
		session.Content = *input.Content
	}
	if input.Status != nil {
		session.Status = *input.Status
	}
	if session.IsPublished() && !s.isURL(session.JSONFileURL) {
		verr.Add("json_file_url", "JSON file URL is required to publish")
		return nil, verr
	}
	session.UpdatedAt = s.now()

	if err := s.store.Update(ctx, input.UserID, session); err != nil {
		return nil, err
	}
	s.afterChange(ctx, model.SessionEventUpdated, session)
	return session, nil
}

// Delete answers ErrSessionNotFound for a second delete of the same id.
func (s *SessionService) Delete(ctx context.Context, userID, sessionID string) error {
	if userID == "" {
		return ErrInvalidInput
	}
	if sessionID == "" {
		return ErrSessionNotFound
	}
	deleted, err := s.store.DeleteByIDAndUserID(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrSessionNotFound
	}
	s.afterChange(ctx, model.SessionEventDeleted, &model.Session{ID: sessionID, UserID: userID})
	return nil
}

func (s *SessionService) SaveDraft(ctx context.Context, input SaveSessionInput) (*model.Session, error) {
	return s.save(ctx, input, model.SessionStatusDraft)
}

func (s *SessionService) Publish(ctx context.Context, input SaveSessionInput) (*model.Session, error) {
	return s.save(ctx, input, model.SessionStatusPublished)
}

// save upserts by the optional session id and forces status.
func (s *SessionService) save(ctx context.Context, input SaveSessionInput, status string) (*model.Session, error) {
	if input.UserID == "" {
		return nil, ErrInvalidInput
	}

	verr := &ValidationError{}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		verr.Add("title", "Title is required")
	}
	tags, err := ParseTags(input.Tags)
	if err != nil {
		verr.Add("tags", "Tags must be a string or array")
	}
	fileURL := strings.TrimSpace(input.JSONFileURL)
	switch {
	case status == model.SessionStatusPublished && !s.isURL(fileURL):
		verr.Add("json_file_url", "JSON file URL is required and must be valid")
	case fileURL != "" && !s.isURL(fileURL):
		verr.Add("json_file_url", "Must be a valid URL")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	eventType := model.SessionEventDraftSaved
	if status == model.SessionStatusPublished {
		eventType = model.SessionEventPublished
	}
	now := s.now()

	if input.SessionID == "" {
		session := &model.Session{
			ID:          s.newID(),
			UserID:      input.UserID,
			Title:       title,
			Tags:        tags,
			JSONFileURL: fileURL,
			Status:      status,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.store.Create(ctx, session); err != nil {
			return nil, err
		}
		s.afterChange(ctx, eventType, session)
		return session, nil
	}

	session, err := s.Get(ctx, input.UserID, input.SessionID)
	if err != nil {
		return nil, err
	}
	session.Title = title
	session.Tags = tags
	session.JSONFileURL = fileURL
	session.Status = status
	session.UpdatedAt = now

	if err := s.store.Update(ctx, input.UserID, session); err != nil {
		return nil, err
	}
	s.afterChange(ctx, eventType, session)
	return session, nil
}

// afterChange drops the cached feed and emits an event. Neither step can fail
// the request; failures are only logged.
func (s *SessionService) afterChange(ctx context.Context, eventType string, session *model.Session) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.log.WarnContext(ctx, "invalidate feed cache failed", logger.Error(err))
		}
	}
	if s.events != nil {
		event := model.SessionEvent{
			Type:       eventType,
			SessionID:  session.ID,
			UserID:     session.UserID,
			Status:     session.Status,
			OccurredAt: s.now(),
		}
		if err := s.events.Publish(ctx, event); err != nil {
			s.log.WarnContext(ctx, "publish session event failed",
				logger.Error(err), slog.String("event", eventType), slog.String("session_id", session.ID))
		}
	}
}

func (s *SessionService) isURL(raw string) bool {
	if raw == "" {
		return false
	}
	return s.validate.Var(raw, "url") == nil
}

func validStatus(status string) bool {
	return status == model.SessionStatusDraft || status == model.SessionStatusPublished
}

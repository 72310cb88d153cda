package mongorepo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"wellnesshub/internal/model"
)

const (
	sessionCollection = "sessions"
	userCollection    = "users"
)

// SessionRepository stores sessions in the "sessions" collection. Owner
// scoping is part of every filter except the public listing.
type SessionRepository struct {
	sessions *mongo.Collection
	users    *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{
		sessions: db.Collection(sessionCollection),
		users:    db.Collection(userCollection),
	}
}

func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	if _, err := r.sessions.InsertOne(ctx, session); err != nil {
		return fmt.Errorf("create session failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) Update(ctx context.Context, userID string, session *model.Session) error {
	filter := bson.D{{Key: "_id", Value: session.ID}, {Key: "user_id", Value: userID}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "title", Value: session.Title},
		{Key: "content", Value: session.Content},
		{Key: "tags", Value: session.Tags},
		{Key: "json_file_url", Value: session.JSONFileURL},
		{Key: "status", Value: session.Status},
		{Key: "updated_at", Value: session.UpdatedAt},
	}}}
	if _, err := r.sessions.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("update session failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) ListByUserID(ctx context.Context, userID string) ([]model.Session, error) {
	return r.find(ctx, bson.D{{Key: "user_id", Value: userID}})
}

func (r *SessionRepository) ListPublished(ctx context.Context) ([]model.PublishedSession, error) {
	sessions, err := r.find(ctx, bson.D{{Key: "status", Value: model.SessionStatusPublished}})
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return []model.PublishedSession{}, nil
	}

	ownerIDs := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ownerIDs = append(ownerIDs, s.UserID)
	}

	cur, err := r.users.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ownerIDs}}}})
	if err != nil {
		return nil, fmt.Errorf("load session authors failed: %w", err)
	}
	var users []model.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode session authors failed: %w", err)
	}

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
	return out, nil
}

func (r *SessionRepository) GetByIDAndUserID(ctx context.Context, sessionID, userID string) (*model.Session, error) {
	var session model.Session
	err := r.sessions.FindOne(ctx, bson.D{{Key: "_id", Value: sessionID}, {Key: "user_id", Value: userID}}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session failed: %w", err)
	}
	return &session, nil
}

func (r *SessionRepository) DeleteByIDAndUserID(ctx context.Context, sessionID, userID string) (bool, error) {
	res, err := r.sessions.DeleteOne(ctx, bson.D{{Key: "_id", Value: sessionID}, {Key: "user_id", Value: userID}})
	if err != nil {
		return false, fmt.Errorf("delete session failed: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *SessionRepository) find(ctx context.Context, filter bson.D) ([]model.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := r.sessions.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list sessions failed: %w", err)
	}
	sessions := []model.Session{}
	if err := cur.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions failed: %w", err)
	}
	return sessions, nil
}

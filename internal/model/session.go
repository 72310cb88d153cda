package model

import "time"

const (
	SessionStatusDraft     = "draft"
	SessionStatusPublished = "published"
)

// Session is a wellness session authored by a single user. Tags are stored as a
// JSON array in SQL backends and as a native array in MongoDB.
type Session struct {
	ID          string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	UserID      string    `gorm:"size:36;not null;index" bson:"user_id" json:"user_id"`
	Title       string    `gorm:"size:256;not null" bson:"title" json:"title"`
	Content     string    `gorm:"type:text" bson:"content" json:"content"`
	Tags        []string  `gorm:"serializer:json;type:text" bson:"tags" json:"tags"`
	JSONFileURL string    `gorm:"size:2048" bson:"json_file_url" json:"json_file_url"`
	Status      string    `gorm:"size:16;not null;default:draft;index" bson:"status" json:"status"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false" bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false;index" bson:"updated_at" json:"updated_at"`
}

func (s *Session) IsPublished() bool {
	return s.Status == SessionStatusPublished
}

// Author is the public projection of a User attached to published sessions.
type Author struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type PublishedSession struct {
	Session
	Author *Author `json:"author"`
}

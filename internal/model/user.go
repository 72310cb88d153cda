package model

import "time"

type User struct {
	ID           string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Email        string    `gorm:"size:128;not null;uniqueIndex" bson:"email" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" bson:"password_hash" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

func (u *User) Author() *Author {
	return &Author{ID: u.ID, Email: u.Email}
}

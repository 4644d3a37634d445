package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// SocialLinks stores an artist's external profile links
type SocialLinks struct {
	Instagram string `json:"instagram,omitempty"`
	Behance   string `json:"behance,omitempty"`
	ArtStation string `json:"artstation,omitempty"`
	Website   string `json:"website,omitempty"`
}

// Value implements the driver.Valuer interface for JSONB
func (s SocialLinks) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements the sql.Scanner interface for JSONB
func (s *SocialLinks) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// User represents an Artfolio artist account
type User struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string `gorm:"not null" json:"display_name"`
	Bio         string `gorm:"type:text" json:"bio"`
	Location    string `gorm:"type:text" json:"location"`

	// Profile data
	AvatarURL string `json:"avatar_url"`

	// Cached counters (source of truth is the works/comments tables)
	WorkCount int `gorm:"default:0" json:"work_count"`

	EmailNotifications bool `gorm:"default:true" json:"email_notifications"`

	SocialLinks *SocialLinks `gorm:"type:jsonb" json:"social_links"`

	// Activity tracking
	LastActiveAt *time.Time `json:"last_active_at"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

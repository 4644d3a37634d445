package models

import (
	"time"

	"gorm.io/gorm"
)

// Thread is a topic community that works can be filed under. Threads with
// a nil CreatedBy are the default interest categories seeded at install.
type Thread struct {
	ID          string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name        string  `gorm:"uniqueIndex;not null" json:"name"`
	Slug        string  `gorm:"uniqueIndex;not null" json:"slug"`
	Description string  `gorm:"type:text" json:"description"`
	CreatedBy   *string `gorm:"type:uuid" json:"created_by"`
	Creator     *User   `gorm:"foreignKey:CreatedBy" json:"-"`

	// Cached counters
	FollowerCount int `gorm:"default:0" json:"followers_count"`
	WorkCount     int `gorm:"default:0" json:"works_count"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// WorkThread links a work to the threads it was filed under
type WorkThread struct {
	WorkID   string    `gorm:"primaryKey;type:uuid" json:"work_id"`
	ThreadID string    `gorm:"primaryKey;type:uuid" json:"thread_id"`
	CreatedAt time.Time `json:"created_at"`
}

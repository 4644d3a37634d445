package models

import (
	"time"

	"gorm.io/gorm"
)

// WorkType distinguishes the kinds of works artists can publish
type WorkType string

const (
	WorkTypeImage    WorkType = "image"
	WorkTypeEssay    WorkType = "essay"
	WorkTypeTextPost WorkType = "text_post"
)

// Work represents a published piece in an artist's portfolio. Every work
// passed the AI-content detection gate before the row was created.
type Work struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	AuthorID string `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	Title       string   `gorm:"not null" json:"title"`
	WorkType    WorkType `gorm:"not null;default:image" json:"work_type"`
	Description string   `gorm:"type:text" json:"description"`

	// Image data (cover image for essays)
	ImagePath string `json:"image_path"`
	ImageURL  string `json:"image_url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`

	// Essay body
	Content string `gorm:"type:text" json:"content,omitempty"`

	IsPublished bool `gorm:"default:true" json:"is_published"`

	// Engagement counters (cached)
	LikeCount    int `gorm:"default:0" json:"likes_count"`
	CommentCount int `gorm:"default:0" json:"comments_count"`

	// Primary thread shown on the work card
	PrimaryThreadID *string `gorm:"type:uuid" json:"primary_thread_id,omitempty"`
	PrimaryThread   *Thread `gorm:"foreignKey:PrimaryThreadID" json:"primary_thread,omitempty"`

	Threads []Thread `gorm:"many2many:work_threads" json:"threads,omitempty"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// WorkVersion is one entry in a work's version history. New versions go
// through the detection gate the same way the original upload did.
type WorkVersion struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	WorkID string `gorm:"not null;index" json:"work_id"`
	Work   Work   `gorm:"foreignKey:WorkID" json:"-"`

	VersionNumber int    `gorm:"not null" json:"version_number"`
	ImagePath     string `json:"image_path"`
	ImageURL      string `json:"image_url"`
	Note          string `gorm:"type:text" json:"note"`

	CreatedAt time.Time `json:"created_at"`
}

package models

import "time"

// NotificationKind enumerates the events that fan out to users
type NotificationKind string

const (
	NotificationComment    NotificationKind = "comment"
	NotificationReply      NotificationKind = "reply"
	NotificationNewVersion NotificationKind = "new_version"
	NotificationThreadWork NotificationKind = "thread_work"
)

// Notification is one entry in a user's notification feed
type Notification struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;index:idx_notifications_user_created,priority:1" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	Kind    NotificationKind `gorm:"not null" json:"kind"`
	ActorID string           `gorm:"type:uuid" json:"actor_id"`
	Actor   *User            `gorm:"foreignKey:ActorID" json:"actor,omitempty"`

	// Subject of the notification
	WorkID    *string `gorm:"type:uuid" json:"work_id,omitempty"`
	CommentID *string `gorm:"type:uuid" json:"comment_id,omitempty"`
	ThreadID  *string `gorm:"type:uuid" json:"thread_id,omitempty"`

	Message string `gorm:"type:text" json:"message"`

	// Seen clears the badge; Read marks the entry visited
	IsSeen bool `gorm:"default:false" json:"is_seen"`
	IsRead bool `gorm:"default:false" json:"is_read"`

	CreatedAt time.Time `gorm:"index:idx_notifications_user_created,priority:2,sort:desc" json:"created_at"`
}

// DetectionEvent is an operator-facing audit row written whenever the
// detection gate produced a noteworthy outcome: a rejection, a provider
// failure, or a degraded pass that let unverified content through.
type DetectionEvent struct {
	ID       string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID   string  `gorm:"index" json:"user_id"`
	Modality string  `json:"modality"`
	Outcome  string  `gorm:"index" json:"outcome"` // rejected, degraded, service_error
	Provider string  `json:"provider"`
	Score    float64 `json:"score"`
	Warning  string  `gorm:"type:text" json:"warning,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

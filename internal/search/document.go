package search

import (
	"time"

	"github.com/artfolio/backend/internal/models"
)

// WorkSearchDoc represents a work document for Elasticsearch indexing
type WorkSearchDoc struct {
	ID             string   `json:"id"`
	AuthorID       string   `json:"author_id"`
	AuthorUsername string   `json:"author_username"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	WorkType       string   `json:"work_type"`
	Threads        []string `json:"threads,omitempty"`
	LikeCount      int      `json:"like_count"`
	CommentCount   int      `json:"comment_count"`
	CreatedAt      string   `json:"created_at"`
}

// UserSearchDoc represents a user document for Elasticsearch indexing
type UserSearchDoc struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	CreatedAt   string `json:"created_at"`
}

// NewWorkSearchDoc builds a search document from a work row. Author and
// thread associations must be preloaded.
func NewWorkSearchDoc(work *models.Work) *WorkSearchDoc {
	threads := make([]string, 0, len(work.Threads))
	for _, t := range work.Threads {
		threads = append(threads, t.Slug)
	}

	return &WorkSearchDoc{
		ID:             work.ID,
		AuthorID:       work.AuthorID,
		AuthorUsername: work.Author.Username,
		Title:          work.Title,
		Description:    work.Description,
		WorkType:       string(work.WorkType),
		Threads:        threads,
		LikeCount:      work.LikeCount,
		CommentCount:   work.CommentCount,
		CreatedAt:      work.CreatedAt.Format(time.RFC3339),
	}
}

// NewUserSearchDoc builds a search document from a user row
func NewUserSearchDoc(user *models.User) *UserSearchDoc {
	return &UserSearchDoc{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Bio:         user.Bio,
		CreatedAt:   user.CreatedAt.Format(time.RFC3339),
	}
}

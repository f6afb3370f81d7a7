package models

import (
	"time"

	"github.com/google/uuid"
)

// SourceMaterial is a unit of study text handed to a task function. It is
// supplied fresh per call and never stored by the task layer.
type SourceMaterial struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Subject string `json:"subject,omitempty"`
}

// StudyMaterial is a persisted note owned by a user.
type StudyMaterial struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Subject   *string   `json:"subject"`
	FileType  string    `json:"file_type"` // "text" | "pdf" | "docx" | "txt" | "youtube" | "image"
	SourceURL *string   `json:"source_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AsSource converts a stored material into the shape task functions consume.
func (m *StudyMaterial) AsSource() SourceMaterial {
	s := SourceMaterial{ID: m.ID.String(), Title: m.Title, Content: m.Content}
	if m.Subject != nil {
		s.Subject = *m.Subject
	}
	return s
}

type CreateMaterialRequest struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Subject *string `json:"subject"`
}

type UpdateMaterialRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Subject *string `json:"subject"`
}

type ImportYouTubeRequest struct {
	URL     string  `json:"url"`
	Subject *string `json:"subject"`
}

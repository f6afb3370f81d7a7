package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ArtifactKind string

const (
	ArtifactQuiz            ArtifactKind = "quiz"
	ArtifactFlashcards      ArtifactKind = "flashcards"
	ArtifactExam            ArtifactKind = "exam"
	ArtifactKnowledgeGraph  ArtifactKind = "knowledge-graph"
	ArtifactSchedule        ArtifactKind = "schedule"
	ArtifactCitations       ArtifactKind = "citations"
	ArtifactPaperSummary    ArtifactKind = "paper-summary"
	ArtifactKeyWords        ArtifactKind = "key-words"
	ArtifactReverseLearning ArtifactKind = "reverse-learning"
)

func (k ArtifactKind) Valid() bool {
	switch k {
	case ArtifactQuiz, ArtifactFlashcards, ArtifactExam, ArtifactKnowledgeGraph,
		ArtifactSchedule, ArtifactCitations, ArtifactPaperSummary, ArtifactKeyWords,
		ArtifactReverseLearning:
		return true
	}
	return false
}

// Artifact is a stored generation result.
type Artifact struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Kind        ArtifactKind    `json:"kind"`
	Title       string          `json:"title"`
	PayloadJSON json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
}

// GenerateArtifactRequest queues an artifact. Input is kind-specific and is
// decoded by the artifact generator.
type GenerateArtifactRequest struct {
	Kind  ArtifactKind    `json:"kind"`
	Title string          `json:"title"`
	Input json.RawMessage `json:"input"`
}

type Job struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	Type         string          `json:"type"` // "artifact-generation"
	ReferenceID  uuid.UUID       `json:"reference_id"`
	ConfigJSON   json.RawMessage `json:"config"`
	Status       string          `json:"status"` // "pending" | "processing" | "completed" | "failed" | "cancelled"
	RetryCount   int             `json:"retry_count"`
	MaxRetries   int             `json:"max_retries"`
	ErrorMessage *string         `json:"error_message"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at"`
}

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type StatusUpdate struct {
	JobID    uuid.UUID `json:"job_id"`
	Step     int       `json:"step"`
	StepName string    `json:"step_name"`
}

type CompletedEvent struct {
	JobID      uuid.UUID    `json:"job_id"`
	ResultID   uuid.UUID    `json:"result_id"`
	ResultType ArtifactKind `json:"result_type"`
}

type ErrorEvent struct {
	JobID        uuid.UUID `json:"job_id"`
	ErrorCode    string    `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

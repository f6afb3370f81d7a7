// Package llm is the single choke point between the study tasks and the
// generative model backend. Callers build a PromptSpec, hand it to a Client
// and get back the raw model text or a typed failure.
package llm

import "context"

// TaskType identifies the study task an invocation belongs to. It is used for
// logging and observer events only; it never changes what is sent.
type TaskType string

const (
	TaskExplain          TaskType = "explain"
	TaskExplainQuestion  TaskType = "explain-question"
	TaskQuiz             TaskType = "quiz"
	TaskFlashcards       TaskType = "flashcards"
	TaskKnowledgeGraph   TaskType = "knowledge-graph"
	TaskExam             TaskType = "exam"
	TaskHandwrittenNotes TaskType = "handwritten-notes"
	TaskContentSchedule  TaskType = "content-schedule"
	TaskStudySchedule    TaskType = "study-schedule"
	TaskWeeklyDigest     TaskType = "weekly-digest"
	TaskReverseLearning  TaskType = "reverse-learning"
	TaskCitations        TaskType = "citations"
	TaskPaperSummary     TaskType = "paper-summary"
	TaskKeyWords         TaskType = "key-words"
	TaskWordQuestions    TaskType = "word-questions"
	TaskChat             TaskType = "chat"
)

// ResponseFormat selects between free text and the backend's strict JSON mode.
type ResponseFormat string

const (
	FormatText ResponseFormat = "text"
	FormatJSON ResponseFormat = "json"
)

// PromptSpec is a fully assembled request for one invocation. It is built
// fresh per call and never mutated after construction.
type PromptSpec struct {
	Task            TaskType
	SystemDirective string
	UserPayload     string
	ResponseFormat  ResponseFormat
	Temperature     float32
}

// WantsJSON reports whether the backend should be asked for JSON output.
func (s PromptSpec) WantsJSON() bool {
	return s.ResponseFormat == FormatJSON
}

// Image is an inline image payload for vision invocations.
type Image struct {
	MIMEType string
	Data     []byte
}

// Client sends a PromptSpec to the backend. Implementations perform at most
// one outbound call per invocation, never retry, and never panic: every
// failure comes back as an error (ErrNotConfigured or *InvocationError).
type Client interface {
	Invoke(ctx context.Context, spec PromptSpec) (string, error)
	InvokeWithImage(ctx context.Context, spec PromptSpec, img Image) (string, error)
}

// UnconfiguredClient is used when no backend credential is present. It
// answers every call with ErrNotConfigured without touching the network.
type UnconfiguredClient struct{}

func NewUnconfiguredClient() *UnconfiguredClient {
	return &UnconfiguredClient{}
}

func (UnconfiguredClient) Invoke(context.Context, PromptSpec) (string, error) {
	return "", ErrNotConfigured
}

func (UnconfiguredClient) InvokeWithImage(context.Context, PromptSpec, Image) (string, error) {
	return "", ErrNotConfigured
}

package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"studynook-backend/internal/llm"
	"studynook-backend/internal/logger"
)

const (
	DefaultQuizQuestions = 5
	DefaultFlashcards    = 10
	DefaultExamMinutes   = 60
	DefaultEnergyLevel   = 5
)

// Placeholders returned by free-text tasks when nothing better is available.
const (
	ExplanationNotConfigured = "AI backend not configured. Please add a Gemini API key to continue."
	ExplanationFailed        = "Error generating explanation. Please check your API key and try again."
	BackendNotConfigured     = "AI backend not configured."
	NotesFailed              = "Error processing handwritten notes."
	DigestFailed             = "Error generating weekly digest."
	ChatFailed               = "Sorry, I couldn't generate a reply right now. Please try again."
)

// StudyService runs the study tasks against an llm.Client. Every task method
// returns a well-formed value; backend and parse failures are logged at WARN
// and replaced by the task's empty default or placeholder text.
type StudyService struct {
	llm    llm.Client
	logger *slog.Logger
}

func NewStudyService(client llm.Client, log *slog.Logger) *StudyService {
	if client == nil {
		client = llm.NewUnconfiguredClient()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &StudyService{llm: client, logger: log}
}

// Configured reports whether a real backend is wired in.
func (s *StudyService) Configured() bool {
	switch s.llm.(type) {
	case *llm.UnconfiguredClient, llm.UnconfiguredClient:
		return false
	}
	return true
}

func (s *StudyService) invoke(ctx context.Context, spec llm.PromptSpec) (string, error) {
	raw, err := s.llm.Invoke(ctx, spec)
	if err != nil {
		s.degraded(spec.Task, err)
		return "", err
	}
	return raw, nil
}

func (s *StudyService) invokeWithImage(ctx context.Context, spec llm.PromptSpec, img llm.Image) (string, error) {
	raw, err := s.llm.InvokeWithImage(ctx, spec, img)
	if err != nil {
		s.degraded(spec.Task, err)
		return "", err
	}
	return raw, nil
}

// invokeObject runs a JSON-mode task and parses the top-level object. The
// map is empty, never nil, when anything went wrong.
func (s *StudyService) invokeObject(ctx context.Context, spec llm.PromptSpec) map[string]json.RawMessage {
	raw, err := s.invoke(ctx, spec)
	if err != nil {
		return map[string]json.RawMessage{}
	}
	obj, err := llm.ParseObject(raw)
	if err != nil {
		s.degraded(spec.Task, err)
	}
	return obj
}

// invokeList runs a JSON-mode task whose result is the array under key.
func invokeList[T any](ctx context.Context, s *StudyService, spec llm.PromptSpec, key string, valid func(*T) bool) []T {
	raw, err := s.invoke(ctx, spec)
	if err != nil {
		return []T{}
	}
	items, err := llm.DecodeList(raw, key, valid)
	if err != nil {
		s.degraded(spec.Task, err)
	}
	return items
}

func (s *StudyService) degraded(task llm.TaskType, err error) {
	if llm.IsNotConfigured(err) {
		s.logger.Warn("study task skipped: ai backend not configured", "task", task)
		return
	}
	s.logger.Warn("study task degraded to default", "task", task, "error", err)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

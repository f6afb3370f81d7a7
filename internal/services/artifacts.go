package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"studynook-backend/internal/models"
)

// ErrEmptyArtifact means a task degraded to its empty default. The worker
// treats it as a retryable failure.
var ErrEmptyArtifact = errors.New("generation produced an empty result")

type contentInput struct {
	Content string `json:"content"`
	Count   int    `json:"count"`
}

type examInput struct {
	Materials  []string `json:"materials"`
	Duration   int      `json:"duration"`
	Difficulty string   `json:"difficulty"`
}

type materialsInput struct {
	Materials []string `json:"materials"`
}

type scheduleInput struct {
	Goals []models.StudyGoal `json:"goals"`
}

type paperInput struct {
	PaperContent string `json:"paperContent"`
}

type keyWordsInput struct {
	Materials []models.SourceMaterial `json:"materials"`
}

type reverseInput struct {
	Problem string `json:"problem"`
	Subject string `json:"subject"`
}

// ArtifactGenerator runs a study task for a queued artifact job.
type ArtifactGenerator struct {
	study *StudyService
}

func NewArtifactGenerator(study *StudyService) *ArtifactGenerator {
	return &ArtifactGenerator{study: study}
}

// ValidateInput checks a request before it is queued.
func (g *ArtifactGenerator) ValidateInput(kind models.ArtifactKind, input json.RawMessage) error {
	if !kind.Valid() {
		return &ValidationError{Fields: map[string]string{"kind": "Unknown artifact kind"}}
	}
	fields := map[string]string{}
	bad := func(field, msg string) { fields[field] = msg }

	switch kind {
	case models.ArtifactQuiz, models.ArtifactFlashcards, models.ArtifactCitations:
		var in contentInput
		if err := decodeInput(input, &in); err != nil || strings.TrimSpace(in.Content) == "" {
			bad("input.content", "Content is required")
		}
	case models.ArtifactExam, models.ArtifactKnowledgeGraph:
		var in materialsInput
		if err := decodeInput(input, &in); err != nil || len(in.Materials) == 0 {
			bad("input.materials", "At least one material is required")
		}
	case models.ArtifactSchedule:
		var in scheduleInput
		if err := decodeInput(input, &in); err != nil || len(in.Goals) == 0 {
			bad("input.goals", "At least one goal is required")
		}
	case models.ArtifactPaperSummary:
		var in paperInput
		if err := decodeInput(input, &in); err != nil || strings.TrimSpace(in.PaperContent) == "" {
			bad("input.paperContent", "Paper content is required")
		}
	case models.ArtifactKeyWords:
		var in keyWordsInput
		if err := decodeInput(input, &in); err != nil || len(in.Materials) == 0 {
			bad("input.materials", "At least one material is required")
		}
	case models.ArtifactReverseLearning:
		var in reverseInput
		if err := decodeInput(input, &in); err != nil {
			bad("input", "Invalid input")
			break
		}
		if strings.TrimSpace(in.Problem) == "" {
			bad("input.problem", "Problem is required")
		}
		if strings.TrimSpace(in.Subject) == "" {
			bad("input.subject", "Subject is required")
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Generate runs the task for kind and returns the JSON payload to store.
// A result equal to the task's empty default yields ErrEmptyArtifact.
func (g *ArtifactGenerator) Generate(ctx context.Context, kind models.ArtifactKind, input json.RawMessage) (json.RawMessage, error) {
	if err := g.ValidateInput(kind, input); err != nil {
		return nil, err
	}

	var (
		result interface{}
		empty  bool
	)
	switch kind {
	case models.ArtifactQuiz:
		var in contentInput
		_ = decodeInput(input, &in)
		qs := g.study.GenerateQuiz(ctx, in.Content, in.Count)
		result, empty = map[string]interface{}{"questions": qs}, len(qs) == 0
	case models.ArtifactFlashcards:
		var in contentInput
		_ = decodeInput(input, &in)
		cards := g.study.GenerateFlashcards(ctx, in.Content, in.Count)
		result, empty = map[string]interface{}{"flashcards": cards}, len(cards) == 0
	case models.ArtifactExam:
		var in examInput
		_ = decodeInput(input, &in)
		exam := g.study.GenerateExam(ctx, in.Materials, in.Duration, models.ParseDifficulty(in.Difficulty))
		result, empty = exam, len(exam.Questions) == 0
	case models.ArtifactKnowledgeGraph:
		var in materialsInput
		_ = decodeInput(input, &in)
		graph := g.study.BuildKnowledgeGraph(ctx, in.Materials)
		result, empty = graph, len(graph.Nodes) == 0
	case models.ArtifactSchedule:
		var in scheduleInput
		_ = decodeInput(input, &in)
		plan := g.study.GenerateContentSchedule(ctx, in.Goals)
		result, empty = map[string]interface{}{"plan": plan}, len(plan) == 0
	case models.ArtifactCitations:
		var in contentInput
		_ = decodeInput(input, &in)
		sources := g.study.FindCitations(ctx, in.Content)
		result, empty = map[string]interface{}{"sources": sources}, len(sources) == 0
	case models.ArtifactPaperSummary:
		var in paperInput
		_ = decodeInput(input, &in)
		summary := g.study.SummarizePaper(ctx, in.PaperContent)
		result, empty = summary, summary.Summary == ""
	case models.ArtifactKeyWords:
		var in keyWordsInput
		_ = decodeInput(input, &in)
		words := g.study.ExtractKeyWords(ctx, in.Materials)
		result, empty = map[string]interface{}{"words": words}, len(words) == 0
	case models.ArtifactReverseLearning:
		var in reverseInput
		_ = decodeInput(input, &in)
		path := g.study.ReverseLearning(ctx, in.Problem, in.Subject)
		result, empty = path, len(path.Concepts) == 0
	}

	if empty {
		return nil, fmt.Errorf("%s: %w", kind, ErrEmptyArtifact)
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s artifact: %w", kind, err)
	}
	return payload, nil
}

func decodeInput(input json.RawMessage, v interface{}) error {
	if len(input) == 0 {
		return errors.New("input is required")
	}
	return json.Unmarshal(input, v)
}

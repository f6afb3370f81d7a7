package services

import (
	"context"

	"studynook-backend/internal/llm"
	"studynook-backend/internal/models"
	"studynook-backend/internal/postprocess"
	"studynook-backend/internal/prompts"
)

// Explain explains a concept at the requested level, grounding it in the
// student's materials and reporting how much came from them.
func (s *StudyService) Explain(ctx context.Context, concept, details string, level models.ExplanationLevel, materials []models.SourceMaterial) models.Explanation {
	spec := prompts.Explanation(concept, details, level, materials)
	raw, err := s.invoke(ctx, spec)
	if err != nil {
		if llm.IsNotConfigured(err) {
			return models.Explanation{Explanation: ExplanationNotConfigured}
		}
		return models.Explanation{Explanation: ExplanationFailed}
	}

	text, breakdown := postprocess.AttributeBreakdown(raw, materials)
	return models.Explanation{Explanation: text, SourceBreakdown: breakdown}
}

// ExplainQuestion answers a question from the student's notes and reports
// which of the supplied notes were used. Ids are always a subset of the ids
// in materials.
func (s *StudyService) ExplainQuestion(ctx context.Context, question string, materials []models.SourceMaterial) models.QuestionExplanation {
	spec := prompts.QuestionExplanation(question, materials)
	raw, err := s.invoke(ctx, spec)
	if err != nil {
		msg := ExplanationFailed
		if llm.IsNotConfigured(err) {
			msg = ExplanationNotConfigured
		}
		return models.QuestionExplanation{Explanation: msg, UsedNoteIDs: []string{}}
	}

	text, ids := postprocess.AttributeNotes(raw, question, materials)
	return models.QuestionExplanation{Explanation: text, UsedNoteIDs: ids}
}

// CleanHandwrittenNotes turns a photo of handwritten notes into structured
// text. It never returns an empty string.
func (s *StudyService) CleanHandwrittenNotes(ctx context.Context, img llm.Image) string {
	raw, err := s.invokeWithImage(ctx, prompts.HandwrittenNotes(), img)
	if err != nil {
		if llm.IsNotConfigured(err) {
			return BackendNotConfigured
		}
		return NotesFailed
	}
	return postprocess.Normalize(raw)
}

func (s *StudyService) WeeklyDigest(ctx context.Context, progress models.Progress, weakAreas, strongAreas []string) string {
	raw, err := s.invoke(ctx, prompts.WeeklyDigest(progress, weakAreas, strongAreas))
	if err != nil {
		if llm.IsNotConfigured(err) {
			return BackendNotConfigured
		}
		return DigestFailed
	}
	return postprocess.Normalize(raw)
}

func (s *StudyService) Chat(ctx context.Context, message string, history []models.ChatTurn, materials []models.SourceMaterial) string {
	raw, err := s.invoke(ctx, prompts.Chat(message, history, materials))
	if err != nil {
		if llm.IsNotConfigured(err) {
			return BackendNotConfigured
		}
		return ChatFailed
	}
	return postprocess.Normalize(raw)
}

// isPlaceholder reports whether text is one of the fixed fallback messages.
func isPlaceholder(text string) bool {
	switch text {
	case ExplanationNotConfigured, ExplanationFailed, BackendNotConfigured, NotesFailed, DigestFailed, ChatFailed:
		return true
	}
	return false
}

package services

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"studynook-backend/internal/models"
)

const (
	coachMotivation = "motivation"
	coachFeedback   = "feedback"
	coachSuggestion = "suggestion"

	coachWeakLimit        = 3
	digestSentenceMinimum = 20
)

var sentenceBreak = regexp.MustCompile(`[.!?]+`)

// ProgressFrom summarises a coach request into the progress object sent to
// the weekly digest.
func ProgressFrom(req models.CoachRequest) models.Progress {
	return models.Progress{
		Streak:         req.Streak,
		RecentSessions: len(req.RecentSessions),
		RecentExams:    len(req.RecentExams),
		WeakAreas:      conceptNames(req.WeakConcepts),
		StrongAreas:    conceptNames(req.StrongConcepts),
	}
}

// CoachMessages returns the coach feed: a streak message, feedback on the
// latest exam, a review suggestion for weak concepts and one motivational
// line taken from the weekly digest. Exams are newest first.
func (s *StudyService) CoachMessages(ctx context.Context, req models.CoachRequest) []models.CoachMessage {
	progress := ProgressFrom(req)
	digest := s.WeeklyDigest(ctx, progress, progress.WeakAreas, progress.StrongAreas)

	messages := []models.CoachMessage{}
	if req.Streak > 0 {
		messages = append(messages, models.CoachMessage{
			Type:      coachMotivation,
			Content:   fmt.Sprintf("Great job! You've maintained a %d-day study streak. Keep it up! 🔥", req.Streak),
			Timestamp: "Just now",
		})
	}

	if len(req.RecentExams) > 0 {
		messages = append(messages, models.CoachMessage{
			Type:      coachFeedback,
			Content:   examFeedback(req.RecentExams),
			Timestamp: "Recently",
		})
	}

	if weak := progress.WeakAreas; len(weak) > 0 {
		if len(weak) > coachWeakLimit {
			weak = weak[:coachWeakLimit]
		}
		messages = append(messages, models.CoachMessage{
			Type:      coachSuggestion,
			Content:   fmt.Sprintf("Based on your performance, consider reviewing: %s. These are areas that need more practice.", strings.Join(weak, ", ")),
			Timestamp: "Today",
		})
	}

	if line := digestHighlight(digest); line != "" {
		messages = append(messages, models.CoachMessage{
			Type:      coachMotivation,
			Content:   line,
			Timestamp: "Today",
		})
	}
	return messages
}

func examFeedback(exams []models.ExamResult) string {
	latest := exams[0].Score
	improvement := 0.0
	if len(exams) > 1 {
		improvement = latest - exams[1].Score
	}

	switch {
	case improvement > 0:
		return fmt.Sprintf("Your performance improved by %s%%! Your latest exam score was %s%%. Excellent progress!", formatScore(improvement), formatScore(latest))
	case latest >= 80:
		return fmt.Sprintf("Your latest exam score was %s%%. You're doing great! Keep up the excellent work!", formatScore(latest))
	default:
		return fmt.Sprintf("Your latest exam score was %s%%. Focus on reviewing weak areas to improve.", formatScore(latest))
	}
}

// digestHighlight picks the first sentence of the digest longer than the
// minimum. Placeholder digests yield nothing.
func digestHighlight(digest string) string {
	if digest == "" || isPlaceholder(digest) {
		return ""
	}
	for _, sentence := range sentenceBreak.Split(digest, -1) {
		sentence = strings.TrimSpace(sentence)
		if len([]rune(sentence)) > digestSentenceMinimum {
			return sentence + "."
		}
	}
	return ""
}

func conceptNames(concepts []models.ConceptRef) []string {
	names := make([]string, 0, len(concepts))
	for _, c := range concepts {
		if name := strings.TrimSpace(c.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func formatScore(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

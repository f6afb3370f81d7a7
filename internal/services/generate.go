package services

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strings"

	"studynook-backend/internal/llm"
	"studynook-backend/internal/models"
	"studynook-backend/internal/prompts"
)

func (s *StudyService) GenerateQuiz(ctx context.Context, content string, numQuestions int) []models.Question {
	if numQuestions <= 0 {
		numQuestions = DefaultQuizQuestions
	}
	return invokeList(ctx, s, prompts.Quiz(content, numQuestions), "questions", validQuestion)
}

func (s *StudyService) GenerateFlashcards(ctx context.Context, content string, numCards int) []models.Flashcard {
	if numCards <= 0 {
		numCards = DefaultFlashcards
	}
	return invokeList(ctx, s, prompts.Flashcards(content, numCards), "flashcards", validFlashcard)
}

// GenerateExam builds an exam across materials. On failure the exam has no
// questions and no metadata.
func (s *StudyService) GenerateExam(ctx context.Context, materials []string, durationMinutes int, difficulty models.Difficulty) models.Exam {
	if durationMinutes <= 0 {
		durationMinutes = DefaultExamMinutes
	}
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}

	spec := prompts.Exam(materials, durationMinutes, difficulty)
	raw, err := s.invoke(ctx, spec)
	if err != nil {
		return models.Exam{Questions: []models.Question{}}
	}
	questions, err := llm.DecodeList(raw, "questions", validQuestion)
	if err != nil {
		s.degraded(spec.Task, err)
		return models.Exam{Questions: questions}
	}

	return models.Exam{Questions: questions, PredictedDifficulty: difficulty, DurationMinutes: durationMinutes}
}

type rawGraphNode struct {
	ID           models.FlexString `json:"id"`
	Label        string            `json:"label"`
	Type         string            `json:"type"`
	MasteryLevel models.FlexFloat  `json:"mastery_level"`
}

type rawGraphLink struct {
	Source           models.FlexString `json:"source"`
	Target           models.FlexString `json:"target"`
	RelationshipType string            `json:"relationship_type"`
}

// BuildKnowledgeGraph extracts concepts and relationships. Node ids are
// unique, mastery is clamped to 0-100 and every link joins two known nodes.
func (s *StudyService) BuildKnowledgeGraph(ctx context.Context, materials []string) models.KnowledgeGraph {
	spec := prompts.KnowledgeGraph(materials)
	obj := s.invokeObject(ctx, spec)

	graph := models.EmptyKnowledgeGraph()
	nodes, _ := llm.Field[[]json.RawMessage](obj, "nodes")
	seen := map[string]bool{}
	for _, item := range nodes {
		var n rawGraphNode
		if err := json.Unmarshal(item, &n); err != nil {
			continue
		}
		id := strings.TrimSpace(string(n.ID))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		label := n.Label
		if strings.TrimSpace(label) == "" {
			label = id
		}
		graph.Nodes = append(graph.Nodes, models.GraphNode{
			ID:           id,
			Label:        label,
			Type:         n.Type,
			MasteryLevel: clamp(int(math.Round(float64(n.MasteryLevel))), 0, 100),
		})
	}

	links, _ := llm.Field[[]json.RawMessage](obj, "links")
	for _, item := range links {
		var l rawGraphLink
		if err := json.Unmarshal(item, &l); err != nil {
			continue
		}
		src, dst := strings.TrimSpace(string(l.Source)), strings.TrimSpace(string(l.Target))
		if !seen[src] || !seen[dst] {
			continue
		}
		graph.Links = append(graph.Links, models.GraphLink{Source: src, Target: dst, RelationshipType: l.RelationshipType})
	}

	if len(graph.Nodes) == 0 && len(nodes) > 0 {
		s.logger.Warn("knowledge graph had no usable nodes", "task", spec.Task, "raw_nodes", len(nodes))
	}
	return graph
}

// ReverseLearning works back from a problem to the concepts it needs, in
// learning order.
func (s *StudyService) ReverseLearning(ctx context.Context, problem, subject string) models.LearningPath {
	obj := s.invokeObject(ctx, prompts.ReverseLearning(problem, subject))

	path := models.EmptyLearningPath()
	if concepts, ok := llm.Field[[]json.RawMessage](obj, "concepts"); ok {
		path.Concepts = decodeEach(concepts, func(c *models.PathConcept) bool {
			return strings.TrimSpace(c.Name) != ""
		})
	}
	if materials, ok := llm.Field[[]json.RawMessage](obj, "materials"); ok {
		path.Materials = decodeEach(materials, func(m *models.PathMaterial) bool {
			return strings.TrimSpace(m.Title) != ""
		})
	}

	for i := range path.Concepts {
		if path.Concepts[i].Order <= 0 {
			path.Concepts[i].Order = models.FlexInt(i + 1)
		}
	}
	sort.SliceStable(path.Concepts, func(i, j int) bool { return path.Concepts[i].Order < path.Concepts[j].Order })
	for i := range path.Materials {
		if path.Materials[i].Order <= 0 {
			path.Materials[i].Order = models.FlexInt(i + 1)
		}
	}
	sort.SliceStable(path.Materials, func(i, j int) bool { return path.Materials[i].Order < path.Materials[j].Order })
	return path
}

// FindCitations returns the suggested sources as the model gave them; only
// entries without a title are dropped.
func (s *StudyService) FindCitations(ctx context.Context, content string) []models.Source {
	return invokeList(ctx, s, prompts.Citations(content), "sources", func(src *models.Source) bool {
		return strings.TrimSpace(src.Title) != ""
	})
}

func (s *StudyService) SummarizePaper(ctx context.Context, paper string) models.PaperSummary {
	obj := s.invokeObject(ctx, prompts.PaperSummary(paper))

	summary := models.PaperSummary{
		KeyContributions:      models.StringList{},
		ContrastingViewpoints: models.StringList{},
		PotentialQuestions:    []models.PotentialQuestion{},
	}
	summary.Summary, _ = llm.Field[string](obj, "summary")
	if v, ok := llm.Field[models.StringList](obj, "key_contributions"); ok && v != nil {
		summary.KeyContributions = v
	}
	if v, ok := llm.Field[models.StringList](obj, "contrasting_viewpoints"); ok && v != nil {
		summary.ContrastingViewpoints = v
	}
	if qs, ok := llm.Field[[]json.RawMessage](obj, "potential_questions"); ok {
		summary.PotentialQuestions = decodeEach(qs, func(q *models.PotentialQuestion) bool {
			return strings.TrimSpace(q.Question) != ""
		})
	}
	return summary
}

type rawWord struct {
	Word             string            `json:"word"`
	Frequency        models.FlexFloat  `json:"frequency"`
	Category         string            `json:"category"`
	RelatedMaterials models.StringList `json:"related_materials"`
}

// ExtractKeyWords pulls the important terms out of materials. Frequency is
// clamped to 1-100.
func (s *StudyService) ExtractKeyWords(ctx context.Context, materials []models.SourceMaterial) []models.Word {
	raws := invokeList(ctx, s, prompts.KeyWords(materials), "words", func(w *rawWord) bool {
		return strings.TrimSpace(w.Word) != ""
	})

	words := make([]models.Word, 0, len(raws))
	for _, w := range raws {
		related := w.RelatedMaterials
		if related == nil {
			related = models.StringList{}
		}
		words = append(words, models.Word{
			Word:             strings.TrimSpace(w.Word),
			Frequency:        clamp(int(math.Round(float64(w.Frequency))), 1, 100),
			Category:         w.Category,
			RelatedMaterials: related,
		})
	}
	return words
}

// QuestionsForWord generates questions about one term from the materials
// that mention it. With no such material no call is made.
func (s *StudyService) QuestionsForWord(ctx context.Context, word string, materials []models.SourceMaterial) []models.Question {
	relevant := MaterialsMentioning(word, materials)
	if len(relevant) == 0 {
		return []models.Question{}
	}
	return invokeList(ctx, s, prompts.WordQuestions(word, relevant), "questions", validQuestion)
}

// MaterialsMentioning keeps the materials whose title or content contains
// word, case-insensitively.
func MaterialsMentioning(word string, materials []models.SourceMaterial) []models.SourceMaterial {
	needle := strings.ToLower(strings.TrimSpace(word))
	out := []models.SourceMaterial{}
	if needle == "" {
		return out
	}
	for _, m := range materials {
		if strings.Contains(strings.ToLower(m.Content), needle) || strings.Contains(strings.ToLower(m.Title), needle) {
			out = append(out, m)
		}
	}
	return out
}

func validQuestion(q *models.Question) bool {
	q.Question = strings.TrimSpace(q.Question)
	if q.Question == "" {
		return false
	}
	if q.Type == "" {
		if len(q.Options) > 0 {
			q.Type = "multiple_choice"
		} else {
			q.Type = "short_answer"
		}
	}
	return true
}

func validFlashcard(f *models.Flashcard) bool {
	if strings.TrimSpace(f.Question) == "" || strings.TrimSpace(f.Answer) == "" {
		return false
	}
	if f.Difficulty == "" {
		f.Difficulty = models.DifficultyMedium
	}
	if f.KeyConcepts == nil {
		f.KeyConcepts = models.StringList{}
	}
	return true
}

func decodeEach[T any](items []json.RawMessage, valid func(*T) bool) []T {
	out := []T{}
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			continue
		}
		if valid != nil && !valid(&v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

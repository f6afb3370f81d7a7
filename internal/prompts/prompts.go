// Package prompts builds the PromptSpec for every study task. Builders are
// pure: same input, same spec, no I/O.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"studynook-backend/internal/llm"
	"studynook-backend/internal/models"
)

// Per-task temperatures: low for extraction, mid for generation, high for
// motivational free text.
const (
	TempOCR        float32 = 0.3
	TempExtraction float32 = 0.5
	TempReverse    float32 = 0.6
	TempGenerative float32 = 0.7
	TempDigest     float32 = 0.8
)

const (
	MaterialSeparator      = "\n\n---\n\n"
	ScheduleMaterialLimit  = 500
	ChatMaterialLimit      = 500
	ChatHistoryLimit       = 10
	NotesUsedMarker        = "NOTES_USED"
	SourceBreakdownPrefix  = "Source:"
	defaultMaterialTitle   = "Untitled"
	defaultMaterialSubject = "General"
)

var levelDirectives = map[models.ExplanationLevel]string{
	models.LevelELI5:      "Explain this like I'm 5 years old. Use simple words, analogies, and examples a child would understand.",
	models.LevelBeginner:  "Explain this for someone who is just starting to learn. Use simple language and provide clear examples.",
	models.LevelStandard:  "Explain this at a standard student level. Include technical terms but define them clearly.",
	models.LevelGraduate:  "Explain this at a graduate level. Assume familiarity with the field and use appropriate terminology.",
	models.LevelProfessor: "Explain this at a professor/technical expert level. Include deep technical details, mathematical formulations, and advanced concepts.",
}

// Explanation builds the context-mode explanation prompt. The model is asked
// to end with a "Source: X% ..., Y% ..." line.
func Explanation(concept, details string, level models.ExplanationLevel, materials []models.SourceMaterial) llm.PromptSpec {
	directive, ok := levelDirectives[level]
	if !ok {
		directive = levelDirectives[models.LevelStandard]
	}

	var sys strings.Builder
	sys.WriteString("You are an expert tutor. ")
	sys.WriteString(directive)
	sys.WriteString(`

IMPORTANT INSTRUCTIONS:
1. Use the student's study materials (if provided) as the PRIMARY source for explaining the concept
2. Supplement with your general knowledge when the student's materials don't fully cover the concept
3. Prioritize information from the student's materials to help them connect with what they've already studied
4. When using information from the student's materials, reference them naturally (e.g., "As mentioned in your notes...")
5. After your explanation, provide a source breakdown showing what percentage came from the student's materials vs. online/general knowledge`)

	var user strings.Builder
	fmt.Fprintf(&user, "Concept to explain: %s\n\nAdditional context: %s", concept, details)
	if len(materials) > 0 {
		user.WriteString("\n\nSTUDENT'S STUDY MATERIALS:\n")
		user.WriteString(joinMaterials(materials, false, 0))
	}
	user.WriteString("\n\nPlease explain this concept using the student's materials as the primary source, supplemented with your knowledge. ")
	fmt.Fprintf(&user, "After the explanation, provide a source breakdown on its own final line in this format: \"%s X%% from your study materials, Y%% from online/general knowledge\"", SourceBreakdownPrefix)

	return llm.PromptSpec{
		Task:            llm.TaskExplain,
		SystemDirective: sys.String(),
		UserPayload:     user.String(),
		ResponseFormat:  llm.FormatText,
		Temperature:     TempGenerative,
	}
}

// QuestionExplanation builds the question-mode prompt. Materials carry ids and
// the model is asked to name the ones it used on a final NOTES_USED line.
func QuestionExplanation(question string, materials []models.SourceMaterial) llm.PromptSpec {
	sys := `You are an expert tutor answering a student's question from their own notes.
Answer clearly, using the notes first and general knowledge only to fill gaps.
On the very last line write ` + NotesUsedMarker + `: followed by a comma-separated list of the ids of the notes you relied on, or ` + NotesUsedMarker + `: none if you used none of them. Only use ids exactly as given.`

	var user strings.Builder
	fmt.Fprintf(&user, "Question: %s\n\n", question)
	if len(materials) == 0 {
		user.WriteString("The student has no notes for this question.")
	} else {
		user.WriteString("STUDENT'S NOTES:\n")
		parts := make([]string, len(materials))
		for i, m := range materials {
			parts[i] = fmt.Sprintf("[id: %s]\nTitle: %s\nContent: %s", m.ID, titleOr(m.Title), m.Content)
		}
		user.WriteString(strings.Join(parts, MaterialSeparator))
	}

	return llm.PromptSpec{
		Task:            llm.TaskExplainQuestion,
		SystemDirective: sys,
		UserPayload:     user.String(),
		ResponseFormat:  llm.FormatText,
		Temperature:     TempGenerative,
	}
}

func Quiz(content string, numQuestions int) llm.PromptSpec {
	return llm.PromptSpec{
		Task:            llm.TaskQuiz,
		SystemDirective: "You are an expert quiz generator. Create educational quizzes from study materials.",
		UserPayload: fmt.Sprintf(`Generate %d quiz questions from the following content. Return a JSON object with a "questions" array of objects containing: question, type (multiple_choice, short_answer, or true_false), options (if multiple_choice), correct_answer, and explanation.

Content:
%s`, numQuestions, content),
		ResponseFormat: llm.FormatJSON,
		Temperature:    TempGenerative,
	}
}

func Flashcards(content string, numCards int) llm.PromptSpec {
	return llm.PromptSpec{
		Task:            llm.TaskFlashcards,
		SystemDirective: "You are an expert flashcard generator. Create effective flashcards for spaced repetition learning.",
		UserPayload: fmt.Sprintf(`Generate %d flashcards from the following content. Return a JSON object with a "flashcards" array of objects containing: question, answer, difficulty (easy, medium, or hard), and key_concepts (array of strings).

Content:
%s`, numCards, content),
		ResponseFormat: llm.FormatJSON,
		Temperature:    TempGenerative,
	}
}

func KnowledgeGraph(materials []string) llm.PromptSpec {
	return llm.PromptSpec{
		Task:            llm.TaskKnowledgeGraph,
		SystemDirective: "You are an expert at building knowledge graphs. Analyze study materials and extract concepts and their relationships.",
		UserPayload: `Analyze the following study materials and create a knowledge graph. Return JSON with nodes (id, label, type, mastery_level from 0 to 100) and links (source, target, relationship_type). Every link must reference node ids.

Materials:
` + strings.Join(materials, MaterialSeparator),
		ResponseFormat: llm.FormatJSON,
		Temperature:    TempExtraction,
	}
}

func Exam(materials []string, durationMinutes int, difficulty models.Difficulty) llm.PromptSpec {
	return llm.PromptSpec{
		Task:            llm.TaskExam,
		SystemDirective: "You are an expert exam generator. Create comprehensive exams that test understanding across all study materials.",
		UserPayload: fmt.Sprintf(`Generate a %d-minute %s exam from the following materials. Include a mix of question types (multiple choice, short answer, essay, code if applicable). Return JSON with a "questions" array containing: question, type, options (if applicable), correct_answer, points, and explanation.

Materials:
%s`, durationMinutes, difficulty, strings.Join(materials, MaterialSeparator)),
		ResponseFormat: llm.FormatJSON,
		Temperature:    TempGenerative,
	}
}

// HandwrittenNotes is sent alongside the image of the page.
func HandwrittenNotes() llm.PromptSpec {
	return llm.PromptSpec{
		Task:            llm.TaskHandwrittenNotes,
		SystemDirective: "You are an expert at converting handwritten notes into clean, structured text with proper headings, summaries, and highlighted definitions.",
		UserPayload:     "Convert this handwritten note into clean, structured text. Add headings, create summaries, and highlight important definitions.",
		ResponseFormat:  llm.FormatText,
		Temperature:     TempOCR,
	}
}

type scheduleGoal struct {
	Title     string             `json:"title"`
	Subject   string             `json:"subject,omitempty"`
	Deadline  string             `json:"deadline,omitempty"`
	Priority  string             `json:"priority,omitempty"`
	Materials []scheduleMaterial `json:"materials"`
}

type scheduleMaterial struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Subject string `json:"subject,omitempty"`
}

// ContentSchedule orders topics from the goals' materials. Each material is
// cut to ScheduleMaterialLimit characters.
func ContentSchedule(goals []models.StudyGoal) llm.PromptSpec {
	payload := make([]scheduleGoal, len(goals))
	for i, g := range goals {
		mats := make([]scheduleMaterial, len(g.Materials))
		for j, m := range g.Materials {
			mats[j] = scheduleMaterial{Title: m.Title, Content: Truncate(m.Content, ScheduleMaterialLimit), Subject: m.Subject}
		}
		payload[i] = scheduleGoal{Title: g.Title, Subject: g.Subject, Deadline: g.Deadline, Priority: g.Priority, Materials: mats}
	}

	return llm.PromptSpec{
		Task:            llm.TaskContentSchedule,
		SystemDirective: "You are an expert study planner. Create a content-based study plan that organizes topics and concepts from the provided materials in a logical learning order. Focus on what content to study, not when to study it. Organize topics by prerequisites and learning progression.",
		UserPayload: `Create a content-based study plan for these goals and their supporting documents. Return JSON with a "plan" array containing objects with: order (number), topic (string), description (string), material (string - which document it comes from), and goal (string - which goal it supports). Organize topics in a logical learning sequence considering prerequisites.

Goals with Materials:
` + indentedJSON(payload),
		ResponseFormat: llm.FormatJSON,
		Temperature:    TempGenerative,
	}
}

func StudySchedule(req models.StudyScheduleRequest) llm.PromptSpec {
	return llm.PromptSpec{
		Task:            llm.TaskStudySchedule,
		SystemDirective: "You are an expert study planner. Create personalized micro-schedules based on deadlines, difficulty, performance, and energy levels.",
		UserPayload: fmt.Sprintf(`Generate a daily study schedule. Subjects: %s, Deadlines: %s, Performance: %s, Energy Level: %d/10. Return JSON with a "schedule" array containing: time, activity, subject, duration_minutes, and priority.`,
			rawOrNull(req.Subjects), rawOrNull(req.Deadlines), rawOrNull(req.Performance), req.EnergyLevel),
		ResponseFormat: llm.FormatJSON,
		Temperature:    TempGenerative,
	}
}

func WeeklyDigest(progress models.Progress, weakAreas, strongAreas []string) llm.PromptSpec {
	return llm.PromptSpec{
		Task:            llm.TaskWeeklyDigest,
		SystemDirective: "You are a motivational study coach. Create weekly progress summaries that are encouraging and actionable.",
		UserPayload: fmt.Sprintf("Create a weekly progress digest. Progress: %s, Weak Areas: %s, Strong Areas: %s. Include achievements, areas for improvement, and a recommended plan for next week.",
			compactJSON(progress), strings.Join(weakAreas, ", "), strings.Join(strongAreas, ", ")),
		ResponseFormat: llm.FormatText,
		Temperature:    TempDigest,
	}
}

func ReverseLearning(problem, subject string) llm.PromptSpec {
	return llm.PromptSpec{
		Task:            llm.TaskReverseLearning,
		SystemDirective: "You are an expert at reverse engineering learning paths. Given a problem, identify all prerequisite concepts and create a study plan.",
		UserPayload: fmt.Sprintf(`Problem: %s
Subject: %s

Identify all prerequisite concepts and create a learning path. Return JSON with a "concepts" array (name, description, order) and a "materials" array (title, content, order).`, problem, subject),
		ResponseFormat: llm.FormatJSON,
		Temperature:    TempReverse,
	}
}

func Citations(content string) llm.PromptSpec {
	return llm.PromptSpec{
		Task:            llm.TaskCitations,
		SystemDirective: "You are an expert at finding academic sources. Identify potential citations, textbooks, research papers, videos, and websites related to the content.",
		UserPayload: `Find relevant citations and sources for this content. Return JSON with a "sources" array containing: title, type (textbook, paper, video, website), url (if applicable), and relevance_score.

Content:
` + content,
		ResponseFormat: llm.FormatJSON,
		Temperature:    TempExtraction,
	}
}

func PaperSummary(paper string) llm.PromptSpec {
	return llm.PromptSpec{
		Task:            llm.TaskPaperSummary,
		SystemDirective: "You are an expert research paper analyzer. Extract key contributions, summarize findings, and generate potential exam questions.",
		UserPayload: `Analyze this research paper. Return JSON with: summary, key_contributions (array), contrasting_viewpoints (array), and potential_questions (array of objects with question, type, answer).

Paper:
` + paper,
		ResponseFormat: llm.FormatJSON,
		Temperature:    TempExtraction,
	}
}

func KeyWords(materials []models.SourceMaterial) llm.PromptSpec {
	return llm.PromptSpec{
		Task:            llm.TaskKeyWords,
		SystemDirective: "You are an expert at extracting key terms and concepts from study materials. Identify important words, concepts, and topics that students should focus on.",
		UserPayload: `Extract key terms, concepts, and important words from these study materials. Return JSON with a "words" array containing objects with: word (string), frequency (number 1-100 based on importance), category (string like "concept", "term", "formula", "definition"), and related_materials (array of material titles where this word appears). Focus on educational terms, concepts, and important vocabulary.

Materials:
` + joinMaterials(materials, true, 0),
		ResponseFormat: llm.FormatJSON,
		Temperature:    TempExtraction,
	}
}

// WordQuestions expects materials already filtered to those mentioning word.
func WordQuestions(word string, materials []models.SourceMaterial) llm.PromptSpec {
	return llm.PromptSpec{
		Task:            llm.TaskWordQuestions,
		SystemDirective: "You are an expert quiz generator. Create educational questions focused on a specific term or concept.",
		UserPayload: fmt.Sprintf(`Generate 5-8 questions about %q based on these materials. Return JSON with a "questions" array containing objects with: question (string), type (multiple_choice, short_answer, or true_false), options (array if multiple_choice), correct_answer (string), and explanation (string).

Materials:
%s`, word, joinMaterials(materials, true, 0)),
		ResponseFormat: llm.FormatJSON,
		Temperature:    TempGenerative,
	}
}

// Chat answers a free-form message with the user's notes as background. Only
// the last ChatHistoryLimit turns are replayed.
func Chat(message string, history []models.ChatTurn, materials []models.SourceMaterial) llm.PromptSpec {
	var sys strings.Builder
	sys.WriteString("You are StudyNook, a friendly study assistant. Help the student understand their material, quiz them when asked, and keep answers focused and encouraging.")
	if len(materials) > 0 {
		sys.WriteString("\n\nThe student's recent study materials (truncated):\n")
		sys.WriteString(joinMaterials(materials, false, ChatMaterialLimit))
	}

	if len(history) > ChatHistoryLimit {
		history = history[len(history)-ChatHistoryLimit:]
	}

	var user strings.Builder
	if len(history) > 0 {
		user.WriteString("Conversation so far:\n")
		for _, turn := range history {
			role := "Student"
			if turn.Role == "assistant" {
				role = "Assistant"
			}
			fmt.Fprintf(&user, "%s: %s\n", role, turn.Content)
		}
		user.WriteString("\n")
	}
	fmt.Fprintf(&user, "Student: %s", message)

	return llm.PromptSpec{
		Task:            llm.TaskChat,
		SystemDirective: sys.String(),
		UserPayload:     user.String(),
		ResponseFormat:  llm.FormatText,
		Temperature:     TempGenerative,
	}
}

// Truncate cuts s to at most limit characters.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// joinMaterials renders materials in order separated by MaterialSeparator.
// Compact form is "title\n\ncontent"; the long form also labels fields.
func joinMaterials(materials []models.SourceMaterial, compact bool, limit int) string {
	parts := make([]string, len(materials))
	for i, m := range materials {
		content := Truncate(m.Content, limit)
		if compact {
			parts[i] = titleOr(m.Title) + "\n\n" + content
			continue
		}
		subject := m.Subject
		if subject == "" {
			subject = defaultMaterialSubject
		}
		parts[i] = fmt.Sprintf("Title: %s\nSubject: %s\nContent: %s", titleOr(m.Title), subject, content)
	}
	return strings.Join(parts, MaterialSeparator)
}

func titleOr(title string) string {
	if strings.TrimSpace(title) == "" {
		return defaultMaterialTitle
	}
	return title
}

func indentedJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(b)
}

func compactJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func rawOrNull(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "null"
	}
	return string(raw)
}

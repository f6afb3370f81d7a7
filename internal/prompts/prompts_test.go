package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studynook-backend/internal/llm"
	"studynook-backend/internal/models"
)

func TestTemperaturesAndFormats(t *testing.T) {
	mats := []models.SourceMaterial{{ID: "a", Title: "Cells", Content: "Cells divide."}}

	tests := []struct {
		name   string
		spec   llm.PromptSpec
		task   llm.TaskType
		temp   float32
		format llm.ResponseFormat
	}{
		{"explanation", Explanation("mitosis", "", models.LevelStandard, mats), llm.TaskExplain, 0.7, llm.FormatText},
		{"question", QuestionExplanation("what is mitosis?", mats), llm.TaskExplainQuestion, 0.7, llm.FormatText},
		{"quiz", Quiz("text", 5), llm.TaskQuiz, 0.7, llm.FormatJSON},
		{"flashcards", Flashcards("text", 10), llm.TaskFlashcards, 0.7, llm.FormatJSON},
		{"graph", KnowledgeGraph([]string{"a"}), llm.TaskKnowledgeGraph, 0.5, llm.FormatJSON},
		{"exam", Exam([]string{"a"}, 60, models.DifficultyMedium), llm.TaskExam, 0.7, llm.FormatJSON},
		{"notes", HandwrittenNotes(), llm.TaskHandwrittenNotes, 0.3, llm.FormatText},
		{"content schedule", ContentSchedule(nil), llm.TaskContentSchedule, 0.7, llm.FormatJSON},
		{"study schedule", StudySchedule(models.StudyScheduleRequest{EnergyLevel: 5}), llm.TaskStudySchedule, 0.7, llm.FormatJSON},
		{"digest", WeeklyDigest(models.Progress{}, nil, nil), llm.TaskWeeklyDigest, 0.8, llm.FormatText},
		{"reverse", ReverseLearning("p", "s"), llm.TaskReverseLearning, 0.6, llm.FormatJSON},
		{"citations", Citations("c"), llm.TaskCitations, 0.5, llm.FormatJSON},
		{"paper", PaperSummary("p"), llm.TaskPaperSummary, 0.5, llm.FormatJSON},
		{"key words", KeyWords(mats), llm.TaskKeyWords, 0.5, llm.FormatJSON},
		{"word questions", WordQuestions("cell", mats), llm.TaskWordQuestions, 0.7, llm.FormatJSON},
		{"chat", Chat("hi", nil, mats), llm.TaskChat, 0.7, llm.FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.task, tt.spec.Task)
			assert.Equal(t, tt.temp, tt.spec.Temperature)
			assert.Equal(t, tt.format, tt.spec.ResponseFormat)
			assert.NotEmpty(t, tt.spec.SystemDirective)
			assert.NotEmpty(t, tt.spec.UserPayload)
		})
	}
}

func TestBuildersArePure(t *testing.T) {
	mats := []models.SourceMaterial{{ID: "a", Title: "T", Content: "C", Subject: "Bio"}}
	assert.Equal(t, Explanation("x", "y", models.LevelGraduate, mats), Explanation("x", "y", models.LevelGraduate, mats))
	assert.Equal(t, Chat("m", nil, mats), Chat("m", nil, mats))
}

func TestExplanation(t *testing.T) {
	t.Run("level directive", func(t *testing.T) {
		spec := Explanation("gravity", "", models.LevelELI5, nil)
		assert.Contains(t, spec.SystemDirective, "5 years old")
	})

	t.Run("unknown level falls back to standard", func(t *testing.T) {
		spec := Explanation("gravity", "", models.ExplanationLevel("wizard"), nil)
		assert.Contains(t, spec.SystemDirective, "standard student level")
	})

	t.Run("materials joined in order", func(t *testing.T) {
		mats := []models.SourceMaterial{
			{Title: "First", Content: "one"},
			{Title: "Second", Content: "two", Subject: "Physics"},
		}
		spec := Explanation("gravity", "ctx", models.LevelStandard, mats)
		assert.Contains(t, spec.UserPayload, "Title: First\nSubject: General\nContent: one"+MaterialSeparator+"Title: Second\nSubject: Physics\nContent: two")
		assert.Less(t, strings.Index(spec.UserPayload, "First"), strings.Index(spec.UserPayload, "Second"))
	})

	t.Run("asks for source line", func(t *testing.T) {
		spec := Explanation("gravity", "", models.LevelStandard, nil)
		assert.Contains(t, spec.UserPayload, "Source: X% from your study materials")
		assert.NotContains(t, spec.UserPayload, "STUDENT'S STUDY MATERIALS")
	})
}

func TestQuestionExplanationListsIDs(t *testing.T) {
	mats := []models.SourceMaterial{{ID: "n1", Title: "Cells", Content: "Mitosis"}, {ID: "n2", Content: "Meiosis"}}
	spec := QuestionExplanation("What is mitosis?", mats)

	assert.Contains(t, spec.UserPayload, "[id: n1]")
	assert.Contains(t, spec.UserPayload, "[id: n2]\nTitle: Untitled")
	assert.Contains(t, spec.SystemDirective, "NOTES_USED:")
}

func TestContentScheduleTruncatesMaterials(t *testing.T) {
	long := strings.Repeat("é", 800)
	spec := ContentSchedule([]models.StudyGoal{{
		Title:     "Pass biology",
		Materials: []models.SourceMaterial{{Title: "Notes", Content: long}},
	}})

	assert.Contains(t, spec.UserPayload, strings.Repeat("é", ScheduleMaterialLimit))
	assert.NotContains(t, spec.UserPayload, strings.Repeat("é", ScheduleMaterialLimit+1))
	assert.Contains(t, spec.UserPayload, "\n  {\n    \"title\": \"Pass biology\"")
}

func TestStudySchedulePassesRawInputs(t *testing.T) {
	spec := StudySchedule(models.StudyScheduleRequest{
		Subjects:    []byte(`["math"]`),
		EnergyLevel: 7,
	})
	assert.Contains(t, spec.UserPayload, `Subjects: ["math"]`)
	assert.Contains(t, spec.UserPayload, "Deadlines: null")
	assert.Contains(t, spec.UserPayload, "Energy Level: 7/10")
}

func TestChat(t *testing.T) {
	history := make([]models.ChatTurn, 0, 14)
	for i := 0; i < 14; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		history = append(history, models.ChatTurn{Role: role, Content: "turn-" + string(rune('a'+i))})
	}

	spec := Chat("next?", history, []models.SourceMaterial{{Title: "Long", Content: strings.Repeat("x", 900)}})

	assert.NotContains(t, spec.UserPayload, "turn-a")
	assert.NotContains(t, spec.UserPayload, "turn-d")
	assert.Contains(t, spec.UserPayload, "turn-e")
	assert.Contains(t, spec.UserPayload, "Assistant: turn-n")
	assert.True(t, strings.HasSuffix(spec.UserPayload, "Student: next?"))
	assert.Contains(t, spec.SystemDirective, strings.Repeat("x", ChatMaterialLimit))
	assert.NotContains(t, spec.SystemDirective, strings.Repeat("x", ChatMaterialLimit+1))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "abc", Truncate("abc", 0))
	require.Equal(t, "日本", Truncate("日本語", 2))
}

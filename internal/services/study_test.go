package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studynook-backend/internal/llm"
	"studynook-backend/internal/models"
)

// fakeLLM replays scripted responses and records what it was sent.
type fakeLLM struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     []llm.PromptSpec
	images    []llm.Image
}

func (f *fakeLLM) next(spec llm.PromptSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, spec)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", &llm.InvocationError{Task: spec.Task, Err: llm.ErrEmptyResponse}
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func (f *fakeLLM) Invoke(_ context.Context, spec llm.PromptSpec) (string, error) {
	return f.next(spec)
}

func (f *fakeLLM) InvokeWithImage(_ context.Context, spec llm.PromptSpec, img llm.Image) (string, error) {
	f.mu.Lock()
	f.images = append(f.images, img)
	f.mu.Unlock()
	return f.next(spec)
}

func respond(responses ...string) *fakeLLM {
	return &fakeLLM{responses: responses}
}

func failing(err error) *fakeLLM {
	return &fakeLLM{err: err}
}

var backendDown = &llm.InvocationError{Task: llm.TaskQuiz, Err: errors.New("503 service unavailable")}

func TestExplain(t *testing.T) {
	ctx := context.Background()
	mats := []models.SourceMaterial{{ID: "m1", Title: "Bio", Content: "Mitosis is cell division."}}

	t.Run("marker line is extracted", func(t *testing.T) {
		svc := NewStudyService(respond("Mitosis splits a cell.\n\nSource: 40% from your study materials, 60% from online/general knowledge"), nil)
		got := svc.Explain(ctx, "mitosis", "", models.LevelStandard, mats)
		assert.Equal(t, "Mitosis splits a cell.", got.Explanation)
		assert.Equal(t, "40% from your study materials, 60% from online/general knowledge", got.SourceBreakdown)
	})

	t.Run("missing marker falls back to length bucket", func(t *testing.T) {
		svc := NewStudyService(respond("Mitosis splits a cell."), nil)
		got := svc.Explain(ctx, "mitosis", "", models.LevelStandard, mats)
		assert.Equal(t, "15% from your study materials, 85% from online/general knowledge", got.SourceBreakdown)
	})

	t.Run("no materials", func(t *testing.T) {
		svc := NewStudyService(respond("Gravity pulls."), nil)
		got := svc.Explain(ctx, "gravity", "", models.LevelELI5, nil)
		assert.Equal(t, "100% from online/general knowledge (no study materials provided)", got.SourceBreakdown)
	})

	t.Run("unconfigured", func(t *testing.T) {
		svc := NewStudyService(llm.NewUnconfiguredClient(), nil)
		got := svc.Explain(ctx, "gravity", "", models.LevelStandard, mats)
		assert.Equal(t, ExplanationNotConfigured, got.Explanation)
		assert.Empty(t, got.SourceBreakdown)
		assert.False(t, svc.Configured())
	})

	t.Run("backend failure", func(t *testing.T) {
		svc := NewStudyService(failing(backendDown), nil)
		got := svc.Explain(ctx, "gravity", "", models.LevelStandard, mats)
		assert.Equal(t, ExplanationFailed, got.Explanation)
		assert.True(t, svc.Configured())
	})
}

func TestExplainQuestion(t *testing.T) {
	ctx := context.Background()
	mats := []models.SourceMaterial{
		{ID: "m1", Title: "Cells", Content: "Mitosis is cell division."},
		{ID: "m2", Title: "Plants", Content: "Photosynthesis makes sugar."},
	}

	t.Run("heuristic picks overlapping note", func(t *testing.T) {
		svc := NewStudyService(respond("Mitosis is how one cell becomes two."), nil)
		got := svc.ExplainQuestion(ctx, "What is mitosis?", mats[:1])
		assert.Equal(t, []string{"m1"}, got.UsedNoteIDs)
		assert.Equal(t, "Mitosis is how one cell becomes two.", got.Explanation)
	})

	t.Run("hallucinated ids are dropped", func(t *testing.T) {
		svc := NewStudyService(respond("Answer.\nNOTES_USED: m2, m9, m1"), nil)
		got := svc.ExplainQuestion(ctx, "What is mitosis?", mats)
		assert.Equal(t, []string{"m2", "m1"}, got.UsedNoteIDs)
		assert.Equal(t, "Answer.", got.Explanation)
	})

	t.Run("failure gives empty ids", func(t *testing.T) {
		svc := NewStudyService(failing(backendDown), nil)
		got := svc.ExplainQuestion(ctx, "What is mitosis?", mats)
		assert.Equal(t, ExplanationFailed, got.Explanation)
		assert.NotNil(t, got.UsedNoteIDs)
		assert.Empty(t, got.UsedNoteIDs)
	})
}

func TestGenerateExam_UnconfiguredWithoutMaterials(t *testing.T) {
	svc := NewStudyService(llm.NewUnconfiguredClient(), nil)

	exam := svc.GenerateExam(context.Background(), []string{}, 0, "")

	assert.NotNil(t, exam.Questions)
	assert.Empty(t, exam.Questions)
	b, err := json.Marshal(exam)
	require.NoError(t, err)
	assert.JSONEq(t, `{"questions":[]}`, string(b))
}

func TestGenerateExam_Success(t *testing.T) {
	fake := respond(`{"questions":[{"question":"Define mitosis","type":"short_answer","correct_answer":"Cell division","points":5},{"question":""}],"predicted_difficulty":"hard"}`)
	svc := NewStudyService(fake, nil)

	exam := svc.GenerateExam(context.Background(), []string{"notes"}, 0, models.DifficultyEasy)

	require.Len(t, exam.Questions, 1)
	assert.Equal(t, models.FlexString("Cell division"), exam.Questions[0].CorrectAnswer)
	assert.Equal(t, models.DifficultyEasy, exam.PredictedDifficulty, "the requested difficulty is echoed")
	assert.Equal(t, DefaultExamMinutes, exam.DurationMinutes)
	require.Len(t, fake.calls, 1)
	assert.Contains(t, fake.calls[0].UserPayload, "60-minute easy exam")
}

func TestGenerateExam_EchoesRequestedSettings(t *testing.T) {
	fake := respond(`{"questions":[{"question":"Q1","type":"essay"}],"predicted_difficulty":"very hard","duration_minutes":5}`)
	svc := NewStudyService(fake, nil)

	exam := svc.GenerateExam(context.Background(), []string{"notes"}, 90, models.DifficultyHard)

	require.Len(t, exam.Questions, 1)
	assert.Equal(t, models.DifficultyHard, exam.PredictedDifficulty)
	assert.Equal(t, 90, exam.DurationMinutes)
}

func TestGenerateExam_LooseNumbers(t *testing.T) {
	fake := respond(`{"questions":[
		{"question":"Q1","type":"short_answer","correct_answer":"A","points":"5"},
		{"question":"Q2","type":"essay","points":2.5},
		{"question":"Q3","type":"essay","points":"lots"}
	]}`)
	svc := NewStudyService(fake, nil)

	exam := svc.GenerateExam(context.Background(), []string{"notes"}, 60, models.DifficultyMedium)

	require.Len(t, exam.Questions, 3)
	assert.Equal(t, models.FlexInt(5), exam.Questions[0].Points)
	assert.Equal(t, models.FlexInt(3), exam.Questions[1].Points)
	assert.Equal(t, models.FlexInt(0), exam.Questions[2].Points)
}

func TestGenerateFlashcards(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid JSON gives empty list", func(t *testing.T) {
		svc := NewStudyService(respond("Sorry, here are some flashcards: none"), nil)
		cards := svc.GenerateFlashcards(ctx, "content", 3)
		assert.NotNil(t, cards)
		assert.Empty(t, cards)
		b, _ := json.Marshal(cards)
		assert.Equal(t, "[]", string(b))
	})

	t.Run("coerces fields and drops incomplete cards", func(t *testing.T) {
		svc := NewStudyService(respond("```json\n"+`{"flashcards":[
			{"question":"Q1","answer":"A1","difficulty":3,"key_concepts":"a, b"},
			{"question":"Q2","answer":""},
			{"question":"Q3","answer":"A3"}
		]}`+"\n```"), nil)
		cards := svc.GenerateFlashcards(ctx, "content", 0)
		require.Len(t, cards, 2)
		assert.Equal(t, models.DifficultyHard, cards[0].Difficulty)
		assert.Equal(t, models.StringList{"a", "b"}, cards[0].KeyConcepts)
		assert.Equal(t, models.DifficultyMedium, cards[1].Difficulty)
		assert.NotNil(t, cards[1].KeyConcepts)
	})

	t.Run("default count", func(t *testing.T) {
		fake := respond(`{"flashcards":[]}`)
		NewStudyService(fake, nil).GenerateFlashcards(ctx, "content", 0)
		require.Len(t, fake.calls, 1)
		assert.Contains(t, fake.calls[0].UserPayload, "Generate 10 flashcards")
	})
}

func TestFindCitations_PassThrough(t *testing.T) {
	svc := NewStudyService(respond(`{"sources":[{"title":"Intro to X","type":"textbook","relevance_score":90}]}`), nil)

	sources := svc.FindCitations(context.Background(), "X")

	assert.Equal(t, []models.Source{{Title: "Intro to X", Type: "textbook", RelevanceScore: 90}}, sources)
}

func TestFindCitations_LooseRelevanceScores(t *testing.T) {
	svc := NewStudyService(respond(`[
		{"title":"Intro to X","type":"textbook","relevance_score":"90"},
		{"title":"Y","type":"paper","relevance_score":0.9},
		{"title":"Z","type":"website","relevance_score":"85%"}
	]`), nil)

	sources := svc.FindCitations(context.Background(), "X")

	assert.Equal(t, []models.Source{
		{Title: "Intro to X", Type: "textbook", RelevanceScore: 90},
		{Title: "Y", Type: "paper", RelevanceScore: 0.9},
		{Title: "Z", Type: "website", RelevanceScore: 85},
	}, sources)
}

func TestGenerateContentSchedule_StringOrders(t *testing.T) {
	svc := NewStudyService(respond(`{"plan":[{"order":"2","topic":"B"},{"order":1.2,"topic":"A"}]}`), nil)

	plan := svc.GenerateContentSchedule(context.Background(), nil)

	require.Len(t, plan, 2)
	assert.Equal(t, "A", plan[0].Topic)
	assert.Equal(t, models.FlexInt(1), plan[0].Order)
	assert.Equal(t, models.FlexInt(2), plan[1].Order)
}

func TestGenerateQuiz(t *testing.T) {
	fake := respond(`{"questions":[{"question":"2+2?","options":["3","4"],"correct_answer":4},{"question":"Sky colour?","correct_answer":"blue"}]}`)
	svc := NewStudyService(fake, nil)

	qs := svc.GenerateQuiz(context.Background(), "math", 0)

	require.Len(t, qs, 2)
	assert.Equal(t, "multiple_choice", qs[0].Type)
	assert.Equal(t, models.FlexString("4"), qs[0].CorrectAnswer)
	assert.Equal(t, "short_answer", qs[1].Type)
	assert.Contains(t, fake.calls[0].UserPayload, "Generate 5 quiz questions")
	assert.True(t, fake.calls[0].WantsJSON())
}

func TestBuildKnowledgeGraph(t *testing.T) {
	ctx := context.Background()

	t.Run("validates nodes and links", func(t *testing.T) {
		svc := NewStudyService(respond(`{"nodes":[
			{"id":"a","label":"Cell","type":"concept","mastery_level":140},
			{"id":"b","label":"","mastery_level":-5},
			{"id":"a","label":"dup"},
			{"id":3,"label":"Three","mastery_level":55.6}
		],"links":[
			{"source":"a","target":"b","relationship_type":"part_of"},
			{"source":"a","target":"zzz"},
			{"source":3,"target":"a"}
		]}`), nil)

		g := svc.BuildKnowledgeGraph(ctx, []string{"cells"})

		require.Len(t, g.Nodes, 3)
		assert.Equal(t, 100, g.Nodes[0].MasteryLevel)
		assert.Equal(t, "b", g.Nodes[1].Label)
		assert.Equal(t, 0, g.Nodes[1].MasteryLevel)
		assert.Equal(t, "3", g.Nodes[2].ID)
		assert.Equal(t, 56, g.Nodes[2].MasteryLevel)
		assert.Equal(t, []models.GraphLink{
			{Source: "a", Target: "b", RelationshipType: "part_of"},
			{Source: "3", Target: "a"},
		}, g.Links)
	})

	t.Run("garbage gives empty graph", func(t *testing.T) {
		g := NewStudyService(respond("not json"), nil).BuildKnowledgeGraph(ctx, nil)
		b, _ := json.Marshal(g)
		assert.JSONEq(t, `{"nodes":[],"links":[]}`, string(b))
	})
}

func TestGenerateContentSchedule_OrdersPlan(t *testing.T) {
	svc := NewStudyService(respond(`{"plan":[
		{"order":3,"topic":"C"},
		{"order":1,"topic":"A"},
		{"order":0,"topic":"B"},
		{"order":2,"topic":""}
	]}`), nil)

	plan := svc.GenerateContentSchedule(context.Background(), []models.StudyGoal{{Title: "Exam"}})

	topics := make([]string, len(plan))
	for i, p := range plan {
		topics[i] = p.Topic
	}
	assert.Equal(t, []string{"A", "C", "B"}, topics)
	assert.Equal(t, models.FlexInt(3), plan[2].Order)
}

func TestGenerateStudySchedule_ClampsEnergy(t *testing.T) {
	fake := respond(`{"schedule":[{"time":"09:00","activity":"Review","subject":"Math","duration_minutes":30,"priority":"high"}]}`)
	svc := NewStudyService(fake, nil)

	got := svc.GenerateStudySchedule(context.Background(), models.StudyScheduleRequest{EnergyLevel: 42})

	require.Len(t, got.Schedule, 1)
	assert.Equal(t, models.FlexInt(30), got.Schedule[0].DurationMinutes)
	assert.Contains(t, fake.calls[0].UserPayload, "Energy Level: 10/10")

	empty := NewStudyService(llm.NewUnconfiguredClient(), nil).GenerateStudySchedule(context.Background(), models.StudyScheduleRequest{})
	b, _ := json.Marshal(empty)
	assert.JSONEq(t, `{"schedule":[]}`, string(b))
}

func TestReverseLearning(t *testing.T) {
	svc := NewStudyService(respond(`{"concepts":[{"name":"Limits","order":2},{"name":"Functions","order":1},{"name":""}],"materials":[{"title":"Khan","content":"watch"}]}`), nil)

	path := svc.ReverseLearning(context.Background(), "derivative of x^2", "calculus")

	require.Len(t, path.Concepts, 2)
	assert.Equal(t, "Functions", path.Concepts[0].Name)
	require.Len(t, path.Materials, 1)
	assert.Equal(t, models.FlexInt(1), path.Materials[0].Order)
}

func TestSummarizePaper(t *testing.T) {
	svc := NewStudyService(respond(`{"summary":"A study.","key_contributions":"one, two","potential_questions":[{"question":"Why?","type":"essay","answer":true}]}`), nil)

	got := svc.SummarizePaper(context.Background(), "paper")

	assert.Equal(t, "A study.", got.Summary)
	assert.Equal(t, models.StringList{"one", "two"}, got.KeyContributions)
	assert.NotNil(t, got.ContrastingViewpoints)
	require.Len(t, got.PotentialQuestions, 1)
	assert.Equal(t, models.FlexString("true"), got.PotentialQuestions[0].Answer)

	failed := NewStudyService(failing(backendDown), nil).SummarizePaper(context.Background(), "paper")
	b, _ := json.Marshal(failed)
	assert.JSONEq(t, `{"summary":"","key_contributions":[],"contrasting_viewpoints":[],"potential_questions":[]}`, string(b))
}

func TestExtractKeyWords(t *testing.T) {
	svc := NewStudyService(respond(`{"words":[{"word":" ATP ","frequency":250,"category":"term"},{"word":"enzyme","frequency":0.4,"related_materials":["Bio"]},{"frequency":10}]}`), nil)

	words := svc.ExtractKeyWords(context.Background(), []models.SourceMaterial{{Title: "Bio", Content: "ATP"}})

	require.Len(t, words, 2)
	assert.Equal(t, "ATP", words[0].Word)
	assert.Equal(t, 100, words[0].Frequency)
	assert.NotNil(t, words[0].RelatedMaterials)
	assert.Equal(t, 1, words[1].Frequency)
}

func TestQuestionsForWord(t *testing.T) {
	mats := []models.SourceMaterial{
		{Title: "Enzymes", Content: "Catalysts"},
		{Title: "Cells", Content: "The ENZYME binds"},
		{Title: "Rocks", Content: "Granite"},
	}

	t.Run("no matching material makes no call", func(t *testing.T) {
		fake := respond(`{"questions":[{"question":"x"}]}`)
		qs := NewStudyService(fake, nil).QuestionsForWord(context.Background(), "photon", mats)
		assert.NotNil(t, qs)
		assert.Empty(t, qs)
		assert.Empty(t, fake.calls)
	})

	t.Run("only matching materials are sent", func(t *testing.T) {
		fake := respond(`[{"question":"What is an enzyme?"}]`)
		qs := NewStudyService(fake, nil).QuestionsForWord(context.Background(), "enzyme", mats)
		require.Len(t, qs, 1)
		require.Len(t, fake.calls, 1)
		assert.Contains(t, fake.calls[0].UserPayload, "Enzymes")
		assert.Contains(t, fake.calls[0].UserPayload, "The ENZYME binds")
		assert.NotContains(t, fake.calls[0].UserPayload, "Granite")
	})
}

func TestCleanHandwrittenNotes(t *testing.T) {
	ctx := context.Background()
	img := llm.Image{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}

	fake := respond("# Notes\nCells divide.")
	got := NewStudyService(fake, nil).CleanHandwrittenNotes(ctx, img)
	assert.Equal(t, "# Notes\n\nCells divide.", got)
	require.Len(t, fake.images, 1)
	assert.Equal(t, llm.TaskHandwrittenNotes, fake.calls[0].Task)

	assert.Equal(t, BackendNotConfigured, NewStudyService(nil, nil).CleanHandwrittenNotes(ctx, img))
	assert.Equal(t, NotesFailed, NewStudyService(failing(backendDown), nil).CleanHandwrittenNotes(ctx, img))
}

func TestChat(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "Hi there.", NewStudyService(respond("Hi there.  \n\n\n"), nil).Chat(ctx, "hi", nil, nil))
	assert.Equal(t, ChatFailed, NewStudyService(failing(backendDown), nil).Chat(ctx, "hi", nil, nil))
}

func TestTasksNeverPanicOnFailure(t *testing.T) {
	ctx := context.Background()
	for _, client := range []llm.Client{llm.NewUnconfiguredClient(), failing(backendDown), respond("{{{{")} {
		svc := NewStudyService(client, nil)
		assert.NotPanics(t, func() {
			assert.NotNil(t, svc.GenerateQuiz(ctx, "c", 1))
			assert.NotNil(t, svc.GenerateFlashcards(ctx, "c", 1))
			assert.NotNil(t, svc.BuildKnowledgeGraph(ctx, nil).Nodes)
			assert.NotNil(t, svc.GenerateExam(ctx, nil, 0, "").Questions)
			assert.NotNil(t, svc.GenerateContentSchedule(ctx, nil))
			assert.NotNil(t, svc.GenerateStudySchedule(ctx, models.StudyScheduleRequest{}).Schedule)
			assert.NotNil(t, svc.ReverseLearning(ctx, "p", "s").Concepts)
			assert.NotNil(t, svc.FindCitations(ctx, "c"))
			assert.NotNil(t, svc.ExtractKeyWords(ctx, nil))
			assert.NotEmpty(t, svc.WeeklyDigest(ctx, models.Progress{}, nil, nil))
		})
	}
}

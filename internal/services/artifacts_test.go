package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studynook-backend/internal/llm"
	"studynook-backend/internal/models"
)

func TestArtifactGenerator_ValidateInput(t *testing.T) {
	gen := NewArtifactGenerator(NewStudyService(nil, nil))

	tests := []struct {
		name   string
		kind   models.ArtifactKind
		input  string
		fields []string
	}{
		{"unknown kind", "poem", `{}`, []string{"kind"}},
		{"quiz ok", models.ArtifactQuiz, `{"content":"cells","count":3}`, nil},
		{"quiz missing content", models.ArtifactQuiz, `{"count":3}`, []string{"input.content"}},
		{"exam needs materials", models.ArtifactExam, `{"materials":[]}`, []string{"input.materials"}},
		{"schedule ok", models.ArtifactSchedule, `{"goals":[{"title":"Pass"}]}`, nil},
		{"paper missing", models.ArtifactPaperSummary, ``, []string{"input.paperContent"}},
		{"reverse both missing", models.ArtifactReverseLearning, `{}`, []string{"input.problem", "input.subject"}},
		{"key words ok", models.ArtifactKeyWords, `{"materials":[{"title":"a","content":"b"}]}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gen.ValidateInput(tt.kind, json.RawMessage(tt.input))
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			for _, f := range tt.fields {
				assert.Contains(t, verr.Fields, f)
			}
		})
	}
}

func TestArtifactGenerator_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("stores task output", func(t *testing.T) {
		fake := respond(`{"sources":[{"title":"Intro to X","type":"textbook","relevance_score":90}]}`)
		gen := NewArtifactGenerator(NewStudyService(fake, nil))

		payload, err := gen.Generate(ctx, models.ArtifactCitations, json.RawMessage(`{"content":"X"}`))

		require.NoError(t, err)
		assert.JSONEq(t, `{"sources":[{"title":"Intro to X","type":"textbook","relevance_score":90}]}`, string(payload))
	})

	t.Run("flashcard count is forwarded", func(t *testing.T) {
		fake := respond(`{"flashcards":[{"question":"Q","answer":"A"}]}`)
		gen := NewArtifactGenerator(NewStudyService(fake, nil))

		_, err := gen.Generate(ctx, models.ArtifactFlashcards, json.RawMessage(`{"content":"X","count":4}`))

		require.NoError(t, err)
		assert.Contains(t, fake.calls[0].UserPayload, "Generate 4 flashcards")
	})

	t.Run("degraded result is an error", func(t *testing.T) {
		gen := NewArtifactGenerator(NewStudyService(llm.NewUnconfiguredClient(), nil))

		payload, err := gen.Generate(ctx, models.ArtifactKnowledgeGraph, json.RawMessage(`{"materials":["cells"]}`))

		assert.Nil(t, payload)
		assert.True(t, errors.Is(err, ErrEmptyArtifact))
	})

	t.Run("invalid input makes no call", func(t *testing.T) {
		fake := respond(`{}`)
		gen := NewArtifactGenerator(NewStudyService(fake, nil))

		_, err := gen.Generate(ctx, models.ArtifactQuiz, json.RawMessage(`{}`))

		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Empty(t, fake.calls)
	})
}

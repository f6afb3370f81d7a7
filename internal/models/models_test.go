package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexString(t *testing.T) {
	tests := []struct {
		raw  string
		want FlexString
	}{
		{`"B"`, "B"},
		{`2`, "2"},
		{`true`, "true"},
		{`["a","b"]`, "a, b"},
		{`null`, ""},
	}
	for _, tc := range tests {
		var got FlexString
		require.NoError(t, json.Unmarshal([]byte(tc.raw), &got), tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}

	var bad FlexString
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &bad))
}

func TestFlexNumbers(t *testing.T) {
	tests := []struct {
		raw   string
		wantF FlexFloat
		wantI FlexInt
	}{
		{`5`, 5, 5},
		{`2.5`, 2.5, 3},
		{`"90"`, 90, 90},
		{`" 85% "`, 85, 85},
		{`"0.9"`, 0.9, 1},
		{`"lots"`, 0, 0},
		{`null`, 0, 0},
		{`[1]`, 0, 0},
	}
	for _, tc := range tests {
		var f FlexFloat
		require.NoError(t, json.Unmarshal([]byte(tc.raw), &f), tc.raw)
		assert.Equal(t, tc.wantF, f, tc.raw)

		var i FlexInt
		require.NoError(t, json.Unmarshal([]byte(tc.raw), &i), tc.raw)
		assert.Equal(t, tc.wantI, i, tc.raw)
	}

	var q Question
	require.NoError(t, json.Unmarshal([]byte(`{"question":"Q","points":"4"}`), &q))
	assert.Equal(t, FlexInt(4), q.Points)
}

func TestStringList(t *testing.T) {
	var l StringList
	require.NoError(t, json.Unmarshal([]byte(`"mitosis, meiosis ,"`), &l))
	assert.Equal(t, StringList{"mitosis", "meiosis"}, l)

	require.NoError(t, json.Unmarshal([]byte(`["a"]`), &l))
	assert.Equal(t, StringList{"a"}, l)

	assert.Error(t, json.Unmarshal([]byte(`42`), &l))
}

func TestDifficulty(t *testing.T) {
	tests := map[string]Difficulty{
		`"Hard"`:    DifficultyHard,
		`"easy"`:    DifficultyEasy,
		`"extreme"`: DifficultyMedium,
		`1`:         DifficultyEasy,
		`2`:         DifficultyMedium,
		`3`:         DifficultyHard,
		`{}`:        DifficultyMedium,
	}
	for raw, want := range tests {
		var d Difficulty
		require.NoError(t, json.Unmarshal([]byte(raw), &d), raw)
		assert.Equal(t, want, d, raw)
	}
	assert.Equal(t, DifficultyMedium, ParseDifficulty(""))
}

func TestParseExplanationLevel(t *testing.T) {
	assert.Equal(t, LevelELI5, ParseExplanationLevel("eli5"))
	assert.Equal(t, LevelStandard, ParseExplanationLevel("wizard"))
}

func TestArtifactKindValid(t *testing.T) {
	assert.True(t, ArtifactExam.Valid())
	assert.False(t, ArtifactKind("summary").Valid())
}

func TestStudyMaterialAsSource(t *testing.T) {
	subject := "Biology"
	m := &StudyMaterial{Title: "Cells", Content: "Mitosis is cell division.", Subject: &subject}
	src := m.AsSource()
	assert.Equal(t, m.ID.String(), src.ID)
	assert.Equal(t, "Biology", src.Subject)
}

package models

type ExplanationLevel string

const (
	LevelELI5      ExplanationLevel = "eli5"
	LevelBeginner  ExplanationLevel = "beginner"
	LevelStandard  ExplanationLevel = "standard"
	LevelGraduate  ExplanationLevel = "graduate"
	LevelProfessor ExplanationLevel = "professor"
)

// ParseExplanationLevel returns standard for anything it does not recognise.
func ParseExplanationLevel(s string) ExplanationLevel {
	switch l := ExplanationLevel(s); l {
	case LevelELI5, LevelBeginner, LevelStandard, LevelGraduate, LevelProfessor:
		return l
	default:
		return LevelStandard
	}
}

// Explanation is the context-mode explanation result.
type Explanation struct {
	Explanation     string `json:"explanation"`
	SourceBreakdown string `json:"sourceBreakdown"`
}

// QuestionExplanation is the question-mode explanation result.
type QuestionExplanation struct {
	Explanation string   `json:"explanation"`
	UsedNoteIDs []string `json:"usedNoteIds"`
}

type PotentialQuestion struct {
	Question string     `json:"question"`
	Type     string     `json:"type"`
	Answer   FlexString `json:"answer"`
}

type PaperSummary struct {
	Summary               string              `json:"summary"`
	KeyContributions      StringList          `json:"key_contributions"`
	ContrastingViewpoints StringList          `json:"contrasting_viewpoints"`
	PotentialQuestions    []PotentialQuestion `json:"potential_questions"`
}

// Source is a citation suggestion. Field values are passed through as the
// model produced them.
type Source struct {
	Title          string    `json:"title"`
	Type           string    `json:"type"`
	URL            string    `json:"url,omitempty"`
	RelevanceScore FlexFloat `json:"relevance_score"`
}

package models

type Flashcard struct {
	Question    string     `json:"question"`
	Answer      string     `json:"answer"`
	Difficulty  Difficulty `json:"difficulty"`
	KeyConcepts StringList `json:"key_concepts"`
}

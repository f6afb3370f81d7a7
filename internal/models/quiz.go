package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty maps free input onto a Difficulty, defaulting to medium.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case DifficultyEasy:
		return DifficultyEasy
	case DifficultyHard:
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// UnmarshalJSON accepts difficulty names in any case as well as the 1-3
// numeric scale some models emit. Unknown values become medium.
func (d *Difficulty) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = ParseDifficulty(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		switch {
		case n <= 1:
			*d = DifficultyEasy
		case n >= 3:
			*d = DifficultyHard
		default:
			*d = DifficultyMedium
		}
		return nil
	}
	*d = DifficultyMedium
	return nil
}

// Question is shared by quizzes, exams and word questions.
type Question struct {
	Question      string     `json:"question"`
	Type          string     `json:"type"` // "multiple_choice" | "short_answer" | "true_false" | "essay" | "code"
	Options       []string   `json:"options,omitempty"`
	CorrectAnswer FlexString `json:"correct_answer"`
	Explanation   string     `json:"explanation,omitempty"`
	Points        FlexInt    `json:"points,omitempty"`
}

// Exam is the result of exam generation. On failure only Questions is set.
type Exam struct {
	Questions           []Question `json:"questions"`
	PredictedDifficulty Difficulty `json:"predicted_difficulty,omitempty"`
	DurationMinutes     int        `json:"duration_minutes,omitempty"`
}

// FlexString accepts strings, numbers, booleans and string arrays from model
// output and stores them as a single string.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = FlexString(strconv.FormatBool(b))
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = FlexString(strings.Join(list, ", "))
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	return fmt.Errorf("cannot use %s as answer text", data)
}

// FlexFloat accepts a JSON number or a numeric string. Anything else
// decodes to zero instead of failing the surrounding object.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	*f = FlexFloat(parseLooseNumber(data))
	return nil
}

// FlexInt is FlexFloat rounded to the nearest integer.
type FlexInt int

func (i *FlexInt) UnmarshalJSON(data []byte) error {
	*i = FlexInt(math.Round(parseLooseNumber(data)))
	return nil
}

func parseLooseNumber(data []byte) float64 {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return 0
	}
	n, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

// StringList accepts either a JSON array of strings or a single
// comma-separated string.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		if string(data) == "null" {
			*l = nil
			return nil
		}
		return fmt.Errorf("cannot use %s as string list", data)
	}
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*l = out
	return nil
}

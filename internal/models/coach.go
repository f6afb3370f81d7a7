package models

// ConceptRef names a concept with its mastery, as tracked by the client.
type ConceptRef struct {
	Name         string `json:"name"`
	MasteryLevel int    `json:"mastery_level,omitempty"`
}

type ExamResult struct {
	Subject string  `json:"subject,omitempty"`
	Score   float64 `json:"score"`
}

// CoachRequest carries the learner's recent activity. RecentExams is newest first.
type CoachRequest struct {
	Streak         int           `json:"streak"`
	RecentSessions []interface{} `json:"recentSessions"`
	RecentExams    []ExamResult  `json:"recentExams"`
	WeakConcepts   []ConceptRef  `json:"weakConcepts"`
	StrongConcepts []ConceptRef  `json:"strongConcepts"`
}

// Progress is the summary forwarded to the weekly digest.
type Progress struct {
	Streak         int      `json:"streak"`
	RecentSessions int      `json:"recentSessions"`
	RecentExams    int      `json:"recentExams"`
	WeakAreas      []string `json:"weakAreas"`
	StrongAreas    []string `json:"strongAreas"`
}

type CoachMessage struct {
	Type      string `json:"type"` // "motivation" | "feedback" | "suggestion"
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

package models

import "encoding/json"

// StudyGoal is one goal of a content schedule request, with the materials
// that support it.
type StudyGoal struct {
	Title     string           `json:"title"`
	Subject   string           `json:"subject,omitempty"`
	Deadline  string           `json:"deadline,omitempty"`
	Priority  string           `json:"priority,omitempty"`
	Materials []SourceMaterial `json:"materials"`
}

// PlanItem is one ordered step of a content schedule.
type PlanItem struct {
	Order       FlexInt `json:"order"`
	Topic       string  `json:"topic"`
	Description string  `json:"description"`
	Material    string  `json:"material"`
	Goal        string  `json:"goal"`
}

// StudyScheduleRequest drives the daily micro-schedule. Subjects, deadlines
// and performance are free-form and forwarded to the model as JSON.
type StudyScheduleRequest struct {
	Subjects    json.RawMessage `json:"subjects"`
	Deadlines   json.RawMessage `json:"deadlines"`
	Performance json.RawMessage `json:"performance"`
	EnergyLevel int             `json:"energyLevel"`
}

type ScheduleEntry struct {
	Time            string  `json:"time"`
	Activity        string  `json:"activity"`
	Subject         string  `json:"subject"`
	DurationMinutes FlexInt `json:"duration_minutes"`
	Priority        string  `json:"priority"`
}

type StudySchedule struct {
	Schedule []ScheduleEntry `json:"schedule"`
}

package services

import (
	"context"
	"sort"
	"strings"

	"studynook-backend/internal/models"
	"studynook-backend/internal/prompts"
)

// GenerateContentSchedule orders the topics found in the goals' materials
// into a learning sequence. Items without a topic are dropped, missing
// orders take the item's position and the result is sorted by order.
func (s *StudyService) GenerateContentSchedule(ctx context.Context, goals []models.StudyGoal) []models.PlanItem {
	plan := invokeList(ctx, s, prompts.ContentSchedule(goals), "plan", func(p *models.PlanItem) bool {
		return strings.TrimSpace(p.Topic) != ""
	})
	for i := range plan {
		if plan[i].Order <= 0 {
			plan[i].Order = models.FlexInt(i + 1)
		}
	}
	sort.SliceStable(plan, func(i, j int) bool { return plan[i].Order < plan[j].Order })
	return plan
}

// GenerateStudySchedule builds a time-slotted day plan. Energy is clamped to
// 1-10.
func (s *StudyService) GenerateStudySchedule(ctx context.Context, req models.StudyScheduleRequest) models.StudySchedule {
	if req.EnergyLevel == 0 {
		req.EnergyLevel = DefaultEnergyLevel
	}
	req.EnergyLevel = clamp(req.EnergyLevel, 1, 10)

	entries := invokeList(ctx, s, prompts.StudySchedule(req), "schedule", func(e *models.ScheduleEntry) bool {
		return strings.TrimSpace(e.Activity) != "" || strings.TrimSpace(e.Subject) != ""
	})
	for i := range entries {
		if entries[i].DurationMinutes < 0 {
			entries[i].DurationMinutes = 0
		}
	}
	return models.StudySchedule{Schedule: entries}
}

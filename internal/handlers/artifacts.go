package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"studynook-backend/internal/middleware"
	"studynook-backend/internal/models"
	"studynook-backend/internal/repository"
	"studynook-backend/internal/worker"
)

type artifactRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Artifact, error)
	ListByUser(ctx context.Context, userID uuid.UUID, kind models.ArtifactKind) ([]*models.Artifact, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type jobRepository interface {
	Create(ctx context.Context, j *models.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type inputValidator interface {
	ValidateInput(kind models.ArtifactKind, input json.RawMessage) error
}

// JobQueue pushes serialized jobs onto a named list.
type JobQueue interface {
	Enqueue(ctx context.Context, queue string, payload []byte) error
}

type ArtifactHandler struct {
	artifacts artifactRepository
	jobs      jobRepository
	validator inputValidator
	queue     JobQueue
	logger    *slog.Logger
}

func NewArtifactHandler(artifacts artifactRepository, jobs jobRepository, validator inputValidator, queue JobQueue, log *slog.Logger) *ArtifactHandler {
	return &ArtifactHandler{artifacts: artifacts, jobs: jobs, validator: validator, queue: queue, logger: log}
}

// Generate validates the request, records a job and queues it. The artifact
// itself is produced by the worker pool.
func (h *ArtifactHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateArtifactRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	if err := h.validator.ValidateInput(req.Kind, req.Input); err != nil {
		handleServiceError(w, r, err)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		req.Title = defaultArtifactTitle(req.Kind)
	}

	userID := middleware.GetUserID(r.Context())
	configBytes, _ := json.Marshal(req)
	job := &models.Job{
		UserID:     userID,
		Type:       worker.ArtifactJobType,
		ConfigJSON: configBytes,
	}
	if err := h.jobs.Create(r.Context(), job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create job", r))
		return
	}

	if h.queue == nil {
		_ = h.jobs.UpdateStatus(r.Context(), job.ID, repository.JobFailed)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Artifact queue is unavailable", r))
		return
	}

	jobBytes, _ := json.Marshal(job)
	if err := h.queue.Enqueue(r.Context(), worker.ArtifactQueue, jobBytes); err != nil {
		h.logger.Error("failed to enqueue artifact job", "job_id", job.ID, "error", err)
		_ = h.jobs.UpdateStatus(r.Context(), job.ID, repository.JobFailed)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to enqueue artifact job", r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
		"kind":   req.Kind,
	})
}

func (h *ArtifactHandler) List(w http.ResponseWriter, r *http.Request) {
	kind := models.ArtifactKind(strings.TrimSpace(r.URL.Query().Get("kind")))
	if kind != "" && !kind.Valid() {
		requireFields(w, r, map[string]string{"kind": "Unknown artifact kind"})
		return
	}

	artifacts, err := h.artifacts.ListByUser(r.Context(), middleware.GetUserID(r.Context()), kind)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list artifacts", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"artifacts": artifacts})
}

func (h *ArtifactHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := h.owned(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *ArtifactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := h.owned(w, r)
	if !ok {
		return
	}
	if err := h.artifacts.Delete(r.Context(), a.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete artifact", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Artifact deleted"})
}

func (h *ArtifactHandler) owned(w http.ResponseWriter, r *http.Request) (*models.Artifact, bool) {
	id, err := urlID(r)
	if err != nil {
		badRequest(w, r, "Invalid artifact ID")
		return nil, false
	}

	a, err := h.artifacts.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Artifact not found", r))
		return nil, false
	}
	if a.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}
	return a, true
}

func defaultArtifactTitle(kind models.ArtifactKind) string {
	words := strings.Fields(strings.ReplaceAll(string(kind), "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

type JobHandler struct {
	jobs jobRepository
}

func NewJobHandler(jobs jobRepository) *JobHandler {
	return &JobHandler{jobs: jobs}
}

func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.owned(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// CancelJob marks a pending or running job cancelled. The worker checks the
// status before it stores a result.
func (h *JobHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.owned(w, r)
	if !ok {
		return
	}

	switch job.Status {
	case repository.JobCompleted, repository.JobFailed, repository.JobCancelled:
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Job already finished", r))
		return
	}

	if err := h.jobs.UpdateStatus(r.Context(), job.ID, repository.JobCancelled); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to cancel job", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Job cancelled"})
}

func (h *JobHandler) owned(w http.ResponseWriter, r *http.Request) (*models.Job, bool) {
	id, err := urlID(r)
	if err != nil {
		badRequest(w, r, "Invalid job ID")
		return nil, false
	}

	job, err := h.jobs.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Job not found", r))
		return nil, false
	}
	if job.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}
	return job, true
}

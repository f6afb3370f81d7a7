package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"studynook-backend/internal/middleware"
	"studynook-backend/internal/models"
	"studynook-backend/internal/services"
)

type materialRepository interface {
	Create(ctx context.Context, m *models.StudyMaterial) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.StudyMaterial, error)
	ListByUser(ctx context.Context, userID uuid.UUID, subject string, limit int) ([]*models.StudyMaterial, error)
	GetManyForUser(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]*models.StudyMaterial, error)
	Update(ctx context.Context, m *models.StudyMaterial) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type transcriptImporter interface {
	Import(ctx context.Context, rawURL string) (*services.LectureTranscript, error)
}

type MaterialHandler struct {
	materials materialRepository
	files     textExtractor
	youtube   transcriptImporter
	maxUpload int64
}

func NewMaterialHandler(materials materialRepository, files textExtractor, youtube transcriptImporter, maxUpload int64) *MaterialHandler {
	return &MaterialHandler{materials: materials, files: files, youtube: youtube, maxUpload: maxUpload}
}

func (h *MaterialHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	subject := strings.TrimSpace(r.URL.Query().Get("subject"))

	materials, err := h.materials.ListByUser(r.Context(), userID, subject, 0)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list materials", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"materials": materials})
}

func (h *MaterialHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMaterialRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}

	fields := map[string]string{}
	if blank(req.Title) {
		fields["title"] = "Title is required"
	}
	if blank(req.Content) {
		fields["content"] = "Content is required"
	}
	if !requireFields(w, r, fields) {
		return
	}

	m := &models.StudyMaterial{
		UserID:   middleware.GetUserID(r.Context()),
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		Subject:  trimmedOrNil(req.Subject),
		FileType: "text",
	}
	if err := h.materials.Create(r.Context(), m); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create material", r))
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// Upload stores the text of a pdf, docx or txt file as a new material.
func (h *MaterialHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUpload {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "File exceeds the upload limit", r))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	text, filename, ok := readUploadedDocument(w, r, h.files)
	if !ok {
		return
	}
	if blank(text) {
		requireFields(w, r, map[string]string{"file": "File contains no text"})
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	subject := r.FormValue("subject")

	m := &models.StudyMaterial{
		UserID:   middleware.GetUserID(r.Context()),
		Title:    title,
		Content:  text,
		Subject:  trimmedOrNil(&subject),
		FileType: services.DocumentType(filename),
	}
	if err := h.materials.Create(r.Context(), m); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create material", r))
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// ImportYouTube stores a lecture transcript as a new material.
func (h *MaterialHandler) ImportYouTube(w http.ResponseWriter, r *http.Request) {
	var req models.ImportYouTubeRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	if blank(req.URL) {
		requireFields(w, r, map[string]string{"url": "URL is required"})
		return
	}

	lecture, err := h.youtube.Import(r.Context(), strings.TrimSpace(req.URL))
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			handleServiceError(w, r, verr)
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorResp("TRANSCRIPT_UNAVAILABLE", "Could not fetch a transcript for this video", r))
		return
	}

	sourceURL := strings.TrimSpace(req.URL)
	m := &models.StudyMaterial{
		UserID:    middleware.GetUserID(r.Context()),
		Title:     lecture.Title,
		Content:   lecture.Transcript,
		Subject:   trimmedOrNil(req.Subject),
		FileType:  "youtube",
		SourceURL: &sourceURL,
	}
	if err := h.materials.Create(r.Context(), m); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create material", r))
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *MaterialHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, ok := h.owned(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MaterialHandler) Update(w http.ResponseWriter, r *http.Request) {
	m, ok := h.owned(w, r)
	if !ok {
		return
	}

	var req models.UpdateMaterialRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}

	fields := map[string]string{}
	if req.Title != nil {
		if blank(*req.Title) {
			fields["title"] = "Title cannot be empty"
		}
		m.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		if blank(*req.Content) {
			fields["content"] = "Content cannot be empty"
		}
		m.Content = *req.Content
	}
	if req.Subject != nil {
		m.Subject = trimmedOrNil(req.Subject)
	}
	if !requireFields(w, r, fields) {
		return
	}

	if err := h.materials.Update(r.Context(), m); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update material", r))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MaterialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	m, ok := h.owned(w, r)
	if !ok {
		return
	}
	if err := h.materials.Delete(r.Context(), m.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete material", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Material deleted"})
}

// owned loads the material named in the URL and checks it belongs to the
// caller, writing the error response when it does not.
func (h *MaterialHandler) owned(w http.ResponseWriter, r *http.Request) (*models.StudyMaterial, bool) {
	id, err := urlID(r)
	if err != nil {
		badRequest(w, r, "Invalid material ID")
		return nil, false
	}

	m, err := h.materials.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Material not found", r))
		return nil, false
	}
	if m.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}
	return m, true
}

// readUploadedDocument extracts the text of the multipart "file" field. It
// writes the error response itself and reports whether the caller may go on.
func readUploadedDocument(w http.ResponseWriter, r *http.Request, files textExtractor) (string, string, bool) {
	file, header, err := r.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "File exceeds the upload limit", r))
			return "", "", false
		}
		requireFields(w, r, map[string]string{"file": "No file provided"})
		return "", "", false
	}
	defer file.Close()

	if !services.SupportedDocument(header.Filename) {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResp("UNSUPPORTED_FORMAT", "Only pdf, docx, txt and md files are supported", r))
		return "", "", false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		badRequest(w, r, "Could not read file")
		return "", "", false
	}

	text, err := files.ExtractText(header.Filename, data)
	if err != nil {
		var unsupported *services.UnsupportedFormatError
		if errors.As(err, &unsupported) {
			handleServiceError(w, r, unsupported)
			return "", "", false
		}
		requireFields(w, r, map[string]string{"file": "Could not extract text from file"})
		return "", "", false
	}
	return text, header.Filename, true
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

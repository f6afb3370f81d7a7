package handlers

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"studynook-backend/internal/llm"
	"studynook-backend/internal/middleware"
	"studynook-backend/internal/models"
	"studynook-backend/internal/services"
)

// ChatMaterialCount is how many of the user's newest materials back a chat.
const ChatMaterialCount = 20

type textExtractor interface {
	ExtractText(filename string, data []byte) (string, error)
}

// AIHandler exposes the study task functions over HTTP. Task functions never
// fail, so every handler answers 200 once the request is valid.
type AIHandler struct {
	study     *services.StudyService
	materials materialRepository
	files     textExtractor
	maxUpload int64
}

func NewAIHandler(study *services.StudyService, materials materialRepository, files textExtractor, maxUpload int64) *AIHandler {
	return &AIHandler{study: study, materials: materials, files: files, maxUpload: maxUpload}
}

type explainRequest struct {
	Concept       string                  `json:"concept"`
	Context       string                  `json:"context"`
	Level         string                  `json:"level"`
	UserMaterials []models.SourceMaterial `json:"user_materials"`
	MaterialIDs   []string                `json:"material_ids"`
}

type askRequest struct {
	Question    string                  `json:"question"`
	Materials   []models.SourceMaterial `json:"materials"`
	MaterialIDs []string                `json:"material_ids"`
}

type quizRequest struct {
	Content      string `json:"content"`
	NumQuestions int    `json:"numQuestions"`
}

type flashcardsRequest struct {
	Content  string `json:"content"`
	NumCards int    `json:"numCards"`
}

type materialTextsRequest struct {
	Materials []string `json:"materials"`
}

type examRequest struct {
	Materials  []string `json:"materials"`
	Duration   int      `json:"duration"`
	Difficulty string   `json:"difficulty"`
}

type notesRequest struct {
	ImageBase64 string `json:"imageBase64"`
}

type scheduleRequest struct {
	Goals []models.StudyGoal `json:"goals"`
}

type reverseLearningRequest struct {
	Problem string `json:"problem"`
	Subject string `json:"subject"`
}

type citationsRequest struct {
	Content string `json:"content"`
}

type researchRequest struct {
	PaperContent string `json:"paperContent"`
}

type wordMapRequest struct {
	Action      string                  `json:"action"`
	Materials   []models.SourceMaterial `json:"materials"`
	MaterialIDs []string                `json:"material_ids"`
	Word        string                  `json:"word"`
}

// resolveMaterials returns the inline materials followed by the caller's
// stored materials named by ids. Unknown ids are skipped.
func (h *AIHandler) resolveMaterials(ctx context.Context, userID uuid.UUID, inline []models.SourceMaterial, ids []string) ([]models.SourceMaterial, error) {
	materials := make([]models.SourceMaterial, 0, len(inline)+len(ids))
	for _, m := range inline {
		if blank(m.Content) && blank(m.Title) {
			continue
		}
		materials = append(materials, m)
	}
	if len(ids) == 0 {
		return materials, nil
	}

	parsed := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, &services.ValidationError{Fields: map[string]string{"material_ids": "Invalid material ID: " + raw}}
		}
		parsed = append(parsed, id)
	}

	stored, err := h.materials.GetManyForUser(ctx, userID, parsed)
	if err != nil {
		return nil, err
	}
	for _, m := range stored {
		materials = append(materials, m.AsSource())
	}
	return materials, nil
}

func (h *AIHandler) Explain(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	if blank(req.Concept) {
		requireFields(w, r, map[string]string{"concept": "Concept is required"})
		return
	}

	materials, err := h.resolveMaterials(r.Context(), middleware.GetUserID(r.Context()), req.UserMaterials, req.MaterialIDs)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	result := h.study.Explain(r.Context(), req.Concept, req.Context, models.ParseExplanationLevel(req.Level), materials)
	writeJSON(w, http.StatusOK, result)
}

func (h *AIHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	if blank(req.Question) {
		requireFields(w, r, map[string]string{"question": "Question is required"})
		return
	}

	materials, err := h.resolveMaterials(r.Context(), middleware.GetUserID(r.Context()), req.Materials, req.MaterialIDs)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.study.ExplainQuestion(r.Context(), req.Question, materials))
}

func (h *AIHandler) Quiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	if blank(req.Content) {
		requireFields(w, r, map[string]string{"content": "Content is required"})
		return
	}

	questions := h.study.GenerateQuiz(r.Context(), req.Content, req.NumQuestions)
	writeJSON(w, http.StatusOK, map[string]interface{}{"questions": questions})
}

func (h *AIHandler) Flashcards(w http.ResponseWriter, r *http.Request) {
	var req flashcardsRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	if blank(req.Content) {
		requireFields(w, r, map[string]string{"content": "Content is required"})
		return
	}

	cards := h.study.GenerateFlashcards(r.Context(), req.Content, req.NumCards)
	writeJSON(w, http.StatusOK, map[string]interface{}{"flashcards": cards})
}

func (h *AIHandler) KnowledgeGraph(w http.ResponseWriter, r *http.Request) {
	var req materialTextsRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	if len(req.Materials) == 0 {
		requireFields(w, r, map[string]string{"materials": "At least one material is required"})
		return
	}

	writeJSON(w, http.StatusOK, h.study.BuildKnowledgeGraph(r.Context(), req.Materials))
}

func (h *AIHandler) Exam(w http.ResponseWriter, r *http.Request) {
	var req examRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	if len(req.Materials) == 0 {
		requireFields(w, r, map[string]string{"materials": "At least one material is required"})
		return
	}

	exam := h.study.GenerateExam(r.Context(), req.Materials, req.Duration, models.ParseDifficulty(req.Difficulty))
	writeJSON(w, http.StatusOK, exam)
}

// Notes accepts either a multipart "image" file or a JSON body with a
// base64 image (a data: URL prefix is allowed). The MIME type is sniffed.
func (h *AIHandler) Notes(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	var data []byte
	if isMultipart(r) {
		file, _, err := r.FormFile("image")
		if err != nil {
			if isTooLarge(err) {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "Image exceeds the upload limit", r))
				return
			}
			requireFields(w, r, map[string]string{"image": "Image is required"})
			return
		}
		defer file.Close()
		data, err = io.ReadAll(file)
		if err != nil {
			badRequest(w, r, "Could not read image")
			return
		}
	} else {
		var req notesRequest
		if err := decodeBody(r, &req); err != nil {
			if isTooLarge(err) {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "Image exceeds the upload limit", r))
				return
			}
			badRequest(w, r, "Invalid request body")
			return
		}
		decoded, err := decodeImageBase64(req.ImageBase64)
		if err != nil {
			requireFields(w, r, map[string]string{"imageBase64": "A base64-encoded image is required"})
			return
		}
		data = decoded
	}

	if len(data) == 0 {
		requireFields(w, r, map[string]string{"image": "Image is required"})
		return
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResp("UNSUPPORTED_FORMAT", "File is not an image", r))
		return
	}

	text := h.study.CleanHandwrittenNotes(r.Context(), llm.Image{MIMEType: mimeType, Data: data})
	writeJSON(w, http.StatusOK, map[string]string{"cleanedText": text})
}

func (h *AIHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	if len(req.Goals) == 0 {
		requireFields(w, r, map[string]string{"goals": "At least one goal is required"})
		return
	}

	plan := h.study.GenerateContentSchedule(r.Context(), req.Goals)
	writeJSON(w, http.StatusOK, map[string]interface{}{"plan": plan})
}

func (h *AIHandler) StudySchedule(w http.ResponseWriter, r *http.Request) {
	var req models.StudyScheduleRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}

	writeJSON(w, http.StatusOK, h.study.GenerateStudySchedule(r.Context(), req))
}

func (h *AIHandler) Coach(w http.ResponseWriter, r *http.Request) {
	var req models.CoachRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}

	messages := h.study.CoachMessages(r.Context(), req)
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

func (h *AIHandler) ReverseLearning(w http.ResponseWriter, r *http.Request) {
	var req reverseLearningRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	fields := map[string]string{}
	if blank(req.Problem) {
		fields["problem"] = "Problem is required"
	}
	if blank(req.Subject) {
		fields["subject"] = "Subject is required"
	}
	if !requireFields(w, r, fields) {
		return
	}

	writeJSON(w, http.StatusOK, h.study.ReverseLearning(r.Context(), req.Problem, req.Subject))
}

func (h *AIHandler) Citations(w http.ResponseWriter, r *http.Request) {
	var req citationsRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	if blank(req.Content) {
		requireFields(w, r, map[string]string{"content": "Content is required"})
		return
	}

	sources := h.study.FindCitations(r.Context(), req.Content)
	writeJSON(w, http.StatusOK, map[string]interface{}{"sources": sources})
}

// Research summarizes a paper given as JSON paperContent or as an uploaded
// pdf, docx or txt file.
func (h *AIHandler) Research(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	var paper string
	if isMultipart(r) {
		text, _, ok := readUploadedDocument(w, r, h.files)
		if !ok {
			return
		}
		paper = text
	} else {
		var req researchRequest
		if err := decodeBody(r, &req); err != nil {
			badRequest(w, r, "Invalid request body")
			return
		}
		paper = req.PaperContent
	}

	if blank(paper) {
		requireFields(w, r, map[string]string{"paperContent": "Paper content or a file is required"})
		return
	}

	writeJSON(w, http.StatusOK, h.study.SummarizePaper(r.Context(), paper))
}

func (h *AIHandler) WordMap(w http.ResponseWriter, r *http.Request) {
	var req wordMapRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}

	action := strings.TrimSpace(req.Action)
	if action == "" {
		action = "extract"
	}
	if action != "extract" && action != "generate-questions" {
		requireFields(w, r, map[string]string{"action": "Action must be extract or generate-questions"})
		return
	}
	if action == "generate-questions" && blank(req.Word) {
		requireFields(w, r, map[string]string{"word": "Word is required"})
		return
	}

	materials, err := h.resolveMaterials(r.Context(), middleware.GetUserID(r.Context()), req.Materials, req.MaterialIDs)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if len(materials) == 0 {
		requireFields(w, r, map[string]string{"materials": "At least one material is required"})
		return
	}

	if action == "generate-questions" {
		questions := h.study.QuestionsForWord(r.Context(), strings.TrimSpace(req.Word), materials)
		writeJSON(w, http.StatusOK, map[string]interface{}{"questions": questions})
		return
	}
	words := h.study.ExtractKeyWords(r.Context(), materials)
	writeJSON(w, http.StatusOK, map[string]interface{}{"words": words})
}

func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	if blank(req.Message) {
		requireFields(w, r, map[string]string{"message": "Message is required"})
		return
	}

	stored, err := h.materials.ListByUser(r.Context(), middleware.GetUserID(r.Context()), "", ChatMaterialCount)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	materials := make([]models.SourceMaterial, 0, len(stored))
	for _, m := range stored {
		materials = append(materials, m.AsSource())
	}

	reply := h.study.Chat(r.Context(), req.Message, req.ConversationHistory, materials)
	writeJSON(w, http.StatusOK, models.ChatResponse{Response: reply})
}

func decodeImageBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	if s == "" {
		return nil, base64.CorruptInputError(0)
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	}
	return data, nil
}

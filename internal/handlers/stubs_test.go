package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"studynook-backend/internal/llm"
	"studynook-backend/internal/middleware"
	"studynook-backend/internal/models"
	"studynook-backend/internal/services"
)

// scriptedLLM returns one canned reply and records every prompt.
type scriptedLLM struct {
	mu     sync.Mutex
	reply  string
	err    error
	calls  []llm.PromptSpec
	images []llm.Image
}

func (s *scriptedLLM) Invoke(_ context.Context, spec llm.PromptSpec) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, spec)
	return s.reply, s.err
}

func (s *scriptedLLM) InvokeWithImage(_ context.Context, spec llm.PromptSpec, img llm.Image) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, spec)
	s.images = append(s.images, img)
	return s.reply, s.err
}

type stubMaterialRepo struct {
	byID     map[uuid.UUID]*models.StudyMaterial
	created  []*models.StudyMaterial
	updated  *models.StudyMaterial
	deleted  uuid.UUID
	lastList struct {
		subject string
		limit   int
	}
}

func newStubMaterialRepo(materials ...*models.StudyMaterial) *stubMaterialRepo {
	repo := &stubMaterialRepo{byID: map[uuid.UUID]*models.StudyMaterial{}}
	for _, m := range materials {
		repo.byID[m.ID] = m
	}
	return repo
}

func (s *stubMaterialRepo) Create(ctx context.Context, m *models.StudyMaterial) error {
	m.ID = uuid.New()
	s.created = append(s.created, m)
	s.byID[m.ID] = m
	return nil
}

func (s *stubMaterialRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.StudyMaterial, error) {
	m, ok := s.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *m
	return &copied, nil
}

func (s *stubMaterialRepo) ListByUser(ctx context.Context, userID uuid.UUID, subject string, limit int) ([]*models.StudyMaterial, error) {
	s.lastList.subject = subject
	s.lastList.limit = limit
	out := []*models.StudyMaterial{}
	for _, m := range s.byID {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stubMaterialRepo) GetManyForUser(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]*models.StudyMaterial, error) {
	out := []*models.StudyMaterial{}
	for _, id := range ids {
		if m, ok := s.byID[id]; ok && m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stubMaterialRepo) Update(ctx context.Context, m *models.StudyMaterial) error {
	s.updated = m
	return nil
}

func (s *stubMaterialRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleted = id
	return nil
}

type stubImporter struct {
	lecture *services.LectureTranscript
	err     error
}

func (s stubImporter) Import(ctx context.Context, rawURL string) (*services.LectureTranscript, error) {
	if _, err := services.VideoID(rawURL); err != nil {
		return nil, err
	}
	return s.lecture, s.err
}

// authed attaches a user and optional chi URL params to a request.
func authed(req *http.Request, userID uuid.UUID, params map[string]string) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID)
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(rr *httptest.ResponseRecorder) models.ErrorResponse {
	var resp models.ErrorResponse
	json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&resp)
	return resp
}

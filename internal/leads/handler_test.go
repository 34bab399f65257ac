package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rbertolino-dev/flow-sub011/pkg/logging"
)

type fakePublisher struct {
	types []string
}

func (f *fakePublisher) Insert(ctx context.Context, eventType string, payload any) (uuid.UUID, error) {
	f.types = append(f.types, eventType)
	return uuid.New(), nil
}

func TestCreateLead_Success(t *testing.T) {
	repo := NewInMemoryRepository()
	handler := NewHandler(repo, nil, logging.Default())

	reqBody := CreateLeadRequest{
		Name:    "Joao Pereira",
		Email:   "joao@example.com",
		Phone:   "(11) 99876-5432",
		Company: "Pereira ME",
		Source:  "site",
	}

	body, _ := json.Marshal(reqBody)
	req := httptest.NewRequest(http.MethodPost, "/admin/leads", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, w.Code)
	}

	var lead Lead
	if err := json.NewDecoder(w.Body).Decode(&lead); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if lead.Stage != StageNew {
		t.Errorf("expected new leads in stage %s, got %s", StageNew, lead.Stage)
	}
	if lead.Phone != "11998765432" {
		t.Errorf("expected normalized phone, got %s", lead.Phone)
	}
}

func TestCreateLead_InvalidRequest(t *testing.T) {
	repo := NewInMemoryRepository()
	handler := NewHandler(repo, nil, logging.Default())

	body, _ := json.Marshal(CreateLeadRequest{Name: ""})
	req := httptest.NewRequest(http.MethodPost, "/admin/leads", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestListLeads_StageFilter(t *testing.T) {
	repo := NewInMemoryRepository()
	handler := NewHandler(repo, nil, logging.Default())

	lead, err := repo.Create(context.Background(), &CreateLeadRequest{Name: "A", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(context.Background(), &CreateLeadRequest{Name: "B", Email: "b@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.UpdateStage(context.Background(), lead.ID, StageProposal); err != nil {
		t.Fatalf("move: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/leads?stage=proposta", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var resp ListLeadsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 || resp.Leads[0].ID != lead.ID {
		t.Fatalf("unexpected listing %+v", resp)
	}
}

func TestListLeads_RejectsUnknownStage(t *testing.T) {
	handler := NewHandler(NewInMemoryRepository(), nil, logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/admin/leads?stage=limbo", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestMoveStage_PublishesEvent(t *testing.T) {
	repo := NewInMemoryRepository()
	publisher := &fakePublisher{}
	handler := NewHandler(repo, publisher, logging.Default())

	lead, err := repo.Create(context.Background(), &CreateLeadRequest{Name: "A", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	body, _ := json.Marshal(MoveStageRequest{Stage: StageWon})
	req := httptest.NewRequest(http.MethodPatch, "/admin/leads/"+lead.ID+"/stage", bytes.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("leadID", lead.ID)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()

	handler.MoveStage(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	var moved Lead
	if err := json.NewDecoder(w.Body).Decode(&moved); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if moved.Stage != StageWon {
		t.Fatalf("expected stage %s, got %s", StageWon, moved.Stage)
	}
	if len(publisher.types) != 1 || publisher.types[0] != "lead.stage_changed" {
		t.Fatalf("expected stage event, got %v", publisher.types)
	}
}

func TestMoveStage_InvalidStage(t *testing.T) {
	repo := NewInMemoryRepository()
	handler := NewHandler(repo, nil, logging.Default())

	lead, err := repo.Create(context.Background(), &CreateLeadRequest{Name: "A", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	body, _ := json.Marshal(MoveStageRequest{Stage: "limbo"})
	req := httptest.NewRequest(http.MethodPatch, "/admin/leads/"+lead.ID+"/stage", bytes.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("leadID", lead.ID)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()

	handler.MoveStage(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

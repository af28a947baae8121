package plans_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/haccp/internal/hazards"
	"github.com/JaimeStill/haccp/internal/plans"
	"github.com/JaimeStill/haccp/pkg/pagination"
	"github.com/JaimeStill/haccp/pkg/routes"
)

type mockSystem struct {
	listFn           func(ctx context.Context, page pagination.PageRequest, filters plans.Filters) (*pagination.PageResult[plans.Plan], error)
	findFn           func(ctx context.Context, id uuid.UUID) (*plans.Detail, error)
	createFn         func(ctx context.Context, cmd plans.CreateCommand) (*plans.Detail, error)
	updateFn         func(ctx context.Context, id uuid.UUID, cmd plans.UpdateCommand) (*plans.Detail, error)
	deleteFn         func(ctx context.Context, id uuid.UUID) error
	summaryFn        func(ctx context.Context, id uuid.UUID) (*hazards.Summary, error)
	exportableFn     func(ctx context.Context, id uuid.UUID) (*plans.Gate, error)
	addHazardFn      func(ctx context.Context, id uuid.UUID, cmd plans.AddHazardCommand) (*plans.Hazard, error)
	removeHazardFn   func(ctx context.Context, id uuid.UUID, hazardID string) error
	classificationFn func(ctx context.Context, id uuid.UUID, hazardID string) (*plans.Hazard, error)
	updateAnswerFn   func(ctx context.Context, id uuid.UUID, hazardID string, cmd plans.AnswerCommand) (*plans.AnswerResult, error)
	importFn         func(ctx context.Context, doc *plans.Document) (*plans.Detail, error)
}

func (m *mockSystem) Handler() *plans.Handler {
	return newTestHandler(m)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters plans.Filters) (*pagination.PageResult[plans.Plan], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*plans.Detail, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Create(ctx context.Context, cmd plans.CreateCommand) (*plans.Detail, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockSystem) Update(ctx context.Context, id uuid.UUID, cmd plans.UpdateCommand) (*plans.Detail, error) {
	return m.updateFn(ctx, id, cmd)
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockSystem) Session(ctx context.Context, id uuid.UUID) (*hazards.Session, error) {
	d, err := m.findFn(ctx, id)
	if err != nil {
		return nil, err
	}
	return d.Session, nil
}

func (m *mockSystem) Summary(ctx context.Context, id uuid.UUID) (*hazards.Summary, error) {
	return m.summaryFn(ctx, id)
}

func (m *mockSystem) Exportable(ctx context.Context, id uuid.UUID) (*plans.Gate, error) {
	return m.exportableFn(ctx, id)
}

func (m *mockSystem) AddHazard(ctx context.Context, id uuid.UUID, cmd plans.AddHazardCommand) (*plans.Hazard, error) {
	return m.addHazardFn(ctx, id, cmd)
}

func (m *mockSystem) RemoveHazard(ctx context.Context, id uuid.UUID, hazardID string) error {
	return m.removeHazardFn(ctx, id, hazardID)
}

func (m *mockSystem) Classification(ctx context.Context, id uuid.UUID, hazardID string) (*plans.Hazard, error) {
	return m.classificationFn(ctx, id, hazardID)
}

func (m *mockSystem) UpdateAnswer(ctx context.Context, id uuid.UUID, hazardID string, cmd plans.AnswerCommand) (*plans.AnswerResult, error) {
	return m.updateAnswerFn(ctx, id, hazardID, cmd)
}

func (m *mockSystem) Import(ctx context.Context, doc *plans.Document) (*plans.Detail, error) {
	return m.importFn(ctx, doc)
}

func newTestHandler(sys plans.System) *plans.Handler {
	return plans.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func setupMux(sys *mockSystem) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())
	return mux
}

var planID = uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

func sampleDetail() *plans.Detail {
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return &plans.Detail{
		Plan: plans.Plan{
			ID:          planID,
			Name:        "Cold-smoked salmon",
			HazardCount: 1,
			CCPCount:    1,
			Exportable:  true,
			CreatedAt:   ts,
			UpdatedAt:   ts,
			UpdatedBy:   "alice",
		},
		Hazards: []plans.Hazard{
			{
				HazardID:       "listeria",
				Position:       1,
				Category:       plans.Biological,
				Answers:        hazards.AnswerSet{Q1: hazards.Yes, Q2: hazards.Yes},
				Classification: hazards.CCP,
				UpdatedAt:      ts,
				UpdatedBy:      "alice",
			},
		},
		Summary: hazards.Summary{Complete: true, CCPCount: 1, IndeterminateHazardIDs: []string{}},
	}
}

func serve(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, r)
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandlerList(t *testing.T) {
	var captured plans.Filters
	var capturedPage pagination.PageRequest
	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.PageRequest, f plans.Filters) (*pagination.PageResult[plans.Plan], error) {
			captured = f
			capturedPage = page
			result := pagination.NewPageResult([]plans.Plan{sampleDetail().Plan}, 1, 1, 20)
			return &result, nil
		},
	}

	rec := serve(setupMux(sys), "GET", "/plans?complete=false&has_ccp=true&page=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result pagination.PageResult[plans.Plan]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Data) != 1 || result.Data[0].ID != planID {
		t.Errorf("data = %+v", result.Data)
	}
	if captured.Complete == nil || *captured.Complete {
		t.Errorf("complete filter = %v, want false", captured.Complete)
	}
	if captured.HasCCP == nil || !*captured.HasCCP {
		t.Errorf("has_ccp filter = %v, want true", captured.HasCCP)
	}
	if capturedPage.Page != 2 {
		t.Errorf("page = %d, want 2", capturedPage.Page)
	}

	rec = serve(setupMux(sys), "GET", "/plans?page=last", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric page: status = %d, want 400", rec.Code)
	}
}

func TestHandlerSearch(t *testing.T) {
	var captured plans.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, f plans.Filters) (*pagination.PageResult[plans.Plan], error) {
			captured = f
			result := pagination.NewPageResult([]plans.Plan{}, 0, 1, 20)
			return &result, nil
		},
	}
	mux := setupMux(sys)

	t.Run("decodes filters", func(t *testing.T) {
		rec := serve(mux, "POST", "/plans/search", `{"page":1,"name":"salmon","complete":true}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if captured.Name == nil || *captured.Name != "salmon" {
			t.Errorf("name filter = %v, want salmon", captured.Name)
		}
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		rec := serve(mux, "POST", "/plans/search", `{"owner":"bob"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerFind(t *testing.T) {
	sys := &mockSystem{
		findFn: func(_ context.Context, id uuid.UUID) (*plans.Detail, error) {
			if id != planID {
				return nil, plans.ErrNotFound
			}
			return sampleDetail(), nil
		},
	}
	mux := setupMux(sys)

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"found", "/plans/" + planID.String(), http.StatusOK},
		{"not found", "/plans/" + uuid.New().String(), http.StatusNotFound},
		{"invalid id", "/plans/not-a-uuid", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(mux, "GET", tt.target, "")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	t.Run("omits session from body", func(t *testing.T) {
		rec := serve(mux, "GET", "/plans/"+planID.String(), "")
		var body map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if _, ok := body["Session"]; ok {
			t.Error("session leaked into response")
		}
		summary, ok := body["summary"].(map[string]any)
		if !ok || summary["is_complete"] != true {
			t.Errorf("summary = %v", body["summary"])
		}
	})
}

func TestHandlerCreate(t *testing.T) {
	sys := &mockSystem{
		createFn: func(_ context.Context, cmd plans.CreateCommand) (*plans.Detail, error) {
			if err := cmd.Validate(); err != nil {
				return nil, err
			}
			if cmd.Name == "taken" {
				return nil, plans.ErrDuplicate
			}
			return sampleDetail(), nil
		},
	}
	mux := setupMux(sys)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"created", `{"name":"Cold-smoked salmon"}`, http.StatusCreated},
		{"blank name", `{"name":" "}`, http.StatusBadRequest},
		{"duplicate", `{"name":"taken"}`, http.StatusConflict},
		{"malformed", `{"name":`, http.StatusBadRequest},
		{"trailing data", `{"name":"a"}{}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(mux, "POST", "/plans", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandlerImport(t *testing.T) {
	var got *plans.Document
	sys := &mockSystem{
		importFn: func(_ context.Context, doc *plans.Document) (*plans.Detail, error) {
			got = doc
			return sampleDetail(), nil
		},
	}
	mux := setupMux(sys)

	t.Run("yaml body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/plans/import", strings.NewReader(salmonYAML))
		req.Header.Set("Content-Type", "application/yaml")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}
		if got == nil || len(got.Hazards) != 2 {
			t.Fatalf("document = %+v", got)
		}
	})

	t.Run("unsupported media", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/plans/import", strings.NewReader("a,b"))
		req.Header.Set("Content-Type", "text/csv")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnsupportedMediaType {
			t.Errorf("status = %d, want 415", rec.Code)
		}
	})

	t.Run("body too large", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/plans/import", strings.NewReader(salmonYAML))
		req.Body = http.MaxBytesReader(rec, req.Body, 8)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d, want 413", rec.Code)
		}
	})
}

func TestHandlerUpdateAndDelete(t *testing.T) {
	sys := &mockSystem{
		updateFn: func(_ context.Context, _ uuid.UUID, cmd plans.UpdateCommand) (*plans.Detail, error) {
			d := sampleDetail()
			if cmd.Name != nil {
				d.Name = *cmd.Name
			}
			return d, nil
		},
		deleteFn: func(_ context.Context, id uuid.UUID) error {
			if id == planID {
				return plans.ErrHasExports
			}
			return nil
		},
	}
	mux := setupMux(sys)

	rec := serve(mux, "PUT", "/plans/"+planID.String(), `{"name":"Renamed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200", rec.Code)
	}
	var d plans.Detail
	if err := json.NewDecoder(rec.Body).Decode(&d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Name != "Renamed" {
		t.Errorf("name = %q, want Renamed", d.Name)
	}

	if rec := serve(mux, "DELETE", "/plans/"+planID.String(), ""); rec.Code != http.StatusConflict {
		t.Errorf("delete with exports status = %d, want 409", rec.Code)
	}
	if rec := serve(mux, "DELETE", "/plans/"+uuid.New().String(), ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
}

func TestHandlerSummaryAndGate(t *testing.T) {
	sys := &mockSystem{
		summaryFn: func(context.Context, uuid.UUID) (*hazards.Summary, error) {
			return &hazards.Summary{IndeterminateHazardIDs: []string{"metal"}}, nil
		},
		exportableFn: func(context.Context, uuid.UUID) (*plans.Gate, error) {
			return &plans.Gate{Summary: hazards.Summary{IndeterminateHazardIDs: []string{"metal"}}}, nil
		},
	}
	mux := setupMux(sys)

	rec := serve(mux, "GET", "/plans/"+planID.String()+"/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d, want 200", rec.Code)
	}
	var s hazards.Summary
	if err := json.NewDecoder(rec.Body).Decode(&s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Complete || len(s.IndeterminateHazardIDs) != 1 {
		t.Errorf("summary = %+v", s)
	}

	rec = serve(mux, "GET", "/plans/"+planID.String()+"/exportable", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("exportable status = %d, want 200", rec.Code)
	}
	var g plans.Gate
	if err := json.NewDecoder(rec.Body).Decode(&g); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if g.Exportable {
		t.Error("exportable = true, want false")
	}
}

func TestHandlerHazards(t *testing.T) {
	sys := &mockSystem{
		addHazardFn: func(_ context.Context, _ uuid.UUID, cmd plans.AddHazardCommand) (*plans.Hazard, error) {
			if err := cmd.Validate(); err != nil {
				return nil, err
			}
			if cmd.HazardID == "listeria" {
				return nil, plans.ErrHazardExists
			}
			return &plans.Hazard{HazardID: cmd.HazardID, Category: cmd.Category, Classification: hazards.Indeterminate}, nil
		},
		classificationFn: func(_ context.Context, _ uuid.UUID, hazardID string) (*plans.Hazard, error) {
			if hazardID != "listeria" {
				return nil, plans.ErrHazardNotFound
			}
			h := sampleDetail().Hazards[0]
			return &h, nil
		},
		removeHazardFn: func(_ context.Context, _ uuid.UUID, hazardID string) error {
			if hazardID != "listeria" {
				return plans.ErrHazardNotFound
			}
			return nil
		},
	}
	mux := setupMux(sys)
	base := "/plans/" + planID.String() + "/hazards"

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"add", "POST", base, `{"hazard_id":"metal","category":"physical"}`, http.StatusCreated},
		{"add duplicate", "POST", base, `{"hazard_id":"listeria","category":"biological"}`, http.StatusConflict},
		{"add invalid category", "POST", base, `{"hazard_id":"x","category":"radiological"}`, http.StatusBadRequest},
		{"add null answer", "POST", base, `{"hazard_id":"x","category":"chemical","answers":{"q1":null}}`, http.StatusBadRequest},
		{"get", "GET", base + "/listeria", "", http.StatusOK},
		{"get missing", "GET", base + "/metal", "", http.StatusNotFound},
		{"remove", "DELETE", base + "/listeria", "", http.StatusNoContent},
		{"remove missing", "DELETE", base + "/metal", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(mux, tt.method, tt.target, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestHandlerUpdateAnswer(t *testing.T) {
	var captured plans.AnswerCommand
	sys := &mockSystem{
		updateAnswerFn: func(_ context.Context, _ uuid.UUID, hazardID string, cmd plans.AnswerCommand) (*plans.AnswerResult, error) {
			if err := cmd.Validate(); err != nil {
				return nil, err
			}
			if hazardID != "listeria" {
				return nil, plans.ErrHazardNotFound
			}
			captured = cmd
			h := sampleDetail().Hazards[0]
			h.Answers.Set(cmd.Question, *cmd.Answer)
			h.Classification = hazards.Classify(h.Answers)
			s := hazards.Summary{IndeterminateHazardIDs: []string{}}
			return &plans.AnswerResult{Hazard: h, Summary: s}, nil
		},
	}
	mux := setupMux(sys)
	target := "/plans/" + planID.String() + "/hazards/listeria/answers"

	t.Run("records answer", func(t *testing.T) {
		rec := serve(mux, "PUT", target, `{"question":"q2","answer":"no"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		if captured.Question != hazards.Q2 || *captured.Answer != hazards.No {
			t.Errorf("captured = %+v", captured)
		}

		var res plans.AnswerResult
		if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if res.Hazard.Classification != hazards.Indeterminate {
			t.Errorf("classification = %s, want INDETERMINATE", res.Hazard.Classification)
		}
	})

	t.Run("accepts boolean", func(t *testing.T) {
		rec := serve(mux, "PUT", target, `{"question":"q1","answer":false}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if *captured.Answer != hazards.No {
			t.Errorf("answer = %s, want no", captured.Answer)
		}
	})

	tests := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{"invalid question", target, `{"question":"q5","answer":"yes"}`, http.StatusBadRequest},
		{"invalid answer", target, `{"question":"q1","answer":"maybe"}`, http.StatusBadRequest},
		{"missing answer", target, `{"question":"q1"}`, http.StatusBadRequest},
		{"null answer", target, `{"question":"q1","answer":null}`, http.StatusBadRequest},
		{"unknown hazard", strings.Replace(target, "listeria", "metal", 1), `{"question":"q1","answer":"yes"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(mux, "PUT", tt.target, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

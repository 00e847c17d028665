package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paperflow-ai/paperflow/internal/server/middleware"
	"github.com/paperflow-ai/paperflow/internal/store"
	"github.com/paperflow-ai/paperflow/pkg/workflow"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i any) error {
	return v.validator.Struct(i)
}

func newProjectionContext(t *testing.T, st store.Store, paperID, kind string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/papers/:id/projections/:kind")
	c.SetParamNames("id", "kind")
	c.SetParamValues(paperID, kind)

	return &middleware.AppContext{Context: c, App: &middleware.App{Store: st}}, rec
}

func seedPaper(t *testing.T, st store.Store, paper *workflow.Paper) {
	t.Helper()
	if err := st.CreatePaper(context.Background(), paper); err != nil {
		t.Fatalf("CreatePaper() error = %v", err)
	}
}

func TestGetProjectionHandler_Sequential(t *testing.T) {
	st := store.NewMemoryStore()
	seedPaper(t, st, &workflow.Paper{
		ID:         "paper-1",
		Status:     workflow.StatusCompleted,
		UploadedAt: time.Now(),
		Components: []workflow.Component{
			{ID: "comp-data", Type: workflow.ComponentTypeDataset, Name: "PlantVillage"},
			{ID: "comp-model", Type: workflow.ComponentTypeModel, Name: "AG-CropNet"},
		},
		Relationships: []workflow.Relationship{
			{ID: "rel-1", SourceID: "comp-data", TargetID: "comp-model", Type: workflow.RelationshipTypeFlow},
		},
	})

	c, rec := newProjectionContext(t, st, "paper-1", "sequential")
	if err := GetProjectionHandler(c); err != nil {
		t.Fatalf("GetProjectionHandler() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		PaperID    string `json:"paper_id"`
		Kind       string `json:"kind"`
		Degraded   bool   `json:"degraded"`
		Sequential *struct {
			Items []struct {
				ID string `json:"id"`
			} `json:"items"`
		} `json:"sequential"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Kind != "sequential" || resp.Degraded {
		t.Errorf("resp.Kind = %q, resp.Degraded = %v", resp.Kind, resp.Degraded)
	}
	if resp.Sequential == nil || len(resp.Sequential.Items) != 2 {
		t.Fatalf("sequential view = %+v, want 2 items", resp.Sequential)
	}
}

func TestGetProjectionHandler_InvalidGraphDegradesToSequential(t *testing.T) {
	// A failed run left partial components that do not form a valid graph:
	// the parent reference is dangling. The handler must still serve the raw
	// extraction order instead of an error.
	st := store.NewMemoryStore()
	seedPaper(t, st, &workflow.Paper{
		ID:         "paper-1",
		Status:     workflow.StatusFailed,
		UploadedAt: time.Now(),
		Components: []workflow.Component{
			{ID: "comp-data", Type: workflow.ComponentTypeDataset, Name: "PlantVillage"},
			{ID: "comp-model", Type: workflow.ComponentTypeModel, Name: "AG-CropNet", Parent: "missing"},
		},
	})

	c, rec := newProjectionContext(t, st, "paper-1", "flow")
	if err := GetProjectionHandler(c); err != nil {
		t.Fatalf("GetProjectionHandler() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Kind       string `json:"kind"`
		Degraded   bool   `json:"degraded"`
		Sequential *struct {
			Items []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"items"`
		} `json:"sequential"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Degraded {
		t.Error("resp.Degraded = false, want true")
	}
	if resp.Kind != "sequential" {
		t.Errorf("resp.Kind = %q, want sequential", resp.Kind)
	}
	if resp.Sequential == nil || len(resp.Sequential.Items) != 1 {
		t.Fatalf("sequential view = %+v, want the one top-level component", resp.Sequential)
	}
	if resp.Sequential.Items[0].ID != "comp-data" {
		t.Errorf("item id = %q, want comp-data", resp.Sequential.Items[0].ID)
	}
}

func TestGetProjectionHandler_UnknownPaper(t *testing.T) {
	c, rec := newProjectionContext(t, store.NewMemoryStore(), "missing", "sequential")
	if err := GetProjectionHandler(c); err != nil {
		t.Fatalf("GetProjectionHandler() error = %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetProjectionHandler_UnknownKind(t *testing.T) {
	c, rec := newProjectionContext(t, store.NewMemoryStore(), "paper-1", "radial")
	if err := GetProjectionHandler(c); err != nil {
		t.Fatalf("GetProjectionHandler() error = %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

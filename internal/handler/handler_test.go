package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type envelope struct {
	Data       json.RawMessage    `json:"data"`
	Error      *appErrors.Error   `json:"error"`
	Pagination *models.Pagination `json:"pagination"`
}

func perform(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

type subjectServiceStub struct {
	created []service.CreateSubjectRequest
	filter  models.SubjectFilter
	err     error
}

func (s *subjectServiceStub) List(_ context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	s.filter = filter
	return []models.Subject{{ID: "S1"}}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: 1}, nil
}

func (s *subjectServiceStub) Get(_ context.Context, id string) (*models.Subject, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
}

func (s *subjectServiceStub) Create(_ context.Context, req service.CreateSubjectRequest) (*models.Subject, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, req)
	return &models.Subject{ID: "S1", Code: req.Code}, nil
}

func TestSubjectHandler(t *testing.T) {
	stub := &subjectServiceStub{}
	h := &SubjectHandler{service: stub}
	router := newTestRouter()
	router.GET("/subjects", h.List)
	router.GET("/subjects/:id", h.Get)
	router.POST("/subjects", h.Create)

	rec, env := perform(t, router, http.MethodPost, "/subjects", map[string]interface{}{"code": "MATH", "title": "Algebra", "units": 1, "weekly_hours": 2})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, string(env.Data), `"code":"MATH"`)
	require.Len(t, stub.created, 1)
	assert.Equal(t, 2, stub.created[0].WeeklyHours)

	rec, env = perform(t, router, http.MethodPost, "/subjects", "not an object")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)

	rec, env = perform(t, router, http.MethodGet, "/subjects?search=alg&page=2&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.SubjectFilter{Search: "alg", Page: 2, PageSize: 5}, stub.filter)
	assert.Equal(t, 1, env.Pagination.TotalCount)

	rec, env = perform(t, router, http.MethodGet, "/subjects/S9", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "subject not found", env.Error.Message)

	stub.err = appErrors.Clone(appErrors.ErrConflict, "subject code already exists")
	rec, _ = perform(t, router, http.MethodPost, "/subjects", map[string]interface{}{"code": "MATH"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

type classServiceStub struct {
	deleteErr error
	term      string
}

func (s *classServiceStub) List(_ context.Context, term string) ([]models.Session, error) {
	s.term = term
	return []models.Session{{ID: "c1", Term: term}}, nil
}

func (s *classServiceStub) Get(context.Context, string) (*models.Session, error) {
	return &models.Session{ID: "c1"}, nil
}

func (s *classServiceStub) Create(_ context.Context, req service.ClassRequest) (*models.Session, error) {
	return &models.Session{ID: "manual", Day: models.Day(req.Day), IsOverride: true}, nil
}

func (s *classServiceStub) Update(_ context.Context, id string, req service.ClassRequest) (*models.Session, error) {
	return &models.Session{ID: id, IsOverride: true}, nil
}

func (s *classServiceStub) Delete(context.Context, string) error {
	return s.deleteErr
}

type generatorStub struct {
	requests []dto.GenerateTimetableRequest
	err      error
}

func (g *generatorStub) Generate(_ context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return &dto.GenerateTimetableResponse{Term: req.Term, GeneratedCount: 4}, nil
}

func (g *generatorStub) Coverage(_ context.Context, term string) (*dto.CoverageReport, error) {
	if term == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no generation report available")
	}
	return &dto.CoverageReport{Term: term}, nil
}

type exporterStub struct {
	format service.ExportFormat
}

func (e *exporterStub) Timetable(_ context.Context, term string, format service.ExportFormat) (*service.ExportResult, error) {
	e.format = format
	return &service.ExportResult{Filename: "timetable_" + term + ".csv", ContentType: "text/csv", Data: []byte("Day\nMon\n")}, nil
}

func newClassRouter(h *ClassHandler) *gin.Engine {
	router := newTestRouter()
	router.GET("/classes", h.List)
	router.POST("/classes", h.Create)
	router.DELETE("/classes/:id", h.Delete)
	router.POST("/classes/generate", h.Generate)
	router.GET("/classes/coverage", h.Coverage)
	router.GET("/classes/export", h.Export)
	return router
}

func TestClassHandlerCRUD(t *testing.T) {
	classes := &classServiceStub{}
	router := newClassRouter(&ClassHandler{classes: classes, generator: &generatorStub{}})

	rec, _ := perform(t, router, http.MethodGet, "/classes?term=Fall2024", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Fall2024", classes.term)

	rec, env := perform(t, router, http.MethodPost, "/classes", map[string]string{"day": "Mon"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, string(env.Data), `"is_override":true`)

	rec, _ = perform(t, router, http.MethodDelete, "/classes/manual", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	classes.deleteErr = appErrors.Clone(appErrors.ErrPreconditionFailed, "only manual classes can be deleted")
	rec, env = perform(t, router, http.MethodDelete, "/classes/generated", nil)
	require.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, env.Error.Code)
}

func TestClassHandlerGenerate(t *testing.T) {
	generator := &generatorStub{}
	router := newClassRouter(&ClassHandler{classes: &classServiceStub{}, generator: generator})

	dryRun := true
	rec, env := perform(t, router, http.MethodPost, "/classes/generate", dto.GenerateTimetableRequest{Term: "Fall2024", DryRun: &dryRun})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"generated_count":4`)
	require.Len(t, generator.requests, 1)
	require.NotNil(t, generator.requests[0].DryRun)
	assert.True(t, *generator.requests[0].DryRun)

	rec, _ = perform(t, router, http.MethodPost, "/classes/generate?term=Spring2025", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Spring2025", generator.requests[1].Term)
	assert.Nil(t, generator.requests[1].DryRun)

	generator.err = appErrors.Clone(appErrors.ErrGenerationInProgress, "timetable generation already running for term Fall2024")
	rec, env = perform(t, router, http.MethodPost, "/classes/generate", dto.GenerateTimetableRequest{Term: "Fall2024"})
	require.Equal(t, http.StatusLocked, rec.Code)
	assert.Equal(t, "GENERATION_IN_PROGRESS", env.Error.Code)
}

func TestClassHandlerCoverage(t *testing.T) {
	router := newClassRouter(&ClassHandler{classes: &classServiceStub{}, generator: &generatorStub{}})

	rec, _ := perform(t, router, http.MethodGet, "/classes/coverage?term=Fall2024", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = perform(t, router, http.MethodGet, "/classes/coverage", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClassHandlerExport(t *testing.T) {
	exporter := &exporterStub{}
	router := newClassRouter(&ClassHandler{classes: &classServiceStub{}, generator: &generatorStub{}, exporter: exporter})

	rec, _ := perform(t, router, http.MethodGet, "/classes/export?term=Fall2024&format=CSV", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="timetable_Fall2024.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "Day\nMon\n", rec.Body.String())
	assert.Equal(t, service.ExportFormatCSV, exporter.format)

	rec, _ = perform(t, router, http.MethodGet, "/classes/export?format=docx", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	disabled := newClassRouter(&ClassHandler{classes: &classServiceStub{}, generator: &generatorStub{}})
	rec, _ = perform(t, disabled, http.MethodGet, "/classes/export", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type exemptionServiceStub struct {
	created bool
}

func (s *exemptionServiceStub) ListActive(context.Context) ([]models.ConflictExemption, error) {
	return []models.ConflictExemption{{ID: "ex-1"}}, nil
}

func (s *exemptionServiceStub) Create(_ context.Context, req service.CreateExemptionRequest) (*models.ConflictExemption, bool, error) {
	return &models.ConflictExemption{ID: "ex-1", EntityType: models.EntityType(req.Type)}, s.created, nil
}

func TestExemptionHandlerCreateStatus(t *testing.T) {
	stub := &exemptionServiceStub{created: true}
	h := &ExemptionHandler{service: stub}
	router := newTestRouter()
	router.GET("/exemptions", h.List)
	router.POST("/exemptions", h.Create)

	payload := map[string]string{"type": "room", "entity_id": "any", "conflict_type": "capacity", "reason": "overflow"}
	rec, _ := perform(t, router, http.MethodPost, "/exemptions", payload)
	assert.Equal(t, http.StatusCreated, rec.Code)

	stub.created = false
	rec, _ = perform(t, router, http.MethodPost, "/exemptions", payload)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := perform(t, router, http.MethodGet, "/exemptions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"ex-1"`)
}

type statsServiceStub struct{}

func (statsServiceStub) Admin(context.Context) (*dto.AdminStats, error) {
	return &dto.AdminStats{TotalStudents: 10, TotalClasses: 7, OverrideClasses: 2}, nil
}

func TestAdminHandlerStats(t *testing.T) {
	router := newTestRouter()
	router.GET("/admin/stats", (&AdminHandler{stats: statsServiceStub{}}).Stats)

	rec, env := perform(t, router, http.MethodGet, "/admin/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats dto.AdminStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, dto.AdminStats{TotalStudents: 10, TotalClasses: 7, OverrideClasses: 2}, stats)
}

type pingerStub struct{ err error }

func (p pingerStub) PingContext(context.Context) error { return p.err }

func TestMetricsHandlerProbes(t *testing.T) {
	router := newTestRouter()
	healthy := NewMetricsHandler(service.NewMetricsService(), pingerStub{})
	broken := NewMetricsHandler(nil, pingerStub{err: errors.New("connection refused")})
	router.GET("/health", healthy.Health)
	router.GET("/ready", healthy.Ready)
	router.GET("/metrics", healthy.Prometheus)
	router.GET("/broken/ready", broken.Ready)
	router.GET("/broken/metrics", broken.Prometheus)

	rec, _ := perform(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = perform(t, router, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = perform(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = perform(t, router, http.MethodGet, "/broken/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
	rec, _ = perform(t, router, http.MethodGet, "/broken/metrics", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

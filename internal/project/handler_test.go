package project

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-doc-authoring/internal/domain"
	"ai-doc-authoring/internal/errors"
	"ai-doc-authoring/internal/export"
	"ai-doc-authoring/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mock implementation of the Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) projectResult(args mock.Arguments) (*domain.Project, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockService) sectionResult(args mock.Arguments) (*domain.Section, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Section), args.Error(1)
}

func (m *MockService) CreateProject(ctx context.Context, userID uint64, req CreateProjectRequest) (*domain.Project, error) {
	return m.projectResult(m.Called(ctx, userID, req))
}

func (m *MockService) UpdateProject(ctx context.Context, userID, projectID uint64, req UpdateProjectRequest) (*domain.Project, error) {
	return m.projectResult(m.Called(ctx, userID, projectID, req))
}

func (m *MockService) DeleteProject(ctx context.Context, userID, projectID uint64) error {
	args := m.Called(ctx, userID, projectID)
	return args.Error(0)
}

func (m *MockService) GetProject(ctx context.Context, userID, projectID uint64) (*domain.Project, error) {
	return m.projectResult(m.Called(ctx, userID, projectID))
}

func (m *MockService) ListProjects(ctx context.Context, userID uint64) ([]domain.Project, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return []domain.Project{}, args.Error(1)
	}
	return args.Get(0).([]domain.Project), args.Error(1)
}

func (m *MockService) History(ctx context.Context, userID, projectID uint64) ([]SectionHistory, error) {
	args := m.Called(ctx, userID, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]SectionHistory), args.Error(1)
}

func (m *MockService) Export(ctx context.Context, userID, projectID uint64, format domain.DocType) (*export.Result, error) {
	args := m.Called(ctx, userID, projectID, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*export.Result), args.Error(1)
}

func (m *MockService) AddSection(ctx context.Context, userID, projectID uint64, req AddSectionRequest) (*domain.Project, error) {
	return m.projectResult(m.Called(ctx, userID, projectID, req))
}

func (m *MockService) EditSection(ctx context.Context, userID, projectID, sectionID uint64, req EditSectionRequest) (*domain.Section, error) {
	return m.sectionResult(m.Called(ctx, userID, projectID, sectionID, req))
}

func (m *MockService) DeleteSection(ctx context.Context, userID, projectID, sectionID uint64) (*domain.Project, error) {
	return m.projectResult(m.Called(ctx, userID, projectID, sectionID))
}

func (m *MockService) MoveSection(ctx context.Context, userID, projectID, sectionID uint64, direction domain.Direction) (*domain.Project, error) {
	return m.projectResult(m.Called(ctx, userID, projectID, sectionID, direction))
}

func (m *MockService) SubmitFeedback(ctx context.Context, userID, projectID, sectionID uint64, feedback domain.Feedback) (*domain.Section, error) {
	return m.sectionResult(m.Called(ctx, userID, projectID, sectionID, feedback))
}

func (m *MockService) GenerateSection(ctx context.Context, userID, projectID, sectionID uint64) (*domain.Section, error) {
	return m.sectionResult(m.Called(ctx, userID, projectID, sectionID))
}

func (m *MockService) RefineSection(ctx context.Context, userID, projectID, sectionID uint64, req RefineRequest) (*domain.Section, error) {
	return m.sectionResult(m.Called(ctx, userID, projectID, sectionID, req))
}

func (m *MockService) GenerateAll(ctx context.Context, userID, projectID uint64) (*GenerateAllResult, error) {
	args := m.Called(ctx, userID, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*GenerateAllResult), args.Error(1)
}

// setupRouter mounts every route behind a fake auth step that sets the caller to user 1.
func setupRouter(service Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler(zerolog.Nop()))
	group := router.Group("/", func(c *gin.Context) {
		c.Set("user_id", uint64(1))
		c.Next()
	})
	NewHandler(service, nil).RegisterRoutes(group)
	return router
}

func doJSON(router *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewBuffer(raw)
	} else {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sampleProject() *domain.Project {
	return &domain.Project{
		ID:      7,
		UserID:  1,
		Name:    "EV report",
		DocType: domain.DocTypeDocx,
		Sections: []domain.Section{
			{ID: 1, ProjectID: 7, OrderIndex: 0, Title: "A", Comments: []domain.Comment{}},
			{ID: 2, ProjectID: 7, OrderIndex: 1, Title: "B", Comments: []domain.Comment{}},
		},
	}
}

func TestCreateProject_Success(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(mockService)

	mockService.On("CreateProject", mock.Anything, uint64(1), mock.MatchedBy(func(req CreateProjectRequest) bool {
		return req.Name == "EV report" && req.DocType == domain.DocTypeDocx
	})).Return(sampleProject(), nil)

	w := doJSON(router, http.MethodPost, "/projects", gin.H{"name": "EV report", "doc_type": "docx"})

	assert.Equal(t, http.StatusCreated, w.Code)
	var got domain.Project
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got.Sections, 2)
	mockService.AssertExpectations(t)
}

func TestCreateProject_InvalidInput(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(mockService)

	w := doJSON(router, http.MethodPost, "/projects", gin.H{"name": "x", "doc_type": "xlsx"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "validation", body["kind"])
	mockService.AssertNotCalled(t, "CreateProject")
}

func TestShowProject_NotFound(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(mockService)

	mockService.On("GetProject", mock.Anything, uint64(1), uint64(99)).
		Return(nil, errors.NotFound("Project not found", nil))

	w := doJSON(router, http.MethodGet, "/projects/99", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Project not found")
	mockService.AssertExpectations(t)
}

func TestShowProject_BadID(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(mockService)

	w := doJSON(router, http.MethodGet, "/projects/abc", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockService.AssertNotCalled(t, "GetProject")
}

func TestListProjects_Success(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(mockService)

	mockService.On("ListProjects", mock.Anything, uint64(1)).Return([]domain.Project{*sampleProject()}, nil)

	w := doJSON(router, http.MethodGet, "/projects", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []domain.Project `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 1)
	mockService.AssertExpectations(t)
}

func TestDeleteProject_Success(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(mockService)

	mockService.On("DeleteProject", mock.Anything, uint64(1), uint64(7)).Return(nil)

	w := doJSON(router, http.MethodDelete, "/projects/7", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}

func TestMoveSection_Success(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(mockService)

	moved := sampleProject()
	moved.Sections[0], moved.Sections[1] = moved.Sections[1], moved.Sections[0]
	mockService.On("MoveSection", mock.Anything, uint64(1), uint64(7), uint64(2), domain.DirectionUp).Return(moved, nil)

	w := doJSON(router, http.MethodPost, "/projects/7/sections/2/move", gin.H{"direction": "up"})

	assert.Equal(t, http.StatusOK, w.Code)
	var got domain.Project
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "B", got.Sections[0].Title)
	mockService.AssertExpectations(t)
}

func TestMoveSection_InvalidDirection(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(mockService)

	w := doJSON(router, http.MethodPost, "/projects/7/sections/2/move", gin.H{"direction": "left"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	mockService.AssertNotCalled(t, "MoveSection")
}

func TestFeedback_Like(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(mockService)

	section := &domain.Section{ID: 2, ProjectID: 7, Title: "B", Likes: 1, Comments: []domain.Comment{}}
	mockService.On("SubmitFeedback", mock.Anything, uint64(1), uint64(7), uint64(2), domain.Like{Positive: true}).
		Return(section, nil)

	w := doJSON(router, http.MethodPost, "/projects/7/sections/2/feedback", gin.H{"like": true})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"likes":1`)
	mockService.AssertExpectations(t)
}

func TestFeedback_Comment(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(mockService)

	section := &domain.Section{ID: 2, ProjectID: 7, Title: "B", Comments: []domain.Comment{{ID: 3, Text: "nice"}}}
	mockService.On("SubmitFeedback", mock.Anything, uint64(1), uint64(7), uint64(2), domain.CommentFeedback{Text: "nice"}).
		Return(section, nil)

	w := doJSON(router, http.MethodPost, "/projects/7/sections/2/feedback", gin.H{"comment": "nice"})

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestFeedback_BothFields(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(mockService)

	w := doJSON(router, http.MethodPost, "/projects/7/sections/2/feedback", gin.H{"like": true, "comment": "x"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	mockService.AssertNotCalled(t, "SubmitFeedback")
}

func TestRefineSection_ExternalFailure(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(mockService)

	mockService.On("RefineSection", mock.Anything, uint64(1), uint64(7), uint64(2), RefineRequest{Instruction: "shorter"}).
		Return(nil, errors.ExternalService("Text generation failed", nil))

	w := doJSON(router, http.MethodPost, "/projects/7/sections/2/refine", gin.H{"instruction": "shorter"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "external_service", body["kind"])
	mockService.AssertExpectations(t)
}

func TestRefineSection_Conflict(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(mockService)

	mockService.On("RefineSection", mock.Anything, uint64(1), uint64(7), uint64(2), RefineRequest{Preset: "shorten"}).
		Return(nil, errors.Conflict("Section was changed concurrently, please retry", nil))

	w := doJSON(router, http.MethodPost, "/projects/7/sections/2/refine", gin.H{"preset": "shorten"})

	assert.Equal(t, http.StatusConflict, w.Code)
	mockService.AssertExpectations(t)
}

func TestGenerateAll_PartialFailure(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(mockService)

	result := &GenerateAllResult{
		Project: sampleProject(),
		Results: []SectionOutcome{
			{SectionID: 1, Title: "A", Status: OutcomeOK},
			{SectionID: 2, Title: "B", Status: OutcomeFailed, Error: errors.ExternalService("Text generation failed", nil)},
		},
		Succeeded: 1,
		Failed:    1,
	}
	mockService.On("GenerateAll", mock.Anything, uint64(1), uint64(7)).Return(result, nil)

	w := doJSON(router, http.MethodPost, "/projects/7/generate", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Results []struct {
			Status string            `json:"status"`
			Error  map[string]string `json:"error"`
		} `json:"results"`
		Failed int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Failed)
	assert.Equal(t, "failed", body.Results[1].Status)
	assert.Equal(t, "external_service", body.Results[1].Error["kind"])
	mockService.AssertExpectations(t)
}

func TestExport_Success(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(mockService)

	mockService.On("Export", mock.Anything, uint64(1), uint64(7), domain.DocTypePptx).Return(&export.Result{
		Data:     []byte("PK"),
		Filename: "EV_report.pptx",
		MimeType: "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	}, nil)

	w := doJSON(router, http.MethodGet, "/projects/7/export?format=pptx", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="EV_report.pptx"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "PK", w.Body.String())
	mockService.AssertExpectations(t)
}

func TestExport_BadFormat(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(mockService)

	w := doJSON(router, http.MethodGet, "/projects/7/export?format=pdf", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	mockService.AssertNotCalled(t, "Export")
}

func TestListPresets(t *testing.T) {
	router := setupRouter(new(MockService))

	w := doJSON(router, http.MethodGet, "/presets", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"shorten"`)
}

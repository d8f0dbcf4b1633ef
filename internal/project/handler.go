package project

import (
	"fmt"
	"net/http"

	"ai-doc-authoring/internal/domain"
	"ai-doc-authoring/internal/errors"
	"ai-doc-authoring/internal/llm"
	"ai-doc-authoring/internal/utils"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for projects and their sections
type Handler struct {
	service Service
	presets *llm.Presets
}

// NewHandler creates a new project handler
func NewHandler(service Service, presets *llm.Presets) *Handler {
	if presets == nil {
		presets = llm.DefaultPresets()
	}
	return &Handler{service: service, presets: presets}
}

// RegisterRoutes mounts the project API on an authenticated group.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/presets", h.ListPresets)

	r.GET("/projects", h.ListProjects)
	r.POST("/projects", h.Create)
	r.GET("/projects/:id", h.Show)
	r.PUT("/projects/:id", h.Update)
	r.DELETE("/projects/:id", h.Delete)
	r.GET("/projects/:id/history", h.History)
	r.GET("/projects/:id/export", h.Export)
	r.POST("/projects/:id/generate", h.GenerateAll)

	r.POST("/projects/:id/sections", h.AddSection)
	r.PUT("/projects/:id/sections/:sectionId", h.EditSection)
	r.DELETE("/projects/:id/sections/:sectionId", h.DeleteSection)
	r.POST("/projects/:id/sections/:sectionId/move", h.MoveSection)
	r.POST("/projects/:id/sections/:sectionId/generate", h.GenerateSection)
	r.POST("/projects/:id/sections/:sectionId/refine", h.RefineSection)
	r.POST("/projects/:id/sections/:sectionId/feedback", h.Feedback)
}

// projectParams resolves the caller and the :id parameter.
func projectParams(c *gin.Context) (userID, projectID uint64, err error) {
	if userID, err = utils.CallerID(c); err != nil {
		return
	}
	projectID, err = utils.ParseIDParam(c, "id")
	return
}

func sectionParams(c *gin.Context) (userID, projectID, sectionID uint64, err error) {
	if userID, projectID, err = projectParams(c); err != nil {
		return
	}
	sectionID, err = utils.ParseIDParam(c, "sectionId")
	return
}

// ListPresets returns the canned refinement instructions.
func (h *Handler) ListPresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.presets.List()})
}

func (h *Handler) ListProjects(c *gin.Context) {
	userID, err := utils.CallerID(c)
	if err != nil {
		c.Error(err)
		return
	}

	projects, err := h.service.ListProjects(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": projects})
}

// Create handles project creation with its initial sections
func (h *Handler) Create(c *gin.Context) {
	userID, err := utils.CallerID(c)
	if err != nil {
		c.Error(err)
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	project, err := h.service.CreateProject(c.Request.Context(), userID, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// Show returns one project with its sections in order.
func (h *Handler) Show(c *gin.Context) {
	userID, projectID, err := projectParams(c)
	if err != nil {
		c.Error(err)
		return
	}

	project, err := h.service.GetProject(c.Request.Context(), userID, projectID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// Update renames the project or changes its topic or document type.
func (h *Handler) Update(c *gin.Context) {
	userID, projectID, err := projectParams(c)
	if err != nil {
		c.Error(err)
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	project, err := h.service.UpdateProject(c.Request.Context(), userID, projectID, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *Handler) Delete(c *gin.Context) {
	userID, projectID, err := projectParams(c)
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.service.DeleteProject(c.Request.Context(), userID, projectID); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// History returns every section's revision log.
func (h *Handler) History(c *gin.Context) {
	userID, projectID, err := projectParams(c)
	if err != nil {
		c.Error(err)
		return
	}

	history, err := h.service.History(c.Request.Context(), userID, projectID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": history})
}

// Export renders the project and streams the file as an attachment.
func (h *Handler) Export(c *gin.Context) {
	userID, projectID, err := projectParams(c)
	if err != nil {
		c.Error(err)
		return
	}

	format := domain.DocType(c.Query("format"))
	if format != "" && !format.Valid() {
		c.Error(errors.Validation("format: must be docx or pptx", nil))
		return
	}

	result, err := h.service.Export(c.Request.Context(), userID, projectID, format)
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.MimeType, result.Data)
}

// GenerateAll drafts every section. Failed sections are reported per section
// and the request itself still succeeds.
func (h *Handler) GenerateAll(c *gin.Context) {
	userID, projectID, err := projectParams(c)
	if err != nil {
		c.Error(err)
		return
	}

	result, err := h.service.GenerateAll(c.Request.Context(), userID, projectID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) AddSection(c *gin.Context) {
	userID, projectID, err := projectParams(c)
	if err != nil {
		c.Error(err)
		return
	}

	var req AddSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	project, err := h.service.AddSection(c.Request.Context(), userID, projectID, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (h *Handler) EditSection(c *gin.Context) {
	userID, projectID, sectionID, err := sectionParams(c)
	if err != nil {
		c.Error(err)
		return
	}

	var req EditSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	section, err := h.service.EditSection(c.Request.Context(), userID, projectID, sectionID, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, section)
}

func (h *Handler) DeleteSection(c *gin.Context) {
	userID, projectID, sectionID, err := sectionParams(c)
	if err != nil {
		c.Error(err)
		return
	}

	project, err := h.service.DeleteSection(c.Request.Context(), userID, projectID, sectionID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// MoveSection swaps a section with its neighbour.
func (h *Handler) MoveSection(c *gin.Context) {
	userID, projectID, sectionID, err := sectionParams(c)
	if err != nil {
		c.Error(err)
		return
	}

	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	project, err := h.service.MoveSection(c.Request.Context(), userID, projectID, sectionID, req.Direction)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *Handler) GenerateSection(c *gin.Context) {
	userID, projectID, sectionID, err := sectionParams(c)
	if err != nil {
		c.Error(err)
		return
	}

	section, err := h.service.GenerateSection(c.Request.Context(), userID, projectID, sectionID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, section)
}

// RefineSection rewrites a section from an instruction or a preset.
func (h *Handler) RefineSection(c *gin.Context) {
	userID, projectID, sectionID, err := sectionParams(c)
	if err != nil {
		c.Error(err)
		return
	}

	var req RefineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	section, err := h.service.RefineSection(c.Request.Context(), userID, projectID, sectionID, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, section)
}

// Feedback records a like or a comment on a section.
func (h *Handler) Feedback(c *gin.Context) {
	userID, projectID, sectionID, err := sectionParams(c)
	if err != nil {
		c.Error(err)
		return
	}

	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}
	feedback, err := req.ToFeedback()
	if err != nil {
		c.Error(err)
		return
	}

	section, err := h.service.SubmitFeedback(c.Request.Context(), userID, projectID, sectionID, feedback)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, section)
}

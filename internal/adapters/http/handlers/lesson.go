package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mentormind/mentormind-backend/internal/adapters/http/dto"
	"github.com/mentormind/mentormind-backend/internal/app"
	"github.com/mentormind/mentormind-backend/internal/domain"
)

// LessonHandler handles lesson-related HTTP endpoints.
type LessonHandler struct {
	service *app.LessonService
}

// NewLessonHandler creates a new lesson handler.
func NewLessonHandler(service *app.LessonService) *LessonHandler {
	return &LessonHandler{
		service: service,
	}
}

// LessonResponse is the HTTP response structure for a lesson.
type LessonResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Grade     int       `json:"grade"`
	Subject   string    `json:"subject"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateLessonRequest is the body of POST /api/v1/lessons.
type CreateLessonRequest struct {
	Title   string `json:"title"   validate:"required,notempty,max=255"`
	Grade   int    `json:"grade"   validate:"required,gte=1,lte=12"`
	Subject string `json:"subject" validate:"required,notempty,max=255"`
	Source  string `json:"source"  validate:"omitempty,max=255"`
}

// OverviewResponse is the HTTP response structure for the catalogue summary.
type OverviewResponse struct {
	Total  int64           `json:"total"`
	Latest *LessonResponse `json:"latest"`
}

func toLessonResponse(l *domain.Lesson) *LessonResponse {
	return &LessonResponse{
		ID:        l.ID,
		Title:     l.Title,
		Grade:     l.Grade,
		Subject:   l.Subject,
		Source:    l.Source,
		CreatedAt: l.CreatedAt,
	}
}

// List handles GET /api/v1/lessons?cursor=&limit=
// Lessons come back in ID order; pass nextCursor to fetch the next page.
//
// @Summary List lessons
// @Tags lessons
// @Produce json
// @Param cursor query string false "Cursor from a previous page"
// @Param limit query int false "Page size (1-100)"
// @Success 200 {object} dto.PaginatedResponse[LessonResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/lessons [get]
func (h *LessonHandler) List(c *gin.Context) {
	var req dto.PaginationRequest

	err := dto.BindQueryAndValidate(c, &req)
	if err != nil {
		dto.RespondWithBindingError(c, err)
		return
	}

	afterID, err := req.AfterID()
	if err != nil {
		dto.RespondWithErrorCode(c, dto.ErrorCodeBadRequest, "cursor is invalid")
		return
	}

	page, err := h.service.List(c.Request.Context(), afterID, req.GetLimit())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	items := make([]LessonResponse, 0, len(page.Lessons))
	for i := range page.Lessons {
		items = append(items, *toLessonResponse(&page.Lessons[i]))
	}

	c.JSON(http.StatusOK, dto.NewPaginatedResponse(items, page.NextAfterID))
}

// Get handles GET /api/v1/lessons/:id
//
// @Summary Get a lesson by ID
// @Tags lessons
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} LessonResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/lessons/{id} [get]
func (h *LessonHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		dto.RespondWithErrorCode(c, dto.ErrorCodeBadRequest, "lesson id must be a positive integer")
		return
	}

	lesson, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toLessonResponse(lesson))
}

// Create handles POST /api/v1/lessons
//
// @Summary Create a lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Param lesson body CreateLessonRequest true "Lesson"
// @Success 201 {object} LessonResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/lessons [post]
func (h *LessonHandler) Create(c *gin.Context) {
	var req CreateLessonRequest

	err := dto.BindAndValidate(c, &req)
	if err != nil {
		dto.RespondWithBindingError(c, err)
		return
	}

	lesson, err := h.service.Create(c.Request.Context(), domain.Lesson{
		Title:   req.Title,
		Grade:   req.Grade,
		Subject: req.Subject,
		Source:  req.Source,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Location", "/api/v1/lessons/"+strconv.FormatInt(lesson.ID, 10))
	c.JSON(http.StatusCreated, toLessonResponse(lesson))
}

// Overview handles GET /api/v1/lessons/overview
//
// @Summary Summarize the lesson catalogue
// @Tags lessons
// @Produce json
// @Success 200 {object} OverviewResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/lessons/overview [get]
func (h *LessonHandler) Overview(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	resp := OverviewResponse{Total: overview.Total}
	if overview.Latest != nil {
		resp.Latest = toLessonResponse(overview.Latest)
	}

	c.JSON(http.StatusOK, resp)
}

// RegisterLessonRoutes registers lesson routes on the given router group.
func (h *LessonHandler) RegisterLessonRoutes(rg *gin.RouterGroup) {
	lessons := rg.Group("/lessons")
	lessons.GET("", h.List)
	lessons.POST("", h.Create)
	lessons.GET("/overview", h.Overview)
	lessons.GET("/:id", h.Get)
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-adm-api/internal/dto"
	"github.com/noah-isme/uni-adm-api/internal/models"
	"github.com/noah-isme/uni-adm-api/internal/service"
	appErrors "github.com/noah-isme/uni-adm-api/pkg/errors"
	"github.com/noah-isme/uni-adm-api/pkg/response"
)

// PeriodHandler exposes academic year and semester endpoints.
type PeriodHandler struct {
	service *service.PeriodService
}

// NewPeriodHandler constructs a period handler.
func NewPeriodHandler(svc *service.PeriodService) *PeriodHandler {
	return &PeriodHandler{service: svc}
}

// ListYears godoc
// @Summary List academic years
// @Tags Periods
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /academic-years [get]
func (h *PeriodHandler) ListYears(c *gin.Context) {
	var filter models.AcademicYearFilter
	if status := c.Query("status"); status != "" {
		filter.Status = models.PeriodStatus(status)
	}
	filter.Page, filter.PageSize = pageParams(c)

	years, pagination, err := h.service.ListYears(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, years, pagination)
}

// GetYear godoc
// @Summary Get academic year
// @Tags Periods
// @Produce json
// @Param id path string true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /academic-years/{id} [get]
func (h *PeriodHandler) GetYear(c *gin.Context) {
	year, err := h.service.GetYear(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// CreateYear godoc
// @Summary Create academic year
// @Tags Periods
// @Accept json
// @Produce json
// @Param payload body dto.CreateAcademicYearRequest true "Academic year payload"
// @Success 201 {object} response.Envelope
// @Router /academic-years [post]
func (h *PeriodHandler) CreateYear(c *gin.Context) {
	var req dto.CreateAcademicYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	year, err := h.service.CreateYear(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, year)
}

// UpdateYear godoc
// @Summary Update academic year
// @Tags Periods
// @Accept json
// @Produce json
// @Param id path string true "Academic year ID"
// @Param payload body dto.UpdateAcademicYearRequest true "Academic year payload"
// @Success 200 {object} response.Envelope
// @Router /academic-years/{id} [put]
func (h *PeriodHandler) UpdateYear(c *gin.Context) {
	var req dto.UpdateAcademicYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	year, err := h.service.UpdateYear(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// ActivateYear godoc
// @Summary Activate academic year
// @Description Make the year the single active academic year
// @Tags Periods
// @Produce json
// @Param id path string true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /academic-years/{id}/activate [post]
func (h *PeriodHandler) ActivateYear(c *gin.Context) {
	result, err := h.service.ActivateYear(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// UndoActiveYear godoc
// @Summary Undo the last year activation
// @Tags Periods
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /academic-years/undo-activation [post]
func (h *PeriodHandler) UndoActiveYear(c *gin.Context) {
	restored, err := h.service.UndoActiveYear(c.Request.Context(), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, restored, nil)
}

// DeleteYear godoc
// @Summary Delete academic year
// @Description Delete a non-active year and its semesters
// @Tags Periods
// @Produce json
// @Param id path string true "Academic year ID"
// @Success 204
// @Router /academic-years/{id} [delete]
func (h *PeriodHandler) DeleteYear(c *gin.Context) {
	if err := h.service.DeleteYear(c.Request.Context(), c.Param("id"), actorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSemesters godoc
// @Summary List semesters
// @Tags Periods
// @Produce json
// @Param yearId query string false "Filter by academic year"
// @Param programType query string false "Filter by program type"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /semesters [get]
func (h *PeriodHandler) ListSemesters(c *gin.Context) {
	var filter models.SemesterFilter
	filter.YearID = c.Query("yearId")
	if programType := c.Query("programType"); programType != "" {
		filter.ProgramType = models.ProgramType(programType)
	}
	if status := c.Query("status"); status != "" {
		filter.Status = models.PeriodStatus(status)
	}
	filter.Page, filter.PageSize = pageParams(c)

	semesters, pagination, err := h.service.ListSemesters(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semesters, pagination)
}

// GetSemester godoc
// @Summary Get semester
// @Tags Periods
// @Produce json
// @Param id path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id} [get]
func (h *PeriodHandler) GetSemester(c *gin.Context) {
	semester, err := h.service.GetSemester(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}

// CreateSemester godoc
// @Summary Create semester
// @Tags Periods
// @Accept json
// @Produce json
// @Param payload body dto.CreateSemesterRequest true "Semester payload"
// @Success 201 {object} response.Envelope
// @Router /semesters [post]
func (h *PeriodHandler) CreateSemester(c *gin.Context) {
	var req dto.CreateSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	semester, err := h.service.CreateSemester(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, semester)
}

// UpdateSemester godoc
// @Summary Update semester schedule
// @Tags Periods
// @Accept json
// @Produce json
// @Param id path string true "Semester ID"
// @Param payload body dto.UpdateSemesterRequest true "Semester payload"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id} [put]
func (h *PeriodHandler) UpdateSemester(c *gin.Context) {
	var req dto.UpdateSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	semester, err := h.service.UpdateSemester(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}

// ActivateSemester godoc
// @Summary Activate semester
// @Description Make the semester the active one for its program type
// @Tags Periods
// @Produce json
// @Param id path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id}/activate [post]
func (h *PeriodHandler) ActivateSemester(c *gin.Context) {
	result, err := h.service.ActivateSemester(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// UndoActiveSemester godoc
// @Summary Undo the last semester activation for a program type
// @Tags Periods
// @Produce json
// @Param programType query string true "Program type (REGULAR or WEEKEND)"
// @Success 200 {object} response.Envelope
// @Router /semesters/undo-activation [post]
func (h *PeriodHandler) UndoActiveSemester(c *gin.Context) {
	programType, err := parseProgramType(c.Query("programType"))
	if err != nil {
		response.Error(c, err)
		return
	}
	restored, err := h.service.UndoActiveSemester(c.Request.Context(), programType, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, restored, nil)
}

// RolloverSemester godoc
// @Summary Roll the active semester over to its successor
// @Tags Periods
// @Produce json
// @Param programType query string true "Program type (REGULAR or WEEKEND)"
// @Success 200 {object} response.Envelope
// @Router /semesters/rollover [post]
func (h *PeriodHandler) RolloverSemester(c *gin.Context) {
	programType, err := parseProgramType(c.Query("programType"))
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.RolloverSemester(c.Request.Context(), programType, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// DeleteSemester godoc
// @Summary Delete semester
// @Tags Periods
// @Produce json
// @Param id path string true "Semester ID"
// @Success 204
// @Router /semesters/{id} [delete]
func (h *PeriodHandler) DeleteSemester(c *gin.Context) {
	if err := h.service.DeleteSemester(c.Request.Context(), c.Param("id"), actorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GetCurrentPeriod godoc
// @Summary Get the current registration period
// @Tags Periods
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /periods/current [get]
func (h *PeriodHandler) GetCurrentPeriod(c *gin.Context) {
	period, err := h.service.GetCurrentPeriod(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

func pageParams(c *gin.Context) (int, int) {
	page := 1
	size := 20
	if parsed, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		page = parsed
	}
	if parsed, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		size = parsed
	}
	return page, size
}

func parseProgramType(raw string) (models.ProgramType, error) {
	switch models.ProgramType(raw) {
	case models.ProgramTypeRegular, models.ProgramTypeWeekend:
		return models.ProgramType(raw), nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "programType must be REGULAR or WEEKEND")
	}
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-adm-api/internal/dto"
	"github.com/noah-isme/uni-adm-api/internal/models"
	"github.com/noah-isme/uni-adm-api/internal/service"
	appErrors "github.com/noah-isme/uni-adm-api/pkg/errors"
	"github.com/noah-isme/uni-adm-api/pkg/response"
)

// DefermentHandler exposes the deferment lifecycle endpoints.
type DefermentHandler struct {
	service *service.DefermentService
	exports *service.ExportService
}

// NewDefermentHandler constructs a deferment handler.
func NewDefermentHandler(svc *service.DefermentService, exports *service.ExportService) *DefermentHandler {
	return &DefermentHandler{service: svc, exports: exports}
}

// List godoc
// @Summary List deferment requests
// @Tags Deferments
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param status query string false "Filter by status"
// @Param type query string false "Filter by type"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /deferments [get]
func (h *DefermentHandler) List(c *gin.Context) {
	var filter models.DefermentFilter
	filter.StudentID = c.Query("studentId")
	if status := c.Query("status"); status != "" {
		filter.Status = models.DefermentStatus(status)
	}
	if defermentType := c.Query("type"); defermentType != "" {
		filter.Type = models.DefermentType(defermentType)
	}
	filter.Page, filter.PageSize = pageParams(c)

	requests, pagination, err := h.service.ListRequests(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// Get godoc
// @Summary Get deferment request
// @Tags Deferments
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /deferments/{id} [get]
func (h *DefermentHandler) Get(c *gin.Context) {
	request, err := h.service.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Submit godoc
// @Summary Submit a self-service deferment request
// @Tags Deferments
// @Accept json
// @Produce json
// @Param payload body dto.SubmitDefermentRequest true "Deferment payload"
// @Success 201 {object} response.Envelope
// @Router /deferments [post]
func (h *DefermentHandler) Submit(c *gin.Context) {
	var req dto.SubmitDefermentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// Approve godoc
// @Summary Approve a pending deferment request
// @Description Runs the compliance gate, then defers the student
// @Tags Deferments
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /deferments/{id}/approve [post]
func (h *DefermentHandler) Approve(c *gin.Context) {
	outcome, err := h.service.Approve(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.WithWarnings(c, http.StatusOK, outcome, outcome.Warnings)
}

// Decline godoc
// @Summary Decline a pending deferment request
// @Tags Deferments
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /deferments/{id}/decline [post]
func (h *DefermentHandler) Decline(c *gin.Context) {
	request, err := h.service.Decline(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// ManualDefer godoc
// @Summary Record an operator-entered deferment
// @Tags Deferments
// @Accept json
// @Produce json
// @Param payload body dto.ManualDeferRequest true "Deferment payload"
// @Success 201 {object} response.Envelope
// @Router /deferments/manual [post]
func (h *DefermentHandler) ManualDefer(c *gin.Context) {
	var req dto.ManualDeferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	outcome, err := h.service.ManualDefer(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.WithWarnings(c, http.StatusCreated, outcome, outcome.Warnings)
}

// Reactivate godoc
// @Summary Reactivate a deferred student
// @Tags Deferments
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.ReactivateRequest true "Reactivation payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/reactivate [post]
func (h *DefermentHandler) Reactivate(c *gin.Context) {
	var req dto.ReactivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	outcome, err := h.service.Reactivate(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.WithWarnings(c, http.StatusOK, outcome, outcome.Warnings)
}

// GetStanding godoc
// @Summary Get a student's academic standing
// @Tags Deferments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/standing [get]
func (h *DefermentHandler) GetStanding(c *gin.Context) {
	standing, err := h.service.GetStanding(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, standing, nil)
}

// RecommendReturnPeriod godoc
// @Summary Recommend a return period for a deferred student
// @Tags Deferments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/return-period [get]
func (h *DefermentHandler) RecommendReturnPeriod(c *gin.Context) {
	ref, err := h.service.RecommendReturnPeriod(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ref, nil)
}

// ApprovalLetter godoc
// @Summary Download the PDF approval letter for a deferment
// @Tags Deferments
// @Produce application/pdf
// @Param id path string true "Request ID"
// @Success 200 {file} binary
// @Router /deferments/{id}/letter [get]
func (h *DefermentHandler) ApprovalLetter(c *gin.Context) {
	payload, filename, err := h.exports.ApprovalLetterPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", payload)
}

// ExportRegister godoc
// @Summary Download the deferment register as CSV
// @Tags Deferments
// @Produce text/csv
// @Param status query string false "Filter by status"
// @Success 200 {file} binary
// @Router /deferments/export/register [get]
func (h *DefermentHandler) ExportRegister(c *gin.Context) {
	var filter models.DefermentFilter
	if status := c.Query("status"); status != "" {
		filter.Status = models.DefermentStatus(status)
	}
	payload, filename, err := h.exports.DefermentRegisterCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", payload)
}

// PurgeAll godoc
// @Summary Purge all deferment data
// @Description Administrative sweep of requests, standings, mirrors and audit entries
// @Tags Deferments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /deferments/maintenance/all [delete]
func (h *DefermentHandler) PurgeAll(c *gin.Context) {
	outcome, err := h.service.ClearAllDefermentData(c.Request.Context(), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.WithWarnings(c, http.StatusOK, outcome, outcome.Warnings)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/services"
)

type ReviewHandler struct {
	log    *logger.Logger
	review *services.ReviewService
}

func NewReviewHandler(baseLog *logger.Logger, review *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		log:    baseLog.With("handler", "ReviewHandler"),
		review: review,
	}
}

func (h *ReviewHandler) ListPending(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_run_id", err)
		return
	}
	pending, err := h.review.ListPending(c.Request.Context(), runID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_pending_failed", err)
		return
	}
	RespondOK(c, gin.H{"suggestions": pending})
}

type resolveRequest struct {
	Reviewer string `json:"reviewer" binding:"required"`
}

func (h *ReviewHandler) Apply(c *gin.Context) {
	id, err := uuid.Parse(c.Param("suggestion_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_suggestion_id", err)
		return
	}
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	suggestion, err := h.review.Apply(c.Request.Context(), id, req.Reviewer)
	if err != nil {
		RespondError(c, http.StatusConflict, "apply_failed", err)
		return
	}
	RespondOK(c, suggestion)
}

func (h *ReviewHandler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("suggestion_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_suggestion_id", err)
		return
	}
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	suggestion, err := h.review.Reject(c.Request.Context(), id, req.Reviewer)
	if err != nil {
		RespondError(c, http.StatusConflict, "reject_failed", err)
		return
	}
	RespondOK(c, suggestion)
}

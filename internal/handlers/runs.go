package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/repos"
	"github.com/marketlens/brandscope-backend/internal/services"
	"github.com/marketlens/brandscope-backend/internal/types"
)

type RunHandler struct {
	log      *logger.Logger
	intake   *services.IntakeService
	entities repos.CanonicalEntityRepo
}

func NewRunHandler(baseLog *logger.Logger, intake *services.IntakeService, entities repos.CanonicalEntityRepo) *RunHandler {
	return &RunHandler{
		log:      baseLog.With("handler", "RunHandler"),
		intake:   intake,
		entities: entities,
	}
}

type createRunRequest struct {
	VerticalID   uuid.UUID `json:"vertical_id" binding:"required"`
	VerticalName string    `json:"vertical_name" binding:"required"`
}

func (h *RunHandler) CreateRun(c *gin.Context) {
	var req createRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	run, err := h.intake.CreateRun(c.Request.Context(), req.VerticalID, req.VerticalName)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "create_run_failed", err)
		return
	}
	RespondCreated(c, run)
}

func (h *RunHandler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_run_id", err)
		return
	}
	run, err := h.intake.GetRun(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusNotFound, "run_not_found", err)
		return
	}
	RespondOK(c, run)
}

type addCandidatesRequest struct {
	Candidates []candidatePayload `json:"candidates" binding:"required,min=1"`
}

type candidatePayload struct {
	RawName             string  `json:"raw_name" binding:"required"`
	EntityType          string  `json:"entity_type" binding:"required"`
	Language            string  `json:"language"`
	EvidenceSnippet     string  `json:"evidence_snippet"`
	Rank                int     `json:"rank"`
	ExtractorConfidence float64 `json:"extractor_confidence"`
}

func (h *RunHandler) AddCandidates(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_run_id", err)
		return
	}
	var req addCandidatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	candidates := make([]*types.Candidate, 0, len(req.Candidates))
	for _, p := range req.Candidates {
		candidates = append(candidates, &types.Candidate{
			RawName:             p.RawName,
			EntityType:          types.EntityType(p.EntityType),
			Language:            types.Language(p.Language),
			EvidenceSnippet:     p.EvidenceSnippet,
			Rank:                p.Rank,
			ExtractorConfidence: p.ExtractorConfidence,
		})
	}
	created, err := h.intake.AddCandidates(c.Request.Context(), id, candidates)
	if err != nil {
		RespondError(c, http.StatusConflict, "add_candidates_failed", err)
		return
	}
	RespondCreated(c, gin.H{"created": len(created)})
}

func (h *RunHandler) SealRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_run_id", err)
		return
	}
	run, err := h.intake.Seal(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "seal_failed", err)
		return
	}
	RespondOK(c, run)
}

func (h *RunHandler) CancelRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_run_id", err)
		return
	}
	run, err := h.intake.Cancel(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusConflict, "cancel_failed", err)
		return
	}
	RespondOK(c, run)
}

func (h *RunHandler) ListEntities(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_run_id", err)
		return
	}
	acceptedOnly := c.Query("accepted") == "true"
	entities, err := h.entities.ListByRun(c.Request.Context(), nil, id, acceptedOnly)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_entities_failed", err)
		return
	}
	RespondOK(c, gin.H{"entities": entities})
}

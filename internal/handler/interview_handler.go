package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/mockview-backend/internal/middleware"
	"github.com/stemsi/mockview-backend/internal/model"
	"github.com/stemsi/mockview-backend/internal/response"
	"github.com/stemsi/mockview-backend/internal/service"
	"github.com/stemsi/mockview-backend/internal/validator"
)

// InterviewService is the session API used by InterviewHandler.
type InterviewService interface {
	Start(ctx context.Context, userID int, req model.StartInterviewRequest) (*service.StartResult, error)
	SubmitAnswer(ctx context.Context, userID int, sessionID uuid.UUID, transcript string, duration int) (*service.AnswerResult, error)
	ForceComplete(ctx context.Context, userID int, sessionID uuid.UUID) (*model.Report, error)
	GetReport(ctx context.Context, userID int, sessionID uuid.UUID) (*model.InterviewSession, error)
	History(ctx context.Context, userID int) ([]model.SessionSummary, error)
	Stats(ctx context.Context, userID int) (*model.UserStats, error)
}

// InterviewHandler handles interview session endpoints.
type InterviewHandler struct {
	sessions InterviewService
	log      zerolog.Logger
}

// NewInterviewHandler creates a new InterviewHandler.
func NewInterviewHandler(sessions InterviewService, log zerolog.Logger) *InterviewHandler {
	return &InterviewHandler{
		sessions: sessions,
		log:      log.With().Str("component", "interview_handler").Logger(),
	}
}

// Start godoc
// POST /api/v1/interview/start
// Creates a session and returns its first question.
func (h *InterviewHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.StartInterviewRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.sessions.Start(c.Request.Context(), claims.UserID, req)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Created(c, res)
}

// Answer godoc
// POST /api/v1/interview/answer
// Records the answer to the current question. The last answer returns the report.
func (h *InterviewHandler) Answer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	res, err := h.sessions.SubmitAnswer(c.Request.Context(), claims.UserID, sessionID, req.Transcript, req.Duration)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}

// Complete godoc
// POST /api/v1/interview/complete
// Ends the session early. Repeated calls return the same report.
func (h *InterviewHandler) Complete(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CompleteInterviewRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	report, err := h.sessions.ForceComplete(c.Request.Context(), claims.UserID, sessionID)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session_id": sessionID, "report": report})
}

// GetReport godoc
// GET /api/v1/interview/report/:session_id
func (h *InterviewHandler) GetReport(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	sess, err := h.sessions.GetReport(c.Request.Context(), claims.UserID, sessionID)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session": sess,
		"status":  sess.Status(),
	})
}

// History godoc
// GET /api/v1/interview/history
func (h *InterviewHandler) History(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessions, err := h.sessions.History(c.Request.Context(), claims.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if sessions == nil {
		sessions = []model.SessionSummary{}
	}

	response.Success(c, http.StatusOK, gin.H{"sessions": sessions})
}

// Stats godoc
// GET /api/v1/interview/stats
func (h *InterviewHandler) Stats(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	stats, err := h.sessions.Stats(c.Request.Context(), claims.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// fail maps service errors to API error codes.
func (h *InterviewHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"detail": err.Error()})
	case errors.Is(err, service.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
	case errors.Is(err, service.ErrAlreadyCompleted):
		response.Fail(c, http.StatusConflict, response.ErrSessionAlreadyCompleted)
	case errors.Is(err, service.ErrNotCompleted):
		response.Fail(c, http.StatusConflict, response.ErrSessionNotCompleted)
	case errors.Is(err, service.ErrConcurrentUpdate):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Interview request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"crmserver/internal/model"
	"crmserver/internal/repository"
	"crmserver/pkg/mq"
)

type MeetingHandler struct {
	meetingRepo *repository.MeetingRepository
	summaryRepo *repository.SummaryRepository
	publisher   *mq.Publisher
	logger      *zap.Logger
}

func NewMeetingHandler(
	meetingRepo *repository.MeetingRepository,
	summaryRepo *repository.SummaryRepository,
	publisher *mq.Publisher,
	logger *zap.Logger,
) *MeetingHandler {
	return &MeetingHandler{
		meetingRepo: meetingRepo,
		summaryRepo: summaryRepo,
		publisher:   publisher,
		logger:      logger,
	}
}

// ListMeetings handles GET /customers/:id/meetings
func (h *MeetingHandler) ListMeetings(c *gin.Context) {
	meetings, err := h.meetingRepo.ListByCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("ListMeetings: failed to fetch meetings",
			zap.String("customer_id", c.Param("id")),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch meetings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"meetings": meetings})
}

// CreateMeeting handles POST /customers/:id/meetings
func (h *MeetingHandler) CreateMeeting(c *gin.Context) {
	var req struct {
		Title      string     `json:"title" binding:"required"`
		OccurredAt *time.Time `json:"occurred_at"`
		Attendees  string     `json:"attendees"`
		Notes      string     `json:"notes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	occurredAt := time.Now()
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	meeting := &model.Meeting{
		ID:         uuid.NewString(),
		CustomerID: c.Param("id"),
		Title:      req.Title,
		OccurredAt: occurredAt,
		Attendees:  req.Attendees,
		Notes:      req.Notes,
	}

	if err := h.meetingRepo.Insert(c.Request.Context(), meeting); err != nil {
		h.logger.Error("CreateMeeting: insert failed",
			zap.String("customer_id", c.Param("id")),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create meeting"})
		return
	}

	c.JSON(http.StatusCreated, meeting)
}

// GetMeeting handles GET /meetings/:id
func (h *MeetingHandler) GetMeeting(c *gin.Context) {
	meeting, err := h.meetingRepo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "meeting not found"})
			return
		}
		h.logger.Error("GetMeeting: lookup failed",
			zap.String("meeting_id", c.Param("id")),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch meeting"})
		return
	}

	c.JSON(http.StatusOK, meeting)
}

// DeleteMeeting handles DELETE /meetings/:id
func (h *MeetingHandler) DeleteMeeting(c *gin.Context) {
	if err := h.meetingRepo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.logger.Error("DeleteMeeting: delete failed",
			zap.String("meeting_id", c.Param("id")),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete meeting"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// RequestSummary handles POST /meetings/:id/summarize. The heavy
// lifting happens in the worker; this only enqueues.
func (h *MeetingHandler) RequestSummary(c *gin.Context) {
	meeting, err := h.meetingRepo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "meeting not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch meeting"})
		return
	}

	userID, _ := c.Get("user_id")

	payload := mq.MeetingSummarizePayload{
		EventID:    uuid.NewString(),
		MeetingID:  meeting.ID,
		CustomerID: meeting.CustomerID,
	}
	if uid, ok := userID.(string); ok {
		payload.UserID = uid
	}

	if err := h.publisher.Publish(mq.KeyMeetingSummarize, payload); err != nil {
		h.logger.Error("RequestSummary: publish failed",
			zap.String("meeting_id", meeting.ID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue summarization"})
		return
	}

	h.logger.Info("RequestSummary: queued",
		zap.String("meeting_id", meeting.ID),
		zap.String("customer_id", meeting.CustomerID),
	)
	c.JSON(http.StatusAccepted, gin.H{
		"meeting_id": meeting.ID,
		"status":     "queued",
	})
}

// GetSummary handles GET /meetings/:id/summary
func (h *MeetingHandler) GetSummary(c *gin.Context) {
	s, err := h.summaryRepo.FindByMeetingID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "summary not ready"})
			return
		}
		h.logger.Error("GetSummary: lookup failed",
			zap.String("meeting_id", c.Param("id")),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch summary"})
		return
	}

	c.JSON(http.StatusOK, s)
}

package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ticketboard-server/internal/core"
	"github.com/vovakirdan/ticketboard-server/internal/proto"
	"github.com/vovakirdan/ticketboard-server/internal/service/tickets"
)

// APIHandlers provides HTTP handlers for REST API endpoints.
type APIHandlers struct {
	hub  Hub
	desk Desk
	log  *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(hub Hub, desk Desk, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		hub:  hub,
		desk: desk,
		log:  logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TicketResponse is returned when a ticket is issued.
type TicketResponse struct {
	Number   int    `json:"number"`
	Pending  int    `json:"pending"`
	IssuedAt string `json:"issued_at"`
}

// PendingResponse describes the waiting queue.
type PendingResponse struct {
	Pending int  `json:"pending"`
	Next    *int `json:"next"`
}

// Latest returns the current display window.
// GET /api/assignments/latest
func (h *APIHandlers) Latest(c *gin.Context) {
	slots, err := h.hub.Snapshot(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read snapshot")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "board unavailable"})
		return
	}
	c.JSON(http.StatusOK, slotsToWire(slots))
}

// Assign announces a ticket assignment to every display.
// POST /api/assignments
func (h *APIHandlers) Assign(c *gin.Context) {
	var req proto.AssignData
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid assign request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	slots, err := h.hub.Assign(c.Request.Context(), assignmentFromWire(req))
	if err != nil {
		h.writeAssignError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, slotsToWire(slots))
}

// IssueTicket hands out the next queue number.
// POST /api/tickets
func (h *APIHandlers) IssueTicket(c *gin.Context) {
	t, pending := h.desk.Issue(c.Request.Context())

	h.log.Info().Int("number", t.Number).Int("pending", pending).Msg("ticket issued")
	c.JSON(http.StatusCreated, TicketResponse{
		Number:   t.Number,
		Pending:  pending,
		IssuedAt: t.IssuedAt.Format(time.RFC3339),
	})
}

// PendingTickets reports the waiting queue.
// GET /api/tickets/pending
func (h *APIHandlers) PendingTickets(c *gin.Context) {
	count, next := h.desk.Pending()

	resp := PendingResponse{Pending: count}
	if next != nil {
		resp.Next = &next.Number
	}
	c.JSON(http.StatusOK, resp)
}

// Attend assigns the oldest pending ticket to a desk.
// POST /api/desks/:desk/attend
func (h *APIHandlers) Attend(c *gin.Context) {
	desk := c.Param("desk")

	a, err := h.desk.Attend(c.Request.Context(), desk)
	if err != nil {
		switch {
		case errors.Is(err, tickets.ErrDeskRequired):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, tickets.ErrNoPendingTickets):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		default:
			h.writeAssignError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, proto.Assignment{
		Number: proto.Identifier(a.Number),
		Desk:   proto.Identifier(a.Desk),
	})
}

func (h *APIHandlers) writeAssignError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidAssignment):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrHubStopped):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "board unavailable"})
	default:
		h.log.Error().Err(err).Msg("failed to assign ticket")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kube-rca/workflow-tickets/internal/model"
)

// ticketService - 서비스 인터페이스
type ticketService interface {
	List(ctx context.Context, f model.TicketFilter) ([]model.Ticket, error)
	Get(ctx context.Context, id string) (*model.Ticket, error)
	UpdateStatus(ctx context.Context, id, status string, now time.Time) (*model.Ticket, error)
}

// TicketHandler - 티켓 목록/상세/해결 핸들러
type TicketHandler struct {
	svc ticketService
	now func() time.Time
}

func NewTicketHandler(svc ticketService) *TicketHandler {
	return &TicketHandler{svc: svc, now: time.Now}
}

// List godoc
// @Summary List tickets
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param status query string false "open, done or superseded"
// @Param repo query string false "Repository"
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Offset"
// @Success 200 {object} model.TicketListResponse
// @Failure 400,401 {object} model.ErrorResponse
// @Failure 503 {object} model.ErrorResponse
// @Router /todos [get]
func (h *TicketHandler) List(c *gin.Context) {
	filter := model.TicketFilter{
		Repo:   c.Query("repo"),
		Status: model.TicketStatus(c.Query("status")),
	}

	var ok bool
	if filter.Limit, ok = queryInt(c, "limit"); !ok {
		return
	}
	if filter.Offset, ok = queryInt(c, "offset"); !ok {
		return
	}

	items, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.TicketListResponse{Items: items})
}

// Get godoc
// @Summary Get a ticket by ID
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Success 200 {object} model.Ticket
// @Failure 401,404 {object} model.ErrorResponse
// @Failure 503 {object} model.ErrorResponse
// @Router /todos/{id} [get]
func (h *TicketHandler) Get(c *gin.Context) {
	ticket, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// UpdateStatus godoc
// @Summary Resolve a ticket
// @Description Only open → done is allowed; closed tickets cannot be reopened.
// @Tags tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Param request body model.UpdateTicketStatusRequest true "Target status"
// @Success 200 {object} model.TicketUpdateResponse
// @Failure 400,401,404,409 {object} model.ErrorResponse
// @Failure 503 {object} model.ErrorResponse
// @Router /todos/{id} [patch]
func (h *TicketHandler) UpdateStatus(c *gin.Context) {
	var req model.UpdateTicketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON")
		return
	}

	ticket, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, h.now())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if subject := GetAuthSubject(c); subject != "" {
		log.Printf("[Tickets] %s set ticket %s to %s", subject, ticket.ID, ticket.Status)
	}
	c.JSON(http.StatusOK, model.TicketUpdateResponse{Status: "ok", Ticket: ticket})
}

func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "`"+key+"` must be an integer")
		return 0, false
	}
	return n, true
}

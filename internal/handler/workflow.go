package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/kube-rca/workflow-tickets/internal/model"
)

// 웹훅 body 상한 (필드 4개짜리 JSON)
const maxIngestBodyBytes = 64 << 10

// ingestService - 서비스 인터페이스
type ingestService interface {
	Handle(ctx context.Context, event model.WorkflowEvent, now time.Time) (*model.IngestResult, error)
}

// WorkflowHandler - CI/CD 워크플로 결과 웹훅 핸들러
type WorkflowHandler struct {
	svc ingestService
	now func() time.Time
}

func NewWorkflowHandler(svc ingestService) *WorkflowHandler {
	return &WorkflowHandler{svc: svc, now: time.Now}
}

// Ingest godoc
// @Summary Receive a workflow outcome
// @Description failure creates, updates or rotates the repo's open ticket; success is ignored.
// @Tags workflow
// @Accept json
// @Produce json
// @Param X-Workflow-Secret header string false "Shared secret (required when WORKFLOW_SECRET is set)"
// @Param request body model.WorkflowEvent true "Workflow outcome"
// @Success 202 {object} model.WorkflowEventResponse
// @Failure 400,401,413 {object} model.ErrorResponse
// @Failure 503 {object} model.ErrorResponse
// @Router /workflow-failure [post]
func (h *WorkflowHandler) Ingest(c *gin.Context) {
	event, ok := bindWorkflowEvent(c)
	if !ok {
		return
	}

	res, err := h.svc.Handle(c.Request.Context(), event, h.now())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, model.NewWorkflowEventResponse(res))
}

// bindWorkflowEvent - body가 없으면 {}로 취급, JSON object만 허용
// 공백만 있는 body는 잘못된 JSON
func bindWorkflowEvent(c *gin.Context) (model.WorkflowEvent, bool) {
	var event model.WorkflowEvent

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxIngestBodyBytes)
	raw, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body is too large")
			return event, false
		}
		writeError(c, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON")
		return event, false
	}
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	if !json.Valid(raw) {
		writeError(c, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON")
		return event, false
	}
	body := bytes.TrimSpace(raw)
	if body[0] != '{' {
		writeError(c, http.StatusBadRequest, "INVALID_JSON", "Body must be a JSON object")
		return event, false
	}

	if err := binding.JSON.BindBody(body, &event); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "`repo`, `status`, `errorMessage` and `runUrl` must be strings")
		return event, false
	}
	return event, true
}

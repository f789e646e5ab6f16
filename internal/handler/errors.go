package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kube-rca/workflow-tickets/internal/model"
	"github.com/kube-rca/workflow-tickets/internal/service"
)

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, model.ErrorResponse{
		Error: model.ErrorDetail{Code: code, Message: message},
	})
}

// writeServiceError - service 에러를 {error:{code,message}} 응답으로 변환
func writeServiceError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(c, http.StatusBadRequest, verr.Code, verr.Message)
	case errors.Is(err, service.ErrUnauthorized):
		writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	case errors.Is(err, service.ErrTicketNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "ticket not found")
	case errors.Is(err, service.ErrInvalidTransition):
		writeError(c, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, service.ErrRetryExhausted):
		// 재시도해도 최종 상태는 같음
		c.Header("Retry-After", "1")
		writeError(c, http.StatusServiceUnavailable, "RETRY_EXHAUSTED", "concurrent updates for this repo, retry the request")
	default:
		log.Printf("[Handler] Store failure on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		writeError(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "ticket store unavailable")
	}
}

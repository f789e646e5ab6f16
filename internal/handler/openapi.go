package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kube-rca/workflow-tickets/docs"
)

// OpenAPIDoc returns the registered OpenAPI document for the ticket API.
func OpenAPIDoc(c *gin.Context) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(docs.SwaggerInfo.ReadDoc()))
}

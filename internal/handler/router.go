package handler

import (
	"github.com/gin-gonic/gin"
)

// RouterDeps - 라우터 구성에 필요한 핸들러/검증기
type RouterDeps struct {
	Workflow       *WorkflowHandler
	Tickets        *TicketHandler
	SecretVerifier secretVerifier
	SecretHeader   string
	TokenVerifier  tokenVerifier
	AllowedOrigins []string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(CORSMiddleware(deps.AllowedOrigins, deps.SecretHeader))

	router.GET("/", Root)
	router.GET("/ping", Ping)
	router.GET("/openapi.json", OpenAPIDoc)

	router.POST("/workflow-failure",
		WorkflowSecretMiddleware(deps.SecretVerifier, deps.SecretHeader),
		deps.Workflow.Ingest,
	)

	todos := router.Group("/todos", TokenAuthMiddleware(deps.TokenVerifier))
	{
		todos.GET("", deps.Tickets.List)
		todos.GET("/:id", deps.Tickets.Get)
		todos.PATCH("/:id", deps.Tickets.UpdateStatus)
	}

	router.NoRoute(NoRoute)
	return router
}

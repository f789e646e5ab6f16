package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const authSubjectKey = "auth_subject"

type secretVerifier interface {
	Verify(provided string) error
}

type tokenVerifier interface {
	Enabled() bool
	ParseAccessToken(token string) (string, error)
}

// WorkflowSecretMiddleware - 웹훅 shared secret 검사
func WorkflowSecretMiddleware(verifier secretVerifier, header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := verifier.Verify(c.GetHeader(header)); err != nil {
			writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid "+header)
			return
		}
		c.Next()
	}
}

// TokenAuthMiddleware - 티켓 API Bearer 토큰 검사 (secret 미설정 시 통과)
func TokenAuthMiddleware(verifier tokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !verifier.Enabled() || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
			return
		}

		subject, err := verifier.ParseAccessToken(token)
		if err != nil {
			writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
			return
		}

		c.Set(authSubjectKey, subject)
		c.Next()
	}
}

func GetAuthSubject(c *gin.Context) string {
	return c.GetString(authSubjectKey)
}

// CORSMiddleware - "*"는 모든 origin 허용, preflight는 204로 종료
func CORSMiddleware(allowedOrigins []string, extraHeaders ...string) gin.HandlerFunc {
	allowAny := false
	originMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			allowAny = true
			continue
		}
		originMap[trimmed] = struct{}{}
	}

	headers := append([]string{"Content-Type", "Authorization"}, extraHeaders...)
	allowHeaders := strings.Join(headers, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowAny {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			if _, ok := originMap[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
		}
		c.Header("Access-Control-Allow-Headers", allowHeaders)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// NoRoute - 등록되지 않은 경로
func NoRoute(c *gin.Context) {
	writeError(c, http.StatusNotFound, "NOT_FOUND", "No route for "+c.Request.Method+" "+c.Request.URL.Path)
}

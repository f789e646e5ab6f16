package service

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kube-rca/workflow-tickets/internal/config"
)

// AccessTokenVerifier - 티켓 API 호출자(triage UI/도구)의 HS256 Bearer 토큰 검증
//
// TICKETS_JWT_SECRET이 비어 있으면 Enabled() == false (인증 없이 허용)
type AccessTokenVerifier struct {
	jwtSecret []byte
}

func NewAccessTokenVerifier(cfg config.AuthConfig) *AccessTokenVerifier {
	return &AccessTokenVerifier{jwtSecret: []byte(cfg.JWTSecret)}
}

func (v *AccessTokenVerifier) Enabled() bool {
	return len(v.jwtSecret) > 0
}

// ParseAccessToken - 서명/만료 검증 후 subject 반환
func (v *AccessTokenVerifier) ParseAccessToken(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnauthorized
		}
		return v.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrUnauthorized
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrUnauthorized)
	}
	return subject, nil
}

// WorkflowSecretVerifier - 웹훅 shared secret 비교
// secret이 비어 있으면 모든 요청 허용 (개발용 기본값)
type WorkflowSecretVerifier struct {
	secret string
}

func NewWorkflowSecretVerifier(cfg config.WorkflowConfig) *WorkflowSecretVerifier {
	return &WorkflowSecretVerifier{secret: cfg.Secret}
}

func (v *WorkflowSecretVerifier) Verify(provided string) error {
	if v.secret == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(provided), []byte(v.secret)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

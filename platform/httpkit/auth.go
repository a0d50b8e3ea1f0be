package httpkit

import (
	"errors"
	"net/http"
	"strings"

	"dealflow_backend/platform/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	errMissingToken = "missing token"
	errInvalidToken = "invalid token"

	accessTokenType = "access"
)

// AccessClaims is the payload of an agent access token. The subject is the
// agent's user id.
type AccessClaims struct {
	jwt.RegisteredClaims
	Type  string   `json:"type"`
	Roles []string `json:"roles,omitempty"`
}

// AuthRequired validates the HS256 access token from the Authorization
// header. The token query parameter is accepted as a fallback because
// EventSource cannot send headers.
func AuthRequired(cfg config.JWTConfig) gin.HandlerFunc {
	secret := []byte(cfg.GetJWTAccessSecret())
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			raw = c.Query("token")
		}
		if raw == "" {
			abortUnauthorized(c, errMissingToken)
			return
		}

		userID, roles, err := verifyAccessToken(parser, secret, raw)
		if err != nil {
			abortUnauthorized(c, errInvalidToken)
			return
		}

		SetIdentity(c, userID, roles)
		c.Next()
	}
}

func verifyAccessToken(parser *jwt.Parser, secret []byte, raw string) (uuid.UUID, []string, error) {
	var claims AccessClaims
	token, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, nil, errors.New(errInvalidToken)
	}
	if claims.Type != accessTokenType {
		return uuid.Nil, nil, errors.New(errInvalidToken)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, nil, errors.New(errInvalidToken)
	}
	return userID, claims.Roles, nil
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: message})
}

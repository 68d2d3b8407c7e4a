package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"visualdilemma/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RoleAdmin - роль, открывающая публикацию и деактивацию колод.
const RoleAdmin = "admin"

// Ключи gin.Context, которые выставляет AdminAuth.
const (
	ContextKeySubject = "subject"
	ContextKeyRole    = "role"
)

// Claims - клеймы токена администратора.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ParseToken проверяет подпись HS256 и срок действия токена.
func ParseToken(tokenString, secretKey string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is invalid")
	}
	return claims, nil
}

// AdminAuth пропускает только запросы с Bearer-токеном, где role == admin.
func AdminAuth(secretKey string, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("AdminAuth")
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Authorization header missing", zap.String("path", c.Request.URL.Path))
			abort(c, http.StatusUnauthorized, models.ErrCodeUnauthorized, "Authorization header missing")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format", zap.String("path", c.Request.URL.Path))
			abort(c, http.StatusUnauthorized, models.ErrCodeUnauthorized, "Invalid Authorization header format")
			return
		}

		claims, err := ParseToken(parts[1], secretKey)
		if err != nil {
			log.Warn("Token verification failed", zap.Error(err))
			msg := "Token is invalid"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Token has expired"
			}
			abort(c, http.StatusUnauthorized, models.ErrCodeUnauthorized, msg)
			return
		}

		if claims.Role != RoleAdmin {
			log.Warn("Admin role required",
				zap.String("subject", claims.Subject),
				zap.String("role", claims.Role))
			abort(c, http.StatusForbidden, models.ErrCodeForbidden, "Admin privileges required")
			return
		}

		c.Set(ContextKeySubject, claims.Subject)
		c.Set(ContextKeyRole, claims.Role)
		log.Debug("Admin authorized", zap.String("subject", claims.Subject))
		c.Next()
	}
}

func abort(c *gin.Context, status, code int, msg string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Code: code, Message: msg})
}

// GenerateTestJWT создает подписанный токен.
// ВАЖНО: только для тестов и локальной отладки.
func GenerateTestJWT(subject, role, secretKey string, validity time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign test JWT: %w", err)
	}
	return tokenString, nil
}

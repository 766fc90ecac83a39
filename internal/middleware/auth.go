package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"bugmeet/internal/config"
	"bugmeet/internal/domain"
	"bugmeet/pkg/logger"
)

// AuthMiddleware валидирует JWT токены внешнего Auth-сервиса.
// Сам сервис токены не выпускает и пароли не хранит.
type AuthMiddleware struct {
	jwtSecret []byte
	issuer    string
	log       logger.Logger
}

// ExternalJWTClaims - структура claims от Auth-сервиса багтрекера:
// user_id, username и роль
type ExternalJWTClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func NewAuthMiddleware(cfg config.AuthConfig, log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: []byte(cfg.JWTSecret),
		issuer:    cfg.Issuer,
		log:       log,
	}
}

// RequireAuth требует валидный токен: создание и листинг митингов
// доступны только аутентифицированным пользователям
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := m.userFromHeader(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Next()
	}
}

// OptionalAuth проверяет токен если он есть, но пускает и гостей:
// join/leave/чат работают для анонимных участников
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := m.userFromHeader(c)
		if err == nil {
			c.Set("user", user)
		}
		c.Next()
	}
}

func (m *AuthMiddleware) userFromHeader(c *gin.Context) (*domain.AuthUser, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("authorization header required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, fmt.Errorf("invalid authorization header format")
	}

	claims, err := m.parseToken(parts[1])
	if err != nil {
		m.log.Debug("Token validation failed", "error", err)
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id in token")
	}

	role := claims.Role
	if role == "" {
		role = domain.GlobalRoleUser
	}

	return &domain.AuthUser{
		ID:       userID,
		Username: claims.Username,
		Role:     role,
	}, nil
}

func (m *AuthMiddleware) parseToken(tokenString string) (*ExternalJWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ExternalJWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*ExternalJWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token claims")
}

// UserFromContext достает идентичность из контекста gin (nil для гостя)
func UserFromContext(c *gin.Context) *domain.AuthUser {
	value, exists := c.Get("user")
	if !exists {
		return nil
	}
	user, ok := value.(*domain.AuthUser)
	if !ok {
		return nil
	}
	return user
}

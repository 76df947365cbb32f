package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const (
	ContextUserAddress = "user_address"
	ContextUserRole    = "user_role"

	RoleAdmin = "admin"

	tokenTypeAccess = "access"
)

// Claims represents JWT token claims
type Claims struct {
	Address   string `json:"address"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"tokenType"`
	jwt.RegisteredClaims
}

// AuthMiddleware handles authentication and authorization
type AuthMiddleware struct {
	jwtSecret string
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{jwtSecret: jwtSecret}
}

// RequireAuth rejects requests without a valid access token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is required",
			})
			c.Abort()
			return
		}

		claims, err := m.validateJWTToken(token)
		if err != nil {
			logrus.WithError(err).Warn("JWT token validation failed")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth sets the caller identity when a valid token is present and
// lets anonymous requests through otherwise.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" {
			claims, err := m.validateJWTToken(token)
			if err != nil {
				logrus.WithError(err).Debug("Ignoring invalid optional token")
			} else {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// RequireRole checks the role set by RequireAuth.
func (m *AuthMiddleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString(ContextUserRole)
		if userRole == "" {
			logrus.Error("User role not found in context - ensure RequireAuth middleware runs first")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}

		if userRole != role {
			logrus.WithFields(logrus.Fields{
				"user_address": c.GetString(ContextUserAddress),
				"user_role":    userRole,
				"required":     role,
			}).Warn("User attempted to access endpoint without required role")

			c.JSON(http.StatusForbidden, gin.H{
				"error": "Access forbidden - insufficient privileges",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// CallerAddress returns the authenticated address, or "" for anonymous callers.
func CallerAddress(c *gin.Context) string {
	return c.GetString(ContextUserAddress)
}

func IsAdmin(c *gin.Context) bool {
	return c.GetString(ContextUserRole) == RoleAdmin
}

func setClaims(c *gin.Context, claims *Claims) {
	c.Set(ContextUserAddress, strings.ToLower(claims.Address))
	c.Set(ContextUserRole, claims.Role)

	logrus.WithFields(logrus.Fields{
		"user_address": claims.Address,
		"user_role":    claims.Role,
	}).Debug("User authenticated successfully")
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		logrus.Debug("Invalid authorization header format")
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// validateJWTToken parses the token and checks signature, expiry and type.
func (m *AuthMiddleware) validateJWTToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(m.jwtSecret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("token expired")
		}
		return nil, errors.New("invalid token")
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	if claims.TokenType != tokenTypeAccess {
		return nil, errors.New("invalid token type")
	}

	if claims.Address == "" {
		return nil, errors.New("token has no address")
	}

	return claims, nil
}

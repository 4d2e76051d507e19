package middleware

import (
	stderrors "errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sellora/sellora-backend/internal/app/model"
	"github.com/sellora/sellora-backend/internal/errors"
	"github.com/sellora/sellora-backend/pkg/redis"
	"github.com/sellora/sellora-backend/pkg/util"
)

// Context keys for identity information
const (
	UserIDKey      = "user_id"
	UserEmailKey   = "user_email"
	UserRoleKey    = "user_role"
	GuestIDKey     = "guest_id"
	TokenKey       = "access_token"
	TokenExpiryKey = "access_token_expires_at"
)

// GuestSessionHeader carries the anonymous session token. Clients keep the
// value returned on their first cart request.
const GuestSessionHeader = "X-Guest-Session"

// errRevokedToken marks a structurally valid token that was blacklisted at
// logout.
var errRevokedToken = stderrors.New("token has been revoked")

type AuthMiddleware struct {
	jwtSecret    string
	redisEnabled bool
}

func NewAuthMiddleware(jwtSecret string, redisEnabled bool) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret:    jwtSecret,
		redisEnabled: redisEnabled,
	}
}

func (m *AuthMiddleware) bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

func (m *AuthMiddleware) validate(c *gin.Context, token string) (*util.Claims, error) {
	if m.redisEnabled {
		revoked, err := redis.IsTokenBlacklisted(c.Request.Context(), token)
		if err == nil && revoked {
			return nil, errRevokedToken
		}
	}
	return util.ValidateToken(token, m.jwtSecret)
}

// Authenticate requires a valid access token.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, ok := m.bearerToken(c)
		if !ok {
			log.Warn("Missing or malformed authorization header", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.Unauthorized(c, "")
			c.Abort()
			return
		}

		claims, err := m.validate(c, token)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			switch {
			case stderrors.Is(err, util.ErrExpiredToken):
				errors.RespondWithError(c, 401, errors.AuthTokenExpired, "Session has expired")
			case stderrors.Is(err, errRevokedToken):
				errors.RespondWithError(c, 401, errors.AuthTokenRevoked, "Session has been logged out")
			default:
				errors.RespondWithError(c, 401, errors.AuthTokenInvalid, "Invalid access token")
			}
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(UserRoleKey, model.UserRole(claims.Role))
		c.Set(TokenKey, token)
		if claims.ExpiresAt != nil {
			c.Set(TokenExpiryKey, claims.ExpiresAt.Time)
		}
		c.Next()
	}
}

// ResolveActor identifies the caller as either an authenticated user or a
// guest session. A valid bearer token wins; otherwise the guest session
// header is used, minted on first contact and echoed back in the response.
func (m *AuthMiddleware) ResolveActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := m.bearerToken(c); ok {
			if claims, err := m.validate(c, token); err == nil {
				c.Set(UserIDKey, claims.UserID)
				c.Set(UserEmailKey, claims.Email)
				c.Set(UserRoleKey, model.UserRole(claims.Role))
				c.Next()
				return
			}
		}

		guestID := c.GetHeader(GuestSessionHeader)
		if guestID == "" {
			guestID = uuid.NewString()
		}
		c.Set(GuestIDKey, guestID)
		c.Header(GuestSessionHeader, guestID)
		c.Next()
	}
}

// RequireRole checks that the authenticated user has one of the given roles.
func (m *AuthMiddleware) RequireRole(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		value, exists := c.Get(UserRoleKey)
		if !exists {
			errors.Forbidden(c, "")
			c.Abort()
			return
		}

		role := value.(model.UserRole)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		userID, _ := GetUserID(c)
		log.Warn("Insufficient permissions", map[string]interface{}{
			"user_id":   userID,
			"user_role": role,
			"path":      c.Request.URL.Path,
		})
		if len(roles) == 1 && roles[0] == model.RoleAdmin {
			errors.RespondWithError(c, 403, errors.AuthzAdminOnly, "Admin access required")
		} else {
			errors.Forbidden(c, "")
		}
		c.Abort()
	}
}

// GetUserID extracts the authenticated user ID from context.
func GetUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := value.(uint)
	return userID, ok
}

// IsAdmin reports whether the authenticated user carries the admin role.
func IsAdmin(c *gin.Context) bool {
	value, exists := c.Get(UserRoleKey)
	if !exists {
		return false
	}
	role, ok := value.(model.UserRole)
	return ok && role.IsAdmin()
}

// GetActor builds the identity for cart operations from context. It reports
// false when ResolveActor did not run.
func GetActor(c *gin.Context) (model.Actor, bool) {
	if userID, ok := GetUserID(c); ok {
		actor := model.UserActor(userID)
		return actor, actor.Valid()
	}
	if guestID := c.GetString(GuestIDKey); guestID != "" {
		actor := model.GuestActor(guestID)
		return actor, actor.Valid()
	}
	return model.Actor{}, false
}

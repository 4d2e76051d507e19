package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sellora/sellora-backend/internal/app/service"
	"github.com/sellora/sellora-backend/internal/errors"
	"github.com/sellora/sellora-backend/internal/middleware"
	"github.com/sellora/sellora-backend/pkg/redis"
)

type AuthController struct {
	authService service.AuthService
	cartService service.CartService
}

func NewAuthController(authService service.AuthService, cartService service.CartService) *AuthController {
	return &AuthController{
		authService: authService,
		cartService: cartService,
	}
}

func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var input service.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	result, err := ctrl.authService.Register(input)
	if err != nil {
		log.Warn("Registration failed", map[string]interface{}{
			"email": input.Email,
			"error": err.Error(),
		})
		errors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Login authenticates and, when the request carries a guest session, folds
// the guest cart into the user's cart.
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var input service.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	result, err := ctrl.authService.Login(input)
	if err != nil {
		errors.Respond(c, err)
		return
	}

	if guestID := c.GetHeader(middleware.GuestSessionHeader); guestID != "" {
		if _, err := ctrl.cartService.MergeGuestCart(result.User.ID, guestID); err != nil {
			// Login still succeeds; the guest cart stays behind for a retry.
			log.Error("Guest cart merge failed during login", err, map[string]interface{}{
				"user_id":  result.User.ID,
				"guest_id": guestID,
			})
		}
	}

	c.JSON(http.StatusOK, result)
}

// Logout revokes the current access token for the rest of its lifetime.
// Without redis the token simply ages out on its own.
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	token := c.GetString(middleware.TokenKey)
	if token == "" {
		errors.Unauthorized(c, "")
		return
	}

	if redis.GetClient() != nil {
		if value, ok := c.Get(middleware.TokenExpiryKey); ok {
			if until := time.Until(value.(time.Time)); until > 0 {
				if err := redis.BlacklistToken(c.Request.Context(), token, until); err != nil {
					log.Error("Failed to revoke token", err, nil)
					errors.InternalError(c, "")
					return
				}
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (ctrl *AuthController) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	user, err := ctrl.authService.GetUser(userID)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

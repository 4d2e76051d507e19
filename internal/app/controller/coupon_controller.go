package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sellora/sellora-backend/internal/app/service"
	"github.com/sellora/sellora-backend/internal/errors"
	"github.com/sellora/sellora-backend/internal/middleware"
)

type CouponController struct {
	couponService service.CouponService
}

func NewCouponController(couponService service.CouponService) *CouponController {
	return &CouponController{couponService: couponService}
}

type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// ==================== Admin ====================

func (ctrl *CouponController) CreateCoupon(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var input service.CouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	coupon, err := ctrl.couponService.CreateCoupon(input)
	if err != nil {
		log.Warn("Coupon creation rejected", map[string]interface{}{
			"code":  input.Code,
			"error": err.Error(),
		})
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"coupon": coupon})
}

func (ctrl *CouponController) UpdateCoupon(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input service.CouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	coupon, err := ctrl.couponService.UpdateCoupon(id, input)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupon": coupon})
}

func (ctrl *CouponController) DeleteCoupon(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	hard := strings.EqualFold(c.DefaultQuery("hard", "false"), "true")
	if err := ctrl.couponService.DeleteCoupon(id, hard); err != nil {
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Coupon deleted"})
}

func (ctrl *CouponController) GetCoupon(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	coupon, err := ctrl.couponService.GetCoupon(id)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupon": coupon})
}

func (ctrl *CouponController) ListCoupons(c *gin.Context) {
	coupons, err := ctrl.couponService.ListCoupons()
	if err != nil {
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"coupons": coupons,
		"count":   len(coupons),
	})
}

// ==================== Cart-facing ====================

func (ctrl *CouponController) ApplyCoupon(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := middleware.GetActor(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	var req ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	summary, err := ctrl.couponService.ApplyCoupon(actor, req.Code)
	if err != nil {
		log.Info("Coupon application rejected", map[string]interface{}{
			"code":  req.Code,
			"error": err.Error(),
		})
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": summary})
}

func (ctrl *CouponController) RemoveCoupon(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	summary, err := ctrl.couponService.RemoveCoupon(actor, c.Param("code"))
	if err != nil {
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": summary})
}

// BestCoupon suggests the most favorable live coupon for the current cart.
func (ctrl *CouponController) BestCoupon(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	coupon, quote, err := ctrl.couponService.BestCouponForCart(actor)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	if coupon == nil {
		c.JSON(http.StatusOK, gin.H{"coupon": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"coupon":   coupon,
		"discount": quote.Amount,
	})
}

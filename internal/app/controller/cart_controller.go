package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sellora/sellora-backend/internal/app/service"
	"github.com/sellora/sellora-backend/internal/errors"
	"github.com/sellora/sellora-backend/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{cartService: cartService}
}

type AddItemRequest struct {
	ProductID uint  `json:"product_id" binding:"required"`
	VariantID *uint `json:"variant_id"`
	Quantity  int   `json:"quantity" binding:"required"`
}

type UpdateItemRequest struct {
	ProductID uint  `json:"product_id" binding:"required"`
	VariantID *uint `json:"variant_id"`
	Quantity  int   `json:"quantity"`
	// Absolute sets the quantity outright; otherwise Quantity is a delta.
	Absolute bool `json:"absolute"`
}

type RemoveItemRequest struct {
	ProductID uint  `json:"product_id" binding:"required"`
	VariantID *uint `json:"variant_id"`
}

func (ctrl *CartController) GetCart(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	summary, err := ctrl.cartService.GetCart(actor)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": summary})
}

func (ctrl *CartController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := middleware.GetActor(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	item, err := ctrl.cartService.AddItem(actor, req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		log.Warn("Add to cart rejected", map[string]interface{}{
			"product_id": req.ProductID,
			"quantity":   req.Quantity,
			"error":      err.Error(),
		})
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

func (ctrl *CartController) UpdateItem(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	result, err := ctrl.cartService.UpdateItem(actor, req.ProductID, req.VariantID, req.Quantity, req.Absolute)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (ctrl *CartController) RemoveItem(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	var req RemoveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	if err := ctrl.cartService.RemoveItem(actor, req.ProductID, req.VariantID); err != nil {
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed"})
}

func (ctrl *CartController) ClearCart(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	if err := ctrl.cartService.ClearCart(actor); err != nil {
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

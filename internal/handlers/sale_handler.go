package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"go-retail-pos/internal/sales"

	"github.com/gin-gonic/gin"
)

// SaleHandler serves the POS checkout endpoint.
type SaleHandler struct {
	Engine *sales.Engine
}

// SaleRequest defines what the register screen sends us.
// Prices are intentionally absent: the engine reads them from the
// catalog so a tampered client can't set its own.
type SaleRequest struct {
	Items         []sales.CartLine `json:"items" binding:"required"`
	PaymentMethod string           `json:"payment_method"`
	CustomerID    *uint            `json:"customer_id"`
}

// --- POST: /api/checkout ---
// Every failure kind gets its own stable code so the register UI can
// show the cashier exactly what went wrong.
func (h *SaleHandler) ProcessSale(c *gin.Context) {
	var req SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "code": "bad_request"})
		return
	}

	cashierID := c.MustGet("userID").(uint)

	result, err := h.Engine.CompleteSale(c.Request.Context(), req.Items, req.PaymentMethod, req.CustomerID, cashierID)
	if err != nil {
		h.renderSaleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Sale successful!",
		"sale_id":        result.SaleID,
		"invoice_number": result.InvoiceNumber,
		"total":          result.TotalAmount,
		"points_earned":  result.PointsEarned,
	})
}

func (h *SaleHandler) renderSaleError(c *gin.Context, err error) {
	var (
		unknownErr  *sales.UnknownProductError
		quantityErr *sales.InvalidQuantityError
		stockErr    *sales.InsufficientStockError
	)
	switch {
	case errors.Is(err, sales.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Cart is empty",
			"code":  "empty_cart",
		})
	case errors.As(err, &unknownErr):
		c.JSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf("Product %d not found", unknownErr.ProductID),
			"code":  "unknown_product",
		})
	case errors.As(err, &quantityErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Invalid quantity for product %d", quantityErr.ProductID),
			"code":  "invalid_quantity",
		})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     fmt.Sprintf("Insufficient stock for %s", stockErr.ProductName),
			"code":      "insufficient_stock",
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})
	default:
		// Unexpected commit failure: the transaction already rolled
		// back, the caller gets a generic message, the detail is logged.
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to complete sale",
			"code":  "internal",
		})
	}
}

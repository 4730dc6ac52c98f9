package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"go-retail-pos/internal/ledger"
	"go-retail-pos/internal/models"

	"github.com/gin-gonic/gin"
)

// CustomerHandler serves the loyalty-ledger endpoints.
type CustomerHandler struct {
	Ledger *ledger.Ledger
}

// --- GET: List customers with filters ---
// ?search=&type=regular|vip|premium
func (h *CustomerHandler) GetCustomers(c *gin.Context) {
	customers, err := h.Ledger.List(c.Request.Context(), ledger.ListFilter{
		Search:       c.Query("search"),
		CustomerType: c.Query("type"),
		ActiveOnly:   c.Query("include_inactive") != "true",
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch customers"})
		return
	}
	c.JSON(http.StatusOK, customers)
}

// --- GET: Single customer ---
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Customer ID"})
		return
	}

	customer, err := h.Ledger.GetByID(c.Request.Context(), uint(id))
	if errors.Is(err, ledger.ErrCustomerNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lookup failed"})
		return
	}
	c.JSON(http.StatusOK, customer)
}

// --- POST: Register a customer ---
func (h *CustomerHandler) AddCustomer(c *gin.Context) {
	var customer models.Customer
	if err := c.ShouldBindJSON(&customer); err != nil || customer.Name == "" || customer.Phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and phone are required"})
		return
	}

	err := h.Ledger.Create(c.Request.Context(), &customer)
	if errors.Is(err, ledger.ErrDuplicateContact) {
		c.JSON(http.StatusConflict, gin.H{"error": "Phone or email already registered"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create customer"})
		return
	}
	c.JSON(http.StatusCreated, customer)
}

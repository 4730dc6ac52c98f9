package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go-retail-pos/internal/catalog"
	"go-retail-pos/internal/models"

	"github.com/gin-gonic/gin"
)

// ProductHandler serves the catalog endpoints.
type ProductHandler struct {
	Store      *catalog.Store
	UploadsDir string
	BaseURL    string
}

// --- GET: List products with filters ---
// ?search=&category_id=&stock=in_stock|low_stock|out_of_stock&page=&per_page=
func (h *ProductHandler) GetProducts(c *gin.Context) {
	filter := catalog.ListFilter{
		Search:     c.Query("search"),
		Stock:      catalog.StockState(c.Query("stock")),
		ActiveOnly: c.Query("include_inactive") != "true",
		Page:       atoiDefault(c.Query("page"), 1),
		PerPage:    atoiDefault(c.Query("per_page"), 0),
	}
	if id, err := strconv.Atoi(c.Query("category_id")); err == nil {
		filter.CategoryID = uint(id)
	}

	products, total, err := h.Store.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products, "total": total})
}

// --- GET: Scan a barcode at the register ---
func (h *ProductHandler) ScanProduct(c *gin.Context) {
	product, err := h.Store.GetByBarcode(c.Request.Context(), c.Param("barcode"))
	if errors.Is(err, catalog.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lookup failed"})
		return
	}
	c.JSON(http.StatusOK, product)
}

// --- POST: Add a new product ---
func (h *ProductHandler) AddProduct(c *gin.Context) {
	var newProduct models.Product
	if err := c.ShouldBindJSON(&newProduct); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if newProduct.Price < 0 || newProduct.StockQuantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price and stock must not be negative"})
		return
	}

	if err := h.Store.CreateProduct(c.Request.Context(), &newProduct); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to create product (duplicate barcode?)"})
		return
	}
	c.JSON(http.StatusCreated, newProduct)
}

// --- PUT: Update price, details or category ---
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Product ID"})
		return
	}

	// We use a map so we only update what was sent (partial update).
	var updateData map[string]interface{}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	product, err := h.Store.UpdateProduct(c.Request.Context(), uint(id), updateData)
	if errors.Is(err, catalog.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
}

// --- POST: Restock a product ---
func (h *ProductHandler) RestockProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Product ID"})
		return
	}

	var input struct {
		Delta int `json:"delta" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	err = h.Store.AdjustStock(c.Request.Context(), uint(id), input.Delta)
	var stockErr *catalog.InsufficientStockError
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Adjustment would drive stock negative", "available": stockErr.Available})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to adjust stock"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Stock adjusted"})
	}
}

// --- DELETE: Deactivate a product ---
// Products are never removed; past sales keep their references.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Product ID"})
		return
	}

	if err := h.Store.DeactivateProduct(c.Request.Context(), uint(id)); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deactivated"})
}

// --- UPLOAD: Handle product image files ---
func (h *ProductHandler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	// Unique, collision-safe filename: "167890123_burger.jpg"
	filename := fmt.Sprintf("%d_%s", time.Now().Unix(), file.Filename)
	if err := c.SaveUploadedFile(file, h.UploadsDir+"/"+filename); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "File uploaded successfully",
		"url":     h.BaseURL + "/uploads/" + filename,
	})
}

// --- Categories ---

func (h *ProductHandler) GetCategories(c *gin.Context) {
	categories, err := h.Store.ListCategories(c.Request.Context(), c.Query("include_inactive") != "true")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *ProductHandler) AddCategory(c *gin.Context) {
	var category models.Category
	if err := c.ShouldBindJSON(&category); err != nil || category.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if err := h.Store.CreateCategory(c.Request.Context(), &category); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *ProductHandler) DeleteCategory(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Category ID"})
		return
	}
	if err := h.Store.DeactivateCategory(c.Request.Context(), uint(id)); err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate category"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deactivated"})
}

func atoiDefault(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

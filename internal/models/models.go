package models

import (
	"time"
)

// User - The person operating the terminal
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:80" json:"username"`
	Email        string     `gorm:"uniqueIndex;size:120" json:"email"`
	PasswordHash string     `json:"-"` // Never return this in JSON
	Role         string     `gorm:"size:20;default:cashier" json:"role"` // 'admin', 'manager', 'cashier'
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	AvatarURL    string     `gorm:"size:200" json:"avatar_url"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Category - Groups products; deactivated rather than deleted, so
// products may keep a stale reference
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100" json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Product - The Inventory
type Product struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:200" json:"name"`
	Barcode       *string   `gorm:"uniqueIndex;size:50" json:"barcode"` // optional; NULL rows don't collide
	Price         float64   `json:"price"`
	CostPrice     float64   `json:"cost_price"`
	StockQuantity int       `json:"stock_quantity"` // never negative; guarded at the catalog layer
	MinStock      int       `gorm:"default:5" json:"min_stock"`
	CategoryID    uint      `json:"category_id"`
	Category      Category  `json:"category"`
	Description   string    `json:"description"`
	ImagePath     string    `gorm:"size:200" json:"image_path"`
	IsActive      bool      `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Customer - Loyalty account
type Customer struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:100" json:"name"`
	Phone          string    `gorm:"uniqueIndex;size:20" json:"phone"`
	Email          *string   `gorm:"uniqueIndex;size:120" json:"email"`
	Address        string    `json:"address"`
	CustomerType   string    `gorm:"size:20;default:regular" json:"customer_type"` // 'regular', 'vip', 'premium'
	LoyaltyPoints  int       `json:"loyalty_points"`
	TotalPurchases float64   `json:"total_purchases"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// Sale - The Transaction Header
type Sale struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	InvoiceNumber string     `gorm:"uniqueIndex;size:50" json:"invoice_number"`
	TotalAmount   float64    `json:"total_amount"`
	Discount      float64    `json:"discount"`
	Tax           float64    `json:"tax"`
	PaymentMethod string     `gorm:"size:20;default:cash" json:"payment_method"` // 'cash', 'card', 'mixed'
	CashierID     uint       `json:"cashier_id"`
	CustomerID    *uint      `json:"customer_id"`
	CreatedAt     time.Time  `json:"created_at"`
	Items         []SaleItem `gorm:"foreignKey:SaleID" json:"items"`
}

// SaleItem - The specific items in a cart
type SaleItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	SaleID    uint    `json:"sale_id"`
	ProductID uint    `json:"product_id"`
	Product   Product `json:"product"` // Preload product details
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"` // Snapshot of price at time of sale
	Total     float64 `json:"total"`      // Quantity * UnitPrice, frozen at sale time
}

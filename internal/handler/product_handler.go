package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nishiko/matsuri-backend/internal/domain"
	"github.com/nishiko/matsuri-backend/internal/service"
	"github.com/shopspring/decimal"
)

// ProductHandler handles shared product catalog HTTP endpoints
type ProductHandler struct {
	productService *service.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// CreateProductRequest represents the create shared product request body
type CreateProductRequest struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

// GetProducts lists the shared product catalog.
func (h *ProductHandler) GetProducts(c echo.Context) error {
	products, err := h.productService.ListShared()
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// CreateProduct adds a product to the shared catalog.
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return NewValidationError(c, "Invalid price", []ValidationError{
			{Field: "price", Message: "Must be a valid decimal number"},
		})
	}

	product, err := h.productService.CreateShared(domain.NewProductSpec{
		Name:      req.Name,
		Price:     price,
		DoesShare: true,
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, product)
}

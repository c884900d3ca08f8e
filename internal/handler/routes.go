package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/nishiko/matsuri-backend/internal/middleware"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, eventHandler *EventHandler, walletHandler *WalletHandler, partHandler *PartHandler, purchaseHandler *PurchaseHandler, budgetHandler *BudgetHandler, productHandler *ProductHandler, receiptHandler *ReceiptHandler) {
	// API version 1
	api := e.Group("/api/v1")

	// Part routes (protected)
	parts := api.Group("/parts")
	parts.Use(authMiddleware.Authenticate())
	parts.Use(middleware.RateLimitMiddleware(rateLimiter))
	parts.GET("/:partId", partHandler.GetPart)
	parts.GET("/:partId/members", partHandler.GetMembers)
	parts.POST("/:partId/purchases", purchaseHandler.CreatePurchase)
	parts.GET("/:partId/purchases", purchaseHandler.GetPurchases)
	parts.GET("/:partId/budget", budgetHandler.GetPartBudget)

	// Purchase routes (protected)
	purchases := api.Group("/purchases")
	purchases.Use(authMiddleware.Authenticate())
	purchases.Use(middleware.RateLimitMiddleware(rateLimiter))
	purchases.GET("/:id", purchaseHandler.GetPurchase)
	purchases.POST("/:id/accountant-review", purchaseHandler.AccountantReview)
	purchases.POST("/:id/teacher-review", purchaseHandler.TeacherReview)
	purchases.POST("/:id/complete", purchaseHandler.Complete)
	purchases.POST("/:id/return", purchaseHandler.Return)
	purchases.POST("/:id/cancel", purchaseHandler.Cancel)
	purchases.POST("/:id/withdraw", purchaseHandler.Withdraw)
	purchases.POST("/:id/receipt", receiptHandler.AttachReceipt)
	purchases.GET("/:id/receipt/:receiptId", receiptHandler.GetReceipt)
	purchases.DELETE("/:id/receipt/:receiptId", receiptHandler.DeleteReceipt)

	// Product catalog routes (protected)
	products := api.Group("/products")
	products.Use(authMiddleware.Authenticate())
	products.Use(middleware.RateLimitMiddleware(rateLimiter))
	products.GET("", productHandler.GetProducts)
	products.POST("", productHandler.CreateProduct)

	// Wallet routes (protected)
	wallets := api.Group("/wallets")
	wallets.Use(authMiddleware.Authenticate())
	wallets.Use(middleware.RateLimitMiddleware(rateLimiter))
	wallets.GET("/:id", walletHandler.GetWallet)
	wallets.GET("/:id/budget", budgetHandler.GetWalletBudget)

	// Event routes (protected)
	events := api.Group("/events")
	events.Use(authMiddleware.Authenticate())
	events.Use(middleware.RateLimitMiddleware(rateLimiter))
	events.GET("", eventHandler.GetEvents)
	events.GET("/:id", eventHandler.GetEvent)
	events.GET("/:id/wallets", eventHandler.GetWallets)

	// Admin routes (protected, admin only)
	admin := api.Group("/admin")
	admin.Use(authMiddleware.Authenticate())
	admin.Use(middleware.RequireAdmin())
	admin.POST("/events", eventHandler.CreateEvent)
	admin.POST("/events/:id/wallets", eventHandler.CreateWallet)
	admin.POST("/wallets/:id/parts", walletHandler.CreatePart)
	admin.POST("/wallets/:id/teachers", walletHandler.AssignTeacher)
	admin.POST("/wallets/:id/accountants", walletHandler.AssignAccountant)
	admin.POST("/parts/:partId/members", partHandler.AddMember)
	admin.PATCH("/parts/:partId/members/:studentId", partHandler.UpdateMemberRole)
}

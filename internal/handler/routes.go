package handler

import (
	"github.com/labstack/echo/v4"
)

// Handlers groups every HTTP handler the API serves
type Handlers struct {
	Health      *HealthHandler
	Transaction *TransactionHandler
	Month       *MonthHandler
	Category    *CategoryHandler
	Budget      *BudgetHandler
	Settings    *SettingsHandler
	Profile     *ProfileHandler
	Data        *DataHandler
	WebSocket   *WebSocketHandler
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/health", h.Health.Check)

	// Live ledger events
	if h.WebSocket != nil {
		e.GET("/ws", h.WebSocket.HandleWS)
	}

	// API version 1
	api := e.Group("/api/v1")

	// Transaction routes
	transactions := api.Group("/transactions")
	transactions.GET("/recent", h.Transaction.GetRecent)
	transactions.GET("/:year/:month", h.Transaction.GetByMonth)
	transactions.POST("", h.Transaction.CreateTransaction)
	transactions.PUT("/:id", h.Transaction.UpdateTransaction)
	transactions.DELETE("/:id", h.Transaction.DeleteTransaction)
	transactions.POST("/:id/attachment", h.Transaction.UploadAttachment)
	transactions.GET("/:id/attachment", h.Transaction.GetAttachment)

	// Month routes
	months := api.Group("/months")
	months.GET("/:year/:month", h.Month.GetOverview)
	months.GET("/:year/:month/categories", h.Month.GetCategories)
	months.GET("/:year/:month/trend", h.Month.GetTrend)

	// Category routes
	categories := api.Group("/categories")
	categories.GET("", h.Category.GetCategories)
	categories.POST("", h.Category.CreateCategory)
	categories.PUT("/:id", h.Category.UpdateCategory)
	categories.DELETE("/:id", h.Category.DeleteCategory)
	categories.GET("/:id/usage", h.Category.GetUsage)

	// Budget routes
	budgets := api.Group("/budgets")
	budgets.GET("", h.Budget.GetBudgets)
	budgets.GET("/progress", h.Budget.GetProgress)
	budgets.POST("", h.Budget.CreateBudget)
	budgets.PUT("/:id", h.Budget.UpdateBudget)
	budgets.DELETE("/:id", h.Budget.DeleteBudget)

	// Settings routes
	api.GET("/settings", h.Settings.GetSettings)
	api.PUT("/settings", h.Settings.UpdateSettings)

	// Profile and family routes
	api.GET("/profile", h.Profile.GetProfile)
	api.PUT("/profile", h.Profile.UpdateProfile)
	family := api.Group("/family")
	family.GET("", h.Profile.GetFamily)
	family.POST("/members", h.Profile.InviteMember)
	family.PUT("/members/:id", h.Profile.UpdateMember)
	family.DELETE("/members/:id", h.Profile.RemoveMember)

	// Data routes
	data := api.Group("/data")
	data.POST("/export", h.Data.Export)
	data.POST("/import", h.Data.Import)
	data.POST("/reset", h.Data.Reset)
}

package router

import (
	"retail_backoffice/internal/handlers"
	"retail_backoffice/internal/middleware"
	"retail_backoffice/internal/models"

	"github.com/gin-gonic/gin"
)

// SetupPublicAuthRoutes sets up registration and login.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/register", authHandler.RegisterStore)
	group.POST("/login", authHandler.LoginUser)
}

func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetCurrentUser)
}

// SetupUserRoutes sets up store user management. Owner only.
func SetupUserRoutes(authenticatedGroup *gin.RouterGroup, userHandler *handlers.UserHandler) {
	userRoutes := authenticatedGroup.Group("/users")
	userRoutes.Use(middleware.RoleAuthMiddleware(models.RoleOwner))
	{
		userRoutes.POST("", userHandler.CreateUser)
		userRoutes.GET("", userHandler.GetUsers)
		userRoutes.PATCH("/:id/status", userHandler.UpdateUserStatus)
	}
}

// SetupCustomerRoutes sets up the customer routes.
func SetupCustomerRoutes(authenticatedGroup *gin.RouterGroup, customerHandler *handlers.CustomerHandler) {
	customerRoutes := authenticatedGroup.Group("/customers")
	customerRoutes.Use(middleware.RoleAuthMiddleware(models.RoleOwner, models.RoleStaff))
	{
		customerRoutes.POST("", customerHandler.CreateCustomer)
		customerRoutes.GET("", customerHandler.GetCustomers)
		customerRoutes.GET("/:id", customerHandler.GetCustomerByID)
		customerRoutes.PUT("/:id", customerHandler.UpdateCustomer)
		customerRoutes.DELETE("/:id", customerHandler.DeleteCustomer)
	}
}

// SetupProductRoutes sets up the product routes.
func SetupProductRoutes(authenticatedGroup *gin.RouterGroup, productHandler *handlers.ProductHandler) {
	productRoutes := authenticatedGroup.Group("/products")
	productRoutes.Use(middleware.RoleAuthMiddleware(models.RoleOwner, models.RoleStaff))
	{
		productRoutes.POST("", productHandler.CreateProduct)
		productRoutes.GET("", productHandler.GetProducts)
		productRoutes.GET("/:id", productHandler.GetProductByID)
		productRoutes.POST("/:id/restock", productHandler.RestockProduct)
	}
}

// SetupInventoryRoutes sets up stock reads and the movement audit list.
func SetupInventoryRoutes(authenticatedGroup *gin.RouterGroup, inventoryHandler *handlers.InventoryHandler, movementHandler *handlers.InventoryMovementHandler) {
	roles := middleware.RoleAuthMiddleware(models.RoleOwner, models.RoleStaff)

	inventoryRoutes := authenticatedGroup.Group("/inventory")
	inventoryRoutes.Use(roles)
	{
		inventoryRoutes.GET("", inventoryHandler.GetInventory)
		inventoryRoutes.GET("/:productId", inventoryHandler.GetInventoryByProduct)
	}

	authenticatedGroup.GET("/inventory-movements", roles, movementHandler.GetInventoryMovements)
}

// SetupSaleRoutes sets up sale groups and sale line edits.
func SetupSaleRoutes(authenticatedGroup *gin.RouterGroup, saleHandler *handlers.SaleHandler) {
	roles := middleware.RoleAuthMiddleware(models.RoleOwner, models.RoleStaff)

	saleRoutes := authenticatedGroup.Group("/sales")
	saleRoutes.Use(roles)
	{
		saleRoutes.POST("", saleHandler.CreateSale)
		saleRoutes.GET("", saleHandler.GetSales)
		saleRoutes.GET("/:id", saleHandler.GetSaleByID)
		saleRoutes.DELETE("/:id", saleHandler.DeleteSale)
	}

	lineRoutes := authenticatedGroup.Group("/sale-lines")
	lineRoutes.Use(roles)
	{
		lineRoutes.PATCH("/:id", saleHandler.EditSaleLine)
		lineRoutes.DELETE("/:id", saleHandler.DeleteSaleLine)
	}
}

// SetupDebtRoutes sets up debts and their payments.
func SetupDebtRoutes(authenticatedGroup *gin.RouterGroup, debtHandler *handlers.DebtHandler) {
	debtRoutes := authenticatedGroup.Group("/debts")
	debtRoutes.Use(middleware.RoleAuthMiddleware(models.RoleOwner, models.RoleStaff))
	{
		debtRoutes.POST("", debtHandler.CreateDebt)
		debtRoutes.GET("", debtHandler.GetDebts)
		debtRoutes.GET("/outstanding", debtHandler.GetOutstandingDebts)
		debtRoutes.GET("/:id", debtHandler.GetDebtByID)
		debtRoutes.POST("/:id/payments", debtHandler.CreatePayment)
		debtRoutes.GET("/:id/payments", debtHandler.GetPayments)
	}
}

// SetupExpenseRoutes sets up the expense routes. Deleting is owner only.
func SetupExpenseRoutes(authenticatedGroup *gin.RouterGroup, expenseHandler *handlers.ExpenseHandler) {
	expenseRoutes := authenticatedGroup.Group("/expenses")
	expenseRoutes.Use(middleware.RoleAuthMiddleware(models.RoleOwner, models.RoleStaff))
	{
		expenseRoutes.POST("", expenseHandler.CreateExpense)
		expenseRoutes.GET("", expenseHandler.GetExpenses)
	}
	authenticatedGroup.DELETE("/expenses/:id", middleware.RoleAuthMiddleware(models.RoleOwner), expenseHandler.DeleteExpense)
}

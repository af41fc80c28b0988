package router

import (
	"database/sql"

	"retail_backoffice/internal/cache"
	"retail_backoffice/internal/config"
	"retail_backoffice/internal/handlers"
	"retail_backoffice/internal/middleware"
	"retail_backoffice/internal/repositories"
	"retail_backoffice/internal/services"
	"retail_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Setup initializes the routing for the application. store may be nil when Redis is disabled.
func Setup(engine *gin.Engine, db *sql.DB, cfg *config.Config, store *cache.RedisCache) {
	handlers.RegisterValidators()

	// Initialize Repositories
	database := repositories.NewDatabase(db)
	authRepo := repositories.NewAuthRepository(db)
	productRepo := repositories.NewProductRepository(db)
	inventoryRepo := repositories.NewInventoryRepository(db)
	movementRepo := repositories.NewInventoryMovementRepository(db)
	saleRepo := repositories.NewSaleRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	debtRepo := repositories.NewDebtRepository(db)
	expenseRepo := repositories.NewExpenseRepository(db)

	var (
		invCache handlers.InventoryCache
		locker   services.Locker
	)
	if store != nil {
		invCache = store
		locker = cache.NewLocker(store.Client())
	}

	// Initialize Services
	tokens := utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiration)
	timeout := cfg.Sales.OperationTimeout

	authService := services.NewAuthService(authRepo, database, tokens)
	userService := services.NewUserService(authRepo, database)
	ledger := services.NewInventoryLedger(inventoryRepo, productRepo, movementRepo, database, services.InventoryLedgerConfig{
		SoldCounterPolicy: cfg.Sales.SoldCounterPolicy,
		OperationTimeout:  timeout,
	})
	productService := services.NewProductService(productRepo, ledger, database, timeout)
	saleService := services.NewSaleService(saleRepo, ledger, database, locker, services.SaleServiceConfig{
		OperationTimeout:    timeout,
		GlobalDeviceIDCheck: cfg.Sales.GlobalDeviceIDCheck,
		IdempotencyLockTTL:  cfg.Sales.IdempotencyLockTTL,
	})
	customerService := services.NewCustomerService(customerRepo, database)
	debtService := services.NewDebtService(debtRepo, customerRepo, productRepo, database, timeout)
	expenseService := services.NewExpenseService(expenseRepo, database)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	productHandler := handlers.NewProductHandler(productService, ledger, invCache)
	inventoryHandler := handlers.NewInventoryHandler(ledger, invCache)
	movementHandler := handlers.NewInventoryMovementHandler(ledger)
	saleHandler := handlers.NewSaleHandler(saleService, invCache)
	customerHandler := handlers.NewCustomerHandler(customerService)
	debtHandler := handlers.NewDebtHandler(debtService)
	expenseHandler := handlers.NewExpenseHandler(expenseService)

	apiV1 := engine.Group("/api/v1")

	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(tokens))
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupUserRoutes(authenticated, userHandler)
		SetupCustomerRoutes(authenticated, customerHandler)
		SetupProductRoutes(authenticated, productHandler)
		SetupInventoryRoutes(authenticated, inventoryHandler, movementHandler)
		SetupSaleRoutes(authenticated, saleHandler)
		SetupDebtRoutes(authenticated, debtHandler)
		SetupExpenseRoutes(authenticated, expenseHandler)
	}
}

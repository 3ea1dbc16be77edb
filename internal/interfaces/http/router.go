package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kmbaye/gestock-api/internal/application/auth"
	"github.com/kmbaye/gestock-api/internal/application/billing"
	"github.com/kmbaye/gestock-api/internal/application/stock"
	"github.com/kmbaye/gestock-api/internal/application/usecase"
	"github.com/kmbaye/gestock-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CompanyUC    *usecase.CompanyUseCase
	WarehouseUC  *usecase.WarehouseUseCase
	ProductUC    *usecase.ProductUseCase
	CustomerUC   *billing.CustomerUseCase
	SaleWorkflow *billing.SaleWorkflow
	PDFUC        *billing.PDFUseCase
	Ledger       *stock.Ledger
	UserUC       *usecase.UserUseCase
	AuthUC       *auth.AuthUseCase
	JWTSecret    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// El alta de empresas es solo para admin; la lectura queda para cualquier
	// actor autenticado.
	companies := protected.Group("/companies")
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	companies.Get("/", companyHandler.List)
	companies.Get("/:id", companyHandler.GetByID)
	companies.Post("/", RequireRole(entity.RoleAdmin), companyHandler.Create)

	// Catálogo: escritura para admin y entrepreneur; lectura autenticada.
	manage := RequireRole(entity.RoleAdmin, entity.RoleEntrepreneur)

	// Usuarios: el perfil propio es para cualquier autenticado; la consulta
	// por ID la acota el caso de uso (admin cruza empresas, entrepreneur no).
	users := protected.Group("/users")
	userHandler := NewUserHandler(deps.UserUC)
	users.Get("/me", userHandler.Me)
	users.Get("/:id", manage, userHandler.GetByID)

	warehouses := protected.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Post("/", manage, warehouseHandler.Create)
	warehouses.Put("/:id", manage, warehouseHandler.Update)

	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Post("/", manage, productHandler.Create)
	products.Put("/:id", manage, productHandler.Update)

	customers := protected.Group("/customers")
	customerHandler := NewCustomerHandler(deps.CustomerUC)
	customers.Get("/", customerHandler.List)
	customers.Post("/", manage, customerHandler.Create)

	// Libro de stock: solo admin y entrepreneur.
	stockGroup := protected.Group("/stock", manage)
	stockHandler := NewStockHandler(deps.Ledger)
	stockGroup.Post("/restock", stockHandler.Restock)
	stockGroup.Post("/adjust", stockHandler.Adjust)
	stockGroup.Get("/availability", stockHandler.Availability)
	stockGroup.Get("/movements", stockHandler.Movements)
	stockGroup.Post("/reconcile", stockHandler.Reconcile)

	// Ventas: la política fina por rol la decide el paquete access; aquí solo
	// se exige token válido.
	salesGroup := protected.Group("/sales")
	saleHandler := NewSaleHandler(deps.SaleWorkflow, deps.PDFUC)
	salesGroup.Post("/", saleHandler.Create)
	salesGroup.Get("/", saleHandler.List)
	salesGroup.Get("/:id", saleHandler.GetByID)
	salesGroup.Get("/:id/pdf", saleHandler.DownloadPDF)
	salesGroup.Post("/:id/finalize", saleHandler.Finalize)
	salesGroup.Post("/:id/cancel", saleHandler.Cancel)
	salesGroup.Post("/:id/void", saleHandler.Void)
	salesGroup.Patch("/:id/payment", saleHandler.SetPaymentStatus)
}

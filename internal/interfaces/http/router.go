package http

import (
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"

	"github.com/gestionpos/facturacion-api/internal/application/auth"
	"github.com/gestionpos/facturacion-api/internal/application/billing"
	"github.com/gestionpos/facturacion-api/internal/application/inventory"
	"github.com/gestionpos/facturacion-api/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	CompanyUC   *usecase.CompanyUseCase
	ProductUC   *usecase.ProductUseCase
	CustomerUC  *usecase.CustomerUseCase
	DocumentUC  *billing.DocumentUseCase
	PDFUC       *billing.PDFUseCase
	StockUC     *inventory.StockUseCase
	JWTSecret   string
	SwaggerPath string // ruta al swagger.json; vacío deshabilita la UI

	// BreakerState estado del circuit breaker hacia WSFE, para el health check.
	BreakerState func() string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.SwaggerPath != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/api",
			FilePath: deps.SwaggerPath,
			Path:     "docs",
			Title:    "Facturación API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		body := fiber.Map{"status": "ok"}
		if deps.BreakerState != nil {
			body["wsfe_breaker"] = deps.BreakerState()
		}
		return c.JSON(body)
	})

	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Alta de empresa (público: primer paso del onboarding)
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	api.Post("/companies", companyHandler.Create)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Empresa propia
	protected.Get("/companies/me", companyHandler.GetOwn)
	protected.Put("/companies/me", RequireRole("admin"), companyHandler.Update)

	// Productos
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", RequireRole("admin", "vendedor"), productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", RequireRole("admin", "vendedor"), productHandler.Update)

	// Clientes + padrón
	customers := protected.Group("/customers")
	customerHandler := NewCustomerHandler(deps.CustomerUC)
	customers.Post("/", customerHandler.Create)
	customers.Get("/", customerHandler.List)
	customers.Get("/padron/:cuit", customerHandler.LookupPersona)
	customers.Get("/:id", customerHandler.GetByID)
	customers.Put("/:id", customerHandler.Update)

	// Documentos (ciclo de vida completo)
	documents := protected.Group("/documents")
	documentHandler := NewDocumentHandler(deps.DocumentUC, deps.PDFUC)
	inventoryHandler := NewInventoryHandler(deps.StockUC)
	documents.Post("/", documentHandler.Create)
	documents.Get("/", documentHandler.List)
	documents.Get("/:id", documentHandler.GetByID)
	documents.Put("/:id/items", documentHandler.UpdateItems)
	documents.Post("/:id/issue-nonfiscal", RequireRole("admin", "cajero"), documentHandler.IssueNonFiscal)
	documents.Post("/:id/issue-fiscal", RequireRole("admin", "cajero"), documentHandler.IssueFiscal)
	documents.Post("/:id/void", RequireRole("admin"), documentHandler.Void)
	documents.Get("/:id/pdf", documentHandler.DownloadPDF)
	documents.Get("/:id/movements", inventoryHandler.DocumentMovements)

	// Stock
	invGroup := protected.Group("/inventory")
	invGroup.Post("/adjustments", RequireRole("admin", "vendedor"), inventoryHandler.AdjustStock)
	products.Get("/:id/movements", inventoryHandler.ProductMovements)
}

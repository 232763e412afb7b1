package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/ledger-api/internal/application/catalog"
	"github.com/jhoicas/ledger-api/internal/application/ledger"
	"github.com/jhoicas/ledger-api/internal/application/reports"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/rs/zerolog"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Coordinator *ledger.Coordinator
	Reconciler  *ledger.Reconciler // opcional
	ProductUC   *catalog.ProductUseCase
	PartyUC     *catalog.PartyUseCase
	ReportsUC   *reports.UseCase
	JWTSecret   string
	Log         zerolog.Logger
}

// Router registra las rutas de la API. Todas requieren Bearer Token con tenant.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	operators := RequireRole(domain.RoleAdmin, domain.RoleOperator)
	admins := RequireRole(domain.RoleAdmin)

	// Products
	products := api.Group("/products", operators)
	productHandler := NewProductHandler(deps.ProductUC, deps.Log)
	reportHandler := NewReportHandler(deps.ReportsUC, deps.Log)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Get("/:id/movements", reportHandler.StockCard)
	products.Get("/:id/audit", reportHandler.StockAudit)

	// Parties
	parties := api.Group("/parties", operators)
	partyHandler := NewPartyHandler(deps.PartyUC, deps.Log)
	parties.Post("/", partyHandler.Create)
	parties.Get("/", partyHandler.List)
	parties.Get("/:id", partyHandler.GetByID)
	parties.Get("/:id/statement", reportHandler.PartyStatement)
	parties.Get("/:id/statement.xlsx", reportHandler.PartyStatementXLSX)

	// Documents
	documents := api.Group("/documents", operators)
	documentHandler := NewDocumentHandler(deps.Coordinator, deps.Log)
	documents.Post("/purchases", documentHandler.CreatePurchase)
	documents.Post("/sales", documentHandler.CreateSale)
	documents.Post("/payments", documentHandler.CreatePayment)
	documents.Get("/", documentHandler.List)
	documents.Get("/:id", documentHandler.GetByID)
	documents.Get("/:id/pdf", reportHandler.DocumentPDF)
	documents.Post("/:id/reverse", documentHandler.Reverse)
	documents.Post("/:id/resume", admins, documentHandler.Resume)

	// Reports
	api.Get("/reports/cashbook", operators, reportHandler.Cashbook)

	// Reconciliation (admin)
	admin := api.Group("/admin", admins)
	reconHandler := NewReconciliationHandler(deps.Coordinator, deps.Reconciler, deps.Log)
	admin.Get("/reconciliation", reconHandler.ListQueue)
	admin.Post("/reconciliation/run", reconHandler.RunOnce)
}

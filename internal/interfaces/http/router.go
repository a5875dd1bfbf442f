package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturacion-api/internal/application/accounting"
	"github.com/jhoicas/facturacion-api/internal/application/billing"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Documents    *billing.DocumentService
	Orchestrator *billing.IssueOrchestrator
	Tracker      *billing.StatusTracker
	Companies    *billing.CompanyService
	Customers    *billing.CustomerService
	Resolutions  *billing.ResolutionService
	PUC          *accounting.PUCInitializer
	Poster       *accounting.Poster
	Reports      *accounting.ReportService
	JWTSecret    string
}

// Router registra las rutas de la API. Todas requieren Bearer Token; el rol
// del token decide el alcance: admin administra empresas y resoluciones,
// facturador opera el ciclo de documentos, contador consulta y contabiliza.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Companies (solo admin; Me disponible para todos los roles)
	companies := api.Group("/companies")
	companyHandler := NewCompanyHandler(deps.Companies)
	companies.Get("/me", companyHandler.Me)
	companies.Post("/", RequireRole(RoleAdmin), companyHandler.Create)

	// Resoluciones de numeración (admin)
	resolutions := api.Group("/resolutions", RequireRole(RoleAdmin))
	resolutionHandler := NewResolutionHandler(deps.Resolutions)
	resolutions.Post("/", resolutionHandler.Create)
	resolutions.Get("/", resolutionHandler.List)

	// Adquirientes (admin y facturador)
	customers := api.Group("/customers", RequireRole(RoleAdmin, RoleFacturador))
	customerHandler := NewCustomerHandler(deps.Customers)
	customers.Post("/", customerHandler.Create)
	customers.Get("/", customerHandler.List)
	customers.Get("/:id", customerHandler.GetByID)

	// Documentos electrónicos: creación y emisión para admin/facturador,
	// lectura también para contador.
	documents := api.Group("/documents")
	documentHandler := NewDocumentHandler(deps.Documents, deps.Orchestrator, deps.Tracker)
	write := RequireRole(RoleAdmin, RoleFacturador)
	read := RequireRole(RoleAdmin, RoleFacturador, RoleContador)
	documents.Post("/", write, documentHandler.Create)
	documents.Post("/:id/issue", write, documentHandler.Issue)
	documents.Post("/:id/retry", write, documentHandler.Retry)
	documents.Get("/", read, documentHandler.List)
	documents.Get("/:id", read, documentHandler.GetByID)
	documents.Get("/:id/status", read, documentHandler.Status)
	documents.Get("/:id/xml", read, documentHandler.DownloadXML)

	// Contabilidad (admin y contador)
	acc := api.Group("/accounting", RequireRole(RoleAdmin, RoleContador))
	accountingHandler := NewAccountingHandler(deps.PUC, deps.Poster, deps.Reports)
	acc.Post("/puc/init", accountingHandler.InitPUC)
	acc.Get("/puc", accountingHandler.HasPUC)
	acc.Post("/documents/:id/post", accountingHandler.PostDocument)
	acc.Get("/documents/:id/journal", accountingHandler.JournalByDocument)
	acc.Get("/reports/balance", accountingHandler.BalanceReport)
	acc.Get("/reports/income", accountingHandler.IncomeStatement)
}

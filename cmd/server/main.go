package main

import (
	"log"
	"strings"

	"kensetsu-backend/internal/audit"
	"kensetsu-backend/internal/auth"
	"kensetsu-backend/internal/cashflow"
	"kensetsu-backend/internal/config"
	"kensetsu-backend/internal/cost"
	"kensetsu-backend/internal/dashboard"
	"kensetsu-backend/internal/database"
	"kensetsu-backend/internal/forecast"
	"kensetsu-backend/internal/masterdata"
	"kensetsu-backend/internal/models"
	"kensetsu-backend/internal/progress"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Master data (mutations are admin-only)
	adminOnly := auth.RequireRole(models.RoleAdmin)

	protected.Get("/clients", masterdata.ListClientsHandler())
	protected.Post("/clients", adminOnly, masterdata.CreateClientHandler())
	protected.Put("/clients/:id", adminOnly, masterdata.UpdateClientHandler())
	protected.Delete("/clients/:id", adminOnly, masterdata.DeleteClientHandler())

	protected.Get("/vendors", masterdata.ListVendorsHandler())
	protected.Post("/vendors", adminOnly, masterdata.CreateVendorHandler())
	protected.Put("/vendors/:id", adminOnly, masterdata.UpdateVendorHandler())
	protected.Delete("/vendors/:id", adminOnly, masterdata.DeleteVendorHandler())

	protected.Get("/projects", masterdata.ListProjectsHandler())
	protected.Get("/projects/:id", masterdata.GetProjectHandler())
	protected.Post("/projects", adminOnly, masterdata.CreateProjectHandler())
	protected.Put("/projects/:id", adminOnly, masterdata.UpdateProjectHandler())
	protected.Delete("/projects/:id", adminOnly, masterdata.DeleteProjectHandler())
	protected.Get("/projects/:id/monthly", cost.ProjectMonthlyCostsHandler())

	// Progress billing (upsert triggers the receivable projection)
	protected.Post("/progress", progress.UpsertProgressHandler(cfg))
	protected.Get("/progress/project/:id", progress.ListProjectProgressHandler())
	protected.Delete("/progress/:id", progress.DeleteProgressHandler())

	// Receivable / payable forecasts
	protected.Get("/receivables", forecast.ListReceivablesHandler())
	protected.Get("/receivables/project/:id", forecast.ListProjectReceivablesHandler())
	protected.Post("/receivables", forecast.CreateReceivableHandler())
	protected.Put("/receivables/:id", forecast.UpdateReceivableHandler())
	protected.Delete("/receivables/:id", forecast.DeleteReceivableHandler())

	protected.Get("/payables", forecast.ListPayablesHandler())
	protected.Get("/payables/project/:id", forecast.ListProjectPayablesHandler())
	protected.Post("/payables", forecast.CreatePayableHandler())
	protected.Put("/payables/:id", forecast.UpdatePayableHandler())
	protected.Delete("/payables/:id", forecast.DeletePayableHandler())

	// Costs
	protected.Post("/costs", cost.CreateCostHandler())
	protected.Get("/costs/project/:id", cost.ListProjectCostsHandler())
	protected.Delete("/costs/:id", cost.DeleteCostHandler())

	// Cashflow forecast and company-wide dashboard
	protected.Get("/cashflow", cashflow.GetCashflowHandler())
	protected.Get("/dashboard", dashboard.GetDashboardHandler())

	// Audit logs
	protected.Get("/audit-logs", adminOnly, audit.ListAuditLogsHandler())

	log.Println("server listening on port", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}

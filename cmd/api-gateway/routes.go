package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/veloca-labs/mds-api/internal/handler"
	"github.com/veloca-labs/mds-api/internal/middleware"
	"github.com/veloca-labs/mds-api/internal/models"
	"github.com/veloca-labs/mds-api/internal/repository"
	"github.com/veloca-labs/mds-api/pkg/config"
)

type apiHandlers struct {
	auth        *handler.AuthHandler
	users       *handler.UserHandler
	factories   *handler.FactoryHandler
	catalog     *handler.CatalogHandler
	products    *handler.ProductHandler
	orders      *handler.OrderHandler
	sales       *handler.SaleHandler
	customers   *handler.CustomerHandler
	technicians *handler.TechnicianHandler
	replacement *handler.ReplacementHandler
	billing     *handler.BillingHandler
	exports     *handler.ExportHandler
	dashboard   *handler.DashboardHandler
	metrics     *handler.MetricsHandler
}

func registerRoutes(r *gin.Engine, cfg *config.Config, h *apiHandlers, validator middleware.TokenValidator, userRepo *repository.UserRepository) {
	r.GET("/health", h.metrics.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Signed tokens authenticate downloads so browsers need no header.
	api.GET("/exports/download", h.exports.Download)

	auth := api.Group("/auth")
	auth.POST("/login", h.auth.Login)
	auth.POST("/refresh", h.auth.Refresh)

	secured := api.Group("", middleware.JWT(validator))

	secured.POST("/auth/logout", h.auth.Logout)
	secured.PUT("/auth/password", h.auth.ChangePassword)
	secured.GET("/auth/me", h.auth.Me)

	admin := string(models.RoleAdmin)
	factory := string(models.RoleFactory)
	distributor := string(models.RoleDistributor)
	dealer := string(models.RoleDealer)
	customer := string(models.RoleCustomer)
	technician := string(models.RoleTechnician)

	users := secured.Group("/users")
	users.GET("", middleware.RBAC(admin), middleware.RequireSection(models.SectionManagement), h.users.List)
	users.POST("", middleware.RBAC(admin), middleware.RequireSection(models.SectionManagement), h.users.Create)
	users.GET("/:id", middleware.RBAC(admin, "SELF"), middleware.RequireSection(models.SectionManagement), h.users.Get)
	users.PUT("/:id", middleware.RBAC(admin), middleware.RequireSection(models.SectionManagement), h.users.Update)
	users.PUT("/:id/sections", middleware.RequireRoles(models.RoleSuperAdmin), h.users.UpdateSections)
	users.DELETE("/:id", middleware.RBAC(admin), middleware.RequireSection(models.SectionManagement), h.users.Delete)

	factories := secured.Group("/factories", middleware.RequireSection(models.SectionManagement))
	factories.GET("", middleware.RBAC(admin, factory, distributor), h.factories.List)
	factories.GET("/code-available", middleware.RBAC(admin), h.factories.CodeAvailable)
	factories.GET("/:id", middleware.RBAC(admin, factory, distributor), h.factories.Get)
	factories.POST("", middleware.RBAC(admin), h.factories.Create)
	factories.PUT("/:id", middleware.RBAC(admin), h.factories.Update)
	factories.DELETE("/:id", middleware.RBAC(admin), h.factories.Delete)

	categories := secured.Group("/categories", middleware.RequireSection(models.SectionManagement))
	categories.GET("", middleware.RBAC(admin, factory, distributor, dealer), h.catalog.ListCategories)
	categories.POST("", middleware.RBAC(admin), h.catalog.CreateCategory)
	categories.PUT("/:id", middleware.RBAC(admin), h.catalog.UpdateCategory)

	catalogModels := secured.Group("/models", middleware.RequireSection(models.SectionManagement))
	catalogModels.GET("", middleware.RBAC(admin, factory, distributor, dealer), h.catalog.ListModels)
	catalogModels.GET("/code-available", middleware.RBAC(admin, factory), h.catalog.ModelCodeAvailable)
	catalogModels.GET("/:id", middleware.RBAC(admin, factory, distributor, dealer), h.catalog.GetModel)
	catalogModels.POST("", middleware.RBAC(admin, factory), h.catalog.CreateModel)
	catalogModels.PUT("/:id", middleware.RBAC(admin, factory), h.catalog.UpdateModel)

	products := secured.Group("/products", middleware.RequireSection(models.SectionManagement))
	products.GET("", middleware.RBAC(admin, factory, distributor, dealer), h.products.List)
	products.GET("/:id", middleware.RBAC(admin, factory, distributor, dealer), h.products.Get)
	products.POST("", middleware.RBAC(admin, factory), h.products.Register)
	products.POST("/:id/allocate", middleware.RBAC(admin, distributor), h.products.Allocate)
	products.GET("/:id/warranty", h.products.Warranty)

	orders := secured.Group("/orders", middleware.RequireSection(models.SectionOrders))
	orders.GET("", middleware.RBAC(admin, factory, distributor, dealer), h.orders.List)
	orders.GET("/:id", middleware.RBAC(admin, factory, distributor, dealer), h.orders.Get)
	orders.POST("", middleware.RBAC(distributor, dealer), h.orders.Place)
	orders.PUT("/:id/status", middleware.RBAC(admin, factory, distributor),
		middleware.Audit(userRepo, models.AuditActionOrderTransition, "orders"), h.orders.Transition)

	sales := secured.Group("/sales", middleware.RequireSection(models.SectionCustomers))
	sales.GET("", middleware.RBAC(admin, dealer), h.sales.List)
	sales.GET("/:id", middleware.RBAC(admin, dealer), h.sales.Get)
	sales.POST("", middleware.RBAC(dealer), h.sales.Record)

	customers := secured.Group("/customers", middleware.RequireSection(models.SectionCustomers))
	customers.GET("/me", middleware.RBAC(customer), h.customers.Me)
	customers.GET("", middleware.RBAC(admin, dealer), h.customers.List)
	customers.GET("/:id", middleware.RBAC(admin, dealer), h.customers.Get)
	customers.POST("", middleware.RBAC(admin, dealer), h.customers.Create)
	customers.PUT("/:id", middleware.RBAC(admin, dealer), h.customers.Update)

	technicians := secured.Group("/technicians", middleware.RequireSection(models.SectionReplacements))
	technicians.GET("", middleware.RBAC(admin), h.technicians.List)
	technicians.GET("/code-available", middleware.RBAC(admin), h.technicians.CodeAvailable)
	technicians.GET("/:id", middleware.RBAC(admin), h.technicians.Get)
	technicians.POST("", middleware.RBAC(admin), h.technicians.Create)
	technicians.PUT("/:id", middleware.RBAC(admin), h.technicians.Update)
	technicians.DELETE("/:id", middleware.RBAC(admin), h.technicians.Delete)

	replacements := secured.Group("/replacements", middleware.RequireSection(models.SectionReplacements))
	replacements.GET("", middleware.RBAC(admin, customer, technician), h.replacement.List)
	replacements.POST("", middleware.RBAC(customer), h.replacement.Create)
	replacements.GET("/:id", middleware.RBAC(admin, customer, technician), h.replacement.Get)
	replacements.GET("/:id/candidates", middleware.RBAC(admin), h.replacement.Candidates)
	replacements.POST("/:id/approve", middleware.RBAC(admin), h.replacement.Approve)
	replacements.POST("/:id/reject", middleware.RBAC(admin), h.replacement.Reject)
	replacements.POST("/:id/start", middleware.RBAC(technician), h.replacement.Start)
	replacements.POST("/:id/diagnosis", middleware.RBAC(technician), h.replacement.SubmitDiagnosis)
	replacements.POST("/:id/close", middleware.RBAC(admin), h.replacement.Close)

	billing := secured.Group("/billing")
	billing.GET("/config", h.billing.GetConfig)
	billing.PUT("/config/:scope", middleware.RBAC(admin), middleware.RequireSection(models.SectionBilling), h.billing.UpdateCharges)

	if cfg.Dashboard.Enabled {
		secured.GET("/dashboard", middleware.RBAC(admin), middleware.RequireSection(models.SectionReports), h.dashboard.Summary)
	}

	if cfg.Exports.Enabled {
		exports := secured.Group("/exports", middleware.RBAC(admin), middleware.RequireSection(models.SectionReports))
		exports.POST("", h.exports.Create)
		exports.GET("", h.exports.List)
		exports.GET("/:id", h.exports.Status)
	}
}

// Package router wires handlers, authentication and authorization
// middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/kapiree/billing-portal/internal/config"
	"github.com/kapiree/billing-portal/internal/handler"
	"github.com/kapiree/billing-portal/internal/middleware"
	"github.com/kapiree/billing-portal/internal/token"
)

// Deps carries everything the route table needs.
type Deps struct {
	Tokens        *token.Service
	Auth          *handler.AuthHandler
	Password      *handler.PasswordHandler
	Users         *handler.UserAdminHandler
	Roles         *handler.RoleAdminHandler
	Tenants       *handler.TenantHandler
	Subscriptions *handler.SubscriptionHandler
	Purchases     *handler.PurchaseHandler
	Catalog       *handler.CatalogHandler

	Redis         *redis.Client // optional; rate limiting and caching are skipped when nil
	RateLimitConf config.RateLimitConfig
	CacheConf     config.CacheConfig
}

// RegisterRoutes registers routes that carry no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI mounts the full API under /api.
func RegisterAPI(e *echo.Echo, d Deps) {
	api := e.Group("/api")
	if d.Redis != nil && d.RateLimitConf.Enabled {
		api.Use(middleware.NewTokenBucket(d.RateLimitConf, d.Redis))
	}

	requireAuth := middleware.RequireAuth(d.Tokens)
	optionalAuth := middleware.OptionalAuth(d.Tokens)

	// Public catalog. OptionalAuth attaches an identity when one is
	// presented so rate limiting can key per user.
	pub := api.Group("", optionalAuth)
	if d.Redis != nil && d.CacheConf.Enabled {
		pub.Use(middleware.NewRedisCache(d.CacheConf, d.Redis))
	}
	pub.GET("/pricing-plans", d.Catalog.ListPlans)
	pub.GET("/pricing-plans/:id", d.Catalog.GetPlan)
	pub.GET("/credit-packs", d.Catalog.ListPackDefs)
	pub.GET("/credit-packs/:id", d.Catalog.GetPackDef)

	// Catalog administration.
	api.POST("/pricing-plans", d.Catalog.CreatePlan, requireAuth, middleware.RequirePermission("Manage Pricing Plans"))
	api.PUT("/pricing-plans/:id", d.Catalog.UpdatePlan, requireAuth, middleware.RequirePermission("Manage Pricing Plans"))
	api.DELETE("/pricing-plans/:id", d.Catalog.DeletePlan, requireAuth, middleware.RequirePermission("Manage Pricing Plans"))
	api.POST("/credit-packs", d.Catalog.CreatePackDef, requireAuth, middleware.RequirePermission("Manage Credit Packs"))
	api.PUT("/credit-packs/:id", d.Catalog.UpdatePackDef, requireAuth, middleware.RequirePermission("Manage Credit Packs"))
	api.DELETE("/credit-packs/:id", d.Catalog.DeletePackDef, requireAuth, middleware.RequirePermission("Manage Credit Packs"))

	// Sessions and account.
	auth := api.Group("/auth")
	auth.POST("/login", d.Auth.Login)
	auth.POST("/logout", d.Auth.Logout)
	auth.POST("/forgot-password", d.Password.ForgotPassword)
	auth.POST("/reset-password", d.Password.ResetPassword)
	auth.POST("/register", d.Auth.Register, requireAuth, middleware.RequirePermission("Manage Users"))
	auth.POST("/refresh", d.Auth.Refresh, requireAuth)
	auth.GET("/profile", d.Auth.Profile, requireAuth)
	auth.POST("/update-credits", d.Auth.UpdateCredits, requireAuth)

	// Subscription lifecycle and purchases.
	auth.GET("/subscription", d.Subscriptions.Overview, requireAuth)
	auth.POST("/subscription/renew", d.Subscriptions.Renew, requireAuth)
	auth.POST("/subscription/cancel", d.Subscriptions.Cancel, requireAuth)
	auth.POST("/credit-packs/purchase", d.Purchases.PurchaseCreditPack, requireAuth)
	auth.POST("/add-ons/purchase", d.Purchases.PurchaseAddOn, requireAuth)

	// Definition listings for the purchase pages.
	auth.GET("/plans", d.Catalog.PlanDefinitions, requireAuth)
	auth.GET("/credit-packs/definitions", d.Catalog.PackDefinitions, requireAuth)
	auth.GET("/add-ons/definitions", d.Catalog.AddOnDefinitions, requireAuth)

	// Role and permission administration.
	auth.GET("/roles", d.Roles.ListRoles, requireAuth)
	auth.GET("/permissions", d.Roles.ListPermissions, requireAuth)
	manageRoles := middleware.RequirePermission("Manage Roles")
	auth.GET("/roles/:roleId/permissions", d.Roles.RolePermissions, requireAuth, manageRoles)
	auth.POST("/roles", d.Roles.CreateRole, requireAuth, manageRoles)
	auth.PUT("/roles/:roleId", d.Roles.UpdateRole, requireAuth, manageRoles)
	auth.PUT("/roles/:roleId/permissions", d.Roles.UpdateRolePermissions, requireAuth, manageRoles)
	auth.DELETE("/roles/:roleId", d.Roles.DeleteRole, requireAuth, manageRoles)

	// User administration (tenant-scoped inside the handlers).
	manageUsers := middleware.RequirePermission("Manage Users")
	auth.GET("/users", d.Users.List, requireAuth, manageUsers)
	auth.GET("/users/:userId", d.Users.Get, requireAuth, manageUsers)
	auth.PUT("/users/:userId", d.Users.Update, requireAuth, manageUsers)
	auth.DELETE("/users/:userId", d.Users.Delete, requireAuth, manageUsers)
	auth.POST("/users/:userId/assign-role", d.Users.AssignRole, requireAuth, manageUsers)

	// Tenant administration.
	tenants := api.Group("/tenants", requireAuth, middleware.RequirePermission("Manage Tenants"))
	tenants.GET("", d.Tenants.List)
	tenants.GET("/:id", d.Tenants.Get)
	tenants.POST("", d.Tenants.Create)
	tenants.PUT("/:id", d.Tenants.Update)
	tenants.DELETE("/:id", d.Tenants.Delete)
}

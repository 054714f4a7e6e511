// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"procura/internal/delivery/http/middleware"
	"procura/internal/delivery/http/router/handler"
	"procura/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler    *handler.AuthHandler
	MFAHandler     *handler.MFAHandler
	TenderHandler  *handler.TenderHandler
	BidHandler     *handler.BidHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler    *handler.AuthHandler
	mfaHandler     *handler.MFAHandler
	tenderHandler  *handler.TenderHandler
	bidHandler     *handler.BidHandler
	authMiddleware *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:    params.AuthHandler,
		mfaHandler:     params.MFAHandler,
		tenderHandler:  params.TenderHandler,
		bidHandler:     params.BidHandler,
		authMiddleware: params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Public auth routes
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/register", r.authHandler.Register)
		authGroup.POST("/login", r.authHandler.Login)
		authGroup.POST("/verify-email", r.authHandler.VerifyEmail)
		authGroup.POST("/resend-verification", r.authHandler.ResendVerification)
		authGroup.POST("/forgot-password", r.authHandler.ForgotPassword)
		authGroup.POST("/reset-password", r.authHandler.ResetPassword)
		authGroup.POST("/refresh", r.authHandler.RefreshToken)
		authGroup.POST("/logout", r.authHandler.Logout)
		authGroup.POST("/mfa/verify", r.mfaHandler.VerifyLogin)
	}

	// Account routes that require authentication
	accountGroup := e.Group("/account")
	accountGroup.Use(r.authMiddleware.Authenticate)
	{
		accountGroup.GET("/profile", r.authHandler.GetProfile)
		accountGroup.PUT("/profile", r.authHandler.UpdateProfile)
		accountGroup.POST("/change-password", r.authHandler.ChangePassword)
		accountGroup.POST("/logout-all", r.authHandler.LogoutAllDevices)
		accountGroup.GET("/sessions", r.authHandler.GetActiveSessions)
		accountGroup.DELETE("/sessions/:id", r.authHandler.RevokeSession)
		accountGroup.POST("/mfa/setup", r.mfaHandler.Setup)
		accountGroup.POST("/mfa/confirm", r.mfaHandler.Confirm)
		accountGroup.POST("/mfa/disable", r.mfaHandler.Disable)
	}

	// Tender routes; visibility and role checks live in the usecase layer,
	// except creation which is gated here as well.
	tenderGroup := e.Group("/tenders")
	tenderGroup.Use(r.authMiddleware.Authenticate)
	{
		tenderGroup.GET("", r.tenderHandler.List)
		tenderGroup.POST("", r.tenderHandler.Create,
			r.authMiddleware.RequireRole(entity.RoleAdmin, entity.RoleProcurementOfficer))
		tenderGroup.GET("/:id", r.tenderHandler.Get)
		tenderGroup.PUT("/:id", r.tenderHandler.Update)
		tenderGroup.DELETE("/:id", r.tenderHandler.Delete)
		tenderGroup.POST("/:id/publish", r.tenderHandler.Publish)
		tenderGroup.POST("/:id/cancel", r.tenderHandler.Cancel)
		tenderGroup.POST("/:id/close", r.tenderHandler.Close)
		tenderGroup.POST("/:id/award", r.tenderHandler.Award)
		tenderGroup.GET("/:id/bids", r.bidHandler.ListByTender)
		tenderGroup.POST("/:id/bids", r.bidHandler.Create,
			r.authMiddleware.RequireRole(entity.RoleSupplier))
	}

	// Bid routes that require authentication
	bidGroup := e.Group("/bids")
	bidGroup.Use(r.authMiddleware.Authenticate)
	{
		bidGroup.GET("", r.bidHandler.ListOwn)
		bidGroup.GET("/:id", r.bidHandler.Get)
		bidGroup.PUT("/:id", r.bidHandler.Update)
		bidGroup.DELETE("/:id", r.bidHandler.Delete)
		bidGroup.POST("/:id/submit", r.bidHandler.Submit)
		bidGroup.POST("/:id/withdraw", r.bidHandler.Withdraw)
		bidGroup.POST("/:id/evaluate", r.bidHandler.Evaluate)
	}
}

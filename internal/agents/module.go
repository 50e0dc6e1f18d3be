// Package agents provides the voice agent directory bounded context module.
// Agents are provisioned by admins and assigned to users; campaigns can only
// be started against an assigned, active agent.
package agents

import (
	"callgenie_backend/internal/agents/handler"
	"callgenie_backend/internal/agents/repository"
	"callgenie_backend/internal/agents/service"
	apphttp "callgenie_backend/internal/http"
	"callgenie_backend/platform/logger"
	"callgenie_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the agents bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the agents module with all its dependencies.
func NewModule(pool *pgxpool.Pool, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "agents"
}

// Service returns the agents service for use by adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts agent routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/agents", m.handler.ListMine)
	ctx.Protected.GET("/agents/:id", m.handler.GetMine)

	adminGroup := ctx.Admin.Group("/agents")
	adminGroup.GET("", m.handler.List)
	adminGroup.POST("", m.handler.Create)
	adminGroup.PUT("/:id", m.handler.Update)
	adminGroup.DELETE("/:id", m.handler.Delete)
	adminGroup.POST("/:id/assign", m.handler.Assign)
	adminGroup.DELETE("/:id/assign/:userId", m.handler.Unassign)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

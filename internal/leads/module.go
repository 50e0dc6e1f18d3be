// Package leads provides the lead store bounded context module.
// Leads are contacts owned by a user, keyed by their canonical phone number.
// The batch module reconciles its working sessions against this store.
package leads

import (
	apphttp "callgenie_backend/internal/http"
	"callgenie_backend/internal/leads/handler"
	"callgenie_backend/internal/leads/repository"
	"callgenie_backend/internal/leads/service"
	"callgenie_backend/platform/logger"
	"callgenie_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the leads module with all its dependencies.
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
	return "leads"
}

// Service returns the leads service for use by adapters (the batch module's
// lead store port).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leadsGroup := ctx.Protected.Group("/leads")
	leadsGroup.GET("", m.handler.List)
	leadsGroup.POST("", m.handler.BulkCreate)
	leadsGroup.PUT("/:ref", m.handler.Update)
	leadsGroup.DELETE("/:ref", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

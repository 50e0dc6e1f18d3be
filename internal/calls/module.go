package calls

import (
	"callgenie_backend/internal/events"
	apphttp "callgenie_backend/internal/http"
	"callgenie_backend/platform/config"
	"callgenie_backend/platform/logger"
	"callgenie_backend/platform/validator"

	"github.com/redis/go-redis/v9"
)

// Module is the calls bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates and initializes the calls module with all its dependencies.
func NewModule(cfg config.ProviderConfig, rdb *redis.Client, ledger CreditLedger, directory AgentDirectory, bus events.Bus, log *logger.Logger, val *validator.Validator) *Module {
	providerClient := NewProviderClient(cfg, log)
	guard := NewDispatchGuard(rdb)
	svc := NewService(providerClient, guard, ledger, bus, log)
	h := NewHandler(svc, directory, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "calls"
}

// Service returns the dispatch service for the batch module and the worker.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts call routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/calls", m.handler.CreateSingleCall)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

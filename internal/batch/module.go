package batch

import (
	"callgenie_backend/internal/events"
	apphttp "callgenie_backend/internal/http"
	"callgenie_backend/platform/config"
	"callgenie_backend/platform/logger"
	"callgenie_backend/platform/validator"
)

// Module is the batch bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates and initializes the batch module with all its dependencies.
func NewModule(
	cfg config.SessionConfig,
	store LeadStore,
	extractor Extractor,
	directory AgentDirectory,
	dispatcher Dispatcher,
	sched Scheduler,
	accounts AccountReader,
	bus events.Bus,
	log *logger.Logger,
	val *validator.Validator,
) *Module {
	sessions := NewManager(cfg.GetBatchSessionTTL())
	svc := NewService(sessions, store, extractor, directory, dispatcher, sched, accounts, bus, log)
	h := NewHandler(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "batch"
}

// Service returns the session orchestrator.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts batch routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/batch")
	group.GET("", m.handler.GetSession)
	group.DELETE("", m.handler.DiscardSession)
	group.POST("/leads", m.handler.AddLead)
	group.POST("/upload", m.handler.UploadFile)
	group.POST("/upload-image", m.handler.UploadImage)
	group.POST("/pending/confirm", m.handler.ConfirmPending)
	group.DELETE("/pending", m.handler.CancelPending)
	group.DELETE("/leads/:index", m.handler.RemoveLead)
	group.PUT("/leads/:index", m.handler.EditLead)
	group.PATCH("/leads/:index/toggle", m.handler.ToggleLead)
	group.POST("/leads/toggle-all", m.handler.ToggleAll)
	group.POST("/sync", m.handler.Sync)
	group.POST("/submit", m.handler.Submit)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

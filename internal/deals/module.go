// Package deals wires the deal engagement bounded context: scoring, lifecycle,
// task automation and their HTTP surface.
package deals

import (
	"dealflow_backend/internal/deals/handler"
	"dealflow_backend/internal/deals/policy"
	"dealflow_backend/internal/deals/repository"
	"dealflow_backend/internal/deals/service"
	"dealflow_backend/internal/events"
	apphttp "dealflow_backend/internal/http"
	"dealflow_backend/platform/logger"
	"dealflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the deals bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	public  *handler.PublicHandler
	service *service.Service
}

// NewModule builds the repository, service and handlers for deals.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, pol policy.Policy, log *logger.Logger, opts ...service.Option) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, pol, bus, log, opts...)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		public:  handler.NewPublicHandler(h),
		service: svc,
	}
}

func (m *Module) Name() string {
	return "deals"
}

// Service exposes the deal service to the scheduler worker.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the agent routes behind auth and the telemetry
// ingest route on the public group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/deals"))
	m.handler.RegisterTaskRoutes(ctx.Protected.Group("/tasks"))
	m.public.RegisterRoutes(ctx.Public.Group("/deals"))
}

var _ apphttp.Module = (*Module)(nil)

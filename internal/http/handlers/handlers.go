package handlers

import (
	"context"
	"time"

	"github.com/tbourn/go-climb-backend/internal/domain"
	"github.com/tbourn/go-climb-backend/internal/services"
)

// RegistrationService registers and reads users and gyms.
type RegistrationService interface {
	RegisterUser(ctx context.Context, userID string, in services.RegisterUserInput) (*services.RegisterResult, error)
	RegisterGym(ctx context.Context, in services.RegisterGymInput) (*services.RegisterResult, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetGym(ctx context.Context, id string) (*domain.Gym, error)
}

// RouteService allocates and reads routes.
type RouteService interface {
	CreateRoute(ctx context.Context, gymID string, in services.CreateRouteInput, idemKey string) (*services.RouteResult, error)
	GetRoute(ctx context.Context, gymID string, routeID int64) (*domain.Route, error)
}

// StorePinger is the readiness probe's view of the document store.
type StorePinger interface {
	Ping(ctx context.Context) error
	Backend() string
}

// Handlers groups HTTP handlers. It depends on interfaces only so tests can
// swap in stubs.
type Handlers struct {
	regSvc   RegistrationService
	routeSvc RouteService
	store    StorePinger

	// ReadyTimeout bounds the store ping of /ready.
	ReadyTimeout time.Duration
}

// New constructs Handlers bound to the given services and store.
func New(regSvc RegistrationService, routeSvc RouteService, store StorePinger) *Handlers {
	return &Handlers{regSvc: regSvc, routeSvc: routeSvc, store: store, ReadyTimeout: 2 * time.Second}
}

// Package services – RouteService
//
// This file implements route creation with per-gym sequential route numbers.
// Reading the gym's routeCounter, bumping it and writing the new route
// happen in one optimistic docstore transaction, so concurrent creations in
// the same gym are serialized by the store and never share a number.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// the gym id and the allocated route id.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tbourn/go-climb-backend/internal/docstore"
	"github.com/tbourn/go-climb-backend/internal/domain"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// maxRouteProbe bounds how far allocation skips past route documents that
	// already exist above the stored counter.
	maxRouteProbe = 64

	defaultIdempotencyTTL = 24 * time.Hour
)

var errRouteProbeExhausted = errors.New("too many existing routes above the gym's route counter")

// CreateRouteInput is the body of a route creation. Omitted counters default
// to zero and isActive defaults to true.
type CreateRouteInput struct {
	WallID    *int      `json:"wallId" validate:"required,min=0"`
	SetterID  string    `json:"setterId" validate:"required,notblank,max=128"`
	Grade     string    `json:"grade" validate:"required,notblank,max=32"`
	CreatedAt time.Time `json:"createdAt" validate:"required"`
	StyleTags []string  `json:"styleTags,omitempty" validate:"omitempty,max=32,dive,required,notblank,max=64"`
	Attempts  *int      `json:"attempts,omitempty" validate:"omitempty,min=0"`
	Rating    *float64  `json:"rating,omitempty" validate:"omitempty,min=0"`
	Sends     *int      `json:"sends,omitempty" validate:"omitempty,min=0"`
	IsActive  *bool     `json:"isActive,omitempty"`
}

// RouteResult is the outcome of CreateRoute. Replayed is true when an
// idempotency key matched an earlier creation and nothing was written.
type RouteResult struct {
	GymID    string `json:"gymId"`
	RouteID  int64  `json:"routeId"`
	Replayed bool   `json:"replayed"`
}

// RouteService allocates route numbers and stores routes.
type RouteService struct {
	Store    docstore.Store
	Validate *validator.Validate

	// Now defaults to time.Now.
	Now func() time.Time

	// IdempotencyTTL is how long an idempotency key replays its route.
	IdempotencyTTL time.Duration
}

func (s *RouteService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *RouteService) ttl() time.Duration {
	if s.IdempotencyTTL > 0 {
		return s.IdempotencyTTL
	}
	return defaultIdempotencyTTL
}

// CreateRoute allocates the next route number in gymID and stores the route
// under it. With a non-empty idemKey, a repeated call within the TTL returns
// the originally allocated number without writing anything.
func (s *RouteService) CreateRoute(ctx context.Context, gymID string, in CreateRouteInput, idemKey string) (*RouteResult, error) {
	tr := otel.Tracer("services/RouteService")
	ctx, span := tr.Start(ctx, "CreateRoute",
		trace.WithAttributes(
			attribute.String("gym.id", gymID),
			attribute.Bool("idempotency.keyed", idemKey != ""),
		),
	)
	defer span.End()

	if err := validateDocID("gymId", gymID); err != nil {
		return nil, err
	}
	if idemKey != "" {
		if err := validateDocID("idempotencyKey", idemKey); err != nil {
			return nil, err
		}
	}
	if err := validateStruct(s.Validate, in); err != nil {
		return nil, err
	}

	var (
		res     RouteResult
		gymPath = domain.GymPath(gymID)
	)
	err := s.Store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		res = RouteResult{GymID: gymID}
		now := s.now()

		gymSnap, err := tx.Get(ctx, gymPath)
		if err != nil {
			return err
		}
		if !gymSnap.Exists {
			return ErrGymNotFound
		}

		var idemPath string
		if idemKey != "" {
			idemPath = domain.IdempotencyPath(gymID, idemKey)
			rec, err := readIdempotency(ctx, tx, idemPath)
			if err != nil {
				return err
			}
			if rec != nil && !rec.Expired(now) {
				res.RouteID = rec.RouteID
				res.Replayed = true
				return nil
			}
		}

		var walls struct {
			Walls []domain.Wall `json:"walls"`
		}
		_ = gymSnap.DataTo(&walls) // malformed walls are treated as none
		gym := domain.Gym{Walls: walls.Walls}
		if len(gym.Walls) > 0 && !gym.HasWall(*in.WallID) {
			return ErrUnknownWall
		}

		next := counterValue(gymSnap.Data["routeCounter"]) + 1
		for probe := 0; ; probe++ {
			snap, err := tx.Get(ctx, domain.RoutePath(gymID, next))
			if err != nil {
				return err
			}
			if !snap.Exists {
				break
			}
			if probe >= maxRouteProbe {
				return errRouteProbeExhausted
			}
			next++
		}

		route := buildRoute(gymID, next, in)
		if err := tx.Update(ctx, gymPath, map[string]any{
			"routeCounter": next,
			"updatedAt":    now,
		}); err != nil {
			return err
		}
		if err := tx.Set(domain.RoutePath(gymID, next), route); err != nil {
			return err
		}
		if idemPath != "" {
			if err := tx.Set(idemPath, domain.IdempotencyRecord{
				Key:       idemKey,
				RouteID:   next,
				CreatedAt: now,
				ExpiresAt: now.Add(s.ttl()),
			}); err != nil {
				return err
			}
		}
		res.RouteID = next
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrGymNotFound) || errors.Is(err, ErrUnknownWall) {
			return nil, err
		}
		return nil, storeErr(err)
	}

	span.SetAttributes(
		attribute.Int64("route.id", res.RouteID),
		attribute.Bool("idempotency.replayed", res.Replayed),
	)
	if !res.Replayed {
		routesAllocated.Inc()
	}
	logger(ctx).Info().
		Str("gym_id", gymID).
		Int64("route_id", res.RouteID).
		Bool("replayed", res.Replayed).
		Msg("route created")
	return &res, nil
}

// GetRoute returns route routeID of gymID.
func (s *RouteService) GetRoute(ctx context.Context, gymID string, routeID int64) (*domain.Route, error) {
	tr := otel.Tracer("services/RouteService")
	ctx, span := tr.Start(ctx, "GetRoute",
		trace.WithAttributes(
			attribute.String("gym.id", gymID),
			attribute.Int64("route.id", routeID),
		),
	)
	defer span.End()

	if err := validateDocID("gymId", gymID); err != nil {
		return nil, err
	}
	if routeID < 1 {
		return nil, invalid("routeId", "must be >= 1")
	}

	gymSnap, err := s.Store.Get(ctx, domain.GymPath(gymID))
	if err != nil {
		return nil, storeErr(err)
	}
	if !gymSnap.Exists {
		return nil, ErrGymNotFound
	}
	snap, err := s.Store.Get(ctx, domain.RoutePath(gymID, routeID))
	if err != nil {
		return nil, storeErr(err)
	}
	if !snap.Exists {
		return nil, ErrRouteNotFound
	}
	var r domain.Route
	if err := snap.DataTo(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// HasReplay reports whether key still replays an earlier route creation in
// gymID at now.
func (s *RouteService) HasReplay(ctx context.Context, gymID, key string, now time.Time) (bool, error) {
	if validateDocID("gymId", gymID) != nil || validateDocID("idempotencyKey", key) != nil {
		return false, nil
	}
	snap, err := s.Store.Get(ctx, domain.IdempotencyPath(gymID, key))
	if err != nil {
		return false, storeErr(err)
	}
	if !snap.Exists {
		return false, nil
	}
	var rec domain.IdempotencyRecord
	if err := snap.DataTo(&rec); err != nil {
		return false, nil
	}
	return !rec.Expired(now), nil
}

func readIdempotency(ctx context.Context, tx docstore.Tx, path string) (*domain.IdempotencyRecord, error) {
	snap, err := tx.Get(ctx, path)
	if err != nil || !snap.Exists {
		return nil, err
	}
	var rec domain.IdempotencyRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, nil // unreadable records are overwritten
	}
	return &rec, nil
}

// counterValue coerces a stored routeCounter to a non-negative integer.
// Missing or non-numeric values (strings included) count as 0; fractions
// are truncated.
func counterValue(v any) int64 {
	var f float64
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return max(i, 0)
		}
		x, err := n.Float64()
		if err != nil {
			return 0
		}
		f = x
	case float64:
		f = n
	case int64:
		return max(n, 0)
	case int:
		return max(int64(n), 0)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 || f >= math.MaxInt64 {
		return 0
	}
	return int64(f)
}

func buildRoute(gymID string, id int64, in CreateRouteInput) domain.Route {
	r := domain.Route{
		ID:        id,
		GymID:     gymID,
		WallID:    *in.WallID,
		SetterID:  in.SetterID,
		Grade:     in.Grade,
		CreatedAt: in.CreatedAt.UTC(),
		StyleTags: tagSet(in.StyleTags),
		Active:    true,
	}
	if in.Attempts != nil {
		r.Attempts = *in.Attempts
	}
	if in.Rating != nil {
		r.Rating = *in.Rating
	}
	if in.Sends != nil {
		r.Sends = *in.Sends
	}
	if in.IsActive != nil {
		r.Active = *in.IsActive
	}
	return r
}

// tagSet trims, de-duplicates and sorts style tags.
func tagSet(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if _, dup := seen[t]; dup || t == "" {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

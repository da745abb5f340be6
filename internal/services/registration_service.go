// Package services – RegistrationService
//
// This file implements idempotent creation of the top-level resources:
// users (keyed by a caller-supplied id) and gyms (keyed by an id derived
// from slug, city and country).
//
// Creation is a plain existence check followed by a write, not a
// transaction. Two racing creates of the same key write the same document,
// so the only visible effect of a race is that both callers may be told
// "created".
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-climb-backend/internal/docstore"
	"github.com/tbourn/go-climb-backend/internal/domain"
	"github.com/tbourn/go-climb-backend/internal/slug"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Registration outcomes.
const (
	StatusCreated       = "created"
	StatusAlreadyExists = "already_exists"
)

// RegisterResult reports the effective id and whether this call created it.
type RegisterResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Created reports whether the call wrote the document.
func (r *RegisterResult) Created() bool { return r.Status == StatusCreated }

// UserStatsInput is the stats sub-record of a new user.
type UserStatsInput struct {
	HardestGrade string `json:"hardestGrade" validate:"max=32"`
	TotalPoints  int    `json:"totalPoints" validate:"min=0"`
	TotalSends   int    `json:"totalSends" validate:"min=0"`
}

// RegisterUserInput is the body of a user registration.
type RegisterUserInput struct {
	CreatedAt   time.Time       `json:"createdAt" validate:"required"`
	DisplayName *string         `json:"displayName,omitempty" validate:"omitempty,max=128"`
	Email       *string         `json:"email,omitempty" validate:"omitempty,email"`
	Stats       *UserStatsInput `json:"stats" validate:"required"`
}

// LocationInput is where a gym is.
type LocationInput struct {
	City    string `json:"city" validate:"required,notblank,max=128"`
	Country string `json:"country" validate:"required,notblank,max=64"`
}

// WallInput describes one wall of a new gym.
type WallInput struct {
	ID   *int   `json:"id" validate:"required,min=0"`
	Name string `json:"name" validate:"required,notblank,max=128"`
}

// RegisterGymInput is the body of a gym registration.
type RegisterGymInput struct {
	Name          string        `json:"name" validate:"required,notblank,max=200"`
	Slug          string        `json:"slug" validate:"required,notblank,max=100"`
	Location      LocationInput `json:"location" validate:"required"`
	GradingSystem []string      `json:"gradingSystem" validate:"required,min=1,dive,required,notblank,max=16"`
	GradingType   string        `json:"gradingType" validate:"required,notblank,max=32"`
	Walls         []WallInput   `json:"walls,omitempty" validate:"omitempty,unique=ID,dive"`
}

// RegistrationService creates users and gyms idempotently.
type RegistrationService struct {
	Store    docstore.Store
	Validate *validator.Validate
}

// RegisterUser stores the user at users/{userID} unless it already exists.
// An existing user is never overwritten.
func (s *RegistrationService) RegisterUser(ctx context.Context, userID string, in RegisterUserInput) (*RegisterResult, error) {
	tr := otel.Tracer("services/RegistrationService")
	ctx, span := tr.Start(ctx, "RegisterUser",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if err := validateDocID("userId", userID); err != nil {
		return nil, err
	}
	if err := validateStruct(s.Validate, in); err != nil {
		return nil, err
	}

	user := domain.User{
		ID:          userID,
		CreatedAt:   in.CreatedAt.UTC(),
		DisplayName: in.DisplayName,
		Email:       in.Email,
		Stats: domain.UserStats{
			HardestGrade: in.Stats.HardestGrade,
			TotalPoints:  in.Stats.TotalPoints,
			TotalSends:   in.Stats.TotalSends,
		},
	}
	res, err := s.createIfAbsent(ctx, domain.UserPath(userID), userID, user)
	if err != nil {
		return nil, err
	}
	registrations.WithLabelValues("user", res.Status).Inc()
	span.SetAttributes(attribute.String("registration.status", res.Status))
	logger(ctx).Info().Str("user_id", userID).Str("status", res.Status).Msg("user registration")
	return res, nil
}

// RegisterGym derives the gym id from slug, city and country and stores the
// gym with a zero route counter unless it already exists.
func (s *RegistrationService) RegisterGym(ctx context.Context, in RegisterGymInput) (*RegisterResult, error) {
	tr := otel.Tracer("services/RegistrationService")
	ctx, span := tr.Start(ctx, "RegisterGym",
		trace.WithAttributes(attribute.String("gym.slug", in.Slug)),
	)
	defer span.End()

	if err := validateStruct(s.Validate, in); err != nil {
		return nil, err
	}
	gymID, err := slug.BuildGymID(in.Slug, in.Location.City, in.Location.Country)
	if err != nil {
		return nil, invalid("", err.Error())
	}
	span.SetAttributes(attribute.String("gym.id", gymID))

	walls := make([]domain.Wall, 0, len(in.Walls))
	for _, w := range in.Walls {
		walls = append(walls, domain.Wall{ID: *w.ID, Name: w.Name})
	}
	gym := domain.Gym{
		ID:            gymID,
		Name:          in.Name,
		Slug:          in.Slug,
		Location:      domain.Location{City: in.Location.City, Country: in.Location.Country},
		GradingSystem: in.GradingSystem,
		GradingType:   in.GradingType,
		Walls:         walls,
		RouteCounter:  0,
	}
	res, err := s.createIfAbsent(ctx, domain.GymPath(gymID), gymID, gym)
	if err != nil {
		return nil, err
	}
	registrations.WithLabelValues("gym", res.Status).Inc()
	span.SetAttributes(attribute.String("registration.status", res.Status))
	logger(ctx).Info().Str("gym_id", gymID).Str("status", res.Status).Msg("gym registration")
	return res, nil
}

func (s *RegistrationService) createIfAbsent(ctx context.Context, path, id string, doc any) (*RegisterResult, error) {
	snap, err := s.Store.Get(ctx, path)
	if err != nil {
		return nil, storeErr(err)
	}
	if snap.Exists {
		return &RegisterResult{ID: id, Status: StatusAlreadyExists}, nil
	}
	if err := s.Store.Set(ctx, path, doc); err != nil {
		return nil, storeErr(err)
	}
	return &RegisterResult{ID: id, Status: StatusCreated}, nil
}

// GetUser returns the user stored at users/{id}.
func (s *RegistrationService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	tr := otel.Tracer("services/RegistrationService")
	ctx, span := tr.Start(ctx, "GetUser", trace.WithAttributes(attribute.String("user.id", id)))
	defer span.End()

	if err := validateDocID("userId", id); err != nil {
		return nil, err
	}
	var u domain.User
	if err := s.load(ctx, domain.UserPath(id), &u, ErrUserNotFound); err != nil {
		return nil, err
	}
	if u.ID == "" {
		u.ID = id
	}
	return &u, nil
}

// GetGym returns the gym stored at gyms/{id}.
func (s *RegistrationService) GetGym(ctx context.Context, id string) (*domain.Gym, error) {
	tr := otel.Tracer("services/RegistrationService")
	ctx, span := tr.Start(ctx, "GetGym", trace.WithAttributes(attribute.String("gym.id", id)))
	defer span.End()

	if err := validateDocID("gymId", id); err != nil {
		return nil, err
	}
	snap, err := s.Store.Get(ctx, domain.GymPath(id))
	if err != nil {
		return nil, storeErr(err)
	}
	if !snap.Exists {
		return nil, ErrGymNotFound
	}
	g, err := gymFromSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", snap.Path, err)
	}
	if g.ID == "" {
		g.ID = id
	}
	return g, nil
}

// gymFromSnapshot decodes a gym document, reading routeCounter the way route
// allocation does: a missing or malformed counter reads as 0.
func gymFromSnapshot(snap *docstore.Snapshot) (*domain.Gym, error) {
	data := make(map[string]any, len(snap.Data)+1)
	maps.Copy(data, snap.Data)
	data["routeCounter"] = counterValue(data["routeCounter"])

	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var g domain.Gym
	if err := json.Unmarshal(b, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *RegistrationService) load(ctx context.Context, path string, v any, notFound error) error {
	snap, err := s.Store.Get(ctx, path)
	if err != nil {
		return storeErr(err)
	}
	if !snap.Exists {
		return notFound
	}
	if err := snap.DataTo(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// storeErr classifies a docstore failure for callers.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, docstore.ErrContention):
		return fmt.Errorf("%w: %v", ErrContention, err)
	case errors.Is(err, docstore.ErrInvalidPath):
		return invalid("", err.Error())
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// logger returns the request logger attached to ctx, or the global one.
func logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}

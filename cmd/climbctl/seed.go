package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tbourn/go-climb-backend/internal/docstore"
	"github.com/tbourn/go-climb-backend/internal/services"
)

// seedFile is the YAML layout read by "climbctl seed".
type seedFile struct {
	Gyms  []seedGym  `yaml:"gyms"`
	Users []seedUser `yaml:"users"`
}

type seedGym struct {
	Name          string      `yaml:"name"`
	Slug          string      `yaml:"slug"`
	City          string      `yaml:"city"`
	Country       string      `yaml:"country"`
	GradingSystem []string    `yaml:"gradingSystem"`
	GradingType   string      `yaml:"gradingType"`
	Walls         []seedWall  `yaml:"walls"`
	Routes        []seedRoute `yaml:"routes"`
}

type seedWall struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

type seedRoute struct {
	Key       string     `yaml:"key"`
	WallID    int        `yaml:"wallId"`
	SetterID  string     `yaml:"setterId"`
	Grade     string     `yaml:"grade"`
	StyleTags []string   `yaml:"styleTags"`
	CreatedAt *time.Time `yaml:"createdAt"`
	IsActive  *bool      `yaml:"isActive"`
}

type seedUser struct {
	ID          string     `yaml:"id"`
	DisplayName *string    `yaml:"displayName"`
	Email       *string    `yaml:"email"`
	CreatedAt   *time.Time `yaml:"createdAt"`
	Stats       seedStats  `yaml:"stats"`
}

type seedStats struct {
	HardestGrade string `yaml:"hardestGrade"`
	TotalPoints  int    `yaml:"totalPoints"`
	TotalSends   int    `yaml:"totalSends"`
}

type seedReport struct {
	GymsCreated, GymsExisting     int
	RoutesCreated, RoutesReplayed int
	UsersCreated, UsersExisting   int
}

var errEmptySeed = errors.New("seed file has no gyms and no users")

// decodeSeed parses a seed file. Unknown keys are rejected so typos surface
// instead of silently seeding defaults.
func decodeSeed(r io.Reader) (*seedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var sf seedFile
	if err := dec.Decode(&sf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errEmptySeed
		}
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(sf.Gyms) == 0 && len(sf.Users) == 0 {
		return nil, errEmptySeed
	}
	return &sf, nil
}

// runSeed registers the file's gyms (then their routes) and users in order,
// stopping at the first failure.
func runSeed(ctx context.Context, store docstore.Store, ttl time.Duration, sf *seedFile, out io.Writer) (seedReport, error) {
	var (
		rep      seedReport
		validate = services.NewValidator()
		now      = time.Now().UTC()
		reg      = &services.RegistrationService{Store: store, Validate: validate}
		routes   = &services.RouteService{Store: store, Validate: validate, IdempotencyTTL: ttl}
	)

	for i, g := range sf.Gyms {
		res, err := reg.RegisterGym(ctx, g.input())
		if err != nil {
			return rep, fmt.Errorf("gym #%d (%s): %w", i+1, g.Slug, err)
		}
		if res.Created() {
			rep.GymsCreated++
		} else {
			rep.GymsExisting++
		}
		fmt.Fprintf(out, "gym %s: %s\n", res.ID, res.Status)

		for j, r := range g.Routes {
			key := r.Key
			if key == "" {
				key = "seed-" + strconv.Itoa(j+1)
			}
			rr, err := routes.CreateRoute(ctx, res.ID, r.input(now), key)
			if err != nil {
				return rep, fmt.Errorf("gym %s route #%d: %w", res.ID, j+1, err)
			}
			if rr.Replayed {
				rep.RoutesReplayed++
			} else {
				rep.RoutesCreated++
			}
			fmt.Fprintf(out, "  route %d (%s)\n", rr.RouteID, key)
		}
	}

	for i, u := range sf.Users {
		res, err := reg.RegisterUser(ctx, u.ID, u.input(now))
		if err != nil {
			return rep, fmt.Errorf("user #%d (%s): %w", i+1, u.ID, err)
		}
		if res.Created() {
			rep.UsersCreated++
		} else {
			rep.UsersExisting++
		}
		fmt.Fprintf(out, "user %s: %s\n", res.ID, res.Status)
	}
	return rep, nil
}

func (g seedGym) input() services.RegisterGymInput {
	in := services.RegisterGymInput{
		Name:          g.Name,
		Slug:          g.Slug,
		Location:      services.LocationInput{City: g.City, Country: g.Country},
		GradingSystem: g.GradingSystem,
		GradingType:   g.GradingType,
	}
	for _, w := range g.Walls {
		id := w.ID
		in.Walls = append(in.Walls, services.WallInput{ID: &id, Name: w.Name})
	}
	return in
}

func (r seedRoute) input(now time.Time) services.CreateRouteInput {
	wall := r.WallID
	return services.CreateRouteInput{
		WallID:    &wall,
		SetterID:  r.SetterID,
		Grade:     r.Grade,
		CreatedAt: orNow(r.CreatedAt, now),
		StyleTags: r.StyleTags,
		IsActive:  r.IsActive,
	}
}

func (u seedUser) input(now time.Time) services.RegisterUserInput {
	return services.RegisterUserInput{
		CreatedAt:   orNow(u.CreatedAt, now),
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Stats: &services.UserStatsInput{
			HardestGrade: u.Stats.HardestGrade,
			TotalPoints:  u.Stats.TotalPoints,
			TotalSends:   u.Stats.TotalSends,
		},
	}
}

func orNow(t *time.Time, now time.Time) time.Time {
	if t == nil || t.IsZero() {
		return now
	}
	return *t
}

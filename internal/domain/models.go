// Package domain defines the records of the climbing-gym backend and the
// persistence model of the document table that stores them. Users, gyms and
// routes are JSON documents addressed by collection/document paths; their
// JSON field names are the document schema.
package domain

import (
	"strconv"
	"strings"
	"time"
)

// Collection names of the document layout.
const (
	CollectionUsers       = "users"
	CollectionGyms        = "gyms"
	CollectionRoutes      = "routes"
	CollectionIdempotency = "idempotency"
)

// UserStats is the aggregate climbing record embedded in a User.
type UserStats struct {
	HardestGrade string `json:"hardestGrade"`
	TotalPoints  int    `json:"totalPoints"`
	TotalSends   int    `json:"totalSends"`
}

// User is stored at users/{id}. The id comes from the caller (typically an
// auth-provider subject) and is immutable once the document exists.
type User struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	DisplayName *string   `json:"displayName,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Stats       UserStats `json:"stats"`
}

// Location is the city/country pair that, with the slug, identifies a gym.
type Location struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// Wall is owned by exactly one gym and stored inline in the gym document.
type Wall struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Gym is stored at gyms/{id} where id = slug.GymID(Slug, City, Country).
//
// RouteCounter holds the last route number handed out in this gym; it starts
// at 0 and only ever grows. UpdatedAt is stamped by route allocation only, so
// two registrations of the same gym write identical documents.
type Gym struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	Location      Location   `json:"location"`
	GradingSystem []string   `json:"gradingSystem"`
	GradingType   string     `json:"gradingType"`
	Walls         []Wall     `json:"walls"`
	RouteCounter  int64      `json:"routeCounter"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// HasWall reports whether id names one of the gym's walls.
func (g *Gym) HasWall(id int) bool {
	for _, w := range g.Walls {
		if w.ID == id {
			return true
		}
	}
	return false
}

// Route is stored at gyms/{gymId}/routes/{id}. ID is the per-gym sequence
// number assigned at creation.
type Route struct {
	ID        int64     `json:"id"`
	GymID     string    `json:"gymId"`
	WallID    int       `json:"wallId"`
	SetterID  string    `json:"setterId"`
	Grade     string    `json:"grade"`
	CreatedAt time.Time `json:"createdAt"`
	StyleTags []string  `json:"styleTags"`
	Attempts  int       `json:"attempts"`
	Rating    float64   `json:"rating"`
	Sends     int       `json:"sends"`
	Active    bool      `json:"isActive"`
}

// IdempotencyRecord remembers which route a keyed creation request produced.
// It lives at gyms/{gymId}/idempotency/{key}.
type IdempotencyRecord struct {
	Key       string    `json:"key"`
	RouteID   int64     `json:"routeId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the record can no longer be replayed at now.
func (r IdempotencyRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// UserPath returns "users/{id}".
func UserPath(id string) string { return join(CollectionUsers, id) }

// GymPath returns "gyms/{id}".
func GymPath(id string) string { return join(CollectionGyms, id) }

// RoutePath returns "gyms/{gymID}/routes/{routeID}".
func RoutePath(gymID string, routeID int64) string {
	return join(CollectionGyms, gymID, CollectionRoutes, strconv.FormatInt(routeID, 10))
}

// IdempotencyPath returns "gyms/{gymID}/idempotency/{key}".
func IdempotencyPath(gymID, key string) string {
	return join(CollectionGyms, gymID, CollectionIdempotency, key)
}

func join(segments ...string) string { return strings.Join(segments, "/") }

package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tbourn/go-climb-backend/internal/docstore"
	"github.com/tbourn/go-climb-backend/internal/domain"
)

const bhubID = "bhub-kualalumpur-my"

func seedBhub(t *testing.T, store docstore.Store) {
	t.Helper()
	reg := &RegistrationService{Store: store}
	res, err := reg.RegisterGym(context.Background(), bhubGym())
	if err != nil || res.ID != bhubID {
		t.Fatalf("seed gym: res=%+v err=%v", res, err)
	}
}

func routeIn(wall int) CreateRouteInput {
	return CreateRouteInput{
		WallID:    ptr(wall),
		SetterID:  "daryl",
		Grade:     "V4",
		CreatedAt: created,
		StyleTags: []string{"power", "crimpy", "power"},
	}
}

func storedCounter(t *testing.T, store docstore.Store, gymID string) int64 {
	t.Helper()
	snap, err := store.Get(context.Background(), domain.GymPath(gymID))
	if err != nil || !snap.Exists {
		t.Fatalf("read gym %s: exists=%v err=%v", gymID, snap != nil && snap.Exists, err)
	}
	return counterValue(snap.Data["routeCounter"])
}

func TestCreateRoute_EndToEndSequence(t *testing.T) {
	forEachStore(t, func(t *testing.T, store docstore.Store) {
		ctx := context.Background()
		seedBhub(t, store)
		s := &RouteService{Store: store, Validate: NewValidator()}

		before := testutil.ToFloat64(routesAllocated)
		for want := int64(1); want <= 2; want++ {
			res, err := s.CreateRoute(ctx, bhubID, routeIn(1), "")
			if err != nil {
				t.Fatalf("CreateRoute #%d: %v", want, err)
			}
			if res.RouteID != want || res.GymID != bhubID || res.Replayed {
				t.Fatalf("CreateRoute #%d: got %+v", want, res)
			}
			if got := storedCounter(t, store, bhubID); got != want {
				t.Fatalf("routeCounter = %d; want %d", got, want)
			}
		}
		if got := testutil.ToFloat64(routesAllocated); got != before+2 {
			t.Fatalf("routes_allocated_total advanced by %v; want 2", got-before)
		}

		r, err := s.GetRoute(ctx, bhubID, 2)
		if err != nil {
			t.Fatalf("GetRoute: %v", err)
		}
		want := &domain.Route{
			ID:        2,
			GymID:     bhubID,
			WallID:    1,
			SetterID:  "daryl",
			Grade:     "V4",
			CreatedAt: created,
			StyleTags: []string{"crimpy", "power"},
			Active:    true,
		}
		if diff := cmp.Diff(want, r); diff != "" {
			t.Fatalf("stored route mismatch (-want +got):\n%s", diff)
		}

		// The gym keeps its other fields.
		reg := &RegistrationService{Store: store}
		g, err := reg.GetGym(ctx, bhubID)
		if err != nil {
			t.Fatalf("GetGym: %v", err)
		}
		if g.Name != "BHUB Bouldering Gym" || len(g.Walls) != 2 || g.UpdatedAt == nil {
			t.Fatalf("gym document damaged by allocation: %+v", g)
		}
	})
}

func TestCreateRoute_ConcurrentAllocationsAreGapFreeAndUnique(t *testing.T) {
	const n = 25
	forEachStore(t, func(t *testing.T, store docstore.Store) {
		ctx := context.Background()
		seedBhub(t, store)
		s := &RouteService{Store: store, Validate: NewValidator()}

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			ids  []int64
			errs []error
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := s.CreateRoute(ctx, bhubID, routeIn(2), "")
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, err)
					return
				}
				ids = append(ids, res.RouteID)
			}()
		}
		wg.Wait()

		if len(errs) > 0 {
			t.Fatalf("concurrent CreateRoute errors: %v", errs)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		want := make([]int64, n)
		for i := range want {
			want[i] = int64(i + 1)
		}
		if diff := cmp.Diff(want, ids); diff != "" {
			t.Fatalf("allocated ids not {1..%d} (-want +got):\n%s", n, diff)
		}
		if got := storedCounter(t, store, bhubID); got != n {
			t.Fatalf("routeCounter = %d; want %d", got, n)
		}
		for _, id := range want {
			snap, err := store.Get(ctx, domain.RoutePath(bhubID, id))
			if err != nil || !snap.Exists {
				t.Fatalf("route %d missing: err=%v", id, err)
			}
		}
	})
}

func TestCreateRoute_UnknownGym_NoWrites(t *testing.T) {
	forEachStore(t, func(t *testing.T, store docstore.Store) {
		cs := &countingStore{Store: store}
		s := &RouteService{Store: cs, Validate: NewValidator()}

		_, err := s.CreateRoute(context.Background(), "ghost-gym-xx", routeIn(1), "k1")
		if !errors.Is(err, ErrGymNotFound) {
			t.Fatalf("expected ErrGymNotFound, got %v", err)
		}
		if cs.writes.Load() != 0 {
			t.Fatalf("expected no writes, got %d", cs.writes.Load())
		}
		snap, _ := store.Get(context.Background(), domain.RoutePath("ghost-gym-xx", 1))
		if snap.Exists {
			t.Fatalf("route document must not exist")
		}
	})
}

func TestCreateRoute_CounterCoercion(t *testing.T) {
	cases := []struct {
		name    string
		counter any
		want    int64
	}{
		{"absent", nil, 1},
		{"string", "7", 1},
		{"bool", true, 1},
		{"negative", -4, 1},
		{"float", 2.9, 3},
		{"int", 5, 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newSQLStore(t)
			doc := map[string]any{"name": "Loose", "walls": []any{}}
			if tc.counter != nil {
				doc["routeCounter"] = tc.counter
			}
			if err := store.Set(context.Background(), domain.GymPath("loose-kl-my"), doc); err != nil {
				t.Fatalf("seed: %v", err)
			}
			s := &RouteService{Store: store}
			res, err := s.CreateRoute(context.Background(), "loose-kl-my", routeIn(9), "")
			if err != nil {
				t.Fatalf("CreateRoute: %v", err)
			}
			if res.RouteID != tc.want {
				t.Fatalf("counter %v: allocated %d; want %d", tc.counter, res.RouteID, tc.want)
			}
		})
	}
}

func TestCounterValue(t *testing.T) {
	cases := []struct {
		in   any
		want int64
	}{
		{nil, 0},
		{json.Number("3"), 3},
		{json.Number("3.9"), 3},
		{json.Number("-2"), 0},
		{json.Number("1e400"), 0},
		{float64(4), 4},
		{"12", 0},
		{map[string]any{}, 0},
		{int64(8), 8},
	}
	for _, tc := range cases {
		if got := counterValue(tc.in); got != tc.want {
			t.Fatalf("counterValue(%#v) = %d; want %d", tc.in, got, tc.want)
		}
	}
}

func TestCreateRoute_SkipsExistingRouteDocuments(t *testing.T) {
	store := newSQLStore(t)
	ctx := context.Background()
	seedBhub(t, store)

	// Routes 1 and 2 exist although the counter still says 0.
	for _, id := range []int64{1, 2} {
		if err := store.Set(ctx, domain.RoutePath(bhubID, id), map[string]any{"grade": "legacy"}); err != nil {
			t.Fatalf("seed route: %v", err)
		}
	}
	s := &RouteService{Store: store}
	res, err := s.CreateRoute(ctx, bhubID, routeIn(1), "")
	if err != nil {
		t.Fatalf("CreateRoute: %v", err)
	}
	if res.RouteID != 3 {
		t.Fatalf("expected route 3, got %d", res.RouteID)
	}
	snap, _ := store.Get(ctx, domain.RoutePath(bhubID, 1))
	if snap.Data["grade"] != "legacy" {
		t.Fatalf("existing route overwritten: %v", snap.Data)
	}
	if got := storedCounter(t, store, bhubID); got != 3 {
		t.Fatalf("routeCounter = %d; want 3", got)
	}
}

func TestCreateRoute_WallMustBelongToGym(t *testing.T) {
	store := newSQLStore(t)
	seedBhub(t, store)
	cs := &countingStore{Store: store}
	s := &RouteService{Store: cs}

	if _, err := s.CreateRoute(context.Background(), bhubID, routeIn(7), ""); !errors.Is(err, ErrUnknownWall) {
		t.Fatalf("expected ErrUnknownWall, got %v", err)
	}
	if cs.writes.Load() != 0 {
		t.Fatalf("rejected route must not write")
	}
	if got := storedCounter(t, store, bhubID); got != 0 {
		t.Fatalf("counter advanced on rejected route: %d", got)
	}
}

func TestCreateRoute_GymWithoutWallsAcceptsAnyWall(t *testing.T) {
	store := newSQLStore(t)
	reg := &RegistrationService{Store: store}
	in := bhubGym()
	in.Walls = nil
	if _, err := reg.RegisterGym(context.Background(), in); err != nil {
		t.Fatalf("RegisterGym: %v", err)
	}
	s := &RouteService{Store: store}
	if _, err := s.CreateRoute(context.Background(), bhubID, routeIn(42), ""); err != nil {
		t.Fatalf("CreateRoute: %v", err)
	}
}

func TestCreateRoute_DefaultsAndOverrides(t *testing.T) {
	store := newSQLStore(t)
	seedBhub(t, store)
	s := &RouteService{Store: store}

	in := routeIn(1)
	in.Attempts = ptr(3)
	in.Sends = ptr(1)
	in.Rating = ptr(4.5)
	in.IsActive = ptr(false)
	in.StyleTags = []string{" jugs", "fun", "jugs"}
	res, err := s.CreateRoute(context.Background(), bhubID, in, "")
	if err != nil {
		t.Fatalf("CreateRoute: %v", err)
	}
	r, err := s.GetRoute(context.Background(), bhubID, res.RouteID)
	if err != nil {
		t.Fatalf("GetRoute: %v", err)
	}
	if r.Attempts != 3 || r.Sends != 1 || r.Rating != 4.5 || r.Active {
		t.Fatalf("overrides not applied: %+v", r)
	}
	if diff := cmp.Diff([]string{"fun", "jugs"}, r.StyleTags); diff != "" {
		t.Fatalf("style tags (-want +got):\n%s", diff)
	}
}

func TestCreateRoute_Validation(t *testing.T) {
	fs := &failingStore{err: errors.New("must not be called")}
	s := &RouteService{Store: fs, Validate: NewValidator()}

	noWall := routeIn(1)
	noWall.WallID = nil
	noGrade := routeIn(1)
	noGrade.Grade = ""
	negAttempts := routeIn(1)
	negAttempts.Attempts = ptr(-1)
	blankTag := routeIn(1)
	blankTag.StyleTags = []string{"ok", ""}

	for name, in := range map[string]CreateRouteInput{
		"missing wall":      noWall,
		"missing grade":     noGrade,
		"negative attempts": negAttempts,
		"blank style tag":   blankTag,
	} {
		if _, err := s.CreateRoute(context.Background(), bhubID, in, ""); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
	if _, err := s.CreateRoute(context.Background(), "a/b", routeIn(1), ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("bad gym id: expected ErrInvalidInput, got %v", err)
	}
	if fs.calls.Load() != 0 {
		t.Fatalf("store touched during validation")
	}
}

func TestCreateRoute_IdempotencyKeyReplays(t *testing.T) {
	forEachStore(t, func(t *testing.T, store docstore.Store) {
		ctx := context.Background()
		seedBhub(t, store)
		now := created
		s := &RouteService{Store: store, Now: func() time.Time { return now }, IdempotencyTTL: time.Hour}

		first, err := s.CreateRoute(ctx, bhubID, routeIn(1), "req-1")
		if err != nil {
			t.Fatalf("CreateRoute: %v", err)
		}
		replay, err := s.CreateRoute(ctx, bhubID, routeIn(1), "req-1")
		if err != nil {
			t.Fatalf("CreateRoute replay: %v", err)
		}
		if replay.RouteID != first.RouteID || !replay.Replayed {
			t.Fatalf("expected replay of %d, got %+v", first.RouteID, replay)
		}
		if got := storedCounter(t, store, bhubID); got != 1 {
			t.Fatalf("replay advanced counter to %d", got)
		}

		ok, err := s.HasReplay(ctx, bhubID, "req-1", now)
		if err != nil || !ok {
			t.Fatalf("HasReplay = %v, %v; want true", ok, err)
		}

		// After the TTL the key allocates again.
		now = now.Add(2 * time.Hour)
		if ok, _ := s.HasReplay(ctx, bhubID, "req-1", now); ok {
			t.Fatalf("expired key must not replay")
		}
		fresh, err := s.CreateRoute(ctx, bhubID, routeIn(1), "req-1")
		if err != nil {
			t.Fatalf("CreateRoute after TTL: %v", err)
		}
		if fresh.RouteID != 2 || fresh.Replayed {
			t.Fatalf("expected new route 2 after TTL, got %+v", fresh)
		}
	})
}

func TestCreateRoute_ContentionAndStoreFailures(t *testing.T) {
	s := &RouteService{Store: &failingStore{err: docstore.ErrContention}}
	if _, err := s.CreateRoute(context.Background(), bhubID, routeIn(1), ""); !errors.Is(err, ErrContention) {
		t.Fatalf("expected ErrContention, got %v", err)
	}
	s = &RouteService{Store: &failingStore{err: errors.New("i/o timeout")}}
	if _, err := s.CreateRoute(context.Background(), bhubID, routeIn(1), ""); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestGetRoute_NotFound(t *testing.T) {
	store := newSQLStore(t)
	s := &RouteService{Store: store}
	if _, err := s.GetRoute(context.Background(), bhubID, 1); !errors.Is(err, ErrGymNotFound) {
		t.Fatalf("expected ErrGymNotFound, got %v", err)
	}
	seedBhub(t, store)
	if _, err := s.GetRoute(context.Background(), bhubID, 1); !errors.Is(err, ErrRouteNotFound) {
		t.Fatalf("expected ErrRouteNotFound, got %v", err)
	}
	if _, err := s.GetRoute(context.Background(), bhubID, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for route 0, got %v", err)
	}
}

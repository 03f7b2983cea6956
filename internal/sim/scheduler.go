package sim

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"drone-delivery-service/internal/domain"
	"drone-delivery-service/internal/ports"
	"drone-delivery-service/internal/services"

	"github.com/google/uuid"
)

// ErrOutOfBounds rejects package coordinates outside the operating area.
var ErrOutOfBounds = errors.New("coordinates outside operating area")

// Options fixes the scheduler's immutable run parameters.
type Options struct {
	Home            domain.Coordinate
	BBox            domain.BoundingBox
	SpeedMPS        float64
	CruiseAltitudeM float64
	TickInterval    time.Duration

	// Re-plan triggers: wind speed drifting this far from the value the
	// current route was planned under, or precipitation crossing the
	// cost-model threshold.
	WindReplanDeltaMPS float64
	PrecipThresholdMMH float64
}

// Scheduler owns the single drone and the package set. All reads and
// writes of simulation state are serialized through its mutex; callers
// only ever receive copies. Planning calls run outside the lock and their
// results are applied back atomically, guarded by a state generation
// counter.
type Scheduler struct {
	planner *services.PathPlanner
	weather ports.WeatherProvider
	opts    Options

	mu         sync.Mutex
	drone      *domain.Drone
	packages   map[string]*domain.Package
	order      []string // package ids in creation order
	queue      []string // pending package ids, FIFO
	generation uint64

	lastTick time.Time
	planCond ports.Conditions // conditions the current route was planned under

	// pickupIndex is the waypoint index of the pickup point within the
	// combined delivery route; -1 once the pickup has been overflown.
	pickupIndex int

	noPathStreak int

	rng *rand.Rand
}

func NewScheduler(planner *services.PathPlanner, weather ports.WeatherProvider, opts Options) (*Scheduler, error) {
	if planner == nil {
		return nil, errors.New("scheduler: planner must be non-nil")
	}
	if weather == nil {
		return nil, errors.New("scheduler: weather provider must be non-nil")
	}
	if opts.SpeedMPS <= 0 {
		return nil, fmt.Errorf("scheduler: speed must be positive, got %v", opts.SpeedMPS)
	}
	if !opts.BBox.Contains(opts.Home) {
		// The factory may legitimately sit outside the delivery box (the
		// default deployment does); only warn.
		log.Printf("scheduler: home lat=%f lng=%f outside bounding box", opts.Home.Lat, opts.Home.Lng)
	}

	return &Scheduler{
		planner: planner,
		weather: weather,
		opts:    opts,
		drone: &domain.Drone{
			DroneID:  "drone-1",
			Position: opts.Home,
			Altitude: opts.CruiseAltitudeM,
			SpeedMPS: opts.SpeedMPS,
			Phase:    domain.PhaseIdle,
		},
		packages:    map[string]*domain.Package{},
		pickupIndex: -1,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// CreatePackage admits a new package after validating both coordinates
// against the bounding box. Rejected packages never enter the queue.
func (s *Scheduler) CreatePackage(pickup, dropoff domain.Coordinate) (domain.Package, error) {
	if !s.opts.BBox.Contains(pickup) {
		return domain.Package{}, fmt.Errorf("create package: pickup lat=%f lng=%f: %w", pickup.Lat, pickup.Lng, ErrOutOfBounds)
	}
	if !s.opts.BBox.Contains(dropoff) {
		return domain.Package{}, fmt.Errorf("create package: dropoff lat=%f lng=%f: %w", dropoff.Lat, dropoff.Lng, ErrOutOfBounds)
	}

	pkg := &domain.Package{
		PackageID: "pkg-" + uuid.NewString(),
		Pickup:    pickup,
		Dropoff:   dropoff,
		Status:    domain.PackagePending,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.packages[pkg.PackageID] = pkg
	s.order = append(s.order, pkg.PackageID)
	s.queue = append(s.queue, pkg.PackageID)
	s.mu.Unlock()

	log.Printf("package created id=%s pickup=%.6f,%.6f dropoff=%.6f,%.6f",
		pkg.PackageID, pickup.Lat, pickup.Lng, dropoff.Lat, dropoff.Lng)

	return *pkg, nil
}

// CreateRandomPackage admits a package with uniformly random pickup and
// dropoff inside the bounding box.
func (s *Scheduler) CreateRandomPackage() (domain.Package, error) {
	s.mu.Lock()
	pickup := s.randomCoordinate()
	dropoff := s.randomCoordinate()
	s.mu.Unlock()
	return s.CreatePackage(pickup, dropoff)
}

func (s *Scheduler) randomCoordinate() domain.Coordinate {
	b := s.opts.BBox
	return domain.Coordinate{
		Lat: b.MinLat + s.rng.Float64()*(b.MaxLat-b.MinLat),
		Lng: b.MinLng + s.rng.Float64()*(b.MaxLng-b.MinLng),
	}
}

// ListDrones returns read-only copies of the drone state.
func (s *Scheduler) ListDrones() []domain.Drone {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := *s.drone
	if s.drone.Route != nil {
		r := *s.drone.Route
		r.Waypoints = append([]domain.Coordinate(nil), s.drone.Route.Waypoints...)
		d.Route = &r
	}
	return []domain.Drone{d}
}

// ListPackages returns read-only package copies in creation order.
func (s *Scheduler) ListPackages() []domain.Package {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Package, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.packages[id])
	}
	return out
}

// Run drives ticks at the configured interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	log.Printf("scheduler started interval=%s speed=%.1fmps", s.opts.TickInterval, s.opts.SpeedMPS)

	for {
		select {
		case <-ctx.Done():
			log.Printf("scheduler stopped: %v", ctx.Err())
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// planTask describes a planning call to run outside the state lock.
type planTask struct {
	kind       planKind
	generation uint64
	from       domain.Coordinate
	pickup     domain.Coordinate // assign and re-plan with pending pickup
	dropoff    domain.Coordinate
	packageID  string
	viaPickup  bool // route must still pass through the pickup point
}

type planKind int

const (
	planNone planKind = iota
	planAssign
	planReturn
	planReplan
)

// Tick advances the simulation to now. Elapsed time is measured against
// the previous tick's wall-clock, so a stalled driver catches up on the
// next call instead of losing simulated distance.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	// Weather is sampled before taking the lock; the provider falls back
	// to a stale snapshot on failure rather than erroring.
	cond, err := s.weather.CurrentConditions(ctx)
	if err != nil {
		log.Printf("weather unavailable, skipping environment checks: %v", err)
	}

	task := s.advance(now, cond)
	if task.kind == planNone {
		return
	}

	route, planErr := s.plan(ctx, task, cond)
	s.apply(task, route, cond, now, planErr)
}

// advance moves the drone, performs arrival transitions, and decides
// whether a planning call is needed. It holds the state lock throughout.
func (s *Scheduler) advance(now time.Time, cond ports.Conditions) planTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := time.Duration(0)
	if !s.lastTick.IsZero() {
		elapsed = now.Sub(s.lastTick)
	}
	s.lastTick = now

	d := s.drone

	if d.Route != nil {
		s.advanceAlongRoute(d, elapsed)
	}

	// Passing the pickup waypoint puts the package on board.
	if d.Phase == domain.PhaseDelivering && s.pickupIndex >= 0 && d.Cursor > s.pickupIndex {
		if pkg := s.packages[d.PackageID]; pkg != nil && pkg.Status == domain.PackageAssigned {
			pkg.Status = domain.PackageInTransit
			log.Printf("package picked up id=%s", pkg.PackageID)
		}
	}

	arrived := d.Route != nil && d.Cursor >= len(d.Route.Waypoints)

	switch {
	case d.Phase == domain.PhaseDelivering && arrived:
		pkg := s.packages[d.PackageID]
		if pkg == nil {
			// Cursor/route bookkeeping is scheduler-internal; a missing
			// package here is a programming error.
			panic(fmt.Sprintf("scheduler: delivering drone holds unknown package %q", d.PackageID))
		}
		t := now
		pkg.Status = domain.PackageDelivered
		pkg.DeliveredAt = &t
		pkg.RouteCost = d.Route.Cost
		log.Printf("package delivered id=%s cost=%.1fs", pkg.PackageID, pkg.RouteCost)

		d.PackageID = ""
		d.Phase = domain.PhaseReturning
		d.Route = nil
		d.Cursor = 0
		s.pickupIndex = -1
		s.generation++

		return planTask{
			kind:       planReturn,
			generation: s.generation,
			from:       d.Position,
			dropoff:    s.opts.Home,
		}

	case d.Phase == domain.PhaseReturning && arrived:
		d.Phase = domain.PhaseIdle
		d.Route = nil
		d.Cursor = 0
		s.generation++
		log.Printf("drone id=%s returned home", d.DroneID)
	}

	// Returning without a route means an earlier return plan failed;
	// retry it before anything else.
	if d.Phase == domain.PhaseReturning && d.Route == nil {
		return planTask{
			kind:       planReturn,
			generation: s.generation,
			from:       d.Position,
			dropoff:    s.opts.Home,
		}
	}

	// Re-plan from the drone's current position when the environment
	// drifted past the configured thresholds since the route was planned,
	// or when the next edge has become infeasible. Partial progress is
	// preserved: the search starts where the drone is now.
	if d.Phase != domain.PhaseIdle && d.Route != nil && s.shouldReplan(d, cond) {
		task := planTask{
			kind:       planReplan,
			generation: s.generation,
			from:       d.Position,
			dropoff:    s.routeGoal(d),
			packageID:  d.PackageID,
		}
		if d.Phase == domain.PhaseDelivering && s.pickupIndex >= 0 && d.Cursor <= s.pickupIndex {
			task.viaPickup = true
			task.pickup = s.packages[d.PackageID].Pickup
		}
		return task
	}

	// FIFO admission: only an idle drone takes the oldest pending package.
	if d.Phase == domain.PhaseIdle && len(s.queue) > 0 {
		pkg := s.packages[s.queue[0]]
		return planTask{
			kind:       planAssign,
			generation: s.generation,
			from:       d.Position,
			pickup:     pkg.Pickup,
			dropoff:    pkg.Dropoff,
			packageID:  pkg.PackageID,
			viaPickup:  true,
		}
	}

	return planTask{kind: planNone}
}

// advanceAlongRoute consumes waypoint segments until the distance budget
// for the elapsed interval is exhausted or the route ends.
func (s *Scheduler) advanceAlongRoute(d *domain.Drone, elapsed time.Duration) {
	if d.Cursor < 0 || d.Cursor > len(d.Route.Waypoints) {
		panic(fmt.Sprintf("scheduler: cursor %d out of route bounds %d", d.Cursor, len(d.Route.Waypoints)))
	}

	budget := d.SpeedMPS * elapsed.Seconds()
	for budget > 0 && d.Cursor < len(d.Route.Waypoints) {
		next := d.Route.Waypoints[d.Cursor]
		dist := d.Position.DistanceMeters(next)

		if dist <= budget {
			d.Position = next
			d.Cursor++
			budget -= dist
			continue
		}

		ratio := budget / dist
		d.Position = domain.Coordinate{
			Lat: d.Position.Lat + (next.Lat-d.Position.Lat)*ratio,
			Lng: d.Position.Lng + (next.Lng-d.Position.Lng)*ratio,
		}
		budget = 0
	}
}

// shouldReplan checks condition drift against the plan-time snapshot and
// the feasibility of the next route edge.
func (s *Scheduler) shouldReplan(d *domain.Drone, cond ports.Conditions) bool {
	windDrift := cond.WindSpeedMPS - s.planCond.WindSpeedMPS
	if windDrift < 0 {
		windDrift = -windDrift
	}
	if s.opts.WindReplanDeltaMPS > 0 && windDrift >= s.opts.WindReplanDeltaMPS {
		log.Printf("re-plan trigger: wind %.1f -> %.1f mps", s.planCond.WindSpeedMPS, cond.WindSpeedMPS)
		return true
	}

	if s.opts.PrecipThresholdMMH > 0 {
		wasWet := s.planCond.PrecipitationMMH >= s.opts.PrecipThresholdMMH
		isWet := cond.PrecipitationMMH >= s.opts.PrecipThresholdMMH
		if wasWet != isWet {
			log.Printf("re-plan trigger: precipitation %.1f -> %.1f mm/h", s.planCond.PrecipitationMMH, cond.PrecipitationMMH)
			return true
		}
	}

	if d.Cursor < len(d.Route.Waypoints) {
		next := d.Route.Waypoints[d.Cursor]
		if _, err := s.planner.Cost.EdgeCost(context.Background(), d.Position, next, d.Altitude, cond); errors.Is(err, services.ErrEdgeExcluded) {
			log.Printf("re-plan trigger: next edge excluded: %v", err)
			return true
		}
	}

	return false
}

// routeGoal returns the final waypoint of the current route.
func (s *Scheduler) routeGoal(d *domain.Drone) domain.Coordinate {
	return d.Route.Waypoints[len(d.Route.Waypoints)-1]
}

// plan runs the planner without holding the state lock.
func (s *Scheduler) plan(ctx context.Context, task planTask, cond ports.Conditions) (*domain.Route, error) {
	if task.viaPickup {
		return s.planner.PlanVia(ctx, task.from, task.pickup, task.dropoff, s.opts.CruiseAltitudeM, cond)
	}
	return s.planner.Plan(ctx, task.from, task.dropoff, s.opts.CruiseAltitudeM, cond)
}

// apply installs a planning result back into the scheduler state, unless
// the state generation moved while the search ran.
func (s *Scheduler) apply(task planTask, route *domain.Route, cond ports.Conditions, now time.Time, planErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task.generation != s.generation {
		log.Printf("plan result discarded: state generation moved during search")
		return
	}

	if planErr != nil {
		s.noPathStreak++
		log.Printf("planning failed (attempt %d, will retry): %v", s.noPathStreak, planErr)
		// Assignment failure leaves the package pending and the drone
		// idle; return and re-plan failures keep the current state and
		// retry on a later tick.
		return
	}
	s.noPathStreak = 0

	d := s.drone

	switch task.kind {
	case planAssign:
		pkg := s.packages[task.packageID]
		t := now
		pkg.Status = domain.PackageAssigned
		pkg.AssignedAt = &t
		s.queue = s.queue[1:]

		d.Phase = domain.PhaseDelivering
		d.PackageID = pkg.PackageID
		d.Route = route
		d.Cursor = 0
		d.Altitude = s.opts.CruiseAltitudeM
		s.pickupIndex = waypointIndex(route, pkg.Pickup)
		s.planCond = cond
		s.generation++
		log.Printf("package assigned id=%s waypoints=%d cost=%.1fs", pkg.PackageID, len(route.Waypoints), route.Cost)

	case planReturn:
		d.Route = route
		d.Cursor = 0
		s.planCond = cond
		s.generation++
		log.Printf("return route planned waypoints=%d cost=%.1fs", len(route.Waypoints), route.Cost)

	case planReplan:
		d.Route = route
		d.Cursor = 0
		if task.viaPickup {
			s.pickupIndex = waypointIndex(route, task.pickup)
		} else {
			s.pickupIndex = -1
		}
		s.planCond = cond
		s.generation++
		log.Printf("route re-planned waypoints=%d cost=%.1fs", len(route.Waypoints), route.Cost)
	}
}

// waypointIndex locates the first waypoint equal to target.
func waypointIndex(route *domain.Route, target domain.Coordinate) int {
	for i, w := range route.Waypoints {
		if w == target {
			return i
		}
	}
	return -1
}

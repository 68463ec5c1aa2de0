// Package location absorbs high-frequency driver position pings,
// updates the in-memory Geo Index synchronously, fans each ping out on
// the Update Bus, and batches durable persistence so the hot ingest path
// never blocks on a database round trip.
package location

import (
	"context"
	"sync"
	"time"

	"ride-engine/internal/apperr"
	"ride-engine/internal/bus"
	"ride-engine/internal/domain"
	"ride-engine/internal/geo"
	"ride-engine/internal/repository"
)

// Config tunes the flush and backpressure policy.
type Config struct {
	BatchSize     int
	BatchInterval time.Duration
	// HighWaterMark bounds the number of buffered pings per driver; once
	// exceeded the oldest buffered ping for that driver is dropped.
	HighWaterMark int
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.BatchInterval <= 0 {
		c.BatchInterval = 10 * time.Second
	}
	if c.HighWaterMark <= 0 {
		c.HighWaterMark = 500
	}
	return c
}

// DriverLookup resolves the current status and active ride of a driver,
// so the pipeline knows whether to touch the Geo Index and where to
// publish live updates. It is satisfied by a thin service-layer adapter
// over the repository layer.
type DriverLookup interface {
	CurrentStatus(ctx context.Context, driverID string) (status domain.DriverStatus, activeRideID string, ok bool)
}

// Ping is one raw position sample from a driver device.
type Ping struct {
	DriverID string
	Lat      float64
	Lng      float64
	Heading  *float64
	Speed    *float64
	Accuracy *float64
	Ts       int64
}

func (p Ping) validate() error {
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return apperr.New(apperr.InvalidInput, "location out of range")
	}
	if p.Speed != nil && *p.Speed < 0 {
		return apperr.New(apperr.InvalidInput, "speed must be non-negative")
	}
	return nil
}

type buffered struct {
	pings   []Ping
	firstAt time.Time
}

// Pipeline is the Location Ingest Pipeline. One Pipeline instance owns
// one buffer, one drain goroutine, and one Geo Index.
type Pipeline struct {
	cfg Config

	index    *geo.Index
	repo     repository.DriverLocationRepository
	lookup   DriverLookup
	bus      *bus.Bus
	dropped  atomicCounter

	mu     sync.Mutex
	buffer map[string]*buffered

	trigger chan struct{}
	closed  chan struct{}
	wg      sync.WaitGroup
}

// New creates a Pipeline and starts its drain goroutine.
func New(cfg Config, index *geo.Index, repo repository.DriverLocationRepository, lookup DriverLookup, b *bus.Bus) *Pipeline {
	p := &Pipeline{
		cfg:     cfg.withDefaults(),
		index:   index,
		repo:    repo,
		lookup:  lookup,
		bus:     b,
		buffer:  make(map[string]*buffered),
		trigger: make(chan struct{}, 1),
		closed:  make(chan struct{}),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

// RecordPing validates ping, applies it to the Geo Index synchronously
// when the driver's current status requires a live position, buffers it
// for durable persistence, and publishes it to any live subscribers.
// RecordPing never fails on account of downstream persistence or fan-out;
// only input validation can reject a ping.
func (p *Pipeline) RecordPing(ctx context.Context, ping Ping) error {
	if err := ping.validate(); err != nil {
		return err
	}

	status, activeRideID, ok := p.lookup.CurrentStatus(ctx, ping.DriverID)
	if ok && (status == domain.DriverStatusAvailable || status == domain.DriverStatusOnRide) {
		p.index.Add(ping.DriverID, ping.Lat, ping.Lng, geo.Meta{}, ping.Ts)
	}

	p.enqueue(ping)

	if ok && status == domain.DriverStatusOnRide && activeRideID != "" && p.bus != nil {
		var evt bus.RideLocationEvent
		evt.DriverLocation.Lat = ping.Lat
		evt.DriverLocation.Lng = ping.Lng
		_ = p.bus.Publish(ctx, bus.RideTopic(activeRideID), evt)
	}
	if p.bus != nil {
		_ = p.bus.Publish(ctx, bus.LocationTopic(ping.DriverID), bus.LocationPing{
			DriverID: ping.DriverID, Lat: ping.Lat, Lng: ping.Lng,
			Heading: ping.Heading, Speed: ping.Speed, Accuracy: ping.Accuracy,
		})
	}

	return nil
}

// enqueue appends ping to its driver's buffer under a short-lived
// critical section, then signals the drain goroutine once the total number
// of buffered pings reaches BatchSize. It is the pipeline's only writer of
// p.buffer; the drain goroutine is the only reader-and-clearer.
func (p *Pipeline) enqueue(ping Ping) {
	p.mu.Lock()
	b, ok := p.buffer[ping.DriverID]
	if !ok {
		b = &buffered{firstAt: time.Now()}
		p.buffer[ping.DriverID] = b
	}
	b.pings = append(b.pings, ping)
	if len(b.pings) > p.cfg.HighWaterMark {
		dropped := len(b.pings) - p.cfg.HighWaterMark
		b.pings = b.pings[dropped:]
		p.dropped.add(int64(dropped))
	}

	total := p.totalBufferedLocked()
	p.mu.Unlock()

	if total >= p.cfg.BatchSize {
		p.signalDrain()
	}
}

func (p *Pipeline) totalBufferedLocked() int {
	total := 0
	for _, b := range p.buffer {
		total += len(b.pings)
	}
	return total
}

// signalDrain requests a drain without blocking; a drain already in
// flight, or already pending, coalesces this request into it.
func (p *Pipeline) signalDrain() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

func (p *Pipeline) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.BatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.closed:
			p.drain(context.Background())
			return
		case <-ticker.C:
			p.drain(context.Background())
		case <-p.trigger:
			p.drain(context.Background())
		}
	}
}

// drain is only ever run from the single pipeline goroutine, so at most
// one drain is in flight; concurrent triggers during a drain coalesce
// via the buffered signalDrain channel instead of racing each other.
func (p *Pipeline) drain(ctx context.Context) {
	p.mu.Lock()
	if len(p.buffer) == 0 {
		p.mu.Unlock()
		return
	}
	batch := p.buffer
	p.buffer = make(map[string]*buffered)
	p.mu.Unlock()

	var pings []repository.DriverLocationPing
	for driverID, b := range batch {
		for _, ping := range b.pings {
			pings = append(pings, repository.DriverLocationPing{
				DriverID: driverID,
				Lat:      ping.Lat,
				Lng:      ping.Lng,
				Heading:  ping.Heading,
				Speed:    ping.Speed,
				Accuracy: ping.Accuracy,
				Timestamp: ping.Ts,
			})
		}
	}
	if len(pings) == 0 {
		return
	}

	// Retry once on a transient failure, then drop the batch: the pipeline
	// never blocks ingest waiting for persistence, and position tracking
	// is inherently lossy already.
	if err := p.repo.InsertBatch(ctx, pings); err != nil {
		_ = p.repo.InsertBatch(ctx, pings)
	}
}

// DroppedCount returns the number of pings dropped so far due to the
// per-driver high-water mark.
func (p *Pipeline) DroppedCount() int64 { return p.dropped.get() }

// Close stops the drain goroutine after flushing whatever remains
// buffered.
func (p *Pipeline) Close() {
	close(p.closed)
	p.wg.Wait()
}

type atomicCounter struct {
	mu sync.Mutex
	n  int64
}

func (c *atomicCounter) add(d int64) {
	c.mu.Lock()
	c.n += d
	c.mu.Unlock()
}

func (c *atomicCounter) get() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

package tests

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"ride-engine/internal/apperr"
	"ride-engine/internal/domain"
	"ride-engine/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is an in-memory stand-in for repository.RideRepository.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride

	CreateCallCount int32
	CreateError     error
}

func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{rides: make(map[string]*domain.Ride)}
}

func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *ride
	return &cp, nil
}

func (m *MockRideRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rides {
		if r.IdempotencyKey == key {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockRideRepository) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0, len(m.rides))
	for _, r := range m.rides {
		cp := *r
		result = append(result, &cp)
	}
	return result, nil
}

func (m *MockRideRepository) ListByRider(ctx context.Context, riderID string, page, limit int) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []*domain.Ride
	for _, r := range m.rides {
		if r.RiderID == riderID {
			cp := *r
			all = append(all, &cp)
		}
	}
	start := (page - 1) * limit
	if start >= len(all) {
		return []*domain.Ride{}, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (m *MockRideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rides[ride.ID]; !ok {
		return repository.ErrNotFound
	}
	m.rides[ride.ID] = ride
	return nil
}

func (m *MockRideRepository) UpdateStatusIfCurrent(ctx context.Context, id string, expected, next domain.RideStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if ride.Status != expected {
		return false, nil
	}
	ride.Status = next
	return true, nil
}

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip
}

func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{trips: make(map[string]*domain.Trip)}
}

func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *trip
	return &cp, nil
}

func (m *MockTripRepository) GetByRideID(ctx context.Context, rideID string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.trips {
		if t.RideID == rideID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockTripRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.trips {
		if t.DriverID == driverID && t.Status == domain.TripStatusStarted {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
	return nil
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	UpdateStatusCallCount int32
}

func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{drivers: make(map[string]*domain.Driver)}
}

func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *driver
	return &cp, nil
}

func (m *MockDriverRepository) GetByPhone(ctx context.Context, phone string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.drivers {
		if d.Phone == phone {
			cp := *d
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockDriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		cp := *d
		result = append(result, &cp)
	}
	return result, nil
}

func (m *MockDriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Status = status
	return nil
}

func (m *MockDriverRepository) UpdateStatusIfCurrent(ctx context.Context, id string, expected, next domain.DriverStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if driver.Status != expected {
		return false, nil
	}
	driver.Status = next
	return true, nil
}

func (m *MockDriverRepository) UpdateLocation(ctx context.Context, id string, lat, lng float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.LastLat, driver.LastLng = lat, lng
	return nil
}

func (m *MockDriverRepository) IncrementTotalTrips(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.TotalTrips++
	return nil
}

// ──────────────────────────────────────────────
// MOCK RIDER REPOSITORY
// ──────────────────────────────────────────────

type MockRiderRepository struct {
	mu     sync.RWMutex
	riders map[string]*domain.Rider

	CompleteRideCallCount int32
	LastRatingDelta       float64
}

func NewMockRiderRepository() *MockRiderRepository {
	return &MockRiderRepository{riders: make(map[string]*domain.Rider)}
}

func (m *MockRiderRepository) AddRider(rider *domain.Rider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.riders[rider.ID] = rider
}

func (m *MockRiderRepository) Create(ctx context.Context, rider *domain.Rider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.riders[rider.ID] = rider
	return nil
}

func (m *MockRiderRepository) GetByID(ctx context.Context, id string) (*domain.Rider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rider, ok := m.riders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rider
	return &cp, nil
}

func (m *MockRiderRepository) GetByPhone(ctx context.Context, phone string) (*domain.Rider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.riders {
		if r.Phone == phone {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockRiderRepository) CompleteRide(ctx context.Context, id string, ratingDelta float64) error {
	atomic.AddInt32(&m.CompleteRideCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRatingDelta = ratingDelta
	rider, ok := m.riders[id]
	if !ok {
		return repository.ErrNotFound
	}
	rider.TotalRides++
	rider.Rating += ratingDelta
	return nil
}

// ──────────────────────────────────────────────
// MOCK RIDE EVENT / NOTIFICATION / PRICING / SURGE REPOSITORIES
// ──────────────────────────────────────────────

type MockRideEventRepository struct {
	mu     sync.Mutex
	events []*domain.RideEvent
}

func NewMockRideEventRepository() *MockRideEventRepository {
	return &MockRideEventRepository{}
}

func (m *MockRideEventRepository) Create(ctx context.Context, event *domain.RideEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockRideEventRepository) ListByRideID(ctx context.Context, rideID string) ([]*domain.RideEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.RideEvent
	for _, e := range m.events {
		if e.RideID == rideID {
			result = append(result, e)
		}
	}
	return result, nil
}

type MockNotificationRepository struct {
	mu            sync.Mutex
	notifications []*domain.Notification
}

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{}
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *MockNotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Notification
	for _, n := range m.notifications {
		if n.RecipientID == recipientID {
			result = append(result, n)
		}
	}
	return result, nil
}

func (m *MockNotificationRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notifications)
}

func (m *MockNotificationRepository) Last() *domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.notifications) == 0 {
		return nil
	}
	return m.notifications[len(m.notifications)-1]
}

type MockPricingConfigRepository struct {
	configs map[string]*domain.PricingConfig
}

func NewMockPricingConfigRepository() *MockPricingConfigRepository {
	return &MockPricingConfigRepository{configs: make(map[string]*domain.PricingConfig)}
}

func (m *MockPricingConfigRepository) Set(region string, tier domain.RideTier, cfg *domain.PricingConfig) {
	m.configs[region+"|"+string(tier)] = cfg
}

func (m *MockPricingConfigRepository) GetActive(ctx context.Context, region string, tier domain.RideTier) (*domain.PricingConfig, error) {
	cfg, ok := m.configs[region+"|"+string(tier)]
	if !ok {
		return nil, nil
	}
	return cfg, nil
}

type MockSurgeZoneRepository struct {
	zone *domain.SurgeZone
	err  error
}

func NewMockSurgeZoneRepository() *MockSurgeZoneRepository {
	return &MockSurgeZoneRepository{}
}

func (m *MockSurgeZoneRepository) SetZone(zone *domain.SurgeZone) { m.zone = zone }
func (m *MockSurgeZoneRepository) SetError(err error)             { m.err = err }

func (m *MockSurgeZoneRepository) GetActiveForPickup(ctx context.Context, region string, pickupLat, pickupLng float64) (*domain.SurgeZone, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.zone, nil
}

// ──────────────────────────────────────────────
// MOCK RECEIPT / PAYMENT / REFUND / EARNING REPOSITORIES
// ──────────────────────────────────────────────

type MockReceiptRepository struct {
	mu       sync.Mutex
	receipts map[string]*domain.Receipt
}

func NewMockReceiptRepository() *MockReceiptRepository {
	return &MockReceiptRepository{receipts: make(map[string]*domain.Receipt)}
}

func (m *MockReceiptRepository) Create(ctx context.Context, receipt *domain.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts[receipt.TripID] = receipt
	return nil
}

func (m *MockReceiptRepository) GetByTripID(ctx context.Context, tripID string) (*domain.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.receipts[tripID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r, nil
}

type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment

	CreateCallCount int32
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{payments: make(map[string]*domain.Payment)}
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[payment.ID] = payment
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (m *MockPaymentRepository) GetByTripID(ctx context.Context, tripID string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.TripID == tripID {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockPaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.IdempotencyKey == key {
			return p, nil
		}
	}
	return nil, nil
}

func (m *MockPaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[payment.ID] = payment
	return nil
}

type MockRefundRepository struct {
	mu      sync.Mutex
	refunds map[string][]*domain.Refund
}

func NewMockRefundRepository() *MockRefundRepository {
	return &MockRefundRepository{refunds: make(map[string][]*domain.Refund)}
}

func (m *MockRefundRepository) Create(ctx context.Context, refund *domain.Refund) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refunds[refund.PaymentID] = append(m.refunds[refund.PaymentID], refund)
	return nil
}

func (m *MockRefundRepository) GetByPaymentID(ctx context.Context, paymentID string) ([]*domain.Refund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refunds[paymentID], nil
}

type MockEarningRepository struct {
	mu       sync.Mutex
	earnings []*domain.Earning
}

func NewMockEarningRepository() *MockEarningRepository {
	return &MockEarningRepository{}
}

func (m *MockEarningRepository) Create(ctx context.Context, earning *domain.Earning) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.earnings = append(m.earnings, earning)
	return nil
}

func (m *MockEarningRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.earnings)
}

// ──────────────────────────────────────────────
// MOCK DRIVER LOCATION REPOSITORY / DRIVER LOOKUP
// ──────────────────────────────────────────────

type MockDriverLocationRepository struct {
	mu    sync.Mutex
	pings []repository.DriverLocationPing

	InsertBatchError error
}

func NewMockDriverLocationRepository() *MockDriverLocationRepository {
	return &MockDriverLocationRepository{}
}

func (m *MockDriverLocationRepository) InsertBatch(ctx context.Context, pings []repository.DriverLocationPing) error {
	if m.InsertBatchError != nil {
		return m.InsertBatchError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pings = append(m.pings, pings...)
	return nil
}

func (m *MockDriverLocationRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pings)
}

// MockDriverLookup implements location.DriverLookup with canned answers,
// standing in for the driverLookup adapter's composition of repositories.
type MockDriverLookup struct {
	mu       sync.Mutex
	statuses map[string]domain.DriverStatus
	rideIDs  map[string]string
}

func NewMockDriverLookup() *MockDriverLookup {
	return &MockDriverLookup{statuses: make(map[string]domain.DriverStatus), rideIDs: make(map[string]string)}
}

func (m *MockDriverLookup) Set(driverID string, status domain.DriverStatus, rideID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[driverID] = status
	m.rideIDs[driverID] = rideID
}

func (m *MockDriverLookup) CurrentStatus(ctx context.Context, driverID string) (domain.DriverStatus, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	status, ok := m.statuses[driverID]
	if !ok {
		return "", "", false
	}
	return status, m.rideIDs[driverID], true
}

// ──────────────────────────────────────────────
// MOCK PSP
// ──────────────────────────────────────────────

// MockPSP is a mock payment service provider matching the service.PSP
// interface.
type MockPSP struct {
	mu sync.Mutex

	ShouldFail bool
	FailErr    error

	ChargeCallCount int32
}

func NewMockPSP() *MockPSP { return &MockPSP{} }

func (m *MockPSP) Charge(ctx context.Context, amount float64, method domain.PaymentMethod) (string, error) {
	atomic.AddInt32(&m.ChargeCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		if m.FailErr != nil {
			return "", m.FailErr
		}
		return "", repository.ErrNotFound
	}
	return "mock_txn_" + string(method), nil
}

func (m *MockPSP) SetFailure(shouldFail bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShouldFail = shouldFail
	m.FailErr = err
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is an in-memory stand-in for redis.LockStoreInterface,
// keyed by lock name rather than driver ID.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]string

	AcquireCallCount int32
	ReleaseCallCount int32

	AcquireError        error
	ForceAcquireFailure bool
}

func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]string)}
}

func (m *MockLockStore) Acquire(ctx context.Context, name string, ttl time.Duration) (string, bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return "", false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return "", false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[name]; held {
		return "", false, nil
	}
	token := fmt.Sprintf("token-%d", m.AcquireCallCount)
	m.locks[name] = token
	return token, true, nil
}

func (m *MockLockStore) Release(ctx context.Context, name, token string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if held, ok := m.locks[name]; ok && held == token {
		delete(m.locks, name)
	}
	return nil
}

func (m *MockLockStore) WithLock(ctx context.Context, name string, ttl time.Duration, body func(ctx context.Context) error) error {
	token, ok, err := m.Acquire(ctx, name, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.New(apperr.Conflict, fmt.Sprintf("lock %q already held", name))
	}
	defer m.Release(ctx, name, token)
	return body(ctx)
}

// IsLocked reports whether name is currently held (for test assertions).
func (m *MockLockStore) IsLocked(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, held := m.locks[name]
	return held
}

// ClearLocks clears all held locks (for test cleanup).
func (m *MockLockStore) ClearLocks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks = make(map[string]string)
}

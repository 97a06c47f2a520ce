package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"herd-analytics/internal/model"
	"herd-analytics/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// fakeStore is an in-memory ledger with the same tenant and soft-delete rules as the gorm one
type fakeStore struct {
	mu         sync.Mutex
	nextID     uint
	tenants    map[uint]bool
	animals    map[uint]*model.Animal
	weighings  map[uint]*model.Weighing
	treatments map[uint]*model.Treatment
	costs      map[uint]*model.OperatingCost
	schedules  map[uint]*model.FinancialSchedule

	// readErr makes every read fail, simulating an unavailable store
	readErr error
	reads   int
}

func newFakeStore(tenantIDs ...uint) *fakeStore {
	s := &fakeStore{
		tenants:    make(map[uint]bool),
		animals:    make(map[uint]*model.Animal),
		weighings:  make(map[uint]*model.Weighing),
		treatments: make(map[uint]*model.Treatment),
		costs:      make(map[uint]*model.OperatingCost),
		schedules:  make(map[uint]*model.FinancialSchedule),
	}
	for _, id := range tenantIDs {
		s.tenants[id] = true
	}
	return s
}

func (s *fakeStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) TenantExists(_ context.Context, tenantID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tenants[tenantID], nil
}

func (s *fakeStore) TenantIDs(_ context.Context) ([]uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint, 0, len(s.tenants))
	for id := range s.tenants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *fakeStore) ForTenant(tenantID uint) (repository.TenantLedger, error) {
	if tenantID == 0 {
		return nil, repository.ErrInvalidTenant
	}
	return &fakeLedger{store: s, tenantID: tenantID}, nil
}

type fakeLedger struct {
	store    *fakeStore
	tenantID uint
}

func (l *fakeLedger) TenantID() uint { return l.tenantID }

func (l *fakeLedger) read() error {
	l.store.reads++
	return l.store.readErr
}

// liveAnimal must be called with the lock held
func (l *fakeLedger) liveAnimal(id uint) (*model.Animal, bool) {
	a, ok := l.store.animals[id]
	if !ok || a.TenantID != l.tenantID || a.DeletedAt.Valid {
		return nil, false
	}
	return a, true
}

func (l *fakeLedger) Animal(_ context.Context, animalID uint) (*model.Animal, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	if err := l.read(); err != nil {
		return nil, err
	}
	a, ok := l.liveAnimal(animalID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (l *fakeLedger) Animals(_ context.Context, status repository.AnimalStatus) ([]model.Animal, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	if err := l.read(); err != nil {
		return nil, err
	}
	var out []model.Animal
	for id := range l.store.animals {
		a, ok := l.liveAnimal(id)
		if !ok {
			continue
		}
		if status == repository.StatusActive && a.IsSold() || status == repository.StatusSold && !a.IsSold() {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (l *fakeLedger) CountActiveAnimals(ctx context.Context) (int64, error) {
	animals, err := l.Animals(ctx, repository.StatusActive)
	return int64(len(animals)), err
}

func (l *fakeLedger) Weighings(_ context.Context, animalID uint) ([]model.Weighing, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	if err := l.read(); err != nil {
		return nil, err
	}
	return l.weighingsWhere(func(a *model.Animal) bool { return a.ID == animalID }), nil
}

func (l *fakeLedger) ActiveHerdWeighings(_ context.Context) ([]model.Weighing, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	if err := l.read(); err != nil {
		return nil, err
	}
	return l.weighingsWhere(func(a *model.Animal) bool { return !a.IsSold() }), nil
}

func (l *fakeLedger) weighingsWhere(keep func(*model.Animal) bool) []model.Weighing {
	var out []model.Weighing
	for _, w := range l.store.weighings {
		if w.DeletedAt.Valid {
			continue
		}
		a, ok := l.liveAnimal(w.AnimalID)
		if !ok || !keep(a) {
			continue
		}
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (l *fakeLedger) Treatments(_ context.Context, animalID uint) ([]model.Treatment, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	if err := l.read(); err != nil {
		return nil, err
	}
	return l.treatmentsWhere(func(t *model.Treatment) bool { return t.AnimalID == animalID }), nil
}

func (l *fakeLedger) AllTreatments(_ context.Context) ([]model.Treatment, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	if err := l.read(); err != nil {
		return nil, err
	}
	return l.treatmentsWhere(func(*model.Treatment) bool { return true }), nil
}

func (l *fakeLedger) treatmentsWhere(keep func(*model.Treatment) bool) []model.Treatment {
	var out []model.Treatment
	for _, t := range l.store.treatments {
		if t.DeletedAt.Valid || !keep(t) {
			continue
		}
		if _, ok := l.liveAnimal(t.AnimalID); !ok {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (l *fakeLedger) OperatingCosts(_ context.Context, r repository.DateRange) ([]model.OperatingCost, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	if err := l.read(); err != nil {
		return nil, err
	}
	var out []model.OperatingCost
	for _, c := range l.store.costs {
		if c.TenantID != l.tenantID || c.DeletedAt.Valid {
			continue
		}
		if !r.From.IsZero() && c.Date.Before(civilDay(r.From)) {
			continue
		}
		if !r.To.IsZero() && c.Date.After(civilDay(r.To)) {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (l *fakeLedger) Schedules(_ context.Context) ([]model.FinancialSchedule, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	if err := l.read(); err != nil {
		return nil, err
	}
	var out []model.FinancialSchedule
	for _, s := range l.store.schedules {
		if s.TenantID == l.tenantID && !s.DeletedAt.Valid {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (l *fakeLedger) CreateAnimal(_ context.Context, animal *model.Animal, initialWeight float64) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	for _, a := range l.store.animals {
		if a.TenantID == l.tenantID && a.Tag == animal.Tag {
			return repository.ErrDuplicateTag
		}
	}
	animal.ID = l.store.id()
	animal.TenantID = l.tenantID
	cp := *animal
	l.store.animals[animal.ID] = &cp

	w := &model.Weighing{ID: l.store.id(), AnimalID: animal.ID, Date: animal.AcquisitionDate, Weight: initialWeight}
	l.store.weighings[w.ID] = w
	animal.Weighings = []model.Weighing{*w}
	return nil
}

func (l *fakeLedger) RecordSale(_ context.Context, animalID uint, date time.Time, weight float64, price decimal.Decimal) (*model.Animal, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	a, ok := l.liveAnimal(animalID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	if a.IsSold() {
		return nil, repository.ErrAlreadySold
	}
	d := civilDay(date)
	a.SaleDate = &d
	a.SalePrice = decimal.NewNullDecimal(price)
	w := &model.Weighing{ID: l.store.id(), AnimalID: animalID, Date: d, Weight: weight}
	l.store.weighings[w.ID] = w
	cp := *a
	return &cp, nil
}

func (l *fakeLedger) AddWeighing(_ context.Context, w *model.Weighing) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	if _, ok := l.liveAnimal(w.AnimalID); !ok {
		return repository.ErrNotFound
	}
	w.ID = l.store.id()
	cp := *w
	l.store.weighings[w.ID] = &cp
	return nil
}

func (l *fakeLedger) AddTreatment(_ context.Context, t *model.Treatment) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	if _, ok := l.liveAnimal(t.AnimalID); !ok {
		return repository.ErrNotFound
	}
	t.ID = l.store.id()
	cp := *t
	l.store.treatments[t.ID] = &cp
	return nil
}

func (l *fakeLedger) AddOperatingCost(_ context.Context, c *model.OperatingCost) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	c.ID = l.store.id()
	c.TenantID = l.tenantID
	cp := *c
	l.store.costs[c.ID] = &cp
	return nil
}

func (l *fakeLedger) AddSchedule(_ context.Context, s *model.FinancialSchedule) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	s.ID = l.store.id()
	s.TenantID = l.tenantID
	cp := *s
	l.store.schedules[s.ID] = &cp
	return nil
}

func (l *fakeLedger) SoftDeleteAnimal(_ context.Context, animalID uint) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	a, ok := l.store.animals[animalID]
	if !ok || a.TenantID != l.tenantID {
		return repository.ErrNotFound
	}
	if !a.DeletedAt.Valid {
		a.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}
	return nil
}

func (l *fakeLedger) RestoreAnimal(_ context.Context, animalID uint) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	a, ok := l.store.animals[animalID]
	if !ok || a.TenantID != l.tenantID {
		return repository.ErrNotFound
	}
	a.DeletedAt = gorm.DeletedAt{}
	return nil
}

func (l *fakeLedger) SoftDeleteWeighing(_ context.Context, weighingID uint) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	w, ok := l.store.weighings[weighingID]
	if !ok || w.DeletedAt.Valid {
		return repository.ErrNotFound
	}
	if _, ok := l.liveAnimal(w.AnimalID); !ok {
		return repository.ErrNotFound
	}
	w.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return nil
}

func (l *fakeLedger) SettleSchedule(_ context.Context, scheduleID uint, paidOn time.Time) (*model.OperatingCost, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	s, ok := l.store.schedules[scheduleID]
	if !ok || s.TenantID != l.tenantID || s.DeletedAt.Valid {
		return nil, repository.ErrNotFound
	}
	if s.Status != model.ScheduleStatusPending {
		return nil, repository.ErrNotPending
	}
	s.Status = model.ScheduleStatusPaid
	c := &model.OperatingCost{
		ID:          l.store.id(),
		TenantID:    l.tenantID,
		Category:    model.CostCategoryFinancial,
		CostType:    repository.SettlementCostType,
		Amount:      s.Amount,
		Date:        civilDay(paidOn),
		Description: s.Description + " (Via Agendamento)",
	}
	l.store.costs[c.ID] = c
	cp := *c
	return &cp, nil
}

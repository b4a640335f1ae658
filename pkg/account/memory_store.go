package account

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation for development and tests.
// It mirrors the merge and counter-guard semantics of the Mongo store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) GetByCustomerID(ctx context.Context, customerID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.BillingCustomerID == customerID && customerID != "" {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.Email == email && email != "" {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Create(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.UserID]; ok {
		return ErrAlreadyExists
	}
	cp := *rec
	s.records[rec.UserID] = &cp
	return nil
}

func (s *MemoryStore) Merge(ctx context.Context, userID string, upd Update) error {
	if upd.IsEmpty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return ErrNotFound
	}

	if upd.Email != nil {
		rec.Email = *upd.Email
	}
	if upd.Plan != nil {
		rec.Plan = *upd.Plan
	}
	if upd.Status != nil {
		rec.Status = *upd.Status
	}
	if upd.BillingCustomerID != nil {
		rec.BillingCustomerID = *upd.BillingCustomerID
	}
	if upd.SubscriptionID != nil {
		rec.SubscriptionID = *upd.SubscriptionID
	}
	if upd.SubscriptionStart != nil {
		t := *upd.SubscriptionStart
		rec.SubscriptionStart = &t
	}
	if upd.SubscriptionEnd != nil {
		t := *upd.SubscriptionEnd
		rec.SubscriptionEnd = &t
	}
	if upd.InvoiceID != nil {
		rec.InvoiceID = *upd.InvoiceID
	}
	if upd.Usage != nil {
		rec.Usage = *upd.Usage
	}
	rec.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) IncrementUsage(ctx context.Context, userID, day string, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return 0, ErrNotFound
	}
	if rec.Usage.Date != day {
		return 0, ErrUsageDayMismatch
	}
	if rec.Usage.Count >= limit {
		return 0, ErrUsageExhausted
	}
	rec.Usage.Count++
	rec.UpdatedAt = s.now()
	return rec.Usage.Count, nil
}

func (s *MemoryStore) ResetUsage(ctx context.Context, userID, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return ErrNotFound
	}
	if rec.Usage.Date == day {
		return nil
	}
	rec.Usage = Usage{Date: day, Count: 0}
	rec.UpdatedAt = s.now()
	return nil
}

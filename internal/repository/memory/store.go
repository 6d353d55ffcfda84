// Package memory is an in-process repository backend. Transactions are
// serialized behind one mutex and rolled back by restoring a snapshot.
package memory

import (
	"context"
	"sync"

	"gearloan-backend/internal/domain"
	"gearloan-backend/internal/repository"

	"github.com/google/uuid"
)

type state struct {
	items    map[uuid.UUID]*domain.Item
	bookings map[uuid.UUID]*domain.Booking
	users    map[uuid.UUID]*domain.User
}

func newState() *state {
	return &state{
		items:    map[uuid.UUID]*domain.Item{},
		bookings: map[uuid.UUID]*domain.Booking{},
		users:    map[uuid.UUID]*domain.User{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, it := range s.items {
		cp := *it
		c.items[id] = &cp
	}
	for id, b := range s.bookings {
		c.bookings[id] = cloneBooking(b)
	}
	for id, u := range s.users {
		cp := *u
		c.users[id] = &cp
	}
	return c
}

func cloneBooking(b *domain.Booking) *domain.Booking {
	cp := *b
	cp.Lines = make([]domain.BookingLine, len(b.Lines))
	for i, l := range b.Lines {
		l.DamageReports = append([]domain.DamageReport(nil), l.DamageReports...)
		cp.Lines[i] = l
	}
	cp.BrokenItems = append([]domain.BrokenItemRecord(nil), b.BrokenItems...)
	cp.PickupSlots = append([]domain.PickupSlot(nil), b.PickupSlots...)
	return &cp
}

type Store struct {
	mu   sync.Mutex
	data *state
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{data: newState()}
}

// session gives repositories access to the state, taking the store lock per
// call unless it is already held by an enclosing transaction
type session struct {
	store  *Store
	inTx   bool
	closed bool
}

func (s *session) do(fn func(st *state) error) error {
	if s.inTx {
		if s.closed {
			return errTxDone
		}
		return fn(s.store.data)
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return fn(s.store.data)
}

func newRepositories(sess *session) repository.Repositories {
	return repository.Repositories{
		Items:    &itemRepository{sess: sess},
		Bookings: &bookingRepository{sess: sess},
		Users:    &userRepository{sess: sess},
	}
}

func (s *Store) Repos() repository.Repositories {
	return newRepositories(&session{store: s})
}

func (s *Store) WithTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	sess := &session{store: s, inTx: true}
	err := fn(newRepositories(sess))
	sess.closed = true
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

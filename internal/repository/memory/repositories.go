package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gearloan-backend/internal/domain"
	"gearloan-backend/internal/repository"
	"gearloan-backend/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var errTxDone = errors.New("transaction has already been committed or rolled back")

type itemRepository struct {
	sess *session
}

func (r *itemRepository) Create(_ context.Context, it *domain.Item) error {
	return r.sess.do(func(st *state) error {
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		if _, exists := st.items[it.ID]; exists {
			return fmt.Errorf("%w: item %s", repository.ErrDuplicate, it.ID)
		}
		if err := it.CheckStock(); err != nil {
			return fmt.Errorf("%w: %v", repository.ErrInsufficientStock, err)
		}
		now := time.Now().UTC()
		it.CreatedOn, it.UpdatedOn = now, now
		cp := *it
		st.items[it.ID] = &cp
		return nil
	})
}

func (r *itemRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Item, error) {
	var out *domain.Item
	err := r.sess.do(func(st *state) error {
		it, ok := st.items[id]
		if !ok {
			return repository.ErrNotFound
		}
		cp := *it
		out = &cp
		return nil
	})
	return out, err
}

func (r *itemRepository) List(_ context.Context, filter repository.ItemFilter) ([]domain.Item, error) {
	out := []domain.Item{}
	err := r.sess.do(func(st *state) error {
		for _, it := range st.items {
			if filter.Category != "" && it.Category != filter.Category {
				continue
			}
			out = append(out, *it)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, err
}

func (r *itemRepository) Update(_ context.Context, it *domain.Item) error {
	return r.sess.do(func(st *state) error {
		cur, ok := st.items[it.ID]
		if !ok {
			return repository.ErrNotFound
		}
		cur.Name = it.Name
		cur.Category = it.Category
		cur.Description = it.Description
		cur.PricePerDay = it.PricePerDay
		cur.ReplacementCost = it.ReplacementCost
		cur.ImageURL = it.ImageURL
		cur.UpdatedOn = time.Now().UTC()
		it.UpdatedOn = cur.UpdatedOn
		return nil
	})
}

func (r *itemRepository) Delete(_ context.Context, id uuid.UUID) error {
	return r.sess.do(func(st *state) error {
		if _, ok := st.items[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.items, id)
		for _, b := range st.bookings {
			for i := range b.Lines {
				if b.Lines[i].ItemID == id {
					b.Lines[i].ItemID = uuid.Nil
				}
			}
			for i := range b.BrokenItems {
				if b.BrokenItems[i].ItemID == id {
					b.BrokenItems[i].ItemID = uuid.Nil
				}
			}
		}
		return nil
	})
}

func (r *itemRepository) AdjustStock(_ context.Context, id uuid.UUID, availableDelta, totalDelta int32) error {
	return r.sess.do(func(st *state) error {
		it, ok := st.items[id]
		if !ok {
			return repository.ErrNotFound
		}
		available := it.AvailableStock + availableDelta
		total := it.TotalStock + totalDelta
		if available < 0 || available > total {
			return fmt.Errorf("%w: item %s", repository.ErrInsufficientStock, id)
		}
		it.AvailableStock = available
		it.TotalStock = total
		it.UpdatedOn = time.Now().UTC()
		return nil
	})
}

type bookingRepository struct {
	sess *session
}

func (r *bookingRepository) Create(_ context.Context, b *domain.Booking) error {
	return r.sess.do(func(st *state) error {
		if _, ok := st.users[b.UserID]; !ok {
			return fmt.Errorf("user %s does not exist", b.UserID)
		}
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		if _, exists := st.bookings[b.ID]; exists {
			return fmt.Errorf("%w: booking %s", repository.ErrDuplicate, b.ID)
		}
		now := time.Now().UTC()
		b.CreatedOn, b.UpdatedOn = now, now
		seen := map[uuid.UUID]bool{}
		for i := range b.Lines {
			l := &b.Lines[i]
			if seen[l.ItemID] {
				return fmt.Errorf("%w: item %s repeated in booking", repository.ErrDuplicate, l.ItemID)
			}
			seen[l.ItemID] = true
			if l.ID == uuid.Nil {
				l.ID = uuid.New()
			}
			l.BookingID = b.ID
		}
		st.bookings[b.ID] = cloneBooking(b)
		return nil
	})
}

func (r *bookingRepository) withUserName(st *state, b *domain.Booking) *domain.Booking {
	cp := cloneBooking(b)
	if u, ok := st.users[b.UserID]; ok {
		cp.UserName = u.Name
	}
	sort.Slice(cp.Lines, func(i, j int) bool { return cp.Lines[i].ItemName < cp.Lines[j].ItemName })
	return cp
}

func (r *bookingRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Booking, error) {
	var out *domain.Booking
	err := r.sess.do(func(st *state) error {
		b, ok := st.bookings[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = r.withUserName(st, b)
		return nil
	})
	return out, err
}

// GetForUpdate needs no extra locking; transactions already hold the store lock.
func (r *bookingRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r *bookingRepository) List(_ context.Context, filter repository.BookingFilter) ([]domain.Booking, error) {
	out := []domain.Booking{}
	err := r.sess.do(func(st *state) error {
		for _, b := range st.bookings {
			if filter.UserID != uuid.Nil && b.UserID != filter.UserID {
				continue
			}
			if filter.Status != "" && b.Status != filter.Status {
				continue
			}
			out = append(out, *r.withUserName(st, b))
		}
		return nil
	})
	sortNewestFirst(out)
	return out, err
}

func sortNewestFirst(bookings []domain.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].CreatedOn.Equal(bookings[j].CreatedOn) {
			return bookings[i].CreatedOn.After(bookings[j].CreatedOn)
		}
		return bookings[i].ID.String() < bookings[j].ID.String()
	})
}

func (r *bookingRepository) ListOverdue(_ context.Context, before time.Time) ([]domain.Booking, error) {
	cutoff := utils.TruncateToDate(before)
	out := []domain.Booking{}
	err := r.sess.do(func(st *state) error {
		for _, b := range st.bookings {
			if b.Status == domain.BookingStatusActive && b.EndDate.Before(cutoff) {
				out = append(out, *r.withUserName(st, b))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	return out, err
}

func (r *bookingRepository) mutate(id uuid.UUID, fn func(b *domain.Booking) error) error {
	return r.sess.do(func(st *state) error {
		b, ok := st.bookings[id]
		if !ok {
			return repository.ErrNotFound
		}
		if err := fn(b); err != nil {
			return err
		}
		b.UpdatedOn = time.Now().UTC()
		return nil
	})
}

func (r *bookingRepository) UpdateStatus(_ context.Context, id uuid.UUID, status domain.BookingStatus) error {
	return r.mutate(id, func(b *domain.Booking) error {
		b.Status = status
		return nil
	})
}

func (r *bookingRepository) UpdateAdminNotes(_ context.Context, id uuid.UUID, notes string) error {
	return r.mutate(id, func(b *domain.Booking) error {
		b.AdminNotes = notes
		return nil
	})
}

func (r *bookingRepository) UpdateLineQuantity(_ context.Context, lineID uuid.UUID, quantity int32) error {
	return r.sess.do(func(st *state) error {
		_, l := findLine(st, lineID)
		if l == nil {
			return repository.ErrNotFound
		}
		if quantity < 1 || quantity > l.OriginalQuantity {
			return fmt.Errorf("quantity %d outside 1..%d", quantity, l.OriginalQuantity)
		}
		l.Quantity = quantity
		return nil
	})
}

func (r *bookingRepository) Complete(_ context.Context, id uuid.UUID, finalBill decimal.Decimal, notes string, broken []domain.BrokenItemRecord) error {
	return r.mutate(id, func(b *domain.Booking) error {
		now := time.Now().UTC()
		seen := map[uuid.UUID]bool{}
		for _, rec := range b.BrokenItems {
			seen[rec.ItemID] = true
		}
		for i := range broken {
			rec := &broken[i]
			if seen[rec.ItemID] {
				return fmt.Errorf("%w: broken record for item %s", repository.ErrDuplicate, rec.ItemID)
			}
			seen[rec.ItemID] = true
			if rec.ID == uuid.Nil {
				rec.ID = uuid.New()
			}
			rec.BookingID = id
			rec.CreatedOn = now
			b.BrokenItems = append(b.BrokenItems, *rec)
		}
		b.Status = domain.BookingStatusCompleted
		b.FinalBillAmount = decimal.NewNullDecimal(finalBill)
		b.AdminNotes = notes
		return nil
	})
}

func findLine(st *state, lineID uuid.UUID) (*domain.Booking, *domain.BookingLine) {
	for _, b := range st.bookings {
		if l := b.Line(lineID); l != nil {
			return b, l
		}
	}
	return nil, nil
}

func (r *bookingRepository) GetLine(_ context.Context, lineID uuid.UUID) (*domain.BookingLine, error) {
	var out *domain.BookingLine
	err := r.sess.do(func(st *state) error {
		_, l := findLine(st, lineID)
		if l == nil {
			return repository.ErrNotFound
		}
		cp := *l
		cp.DamageReports = append([]domain.DamageReport(nil), l.DamageReports...)
		out = &cp
		return nil
	})
	return out, err
}

func (r *bookingRepository) AddDamageReport(_ context.Context, d *domain.DamageReport) error {
	return r.sess.do(func(st *state) error {
		_, l := findLine(st, d.LineID)
		if l == nil {
			return repository.ErrNotFound
		}
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		d.CreatedOn = time.Now().UTC()
		l.DamageReports = append(l.DamageReports, *d)
		return nil
	})
}

func (r *bookingRepository) ReplacePickupSlots(_ context.Context, bookingID uuid.UUID, slots []domain.PickupSlot) error {
	return r.mutate(bookingID, func(b *domain.Booking) error {
		b.PickupSlots = nil
		for i := range slots {
			s := &slots[i]
			if s.ID == uuid.Nil {
				s.ID = uuid.New()
			}
			s.BookingID = bookingID
			b.PickupSlots = append(b.PickupSlots, *s)
		}
		sort.Slice(b.PickupSlots, func(i, j int) bool { return b.PickupSlots[i].StartsAt.Before(b.PickupSlots[j].StartsAt) })
		return nil
	})
}

func (r *bookingRepository) CountOpenForItem(_ context.Context, itemID uuid.UUID) (int, error) {
	n := 0
	err := r.sess.do(func(st *state) error {
		for _, b := range st.bookings {
			if !b.Status.IsTerminal() && b.LineForItem(itemID) != nil {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *bookingRepository) CountOpenForUser(_ context.Context, userID uuid.UUID) (int, error) {
	n := 0
	err := r.sess.do(func(st *state) error {
		for _, b := range st.bookings {
			if b.UserID == userID && !b.Status.IsTerminal() {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *bookingRepository) HeldQuantities(_ context.Context) (map[uuid.UUID]int32, error) {
	out := map[uuid.UUID]int32{}
	err := r.sess.do(func(st *state) error {
		for _, b := range st.bookings {
			if !b.Status.HoldsStock() {
				continue
			}
			for _, l := range b.Lines {
				if l.ItemID != uuid.Nil {
					out[l.ItemID] += l.Quantity
				}
			}
		}
		return nil
	})
	return out, err
}

type userRepository struct {
	sess *session
}

func (r *userRepository) Create(_ context.Context, u *domain.User) error {
	return r.sess.do(func(st *state) error {
		u.Email = strings.ToLower(strings.TrimSpace(u.Email))
		for _, existing := range st.users {
			if existing.Email == u.Email {
				return fmt.Errorf("%w: email %s", repository.ErrDuplicate, u.Email)
			}
		}
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		u.CreatedOn = time.Now().UTC()
		cp := *u
		st.users[u.ID] = &cp
		return nil
	})
}

func (r *userRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	var out *domain.User
	err := r.sess.do(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		cp := *u
		out = &cp
		return nil
	})
	return out, err
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var out *domain.User
	err := r.sess.do(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				cp := *u
				out = &cp
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *userRepository) List(_ context.Context) ([]domain.User, error) {
	out := []domain.User{}
	err := r.sess.do(func(st *state) error {
		for _, u := range st.users {
			out = append(out, *u)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedOn.After(out[j].CreatedOn) })
	return out, err
}

func (r *userRepository) UpdateRole(_ context.Context, id uuid.UUID, role domain.UserRole) error {
	return r.sess.do(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		u.Role = role
		return nil
	})
}

// Delete removes the user and, like the SQL schema, every booking they own
func (r *userRepository) Delete(_ context.Context, id uuid.UUID) error {
	return r.sess.do(func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.users, id)
		for bid, b := range st.bookings {
			if b.UserID == id {
				delete(st.bookings, bid)
			}
		}
		return nil
	})
}

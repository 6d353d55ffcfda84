package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"gearloan-backend/internal/domain"
	"gearloan-backend/internal/repository/memory"
	"gearloan-backend/internal/service"
	"gearloan-backend/internal/utils"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type lifecycleContext struct {
	store    *memory.Store
	bookings service.BookingService
	admin    domain.Caller
	members  map[string]domain.Caller
	items    map[string]uuid.UUID
	created  []uuid.UUID
	result   *service.ReturnResult
	err      error
	approved int
}

func (c *lifecycleContext) reset() {
	c.store = memory.NewStore()
	now := func() time.Time { return time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC) }
	c.bookings = service.NewBookingService(c.store, now, time.UTC)
	c.members = map[string]domain.Caller{}
	c.items = map[string]uuid.UUID{}
	c.created = nil
	c.result = nil
	c.err = nil
	c.approved = 0

	admin := &domain.User{Name: "admin", Email: "admin@example.com", PasswordHash: "x", Role: domain.UserRoleAdmin}
	if err := c.store.Repos().Users.Create(context.Background(), admin); err != nil {
		panic(err)
	}
	c.admin = domain.Caller{UserID: admin.ID, Role: domain.UserRoleAdmin}
}

func (c *lifecycleContext) anItem(name string, units int, price, replacement string) error {
	it := &domain.Item{
		Name:            name,
		Category:        domain.ItemCategoryOther,
		Description:     name,
		PricePerDay:     decimal.RequireFromString(price),
		ReplacementCost: decimal.RequireFromString(replacement),
		TotalStock:      int32(units),
		AvailableStock:  int32(units),
	}
	if err := c.store.Repos().Items.Create(context.Background(), it); err != nil {
		return err
	}
	c.items[name] = it.ID
	return nil
}

func (c *lifecycleContext) aMember(name string) error {
	u := &domain.User{Name: name, Email: name + "@example.com", PasswordHash: "x", Role: domain.UserRoleUser}
	if err := c.store.Repos().Users.Create(context.Background(), u); err != nil {
		return err
	}
	c.members[name] = domain.Caller{UserID: u.ID, Role: domain.UserRoleUser}
	return nil
}

func (c *lifecycleContext) books(member string, qty int, item, start, end string) error {
	s, err := utils.ParseDate(start)
	if err != nil {
		return err
	}
	e, err := utils.ParseDate(end)
	if err != nil {
		return err
	}
	id, err := c.bookings.CreateBooking(context.Background(), c.members[member], service.CreateBookingRequest{
		StartDate: s,
		EndDate:   e,
		Lines:     []service.LineRequest{{ItemID: c.items[item], Quantity: int32(qty)}},
	})
	c.err = err
	if err == nil {
		c.created = append(c.created, id)
	}
	return nil
}

func (c *lifecycleContext) current() (uuid.UUID, error) {
	if len(c.created) == 0 {
		return uuid.Nil, fmt.Errorf("no booking was created")
	}
	return c.created[len(c.created)-1], nil
}

func (c *lifecycleContext) setsStatus(status string) error {
	id, err := c.current()
	if err != nil {
		return err
	}
	_, c.err = c.bookings.SetStatus(context.Background(), c.admin, id, status)
	return nil
}

func (c *lifecycleContext) modifies(item string, qty int, note string) error {
	id, err := c.current()
	if err != nil {
		return err
	}
	b, err := c.bookings.GetBooking(context.Background(), c.admin, id)
	if err != nil {
		return err
	}
	l := b.LineForItem(c.items[item])
	if l == nil {
		return fmt.Errorf("booking has no %q line", item)
	}
	_, c.err = c.bookings.ModifyAndApprove(context.Background(), c.admin, id, note, []service.LineChange{{LineID: l.ID, NewQuantity: int32(qty)}})
	return nil
}

func (c *lifecycleContext) returnsWithBroken(broken int, item string) error {
	return c.complete(service.ReturnRequest{
		Broken: []service.BrokenReport{{ItemID: c.items[item], Count: int32(broken)}},
	})
}

func (c *lifecycleContext) returnsWithFinalBill(amount string) error {
	bill := decimal.RequireFromString(amount)
	return c.complete(service.ReturnRequest{FinalBillAmount: &bill})
}

func (c *lifecycleContext) complete(req service.ReturnRequest) error {
	id, err := c.current()
	if err != nil {
		return err
	}
	res, err := c.bookings.CompleteReturn(context.Background(), c.admin, id, req)
	c.err = err
	if err == nil {
		c.result = res
	}
	return nil
}

func (c *lifecycleContext) approvesConcurrently() error {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, id := range c.created {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := c.bookings.SetStatus(context.Background(), c.admin, id, "APPROVED")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				c.approved++
			} else if !domain.IsKind(err, domain.KindConflict) {
				c.err = err
			}
		}(id)
	}
	wg.Wait()
	return c.err
}

func (c *lifecycleContext) exactlyApprovals(n int) error {
	if c.approved != n {
		return fmt.Errorf("expected %d successful approvals, got %d", n, c.approved)
	}
	return nil
}

func (c *lifecycleContext) itemHas(item string, available, total int) error {
	it, err := c.store.Repos().Items.GetByID(context.Background(), c.items[item])
	if err != nil {
		return err
	}
	if it.AvailableStock != int32(available) || it.TotalStock != int32(total) {
		return fmt.Errorf("%s: expected %d/%d available/total, got %d/%d", item, available, total, it.AvailableStock, it.TotalStock)
	}
	return nil
}

func (c *lifecycleContext) statusIs(status string) error {
	id, err := c.current()
	if err != nil {
		return err
	}
	b, err := c.bookings.GetBooking(context.Background(), c.admin, id)
	if err != nil {
		return err
	}
	if string(b.Status) != status {
		return fmt.Errorf("expected status %s, got %s", status, b.Status)
	}
	return nil
}

func (c *lifecycleContext) finalBillIs(amount string) error {
	if c.result == nil {
		return fmt.Errorf("no return was completed: %v", c.err)
	}
	if want := decimal.RequireFromString(amount); !c.result.FinalBill.Equal(want) {
		return fmt.Errorf("expected final bill %s, got %s", want, c.result.FinalBill)
	}
	return nil
}

func (c *lifecycleContext) lineHas(item string, qty, original int) error {
	id, err := c.current()
	if err != nil {
		return err
	}
	b, err := c.bookings.GetBooking(context.Background(), c.admin, id)
	if err != nil {
		return err
	}
	l := b.LineForItem(c.items[item])
	if l == nil {
		return fmt.Errorf("booking has no %q line", item)
	}
	if l.Quantity != int32(qty) || l.OriginalQuantity != int32(original) {
		return fmt.Errorf("expected quantity %d of %d, got %d of %d", qty, original, l.Quantity, l.OriginalQuantity)
	}
	return nil
}

func (c *lifecycleContext) requestFails(kind string) error {
	if c.err == nil {
		return fmt.Errorf("expected %s, request succeeded", kind)
	}
	if got := domain.KindOf(c.err); string(got) != kind {
		return fmt.Errorf("expected %s, got %s (%v)", kind, got, c.err)
	}
	return nil
}

func (c *lifecycleContext) hasNoBookings(member string) error {
	list, err := c.bookings.ListMyBookings(context.Background(), c.members[member])
	if err != nil {
		return err
	}
	if len(list) != 0 {
		return fmt.Errorf("expected no bookings, got %d", len(list))
	}
	return nil
}

func InitializeLifecycleScenario(ctx *godog.ScenarioContext) {
	tc := &lifecycleContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^an item "([^"]*)" with (\d+) units at ([\d.]+) per day and replacement cost ([\d.]+)$`, tc.anItem)
	ctx.Step(`^a member "([^"]*)"$`, tc.aMember)

	ctx.Step(`^"([^"]*)" books (\d+) "([^"]*)" from "([^"]*)" to "([^"]*)"$`, tc.books)
	ctx.Step(`^the admin sets the booking status to "([^"]*)"$`, tc.setsStatus)
	ctx.Step(`^the admin modifies "([^"]*)" to (\d+) with note "([^"]*)"$`, tc.modifies)
	ctx.Step(`^the admin completes the return with (\d+) broken "([^"]*)"$`, tc.returnsWithBroken)
	ctx.Step(`^the admin completes the return with final bill "([^"]*)"$`, tc.returnsWithFinalBill)
	ctx.Step(`^the admin approves every booking concurrently$`, tc.approvesConcurrently)

	ctx.Step(`^"([^"]*)" has (\d+) available and (\d+) total$`, tc.itemHas)
	ctx.Step(`^the booking status is "([^"]*)"$`, tc.statusIs)
	ctx.Step(`^the final bill is "([^"]*)"$`, tc.finalBillIs)
	ctx.Step(`^the "([^"]*)" line has quantity (\d+) of originally (\d+)$`, tc.lineHas)
	ctx.Step(`^the request fails with "([^"]*)"$`, tc.requestFails)
	ctx.Step(`^exactly (\d+) approval succeeds$`, tc.exactlyApprovals)
	ctx.Step(`^"([^"]*)" has no bookings$`, tc.hasNoBookings)
}

func TestLifecycleFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeLifecycleScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"testdata/features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gearloan-backend/internal/domain"
	"gearloan-backend/internal/logger"
	"gearloan-backend/internal/repository"
	"gearloan-backend/internal/utils"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type bookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) repository.BookingRepository {
	return &bookingRepository{db: db}
}

const bookingColumns = `b.id, b.user_id, COALESCE(u.name, ''), b.start_date, b.end_date, b.status, b.total_rental_cost, b.final_bill_amount, b.admin_notes, b.created_on, b.updated_on`

const lineColumns = `id, booking_id, item_id, item_name, quantity, original_quantity, price_per_day, replacement_cost`

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.UserID, &b.UserName, &b.StartDate, &b.EndDate, &b.Status, &b.TotalRentalCost,
		&b.FinalBillAmount, &b.AdminNotes, &b.CreatedOn, &b.UpdatedOn)
	if err != nil {
		return nil, err
	}
	b.StartDate = utils.TruncateToDate(b.StartDate)
	b.EndDate = utils.TruncateToDate(b.EndDate)
	return &b, nil
}

func scanLine(row rowScanner) (domain.BookingLine, error) {
	var l domain.BookingLine
	err := row.Scan(&l.ID, &l.BookingID, &l.ItemID, &l.ItemName, &l.Quantity, &l.OriginalQuantity, &l.PricePerDay, &l.ReplacementCost)
	return l, err
}

// nullableID stores uuid.Nil as NULL
func nullableID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	logger.EnterMethod("bookingRepository.Create", "userID", b.UserID, "lines", len(b.Lines))

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := time.Now().UTC()
	b.CreatedOn = now
	b.UpdatedOn = now

	query := `INSERT INTO bookings (id, user_id, start_date, end_date, status, total_rental_cost, admin_notes, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	logger.DatabaseCall("INSERT", "bookings")
	_, err := r.db.ExecContext(ctx, query, b.ID, b.UserID, utils.FormatDate(b.StartDate), utils.FormatDate(b.EndDate),
		b.Status, b.TotalRentalCost, b.AdminNotes, b.CreatedOn, b.UpdatedOn)
	if err != nil {
		err = mapError(err)
		logger.ExitMethodWithError("bookingRepository.Create", err)
		return err
	}

	lineQuery := `INSERT INTO booking_lines (` + lineColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for i := range b.Lines {
		l := &b.Lines[i]
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
		l.BookingID = b.ID
		logger.DatabaseCall("INSERT", "booking_lines", "itemID", l.ItemID)
		if _, err := r.db.ExecContext(ctx, lineQuery, l.ID, l.BookingID, nullableID(l.ItemID), l.ItemName, l.Quantity,
			l.OriginalQuantity, l.PricePerDay, l.ReplacementCost); err != nil {
			err = mapError(err)
			logger.ExitMethodWithError("bookingRepository.Create", err)
			return err
		}
	}

	logger.ExitMethod("bookingRepository.Create", "bookingID", b.ID)
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	logger.EnterMethod("bookingRepository.GetByID", "bookingID", id)

	query := `SELECT ` + bookingColumns + ` FROM bookings b LEFT JOIN users u ON u.id = b.user_id WHERE b.id = $1`
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		err = mapError(err)
		logger.ExitMethodWithError("bookingRepository.GetByID", err, "bookingID", id)
		return nil, err
	}
	if err := r.loadDetails(ctx, b); err != nil {
		logger.ExitMethodWithError("bookingRepository.GetByID", err, "bookingID", id)
		return nil, err
	}

	logger.ExitMethod("bookingRepository.GetByID", "bookingID", id)
	return b, nil
}

func (r *bookingRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b LEFT JOIN users u ON u.id = b.user_id WHERE b.id = $1 FOR UPDATE OF b`
	logger.DatabaseCall("SELECT FOR UPDATE", "bookings", "bookingID", id)
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	lines, err := r.linesFor(ctx, []uuid.UUID{b.ID})
	if err != nil {
		return nil, err
	}
	b.Lines = lines[b.ID]
	return b, nil
}

func (r *bookingRepository) List(ctx context.Context, filter repository.BookingFilter) ([]domain.Booking, error) {
	logger.EnterMethod("bookingRepository.List", "userID", filter.UserID, "status", filter.Status)

	query := `SELECT ` + bookingColumns + ` FROM bookings b LEFT JOIN users u ON u.id = b.user_id`
	var (
		conds []string
		args  []any
	)
	if filter.UserID != uuid.Nil {
		args = append(args, filter.UserID)
		conds = append(conds, fmt.Sprintf("b.user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("b.status = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY b.created_on DESC, b.id"

	bookings, err := r.queryBookings(ctx, query, args...)
	if err != nil {
		logger.ExitMethodWithError("bookingRepository.List", err)
		return nil, err
	}

	logger.ExitMethod("bookingRepository.List", "count", len(bookings))
	return bookings, nil
}

func (r *bookingRepository) ListOverdue(ctx context.Context, before time.Time) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b LEFT JOIN users u ON u.id = b.user_id
	          WHERE b.status = $1 AND b.end_date < $2 ORDER BY b.end_date, b.id`
	return r.queryBookings(ctx, query, domain.BookingStatusActive, utils.FormatDate(before))
}

// queryBookings runs a booking select and attaches lines to every result
func (r *bookingRepository) queryBookings(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	logger.DatabaseCall("SELECT", "bookings")
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	var ids []uuid.UUID
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return bookings, nil
	}

	lines, err := r.linesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		bookings[i].Lines = lines[bookings[i].ID]
	}
	return bookings, nil
}

func (r *bookingRepository) linesFor(ctx context.Context, bookingIDs []uuid.UUID) (map[uuid.UUID][]domain.BookingLine, error) {
	ids := make([]string, len(bookingIDs))
	for i, id := range bookingIDs {
		ids[i] = id.String()
	}

	query := `SELECT ` + lineColumns + ` FROM booking_lines WHERE booking_id = ANY($1::uuid[]) ORDER BY item_name, id`
	logger.DatabaseCall("SELECT", "booking_lines", "bookings", len(ids))
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]domain.BookingLine, len(bookingIDs))
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		out[l.BookingID] = append(out[l.BookingID], l)
	}
	return out, rows.Err()
}

// loadDetails attaches lines, damage reports, broken item records and pickup slots
func (r *bookingRepository) loadDetails(ctx context.Context, b *domain.Booking) error {
	lines, err := r.linesFor(ctx, []uuid.UUID{b.ID})
	if err != nil {
		return err
	}
	b.Lines = lines[b.ID]

	reports, err := r.damageReports(ctx, b.ID)
	if err != nil {
		return err
	}
	for i := range b.Lines {
		b.Lines[i].DamageReports = reports[b.Lines[i].ID]
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, booking_id, item_id, item_name, broken_count, cost, created_on
	          FROM broken_item_records WHERE booking_id = $1 ORDER BY item_name, id`, b.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var rec domain.BrokenItemRecord
		if err := rows.Scan(&rec.ID, &rec.BookingID, &rec.ItemID, &rec.ItemName, &rec.Count, &rec.Cost, &rec.CreatedOn); err != nil {
			rows.Close()
			return err
		}
		b.BrokenItems = append(b.BrokenItems, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.QueryContext(ctx, `SELECT id, booking_id, starts_at, ends_at FROM pickup_slots WHERE booking_id = $1 ORDER BY starts_at, id`, b.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var s domain.PickupSlot
		if err := rows.Scan(&s.ID, &s.BookingID, &s.StartsAt, &s.EndsAt); err != nil {
			return err
		}
		b.PickupSlots = append(b.PickupSlots, s)
	}
	return rows.Err()
}

func (r *bookingRepository) damageReports(ctx context.Context, bookingID uuid.UUID) (map[uuid.UUID][]domain.DamageReport, error) {
	query := `SELECT d.id, d.line_id, d.reporter_id, d.description, COALESCE(d.photo_ref, ''), d.created_on
	          FROM damage_reports d JOIN booking_lines l ON l.id = d.line_id
	          WHERE l.booking_id = $1 ORDER BY d.created_on, d.id`
	rows, err := r.db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[uuid.UUID][]domain.DamageReport{}
	for rows.Next() {
		var d domain.DamageReport
		if err := rows.Scan(&d.ID, &d.LineID, &d.ReporterID, &d.Description, &d.PhotoRef, &d.CreatedOn); err != nil {
			return nil, err
		}
		out[d.LineID] = append(out[d.LineID], d)
	}
	return out, rows.Err()
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error {
	logger.DatabaseCall("UPDATE", "bookings.status", "bookingID", id, "status", status)
	res, err := r.db.ExecContext(ctx, `UPDATE bookings SET status = $1, updated_on = $2 WHERE id = $3`, status, time.Now().UTC(), id)
	logResult("UPDATE bookings.status", res, err)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *bookingRepository) UpdateAdminNotes(ctx context.Context, id uuid.UUID, notes string) error {
	logger.DatabaseCall("UPDATE", "bookings.admin_notes", "bookingID", id)
	res, err := r.db.ExecContext(ctx, `UPDATE bookings SET admin_notes = $1, updated_on = $2 WHERE id = $3`, notes, time.Now().UTC(), id)
	logResult("UPDATE bookings.admin_notes", res, err)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *bookingRepository) UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int32) error {
	logger.DatabaseCall("UPDATE", "booking_lines.quantity", "lineID", lineID, "quantity", quantity)
	res, err := r.db.ExecContext(ctx, `UPDATE booking_lines SET quantity = $1 WHERE id = $2`, quantity, lineID)
	logResult("UPDATE booking_lines.quantity", res, err)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *bookingRepository) Complete(ctx context.Context, id uuid.UUID, finalBill decimal.Decimal, notes string, broken []domain.BrokenItemRecord) error {
	logger.EnterMethod("bookingRepository.Complete", "bookingID", id, "brokenRecords", len(broken))

	now := time.Now().UTC()
	insert := `INSERT INTO broken_item_records (id, booking_id, item_id, item_name, broken_count, cost, created_on)
	           VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i := range broken {
		rec := &broken[i]
		if rec.ID == uuid.Nil {
			rec.ID = uuid.New()
		}
		rec.BookingID = id
		rec.CreatedOn = now
		logger.DatabaseCall("INSERT", "broken_item_records", "itemID", rec.ItemID)
		if _, err := r.db.ExecContext(ctx, insert, rec.ID, rec.BookingID, nullableID(rec.ItemID), rec.ItemName, rec.Count, rec.Cost, rec.CreatedOn); err != nil {
			err = mapError(err)
			logger.ExitMethodWithError("bookingRepository.Complete", err, "bookingID", id)
			return err
		}
	}

	query := `UPDATE bookings SET status = $1, final_bill_amount = $2, admin_notes = $3, updated_on = $4 WHERE id = $5`
	logger.DatabaseCall("UPDATE", "bookings.complete", "bookingID", id)
	res, err := r.db.ExecContext(ctx, query, domain.BookingStatusCompleted, finalBill, notes, now, id)
	logResult("UPDATE bookings.complete", res, err)
	if err == nil {
		err = expectOne(res)
	}
	if err != nil {
		err = mapError(err)
		logger.ExitMethodWithError("bookingRepository.Complete", err, "bookingID", id)
		return err
	}

	logger.ExitMethod("bookingRepository.Complete", "bookingID", id)
	return nil
}

func (r *bookingRepository) GetLine(ctx context.Context, lineID uuid.UUID) (*domain.BookingLine, error) {
	logger.DatabaseCall("SELECT", "booking_lines", "lineID", lineID)
	l, err := scanLine(r.db.QueryRowContext(ctx, `SELECT `+lineColumns+` FROM booking_lines WHERE id = $1`, lineID))
	if err != nil {
		return nil, mapError(err)
	}
	return &l, nil
}

func (r *bookingRepository) AddDamageReport(ctx context.Context, d *domain.DamageReport) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedOn = time.Now().UTC()

	var photo sql.NullString
	if d.PhotoRef != "" {
		photo = sql.NullString{String: d.PhotoRef, Valid: true}
	}

	query := `INSERT INTO damage_reports (id, line_id, reporter_id, description, photo_ref, created_on) VALUES ($1, $2, $3, $4, $5, $6)`
	logger.DatabaseCall("INSERT", "damage_reports", "lineID", d.LineID)
	res, err := r.db.ExecContext(ctx, query, d.ID, d.LineID, d.ReporterID, d.Description, photo, d.CreatedOn)
	logResult("INSERT damage_reports", res, err)
	return mapError(err)
}

func (r *bookingRepository) ReplacePickupSlots(ctx context.Context, bookingID uuid.UUID, slots []domain.PickupSlot) error {
	logger.EnterMethod("bookingRepository.ReplacePickupSlots", "bookingID", bookingID, "slots", len(slots))

	logger.DatabaseCall("DELETE", "pickup_slots", "bookingID", bookingID)
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pickup_slots WHERE booking_id = $1`, bookingID); err != nil {
		logger.ExitMethodWithError("bookingRepository.ReplacePickupSlots", err)
		return err
	}

	insert := `INSERT INTO pickup_slots (id, booking_id, starts_at, ends_at) VALUES ($1, $2, $3, $4)`
	for i := range slots {
		s := &slots[i]
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		s.BookingID = bookingID
		if _, err := r.db.ExecContext(ctx, insert, s.ID, s.BookingID, s.StartsAt, s.EndsAt); err != nil {
			err = mapError(err)
			logger.ExitMethodWithError("bookingRepository.ReplacePickupSlots", err)
			return err
		}
	}

	logger.ExitMethod("bookingRepository.ReplacePickupSlots", "bookingID", bookingID)
	return nil
}

// statusesWhere lists the statuses matching keep as a postgres text array
func statusesWhere(keep func(domain.BookingStatus) bool) any {
	var out []string
	for _, s := range domain.AllBookingStatuses {
		if keep(s) {
			out = append(out, string(s))
		}
	}
	return pq.Array(out)
}

var (
	openStatuses = statusesWhere(func(s domain.BookingStatus) bool { return !s.IsTerminal() })
	heldStatuses = statusesWhere(domain.BookingStatus.HoldsStock)
)

func (r *bookingRepository) CountOpenForItem(ctx context.Context, itemID uuid.UUID) (int, error) {
	query := `SELECT COUNT(DISTINCT b.id) FROM bookings b JOIN booking_lines l ON l.booking_id = b.id
	          WHERE l.item_id = $1 AND b.status = ANY($2)`
	var n int
	err := r.db.QueryRowContext(ctx, query, itemID, openStatuses).Scan(&n)
	return n, err
}

func (r *bookingRepository) CountOpenForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE user_id = $1 AND status = ANY($2)`, userID, openStatuses).Scan(&n)
	return n, err
}

func (r *bookingRepository) HeldQuantities(ctx context.Context) (map[uuid.UUID]int32, error) {
	query := `SELECT l.item_id, SUM(l.quantity) FROM booking_lines l JOIN bookings b ON b.id = l.booking_id
	          WHERE b.status = ANY($1) AND l.item_id IS NOT NULL GROUP BY l.item_id`
	logger.DatabaseCall("SELECT", "booking_lines.held")
	rows, err := r.db.QueryContext(ctx, query, heldStatuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[uuid.UUID]int32{}
	for rows.Next() {
		var (
			id  uuid.UUID
			sum int32
		)
		if err := rows.Scan(&id, &sum); err != nil {
			return nil, err
		}
		out[id] = sum
	}
	return out, rows.Err()
}

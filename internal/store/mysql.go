package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/event-ticket-reservation/internal/model"
)

// MySQL implements Store on top of a MySQL database.  Every method is a
// single-row (or single-entity) read or write; the engine composes them
// into atomic multi-key transactions under its own exclusion discipline,
// so no method here opens a database transaction.  All timestamps are
// stored and compared in UTC.
type MySQL struct {
	db *sql.DB
}

// NewMySQL returns a MySQL store bound to the provided database handle.
func NewMySQL(db *sql.DB) *MySQL { return &MySQL{db: db} }

func scanSeat(row *sql.Row) (*model.Seat, error) {
	var s model.Seat
	var status string
	var heldBy sql.NullString
	var heldAt, expiresAt sql.NullTime
	err := row.Scan(&s.ID, &s.EventID, &s.Row, &s.Column, &s.Price, &status, &heldBy, &heldAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	s.Status = model.SeatStatus(status)
	if heldBy.Valid {
		v := heldBy.String
		s.HeldBy = &v
	}
	if heldAt.Valid {
		v := heldAt.Time.UTC()
		s.HeldAt = &v
	}
	if expiresAt.Valid {
		v := expiresAt.Time.UTC()
		s.ExpiresAt = &v
	}
	return &s, nil
}

const seatColumns = `id, event_id, row_label, col_number, price, status, held_by, held_at, expires_at`

// GetSeat loads a single seat by its key.
func (m *MySQL) GetSeat(ctx context.Context, id string) (*model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats WHERE id = ?`
	return scanSeat(m.db.QueryRowContext(ctx, q, id))
}

func (m *MySQL) querySeats(ctx context.Context, q string, args ...interface{}) ([]*model.Seat, error) {
	rows, err := m.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Seat
	for rows.Next() {
		var s model.Seat
		var status string
		var heldBy sql.NullString
		var heldAt, expiresAt sql.NullTime
		if err := rows.Scan(&s.ID, &s.EventID, &s.Row, &s.Column, &s.Price, &status, &heldBy, &heldAt, &expiresAt); err != nil {
			return nil, err
		}
		s.Status = model.SeatStatus(status)
		if heldBy.Valid {
			v := heldBy.String
			s.HeldBy = &v
		}
		if heldAt.Valid {
			v := heldAt.Time.UTC()
			s.HeldAt = &v
		}
		if expiresAt.Valid {
			v := expiresAt.Time.UTC()
			s.ExpiresAt = &v
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSeatsByEvent loads all seats of an event ordered by row and column.
func (m *MySQL) ListSeatsByEvent(ctx context.Context, eventID string) ([]*model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats WHERE event_id = ? ORDER BY row_label, col_number`
	return m.querySeats(ctx, q, eventID)
}

// ListHeldSeats loads every seat currently in the held state.
func (m *MySQL) ListHeldSeats(ctx context.Context) ([]*model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats WHERE status = ? ORDER BY id`
	return m.querySeats(ctx, q, string(model.SeatHeld))
}

// PutSeat upserts the seat row keyed by its ID.
func (m *MySQL) PutSeat(ctx context.Context, seat *model.Seat) error {
	const q = `INSERT INTO seats (id, event_id, row_label, col_number, price, status, held_by, held_at, expires_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	             status = VALUES(status), held_by = VALUES(held_by),
	             held_at = VALUES(held_at), expires_at = VALUES(expires_at)`
	var heldBy sql.NullString
	var heldAt, expiresAt sql.NullTime
	if seat.HeldBy != nil {
		heldBy = sql.NullString{String: *seat.HeldBy, Valid: true}
	}
	if seat.HeldAt != nil {
		heldAt = sql.NullTime{Time: seat.HeldAt.UTC(), Valid: true}
	}
	if seat.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: seat.ExpiresAt.UTC(), Valid: true}
	}
	_, err := m.db.ExecContext(ctx, q, seat.ID, seat.EventID, seat.Row, seat.Column,
		seat.Price, string(seat.Status), heldBy, heldAt, expiresAt)
	return err
}

// GetCoupon loads a coupon by code.
func (m *MySQL) GetCoupon(ctx context.Context, code string) (*model.Coupon, error) {
	const q = `SELECT code, description, discount_type, discount_value, min_purchase,
	                  max_uses, used_count, valid_from, valid_to, active
	           FROM coupons WHERE code = ?`
	var c model.Coupon
	var typ string
	err := m.db.QueryRowContext(ctx, q, code).Scan(&c.Code, &c.Description, &typ, &c.Value,
		&c.MinPurchase, &c.MaxUses, &c.UsedCount, &c.ValidFrom, &c.ValidTo, &c.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	c.Type = model.DiscountType(typ)
	c.ValidFrom = c.ValidFrom.UTC()
	c.ValidTo = c.ValidTo.UTC()
	return &c, nil
}

// PutCoupon upserts the coupon row keyed by its code.
func (m *MySQL) PutCoupon(ctx context.Context, coupon *model.Coupon) error {
	const q = `INSERT INTO coupons (code, description, discount_type, discount_value, min_purchase,
	                                max_uses, used_count, valid_from, valid_to, active)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE used_count = VALUES(used_count), active = VALUES(active)`
	_, err := m.db.ExecContext(ctx, q, coupon.Code, coupon.Description, string(coupon.Type),
		coupon.Value, coupon.MinPurchase, coupon.MaxUses, coupon.UsedCount,
		coupon.ValidFrom.UTC(), coupon.ValidTo.UTC(), coupon.Active)
	return err
}

// AppendOrder inserts the order row and its seat links.
func (m *MySQL) AppendOrder(ctx context.Context, order *model.Order) error {
	const q = `INSERT INTO orders (id, buyer_id, event_id, original_price, discount,
	                               coupon_code, total_price, status, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var coupon sql.NullString
	if order.CouponCode != "" {
		coupon = sql.NullString{String: order.CouponCode, Valid: true}
	}
	_, err := m.db.ExecContext(ctx, q, order.ID, order.BuyerID, order.EventID,
		order.OriginalPrice, order.Discount, coupon, order.TotalPrice,
		string(order.Status), order.CreatedAt.UTC())
	if err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return ErrOrderExists
		}
		return err
	}
	if len(order.SeatIDs) == 0 {
		return nil
	}
	query := `INSERT INTO order_seats (order_id, seat_id) VALUES `
	args := make([]interface{}, 0, len(order.SeatIDs)*2)
	for i, sid := range order.SeatIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, order.ID, sid)
	}
	_, err = m.db.ExecContext(ctx, query, args...)
	return err
}

func (m *MySQL) orderSeatIDs(ctx context.Context, orderID string) ([]string, error) {
	const q = `SELECT seat_id FROM order_seats WHERE order_id = ? ORDER BY seat_id`
	rows, err := m.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanOrder(row *sql.Row) (*model.Order, error) {
	var o model.Order
	var status string
	var coupon sql.NullString
	var cancelledAt sql.NullTime
	var refund sql.NullInt64
	err := row.Scan(&o.ID, &o.BuyerID, &o.EventID, &o.OriginalPrice, &o.Discount,
		&coupon, &o.TotalPrice, &status, &o.CreatedAt, &cancelledAt, &refund)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	o.Status = model.OrderStatus(status)
	o.CreatedAt = o.CreatedAt.UTC()
	if coupon.Valid {
		o.CouponCode = coupon.String
	}
	if cancelledAt.Valid {
		v := cancelledAt.Time.UTC()
		o.CancelledAt = &v
	}
	if refund.Valid {
		v := refund.Int64
		o.RefundAmount = &v
	}
	return &o, nil
}

const orderColumns = `id, buyer_id, event_id, original_price, discount, coupon_code,
	total_price, status, created_at, cancelled_at, refund_amount`

// GetOrder loads an order and its seat set.
func (m *MySQL) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`
	o, err := scanOrder(m.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, err
	}
	if o.SeatIDs, err = m.orderSeatIDs(ctx, id); err != nil {
		return nil, err
	}
	return o, nil
}

// ListOrdersByBuyer loads all orders for a buyer, newest first.
func (m *MySQL) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]*model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE buyer_id = ? ORDER BY created_at DESC`
	rows, err := m.db.QueryContext(ctx, q, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Order
	for rows.Next() {
		var o model.Order
		var status string
		var coupon sql.NullString
		var cancelledAt sql.NullTime
		var refund sql.NullInt64
		if err := rows.Scan(&o.ID, &o.BuyerID, &o.EventID, &o.OriginalPrice, &o.Discount,
			&coupon, &o.TotalPrice, &status, &o.CreatedAt, &cancelledAt, &refund); err != nil {
			return nil, err
		}
		o.Status = model.OrderStatus(status)
		o.CreatedAt = o.CreatedAt.UTC()
		if coupon.Valid {
			o.CouponCode = coupon.String
		}
		if cancelledAt.Valid {
			v := cancelledAt.Time.UTC()
			o.CancelledAt = &v
		}
		if refund.Valid {
			v := refund.Int64
			o.RefundAmount = &v
		}
		out = append(out, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range out {
		if o.SeatIDs, err = m.orderSeatIDs(ctx, o.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// PutOrder updates the mutable fields of an existing order (status,
// cancellation timestamp, refund).  Seat links never change after append.
func (m *MySQL) PutOrder(ctx context.Context, order *model.Order) error {
	const q = `UPDATE orders SET status = ?, cancelled_at = ?, refund_amount = ? WHERE id = ?`
	var cancelledAt sql.NullTime
	var refund sql.NullInt64
	if order.CancelledAt != nil {
		cancelledAt = sql.NullTime{Time: order.CancelledAt.UTC(), Valid: true}
	}
	if order.RefundAmount != nil {
		refund = sql.NullInt64{Int64: *order.RefundAmount, Valid: true}
	}
	res, err := m.db.ExecContext(ctx, q, string(order.Status), cancelledAt, refund, order.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is 0 both for missing rows and no-op updates, so
		// confirm existence before reporting not found.
		if _, err := m.GetOrder(ctx, order.ID); err != nil {
			return err
		}
	}
	return nil
}

// GetStats loads the singleton stats row, creating a zero record on first
// access.
func (m *MySQL) GetStats(ctx context.Context) (*model.AggregateStats, error) {
	const q = `SELECT total_revenue, total_tickets_sold, last_updated FROM aggregate_stats WHERE id = 1`
	var st model.AggregateStats
	err := m.db.QueryRowContext(ctx, q).Scan(&st.TotalRevenue, &st.TotalTicketsSold, &st.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.AggregateStats{LastUpdated: time.Unix(0, 0).UTC()}, nil
	}
	if err != nil {
		return nil, err
	}
	st.LastUpdated = st.LastUpdated.UTC()
	return &st, nil
}

// PutStats upserts the singleton stats row.
func (m *MySQL) PutStats(ctx context.Context, stats *model.AggregateStats) error {
	const q = `INSERT INTO aggregate_stats (id, total_revenue, total_tickets_sold, last_updated)
	           VALUES (1, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	             total_revenue = VALUES(total_revenue),
	             total_tickets_sold = VALUES(total_tickets_sold),
	             last_updated = VALUES(last_updated)`
	_, err := m.db.ExecContext(ctx, q, stats.TotalRevenue, stats.TotalTicketsSold, stats.LastUpdated.UTC())
	return err
}

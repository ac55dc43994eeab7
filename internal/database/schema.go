package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the DDL for the reservation core's tables.  Statements are
// idempotent so EnsureSchema can run at every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS seats (
		id         VARCHAR(64)  NOT NULL,
		event_id   VARCHAR(64)  NOT NULL,
		row_label  VARCHAR(8)   NOT NULL,
		col_number INT UNSIGNED NOT NULL,
		price      BIGINT       NOT NULL,
		status     VARCHAR(16)  NOT NULL DEFAULT 'available',
		held_by    VARCHAR(64)  NULL,
		held_at    DATETIME     NULL,
		expires_at DATETIME     NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_seat_position (event_id, row_label, col_number),
		KEY idx_seats_status (status)
	)`,
	`CREATE TABLE IF NOT EXISTS coupons (
		code           VARCHAR(64)  NOT NULL,
		description    VARCHAR(255) NOT NULL DEFAULT '',
		discount_type  VARCHAR(16)  NOT NULL,
		discount_value BIGINT       NOT NULL,
		min_purchase   BIGINT       NOT NULL DEFAULT 0,
		max_uses       INT          NOT NULL,
		used_count     INT          NOT NULL DEFAULT 0,
		valid_from     DATETIME     NOT NULL,
		valid_to       DATETIME     NOT NULL,
		active         TINYINT(1)   NOT NULL DEFAULT 1,
		PRIMARY KEY (code)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id             VARCHAR(64) NOT NULL,
		buyer_id       VARCHAR(64) NOT NULL,
		event_id       VARCHAR(64) NOT NULL,
		original_price BIGINT      NOT NULL,
		discount       BIGINT      NOT NULL DEFAULT 0,
		coupon_code    VARCHAR(64) NULL,
		total_price    BIGINT      NOT NULL,
		status         VARCHAR(16) NOT NULL,
		created_at     DATETIME    NOT NULL,
		cancelled_at   DATETIME    NULL,
		refund_amount  BIGINT      NULL,
		PRIMARY KEY (id),
		KEY idx_orders_buyer (buyer_id, created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS order_seats (
		order_id VARCHAR(64) NOT NULL,
		seat_id  VARCHAR(64) NOT NULL,
		PRIMARY KEY (order_id, seat_id),
		CONSTRAINT fk_order_seats_order FOREIGN KEY (order_id) REFERENCES orders (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS aggregate_stats (
		id                 TINYINT  NOT NULL,
		total_revenue      BIGINT   NOT NULL DEFAULT 0,
		total_tickets_sold BIGINT   NOT NULL DEFAULT 0,
		last_updated       DATETIME NOT NULL,
		PRIMARY KEY (id)
	)`,
}

// EnsureSchema creates any missing tables.  Open runs it once the
// connection is verified; it is exported for callers that manage their
// own handle.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

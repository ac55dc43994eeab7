package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/event-ticket-reservation/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := config.Config{
		DBUser: "app",
		DBPass: "s3cret",
		DBHost: "db.internal",
		DBPort: "3306",
		DBName: "tickets",
	}
	assert.Equal(t,
		"app:s3cret@tcp(db.internal:3306)/tickets?charset=utf8mb4&parseTime=true&loc=UTC",
		dsn(cfg))

	// Passwordless accounts omit the colon entirely.
	cfg.DBPass = ""
	assert.Equal(t,
		"app@tcp(db.internal:3306)/tickets?charset=utf8mb4&parseTime=true&loc=UTC",
		dsn(cfg))
}

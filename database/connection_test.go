package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ananth-NQI/orderbot-backend/internal/config"
)

func TestDSN_LocalUsesTCP(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		User:     "postgres",
		Password: "secret",
		Name:     "orderbot",
		Host:     "db.local",
		Port:     "5433",
	})

	assert.Equal(t, "host=db.local user=postgres password=secret dbname=orderbot port=5433 sslmode=disable", dsn)
}

func TestDSN_CloudSQLUsesSocket(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		User:                   "bot",
		Password:               "pw",
		Name:                   "orders",
		Host:                   "ignored",
		Port:                   "5432",
		InstanceConnectionName: "proj:region:inst",
	})

	assert.Equal(t, "host=/cloudsql/proj:region:inst user=bot password=pw dbname=orders sslmode=disable", dsn)
}

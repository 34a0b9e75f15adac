package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/pkg/config"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:             "db",
		Port:             5432,
		User:             "scheduler",
		Password:         "p@ss word",
		Name:             "timetable",
		SSLMode:          "disable",
		AppName:          "timetable-api",
		StatementTimeout: 15 * time.Second,
	}

	assert.Equal(t,
		"host=db port=5432 user=scheduler password='p@ss word' dbname=timetable sslmode=disable application_name=timetable-api options='-c statement_timeout=15000'",
		DSN(cfg))
}

func TestDSNOmitsOptionalParts(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "", Name: "timetable", SSLMode: "require"}

	assert.Equal(t, "host=localhost port=5432 user=postgres password='' dbname=timetable sslmode=require", DSN(cfg))
}

func TestQuoteEscapes(t *testing.T) {
	assert.Equal(t, `'it\'s'`, quote("it's"))
	assert.Equal(t, `'a\\b'`, quote(`a\b`))
	assert.Equal(t, "plain", quote("plain"))
}

func TestPing(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlmock")

	mock.ExpectPing()
	require.NoError(t, Ping(context.Background(), db))

	mock.ExpectPing().WillReturnError(assert.AnError)
	err = Ping(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping postgres")
	assert.NoError(t, mock.ExpectationsWereMet())
}

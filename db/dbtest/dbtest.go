// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"testing"
	"time"

	"Gin_postgres_redis_tickets/db"
	"Gin_postgres_redis_tickets/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a fresh migrated database. A single connection keeps the
// in-memory database alive and serializes transactions.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

// SeedAppointment inserts an appointment and returns it.
func SeedAppointment(t testing.TB, repo *db.Repo, format models.Format, date time.Time) *models.Appointment {
	t.Helper()
	a := &models.Appointment{
		ID:          uuid.NewString(),
		Title:       "Consultation",
		Description: "first visit",
		Format:      format,
		Date:        models.NewNaiveTime(date),
		Duration:    6000,
	}
	if format == models.FormatOnline {
		link := "https://meet.example/room"
		a.Link = &link
	} else {
		addr := "123 Main St"
		a.Address = &addr
	}
	require.NoError(t, repo.DB.Create(a).Error)
	return a
}

// SeedInvitation inserts one unused invitation for appointmentID.
func SeedInvitation(t testing.TB, repo *db.Repo, appointmentID string) *models.Invitation {
	t.Helper()
	inv := models.Invitation{
		ID:            uuid.NewString(),
		AppointmentID: appointmentID,
		ShortURL:      "https://s.example/" + uuid.NewString()[:8],
	}
	require.NoError(t, repo.PersistBatch(t.Context(), []models.Invitation{inv}))
	return &inv
}

package db_test

import (
	"context"
	"testing"

	"Gin_postgres_redis_tickets/apperr"
	"Gin_postgres_redis_tickets/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppointmentCRUD(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	addr := "123 Main St"
	a := &models.Appointment{
		ID:          uuid.NewString(),
		Title:       "Checkup",
		Description: "annual",
		Format:      models.FormatOffline,
		Address:     &addr,
		Date:        models.NewNaiveTime(apptDate),
		Duration:    1800,
	}
	require.NoError(t, repo.CreateAppointment(ctx, a))

	got, err := repo.FindAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Title, got.Title)
	assert.Equal(t, models.FormatOffline, got.Format)
	require.NotNil(t, got.Address)
	assert.Equal(t, addr, *got.Address)
	assert.Nil(t, got.Link)
	assert.True(t, apptDate.Equal(got.Date.Time))
	assert.Equal(t, int64(1800), got.Duration)

	ok, err := repo.AppointmentExists(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := repo.FindAppointments(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	deleted, err := repo.DeleteAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.FindAppointment(ctx, a.ID)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestDeleteAppointmentCascades(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	a := &models.Appointment{
		ID: uuid.NewString(), Title: "t", Description: "d",
		Format: models.FormatOffline, Date: models.NewNaiveTime(apptDate),
	}
	addr := "x"
	a.Address = &addr
	require.NoError(t, repo.CreateAppointment(ctx, a))
	require.NoError(t, repo.PersistBatch(ctx, drafts(a.ID, 2)))

	deleted, err := repo.DeleteAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	left, err := repo.FindInvitations(ctx, &a.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestCreateAppointmentDuplicateID(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	addr := "x"
	a := models.Appointment{
		ID: uuid.NewString(), Title: "t", Description: "d",
		Format: models.FormatOffline, Address: &addr, Date: models.NewNaiveTime(apptDate),
	}
	require.NoError(t, repo.CreateAppointment(ctx, &a))
	dup := a
	err := repo.CreateAppointment(ctx, &dup)
	require.Error(t, err)
	assert.Contains(t, []apperr.Kind{apperr.Conflict, apperr.StorageError}, apperr.KindOf(err))
}

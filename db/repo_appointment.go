package db

import (
	"context"

	"Gin_postgres_redis_tickets/models"
)

// Appointments
func (r *Repo) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	return storeErr("appointment", r.DB.WithContext(ctx).Create(a).Error)
}

func (r *Repo) FindAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	var a models.Appointment
	if err := r.DB.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, storeErr("appointment", err)
	}
	return &a, nil
}

// FindAppointments 不传 id 时返回全部
func (r *Repo) FindAppointments(ctx context.Context, id *string) ([]models.Appointment, error) {
	q := r.DB.WithContext(ctx).Model(&models.Appointment{}).Order("date ASC")
	if id != nil {
		q = q.Where("id = ?", *id)
	}
	as := []models.Appointment{}
	if err := q.Find(&as).Error; err != nil {
		return nil, storeErr("appointment", err)
	}
	return as, nil
}

func (r *Repo) AppointmentExists(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ?", id).
		Count(&n).Error; err != nil {
		return false, storeErr("appointment", err)
	}
	return n > 0, nil
}

// DeleteAppointment 邀请由外键级联删除
func (r *Repo) DeleteAppointment(ctx context.Context, id string) (bool, error) {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Appointment{})
	if res.Error != nil {
		return false, storeErr("appointment", res.Error)
	}
	return res.RowsAffected > 0, nil
}

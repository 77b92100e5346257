package db

import (
	"context"

	"Gin_postgres_redis_tickets/models"

	"gorm.io/gorm"
)

const persistBatchSize = 500

// PersistBatch 一个事务里写入整批，任何一条失败整批回滚
func (r *Repo) PersistBatch(ctx context.Context, invs []models.Invitation) error {
	if len(invs) == 0 {
		return nil
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Appointment").CreateInBatches(&invs, persistBatchSize).Error
	})
	return storeErr("invitation", err)
}

func (r *Repo) FindInvitation(ctx context.Context, id string) (*models.Invitation, error) {
	var inv models.Invitation
	if err := r.DB.WithContext(ctx).First(&inv, "id = ?", id).Error; err != nil {
		return nil, storeErr("invitation", err)
	}
	return &inv, nil
}

// FindInvitations 按预约过滤；没有结果返回空切片
func (r *Repo) FindInvitations(ctx context.Context, appointmentID *string) ([]models.Invitation, error) {
	q := r.DB.WithContext(ctx).Model(&models.Invitation{}).Order("short_url ASC")
	if appointmentID != nil {
		q = q.Where("appointment_id = ?", *appointmentID)
	}
	invs := []models.Invitation{}
	if err := q.Find(&invs).Error; err != nil {
		return nil, storeErr("invitation", err)
	}
	return invs, nil
}

// RedemptionRow reads an invitation joined with its appointment in one query.
func (r *Repo) RedemptionRow(ctx context.Context, id string) (*models.AppointmentWithInvitation, error) {
	var row models.AppointmentWithInvitation
	err := r.DB.WithContext(ctx).
		Table(models.InvitationTable+" AS i").
		Select("i.id, i.appointment_id, i.used, i.short_url, a.format, a.address, a.link, a.date").
		Joins("JOIN "+models.AppointmentTable+" AS a ON a.id = i.appointment_id").
		Where("i.id = ?", id).
		Take(&row).Error
	if err != nil {
		return nil, storeErr("invitation", err)
	}
	return &row, nil
}

// MarkUsed flips used to true only if it is still false.
// 返回 false 表示已经被别的请求用掉
func (r *Repo) MarkUsed(ctx context.Context, id string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Invitation{}).
		Where("id = ? AND used = ?", id, false).
		Update("used", true)
	if res.Error != nil {
		return false, storeErr("invitation", res.Error)
	}
	return res.RowsAffected > 0, nil
}

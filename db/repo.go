package db

import (
	"context"
	"errors"

	"Gin_postgres_redis_tickets/apperr"

	"gorm.io/gorm"
)

type Repo struct{ DB *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

// InTx 在一个事务里执行 fn，fn 拿到的 Repo 绑定在该事务上
func (r *Repo) InTx(ctx context.Context, fn func(tx *Repo) error) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repo{DB: tx})
	})
	return storeErr("transaction", err)
}

// storeErr 把 gorm 错误映射为 apperr
func storeErr(msg string, err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.Wrap(apperr.NotFound, msg+" not found", err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Wrap(apperr.Conflict, msg+" already exists", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperr.Wrap(apperr.StorageError, "storage request cancelled", err)
	default:
		return apperr.Wrap(apperr.StorageError, "storage error", err)
	}
}

package invitation

import (
	"context"
	"time"

	"Gin_postgres_redis_tickets/apperr"
	"Gin_postgres_redis_tickets/db"
	"Gin_postgres_redis_tickets/models"
)

const (
	MsgAlreadyUsed = "invitation has already been used"
	MsgOutdated    = "The invitation date is outdated."
)

// Outcome of an accepted redemption. Redirect is set for ONLINE
// appointments, Display for OFFLINE ones.
type Outcome struct {
	Redirect string
	Display  *models.AppointmentWithInvitation
}

type Validator struct {
	repo *db.Repo
	now  func() time.Time
}

func NewValidator(repo *db.Repo, now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{repo: repo, now: now}
}

// Cutoff is midnight UTC of the day before now.
func Cutoff(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d-1, 0, 0, 0, 0, time.UTC)
}

// Decide applies the redemption rules to a freshly read row without
// changing any state.
func Decide(row *models.AppointmentWithInvitation, now time.Time) (Outcome, error) {
	if row.Used {
		return Outcome{}, apperr.New(apperr.Forbidden, MsgAlreadyUsed)
	}
	if row.Date.Before(Cutoff(now)) {
		return Outcome{}, apperr.New(apperr.Forbidden, MsgOutdated)
	}
	switch row.Format {
	case models.FormatOnline:
		if row.Link == nil || *row.Link == "" {
			return Outcome{}, apperr.New(apperr.Internal, "online appointment has no link")
		}
		return Outcome{Redirect: *row.Link}, nil
	default:
		snap := *row
		return Outcome{Display: &snap}, nil
	}
}

// redemptionStore is the part of the store used inside the redemption
// transaction.
type redemptionStore interface {
	RedemptionRow(ctx context.Context, id string) (*models.AppointmentWithInvitation, error)
	MarkUsed(ctx context.Context, id string) (bool, error)
}

// Redeem validates and consumes the invitation in one transaction.
func (v *Validator) Redeem(ctx context.Context, id string) (Outcome, error) {
	var out Outcome
	err := v.repo.InTx(ctx, func(tx *db.Repo) error {
		o, err := v.consume(ctx, tx, id)
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}

func (v *Validator) consume(ctx context.Context, st redemptionStore, id string) (Outcome, error) {
	row, err := st.RedemptionRow(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	o, err := Decide(row, v.now())
	if err != nil {
		return Outcome{}, err
	}
	// 条件更新，没改到行说明被并发请求抢先
	ok, err := st.MarkUsed(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		return Outcome{}, apperr.New(apperr.Forbidden, MsgAlreadyUsed)
	}
	if o.Display != nil {
		o.Display.Used = true
	}
	return o, nil
}

package invitation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"Gin_postgres_redis_tickets/apperr"
	"Gin_postgres_redis_tickets/db"
	"Gin_postgres_redis_tickets/models"
	"Gin_postgres_redis_tickets/notify"
)

// Dispatcher sends invitation emails after the batch is stored.
type Dispatcher interface {
	Dispatch(ctx context.Context, deliveries []notify.Delivery) []notify.Result
}

type Options struct {
	MaxBatch        int
	GenerateTimeout time.Duration
	MailTimeout     time.Duration
	// AsyncMail 为 true 时邮件在后台发送，请求不等待
	AsyncMail bool
}

type Service struct {
	repo *db.Repo
	gen  *Generator
	mail Dispatcher
	opts Options
	log  *slog.Logger

	// 后台发送中的邮件
	pending sync.WaitGroup
}

func NewService(repo *db.Repo, gen *Generator, mail Dispatcher, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, gen: gen, mail: mail, opts: opts, log: logger}
}

// CreateBatch generates, stores and optionally emails a batch of
// invitations for an appointment. Nothing is stored unless every short
// link was obtained.
func (s *Service) CreateBatch(ctx context.Context, appointmentID string, count *int, emails []string) ([]models.Invitation, error) {
	k, err := BatchSize(count, emails, s.opts.MaxBatch)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.AppointmentExists(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.New(apperr.NotFound, "appointment not found")
	}

	genCtx := ctx
	if s.opts.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.opts.GenerateTimeout)
		defer cancel()
	}
	batch, err := s.gen.Generate(genCtx, appointmentID, k)
	if err != nil {
		s.log.WarnContext(ctx, "invitation batch failed", "appointment_id", appointmentID, "count", k, "err", err)
		return nil, err
	}

	if err := s.repo.PersistBatch(ctx, batch); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "invitation batch stored", "appointment_id", appointmentID, "count", len(batch))

	if len(emails) > 0 && s.mail != nil {
		deliveries := notify.Pair(emails, batch)
		if s.opts.AsyncMail {
			s.pending.Add(1)
			go func() {
				defer s.pending.Done()
				s.dispatch(context.WithoutCancel(ctx), deliveries)
			}()
		} else {
			s.dispatch(context.WithoutCancel(ctx), deliveries)
		}
	}
	return batch, nil
}

// Wait blocks until background mail dispatches finish or ctx ends.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) dispatch(ctx context.Context, deliveries []notify.Delivery) {
	if s.opts.MailTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.MailTimeout)
		defer cancel()
	}
	failed := 0
	for _, r := range s.mail.Dispatch(ctx, deliveries) {
		if r.Err != nil {
			failed++
		}
	}
	s.log.InfoContext(ctx, "invitation mails dispatched", "sent", len(deliveries)-failed, "failed", failed)
}

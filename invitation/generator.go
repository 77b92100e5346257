// Package invitation generates invitation batches and redeems invitations.
package invitation

import (
	"context"
	"fmt"

	"Gin_postgres_redis_tickets/apperr"
	"Gin_postgres_redis_tickets/models"
	"Gin_postgres_redis_tickets/shortlink"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Shortener returns a short alias for the redemption URL of token.
type Shortener interface {
	Shorten(ctx context.Context, token string) (shortlink.Result, error)
}

type Generator struct {
	short       Shortener
	maxParallel int
	newID       func() string
}

func NewGenerator(short Shortener, maxParallel int) *Generator {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &Generator{short: short, maxParallel: maxParallel, newID: uuid.NewString}
}

// BatchSize resolves how many invitations a request asks for.
// 有邮箱时以邮箱数为准，count 被忽略；都没有时默认 1
func BatchSize(count *int, emails []string, max int) (int, error) {
	k := 1
	switch {
	case len(emails) > 0:
		k = len(emails)
	case count != nil:
		k = *count
	}
	if k < 1 {
		return 0, apperr.New(apperr.InputValidation, "count must be at least 1")
	}
	if max > 0 && k > max {
		return 0, apperr.New(apperr.InputValidation, fmt.Sprintf("at most %d invitations per request", max))
	}
	return k, nil
}

// Generate shortens k fresh tokens concurrently and returns the drafts in
// position order. The first failure cancels the rest and fails the batch.
func (g *Generator) Generate(ctx context.Context, appointmentID string, k int) ([]models.Invitation, error) {
	if k < 1 {
		return nil, apperr.New(apperr.InputValidation, "count must be at least 1")
	}
	ids := make([]string, k)
	for i := range ids {
		ids[i] = g.newID()
	}

	urls := make([]string, k)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.maxParallel)
	for i, id := range ids {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			res, err := g.short.Shorten(egCtx, id)
			if err != nil {
				return err
			}
			urls[i] = res.ShortURL
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		if apperr.KindOf(err) == apperr.Internal {
			return nil, apperr.Wrap(apperr.UpstreamUnavailable, "short link service unavailable", err)
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(apperr.UpstreamUnavailable, "invitation generation timed out", err)
	}

	out := make([]models.Invitation, k)
	for i := range out {
		out[i] = models.Invitation{
			ID:            ids[i],
			AppointmentID: appointmentID,
			ShortURL:      urls[i],
		}
	}
	return out, nil
}

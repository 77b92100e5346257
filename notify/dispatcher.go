// Package notify emails invitations to their recipients.
package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"

	"Gin_postgres_redis_tickets/models"

	"golang.org/x/sync/errgroup"
)

//go:embed templates/invitation.html
var templatesFS embed.FS

var invitationTmpl = template.Must(template.ParseFS(templatesFS, "templates/invitation.html"))

const (
	Subject   = "Your invitation"
	plainBody = "Hello dear customer. Your invitation link: %s"
)

// QRRenderer returns the base64 PNG of a QR code for url.
type QRRenderer interface {
	Base64(ctx context.Context, url string) (string, error)
}

// Delivery pairs a recipient with the invitation they receive.
type Delivery struct {
	Email      string
	Invitation models.Invitation
}

type Result struct {
	Email        string
	InvitationID string
	Err          error
}

type Dispatcher struct {
	mailer      Mailer
	qr          QRRenderer
	appName     string
	imageSize   int
	maxParallel int
	log         *slog.Logger
}

func NewDispatcher(mailer Mailer, qr QRRenderer, appName string, imageSize, maxParallel int, logger *slog.Logger) *Dispatcher {
	if maxParallel < 1 {
		maxParallel = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		mailer: mailer, qr: qr, appName: appName,
		imageSize: imageSize, maxParallel: maxParallel, log: logger,
	}
}

// Pair matches emails[i] with invs[i]; extra entries on either side are dropped.
func Pair(emails []string, invs []models.Invitation) []Delivery {
	n := min(len(emails), len(invs))
	out := make([]Delivery, n)
	for i := range n {
		out[i] = Delivery{Email: emails[i], Invitation: invs[i]}
	}
	return out
}

// Dispatch sends every delivery independently. A failure for one recipient
// never stops the others; results come back in input order.
func (d *Dispatcher) Dispatch(ctx context.Context, deliveries []Delivery) []Result {
	results := make([]Result, len(deliveries))
	var eg errgroup.Group
	eg.SetLimit(d.maxParallel)
	for i, dl := range deliveries {
		eg.Go(func() error {
			err := d.send(ctx, dl)
			results[i] = Result{Email: dl.Email, InvitationID: dl.Invitation.ID, Err: err}
			if err != nil {
				d.log.WarnContext(ctx, "invitation mail failed",
					"to", dl.Email, "invitation_id", dl.Invitation.ID, "err", err)
			}
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

func (d *Dispatcher) send(ctx context.Context, dl Delivery) error {
	link := dl.Invitation.ShortURL
	img, err := d.qr.Base64(ctx, link)
	if err != nil {
		return fmt.Errorf("render qr: %w", err)
	}
	html, err := RenderInvitationHTML(d.appName, link, img, d.imageSize)
	if err != nil {
		return err
	}
	return d.mailer.Send(ctx, Message{
		To:      dl.Email,
		Subject: Subject,
		HTML:    html,
		Plain:   fmt.Sprintf(plainBody, link),
		Link:    link,
	})
}

// RenderInvitationHTML fills the mail template with an inline PNG.
func RenderInvitationHTML(appName, link, imageBase64 string, size int) (string, error) {
	var buf bytes.Buffer
	err := invitationTmpl.Execute(&buf, map[string]any{
		"AppName": appName,
		"Link":    link,
		"Image":   template.URL("data:image/png;base64," + imageBase64),
		"Size":    size,
	})
	if err != nil {
		return "", fmt.Errorf("render mail: %w", err)
	}
	return buf.String(), nil
}

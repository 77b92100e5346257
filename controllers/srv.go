// controllers/srv.go
package controllers

import (
	"log/slog"
	"net/http"

	"Gin_postgres_redis_tickets/app"
	"Gin_postgres_redis_tickets/apperr"
	"Gin_postgres_redis_tickets/cache"
	"Gin_postgres_redis_tickets/db"
	"Gin_postgres_redis_tickets/invitation"
	"Gin_postgres_redis_tickets/notify"
	"Gin_postgres_redis_tickets/qr"
	"Gin_postgres_redis_tickets/shortlink"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Srv 控制器共享的依赖
type Srv struct {
	Repo        *db.Repo
	Invitations *invitation.Service
	Validator   *invitation.Validator
	QR          *cache.QRCache
	QRSize      int
	Log         *slog.Logger
}

func GetSrv(a *app.App) *Srv {
	cfg := a.Config
	repo := db.NewRepo(a.DB)

	short := shortlink.New(cfg.Shortener.APIURL, cfg.Shortener.APIKey, cfg.Shortener.BaseURL, cfg.Shortener.Timeout)
	qrc := cache.NewQRCache(a.RDB, qr.NewEncoder(cfg.QR.Size), cfg.Redis.QRTTL, a.Log)
	mailer := notify.NewSMTPMailer(cfg.SMTP, a.Log)
	dispatcher := notify.NewDispatcher(mailer, qrc, cfg.SMTP.AppName, cfg.QR.Size, cfg.SMTP.MaxParallel, a.Log)

	svc := invitation.NewService(
		repo,
		invitation.NewGenerator(short, cfg.Shortener.MaxParallel),
		dispatcher,
		invitation.Options{
			MaxBatch:        cfg.Invitation.MaxBatch,
			GenerateTimeout: cfg.Invitation.GenerateTimeout,
			MailTimeout:     cfg.SMTP.Timeout,
			AsyncMail:       true,
		},
		a.Log,
	)
	return &Srv{
		Repo:        repo,
		Invitations: svc,
		Validator:   invitation.NewValidator(repo, nil),
		QR:          qrc,
		QRSize:      cfg.QR.Size,
		Log:         a.Log,
	}
}

// --- helpers ---

// fail 把 apperr 映射成状态码和 {"error": ...}
func (s *Srv) fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := apperr.Status(kind)
	if status >= http.StatusInternalServerError {
		s.Log.ErrorContext(c.Request.Context(), "request failed", "kind", kind.String(), "err", err)
	}
	_ = c.Error(err)
	c.JSON(status, app.H{"error": apperr.Message(err)})
}

// pathID 读取并校验 uuid 路径参数
func (s *Srv) pathID(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		s.fail(c, apperr.New(apperr.InputValidation, "invalid uuid"))
		return "", false
	}
	return id, true
}

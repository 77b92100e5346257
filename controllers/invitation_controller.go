package controllers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"Gin_postgres_redis_tickets/apperr"

	"github.com/gin-gonic/gin"
)

//go:embed templates/qr.html
var templatesFS embed.FS

var qrPage = template.Must(template.ParseFS(templatesFS, "templates/qr.html"))

type InvitationController struct{ *Srv }

func NewInvitationController(s *Srv) *InvitationController { return &InvitationController{Srv: s} }

// GET /api/invitation  全部邀请
func (ic *InvitationController) List(c *gin.Context) {
	invs, err := ic.Repo.FindInvitations(c.Request.Context(), nil)
	if err != nil {
		ic.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, invs)
}

// GET /api/invitation/:id  不存在时返回 null
func (ic *InvitationController) Get(c *gin.Context) {
	id, ok := ic.pathID(c, "id")
	if !ok {
		return
	}
	inv, err := ic.Repo.FindInvitation(c.Request.Context(), id)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			c.JSON(http.StatusOK, nil)
			return
		}
		ic.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// GET /api/invitation/:id/qr[?format=png]
func (ic *InvitationController) QR(c *gin.Context) {
	id, ok := ic.pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	inv, err := ic.Repo.FindInvitation(ctx, id)
	if err != nil {
		ic.fail(c, err)
		return
	}

	if c.Query("format") == "png" {
		png, err := ic.Srv.QR.PNG(ctx, inv.ShortURL)
		if err != nil {
			ic.fail(c, err)
			return
		}
		c.Data(http.StatusOK, "image/png", png)
		return
	}

	img, err := ic.Srv.QR.Base64(ctx, inv.ShortURL)
	if err != nil {
		ic.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := qrPage.Execute(&buf, map[string]any{
		"Image": template.URL("data:image/png;base64," + img),
		"Link":  inv.ShortURL,
		"Size":  ic.QRSize,
	}); err != nil {
		ic.fail(c, apperr.Wrap(apperr.Internal, "render qr page", err))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// controllers/appointment_controller.go
package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"Gin_postgres_redis_tickets/apperr"
	"Gin_postgres_redis_tickets/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AppointmentController struct{ *Srv }

func NewAppointmentController(s *Srv) *AppointmentController { return &AppointmentController{Srv: s} }

// POST /api/appointment
func (ac *AppointmentController) Create(c *gin.Context) {
	var in models.NewAppointment
	if err := c.ShouldBindJSON(&in); err != nil {
		ac.fail(c, apperr.Wrap(apperr.InputValidation, err.Error(), err))
		return
	}
	a, err := in.Normalize(uuid.NewString())
	if err != nil {
		ac.fail(c, apperr.Wrap(apperr.InputValidation, err.Error(), err))
		return
	}
	if err := ac.Repo.CreateAppointment(c.Request.Context(), a); err != nil {
		ac.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a.ID)
}

// GET /api/appointment
func (ac *AppointmentController) List(c *gin.Context) {
	as, err := ac.Repo.FindAppointments(c.Request.Context(), nil)
	if err != nil {
		ac.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, as)
}

// GET /api/appointment/:id  不存在时返回 null
func (ac *AppointmentController) Get(c *gin.Context) {
	id, ok := ac.pathID(c, "id")
	if !ok {
		return
	}
	a, err := ac.Repo.FindAppointment(c.Request.Context(), id)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			c.JSON(http.StatusOK, nil)
			return
		}
		ac.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// DELETE /api/appointment/:id
func (ac *AppointmentController) Delete(c *gin.Context) {
	id, ok := ac.pathID(c, "id")
	if !ok {
		return
	}
	deleted, err := ac.Repo.DeleteAppointment(c.Request.Context(), id)
	if err != nil {
		ac.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, deleted)
}

// POST /api/appointment/:id/invitation?count=N
func (ac *AppointmentController) AddInvitations(c *gin.Context) {
	id, ok := ac.pathID(c, "id")
	if !ok {
		return
	}

	var count *int
	if raw := c.Query("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			ac.fail(c, apperr.Wrap(apperr.InputValidation, "count must be an integer", err))
			return
		}
		count = &n
	}

	var in struct {
		Email []string `json:"email" binding:"omitempty,dive,email"`
	}
	// body 可以为空
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		ac.fail(c, apperr.Wrap(apperr.InputValidation, err.Error(), err))
		return
	}

	batch, err := ac.Invitations.CreateBatch(c.Request.Context(), id, count, in.Email)
	if err != nil {
		ac.fail(c, err)
		return
	}
	out := make([]models.NewInvitation, len(batch))
	for i, inv := range batch {
		out[i] = inv.Public()
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/appointment/:id/invitation
func (ac *AppointmentController) ListInvitations(c *gin.Context) {
	id, ok := ac.pathID(c, "id")
	if !ok {
		return
	}
	invs, err := ac.Repo.FindInvitations(c.Request.Context(), &id)
	if err != nil {
		ac.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, invs)
}

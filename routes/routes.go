package routes

import (
	"Gin_postgres_redis_tickets/app"
	"Gin_postgres_redis_tickets/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the controllers for a and returns their shared deps.
func RegisterRoutes(r *gin.Engine, a *app.App) *controllers.Srv {
	s := controllers.GetSrv(a)
	Register(r, s)
	return s
}

// Register mounts every handler on r.
func Register(r *gin.Engine, s *controllers.Srv) {
	// 控制器与依赖
	apptCtl := controllers.NewAppointmentController(s)
	invCtl := controllers.NewInvitationController(s)
	valCtl := controllers.NewValidationController(s)

	// Health
	r.GET("/healthz", func(c *app.Ctx) { c.JSON(200, app.H{"ok": true}) })

	api := r.Group("/api")

	// ------------------------------
	// 预约
	// ------------------------------
	appts := api.Group("/appointment")
	{
		appts.POST("", apptCtl.Create)
		appts.GET("", apptCtl.List)
		appts.GET("/:id", apptCtl.Get)
		appts.DELETE("/:id", apptCtl.Delete)
		appts.POST("/:id/invitation", apptCtl.AddInvitations) // ?count=N
		appts.GET("/:id/invitation", apptCtl.ListInvitations)
	}

	// ------------------------------
	// 邀请
	// ------------------------------
	invs := api.Group("/invitation")
	{
		invs.GET("", invCtl.List)
		invs.GET("/:id", invCtl.Get)
		invs.GET("/:id/qr", invCtl.QR) // ?format=png
	}

	// 验证（一次性）
	api.GET("/validations/:id", valCtl.Validate)
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ValidationController struct{ *Srv }

func NewValidationController(s *Srv) *ValidationController { return &ValidationController{Srv: s} }

// GET /api/validations/:id
// 验证即消费：成功后邀请被标记为已使用
func (vc *ValidationController) Validate(c *gin.Context) {
	id, ok := vc.pathID(c, "id")
	if !ok {
		return
	}
	out, err := vc.Validator.Redeem(c.Request.Context(), id)
	if err != nil {
		vc.fail(c, err)
		return
	}
	if out.Redirect != "" {
		c.Redirect(http.StatusPermanentRedirect, out.Redirect)
		return
	}
	c.JSON(http.StatusOK, out.Display)
}

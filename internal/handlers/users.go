package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) GetUser(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

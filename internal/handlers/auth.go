package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"datingapp/internal/models"
	"datingapp/internal/service"
)

type registerRequest struct {
	UserName string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	UserName string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID         int64     `json:"id"`
	UserName   string    `json:"userName"`
	Created    time.Time `json:"created"`
	LastActive time.Time `json:"lastActive"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func toUserResponse(user models.User) userResponse {
	return userResponse{
		ID:         user.ID,
		UserName:   user.UserName,
		Created:    user.Created,
		LastActive: user.LastActive,
	}
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindingError(err))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		UserName: req.UserName,
		Password: req.Password,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.Header("Location", fmt.Sprintf("/api/users/%d", user.ID))
	c.JSON(http.StatusCreated, toUserResponse(user))
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindingError(err))
		return
	}

	result, err := h.authService.Login(c.Request.Context(), service.LoginInput{
		UserName: req.UserName,
		Password: req.Password,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Token: result.Token,
		User:  toUserResponse(result.User),
	})
}

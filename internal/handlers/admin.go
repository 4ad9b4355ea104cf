package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

type userWithRolesResponse struct {
	ID       int64    `json:"id"`
	UserName string   `json:"userName"`
	Roles    []string `json:"roles"`
}

type roleEditRequest struct {
	RoleNames []string `json:"roleNames"`
}

type moderationPhotoResponse struct {
	ID         int64  `json:"id"`
	URL        string `json:"url"`
	UserName   string `json:"userName"`
	IsApproved bool   `json:"isApproved"`
}

func (h HandlerSet) GetUsersWithRoles(c *gin.Context) {
	users, err := h.roleService.GetUsersWithRoles(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	items := make([]userWithRolesResponse, 0, len(users))
	for _, u := range users {
		roles := u.Roles
		if roles == nil {
			roles = []string{}
		}
		items = append(items, userWithRolesResponse{ID: u.ID, UserName: u.UserName, Roles: roles})
	}

	c.JSON(http.StatusOK, items)
}

// EditRoles treats a missing or null roleNames as "no roles".
func (h HandlerSet) EditRoles(c *gin.Context) {
	var req roleEditRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, bindingError(err))
		return
	}

	_, actor, err := currentUser(c)
	if err != nil {
		fail(c, err)
		return
	}

	roles, err := h.roleService.EditRoles(c.Request.Context(), actor, c.Param("userName"), req.RoleNames)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, roles)
}

func (h HandlerSet) GetPhotosForModerators(c *gin.Context) {
	photos, err := h.photoService.ListUnapproved(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	items := make([]moderationPhotoResponse, 0, len(photos))
	for _, p := range photos {
		items = append(items, moderationPhotoResponse{
			ID:         p.ID,
			URL:        p.URL,
			UserName:   p.UserName,
			IsApproved: p.IsApproved,
		})
	}

	c.JSON(http.StatusOK, items)
}

func (h HandlerSet) ApprovePhoto(c *gin.Context) {
	photoID, err := int64Param(c, "photoId")
	if err != nil {
		fail(c, err)
		return
	}

	_, actor, err := currentUser(c)
	if err != nil {
		fail(c, err)
		return
	}

	if err := h.photoService.Approve(c.Request.Context(), actor, photoID); err != nil {
		fail(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func (h HandlerSet) RejectPhoto(c *gin.Context) {
	photoID, err := int64Param(c, "photoId")
	if err != nil {
		fail(c, err)
		return
	}

	_, actor, err := currentUser(c)
	if err != nil {
		fail(c, err)
		return
	}

	if err := h.photoService.Reject(c.Request.Context(), actor, photoID); err != nil {
		fail(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func (h HandlerSet) Stats(c *gin.Context) {
	snapshot, err := h.stats.Snapshot(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

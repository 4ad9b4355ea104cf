package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"datingapp/internal/apperr"
	"datingapp/internal/models"
	"datingapp/internal/service"
)

type photoResponse struct {
	ID          int64     `json:"id"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	DateAdded   time.Time `json:"dateAdded"`
	IsMain      bool      `json:"isMain"`
	IsApproved  bool      `json:"isApproved"`
}

func toPhotoResponse(p models.Photo) photoResponse {
	return photoResponse{
		ID:          p.ID,
		URL:         p.URL,
		Description: p.Description,
		DateAdded:   p.DateAdded,
		IsMain:      p.IsMain,
		IsApproved:  p.IsApproved,
	}
}

func (h HandlerSet) ListUserPhotos(c *gin.Context) {
	userID, err := int64Param(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	viewerID, _, err := currentUser(c)
	if err != nil {
		fail(c, err)
		return
	}

	photos, err := h.photoService.ListForUser(c.Request.Context(), viewerID, userID)
	if err != nil {
		fail(c, err)
		return
	}

	items := make([]photoResponse, 0, len(photos))
	for _, p := range photos {
		items = append(items, toPhotoResponse(p))
	}
	c.JSON(http.StatusOK, items)
}

func (h HandlerSet) UploadPhoto(c *gin.Context) {
	userID, err := int64Param(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	callerID, _, err := currentUser(c)
	if err != nil {
		fail(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			fail(c, apperr.Validation("No file uploaded", apperr.Detail{
				Code: "FileRequired", Description: "A photo file is required.",
			}))
			return
		}
		fail(c, bindingError(err))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		fail(c, err)
		return
	}
	defer file.Close()

	photo, err := h.photoService.Upload(c.Request.Context(), callerID, service.UploadInput{
		UserID:      userID,
		Description: c.PostForm("description"),
		File:        file,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, toPhotoResponse(photo))
}

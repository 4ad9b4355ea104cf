package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"datingapp/internal/apperr"
)

// Fallback serves the single-page client: existing static files as-is and
// index.html for every other page route. Unknown API routes get JSON 404s.
func (h HandlerSet) Fallback(c *gin.Context) {
	reqPath := c.Request.URL.Path
	if reqPath == "/api" || strings.HasPrefix(reqPath, "/api/") ||
		(c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
		c.AbortWithStatusJSON(http.StatusNotFound, apperr.ErrorResponse{
			Error: "not_found",
			Code:  "NOT_FOUND",
		})
		return
	}

	root := h.cfg.Static.Root
	if file := filepath.Join(root, filepath.FromSlash(path.Clean("/"+reqPath))); isFile(file) {
		c.File(file)
		return
	}

	index := filepath.Join(root, "index.html")
	if !isFile(index) {
		c.AbortWithStatusJSON(http.StatusNotFound, apperr.ErrorResponse{
			Error: "not_found",
			Code:  "NOT_FOUND",
		})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.File(index)
}

func isFile(name string) bool {
	info, err := os.Stat(name)
	return err == nil && !info.IsDir()
}

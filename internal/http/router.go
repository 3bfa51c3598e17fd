package httpx

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boxabirds/post-to-bluesky/domain"
	"github.com/boxabirds/post-to-bluesky/internal/bus"
)

// BuildRouter exposes the message catalogue over HTTP. The transient UI
// surface and other contexts reach the background controller through
// POST /messages/:name with the message body as the request body.
func BuildRouter(router *bus.Router) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	r.POST("/messages/:name", func(c *gin.Context) {
		name := c.Param("name")

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "unreadable request body"}})
			return
		}
		if len(body) == 0 {
			body = []byte("{}")
		}

		resp, err := router.Dispatch(c.Request.Context(), name, body)
		if err != nil {
			if errors.Is(err, domain.ErrUnknownMessage) {
				c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": err.Error()}})
				return
			}
			c.JSON(http.StatusOK, gin.H{"error": gin.H{"message": err.Error()}})
			return
		}
		c.Data(http.StatusOK, "application/json", resp)
	})

	return r
}

package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	feeddomain "github.com/civiclens/civiclens-backend/internal/feed/domain"
)

// StreamIssues streams the live feed over Server-Sent Events. Every event
// carries the full ordered view, never a diff, so a dropped event is repaired
// by the next one.
func (h *Handler) StreamIssues(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // nginx: disable buffering

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	// Buffered so a slow client never blocks snapshot delivery; stale
	// intermediate views are dropped in favor of the newest.
	updates := make(chan []feeddomain.Issue, 1)
	cancel := h.feed.Subscribe(func(view []feeddomain.Issue) {
		for {
			select {
			case updates <- view:
				return
			default:
				select {
				case <-updates:
				default:
				}
			}
		}
	})
	defer cancel()

	writeSnapshot(c, flusher, h.feed.View())

	ctx := c.Request.Context()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Client disconnected
			return

		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case view := <-updates:
			writeSnapshot(c, flusher, view)
		}
	}
}

func writeSnapshot(c *gin.Context, flusher http.Flusher, view []feeddomain.Issue) {
	data, err := json.Marshal(gin.H{"issues": view})
	if err != nil {
		return
	}
	fmt.Fprintf(c.Writer, "event: snapshot\ndata: %s\n\n", data)
	flusher.Flush()
}

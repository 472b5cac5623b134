package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	slotsPushInterval = 5 * time.Second
	slotsWriteWait    = 10 * time.Second
	slotsPongWait     = 60 * time.Second
)

var slotsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The registration page is served from a different origin than the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SlotsFeed upgrades to a websocket and pushes slot snapshots periodically,
// so the registration page can show remaining capacity live. Read-only:
// client messages are drained solely to service pongs.
func (h *ActionHandler) SlotsFeed(c *gin.Context) {
	conn, err := slotsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[SlotsFeed] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(slotsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(slotsPongWait))
		return nil
	})

	// Drain the read side; exit the writer loop when the client goes away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(slotsPushInterval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		info, err := h.eventService.Slots(ctx)
		if err != nil {
			log.Printf("[SlotsFeed] failed to load slots: %v", err)
		} else {
			conn.SetWriteDeadline(time.Now().Add(slotsWriteWait))
			if err := conn.WriteJSON(info); err != nil {
				return
			}
		}

		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

package authevents

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

const keepAliveInterval = 25 * time.Second

// Handler streams auth events as Server-Sent Events.
type Handler struct {
	broker    *Broker
	keepAlive time.Duration
}

// NewHandler constructs the SSE handler.
func NewHandler(broker *Broker) *Handler {
	return &Handler{broker: broker, keepAlive: keepAliveInterval}
}

// Stream handles GET /auth/events.
func (h *Handler) Stream(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	sub, err := h.broker.Subscribe(userID)
	if err != nil {
		return fiber.NewError(http.StatusServiceUnavailable, err.Error())
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer h.broker.Unsubscribe(sub)
		ticker := time.NewTicker(h.keepAlive)
		defer ticker.Stop()

		if _, err := io.WriteString(w, ": connected\n\n"); err != nil || w.Flush() != nil {
			return
		}
		for {
			select {
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				if err := WriteEvent(w, ev); err != nil || w.Flush() != nil {
					return
				}
			case <-ticker.C:
				if _, err := io.WriteString(w, ": ping\n\n"); err != nil || w.Flush() != nil {
					return
				}
			}
		}
	}))
	return nil
}

// WriteEvent encodes ev as one SSE frame.
func WriteEvent(w io.Writer, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
	return err
}

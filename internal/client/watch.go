package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"curriculum-cli/internal/model"

	"github.com/gorilla/websocket"
)

// Watch streams a course's change feed to fn until ctx is cancelled, the server
// closes the feed, or fn returns an error.
func (c *Client) Watch(ctx context.Context, courseID string, fn func(model.ChangeEvent) error) error {
	endpoint := c.endpoint("courses", courseID, "events")
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		endpoint = "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		endpoint = "ws://" + strings.TrimPrefix(endpoint, "http://")
	}

	conn, res, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if res != nil && res.StatusCode != http.StatusSwitchingProtocols {
			return StatusError{Code: res.StatusCode}
		}
		return fmt.Errorf("open change feed: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		var ev model.ChangeEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read change feed: %w", err)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}

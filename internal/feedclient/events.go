package feedclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const reconnectDelay = 5 * time.Second

// feedEvent mirrors the server's stream wire format.
type feedEvent struct {
	Kind   string `json:"kind"`
	PostID string `json:"postId"`
	TimeUS int64  `json:"time_us"`
}

// Watch subscribes to the server's feed event stream and refreshes the
// projection whenever the feed changes, so edits by other clients become
// visible without polling. It reconnects on transient errors and blocks
// until ctx is cancelled.
func (f *Feed) Watch(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := f.subscribe(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				f.logger.Warn("feed stream disconnected, reconnecting", "error", err)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(reconnectDelay):
				}
			}
		}
	}
}

func (f *Feed) subscribe(ctx context.Context) error {
	wsURL, err := f.client.streamURL()
	if err != nil {
		return err
	}

	header := http.Header{"Authorization": []string{"Bearer " + f.client.token}}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return fmt.Errorf("dial feed stream: %w", err)
	}
	defer conn.Close()

	f.logger.Info("connected to feed stream", "url", wsURL)

	// Close the socket when ctx ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read event: %w", err)
		}

		var ev feedEvent
		if err := json.Unmarshal(message, &ev); err != nil {
			f.logger.Error("failed to parse feed event", "error", err)
			continue
		}

		if err := f.Refresh(ctx); err != nil {
			f.logger.Warn("refresh after feed event failed", "kind", ev.Kind, "post_id", ev.PostID, "error", err)
		}
	}
}

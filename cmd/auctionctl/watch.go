package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"nhooyr.io/websocket"

	"domaauction/core/types"
)

// runWatch prints one line per committed event until interrupted.
func runWatch(ctx context.Context, c *client, args []string) error {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	wsURL := "ws" + strings.TrimPrefix(c.endpoint, "http") + "/v1/events/stream"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		var evt types.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			return err
		}
		if prefix != "" && !strings.HasPrefix(evt.Type, prefix) {
			continue
		}
		line, _ := json.Marshal(toEther(map[string]interface{}{"type": evt.Type, "attributes": stringMap(evt.Attributes)}))
		fmt.Println(string(line))
	}
}

func stringMap(in map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

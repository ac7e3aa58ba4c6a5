package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/ticketboard-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

// run connects a display and a producer, announces one assignment and
// waits until the display shows it in the newest slot.
func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	number := flag.String("number", "A01", "ticket number to announce")
	desk := flag.String("desk", "1", "desk to announce")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	display, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial display: %w", err)
	}
	defer display.Close(websocket.StatusNormalClosure, "bye")

	producer, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial producer: %w", err)
	}
	defer producer.Close(websocket.StatusNormalClosure, "bye")

	payload, err := json.Marshal(proto.AssignData{Number: proto.Identifier(*number), Desk: proto.Identifier(*desk)})
	if err != nil {
		return fmt.Errorf("marshal assign: %w", err)
	}
	if err := wsjson.Write(ctx, producer, proto.Inbound{Type: proto.InboundTypeAssign, Data: payload}); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	for {
		var out struct {
			Type  string         `json:"type"`
			Event string         `json:"event"`
			Data  proto.LastFour `json:"data"`
		}
		if err := wsjson.Read(ctx, display, &out); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("Received outbound: type=%s event=%s slots=%d\n", out.Type, out.Event, len(out.Data))
		if out.Event != proto.EventLastFour || len(out.Data) == 0 || out.Data[0] == nil {
			continue
		}
		head := out.Data[0]
		if string(head.Number) == *number && string(head.Desk) == *desk {
			fmt.Printf("Display shows %s at desk %s\n", head.Number, head.Desk)
			return nil
		}
	}
}

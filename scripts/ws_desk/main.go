package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/ticketboard-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_desk: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	desk := flag.String("desk", "1", "desk announced with each ticket")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	fmt.Printf("Connected to %s as desk %s\n", *addr, *desk)
	fmt.Println("Type a ticket number and press Enter to call it. \"number desk\" overrides the desk. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, *desk)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

type outbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var out outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		if out.Type == proto.OutboundTypeError && out.Error != nil {
			fmt.Printf("error %s: %s\n", out.Error.Code, out.Error.Msg)
			continue
		}

		switch out.Event {
		case proto.EventLastFour:
			var slots proto.LastFour
			if err := json.Unmarshal(out.Data, &slots); err != nil {
				log.Printf("unmarshal last-four: %v", err)
				continue
			}
			fmt.Println(renderBoard(slots))
		default:
			fmt.Printf("event=%s data=%s\n", out.Event, string(out.Data))
		}
	}
}

func renderBoard(slots proto.LastFour) string {
	parts := make([]string, 0, len(slots))
	for _, s := range slots {
		if s == nil {
			parts = append(parts, "--")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s@%s", s.Number, s.Desk))
	}
	return "board: " + strings.Join(parts, " | ")
}

func writeLoop(ctx context.Context, conn *websocket.Conn, desk string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}
			target := desk
			if len(fields) > 1 {
				target = fields[1]
			}

			payload, err := json.Marshal(proto.AssignData{
				Number: proto.Identifier(fields[0]),
				Desk:   proto.Identifier(target),
			})
			if err != nil {
				log.Printf("marshal assign: %v", err)
				return
			}
			if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeAssign, Data: payload}); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}

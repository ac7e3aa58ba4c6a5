package http

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ticketboard-server/internal/config"
	"github.com/vovakirdan/ticketboard-server/internal/core"
	"github.com/vovakirdan/ticketboard-server/internal/proto"
	"github.com/vovakirdan/ticketboard-server/internal/service/tickets"
)

type testEnv struct {
	ts   *httptest.Server
	hub  *core.Hub
	desk *tickets.Service
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	cfg.InboundRatePerSecond = 0
	return cfg
}

func startTestServer(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()

	disabledLogger := zerolog.New(nil)

	hub := core.NewHub(
		core.WithCapacity(cfg.WindowCapacity),
		core.WithSnapshotOnConnect(cfg.PushSnapshotOnConnect),
	)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	desk := tickets.New(hub)
	server := NewServer(hub, desk, &cfg, &disabledLogger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})

	return &testEnv{ts: ts, hub: hub, desk: desk}
}

func (e *testEnv) dial(t *testing.T, ctx context.Context) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(e.ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func (e *testEnv) post(t *testing.T, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(stdhttp.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	e.ts.Config.Handler.ServeHTTP(resp, req)
	return resp
}

type rawOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func readOutbound(t *testing.T, ctx context.Context, conn *websocket.Conn) rawOutbound {
	t.Helper()

	var out rawOutbound
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	return out
}

func readLastFour(t *testing.T, ctx context.Context, conn *websocket.Conn) proto.LastFour {
	t.Helper()

	out := readOutbound(t, ctx, conn)
	if out.Type != proto.OutboundTypeEvent || out.Event != proto.EventLastFour {
		t.Fatalf("expected last-four event, got %+v", out)
	}
	var slots proto.LastFour
	if err := json.Unmarshal(out.Data, &slots); err != nil {
		t.Fatalf("unmarshal slots: %v", err)
	}
	return slots
}

func sendInbound(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	var payload json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			t.Fatalf("marshal inbound: %v", err)
		}
		payload = b
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("send %s: %v", typ, err)
	}
}

func assertSlot(t *testing.T, slots proto.LastFour, i int, number, desk string) {
	t.Helper()

	if i >= len(slots) || slots[i] == nil {
		t.Fatalf("slot %d empty, want %s@%s (slots=%v)", i, number, desk, slots)
	}
	if string(slots[i].Number) != number || string(slots[i].Desk) != desk {
		t.Fatalf("slot %d = %s@%s, want %s@%s", i, slots[i].Number, slots[i].Desk, number, desk)
	}
}

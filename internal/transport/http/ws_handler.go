package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"net/url"
	"slices"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ticketboard-server/internal/config"
	"github.com/vovakirdan/ticketboard-server/internal/core"
	"github.com/vovakirdan/ticketboard-server/internal/proto"
)

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub          Hub
	log          *zerolog.Logger
	readLimit    int64
	clientBuffer int
	ratePerSec   float64
	burst        int
	accept       *websocket.AcceptOptions
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub Hub, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	accept := &websocket.AcceptOptions{}
	if len(cfg.AllowedOrigins) == 0 || slices.Contains(cfg.AllowedOrigins, "*") {
		accept.InsecureSkipVerify = true
	} else {
		accept.OriginPatterns = originHosts(cfg.AllowedOrigins)
	}

	return &WSHandler{
		hub:          hub,
		log:          logger,
		readLimit:    cfg.MaxMessageBytes,
		clientBuffer: cfg.ClientBuffer,
		ratePerSec:   cfg.InboundRatePerSecond,
		burst:        cfg.InboundBurst,
		accept:       accept,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, h.accept)
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.readLimit > 0 {
		conn.SetReadLimit(h.readLimit)
	}

	client := core.NewClient(uuid.NewString(), h.clientBuffer)
	h.hub.RegisterClient(client)
	defer h.hub.UnregisterClient(client)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("session_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// readLoop turns inbound messages into hub calls. Rejections are queued
// on the client so that only writeLoop writes to the connection.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.ratePerSec, h.burst)

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			h.log.Debug().Err(err).Str("session_id", client.ID).Msg("read ws inbound")
			return err
		}

		if !limiter.allow() {
			h.reject(client, &core.CoreError{Code: core.ErrCodeRateLimited, Message: "too many messages"})
			continue
		}

		if err := h.dispatch(ctx, client, inbound); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			h.reject(client, err)
		}
	}
}

func (h *WSHandler) dispatch(ctx context.Context, client *core.Client, inbound proto.Inbound) error {
	switch inbound.Type {
	case proto.InboundTypeAssign:
		var data proto.AssignData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return &core.CoreError{Code: core.ErrCodeBadRequest, Message: "invalid assign payload"}
		}
		_, err := h.hub.Assign(ctx, assignmentFromWire(data))
		return err
	case proto.InboundTypeSnapshot:
		return h.hub.Resend(ctx, client)
	default:
		return &core.CoreError{Code: core.ErrCodeInvalidMessage, Message: "unknown message type"}
	}
}

func (h *WSHandler) reject(client *core.Client, err error) {
	h.log.Debug().Err(err).Str("session_id", client.ID).Msg("inbound rejected")
	if sendErr := client.Send(core.ErrorEvent(err)); sendErr != nil {
		h.log.Warn().Err(sendErr).Str("session_id", client.ID).Msg("error reply dropped")
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("session_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// originHosts reduces origins to the host patterns AcceptOptions expects.
func originHosts(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
		}
	}
	return out
}

package host

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/endedge/chatglue/internal/plugin"
)

const (
	gatewayWriteTimeout   = 5 * time.Second
	gatewayReconnectDelay = 3 * time.Second
)

// Handler consumes message events; plugin.Service satisfies it.
type Handler interface {
	HandleMessage(ctx context.Context, ev plugin.Event) (*plugin.Reply, bool)
}

// Gateway maintains the websocket connection to the chat host, dispatches
// inbound message events to the handler, and writes the reply frames back.
type Gateway struct {
	url     string
	token   string
	handler Handler
	dialer  websocket.Dialer

	writeMu sync.Mutex
}

func NewGateway(url, token string, handler Handler) *Gateway {
	return &Gateway{
		url:     strings.TrimSpace(url),
		token:   strings.TrimSpace(token),
		handler: handler,
		dialer: websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Run connects and serves until ctx is cancelled, redialing after transport
// failures. It returns nil on cancellation.
func (g *Gateway) Run(ctx context.Context) error {
	if g.url == "" {
		return fmt.Errorf("host gateway url is empty")
	}

	for {
		if err := g.serveOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("host gateway: connection lost: %v (reconnecting in %s)", err, gatewayReconnectDelay)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(gatewayReconnectDelay):
		}
	}
}

func (g *Gateway) serveOnce(ctx context.Context) error {
	header := http.Header{}
	if g.token != "" {
		header.Set("Authorization", "Bearer "+g.token)
	}

	conn, _, err := g.dialer.DialContext(ctx, g.url, header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", g.url, err)
	}
	defer conn.Close()
	log.Printf("host gateway: connected to %s", g.url)

	// Unblock the read loop when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		// Each event runs on its own goroutine so one slow provider call
		// cannot head-of-line block other conversations; writeMu serializes
		// the reply frames.
		go g.dispatch(ctx, conn, raw)
	}
}

// dispatch handles one inbound frame. Frame-level failures are logged and
// skipped so one bad payload never tears down the connection.
func (g *Gateway) dispatch(ctx context.Context, conn *websocket.Conn, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("host gateway: undecodable frame: %v", err)
		return
	}

	switch env.Type {
	case TypeMessageEvent:
		var frame MessageEventFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			log.Printf("host gateway: bad message event: %v", err)
			return
		}

		reply, handled := g.handler.HandleMessage(ctx, plugin.Event{
			Origin:         frame.Origin,
			ConversationID: frame.ConversationID,
			Sender:         frame.Sender,
			Parts:          frame.Parts,
			PlainText:      frame.PlainText,
		})

		out := ReplyFrame{
			Type:    TypeReply,
			EventID: frame.EventID,
			Handled: handled,
		}
		if reply != nil {
			out.Text = reply.Text
			out.SourceAgent = reply.SourceAgent
		}
		if err := g.writeFrame(conn, out); err != nil {
			log.Printf("host gateway: write reply for event %s: %v", frame.EventID, err)
		}
	default:
		log.Printf("host gateway: ignoring frame type %q", env.Type)
	}
}

func (g *Gateway) writeFrame(conn *websocket.Conn, v any) error {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(gatewayWriteTimeout))
	return conn.WriteJSON(v)
}

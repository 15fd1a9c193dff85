package simgw

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	drepo "BioWatch/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Client implements a TelemetryStream backed by the simulator gateway
// WebSocket. The gateway bridges the simulator's broker, so subscriptions
// use the broker topic path for the configured stream.
type Client struct {
	websocketURL   string
	topic          string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// New creates a new simulator gateway TelemetryStream.
func New(websocketURL, stream string, reconnectDelay, pingInterval time.Duration) drepo.TelemetryStream {
	return &Client{
		websocketURL:   websocketURL,
		topic:          fmt.Sprintf("bioreactor_sim/%s/telemetry/summary", stream),
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("simgw connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("simgw: connected")
	return nil
}

// Subscribe subscribes to the configured telemetry topic.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("simgw not connected")
	}
	msg := map[string]string{"type": "subscribe", "topic": c.topic}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe %s: %w", c.topic, err)
	}
	log.Printf("simgw: subscribed %s", c.topic)
	return nil
}

type gwFrame struct {
	Type    string          `json:"type"`
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// Read streams raw telemetry bodies and errors.
func (c *Client) Read(ctx context.Context) (<-chan []byte, <-chan error) {
	bodies := make(chan []byte, 1024)
	errs := make(chan error, 1)
	done := make(chan struct{})

	// ping loop, tied to this Read's lifetime so reconnects don't stack them
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(done)
		defer close(bodies)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("simgw conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("simgw read: %w", err)
					return
				}
				var f gwFrame
				if err := json.Unmarshal(b, &f); err != nil {
					// ignore non-JSON frames
					continue
				}
				if f.Type != "telemetry" || len(f.Payload) == 0 {
					continue
				}
				if f.Topic != "" && f.Topic != c.topic {
					continue
				}
				select {
				case bodies <- []byte(f.Payload):
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return bodies, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }

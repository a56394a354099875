// Package livefeed provides the WebSocket client for in-play match updates.
package livefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/goalform/internal/adjuster"
)

// Frame is one in-play update for a fixture.
type Frame struct {
	FixtureID string             `json:"fixture_id"`
	League    string             `json:"league"`
	HomeTeam  string             `json:"home_team"`
	AwayTeam  string             `json:"away_team"`
	Minute    int                `json:"minute"`
	Score     string             `json:"score"`
	Stats     adjuster.LiveStats `json:"stats"`
}

// FrameHandler is called for each frame received from the feed.
type FrameHandler func(frame Frame) error

// ReconnectConfig controls reconnection behavior
type ReconnectConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultReconnectConfig returns default reconnection configuration
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		MaxRetries:        10,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 1.5,
	}
}

// Client handles the WebSocket connection to the live match feed.
type Client struct {
	conn            *websocket.Conn
	feedURL         string
	token           string
	mu              sync.RWMutex
	isConnected     bool
	handlers        []FrameHandler
	reconnectConfig ReconnectConfig
	lastFrameTime   time.Time
	logger          *logrus.Logger
}

type subscribeMessage struct {
	Op       string   `json:"op"`
	Token    string   `json:"token,omitempty"`
	Fixtures []string `json:"fixtures,omitempty"`
}

// NewClient creates a new live feed client
func NewClient(feedURL, token string, log *logrus.Logger) *Client {
	return &Client{
		feedURL:         feedURL,
		token:           token,
		handlers:        make([]FrameHandler, 0),
		reconnectConfig: DefaultReconnectConfig(),
		logger:          log,
	}
}

// Connect establishes the WebSocket connection and starts the read loop
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isConnected {
		return fmt.Errorf("already connected")
	}

	c.logger.WithField("url", c.feedURL).Info("Connecting to live feed")

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.feedURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to live feed: %w", err)
	}

	c.conn = conn
	c.isConnected = true
	c.lastFrameTime = time.Now()

	c.logger.Info("Connected to live feed")

	// Start frame reading loop
	go c.readFrames()

	return nil
}

// ConnectWithRetry connects, backing off between attempts
func (c *Client) ConnectWithRetry(ctx context.Context) error {
	backoff := c.reconnectConfig.InitialBackoff

	var lastErr error
	for attempt := 0; attempt <= c.reconnectConfig.MaxRetries; attempt++ {
		if err := c.Connect(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}

		c.logger.WithError(lastErr).Warnf("Live feed connect attempt %d failed, retrying in %s", attempt+1, backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * c.reconnectConfig.BackoffMultiplier)
		if backoff > c.reconnectConfig.MaxBackoff {
			backoff = c.reconnectConfig.MaxBackoff
		}
	}

	return fmt.Errorf("live feed connection failed after %d attempts: %w", c.reconnectConfig.MaxRetries+1, lastErr)
}

// Subscribe subscribes to updates for specific fixture IDs. With no IDs the
// feed sends every in-play fixture.
func (c *Client) Subscribe(fixtureIDs []string) error {
	c.mu.RLock()
	if !c.isConnected || c.conn == nil {
		c.mu.RUnlock()
		return fmt.Errorf("not connected to live feed")
	}
	c.mu.RUnlock()

	c.logger.WithField("fixtures", len(fixtureIDs)).Info("Subscribing to live fixtures")
	return c.sendMessage(subscribeMessage{
		Op:       "subscribe",
		Token:    c.token,
		Fixtures: fixtureIDs,
	})
}

// AddHandler registers a frame handler
func (c *Client) AddHandler(handler FrameHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// readFrames reads frames from the WebSocket connection
func (c *Client) readFrames() {
	defer c.Close()

	for {
		var raw json.RawMessage
		err := c.conn.ReadJSON(&raw)
		if err != nil {
			c.logger.WithError(err).Warn("Error reading live frame")
			c.mu.Lock()
			c.isConnected = false
			c.mu.Unlock()
			return
		}

		c.mu.Lock()
		c.lastFrameTime = time.Now()
		c.mu.Unlock()

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.logger.WithError(err).Warn("Skipping malformed live frame")
			continue
		}
		if frame.FixtureID == "" {
			// Heartbeats and acks carry no fixture
			continue
		}

		c.mu.RLock()
		handlers := c.handlers
		c.mu.RUnlock()

		for _, handler := range handlers {
			if err := handler(frame); err != nil {
				c.logger.WithError(err).Warn("Frame handler error")
			}
		}
	}
}

// sendMessage sends a JSON message to the feed
func (c *Client) sendMessage(msg interface{}) error {
	c.mu.RLock()
	if !c.isConnected || c.conn == nil {
		c.mu.RUnlock()
		return fmt.Errorf("not connected")
	}
	conn := c.conn
	c.mu.RUnlock()

	return conn.WriteJSON(msg)
}

// IsConnected returns whether the feed is connected
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

// LastFrameTime returns the time of the last received frame
func (c *Client) LastFrameTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastFrameTime
}

// Ping sends a ping message to keep the connection alive
func (c *Client) Ping() error {
	return c.sendMessage(subscribeMessage{Op: "ping"})
}

// Close closes the feed connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	c.isConnected = false
	return c.conn.Close()
}

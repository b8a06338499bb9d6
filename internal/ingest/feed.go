// Package ingest receives live candidates from a detection backend over
// WebSocket. Each feed message carries one candidate row in the same column
// layout as a candidate file, plus the raw data file it belongs to.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"candpipe/internal/candfile"
	"candpipe/internal/domain"
	"candpipe/internal/observability"
)

// ErrBadEnvelope is returned when a feed message cannot be decoded.
var ErrBadEnvelope = errors.New("bad feed envelope")

// FeedConfig configures feed client behavior.
type FeedConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is the maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// ReadTimeout is the timeout for reading messages.
	ReadTimeout time.Duration
	// BufferSize is the capacity of the delivery channel.
	BufferSize int
}

// DefaultFeedConfig returns default feed configuration.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		BufferSize:        1024,
	}
}

// envelope is the wire format of one feed message.
type envelope struct {
	DataFile string `json:"data_file"`
	Row      string `json:"row"`
}

// FeedClient consumes a candidate feed over WebSocket and delivers decoded
// records on a channel. Undecodable messages are counted and skipped; a
// broken connection is redialed with exponential backoff.
type FeedClient struct {
	endpoint string
	config   FeedConfig

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	out  chan *domain.CandidateRecord
	done chan struct{}
	wg   sync.WaitGroup
}

// NewFeedClient connects to the endpoint and starts reading.
func NewFeedClient(ctx context.Context, endpoint string, config *FeedConfig) (*FeedClient, error) {
	cfg := DefaultFeedConfig()
	if config != nil {
		cfg = *config
	}

	c := &FeedClient{
		endpoint: endpoint,
		config:   cfg,
		out:      make(chan *domain.CandidateRecord, cfg.BufferSize),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	return c, nil
}

// Candidates returns the delivery channel. Closed when the client closes.
func (c *FeedClient) Candidates() <-chan *domain.CandidateRecord {
	return c.out
}

// connect establishes the WebSocket connection.
func (c *FeedClient) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// Close closes the connection and the delivery channel.
func (c *FeedClient) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	close(c.out)
	return nil
}

// readLoop reads messages, decodes them and delivers records until Close.
func (c *FeedClient) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			if !c.redial(&reconnectDelay) {
				return
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			log.Warn().Err(err).Str("endpoint", c.endpoint).Msg("feed read failed")
			c.connMu.Lock()
			c.conn.Close()
			c.conn = nil
			c.connMu.Unlock()
			continue
		}

		// Reset delay on successful read
		reconnectDelay = c.config.ReconnectDelay

		rec, err := decodeEnvelope(message)
		if err != nil {
			observability.DefaultMetrics.FeedDecodeErrors.Inc()
			log.Warn().Err(err).Msg("skipping undecodable feed message")
			continue
		}

		observability.DefaultMetrics.FeedCandidatesReceived.Inc()

		// Block until delivered; candidates are never dropped.
		select {
		case c.out <- rec:
		case <-c.done:
			return
		}
	}
}

// redial waits the backoff delay and reconnects. Returns false on shutdown.
func (c *FeedClient) redial(delay *time.Duration) bool {
	select {
	case <-c.done:
		return false
	case <-time.After(*delay):
	}

	*delay *= 2
	if *delay > c.config.MaxReconnectDelay {
		*delay = c.config.MaxReconnectDelay
	}

	observability.DefaultMetrics.FeedReconnects.Inc()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		log.Warn().Err(err).Str("endpoint", c.endpoint).Msg("feed reconnect failed")
		return true // retry on next iteration
	}

	log.Info().Str("endpoint", c.endpoint).Msg("feed reconnected")
	return true
}

// decodeEnvelope parses one feed message into a candidate record.
func decodeEnvelope(message []byte) (*domain.CandidateRecord, error) {
	var env envelope
	if err := json.Unmarshal(message, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	if env.DataFile == "" {
		return nil, fmt.Errorf("%w: missing data_file", ErrBadEnvelope)
	}

	rec, err := candfile.ParseRow(env.Row)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}

	rec.SourceDataFile = env.DataFile
	return rec, nil
}

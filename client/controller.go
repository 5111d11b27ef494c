package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"bell-registry/domain/event"
)

type State string

const (
	StateDisconnected State = "DISCONNECTED"
	StateConnecting   State = "CONNECTING"
	StateConnected    State = "CONNECTED"
	// StateHalted means the retry budget is spent; only ForceReconnect
	// resumes the loop.
	StateHalted State = "HALTED"
)

const (
	defaultMaxAttempts = 10
	defaultBaseDelay   = time.Second
	defaultMaxDelay    = 30 * time.Second
)

// Handler receives every stream event except the transport-internal
// "connected" and "heartbeat" types, which the controller consumes.
type Handler func(e event.StreamEvent)

type Options struct {
	Log       *slog.Logger
	StreamURL string
	// Token authenticates the stream request as a bearer token.
	Token      string
	HTTPClient *http.Client

	// Zero values fall back to 10 attempts, 1s base and 30s cap.
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Controller maintains one live event stream and reconnects with
// exponential backoff when it drops. Several consumers share the single
// transport by registering independent handlers under distinct keys;
// re-registering a key replaces the previous handler instead of stacking a
// duplicate.
type Controller struct {
	log         *slog.Logger
	streamURL   string
	token       string
	httpClient  *http.Client
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration

	mu           sync.Mutex
	handlers     map[string]Handler
	state        State
	attempts     int
	connectionID string
	closed       bool
	cancel       context.CancelFunc

	retryNow  chan struct{}
	startOnce sync.Once
}

func New(opts Options) *Controller {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	c := &Controller{
		log:         log,
		streamURL:   opts.StreamURL,
		token:       opts.Token,
		httpClient:  httpClient,
		maxAttempts: opts.MaxAttempts,
		baseDelay:   opts.BaseDelay,
		maxDelay:    opts.MaxDelay,
		handlers:    make(map[string]Handler),
		state:       StateDisconnected,
		retryNow:    make(chan struct{}, 1),
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = defaultMaxAttempts
	}
	if c.baseDelay <= 0 {
		c.baseDelay = defaultBaseDelay
	}
	if c.maxDelay <= 0 {
		c.maxDelay = defaultMaxDelay
	}
	return c
}

// Subscribe registers a handler under key. Repeated mounts of the same
// consumer re-register the same key and end up with exactly one handler.
func (c *Controller) Subscribe(key string, handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.handlers[key] = handler
}

func (c *Controller) Unsubscribe(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, key)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ConnectionID returns the id carried by the last "connected" event, or ""
// while disconnected.
func (c *Controller) ConnectionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectionID
}

func (c *Controller) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// Start launches the connect loop in a background goroutine. Calling it
// again is a no-op: the transport is a singleton per controller.
func (c *Controller) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		c.mu.Lock()
		c.cancel = cancel
		c.mu.Unlock()
		go c.run(runCtx)
	})
}

// ForceReconnect resets the attempt counter and retries immediately,
// resuming a halted controller.
func (c *Controller) ForceReconnect() {
	c.mu.Lock()
	c.attempts = 0
	c.mu.Unlock()
	select {
	case c.retryNow <- struct{}{}:
	default:
	}
}

// Close is the logout teardown: it stops the loop, clears every handler
// and resets the counters. The controller cannot be restarted afterwards;
// a new login builds a new controller.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.handlers = make(map[string]Handler)
	c.attempts = 0
	c.connectionID = ""
	c.state = StateDisconnected
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Controller) run(ctx context.Context) {
	for {
		if ctx.Err() != nil || c.isClosed() {
			return
		}

		c.setState(StateConnecting)
		err := c.consumeStream(ctx)
		c.clearConnection()
		if ctx.Err() != nil || c.isClosed() {
			return
		}
		c.log.Debug("Stream dropped", "err", err)

		c.mu.Lock()
		attempts := c.attempts
		if attempts >= c.maxAttempts {
			c.state = StateHalted
			c.mu.Unlock()
			c.log.Warn("Reconnect attempts exhausted, waiting for manual retry")
			select {
			case <-ctx.Done():
				return
			case <-c.retryNow:
				continue
			}
		}
		delay := c.retryDelay(attempts)
		c.attempts = attempts + 1
		c.state = StateDisconnected
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-c.retryNow:
		case <-time.After(delay):
		}
	}
}

// retryDelay doubles from the base delay per past attempt, capped at the
// maximum: 1s, 2s, 4s, ... 30s with the defaults.
func (c *Controller) retryDelay(attempts int) time.Duration {
	delay := c.baseDelay
	for i := 0; i < attempts; i++ {
		delay *= 2
		if delay >= c.maxDelay {
			return c.maxDelay
		}
	}
	if delay > c.maxDelay {
		return c.maxDelay
	}
	return delay
}

// consumeStream opens the stream and blocks reading frames until the
// transport drops. A nil error only happens on a server-side EOF.
func (c *Controller) consumeStream(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.streamURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream refused: %s", resp.Status)
	}

	// The stream is open: consecutive-error accounting starts over.
	c.mu.Lock()
	c.state = StateConnected
	c.attempts = 0
	c.mu.Unlock()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		payload, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			// Blank frame separators and comment lines.
			continue
		}
		var e event.StreamEvent
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			c.log.Warn("Discarding malformed frame", "err", err)
			continue
		}
		c.dispatch(e)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return fmt.Errorf("stream ended")
}

// dispatch consumes transport events and forwards everything else to every
// registered handler.
func (c *Controller) dispatch(e event.StreamEvent) {
	switch e.Type {
	case event.TypeHeartbeat:
		return
	case event.TypeConnected:
		c.mu.Lock()
		if data, ok := e.Data.(map[string]any); ok {
			if id, ok := data["connectionId"].(string); ok {
				c.connectionID = id
			}
		}
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	handlers := make([]Handler, 0, len(c.handlers))
	for _, handler := range c.handlers {
		handlers = append(handlers, handler)
	}
	c.mu.Unlock()

	for _, handler := range handlers {
		handler(e)
	}
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) setState(state State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

func (c *Controller) clearConnection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connectionID = ""
	if c.state == StateConnected {
		c.state = StateDisconnected
	}
}

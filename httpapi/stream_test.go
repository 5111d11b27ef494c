package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bell-registry/domain"
	"bell-registry/domain/event"
)

func openStream(t *testing.T, serverURL, token string) (*http.Response, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		serverURL+"/api/messages/stream?token="+token, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp, cancel
}

func readFrame(t *testing.T, reader *bufio.Reader) event.StreamEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	frame := make(chan event.StreamEvent, 1)
	go func() {
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			payload, ok := strings.CutPrefix(strings.TrimRight(line, "\n"), "data: ")
			if !ok {
				continue
			}
			var e event.StreamEvent
			if json.Unmarshal([]byte(payload), &e) == nil {
				frame <- e
				return
			}
		}
	}()
	select {
	case e := <-frame:
		return e
	case <-deadline:
		t.Fatal("timed out waiting for a stream frame")
		return event.StreamEvent{}
	}
}

func TestStream_SendsConnectedEventAndHeartbeats(t *testing.T) {
	require := require.New(t)

	// Given a running server and an authenticated client using the token
	// query parameter, the way a browser EventSource has to
	fixture := newServerFixture(t)
	httpServer := httptest.NewServer(fixture.handler)
	defer httpServer.Close()
	token := fixture.tokenFor(t, "client-1", domain.RoleClient)

	// When opening the stream
	resp, cancel := openStream(t, httpServer.URL, token)
	defer cancel()
	defer resp.Body.Close()

	// Then the response is a non-buffered event stream
	require.Equal(http.StatusOK, resp.StatusCode)
	require.Equal("text/event-stream", resp.Header.Get("Content-Type"))
	require.Equal("no-cache", resp.Header.Get("Cache-Control"))
	require.Equal("no", resp.Header.Get("X-Accel-Buffering"))

	// And the first frame announces the connection id
	reader := bufio.NewReader(resp.Body)
	connected := readFrame(t, reader)
	require.Equal(event.TypeConnected, connected.Type)
	data, ok := connected.Data.(map[string]any)
	require.True(ok)
	require.NotEmpty(data["connectionId"])

	// And a heartbeat follows within the configured interval
	heartbeat := readFrame(t, reader)
	require.Equal(event.TypeHeartbeat, heartbeat.Type)
}

func TestStream_RegistersAndUnregistersTheConnection(t *testing.T) {
	require := require.New(t)

	// Given an open stream
	fixture := newServerFixture(t)
	httpServer := httptest.NewServer(fixture.handler)
	defer httpServer.Close()
	token := fixture.tokenFor(t, "client-1", domain.RoleClient)

	resp, cancel := openStream(t, httpServer.URL, token)
	defer resp.Body.Close()
	readFrame(t, bufio.NewReader(resp.Body))

	// Then the registry holds the connection while the stream lives
	require.Equal(1, fixture.registry.OpenConnections())

	// When the client disconnects
	cancel()

	// Then the registration is cleaned up
	require.Eventually(func() bool {
		return fixture.registry.OpenConnections() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStream_DeliversPublishedEvents(t *testing.T) {
	require := require.New(t)

	// Given an open stream past its connected frame
	fixture := newServerFixture(t)
	httpServer := httptest.NewServer(fixture.handler)
	defer httpServer.Close()
	token := fixture.tokenFor(t, "client-1", domain.RoleClient)

	resp, cancel := openStream(t, httpServer.URL, token)
	defer cancel()
	defer resp.Body.Close()
	reader := bufio.NewReader(resp.Body)
	readFrame(t, reader)

	// When a message event is pushed through the registered sink
	message := domain.Message{
		ID:             "msg-1",
		ConversationID: "conv-1",
		SenderID:       "pro-1",
		Content:        "hello",
		CreatedAt:      time.Now().UTC(),
	}
	sinks := fixture.registry.Sinks("client-1")
	require.Len(sinks, 1)
	require.NoError(sinks[0].Send(event.NewMessage(message)))

	// Then the client reads it as a stream frame
	var got event.StreamEvent
	for {
		got = readFrame(t, reader)
		if got.Type != event.TypeHeartbeat {
			break
		}
	}
	require.Equal(event.TypeNewMessage, got.Type)
	require.Equal("conv-1", got.ConversationID)
}

func TestStream_SinkRefusesWritesAfterDisconnect(t *testing.T) {
	require := require.New(t)

	// Given a fanout goroutine that snapshotted the sink while the stream
	// was still open
	fixture := newServerFixture(t)
	httpServer := httptest.NewServer(fixture.handler)
	defer httpServer.Close()
	token := fixture.tokenFor(t, "client-1", domain.RoleClient)

	resp, cancel := openStream(t, httpServer.URL, token)
	defer resp.Body.Close()
	readFrame(t, bufio.NewReader(resp.Body))

	sinks := fixture.registry.Sinks("client-1")
	require.Len(sinks, 1)
	sink := sinks[0]

	// When the client aborts and the handler finishes cleaning up
	cancel()
	require.Eventually(func() bool {
		return fixture.registry.OpenConnections() == 0
	}, 2*time.Second, 10*time.Millisecond)

	// Then a late Send fails cleanly instead of panicking on the
	// reclaimed ResponseWriter
	require.NotPanics(func() {
		err := sink.Send(event.Heartbeat(time.Now().UTC()))
		require.ErrorIs(err, errSinkClosed)
	})
}

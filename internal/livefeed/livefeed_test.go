package livefeed

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/goalform/internal/adjuster"
	"github.com/yourusername/goalform/internal/models"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// feedServer upgrades connections and sends each payload as one message.
func feedServer(t *testing.T, payloads []string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		for _, p := range payloads {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(p)))
		}

		// Hold the connection open until the client hangs up
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestClientReceivesFrames(t *testing.T) {
	server := feedServer(t, []string{
		`{"fixture_id":"f1","minute":30,"score":"1-0","stats":{"xg_home":1.2,"xg_away":0.3}}`,
	})
	defer server.Close()

	client := NewClient(wsURL(server), "", quietLogger())
	defer client.Close()

	frames := make(chan Frame, 1)
	client.AddHandler(func(frame Frame) error {
		frames <- frame
		return nil
	})

	require.NoError(t, client.Connect(context.Background()))
	assert.True(t, client.IsConnected())

	select {
	case frame := <-frames:
		assert.Equal(t, "f1", frame.FixtureID)
		assert.Equal(t, 30, frame.Minute)
		assert.Equal(t, "1-0", frame.Score)
		assert.InDelta(t, 1.2, frame.Stats.XGHome, 1e-9)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
}

func TestClientSkipsHeartbeats(t *testing.T) {
	server := feedServer(t, []string{
		`{"op":"heartbeat"}`,
		`{"fixture_id":"f2","minute":10,"score":"0-0"}`,
	})
	defer server.Close()

	client := NewClient(wsURL(server), "", quietLogger())
	defer client.Close()

	frames := make(chan Frame, 2)
	client.AddHandler(func(frame Frame) error {
		frames <- frame
		return nil
	})

	require.NoError(t, client.Connect(context.Background()))

	select {
	case frame := <-frames:
		// The heartbeat must not reach the handler
		assert.Equal(t, "f2", frame.FixtureID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
}

func TestClientDoubleConnect(t *testing.T) {
	server := feedServer(t, nil)
	defer server.Close()

	client := NewClient(wsURL(server), "", quietLogger())
	defer client.Close()

	require.NoError(t, client.Connect(context.Background()))
	assert.Error(t, client.Connect(context.Background()))
}

func TestMonitorAdjustsTrackedFixture(t *testing.T) {
	monitor := NewMonitor(adjuster.NewLiveAdjuster(quietLogger()), quietLogger())

	pre := models.OutcomeProbs{Home: 0.4, Draw: 0.3, Away: 0.3}
	monitor.Track("f1", pre)

	err := monitor.HandleFrame(Frame{
		FixtureID: "f1",
		Minute:    80,
		Score:     "2-0",
		Stats:     adjuster.LiveStats{XGHome: 2.1, XGAway: 0.4},
	})
	require.NoError(t, err)

	probs, ok := monitor.Current("f1")
	require.True(t, ok)
	// Leading 2-0 late on, home probability must have risen
	assert.Greater(t, probs.Home, pre.Home)
	assert.InDelta(t, 1.0, probs.Sum(), 1e-6)
}

func TestMonitorIgnoresUntracked(t *testing.T) {
	monitor := NewMonitor(adjuster.NewLiveAdjuster(quietLogger()), quietLogger())

	require.NoError(t, monitor.HandleFrame(Frame{FixtureID: "unknown", Minute: 10, Score: "0-0"}))

	_, ok := monitor.Current("unknown")
	assert.False(t, ok)
}

func TestMonitorFailSafeOnBadScore(t *testing.T) {
	monitor := NewMonitor(adjuster.NewLiveAdjuster(quietLogger()), quietLogger())

	pre := models.OutcomeProbs{Home: 0.4, Draw: 0.3, Away: 0.3}
	monitor.Track("f1", pre)

	require.NoError(t, monitor.HandleFrame(Frame{FixtureID: "f1", Minute: 50, Score: "N/A"}))

	probs, ok := monitor.Current("f1")
	require.True(t, ok)
	assert.Equal(t, pre, probs)
}

func TestMonitorUntrack(t *testing.T) {
	monitor := NewMonitor(adjuster.NewLiveAdjuster(quietLogger()), quietLogger())

	monitor.Track("f1", models.OutcomeProbs{Home: 0.4, Draw: 0.3, Away: 0.3})
	assert.Len(t, monitor.Tracked(), 1)

	monitor.Untrack("f1")
	assert.Empty(t, monitor.Tracked())
}

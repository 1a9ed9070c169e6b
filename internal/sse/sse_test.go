package sse

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cineza/cineza-server/internal/domain"
	domainerrors "github.com/cineza/cineza-server/internal/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	t.Cleanup(cancel)
	return m
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case evt := <-c.Events:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestManager_DeliversOnlyToRecipient(t *testing.T) {
	m := startManager(t)

	alice := m.Connect("usr-alice")
	bob := m.Connect("usr-bob")
	assert.Equal(t, 2, m.ClientCount())
	assert.True(t, strings.HasPrefix(alice.ID, "sse-"))

	m.PublishNotification(&domain.Notification{ID: "ntf-1", RecipientID: "usr-alice", Type: domain.NotificationNewFollower})

	evt := receive(t, alice)
	assert.Equal(t, EventNotificationCreated, evt.Type)

	select {
	case evt := <-bob.Events:
		t.Fatalf("bob received %s", evt.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManager_HeartbeatReachesEveryone(t *testing.T) {
	m := NewManager(testLogger())
	m.heartbeat = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	c := m.Connect("usr-1")
	assert.Equal(t, EventHeartbeat, receive(t, c).Type)
}

func TestManager_DisconnectAndShutdown(t *testing.T) {
	m := startManager(t)

	c := m.Connect("usr-1")
	m.Disconnect(c.ID)
	m.Disconnect(c.ID)
	assert.Equal(t, 0, m.ClientCount())

	select {
	case <-c.Done:
	default:
		t.Fatal("Done not closed on disconnect")
	}

	other := m.Connect("usr-2")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	require.NoError(t, m.Shutdown(ctx))

	select {
	case <-other.Done:
	case <-time.After(time.Second):
		t.Fatal("clients not closed on shutdown")
	}

	// Publishing after shutdown is a no-op.
	m.Publish(NewHeartbeatEvent())
}

func TestManager_ShutdownRightAfterStartDrains(t *testing.T) {
	m := NewManager(testLogger())
	c := m.Connect("usr-1")

	m.Start(context.Background())
	m.PublishNotification(&domain.Notification{ID: "ntf-1", RecipientID: "usr-1", Type: domain.NotificationNewFollower})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))

	// Shutdown returned after the loop finished, so both are already visible.
	select {
	case <-c.Done:
	default:
		t.Fatal("Shutdown returned before the broadcast loop drained")
	}
	select {
	case evt := <-c.Events:
		assert.Equal(t, EventNotificationCreated, evt.Type)
	default:
		t.Fatal("queued event was not delivered before shutdown")
	}
}

func TestHandler_StreamsNotifications(t *testing.T) {
	m := startManager(t)
	auth := func(token string) (string, error) {
		if token != "good" {
			return "", domainerrors.Unauthorized("bad token")
		}
		return "usr-alice", nil
	}
	srv := httptest.NewServer(NewHandler(m, auth, testLogger()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "?token=good")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	require.Eventually(t, func() bool { return m.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	m.PublishNotification(&domain.Notification{ID: "ntf-9", RecipientID: "usr-alice", Type: domain.NotificationReviewLike})

	found := false
	for range 10 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if line == "event: notification.created\n" {
			found = true
			data, err := reader.ReadString('\n')
			require.NoError(t, err)
			assert.Contains(t, data, `"ntf-9"`)
			break
		}
	}
	assert.True(t, found, "notification frame not received")
}

func TestHandler_RejectsMissingOrBadToken(t *testing.T) {
	m := startManager(t)
	auth := func(string) (string, error) { return "", domainerrors.Unauthorized("invalid or expired access token") }
	h := NewHandler(m, auth, testLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream?token=x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"UNAUTHORIZED"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/stream", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

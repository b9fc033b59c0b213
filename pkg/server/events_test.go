package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/flowboard/pkg/board"
)

func dialEvents(t *testing.T, s *Server) (*httptest.Server, *websocket.Conn) {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/board/events"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return s.hub.len() == 1 }, time.Second, 5*time.Millisecond)
	return ts, conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestEventsPushChanges(t *testing.T) {
	s := newTestServer(t, nil)
	ts, conn := dialEvents(t, s)

	resp, err := http.Post(ts.URL+"/api/board/instances/banner/front", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, Event{Type: "instances"}, readEvent(t, conn))

	s.board.Model().Streams().Append("photo", "x")
	assert.Equal(t, Event{Type: "streams"}, readEvent(t, conn))
}

func TestEventsSplitCategories(t *testing.T) {
	s := newTestServer(t, nil)
	_, conn := dialEvents(t, s)

	s.hub.broadcast(board.ChangeInstances | board.ChangeView)
	assert.Equal(t, "instances", readEvent(t, conn).Type)
	assert.Equal(t, "view", readEvent(t, conn).Type)
}

func TestEventsClientLeaves(t *testing.T) {
	s := newTestServer(t, nil)
	_, conn := dialEvents(t, s)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return s.hub.len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHubClosedRefusesClients(t *testing.T) {
	s := newTestServer(t, nil)
	s.hub.close()
	assert.False(t, s.hub.add(&client{id: "late", send: make(chan Event, 1)}))
}

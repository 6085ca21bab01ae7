package ws_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/IMICARUSS/PIXEL-NEXUS/internal/dependencies/clock"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/dependencies/random"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/services/presence"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/services/registry"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/storage/memory"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/testutil"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/ws"
)

type HandlerSuite struct {
	suite.Suite
	hub    *ws.Hub
	store  *memory.Storage
	server *httptest.Server
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := testutil.NopLogger()
	s.store = memory.New()

	registryController := registry.NewController(s.store, clock.New(), random.New(), logger)
	presenceController := presence.NewController(registryController, clock.New(), logger)

	s.hub = ws.NewHub(logger)
	go s.hub.Run()

	handler := ws.NewHandler(s.hub, presenceController, "*", logger)
	s.server = httptest.NewServer(handler)
}

func (s *HandlerSuite) TearDownTest() {
	s.server.Close()
	s.hub.Close()
}

func (s *HandlerSuite) dial() *websocket.Conn {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	return conn
}

type serverMsg struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (s *HandlerSuite) send(conn *websocket.Conn, msgType string, data any) {
	payload, err := json.Marshal(map[string]any{"type": msgType, "data": data})
	s.Require().NoError(err)
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, payload))
}

func (s *HandlerSuite) readMsg(conn *websocket.Conn) serverMsg {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, payload, err := conn.ReadMessage()
	s.Require().NoError(err)

	var msg serverMsg
	s.Require().NoError(json.Unmarshal(payload, &msg))
	return msg
}

func (s *HandlerSuite) expectNoMsg(conn *websocket.Conn) {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond)))
	_, payload, err := conn.ReadMessage()
	if err == nil {
		s.Failf("unexpected message", "received %s", payload)
	}
	require.True(s.T(), strings.Contains(err.Error(), "timeout") || websocket.IsUnexpectedCloseError(err),
		"expected read timeout, got %v", err)
}

func (s *HandlerSuite) TestJoinReceivesSelfState() {
	conn := s.dial()
	defer func() { _ = conn.Close() }()

	s.send(conn, "join", map[string]any{"display_name": "Ada"})

	msg := s.readMsg(conn)
	s.Equal("self_state", msg.Type)

	var self struct {
		You struct {
			SessionID   string `json:"session_id"`
			DisplayName string `json:"display_name"`
		} `json:"you"`
		Peers []any `json:"peers"`
	}
	s.Require().NoError(json.Unmarshal(msg.Data, &self))
	s.True(strings.HasPrefix(self.You.SessionID, "sess_"))
	s.Equal("Ada", self.You.DisplayName)
	s.Empty(self.Peers)
}

func (s *HandlerSuite) TestSecondJoinerAnnouncedToFirst() {
	first := s.dial()
	defer func() { _ = first.Close() }()
	s.send(first, "join", map[string]any{"display_name": "Ada"})
	s.readMsg(first)

	second := s.dial()
	defer func() { _ = second.Close() }()
	s.send(second, "join", map[string]any{"display_name": "Grace"})

	selfState := s.readMsg(second)
	s.Equal("self_state", selfState.Type)

	joined := s.readMsg(first)
	s.Equal("peer_joined", joined.Type)

	var peer struct {
		DisplayName string `json:"display_name"`
	}
	s.Require().NoError(json.Unmarshal(joined.Data, &peer))
	s.Equal("Grace", peer.DisplayName)
}

func (s *HandlerSuite) TestMovementBroadcastNotEchoed() {
	mover := s.dial()
	defer func() { _ = mover.Close() }()
	s.send(mover, "join", map[string]any{"display_name": "Ada"})
	s.readMsg(mover)

	observer := s.dial()
	defer func() { _ = observer.Close() }()
	s.send(observer, "join", map[string]any{"display_name": "Grace"})
	s.readMsg(observer)
	s.readMsg(mover) // peer_joined for Grace

	s.send(mover, "move", map[string]any{
		"position": map[string]float64{"x": 250, "y": 180},
		"rotation": 1.2,
	})

	update := s.readMsg(observer)
	s.Equal("peer_updated", update.Type)

	var state struct {
		Position struct {
			X float64 `json:"x"`
		} `json:"position"`
	}
	s.Require().NoError(json.Unmarshal(update.Data, &state))
	s.Equal(250.0, state.Position.X)

	// The mover must not receive its own movement back
	s.expectNoMsg(mover)
}

func (s *HandlerSuite) TestDisconnectBroadcastsPeerLeft() {
	leaver := s.dial()
	s.send(leaver, "join", map[string]any{"display_name": "Ada"})
	selfState := s.readMsg(leaver)

	var self struct {
		You struct {
			SessionID string `json:"session_id"`
		} `json:"you"`
	}
	s.Require().NoError(json.Unmarshal(selfState.Data, &self))

	observer := s.dial()
	defer func() { _ = observer.Close() }()
	s.send(observer, "join", map[string]any{"display_name": "Grace"})
	s.readMsg(observer)
	s.readMsg(leaver)

	s.Require().NoError(leaver.Close())

	left := s.readMsg(observer)
	s.Equal("peer_left", left.Type)

	var payload struct {
		SessionID string `json:"session_id"`
	}
	s.Require().NoError(json.Unmarshal(left.Data, &payload))
	s.Equal(self.You.SessionID, payload.SessionID)
}

func (s *HandlerSuite) TestMalformedMessageIsDroppedConnectionStaysOpen() {
	conn := s.dial()
	defer func() { _ = conn.Close() }()

	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	// Connection still works; a join goes through
	s.send(conn, "join", map[string]any{"display_name": "Ada"})
	msg := s.readMsg(conn)
	s.Equal("self_state", msg.Type)
}

func (s *HandlerSuite) TestPeerEventsWithheldUntilJoin() {
	watcher := s.dial()
	defer func() { _ = watcher.Close() }()

	joiner := s.dial()
	defer func() { _ = joiner.Close() }()
	s.send(joiner, "join", map[string]any{"display_name": "Ada"})
	s.readMsg(joiner)

	// The watcher has not joined, so Ada's arrival is not announced to it
	s.expectNoMsg(watcher)

	// Once the watcher joins it takes part in the fanout
	s.send(watcher, "join", map[string]any{"display_name": "Grace"})
	s.readMsg(watcher) // self_state listing Ada

	joined := s.readMsg(joiner)
	s.Equal("peer_joined", joined.Type)

	s.send(joiner, "move", map[string]any{
		"position": map[string]float64{"x": 42, "y": 7},
	})
	update := s.readMsg(watcher)
	s.Equal("peer_updated", update.Type)
}

func (s *HandlerSuite) TestMovementBeforeJoinIsIgnored() {
	conn := s.dial()
	defer func() { _ = conn.Close() }()

	observer := s.dial()
	defer func() { _ = observer.Close() }()
	s.send(observer, "join", map[string]any{"display_name": "Grace"})
	s.readMsg(observer)

	s.send(conn, "move", map[string]any{
		"position": map[string]float64{"x": 1, "y": 2},
	})

	s.expectNoMsg(observer)
}

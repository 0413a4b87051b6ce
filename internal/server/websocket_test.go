package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jianghu-duel/duel-server-go/internal/config"
	apperrors "github.com/jianghu-duel/duel-server-go/internal/errors"
	"github.com/jianghu-duel/duel-server-go/internal/game/state"
	"github.com/jianghu-duel/duel-server-go/internal/match"
	"github.com/jianghu-duel/duel-server-go/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestHub(t *testing.T, mgr *match.Manager, cfg config.WebSocketConfig) string {
	t.Helper()
	hub := NewHub(cfg, mgr, zaptest.NewLogger(t))
	mgr.SetNotifier(hub)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketRejectsUnknownMatch(t *testing.T) {
	base := newTestHub(t, newTestManager(t), config.WebSocketConfig{})

	_, resp, err := websocket.DefaultDialer.Dial(base+"?match=nope", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(base, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	mgr := newTestManager(t)
	started := startMatch(t, mgr)
	base := newTestHub(t, mgr, config.WebSocketConfig{AllowedOrigins: []string{"https://duel.example"}})

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(base+"?match="+started.Match.ID, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWebSocketStreamsSnapshotAndUpdates(t *testing.T) {
	ctx := context.Background()
	mgr := newTestManager(t)
	started := startMatch(t, mgr)
	matchID := started.Match.ID
	conn := dial(t, newTestHub(t, mgr, config.WebSocketConfig{})+"?match="+matchID)

	snapshot := readMessage(t, conn)
	assert.Equal(t, MessageSnapshot, snapshot.Type)
	assert.Equal(t, matchID, snapshot.MatchID)
	assert.Equal(t, started.State.Version, snapshot.Version)
	assert.Equal(t, started.Checksum, snapshot.Checksum)
	require.NotNil(t, snapshot.State)

	passed, err := mgr.PassTurn(ctx, matchID, "alice")
	require.NoError(t, err)

	update := readMessage(t, conn)
	assert.Equal(t, MessageUpdate, update.Type)
	assert.Equal(t, passed.State.Version, update.Version)
	assert.Equal(t, passed.Checksum, update.Checksum)
	require.NotEmpty(t, update.Events)
	assert.Equal(t, state.EventEndTurn, update.Events[0].Type)
	assert.NotEmpty(t, update.Patches)
}

func TestWebSocketAcceptsPlayerActions(t *testing.T) {
	mgr := newTestManager(t)
	started := startMatch(t, mgr)
	conn := dial(t, newTestHub(t, mgr, config.WebSocketConfig{})+"?match="+started.Match.ID)
	_ = readMessage(t, conn)

	instanceID := started.State.Players[0].Hand[0].InstanceID
	require.NoError(t, conn.WriteJSON(WSMessage{Type: MessagePlayCard, UserID: "alice", InstanceID: instanceID}))
	played := readMessage(t, conn)
	assert.Equal(t, MessageUpdate, played.Type)
	assert.Equal(t, started.State.Version+1, played.Version)
	require.NotEmpty(t, played.Events)
	assert.Equal(t, state.EventPlayCard, played.Events[0].Type)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: MessagePassTurn, UserID: "bob"}))
	rejected := readMessage(t, conn)
	assert.Equal(t, MessageError, rejected.Type)
	assert.Equal(t, string(apperrors.CodeNotYourTurn), rejected.Code)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "surrender", UserID: "bob"}))
	unknown := readMessage(t, conn)
	assert.Equal(t, MessageError, unknown.Type)
	assert.Equal(t, string(apperrors.CodeInvalidArgument), unknown.Code)
}

// interleavingStore runs hook right after the n-th Load following arm.
type interleavingStore struct {
	repository.MatchStore
	mu    sync.Mutex
	loads int
	n     int
	hook  func()
}

func (s *interleavingStore) arm(n int, hook func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads, s.n, s.hook = 0, n, hook
}

func (s *interleavingStore) Load(ctx context.Context, id string) (*repository.Match, error) {
	m, err := s.MatchStore.Load(ctx, id)

	s.mu.Lock()
	var hook func()
	if s.hook != nil {
		s.loads++
		if s.loads == s.n {
			hook, s.hook = s.hook, nil
		}
	}
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return m, err
}

func TestWebSocketSnapshotRacingACommitSkipsNoVersion(t *testing.T) {
	// Load 1 is the existence check before the upgrade, load 2 the hub's
	// snapshot read.
	for _, n := range []int{1, 2} {
		t.Run("commit after load "+strconv.Itoa(n), func(t *testing.T) {
			ctx := context.Background()
			store := &interleavingStore{MatchStore: repository.NewMemoryStore()}
			mgr := newTestManagerWithStore(t, store)
			started := startMatch(t, mgr)
			matchID := started.Match.ID
			base := newTestHub(t, mgr, config.WebSocketConfig{})

			store.arm(n, func() {
				_, err := mgr.PassTurn(ctx, matchID, "alice")
				assert.NoError(t, err)
			})
			conn := dial(t, base+"?match="+matchID)

			snapshot := readMessage(t, conn)
			require.Equal(t, MessageSnapshot, snapshot.Type)

			final, err := mgr.PassTurn(ctx, matchID, "bob")
			require.NoError(t, err)
			require.Equal(t, started.State.Version+2, final.State.Version)

			last := snapshot.Version
			for last < final.State.Version {
				update := readMessage(t, conn)
				require.Equal(t, MessageUpdate, update.Type)
				require.Equal(t, last+1, update.Version)
				last = update.Version
			}
		})
	}
}

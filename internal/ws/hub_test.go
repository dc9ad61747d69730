package ws

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpanel/internal/domain"
	"taskpanel/internal/events"
	"taskpanel/internal/platform/jsonfile"
	"taskpanel/internal/service"
	"taskpanel/internal/service/auth"
)

const testSecret = "ws-test-secret-that-is-32-chars-long!!!"

var (
	ownerPrincipal = domain.Principal{Username: "user1", Role: domain.RoleUser}
	otherPrincipal = domain.Principal{Username: "user2", Role: domain.RoleUser}
)

type hubEnv struct {
	hub    *Hub
	svc    *service.TaskService
	bus    *events.Bus
	jwt    auth.JWTService
	server *httptest.Server
}

func newHubEnv(t *testing.T) *hubEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	users, err := jsonfile.OpenUserStore(filepath.Join(dir, "users.json"), []jsonfile.SeedAccount{
		{Username: "user1", HashedPassword: "$2a$10$user1hash", Role: domain.RoleUser},
		{Username: "user2", HashedPassword: "$2a$10$user2hash", Role: domain.RoleUser},
	}, logger)
	require.NoError(t, err)

	tasks, err := jsonfile.OpenTaskStore(filepath.Join(dir, "tasks.json"), logger)
	require.NoError(t, err)

	creds, err := jsonfile.NewCredentialStore(filepath.Join(dir, "cookies"), logger)
	require.NoError(t, err)

	jwtService, err := auth.NewJWTService(testSecret, time.Hour)
	require.NoError(t, err)

	bus := events.NewBus(logger)
	svc := service.NewTaskService(tasks, users, creds, bus, logger)
	hub := NewHub(bus, svc, jwtService, logger)

	server := httptest.NewServer(hub)
	t.Cleanup(server.Close)

	return &hubEnv{hub: hub, svc: svc, bus: bus, jwt: jwtService, server: server}
}

func (env *hubEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(env.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (env *hubEnv) tokenFor(t *testing.T, principal domain.Principal) string {
	t.Helper()

	token, err := env.jwt.GenerateToken(context.Background(), principal)
	require.NoError(t, err)
	return token
}

func (env *hubEnv) createTask(t *testing.T, owner domain.Principal) *domain.Task {
	t.Helper()

	task, err := env.svc.Create(context.Background(), owner, service.CreateTaskParams{
		Name:              "greeter",
		Config:            domain.TaskConfig{ThreadID: "t-100"},
		CredentialContent: "cookie-blob",
		Messages:          "hi\nbye",
	})
	require.NoError(t, err)
	return task
}

// wireFrame is the union of every server-to-client frame shape.
type wireFrame struct {
	Type      string           `json:"type"`
	SessionID string           `json:"sessionId"`
	Message   string           `json:"message"`
	TaskID    string           `json:"taskId"`
	Log       *domain.LogEntry `json:"log"`
	Task      *domain.Task     `json:"task"`
}

func readFrame(t *testing.T, conn *websocket.Conn) wireFrame {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame wireFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

// expectSilence asserts nothing arrives within the window.
func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var frame wireFrame
	err := conn.ReadJSON(&frame)
	require.Error(t, err, "expected no frame, got %+v", frame)
}

func authenticate(t *testing.T, env *hubEnv, conn *websocket.Conn, principal domain.Principal) {
	t.Helper()

	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":     "auth",
		"username": principal.Username,
		"token":    env.tokenFor(t, principal),
	}))
	frame := readFrame(t, conn)
	require.Equal(t, "auth_success", frame.Type)
	require.NotEmpty(t, frame.SessionID)
}

func subscribe(t *testing.T, conn *websocket.Conn, taskID string) wireFrame {
	t.Helper()

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "subscribe", "taskId": taskID}))
	return readFrame(t, conn)
}

func TestAuthFlow(t *testing.T) {
	env := newHubEnv(t)

	t.Run("valid token", func(t *testing.T) {
		conn := env.dial(t)
		authenticate(t, env, conn, ownerPrincipal)
	})

	t.Run("invalid token is rejected with an error frame", func(t *testing.T) {
		conn := env.dial(t)
		require.NoError(t, conn.WriteJSON(map[string]string{
			"type":     "auth",
			"username": "user1",
			"token":    "not-a-token",
		}))
		frame := readFrame(t, conn)
		assert.Equal(t, "error", frame.Type)
		assert.Equal(t, "Invalid token", frame.Message)

		// The connection survives the rejected frame.
		authenticate(t, env, conn, ownerPrincipal)
	})
}

func TestSubscribeDeliversSnapshot(t *testing.T) {
	env := newHubEnv(t)
	task := env.createTask(t, ownerPrincipal)

	conn := env.dial(t)
	authenticate(t, env, conn, ownerPrincipal)

	frame := subscribe(t, conn, task.ID)
	require.Equal(t, events.TypeTaskUpdate, frame.Type)
	assert.Equal(t, task.ID, frame.TaskID)
	require.NotNil(t, frame.Task)
	assert.Equal(t, domain.StatusStopped, frame.Task.Status)
	assert.Equal(t, []string{"hi", "bye"}, frame.Task.Messages)
}

func TestSubscribeRequiresAuthAndOwnership(t *testing.T) {
	env := newHubEnv(t)
	task := env.createTask(t, ownerPrincipal)

	t.Run("before auth", func(t *testing.T) {
		conn := env.dial(t)
		frame := subscribe(t, conn, task.ID)
		assert.Equal(t, "error", frame.Type)
		assert.Equal(t, "Authentication required", frame.Message)
	})

	t.Run("foreign task", func(t *testing.T) {
		conn := env.dial(t)
		authenticate(t, env, conn, otherPrincipal)
		frame := subscribe(t, conn, task.ID)
		assert.Equal(t, "error", frame.Type)
		assert.Equal(t, "Access denied", frame.Message)
	})

	t.Run("unknown task", func(t *testing.T) {
		conn := env.dial(t)
		authenticate(t, env, conn, ownerPrincipal)
		frame := subscribe(t, conn, "no-such-task")
		assert.Equal(t, "error", frame.Type)
		assert.Equal(t, "Task not found", frame.Message)
	})
}

func TestSubscribedConnectionReceivesEvents(t *testing.T) {
	env := newHubEnv(t)
	task := env.createTask(t, ownerPrincipal)
	other := env.createTask(t, ownerPrincipal)

	conn := env.dial(t)
	authenticate(t, env, conn, ownerPrincipal)
	snapshot := subscribe(t, conn, task.ID)
	require.Equal(t, events.TypeTaskUpdate, snapshot.Type)

	_, err := env.svc.Control(context.Background(), ownerPrincipal, task.ID, service.ActionStart)
	require.NoError(t, err)

	// Log first, then the snapshot reflecting the transition.
	frame := readFrame(t, conn)
	require.Equal(t, events.TypeLog, frame.Type)
	assert.Equal(t, task.ID, frame.TaskID)
	require.NotNil(t, frame.Log)
	assert.Equal(t, "Task started", frame.Log.Message)

	frame = readFrame(t, conn)
	require.Equal(t, events.TypeTaskUpdate, frame.Type)
	require.NotNil(t, frame.Task)
	assert.Equal(t, domain.StatusRunning, frame.Task.Status)

	// Activity on an unrelated task is not delivered here.
	_, err = env.svc.Control(context.Background(), ownerPrincipal, other.ID, service.ActionStart)
	require.NoError(t, err)
	expectSilence(t, conn)
}

func TestResubscribeMovesConnection(t *testing.T) {
	env := newHubEnv(t)
	first := env.createTask(t, ownerPrincipal)
	second := env.createTask(t, ownerPrincipal)

	conn := env.dial(t)
	authenticate(t, env, conn, ownerPrincipal)
	subscribe(t, conn, first.ID)
	frame := subscribe(t, conn, second.ID)
	assert.Equal(t, second.ID, frame.TaskID)

	// Events for the first task no longer reach this connection.
	_, err := env.svc.Control(context.Background(), ownerPrincipal, first.ID, service.ActionStart)
	require.NoError(t, err)
	expectSilence(t, conn)

	_, err = env.svc.Control(context.Background(), ownerPrincipal, second.ID, service.ActionStart)
	require.NoError(t, err)
	frame = readFrame(t, conn)
	assert.Equal(t, second.ID, frame.TaskID)
}

func TestDisconnectReleasesSubscription(t *testing.T) {
	env := newHubEnv(t)
	task := env.createTask(t, ownerPrincipal)

	conn := env.dial(t)
	authenticate(t, env, conn, ownerPrincipal)
	subscribe(t, conn, task.ID)
	require.Equal(t, 1, env.hub.ActiveConnections())

	conn.Close()

	require.Eventually(t, func() bool {
		return env.hub.ActiveConnections() == 0 && env.bus.SubscriberCount(task.ID) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMalformedFramesAreDropped(t *testing.T) {
	env := newHubEnv(t)

	conn := env.dial(t)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "mystery"}))
	expectSilence(t, conn)

	// Still usable afterwards.
	authenticate(t, env, conn, ownerPrincipal)
}

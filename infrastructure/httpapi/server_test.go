package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/ItsSkellyHer3/ChatIfy/infrastructure/storage"
	"github.com/ItsSkellyHer3/ChatIfy/infrastructure/ws"
	"github.com/ItsSkellyHer3/ChatIfy/repositories"
	"github.com/ItsSkellyHer3/ChatIfy/runtime"
	"github.com/ItsSkellyHer3/ChatIfy/services"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	users := repositories.NewUserRepository(db)
	channels := repositories.NewChannelRepository(db)
	messages := repositories.NewMessageRepository(db)
	require.NoError(t, repositories.SeedShowcase(channels, users, messages, log))

	registry := runtime.NewRegistry(log)
	broadcaster := runtime.NewBroadcaster(registry, log)
	service := services.NewChatService(log, registry, broadcaster, users, channels, messages,
		2*time.Minute, 50, 100)

	artifacts, err := storage.NewFileArtifactStore(t.TempDir(), log)
	require.NoError(t, err)

	return NewServer(NewHandler(service, artifacts, log), ws.NewHandler(service, 8, log))
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "online", body["status"])
}

func TestCORSHeadersPresent(t *testing.T) {
	app := newTestApp(t)

	request := httptest.NewRequest(http.MethodGet, "/health", nil)
	request.Header.Set("Origin", "http://localhost:5173")
	resp, err := app.Test(request)
	require.NoError(t, err)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestGuestLifecycle(t *testing.T) {
	req := require.New(t)
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/guest", GuestRequest{Username: "Visitor"})
	req.Equal(http.StatusOK, resp.StatusCode)
	user := body["user"].(map[string]any)
	req.Equal("Visitor", user["name"])
	req.NotEmpty(user["uid"])

	uid := user["uid"].(string)
	resp, body = doJSON(t, app, http.MethodPatch, "/users/"+uid, ProfileRequest{Username: "Renamed"})
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("Renamed", body["name"])

	resp, _ = doJSON(t, app, http.MethodPatch, "/users/nope", ProfileRequest{Username: "X"})
	req.Equal(http.StatusNotFound, resp.StatusCode)
}

func TestGuestRejectsMissingUsername(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/guest", map[string]string{"avatar": "http://a/x"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSeededChannelsAndHistory(t *testing.T) {
	req := require.New(t)
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/channels", nil))
	req.NoError(err)
	req.Equal(http.StatusOK, resp.StatusCode)
	var channels []map[string]any
	req.NoError(json.NewDecoder(resp.Body).Decode(&channels))
	req.Len(channels, 3)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/messages/general", nil))
	req.NoError(err)
	var history []map[string]any
	req.NoError(json.NewDecoder(resp.Body).Decode(&history))
	req.Len(history, 2)
	// Reactions must serialize as an object even when empty.
	req.NotNil(history[0]["reactions"])
}

func TestDeleteMessageAuthorization(t *testing.T) {
	req := require.New(t)
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/messages/general", nil))
	req.NoError(err)
	var history []map[string]any
	req.NoError(json.NewDecoder(resp.Body).Decode(&history))
	mid := history[0]["id"].(string)
	author := history[0]["uid"].(string)

	resp, _ = doJSON(t, app, http.MethodDelete, "/messages/"+mid+"?uid=intruder", nil)
	req.Equal(http.StatusForbidden, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodDelete, "/messages/"+mid+"?uid="+author, nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("success", body["status"])

	resp, _ = doJSON(t, app, http.MethodDelete, "/messages/"+mid+"?uid="+author, nil)
	req.Equal(http.StatusNotFound, resp.StatusCode)
}

func TestUploadAndServe(t *testing.T) {
	req := require.New(t)
	app := newTestApp(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "note.txt")
	req.NoError(err)
	_, err = part.Write([]byte("hello upload"))
	req.NoError(err)
	req.NoError(mw.Close())

	request := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	request.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := app.Test(request)
	req.NoError(err)
	req.Equal(http.StatusOK, resp.StatusCode)

	var body map[string]any
	req.NoError(json.NewDecoder(resp.Body).Decode(&body))
	req.Equal("note.txt", body["filename"])
	url := body["url"].(string)
	req.True(strings.HasPrefix(url, "/uploads/"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, url, nil))
	req.NoError(err)
	req.Equal(http.StatusOK, resp.StatusCode)
	served, err := io.ReadAll(resp.Body)
	req.NoError(err)
	req.Equal("hello upload", string(served))
}

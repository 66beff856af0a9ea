package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"bizzy/internal/cache"
	"bizzy/internal/config"
	"bizzy/internal/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "server-test-secret-0123456789abcdef"

func testConfig() *config.Config {
	return &config.Config{
		Port:           "0",
		Env:            "test",
		AllowedOrigins: "http://localhost:3000",
		PublicBaseURL:  "http://localhost:8375",
		JWTSecret:      testSecret,
	}
}

// newTestServer wires a Server to in-memory SQLite and miniredis.
func newTestServer(t *testing.T, cfg *config.Config) (*Server, *fiber.App) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() { cache.SetClient(nil) })

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	if cfg == nil {
		cfg = testConfig()
	}
	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)
	return srv, srv.App()
}

// call sends a request with an optional JSON body and bearer token and
// returns the status and raw body.
func call(t *testing.T, app *fiber.App, method, path string, body any, token string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

// callJSON is call plus decoding of an object body.
func callJSON(t *testing.T, app *fiber.App, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()
	status, raw := call(t, app, method, path, body, token)
	var out map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return status, out
}

type testUser struct {
	ID       string
	Username string
	Token    string
}

// signUp registers an account through the API.
func signUp(t *testing.T, app *fiber.App, name, email, username string) testUser {
	t.Helper()
	status, body := callJSON(t, app, http.MethodPost, "/api/auth/signup", map[string]any{
		"name":     name,
		"email":    email,
		"password": "password123",
		"username": username,
	}, "")
	require.Equal(t, http.StatusCreated, status, body)

	user := body["user"].(map[string]any)
	return testUser{
		ID:       user["id"].(string),
		Username: user["username"].(string),
		Token:    body["token"].(string),
	}
}

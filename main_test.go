package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"webstudio/internal/config"
	"webstudio/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func testConfig(driver, dsn string) *config.Config {
	return &config.Config{
		AppPort:          ":0",
		StorageDriver:    driver,
		DatabaseDSN:      dsn,
		JWTSecret:        "test_jwt_secret",
		TokenDuration:    time.Hour,
		DeliveryLeadTime: 14 * 24 * time.Hour,
		AssetBaseURL:     "https://assets.example.com",
		RateLimits:       services.DefaultRateLimitRules(),
	}
}

func TestNewApp_HealthAndMetrics(t *testing.T) {
	app, err := NewApp(testConfig(config.StorageMemory, ""), prometheus.NewRegistry())
	require.NoError(t, err)
	defer app.Close()

	resp, err := app.Fiber.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var health map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "disabled", health["rabbitMQ"])
	assert.Equal(t, config.StorageMemory, health["storage"])

	resp, err = app.Fiber.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Contains(t, string(body), "webstudio_orders_created_total")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNewApp_RoutesAndProtection(t *testing.T) {
	app, err := NewApp(testConfig(config.StorageSQLite, "file:main_test?mode=memory&cache=shared"), prometheus.NewRegistry())
	require.NoError(t, err)
	defer app.Close()

	resp, err := app.Fiber.Test(httptest.NewRequest(http.MethodGet, "/api/v1/templates", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = app.Fiber.Test(httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp, err = app.Fiber.Test(httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	login, _ := json.Marshal(map[string]string{"email": "jane@example.com", "password": "pw"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(login))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Fiber.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var loginResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loginResp))
	resp.Body.Close()

	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)
	resp, err = app.Fiber.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestNewApp_RestoresPersistedSession(t *testing.T) {
	cfg := testConfig(config.StorageSQLite, "file:main_restore_test?mode=memory&cache=shared")

	first, err := NewApp(cfg, prometheus.NewRegistry())
	require.NoError(t, err)
	_, err = first.Auth.Login(t.Context(), "jane@example.com", "pw")
	require.NoError(t, err)

	// A second app over the same shared in-memory database picks the session up.
	second, err := NewApp(cfg, prometheus.NewRegistry())
	require.NoError(t, err)
	defer second.Close()
	defer first.Close()

	user, ok := second.Auth.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "jane@example.com", user.Email)
}

func TestNewApp_UnknownStorage(t *testing.T) {
	_, err := NewApp(testConfig("mongo", "x"), prometheus.NewRegistry())
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	cmd := rootCmd(viper.New())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "webstudio version "+Version+"\n", out.String())
}

func TestServeCommand_InvalidConfig(t *testing.T) {
	cmd := rootCmd(viper.New())
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"serve", "--storage", "mongo"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage driver")
}

func TestLogOrderEvent(t *testing.T) {
	body, err := json.Marshal(services.OrderEvent{
		Type:           services.EventOrderStatusChanged,
		OrderID:        "o-1",
		Status:         "in_progress",
		PreviousStatus: "deposit_paid",
	})
	require.NoError(t, err)

	assert.NoError(t, logOrderEvent(amqp.Delivery{Body: body}))
	assert.Error(t, logOrderEvent(amqp.Delivery{Body: []byte("not json")}))
}

package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/atmodecor/tally/internal/clock"
	commissionservice "github.com/atmodecor/tally/internal/commission/service"
	"github.com/atmodecor/tally/internal/config"
	sessiondomain "github.com/atmodecor/tally/internal/session/domain"
	"github.com/atmodecor/tally/internal/session/repository"
	sessionservice "github.com/atmodecor/tally/internal/session/service"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&sessiondomain.Session{},
		&sessiondomain.Order{},
		&sessiondomain.Archive{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()

	repo := repository.NewRepository(repository.RepositoryParam{DB: db, Log: log})
	calc := commissionservice.NewService(commissionservice.ServiceParam{Log: log})
	svc, err := sessionservice.NewService(sessionservice.ServiceParam{
		Log:        log,
		Repo:       repo,
		Calculator: calc,
		Clock:      clock.NewFakeClock(time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)),
		GenID:      node,
	})
	require.NoError(t, err)

	engine := NewEngine(log)
	srv := NewServer(ServerParams{
		Gin:        engine,
		Cfg:        config.Config{AppName: "tally", HTTPAddr: ":0"},
		SessionSvc: svc,
		Log:        log,
	})
	Register(srv)
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestGetSummary_NoSession(t *testing.T) {
	engine := newTestServer(t)

	w := doJSON(t, engine, http.MethodGet, "/v1/session", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Error.Type)
}

func TestStartDay_InvalidRoster(t *testing.T) {
	engine := newTestServer(t)

	w := doJSON(t, engine, http.MethodPost, "/v1/session", gin.H{
		"date":        "2025-11-03",
		"staff_count": 0,
		"staff_names": []string{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Error.Type)
}

func TestOrderFlow(t *testing.T) {
	engine := newTestServer(t)

	w := doJSON(t, engine, http.MethodPost, "/v1/session", gin.H{
		"date":        "2025-11-03",
		"staff_count": 2,
		"staff_names": []string{"Ploy", "Mint"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, engine, http.MethodPost, "/v1/orders", gin.H{
		"amount":      "30000",
		"description": "Standing flower stand",
		"time_of_day": "13:40",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var receipt sessiondomain.OrderReceipt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &receipt))
	assert.Equal(t, 1, receipt.Order.Seq)
	assert.Equal(t, "300", receipt.Order.CommissionBase.String())

	w = doJSON(t, engine, http.MethodGet, "/v1/session", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var summary sessiondomain.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, "30000", summary.CumulativeSales.String())
	assert.Equal(t, 1, summary.OrderCount)
}

func TestCreateOrderFromText(t *testing.T) {
	engine := newTestServer(t)

	w := doJSON(t, engine, http.MethodPost, "/v1/session", gin.H{
		"date":        "2025-11-03",
		"staff_count": 1,
		"staff_names": []string{"Ploy"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, engine, http.MethodPost, "/v1/orders/text", gin.H{
		"text": "พวงหรีด\n25000 บาท\n14:30",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var receipt sessiondomain.OrderReceipt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &receipt))
	assert.Equal(t, "25000", receipt.Order.Amount.String())
	assert.Equal(t, "14:30", receipt.Order.TimeOfDay)
	assert.Equal(t, "250", receipt.Order.CommissionBase.String())
}

func TestCreateOrderFromText_NoAmount(t *testing.T) {
	engine := newTestServer(t)

	w := doJSON(t, engine, http.MethodPost, "/v1/session", gin.H{
		"date":        "2025-11-03",
		"staff_count": 1,
		"staff_names": []string{"Ploy"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, engine, http.MethodPost, "/v1/orders/text", gin.H{
		"text": "พวงหรีดแบบพิเศษ",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Error.Type)
}

func TestResetSession(t *testing.T) {
	engine := newTestServer(t)

	w := doJSON(t, engine, http.MethodPost, "/v1/session", gin.H{
		"date":        "2025-11-03",
		"staff_count": 1,
		"staff_names": []string{"Ploy"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, engine, http.MethodPost, "/v1/orders", gin.H{
		"amount":      "12000",
		"description": "bouquet",
		"time_of_day": "11:00",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, engine, http.MethodPost, "/v1/session/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var summary sessiondomain.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, "12000", summary.CumulativeSales.String())

	w = doJSON(t, engine, http.MethodGet, "/v1/session", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	engine := newTestServer(t)

	w := doJSON(t, engine, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

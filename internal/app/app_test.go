package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bumpbot/internal/config"
	"bumpbot/internal/storage"
	"bumpbot/internal/storage/sqlite"
	"bumpbot/internal/storage/stubs"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{name: "json info", level: "info", format: "json"},
		{name: "console debug", level: "debug", format: "console"},
		{name: "empty format", level: "warn", format: ""},
		{name: "bad level", level: "loud", format: "json", wantErr: true},
		{name: "bad format", level: "info", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestNewLogger_Level(t *testing.T) {
	logger, err := NewLogger("warn", "json")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))
}

func TestOpenStorage(t *testing.T) {
	logger := zap.NewNop()

	t.Run("memory", func(t *testing.T) {
		db, err := openStorage(&config.Config{StorageDriver: config.DriverMemory}, logger)
		require.NoError(t, err)
		assert.IsType(t, &stubs.MockDB{}, db)
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "threads.db")
		db, err := openStorage(&config.Config{StorageDriver: config.DriverSQLite, DatabasePath: path}, logger)
		require.NoError(t, err)
		defer db.Close()
		assert.IsType(t, &sqlite.SQLiteDB{}, db)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := openStorage(&config.Config{StorageDriver: "mongo"}, logger)
		assert.ErrorIs(t, err, storage.ErrUnknownDriver)
	})
}

func TestRouter(t *testing.T) {
	updates := make(chan tgbotapi.Update, 1)
	router := newRouter("webhook", func(u tgbotapi.Update) { updates <- u }, zap.NewNop())

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
	})

	t.Run("root reports mode", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "mode: webhook")
	})

	t.Run("metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("webhook rejects GET", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/telegram-webhook", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("webhook rejects bad body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram-webhook", strings.NewReader("{")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("webhook dispatches update", func(t *testing.T) {
		body := `{"update_id": 7, "message": {"message_id": 1, "text": "hi", "chat": {"id": 5}}}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram-webhook", strings.NewReader(body)))
		assert.Equal(t, http.StatusOK, rec.Code)

		select {
		case u := <-updates:
			assert.Equal(t, 7, u.UpdateID)
			require.NotNil(t, u.Message)
			assert.Equal(t, "hi", u.Message.Text)
		case <-time.After(time.Second):
			t.Fatal("update was not dispatched")
		}
	})
}

func TestShutdownClosesStore(t *testing.T) {
	db := stubs.NewMockDB()
	require.NoError(t, db.Initialize(context.Background()))

	a := &App{
		logger: zap.NewNop(),
		db:     db,
		server: &http.Server{Addr: ":0"},
	}
	assert.NoError(t, a.Shutdown())
}

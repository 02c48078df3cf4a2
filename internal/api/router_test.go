package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"store-monitor-backend/internal/model"
	"store-monitor-backend/internal/snapshot"
	"store-monitor-backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestStore opens a test-scoped in-memory database with migrations run.
func newTestStore(t *testing.T) store.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Store{},
		&model.Device{},
		&model.Reading{},
		&model.Schedule{},
		&model.PushSubscription{},
	))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return store.NewGormStore(db)
}

// stubCapturer returns a fixed reading count per store.
type stubCapturer struct {
	perStore int
	err      error
}

func (s *stubCapturer) CaptureStore(ctx context.Context, st model.Store, runID string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.perStore, nil
}

// stubSyncer records the requested store and returns a canned result.
type stubSyncer struct {
	count       int
	err         error
	lastStoreID int64
}

func (s *stubSyncer) SyncDevices(ctx context.Context, storeID int64) (int, error) {
	s.lastStoreID = storeID
	if s.err != nil {
		return 0, s.err
	}
	return s.count, nil
}

func newTestRouter(t *testing.T, s store.Store, capturer snapshot.StoreCapturer, syncer DeviceSyncer) *gin.Engine {
	t.Helper()
	if capturer == nil {
		capturer = &stubCapturer{perStore: 1}
	}
	ctrl := snapshot.NewController(s, capturer)
	return NewRouter(s, ctrl, syncer, &webpush.Options{})
}

func doRequest(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

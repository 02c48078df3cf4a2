package notification

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"store-monitor-backend/internal/model"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

func okPushResponse() *http.Response {
	return &http.Response{
		StatusCode: http.StatusCreated,
		Body:       io.NopCloser(bytes.NewBufferString("")),
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Store{},
		&model.Device{},
		&model.PushSubscription{},
	))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

// seedAlarmFixture creates a store, a device in it, and a subscription
// watching the store. Returns the device's primary key.
func seedAlarmFixture(t *testing.T, db *gorm.DB, deviceName, endpoint string) int64 {
	t.Helper()

	st := model.Store{Name: "Downtown " + t.Name(), IsActive: true}
	require.NoError(t, db.Create(&st).Error)

	dev := model.Device{StoreID: st.ID, DeviceID: "dev-1", Token: "tok", Type: "LeakSensor", Name: deviceName}
	require.NoError(t, db.Create(&dev).Error)

	sub := model.PushSubscription{
		Endpoint: endpoint,
		P256DH:   "p256dh",
		Auth:     "auth",
		Stores:   []*model.Store{&st},
	}
	require.NoError(t, db.Create(&sub).Error)

	return dev.ID
}

func TestWorkerPool_Dispatch(t *testing.T) {
	wp := NewWorkerPool(1, newTestDB(t), &webpush.Options{})

	wp.Dispatch(123)

	select {
	case job := <-wp.jobs:
		assert.Equal(t, int64(123), job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_SendsAlarmNotification(t *testing.T) {
	db := newTestDB(t)
	deviceID := seedAlarmFixture(t, db, "Back room leak sensor", "https://example.com/push")

	wp := NewWorkerPool(1, db, &webpush.Options{})
	sent := 0
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			sent++
			assert.Equal(t, "https://example.com/push", sub.Endpoint)
			assert.Equal(t, "p256dh", sub.Keys.P256dh)
			assert.Contains(t, string(payload), "Alarm: Back room leak sensor at Downtown")
			return okPushResponse(), nil
		},
	}

	wp.sendAlarmForDevice(context.Background(), deviceID)
	assert.Equal(t, 1, sent)
}

func TestWorkerPool_FallsBackToVendorID(t *testing.T) {
	db := newTestDB(t)
	deviceID := seedAlarmFixture(t, db, "", "https://example.com/push")

	wp := NewWorkerPool(1, db, &webpush.Options{})
	var payloadSeen string
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			payloadSeen = string(payload)
			return okPushResponse(), nil
		},
	}

	wp.sendAlarmForDevice(context.Background(), deviceID)
	assert.Contains(t, payloadSeen, "Alarm: dev-1 at")
}

func TestWorkerPool_DeletesExpiredSubscription(t *testing.T) {
	db := newTestDB(t)
	deviceID := seedAlarmFixture(t, db, "Freezer sensor", "https://example.com/expired")

	wp := NewWorkerPool(1, db, &webpush.Options{})
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusGone,
				Body:       io.NopCloser(bytes.NewBufferString("")),
			}, nil
		},
	}

	wp.sendAlarmForDevice(context.Background(), deviceID)

	var count int64
	require.NoError(t, db.Model(&model.PushSubscription{}).Count(&count).Error)
	assert.EqualValues(t, 0, count, "a 410 response removes the subscription")
}

func TestWorkerPool_NoSubscribersSendsNothing(t *testing.T) {
	db := newTestDB(t)

	st := model.Store{Name: "Unwatched", IsActive: true}
	require.NoError(t, db.Create(&st).Error)
	dev := model.Device{StoreID: st.ID, DeviceID: "dev-2", Token: "tok", Type: "DoorSensor"}
	require.NoError(t, db.Create(&dev).Error)

	wp := NewWorkerPool(1, db, &webpush.Options{})
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			t.Fatal("no notification expected")
			return nil, nil
		},
	}

	wp.sendAlarmForDevice(context.Background(), dev.ID)
}

func TestWorkerPool_WorkerProcessesJobs(t *testing.T) {
	db := newTestDB(t)
	deviceID := seedAlarmFixture(t, db, "Door sensor", "https://example.com/worker")

	wp := NewWorkerPool(2, db, &webpush.Options{})
	var wg sync.WaitGroup
	wg.Add(1)
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			wg.Done()
			return okPushResponse(), nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(deviceID)
	wg.Wait()
}

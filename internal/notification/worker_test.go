package notification

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"line-monitor-backend/internal/model"
)

// mockSender is a mock implementation of the Sender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Stop{}, &model.PushSubscription{}))
	return db
}

func okResponse(status int) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(""))}
}

func TestWorkerPool_Dispatch(t *testing.T) {
	wp := NewWorkerPool(1, newTestDB(t), &webpush.Options{})

	wp.Dispatch(123)

	select {
	case job := <-wp.Jobs():
		assert.Equal(t, int64(123), job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_SendsAlertToAllSubscriptions(t *testing.T) {
	db := newTestDB(t)

	stop := model.Stop{Day: "2026-01-20", StartTime: "08:00:00", CauseCode: "MEC"}
	require.NoError(t, db.Create(&stop).Error)
	for i := 0; i < 2; i++ {
		sub := model.PushSubscription{
			Endpoint: fmt.Sprintf("https://example.com/push/%d", i),
			P256DH:   "test_p256dh",
			Auth:     "test_auth",
		}
		require.NoError(t, db.Create(&sub).Error)
	}

	var mu sync.Mutex
	var payloads []string
	done := make(chan struct{}, 2)

	wp := NewWorkerPool(1, db, &webpush.Options{})
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			mu.Lock()
			payloads = append(payloads, string(payload))
			mu.Unlock()
			done <- struct{}{}
			return okResponse(http.StatusCreated), nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(stop.ID)

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for notifications")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, payloads, 2)
	assert.Contains(t, payloads[0], "08:00:00")
	assert.Contains(t, payloads[0], "MEC")
}

func TestWorkerPool_PrunesExpiredSubscription(t *testing.T) {
	db := newTestDB(t)

	stop := model.Stop{Day: "2026-01-20", StartTime: "08:00:00", CauseCode: "MEC"}
	require.NoError(t, db.Create(&stop).Error)
	sub := model.PushSubscription{
		Endpoint: "https://example.com/push/expired",
		P256DH:   "test_p256dh",
		Auth:     "test_auth",
	}
	require.NoError(t, db.Create(&sub).Error)

	done := make(chan struct{}, 1)
	wp := NewWorkerPool(1, db, &webpush.Options{})
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			done <- struct{}{}
			return okResponse(http.StatusGone), nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(stop.ID)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}

	assert.Eventually(t, func() bool {
		var count int64
		db.Model(&model.PushSubscription{}).Count(&count)
		return count == 0
	}, 2*time.Second, 50*time.Millisecond, "expired subscription should be deleted")
}

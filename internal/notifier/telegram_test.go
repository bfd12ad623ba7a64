package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_PostsToChat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "", nil)
	tn.APIBase = srv.URL

	require.NoError(t, tn.Send(context.Background(), "hello"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
}

func TestSendWithRetry_RecoversAfterFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "", nil)
	tn.APIBase = srv.URL

	require.NoError(t, tn.SendWithRetry(context.Background(), "hi", 2))
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestSendWithRetry_StopsOnContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "", nil)
	tn.APIBase = srv.URL

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := tn.SendWithRetry(ctx, "hi", 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStartPolling_RepliesToCommands(t *testing.T) {
	var sent atomic.Value
	var polled int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			if atomic.AddInt32(&polled, 1) == 1 {
				w.Write([]byte(`{"ok":true,"result":[
					{"update_id":5,"message":{"text":"/live","chat":{"id":42}}},
					{"update_id":6,"message":{"text":"/live","chat":{"id":99}}}
				]}`))
				return
			}
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			w.Write([]byte(`{"ok":true,"result":[]}`))
		case "/botTOKEN/sendMessage":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			sent.Store(body["text"])
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "", nil)
	tn.APIBase = srv.URL

	var handled int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tn.StartPolling(ctx, func(cmd string) string {
			atomic.AddInt32(&handled, 1)
			return "reply to " + cmd
		})
		close(done)
	}()

	assert.Eventually(t, func() bool { return sent.Load() != nil }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, "reply to /live", sent.Load())
	assert.EqualValues(t, 1, atomic.LoadInt32(&handled), "commands from other chats are ignored")
}

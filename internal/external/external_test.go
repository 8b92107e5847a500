package external

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terminal-bench/policedash/internal/config"
	"github.com/terminal-bench/policedash/pkg/circuit"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

func serviceConfig(url string) config.ExternalService {
	return config.ExternalService{BaseURL: url, APIKey: "test-key", Timeout: 2 * time.Second}
}

func TestCCTNSClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodGet && r.URL.EscapedPath() == "/firs/118%2F2024":
			json.NewEncoder(w).Encode(FIR{Number: "118/2024", District: "Nellore", PoliceStation: "Kandukur Town"})
		case r.Method == http.MethodGet && r.URL.Path == "/firs":
			assert.Equal(t, "Nellore", r.URL.Query().Get("district"))
			json.NewEncoder(w).Encode(map[string][]FIR{"firs": {{Number: "1/2024"}, {Number: "2/2024"}}})
		case r.Method == http.MethodPost && r.URL.Path == "/firs/sync":
			var fir FIR
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&fir))
			json.NewEncoder(w).Encode(SyncResult{FIRNumber: fir.Number, Accepted: true})
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"no such fir"}`))
		}
	}))
	defer srv.Close()

	client := NewCCTNSClient(serviceConfig(srv.URL), nil)
	ctx := context.Background()

	t.Run("should fetch an fir", func(t *testing.T) {
		fir, err := client.GetFIR(ctx, "118/2024")
		require.NoError(t, err)
		assert.Equal(t, "Kandukur Town", fir.PoliceStation)
	})

	t.Run("should search", func(t *testing.T) {
		firs, err := client.SearchFIRs(ctx, FIRQuery{District: "Nellore"})
		require.NoError(t, err)
		assert.Len(t, firs, 2)
	})

	t.Run("should sync", func(t *testing.T) {
		res, err := client.SyncFIR(ctx, FIR{Number: "3/2024", District: "Eluru"})
		require.NoError(t, err)
		assert.True(t, res.Accepted)
	})

	t.Run("should surface api errors", func(t *testing.T) {
		_, err := client.GetFIR(ctx, "missing")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		assert.Equal(t, "no such fir", apiErr.Message)
		assert.False(t, apiErr.Temporary())
	})

	t.Run("should validate input", func(t *testing.T) {
		_, err := client.GetFIR(ctx, " ")
		assert.Error(t, err)
		_, err = client.SyncFIR(ctx, FIR{Number: "x"})
		assert.Error(t, err)
	})
}

func TestClientNotConfigured(t *testing.T) {
	_, err := NewPushClient(config.ExternalService{}, nil).Send(context.Background(), PushMessage{Tokens: []string{"t"}, Title: "x"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClientBreakerTripsOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewPushClient(serviceConfig(srv.URL), nil)
	msg := PushMessage{Tokens: []string{"device-1"}, Title: "Alert"}

	for i := 0; i < 5; i++ {
		_, err := client.Send(context.Background(), msg)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.Temporary())
	}

	_, err := client.Send(context.Background(), msg)
	assert.ErrorIs(t, err, circuit.ErrCircuitOpen)
	assert.Equal(t, int32(5), calls.Load())
}

func TestClientClientErrorsDoNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewPushClient(serviceConfig(srv.URL), nil)
	for i := 0; i < 10; i++ {
		_, err := client.Send(context.Background(), PushMessage{Tokens: []string{"d"}, Title: "t"})
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
	}
	assert.Equal(t, circuit.StateClosed, client.c.breaker.State())
}

func TestNormalizePhone(t *testing.T) {
	tests := map[string]string{
		"9876543210":      "+919876543210",
		"+91 98765 43210": "+919876543210",
		"09876543210":     "+919876543210",
		"91-98765-43210":  "+919876543210",
	}
	for in, want := range tests {
		got, err := NormalizePhone(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"", "12345", "0123456789", "+1 415 555 0100"} {
		_, err := NormalizePhone(bad)
		assert.ErrorIs(t, err, ErrInvalidNumber, bad)
	}
}

type recordingSender struct {
	mu   sync.Mutex
	sent []SMS
	at   []time.Time
}

func (r *recordingSender) Send(_ context.Context, msg SMS) (*SMSReceipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	r.at = append(r.at, time.Now())
	return &SMSReceipt{Status: "queued"}, nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func TestSMSDispatcher(t *testing.T) {
	t.Run("should space out sends", func(t *testing.T) {
		sender := &recordingSender{}
		d := NewSMSDispatcher(sender, 8, 50*time.Millisecond, nil)

		require.NoError(t, d.Enqueue("9876543210", "one"))
		require.NoError(t, d.Enqueue("9876543211", "two"))
		require.NoError(t, d.Enqueue("9876543212", "three"))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error)
		go func() { done <- d.Run(ctx) }()

		require.Eventually(t, func() bool { return sender.count() == 3 }, 2*time.Second, 5*time.Millisecond)
		cancel()
		require.NoError(t, <-done)

		sender.mu.Lock()
		defer sender.mu.Unlock()
		assert.Equal(t, "+919876543210", sender.sent[0].To)
		for i := 1; i < len(sender.at); i++ {
			assert.GreaterOrEqual(t, sender.at[i].Sub(sender.at[i-1]), 50*time.Millisecond)
		}
	})

	t.Run("should reject when full", func(t *testing.T) {
		d := NewSMSDispatcher(&recordingSender{}, 1, time.Second, nil)
		require.NoError(t, d.Enqueue("9876543210", "one"))
		assert.ErrorIs(t, d.Enqueue("9876543210", "two"), ErrQueueFull)
		assert.Equal(t, 1, d.Pending())
	})

	t.Run("should reject invalid numbers", func(t *testing.T) {
		d := NewSMSDispatcher(&recordingSender{}, 1, time.Second, nil)
		assert.ErrorIs(t, d.Enqueue("100", "x"), ErrInvalidNumber)
	})

	t.Run("should refuse after shutdown", func(t *testing.T) {
		d := NewSMSDispatcher(&recordingSender{}, 4, time.Second, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.NoError(t, d.Run(ctx))
		assert.ErrorIs(t, d.Enqueue("9876543210", "late"), ErrQueueClosed)
	})
}

func TestSMSClientSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg SMS
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		assert.Equal(t, "+919876543210", msg.To)
		json.NewEncoder(w).Encode(SMSReceipt{MessageID: "m-1", Status: "sent"})
	}))
	defer srv.Close()

	receipt, err := NewSMSClient(serviceConfig(srv.URL), nil).Send(context.Background(), SMS{To: "98765 43210", Text: "Alert"})
	require.NoError(t, err)
	assert.Equal(t, "m-1", receipt.MessageID)
}

package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"confronto/internal/core"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{-1, 1 * time.Second},
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{64, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"refused", errors.New("dial tcp 127.0.0.1:5672: connect: connection refused"), true},
		{"closed", errors.New("connection closed"), true},
		{"eof", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"amqp closed", fmt.Errorf("publish message: %w", amqp091.ErrClosed), true},
		{"invalid input", errors.New("invalid input"), false},
		{"handler failure", errors.New("render chart: disk full"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	t.Run("opens after max failures", func(t *testing.T) {
		c := &Client{}
		for i := 0; i < maxFailures-1; i++ {
			c.recordFailure()
			if c.isCircuitOpen() {
				t.Fatalf("circuit open after %d failures", i+1)
			}
		}
		c.recordFailure()
		if !c.isCircuitOpen() {
			t.Fatal("circuit should be open")
		}
	})

	t.Run("half opens after timeout", func(t *testing.T) {
		c := &Client{state: StateOpen, lastFailure: time.Now().Add(-openTimeout - time.Second)}
		if c.isCircuitOpen() {
			t.Fatal("circuit should let a request through")
		}
		if got := atomic.LoadInt32(&c.state); got != StateHalfOpen {
			t.Fatalf("state = %d, want half-open", got)
		}
	})

	t.Run("half open failure reopens", func(t *testing.T) {
		c := &Client{state: StateHalfOpen}
		c.recordFailure()
		if got := atomic.LoadInt32(&c.state); got != StateOpen {
			t.Fatalf("state = %d, want open", got)
		}
	})

	t.Run("success closes", func(t *testing.T) {
		c := &Client{state: StateHalfOpen, failureCount: maxFailures}
		c.recordSuccess()
		if atomic.LoadInt32(&c.state) != StateClosed || atomic.LoadInt64(&c.failureCount) != 0 {
			t.Fatalf("state = %d failures = %d, want closed with no failures", c.state, c.failureCount)
		}
	})
}

func TestClient_PublishComparisonRequest(t *testing.T) {
	req := NewComparisonRequest(core.NewDate(2024, 4, 10))

	t.Run("rejected while circuit is open", func(t *testing.T) {
		c := &Client{url: "amqp://unused", state: StateOpen, lastFailure: time.Now()}
		err := c.PublishComparisonRequest(context.Background(), req)
		if err == nil || !strings.Contains(err.Error(), "circuit breaker is open") {
			t.Fatalf("err = %v, want circuit breaker error", err)
		}
	})

	t.Run("respects cancelled context", func(t *testing.T) {
		c := &Client{url: "amqp://unused"}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := c.PublishComparisonRequest(ctx, req); !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	})
}

func TestShouldRequeue(t *testing.T) {
	transient := errors.New("upstream timeout")
	permanent := fmt.Errorf("%w: %w", ErrPermanent, core.ErrInvalidInput)

	if !shouldRequeue(transient, false) {
		t.Error("first transient failure should requeue")
	}
	if shouldRequeue(transient, true) {
		t.Error("redelivered message should not requeue")
	}
	if shouldRequeue(permanent, false) {
		t.Error("permanent failure should not requeue")
	}
}

func TestComparisonRequest(t *testing.T) {
	req := NewComparisonRequest(core.NewDate(2024, 3, 1))
	if req.ID == uuid.Nil {
		t.Fatal("expected an ID")
	}
	if req.Date != "2024-03-01" {
		t.Fatalf("Date = %q", req.Date)
	}

	data, err := req.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, err := ComparisonRequestFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.ID != req.ID || got.Date != req.Date || !got.RequestedAt.Equal(req.RequestedAt) {
		t.Fatalf("got %+v, want %+v", got, req)
	}

	ref, err := got.Reference(core.NewDate(2030, 1, 1))
	if err != nil || !ref.Equal(core.NewDate(2024, 3, 1)) {
		t.Fatalf("Reference = %v, %v", ref, err)
	}
}

func TestComparisonRequest_Today(t *testing.T) {
	req := NewComparisonRequest(core.Date{})
	if req.Date != "" {
		t.Fatalf("Date = %q, want empty", req.Date)
	}
	today := core.NewDate(2024, 5, 20)
	ref, err := req.Reference(today)
	if err != nil || !ref.Equal(today) {
		t.Fatalf("Reference = %v, %v", ref, err)
	}
}

func TestComparisonRequestFromJSON_Invalid(t *testing.T) {
	for name, body := range map[string]string{
		"not json":   "{",
		"missing id": `{"date":"2024-03-01"}`,
		"bad id":     `{"id":"nope"}`,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ComparisonRequestFromJSON([]byte(body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	req := &ComparisonRequest{ID: uuid.New(), Date: "2024-02-30"}
	if _, err := req.Reference(core.Today()); !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("Reference err = %v", err)
	}
}

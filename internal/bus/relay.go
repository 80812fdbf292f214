package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/Fouche-Hugo/draft-together/internal/metrics"
)

// Relay is an optional cross-instance carrier of the "draft changed" signal,
// over Redis pub/sub, so multiple server processes behind a load balancer
// stay in sync. A nil *Relay is valid: every method degrades to a no-op,
// matching single-instance operation with purely in-process topics.
type Relay struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker
}

// NewRelay dials addr and verifies connectivity before returning.
func NewRelay(addr, password string) (*Relay, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("bus: connect to redis: %w", err)
	}

	st := gobreaker.Settings{
		Name:        "draft-broadcast-relay",
		MaxRequests: 5,
		Interval:    time.Minute,
		Timeout:     15 * time.Second,
		OnStateChange: func(_ string, _ gobreaker.State, to gobreaker.State) {
			var v float64
			switch to {
			case gobreaker.StateOpen:
				v = 1
			case gobreaker.StateHalfOpen:
				v = 2
			}
			metrics.CircuitBreakerState.WithLabelValues("redis").Set(v)
		},
	}

	return &Relay{client: rdb, cb: gobreaker.NewCircuitBreaker(st)}, nil
}

func channelName(roomID string) string {
	return "draft:room:" + roomID
}

// Publish signals other instances that roomID's draft changed.
func (r *Relay) Publish(ctx context.Context, roomID string) error {
	if r == nil {
		return nil
	}

	start := time.Now()
	_, err := r.cb.Execute(func() (any, error) {
		return nil, r.client.Publish(ctx, channelName(roomID), "changed").Err()
	})
	metrics.RedisOperationDuration.WithLabelValues("publish").Observe(time.Since(start).Seconds())

	if err == gobreaker.ErrOpenState {
		metrics.CircuitBreakerFailures.WithLabelValues("redis").Inc()
		metrics.RedisOperationsTotal.WithLabelValues("publish", "breaker_open").Inc()
		return nil
	}
	if err != nil {
		metrics.RedisOperationsTotal.WithLabelValues("publish", "error").Inc()
		return fmt.Errorf("bus: publish room %s: %w", roomID, err)
	}
	metrics.RedisOperationsTotal.WithLabelValues("publish", "ok").Inc()
	return nil
}

// Subscribe starts a background goroutine relaying every publish on roomID's
// channel into handler, until ctx is cancelled. This instance's own publishes
// are delivered too.
func (r *Relay) Subscribe(ctx context.Context, roomID string, handler func()) {
	if r == nil {
		return
	}

	pubsub := r.client.Subscribe(ctx, channelName(roomID))
	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				handler()
			}
		}
	}()
}

// Ping checks Redis connectivity, used by readiness checks.
func (r *Relay) Ping(ctx context.Context) error {
	if r == nil {
		return nil
	}

	_, err := r.cb.Execute(func() (any, error) {
		return nil, r.client.Ping(ctx).Err()
	})
	if err == gobreaker.ErrOpenState {
		metrics.CircuitBreakerFailures.WithLabelValues("redis").Inc()
		return nil
	}
	return err
}

// Close releases the underlying Redis connection.
func (r *Relay) Close() error {
	if r == nil {
		return nil
	}
	return r.client.Close()
}

// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peer

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sasha-s/go-deadlock"

	"github.com/ava-labs/avalanchego/utils/timer/mockable"
)

const (
	// DefaultResetSeconds is the length of a rate limiting period.
	DefaultResetSeconds = 60
	// DefaultLimitFactor scales every limit in the table.
	DefaultLimitFactor = 0.6
)

type limiterMetrics struct {
	accepted *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

func newLimiterMetrics(namespace string, registerer prometheus.Registerer) (*limiterMetrics, error) {
	m := &limiterMetrics{
		accepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limiter_accepted",
			Help:      "Number of messages within the rate limits",
		}, []string{"direction", "type"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limiter_rejected",
			Help:      "Number of messages over the rate limits",
		}, []string{"direction", "type"}),
	}
	if err := registerer.Register(m.accepted); err != nil {
		return nil, fmt.Errorf("failed to register accepted counter: %w", err)
	}
	if err := registerer.Register(m.rejected); err != nil {
		return nil, fmt.Errorf("failed to register rejected counter: %w", err)
	}
	return m, nil
}

// RateLimiter tracks message counts and sizes per period. Incoming messages
// are always counted, outgoing messages only when they pass.
type RateLimiter struct {
	lock deadlock.Mutex

	incoming     bool
	resetSeconds int64
	limitFactor  float64
	limits       RateLimits
	clock        *mockable.Clock
	metrics      *limiterMetrics

	period     int64
	counts     map[MessageType]float64
	sizes      map[MessageType]float64
	nonTxCount float64
	nonTxSize  float64
}

// NewRateLimiter returns a limiter whose counters are registered with
// registerer under namespace. A nil clock uses the system time.
func NewRateLimiter(
	incoming bool,
	resetSeconds int64,
	limitFactor float64,
	limits RateLimits,
	clock *mockable.Clock,
	namespace string,
	registerer prometheus.Registerer,
) (*RateLimiter, error) {
	if resetSeconds <= 0 {
		return nil, fmt.Errorf("invalid reset period %d", resetSeconds)
	}
	metrics, err := newLimiterMetrics(namespace, registerer)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = &mockable.Clock{}
	}
	r := &RateLimiter{
		incoming:     incoming,
		resetSeconds: resetSeconds,
		limitFactor:  limitFactor,
		limits:       limits,
		clock:        clock,
		metrics:      metrics,
		counts:       make(map[MessageType]float64),
		sizes:        make(map[MessageType]float64),
	}
	r.period = r.currentPeriod()
	return r, nil
}

func (r *RateLimiter) currentPeriod() int64 {
	return r.clock.Time().Unix() / r.resetSeconds
}

// HandleMessage records a message of msgType and size bytes and reports
// whether it is within the limits.
func (r *RateLimiter) HandleMessage(msgType MessageType, size int) bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	if period := r.currentPeriod(); period != r.period {
		r.period = period
		r.counts = make(map[MessageType]float64)
		r.sizes = make(map[MessageType]float64)
		r.nonTxCount = 0
		r.nonTxSize = 0
	}

	msgSize := float64(size)
	newCount := r.counts[msgType] + 1
	newSize := r.sizes[msgType] + msgSize
	newNonTxCount := r.nonTxCount
	newNonTxSize := r.nonTxSize

	passed := func() bool {
		limit, nonTx := r.limits.Limit(msgType)
		if nonTx {
			newNonTxCount++
			newNonTxSize += msgSize
			if newNonTxCount > r.limits.NonTxFrequency*r.limitFactor {
				return false
			}
			if newNonTxSize > r.limits.NonTxMaxTotalSize*r.limitFactor {
				return false
			}
		}
		switch {
		case newCount > limit.Frequency*r.limitFactor:
			return false
		case msgSize > limit.MaxSize:
			return false
		case newSize > limit.totalSize()*r.limitFactor:
			return false
		default:
			return true
		}
	}()

	if r.incoming || passed {
		r.counts[msgType] = newCount
		r.sizes[msgType] = newSize
		r.nonTxCount = newNonTxCount
		r.nonTxSize = newNonTxSize
	}

	direction := "outgoing"
	if r.incoming {
		direction = "incoming"
	}
	labels := prometheus.Labels{"direction": direction, "type": strconv.Itoa(int(msgType))}
	if passed {
		r.metrics.accepted.With(labels).Inc()
	} else {
		r.metrics.rejected.With(labels).Inc()
	}
	return passed
}

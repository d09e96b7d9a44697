// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package compio

import (
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-metrics"
)

const (
	// DefaultUnitSize is the first buffer guess of a growable receive:
	// room for a typical request header block without regrowing.
	DefaultUnitSize = 1024
	// DefaultUnitMax bounds the size a native layer may ask a growable
	// receive to grow to.
	DefaultUnitMax = 1 << 20
	// DefaultChunkSize is the per-call size of chunked body and message reads.
	DefaultChunkSize = 4096
)

type config struct {
	logHandler   slog.Handler
	metricSink   metrics.MetricSink
	metricLabels []metrics.Label
	classify     Classify
	unitSize     int
	unitMax      int
	chunkSize    int
}

func defaultConfig() config {
	return config{
		classify:  DefaultClassify,
		unitSize:  DefaultUnitSize,
		unitMax:   DefaultUnitMax,
		chunkSize: DefaultChunkSize,
	}
}

// Option to pass to `NewBridge`
type Option func(*config) error

// WithLog specifies which `slog.Handler` to use.
func WithLog(handler slog.Handler) Option {
	return func(c *config) error {
		c.logHandler = handler
		return nil
	}
}

// WithMetricSink allows you to chose how to collect the metrics emitted
// by the bridge and the state machines built on it.
func WithMetricSink(ms metrics.MetricSink) Option {
	return func(c *config) error {
		if ms == nil {
			ms = &metrics.BlackholeSink{}
		}
		c.metricSink = ms
		return nil
	}
}

// WithMetricLabels adds static labels to all metrics produced by the bridge.
func WithMetricLabels(labels []metrics.Label) Option {
	return func(c *config) error {
		c.metricLabels = labels
		return nil
	}
}

// WithClassifier replaces the error classification table. Platform
// backends provide one that recognises their native codes.
func WithClassifier(classify Classify) Option {
	return func(c *config) error {
		if classify == nil {
			return fmt.Errorf("%w: nil classifier", ErrInvalidCfg)
		}
		c.classify = classify
		return nil
	}
}

// WithUnitSize sets the initial guess and the upper bound of a growable
// receive. A zero initial or max keeps the default.
func WithUnitSize(initial, max int) Option {
	return func(c *config) error {
		if initial == 0 {
			initial = DefaultUnitSize
		}
		if max == 0 {
			max = DefaultUnitMax
		}
		if initial < 0 || max < initial {
			return fmt.Errorf("%w: unit size %d, max %d", ErrInvalidCfg, initial, max)
		}
		c.unitSize = initial
		c.unitMax = max
		return nil
	}
}

// WithChunkSize sets the per-call size of chunked body and message reads.
func WithChunkSize(size int) Option {
	return func(c *config) error {
		if size == 0 {
			size = DefaultChunkSize
		}
		if size < 0 {
			return fmt.Errorf("%w: chunk size %d", ErrInvalidCfg, size)
		}
		c.chunkSize = size
		return nil
	}
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package compio

import (
	"log/slog"

	"github.com/hashicorp/go-metrics"
)

var (
	// MetricCallStart counts native calls issued through a bridge.
	MetricCallStart = []string{"compio", "call", "start"}
	// MetricCallPending counts native calls that went asynchronous.
	MetricCallPending = []string{"compio", "call", "pending"}
	// MetricCallComplete counts continuations delivered, by class.
	MetricCallComplete = []string{"compio", "call", "complete"}
	MetricUnitRegrow   = []string{"compio", "unit", "regrow"}
	MetricDrainBytes   = []string{"compio", "drain", "bytes"}
	MetricAcceptCount  = []string{"compio", "accept", "count"}
	// MetricNotifyDropped counts notifications refused by the bridge:
	// unknown IDs, duplicates and status mismatches.
	MetricNotifyDropped = []string{"compio", "notify", "dropped"}
)

type TelemetryLabel string

var (
	LabelClass    TelemetryLabel = "class"
	LabelError    TelemetryLabel = "error"
	LabelMachine  TelemetryLabel = "machine"
	LabelOpID     TelemetryLabel = "op_id"
	LabelStep     TelemetryLabel = "step"
	LabelStatus   TelemetryLabel = "status"
	LabelLength   TelemetryLabel = "length"
	LabelRequired TelemetryLabel = "required"
	LabelReason   TelemetryLabel = "reason"
)

func (lab TelemetryLabel) M(val string) metrics.Label {
	return metrics.Label{Name: string(lab), Value: val}
}

func (lab TelemetryLabel) L(val any) slog.Attr {
	return slog.Attr{
		Key:   string(lab),
		Value: slog.AnyValue(val),
	}
}

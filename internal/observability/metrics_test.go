package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/chamados", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/chamados", "GET", 200, 30*time.Millisecond)
	m.RecordError("/chamados/:id", "DELETE", "FORBIDDEN")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/chamados|GET|200"])
	assert.InDelta(t, 20.0, snap.AvgLatencyMS["/chamados|GET|200"], 0.001)
	assert.Equal(t, int64(1), snap.Errors["/chamados/:id|DELETE|FORBIDDEN"])

	// the snapshot is a copy
	snap.Requests["/chamados|GET|200"] = 99
	assert.Equal(t, int64(2), m.Snapshot().Requests["/chamados|GET|200"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	assert.Empty(t, m.Snapshot().Requests)
}

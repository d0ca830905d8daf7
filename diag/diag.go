// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package diag provides two small diagnostics facilities for the link
// engine: a bounded, timestamped trace buffer usable as a
// collab.LogPrintf sink, and a compact varint-encoded history of RSSI/AFC
// samples suitable for a low-bandwidth passthrough dump. Both are
// adapted from tve-devices: the trace buffer generalizes
// rfm69/dbgbuf.go's package-global dbgBuf/dbgPush/dbgPrint into a bounded
// ring owned by a value instead of a mutex-guarded global slice (an
// embedded receiver can't let a debug log grow without bound for the
// lifetime of the process); the history encoder is varint.go's signed
// varint coding, folded into this package and scoped to RSSI/AFC sample
// sequences instead of kept as a standalone general-purpose codec.
package diag

import (
	"fmt"
	"sync"
	"time"

	"github.com/tve/openlrs/collab"
)

type traceEvent struct {
	at   time.Time
	text string
}

// Trace is a fixed-capacity ring of timestamped debug lines. Once full,
// the oldest line is dropped to make room for the newest, so a link that
// runs for days doesn't grow its debug log without bound.
type Trace struct {
	mu       sync.Mutex
	buf      []traceEvent
	capacity int
}

// NewTrace returns a Trace holding at most capacity lines.
func NewTrace(capacity int) *Trace {
	return &Trace{capacity: capacity}
}

// Push formats and appends one trace line, timestamped now. Its
// signature matches collab.LogPrintf so a Trace can be handed directly
// to any constructor that takes a log hook.
func (t *Trace) Push(format string, v ...interface{}) {
	t.pushAt(time.Now(), format, v...)
}

func (t *Trace) pushAt(at time.Time, format string, v ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, traceEvent{at, fmt.Sprintf(format, v...)})
	if over := len(t.buf) - t.capacity; over > 0 {
		t.buf = t.buf[over:]
	}
}

// AsLogPrintf adapts Push to collab.LogPrintf for callers that want a
// named value rather than a method expression.
func (t *Trace) AsLogPrintf() collab.LogPrintf { return t.Push }

// Dump renders the buffered lines as "<seconds since first event>: text"
// and clears the buffer, mirroring rfm69/dbgbuf.go's dbgPrint.
func (t *Trace) Dump() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.buf) == 0 {
		return nil
	}
	t0 := t.buf[0].at
	lines := make([]string, len(t.buf))
	for i, ev := range t.buf {
		lines[i] = fmt.Sprintf("%.6fs: %s", ev.at.Sub(t0).Seconds(), ev.text)
	}
	t.buf = nil
	return lines
}

// History accumulates RSSI and AFC samples for later compact transport,
// e.g. over a low-bandwidth passthrough/telemetry channel the facade's
// caller may have wired up.
type History struct {
	mu   sync.Mutex
	rssi []int
	afc  []int
}

// NewHistory returns an empty History.
func NewHistory() *History { return &History{} }

// Record appends one RSSI/AFC sample pair.
func (h *History) Record(rssi, afc int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rssi = append(h.rssi, rssi)
	h.afc = append(h.afc, afc)
}

// Len reports the number of recorded samples.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rssi)
}

// EncodeRSSI returns the varint-packed RSSI sample sequence and clears
// it, so repeated calls yield only newly recorded samples.
func (h *History) EncodeRSSI() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	enc := encodeSamples(h.rssi)
	h.rssi = nil
	return enc
}

// EncodeAFC is EncodeRSSI's counterpart for the AFC sample sequence.
func (h *History) EncodeAFC() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	enc := encodeSamples(h.afc)
	h.afc = nil
	return enc
}

// DecodeSamples is the inverse of EncodeRSSI/EncodeAFC, exposed for
// whatever ground-side tool consumes the dump.
func DecodeSamples(buf []byte) []int {
	return decodeSamples(buf)
}

// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package diag

import (
	"testing"
	"time"
)

func TestTraceDropsOldestWhenFull(t *testing.T) {
	tr := NewTrace(3)
	base := time.Unix(0, 0)
	for i := 0; i < 5; i++ {
		tr.pushAt(base.Add(time.Duration(i)*time.Second), "event %d", i)
	}
	lines := tr.Dump()
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	want := []string{"0.000000s: event 2", "1.000000s: event 3", "2.000000s: event 4"}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d: got %q want %q", i, lines[i], w)
		}
	}
}

func TestTraceDumpClears(t *testing.T) {
	tr := NewTrace(10)
	tr.Push("hello %s", "world")
	if len(tr.Dump()) != 1 {
		t.Fatal("expected one line on first dump")
	}
	if lines := tr.Dump(); lines != nil {
		t.Errorf("expected nil after clearing, got %v", lines)
	}
}

func TestHistoryEncodeRoundTrip(t *testing.T) {
	h := NewHistory()
	samples := []int{-80, -81, -79, 0, -120, 5}
	for _, r := range samples {
		h.Record(r, r*2)
	}
	if h.Len() != len(samples) {
		t.Fatalf("Len() = %d, want %d", h.Len(), len(samples))
	}

	rssiEnc := h.EncodeRSSI()
	got := DecodeSamples(rssiEnc)
	if len(got) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(samples))
	}
	for i, v := range samples {
		if got[i] != v {
			t.Errorf("sample %d: got %d want %d", i, got[i], v)
		}
	}

	if h.Len() != 0 {
		t.Errorf("expected History to be drained after EncodeRSSI, got Len()=%d", h.Len())
	}
}

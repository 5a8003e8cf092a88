package hub

import (
	"testing"

	"github.com/stintio/stint/internal/model"
)

func TestBroadcastToMultipleSubscribers(t *testing.T) {
	h := New()
	a := h.Subscribe()
	b := h.Subscribe()

	row := model.ReportRow{PID: "101", Job: "Backup", DurationSec: 360, Flag: model.FlagWarning}
	if err := h.WriteRow(row); err != nil {
		t.Fatal(err)
	}
	h.Close()

	for name, ch := range map[string]<-chan model.ReportRow{"a": a, "b": b} {
		got, ok := <-ch
		if !ok {
			t.Fatalf("subscriber %s: channel closed before delivery", name)
		}
		if got.PID != "101" {
			t.Errorf("subscriber %s: expected pid 101, got %q", name, got.PID)
		}
	}
}

func TestRowsSnapshot(t *testing.T) {
	h := New()

	h.WriteRow(model.ReportRow{PID: "1", Flag: model.FlagWarning})
	h.WriteRow(model.ReportRow{PID: "2", Flag: model.FlagError})

	rows := h.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].PID != "1" || rows[1].PID != "2" {
		t.Errorf("rows out of order: %+v", rows)
	}
}

func TestSlowSubscriberDrops(t *testing.T) {
	h := New()
	h.Subscribe() // never drained

	for i := 0; i < subscriberBuffer+10; i++ {
		h.WriteRow(model.ReportRow{PID: "x"})
	}

	if h.Dropped() != 10 {
		t.Errorf("expected 10 dropped rows, got %d", h.Dropped())
	}
}

func TestWriteAfterCloseIsIgnored(t *testing.T) {
	h := New()
	h.Close()

	if err := h.WriteRow(model.ReportRow{PID: "1"}); err != nil {
		t.Fatal(err)
	}
	if len(h.Rows()) != 0 {
		t.Errorf("expected no rows after close, got %d", len(h.Rows()))
	}
}

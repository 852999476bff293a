package storage

import (
	"testing"
	"time"
)

func TestBuildReportPath(t *testing.T) {
	ts := time.Date(2026, time.February, 19, 22, 5, 0, 0, time.FixedZone("x", -5*3600))
	key, err := BuildReportPath("5f0c7d2e-1b1a-4a57-9d0e-3c1b2f7a9e10", 3, ts)
	if err != nil {
		t.Fatalf("BuildReportPath() error = %v", err)
	}
	want := "5f0c7d2e-1b1a-4a57-9d0e-3c1b2f7a9e10/q-3/2026-02-20/report-1771556700000.parquet"
	if key != want {
		t.Fatalf("BuildReportPath() = %q, want %q", key, want)
	}
}

func TestBuildReportPathRejectsInvalidInput(t *testing.T) {
	if _, err := BuildReportPath("../oops", 1, time.Now()); err == nil {
		t.Fatal("expected invalid session id error")
	}
	if _, err := BuildReportPath("session-1", 0, time.Now()); err == nil {
		t.Fatal("expected invalid sequence error")
	}
}

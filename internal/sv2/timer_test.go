package sv2

import (
	"testing"
	"time"
)

func TestFeeTimerTriggersImmediatelyThenWaits(t *testing.T) {
	ft := NewFeeTimer(50 * time.Millisecond)
	if !ft.Trigger() {
		t.Fatalf("expected first Trigger to fire")
	}
	if ft.Trigger() {
		t.Fatalf("expected immediate second Trigger to be suppressed")
	}
	time.Sleep(60 * time.Millisecond)
	if !ft.Trigger() {
		t.Fatalf("expected Trigger to fire again after interval elapsed")
	}
}

func TestFeeTimerReset(t *testing.T) {
	ft := NewFeeTimer(time.Hour)
	ft.Trigger()
	ft.Reset()
	if ft.Trigger() {
		t.Fatalf("expected Trigger to be suppressed right after Reset")
	}
}

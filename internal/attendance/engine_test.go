package attendance

import (
	"testing"
	"time"

	"faceclock/models"
)

func testEngine() *Engine {
	return New(models.AttendanceConfig{
		FullShift:     4 * time.Hour,
		MinShift:      1 * time.Hour,
		ConfirmWindow: 30 * time.Second,
	}, 10*time.Second)
}

func recordWithCheckIn(at time.Time) *models.AttendanceRecord {
	return &models.AttendanceRecord{WorkerId: 1, CheckInTime: &at, Status: "PRESENT"}
}

func TestFullDayFlow(t *testing.T) {
	e := testEngine()
	start := time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC)

	// No record today → check-in.
	d := e.Decide(1, nil, start)
	if d.Kind != DecisionCheckIn {
		t.Fatalf("first scan: got %s, want CHECK_IN", d.Kind)
	}

	// 30 seconds later: still in cooldown.
	d = e.Decide(1, recordWithCheckIn(start), start.Add(9*time.Second))
	if d.Kind != DecisionCooldown {
		t.Fatalf("scan inside cooldown: got %s", d.Kind)
	}

	// 30s after check-in (cooldown over): way too early to leave.
	d = e.Decide(1, recordWithCheckIn(start), start.Add(30*time.Second))
	if d.Kind != DecisionTooEarly {
		t.Fatalf("30s elapsed: got %s, want TOO_EARLY", d.Kind)
	}

	// 5 hours after check-in: clean check-out.
	d = e.Decide(1, recordWithCheckIn(start), start.Add(5*time.Hour))
	if d.Kind != DecisionCheckOut {
		t.Fatalf("5h elapsed: got %s, want CHECK_OUT", d.Kind)
	}

	// Day closed: anything further is a no-op.
	out := start.Add(5 * time.Hour)
	rec := recordWithCheckIn(start)
	rec.CheckOutTime = &out
	d = e.Decide(1, rec, start.Add(6*time.Hour))
	if d.Kind != DecisionDayCompleted {
		t.Fatalf("after checkout: got %s, want DAY_COMPLETED", d.Kind)
	}
}

func TestEarlyCheckoutConfirmed(t *testing.T) {
	e := testEngine()
	checkIn := time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC)
	scan1 := checkIn.Add(2 * time.Hour)

	d := e.Decide(1, recordWithCheckIn(checkIn), scan1)
	if d.Kind != DecisionConfirmRequired {
		t.Fatalf("2h elapsed: got %s, want pending confirm", d.Kind)
	}

	// Second scan 10s later (cooldown just expired, window still open).
	d = e.Decide(1, recordWithCheckIn(checkIn), scan1.Add(10*time.Second))
	if d.Kind != DecisionCheckOut {
		t.Fatalf("confirming scan: got %s, want CHECK_OUT", d.Kind)
	}
}

func TestEarlyCheckoutWindowLapses(t *testing.T) {
	e := testEngine()
	checkIn := time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC)
	scan1 := checkIn.Add(2 * time.Hour)

	if d := e.Decide(1, recordWithCheckIn(checkIn), scan1); d.Kind != DecisionConfirmRequired {
		t.Fatalf("arming scan: got %s", d.Kind)
	}

	// 40 seconds later the window has lapsed; the worker stays PRESENT
	// and the engine simply re-arms.
	d := e.Decide(1, recordWithCheckIn(checkIn), scan1.Add(40*time.Second))
	if d.Kind != DecisionConfirmRequired {
		t.Fatalf("post-lapse scan: got %s, want a fresh pending confirm", d.Kind)
	}
	if d.Kind == DecisionCheckOut {
		t.Fatal("lapsed window must not check out")
	}
}

func TestCooldownIsPerWorker(t *testing.T) {
	e := testEngine()
	now := time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC)

	if d := e.Decide(1, nil, now); d.Kind != DecisionCheckIn {
		t.Fatalf("worker 1: got %s", d.Kind)
	}
	if d := e.Decide(2, nil, now.Add(time.Second)); d.Kind != DecisionCheckIn {
		t.Fatalf("worker 2 must not share worker 1's cooldown: got %s", d.Kind)
	}
}

func TestForgiveClearsCooldown(t *testing.T) {
	e := testEngine()
	now := time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC)

	e.Decide(1, nil, now)
	e.Forgive(1)

	// Retry immediately after a failed store write.
	if d := e.Decide(1, nil, now.Add(time.Second)); d.Kind != DecisionCheckIn {
		t.Fatalf("post-forgive scan: got %s, want CHECK_IN", d.Kind)
	}
}

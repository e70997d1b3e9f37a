package schedule_test

import (
	"errors"
	"testing"
	"time"

	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

const day = 24 * time.Hour

var start = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func terms() schedule.Terms {
	return schedule.Terms{
		Start:           start,
		CliffDuration:   30 * day,
		VestingDuration: 300 * day,
		UnlockPeriod:    30 * day,
		TGEPercent:      10,
	}
}

// settle applies a successful claim to a position the way the engine does.
func settle(p schedule.Position, amount types.Amount, index uint64) schedule.Position {
	p.Released = p.Released.Add(amount)
	if index > p.ClaimedPeriodIndex {
		p.ClaimedPeriodIndex = index
	}
	return p
}

func TestAvailableNotStarted(t *testing.T) {
	pos := schedule.Position{Total: types.NewAmount(1000)}

	_, _, err := schedule.Available(terms(), pos, start.Add(-time.Second))
	if !errors.Is(err, schedule.ErrNotStarted) {
		t.Errorf("before start: err = %v, want ErrNotStarted", err)
	}

	inert := terms()
	inert.Start = time.Time{}
	_, _, err = schedule.Available(inert, pos, start)
	if !errors.Is(err, schedule.ErrNotStarted) {
		t.Errorf("zero start: err = %v, want ErrNotStarted", err)
	}
}

func TestAvailableUnclaimed(t *testing.T) {
	// 1000 total, 10% TGE, 30d cliff, 300d vesting, 30d periods.
	pos := schedule.Position{Total: types.NewAmount(1000)}

	tests := []struct {
		name      string
		now       time.Time
		want      string
		wantIndex uint64
	}{
		{"at start", start, "100", 0},
		{"inside cliff", start.Add(29 * day), "100", 0},
		{"at cliff end, zero periods elapsed", start.Add(30 * day), "100", 0},
		{"one period elapsed", start.Add(60 * day), "190", 1},
		{"two periods elapsed", start.Add(90 * day), "280", 2},
		{"at vesting end", start.Add(330 * day), "1000", 10},
		{"long after vesting end", start.Add(1000 * day), "1000", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, idx, err := schedule.Available(terms(), pos, tt.now)
			if err != nil {
				t.Fatalf("Available: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("claimable = %s, want %s", got, tt.want)
			}
			if idx != tt.wantIndex {
				t.Errorf("index = %d, want %d", idx, tt.wantIndex)
			}
		})
	}
}

func TestAvailableAfterTGEClaim(t *testing.T) {
	pos := schedule.Position{Total: types.NewAmount(1000)}

	got, idx, err := schedule.Available(terms(), pos, start)
	if err != nil {
		t.Fatalf("Available at start: %v", err)
	}
	pos = settle(pos, got, idx)
	if pos.Released.String() != "100" {
		t.Fatalf("released after TGE claim = %s, want 100", pos.Released)
	}

	// Nothing further unlocks until a full period past the cliff.
	got, idx, err = schedule.Available(terms(), pos, start.Add(30*day))
	if err != nil {
		t.Fatalf("Available at cliff end: %v", err)
	}
	if !got.IsZero() || idx != 0 {
		t.Errorf("at cliff end = (%s, %d), want (0, 0)", got, idx)
	}

	// One period in: 900 * 30d / 300d = 90.
	got, idx, err = schedule.Available(terms(), pos, start.Add(60*day))
	if err != nil {
		t.Fatalf("Available one period in: %v", err)
	}
	if got.String() != "90" || idx != 1 {
		t.Errorf("one period in = (%s, %d), want (90, 1)", got, idx)
	}
}

func TestAvailableSettledIsAbsorbing(t *testing.T) {
	pos := schedule.Position{
		Total:              types.NewAmount(1000),
		Released:           types.NewAmount(1000),
		ClaimedPeriodIndex: 10,
	}

	got, idx, err := schedule.Available(terms(), pos, start.Add(500*day))
	if err != nil {
		t.Fatalf("Available: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("settled claimable = %s, want 0", got)
	}
	if idx != 10 {
		t.Errorf("settled index = %d, want 10", idx)
	}
}

func TestAvailableRetroactiveRescheduleClamps(t *testing.T) {
	// The record claimed through period 3 before the admin pushed the
	// start time forward, leaving the clock at period 1. The claimable
	// span clamps to zero and the index never regresses.
	pos := schedule.Position{
		Total:              types.NewAmount(1000),
		Released:           types.NewAmount(370),
		ClaimedPeriodIndex: 3,
	}

	got, idx, err := schedule.Available(terms(), pos, start.Add(60*day))
	if err != nil {
		t.Fatalf("Available: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("claimable = %s, want 0", got)
	}
	if idx != 3 {
		t.Errorf("index = %d, want 3 (unchanged)", idx)
	}
}

func TestAvailableConservation(t *testing.T) {
	// Claiming at every period boundary settles exactly the full
	// allocation by the end of the schedule.
	pos := schedule.Position{Total: types.NewAmount(1000)}

	for i := 0; i <= 11; i++ {
		now := start.Add(time.Duration(i) * 30 * day)
		got, idx, err := schedule.Available(terms(), pos, now)
		if err != nil {
			t.Fatalf("Available at step %d: %v", i, err)
		}
		pos = settle(pos, got, idx)
	}

	if !pos.Released.Equal(pos.Total) {
		t.Errorf("released = %s, want %s", pos.Released, pos.Total)
	}
}

func TestAvailableZeroTGE(t *testing.T) {
	tr := terms()
	tr.TGEPercent = 0
	pos := schedule.Position{Total: types.NewAmount(1000)}

	got, _, err := schedule.Available(tr, pos, start)
	if err != nil {
		t.Fatalf("Available: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("claimable at start with 0%% TGE = %s, want 0", got)
	}

	got, idx, err := schedule.Available(tr, pos, start.Add(60*day))
	if err != nil {
		t.Fatalf("Available: %v", err)
	}
	if got.String() != "100" || idx != 1 {
		t.Errorf("one period in = (%s, %d), want (100, 1)", got, idx)
	}
}

func TestAvailableInvalidTerms(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*schedule.Terms)
	}{
		{"tge percent above 100", func(tr *schedule.Terms) { tr.TGEPercent = 101 }},
		{"negative tge percent", func(tr *schedule.Terms) { tr.TGEPercent = -1 }},
		{"negative cliff", func(tr *schedule.Terms) { tr.CliffDuration = -time.Hour }},
		{"negative vesting", func(tr *schedule.Terms) { tr.VestingDuration = -time.Hour }},
		{"zero unlock period", func(tr *schedule.Terms) { tr.UnlockPeriod = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := terms()
			tt.mutate(&tr)
			if err := tr.Validate(); err == nil {
				t.Error("expected Validate to fail")
			}
			_, _, err := schedule.Available(tr, schedule.Position{Total: types.NewAmount(1)}, start)
			if err == nil {
				t.Error("expected Available to fail")
			}
		})
	}
}

func TestTermsHelpers(t *testing.T) {
	tr := terms()

	if got := tr.CliffEnd(); !got.Equal(start.Add(30 * day)) {
		t.Errorf("CliffEnd = %v", got)
	}
	if got := tr.End(); !got.Equal(start.Add(330 * day)) {
		t.Errorf("End = %v", got)
	}
	if got := tr.TotalPeriods(); got != 10 {
		t.Errorf("TotalPeriods = %d, want 10", got)
	}
	if got := tr.TGEAmount(types.NewAmount(1000)); got.String() != "100" {
		t.Errorf("TGEAmount = %s, want 100", got)
	}
	// Truncation toward zero.
	if got := tr.TGEAmount(types.NewAmount(999)); got.String() != "99" {
		t.Errorf("TGEAmount(999) = %s, want 99", got)
	}
}

func TestNextUnlock(t *testing.T) {
	tr := terms()

	tests := []struct {
		name   string
		now    time.Time
		want   time.Time
		wantOK bool
	}{
		{"before start", start.Add(-day), start, true},
		{"during tge window", start.Add(10 * day), start.Add(60 * day), true},
		{"at cliff end", start.Add(30 * day), start.Add(60 * day), true},
		{"mid vesting", start.Add(70 * day), start.Add(90 * day), true},
		{"last period capped at end", start.Add(329 * day), start.Add(330 * day), true},
		{"at end", start.Add(330 * day), time.Time{}, false},
		{"past end", start.Add(400 * day), time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := schedule.NextUnlock(tr, tt.now)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("next = %v, want %v", got, tt.want)
			}
		})
	}

	inert := tr
	inert.Start = time.Time{}
	if _, ok := schedule.NextUnlock(inert, start); ok {
		t.Error("expected no next unlock for inert schedule")
	}
}

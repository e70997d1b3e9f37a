package types

import (
	"encoding/json"
	"testing"
)

func TestAmountArithmetic(t *testing.T) {
	a := NewAmount(1000)
	b := NewAmount(100)

	if got := a.Add(b); got.String() != "1100" {
		t.Errorf("Add = %s, want 1100", got)
	}
	if got := a.Sub(b); got.String() != "900" {
		t.Errorf("Sub = %s, want 900", got)
	}
	if got := b.SubFloor(a); !got.IsZero() {
		t.Errorf("SubFloor below zero = %s, want 0", got)
	}
	if got := a.Mul(3); got.String() != "3000" {
		t.Errorf("Mul = %s, want 3000", got)
	}
	if got := a.Div(3); got.String() != "333" {
		t.Errorf("Div = %s, want 333 (truncated)", got)
	}
}

func TestAmountSubPanicsOnUnderflow(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on underflow")
		}
	}()
	NewAmount(1).Sub(NewAmount(2))
}

func TestAmountMulDiv(t *testing.T) {
	tests := []struct {
		name     string
		a        Amount
		num, den uint64
		want     string
	}{
		{"tge slice", NewAmount(1000), 10, 100, "100"},
		{"truncates toward zero", NewAmount(999), 10, 100, "99"},
		{"full precision intermediate", MustAmount("300000000000000000000"), 25, 100, "75000000000000000000"},
		{"linear unlock span", NewAmount(900), 2592000, 25920000, "90"},
		{"zero amount", ZeroAmount(), 7, 13, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.MulDiv(tt.num, tt.den); got.String() != tt.want {
				t.Errorf("MulDiv(%d, %d) = %s, want %s", tt.num, tt.den, got, tt.want)
			}
		})
	}
}

func TestAmountComparison(t *testing.T) {
	a := NewAmount(100)
	b := NewAmount(200)

	if !a.LessThan(b) || b.LessThan(a) {
		t.Error("LessThan ordering wrong")
	}
	if !b.GreaterThan(a) {
		t.Error("GreaterThan ordering wrong")
	}
	if !a.Equal(NewAmount(100)) {
		t.Error("Equal failed for same value")
	}
	if got := a.Min(b); !got.Equal(a) {
		t.Errorf("Min = %s, want %s", got, a)
	}
	if !ZeroAmount().IsZero() {
		t.Error("zero value not zero")
	}
	if !a.IsPositive() || ZeroAmount().IsPositive() {
		t.Error("IsPositive wrong")
	}
}

func TestAmountParse(t *testing.T) {
	if _, err := ParseAmount(""); err == nil {
		t.Error("expected error for empty string")
	}
	if _, err := ParseAmount("-5"); err == nil {
		t.Error("expected error for negative value")
	}
	if _, err := ParseAmount("12x"); err == nil {
		t.Error("expected error for non-numeric value")
	}

	a, err := ParseAmount("340282366920938463463374607431768211456")
	if err != nil {
		t.Fatalf("ParseAmount: %v", err)
	}
	if a.String() != "340282366920938463463374607431768211456" {
		t.Errorf("round trip = %s", a)
	}
}

func TestAmountJSON(t *testing.T) {
	type wrapper struct {
		Total Amount `json:"total"`
	}

	data, err := json.Marshal(wrapper{Total: NewAmount(123456)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"total":"123456"}` {
		t.Errorf("marshal = %s", data)
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"total":"99"}`), &w); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if w.Total.String() != "99" {
		t.Errorf("unmarshal string = %s", w.Total)
	}

	// Bare numbers are accepted for compatibility.
	if err := json.Unmarshal([]byte(`{"total":42}`), &w); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if w.Total.String() != "42" {
		t.Errorf("unmarshal number = %s", w.Total)
	}
}

func TestAmountScan(t *testing.T) {
	var a Amount
	if err := a.Scan("777"); err != nil {
		t.Fatalf("scan string: %v", err)
	}
	if a.String() != "777" {
		t.Errorf("scan string = %s", a)
	}

	if err := a.Scan(int64(-1)); err == nil {
		t.Error("expected error scanning negative int64")
	}

	if err := a.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if !a.IsZero() {
		t.Errorf("scan nil = %s, want 0", a)
	}
}

func TestSumAmounts(t *testing.T) {
	got := SumAmounts(NewAmount(1), NewAmount(2), NewAmount(3))
	if got.String() != "6" {
		t.Errorf("SumAmounts = %s, want 6", got)
	}
	if !SumAmounts().IsZero() {
		t.Error("empty sum not zero")
	}
}

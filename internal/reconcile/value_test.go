package reconcile

import (
	"errors"
	"testing"
)

func TestParseCellNumbers(t *testing.T) {
	v, err := ParseCell("105")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Present || v.Dec.String() != "105" {
		t.Fatalf("unexpected value: %+v", v)
	}

	v, err = ParseCell("10,5")
	if err != nil {
		t.Fatalf("comma separator: %v", err)
	}
	if v.Dec.String() != "10.5" {
		t.Fatalf("expected 10.5, got %s", v.Dec)
	}

	v, err = ParseCell(" 99.90 ")
	if err != nil {
		t.Fatalf("padded: %v", err)
	}
	if v.Dec.String() != "99.9" {
		t.Fatalf("expected 99.9, got %s", v.Dec)
	}
}

func TestParseCellNoValue(t *testing.T) {
	for _, raw := range []string{"", "   ", "Нет Значения", "Нет значения"} {
		v, err := ParseCell(raw)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", raw, err)
		}
		if v.Present {
			t.Fatalf("%q: expected no-value sentinel", raw)
		}
	}
}

func TestParseCellInvalidFormat(t *testing.T) {
	_, err := ParseCell("abc")
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	_, err = ParseCell("12.3.4")
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestParseCellOrZero(t *testing.T) {
	d, err := ParseCellOrZero("Нет Значения")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.IsZero() {
		t.Fatalf("expected zero, got %s", d)
	}
	d, err = ParseCellOrZero("45")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "45" {
		t.Fatalf("expected 45, got %s", d)
	}
	if _, err = ParseCellOrZero("x"); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

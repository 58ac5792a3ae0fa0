package extract

import (
	"strings"
	"testing"
)

func TestExtractUnknownTypeRunsGenericOnly(t *testing.T) {
	body := "Total a pagar: $5.990\nConsumo: 45 m3\n"

	attrs := Extract("Boleta: 123456", body, "unknown")

	if got := attrs[FieldTotalAmount]; got != "5.990" {
		t.Errorf("total: got %q, want %q", got, "5.990")
	}
	if _, ok := attrs[FieldConsumptionM3]; ok {
		t.Errorf("consumption should be absent for unknown type, got %q", attrs[FieldConsumptionM3])
	}
}

func TestExtractTypeOverridesGeneric(t *testing.T) {
	// Gas rewrites the total from the plain-number pattern; both passes see
	// the same labels but the provider result must win.
	body := "Total a pagar\n12.013\n"

	attrs := Extract("", body, "gas")

	if got := attrs[FieldTotalAmount]; got != "12.013" {
		t.Errorf("got %q, want %q", got, "12.013")
	}
}

func TestExtractTruncatesLongText(t *testing.T) {
	// An amount placed past the truncation point must not be found.
	body := strings.Repeat("x", maxTextLen) + "\nTotal a pagar: $9.999"

	attrs := Extract("", body, "unknown")

	if got, ok := attrs[FieldTotalAmount]; ok {
		t.Errorf("total should be absent past the length cap, got %q", got)
	}
}

func TestExtractCombinesSubjectAndBody(t *testing.T) {
	attrs := Extract("Total a pagar en tu boleta", "$4.500 hasta el 15-02-2026", "unknown")

	// Label in the subject, value at the start of the body: the combined
	// text keeps them within one search window.
	if got := attrs[FieldTotalAmount]; got != "4.500" {
		t.Errorf("got %q, want %q", got, "4.500")
	}
}

func TestExtractPanicInProviderPassKeepsGenericResult(t *testing.T) {
	ov := runTypeExtractor(func(string) overlay {
		panic("pattern bug")
	}, "any text")

	if len(ov.set) != 0 || len(ov.clear) != 0 {
		t.Errorf("expected empty overlay after recovered panic, got %+v", ov)
	}
}

package extract

import (
	"testing"
)

func TestGasPlainAmountOverride(t *testing.T) {
	// Metrogas writes the total without a currency symbol.
	subject := "METROGAS S.A. Boleta: 4455667"
	body := "Total a pagar\n12.013\nVencimiento: 15-02-2026\n"

	attrs := Extract(subject, body, "gas")

	if got := attrs[FieldTotalAmount]; got != "12.013" {
		t.Errorf("total: got %q, want %q", got, "12.013")
	}
}

func TestGasKeepsCurrencyAmountWhenPresent(t *testing.T) {
	ov := extractGas("Total a pagar: $8.500")

	// The plain pattern matches the same digits the currency pattern would.
	if got := ov.set[FieldTotalAmount]; got != "8.500" {
		t.Errorf("got %q, want %q", got, "8.500")
	}
}

func TestGasConsumptionLabelAnchoredOnly(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "labeled consumption",
			text:     "Consumo: 45 m3 del periodo",
			expected: "45",
		},
		{
			name:     "bare m3 without label is ignored",
			text:     "La red distribuyó 1200 m3 en su comuna",
			expected: "",
		},
		{
			name:     "label without figure in window",
			text:     "Consumo del periodo informado en la boleta adjunta con detalle completo: 45 m3",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ov := extractGas(tt.text)
			if got := ov.set[FieldConsumptionM3]; got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGasMetropuntos(t *testing.T) {
	ov := extractGas("Metropuntos acumulados: 1350")

	if got := ov.set[FieldMetropuntos]; got != "1350" {
		t.Errorf("got %q, want %q", got, "1350")
	}
}

package extract

// extractGas handles gas-utility layouts (Metrogas).
func extractGas(text string) overlay {
	ov := newOverlay()

	// Metrogas writes the amount without a currency symbol, which the
	// generic currency pattern requires; re-anchor to the same labels with
	// a plain number and override when found.
	for _, label := range totalAmountLabels {
		if v := findInWindows(text, label, plainAmountPattern, amountWindow); v != "" {
			ov.set[FieldTotalAmount] = v
			break
		}
	}

	// Label-anchored only: this provider often omits consumption from the
	// body, and a bare-unit fallback would pick stray m³ figures instead.
	for _, w := range windowsAfter(text, consumptionLabel, amountWindow) {
		if m := m3Pattern.FindStringSubmatch(w); m != nil {
			ov.set[FieldConsumptionM3] = m[1]
			break
		}
	}

	if v := findInWindows(text, metropuntosLabel, plainNumberPattern, readingWindow); v != "" {
		ov.set[FieldMetropuntos] = v
	}

	return ov
}

package extract

import "strings"

// extractWater handles water-utility layouts (Aguas Andinas and friends).
func extractWater(text string) overlay {
	ov := newOverlay()

	// Consumption is label-independent: the first m³ figure anywhere.
	if m := m3Pattern.FindStringSubmatch(text); m != nil {
		ov.set[FieldConsumptionM3] = m[1]
	}

	// Meter readings: every labelled occurrence, as one value when unique,
	// otherwise joined in reading order.
	var readings []string
	for _, w := range windowsAfter(text, meterReadingLabel, readingWindow) {
		if v := plainNumberPattern.FindString(w); v != "" {
			readings = append(readings, v)
		}
	}
	if len(readings) > 0 {
		ov.set[FieldMeterReading] = strings.Join(readings, ", ")
	}

	if v := findInWindows(text, meterNumberLabel, plainNumberPattern, readingWindow); v != "" {
		ov.set[FieldMeterNumber] = v
	}

	// The packed address+account block defeats generic label search, so a
	// match here overrides both generic fields.
	if m := packedValuesPattern.FindStringSubmatch(text); m != nil {
		ov.set[FieldAddress] = collapseWhitespace(m[1])
		ov.set[FieldCustomerNumber] = m[2]
	}

	return ov
}

package extract

import "strings"

// extractElectricity handles electricity-utility layouts (Enel).
func extractElectricity(text string) overlay {
	ov := newOverlay()

	// Consumption: prefer the labelled kWh figure, fall back to the first
	// bare kWh match anywhere.
	found := false
	for _, w := range windowsAfter(text, consumptionLabel, amountWindow) {
		if m := kwhPattern.FindStringSubmatch(w); m != nil {
			ov.set[FieldConsumptionKWh] = m[1]
			found = true
			break
		}
	}
	if !found {
		if m := kwhPattern.FindStringSubmatch(text); m != nil {
			ov.set[FieldConsumptionKWh] = m[1]
		}
	}

	// Contracted power: label-anchored kW, never kWh.
	for _, w := range windowsAfter(text, contractedPowerLabel, amountWindow) {
		if m := kwPattern.FindStringSubmatch(w); m != nil {
			ov.set[FieldContractedPowerKW] = m[1]
			break
		}
	}

	// "N° Boleta NNNNNN del DD-MM-YYYY": invoice number and issue date.
	if m := boletaPhrasePattern.FindStringSubmatch(text); m != nil {
		ov.set[FieldFolio] = m[1]
		ov.set[FieldIssueDate] = m[2]
	}

	// "... ubicado en ADDRESS ya está disponible": the service address.
	if m := enelAddressPattern.FindStringSubmatch(text); m != nil {
		ov.set[FieldAddress] = collapseWhitespace(m[1])
	}

	// "próximo periodo de facturación DATE - DATE". When present, the
	// generic date scan has already mis-assigned the boleta date and due
	// date to the billing period, so both generic fields are cleared.
	if m := nextPeriodPattern.FindStringSubmatch(text); m != nil {
		ov.set[FieldNextBillingPeriodStart] = m[1]
		ov.set[FieldNextBillingPeriodEnd] = m[2]
		ov.clear = append(ov.clear, FieldBillingPeriodStart, FieldBillingPeriodEnd)
	}

	if m := consumptionTypePattern.FindStringSubmatch(text); m != nil {
		ov.set[FieldConsumptionType] = strings.ToLower(m[1])
	}

	return ov
}

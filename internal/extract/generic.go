package extract

import (
	"regexp"
	"strings"
)

// extractGeneric runs the label-based and positional heuristics that work
// for any provider. Sub-searches are independent; a field that doesn't
// match is left out, never an error.
func extractGeneric(subject, text string) map[string]string {
	attrs := make(map[string]string)

	// Subject-only identifiers: folio, RUT, uppercase company name.
	for _, re := range folioSubjectPatterns {
		if m := re.FindStringSubmatch(subject); m != nil {
			attrs[FieldFolio] = m[1]
			break
		}
	}
	if m := rutPattern.FindStringSubmatch(subject); m != nil {
		attrs[FieldRUT] = m[1]
	}
	if m := companySubjectPattern.FindStringSubmatch(subject); m != nil {
		attrs[FieldCompany] = strings.TrimSpace(m[1])
	}

	if amount := findLabeledValue(text, totalAmountLabels, currencyPatterns, amountWindow); amount != "" {
		attrs[FieldTotalAmount] = amount
	} else if amount := findFirstSubmatch(text, currencyPatterns); amount != "" {
		// No label anywhere: first currency-shaped amount in the text.
		attrs[FieldTotalAmount] = amount
	}

	for _, label := range customerNumberLabels {
		if v := findInWindows(text, label, customerNumberValue, accountWindow); v != "" {
			attrs[FieldCustomerNumber] = v
			break
		}
	}

	if addr := findLabeledAddress(text); addr != "" {
		attrs[FieldAddress] = addr
	}

	if due := findLabeledValue(text, dueDateLabels, datePatterns, dateWindow); due != "" {
		attrs[FieldDueDate] = due
	}

	// Billing period: the first two distinct dates in the whole text, in
	// pattern-then-position order. Best-effort by design; provider passes
	// correct it where the first two dates are unrelated to the period.
	dates := firstDates(text, 2)
	if len(dates) > 0 {
		attrs[FieldBillingPeriodStart] = dates[0]
	}
	if len(dates) > 1 {
		attrs[FieldBillingPeriodEnd] = dates[1]
	}

	return attrs
}

// findLabeledValue searches the window after each occurrence of each label,
// in label priority order, for the first value pattern that matches.
func findLabeledValue(text string, labels, values []*regexp.Regexp, window int) string {
	for _, label := range labels {
		for _, w := range windowsAfter(text, label, window) {
			for _, value := range values {
				if m := value.FindStringSubmatch(w); m != nil {
					return m[len(m)-1]
				}
			}
		}
	}
	return ""
}

// findInWindows returns the first match of value in the window after any
// occurrence of label.
func findInWindows(text string, label, value *regexp.Regexp, window int) string {
	for _, w := range windowsAfter(text, label, window) {
		if v := value.FindString(w); v != "" {
			return v
		}
	}
	return ""
}

// windowsAfter returns up to n bytes of text following each label match.
func windowsAfter(text string, label *regexp.Regexp, n int) []string {
	var out []string
	for _, loc := range label.FindAllStringIndex(text, -1) {
		end := loc[1] + n
		if end > len(text) {
			end = len(text)
		}
		out = append(out, text[loc[1]:end])
	}
	return out
}

func findFirstSubmatch(text string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[len(m)-1]
		}
	}
	return ""
}

// findLabeledAddress takes the first non-empty line following an address
// label, whitespace-collapsed, accepted only at a plausible length.
func findLabeledAddress(text string) string {
	for _, label := range addressLabels {
		for _, loc := range label.FindAllStringIndex(text, -1) {
			rest := text[loc[1]:]
			for _, line := range strings.Split(rest, "\n") {
				line = collapseWhitespace(strings.Trim(line, " \t:="))
				if line == "" {
					continue
				}
				if n := len([]rune(line)); n >= 5 && n <= 120 {
					return line
				}
				break // first non-empty line was implausible; try next label site
			}
		}
	}
	return ""
}

// firstDates collects up to max distinct date strings, scanning the date
// patterns in priority order and each pattern's matches in position order.
func firstDates(text string, max int) []string {
	var out []string
	seen := make(map[string]bool)
	for _, re := range datePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			d := m[1]
			if seen[d] {
				continue
			}
			seen[d] = true
			out = append(out, d)
			if len(out) == max {
				return out
			}
		}
	}
	return out
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

package extract

import "regexp"

// The pattern library. Pure data, compiled once: adding or fixing a
// provider means touching these tables, never the extractor control flow.
// Every slice where order matters is an ordered priority list and the
// first match wins.

// Combined subject+body text is truncated before matching to bound cost.
const maxTextLen = 15000

// Search window sizes, in bytes after a label match.
const (
	amountWindow  = 60
	accountWindow = 80
	dateWindow    = 60
	readingWindow = 40
)

// Folio-style identifiers, matched against the subject only. At least six
// digits, so short plan or branch numbers don't qualify.
var folioSubjectPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)folio[:\s]*([0-9]{6,})`),
	regexp.MustCompile(`(?i)nro\.?[:\s]*([0-9]{6,})`),
	regexp.MustCompile(`(?i)n[úu]mero[:\s]*([0-9]{6,})`),
	regexp.MustCompile(`(?i)boleta[:\s]*([0-9]{6,})`),
	regexp.MustCompile(`(?i)factura[:\s]*([0-9]{6,})`),
}

// Labels that announce the amount due. Specific phrasings first, bare
// "total"/"monto" as a last resort.
var totalAmountLabels = []*regexp.Regexp{
	regexp.MustCompile(`(?i)total\s+a\s+pagar`),
	regexp.MustCompile(`(?i)monto\s+a\s+pagar`),
	regexp.MustCompile(`(?i)total\s+boleta`),
	regexp.MustCompile(`(?i)importe\s+total`),
	regexp.MustCompile(`(?i)amount\s+due`),
	regexp.MustCompile(`(?i)total\s+due`),
	regexp.MustCompile(`(?i)\btotal\b`),
	regexp.MustCompile(`(?i)\bmonto\b`),
}

// Currency amounts: $-prefixed, or suffixed with a currency word. Thousands
// separator may be "." or ",", decimals the other of the two. The captured
// group is the digit/separator string exactly as written.
var currencyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\s*([0-9]{1,3}(?:[.,][0-9]{3})*(?:[.,][0-9]{2})?)`),
	regexp.MustCompile(`(?i)([0-9]{1,3}(?:[.,][0-9]{3})*(?:[.,][0-9]{2})?)\s*(?:CLP|USD|EUR|pesos?)`),
}

// Same numeric shape without a currency marker, for providers that write
// bare amounts (gas).
var plainAmountPattern = regexp.MustCompile(`[0-9]{1,3}(?:[.,][0-9]{3})*(?:[.,][0-9]{2})?`)

var customerNumberLabels = []*regexp.Regexp{
	regexp.MustCompile(`(?i)n[úu]mero\s+de\s+cliente`),
	regexp.MustCompile(`(?i)n[º°o]\.?\s*(?:de\s+)?cliente`),
	regexp.MustCompile(`(?i)n[úu]mero\s+de\s+cuenta`),
	regexp.MustCompile(`(?i)n[º°]\s*(?:de\s+)?servicio`),
	regexp.MustCompile(`(?i)customer\s+number`),
	regexp.MustCompile(`(?i)account\s+number`),
}

// Account identifiers: digits with embedded dots or dashes, 1-20 characters.
var customerNumberValue = regexp.MustCompile(`[0-9][0-9.\-]{0,19}`)

var addressLabels = []*regexp.Regexp{
	regexp.MustCompile(`(?i)direcci[óo]n`),
	regexp.MustCompile(`(?i)domicilio`),
	regexp.MustCompile(`(?i)\baddress\b`),
}

var dueDateLabels = []*regexp.Regexp{
	regexp.MustCompile(`(?i)fecha\s+de\s+vencimiento`),
	regexp.MustCompile(`(?i)\bvencimiento\b`),
	regexp.MustCompile(`(?i)due\s+date`),
}

// The three supported date formats, in priority order: numeric
// DD/MM/YYYY (or dashes), Spanish "D de MMMM de YYYY", English "Month D, YYYY".
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b([0-9]{1,2}[/-][0-9]{1,2}[/-][0-9]{2,4})\b`),
	regexp.MustCompile(`(?i)\b([0-9]{1,2}\s+de\s+[a-záéíóúñ]+\s+de\s+[0-9]{4})\b`),
	regexp.MustCompile(`(?i)\b([a-z]+\s+[0-9]{1,2},?\s+[0-9]{4})\b`),
}

// Chilean RUT as written in subjects (NN.NNN.NNN-K).
var rutPattern = regexp.MustCompile(`\b([0-9]{1,2}\.[0-9]{3}\.[0-9]{3}-[0-9kK])\b`)

// Uppercase company names ending in "S.A.", captured without the suffix.
var companySubjectPattern = regexp.MustCompile(`\b([A-ZÁÉÍÓÚÑ]{3,}(?:\s+[A-ZÁÉÍÓÚÑ]{2,}){0,3})\s+S\.?A\.?`)

// --- Water ---

var (
	m3Pattern          = regexp.MustCompile(`(?i)([0-9]+(?:[.,][0-9]+)?)\s*m\s?[3³]`)
	meterReadingLabel  = regexp.MustCompile(`(?i)lectura\s+(?:anterior|actual|(?:del\s+)?medidor)`)
	meterNumberLabel   = regexp.MustCompile(`(?i)(?:n[úu]mero|n[º°])\s*(?:de\s+)?medidor`)
	plainNumberPattern = regexp.MustCompile(`[0-9]+(?:[.,][0-9]+)?`)

	// Aguas Andinas packs address and account number into one text block
	// separated by a run of spaces; the account is 5+ digits, dash, check
	// digit. Label-based search cannot split the block, so this pattern
	// takes precedence over the generic address/customer_number results.
	packedValuesPattern = regexp.MustCompile(`(?m)(\S[^\n\t]{3,}?)\s{2,}([0-9]{5,}-[0-9])\b`)
)

// --- Gas ---

var (
	consumptionLabel = regexp.MustCompile(`(?i)\bconsumo\b`)
	metropuntosLabel = regexp.MustCompile(`(?i)metropuntos`)
)

// --- Electricity ---

var (
	kwhPattern = regexp.MustCompile(`(?i)([0-9]+(?:[.,][0-9]+)?)\s*kwh`)
	// \b after "kw" rejects "kwh", so contracted power never captures the
	// consumption figure.
	kwPattern           = regexp.MustCompile(`(?i)([0-9]+(?:[.,][0-9]+)?)\s*kw\b`)
	contractedPowerLabel = regexp.MustCompile(`(?i)potencia\s+contratada`)

	// Enel body phrases.
	boletaPhrasePattern = regexp.MustCompile(`(?i)n[º°]?\s*boleta\s*(?:electr[óo]nica\s*)?(?:n[º°]\s*)?([0-9]{5,})\s+del?\s+([0-9]{1,2}[/-][0-9]{1,2}[/-][0-9]{2,4})`)
	enelAddressPattern  = regexp.MustCompile(`(?i)ubicado\s+en\s+(.+?)\s+ya\s+est[áa]\s+disponible`)
	nextPeriodPattern   = regexp.MustCompile(`(?i)pr[óo]ximo\s+per[íi]odo\s+de\s+facturaci[óo]n\s*:?\s*([0-9]{1,2}[/-][0-9]{1,2}[/-][0-9]{2,4})\s*(?:-|al?)\s*([0-9]{1,2}[/-][0-9]{1,2}[/-][0-9]{2,4})`)
	consumptionTypePattern = regexp.MustCompile(`(?i)consumo\s+(real|estimado)`)
)

package service

import "regexp"

// providerPattern maps a sender/subject regex to a display name and type.
type providerPattern struct {
	re   *regexp.Regexp
	name string
	typ  Type
}

// Known provider patterns, ordered: specific providers before the generic
// "compañía de ..." fallbacks. First match wins, so overlapping patterns are
// resolved by position, never by specificity.
var providerPatterns = []providerPattern{
	// Water utilities
	{regexp.MustCompile(`(?i)aguas?\s+andinas?`), "Aguas Andinas", TypeWater},
	{regexp.MustCompile(`(?i)essbio|esval|nuevo\s+sur`), "Agua", TypeWater},
	// Electricity utilities
	{regexp.MustCompile(`(?i)enel|chilectra|cge\s+distribuci[oó]n`), "Electricidad", TypeElectricity},
	// Gas utilities
	{regexp.MustCompile(`(?i)metrogas|lipigas|gasco`), "Gas", TypeGas},
	// Telecom
	{regexp.MustCompile(`(?i)movistar|entel|claro|wom|vtr`), "Telecomunicaciones", TypeTelecom},
	{regexp.MustCompile(`(?i)mundo.*pac[íi]fico|gtd|telefonica`), "Internet/TV", TypeTelecom},
	// Generic utility fallbacks
	{regexp.MustCompile(`(?i)compa[ñn][íi]a\s+de\s+agua`), "Agua", TypeWater},
	{regexp.MustCompile(`(?i)compa[ñn][íi]a\s+de\s+electricidad`), "Electricidad", TypeElectricity},
	{regexp.MustCompile(`(?i)compa[ñn][íi]a\s+de\s+gas`), "Gas", TypeGas},
}

// Classify maps a sender address and subject to a service type using the
// known-provider patterns. Returns TypeUnknown when nothing matches.
func Classify(from, subject string) Type {
	combined := from + " " + subject
	for _, p := range providerPatterns {
		if p.re.MatchString(combined) {
			return p.typ
		}
	}
	return TypeUnknown
}

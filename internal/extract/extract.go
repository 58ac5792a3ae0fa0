package extract

import (
	"log"

	"github.com/concierge-services/concierge/internal/service"
)

// typeExtractors dispatches the provider-family pass by service type.
// Adding a provider family means adding a type and a table entry, not
// editing a branch chain. Types without an entry (telecom, unknown) run
// the generic pass only.
var typeExtractors = map[service.Type]func(string) overlay{
	service.TypeWater:       extractWater,
	service.TypeGas:         extractGas,
	service.TypeElectricity: extractElectricity,
}

// Extract runs the generic pass over the combined subject+body text, then
// the provider-family pass for the given type, and merges the two: provider
// keys win on conflict, and cleared keys are removed from the final result.
// Extraction never fails; at worst the result degrades to whatever fields
// were already collected.
func Extract(subject, body string, svcType service.Type) Attributes {
	combined := subject + "\n\n" + body
	if len(combined) > maxTextLen {
		combined = combined[:maxTextLen]
	}

	attrs := Attributes(extractGeneric(subject, combined))

	fn, ok := typeExtractors[svcType]
	if !ok {
		return attrs
	}
	ov := runTypeExtractor(fn, combined)
	for k, v := range ov.set {
		attrs[k] = v
	}
	for _, k := range ov.clear {
		delete(attrs, k)
	}
	return attrs
}

// runTypeExtractor isolates a provider pass so a pattern bug can never take
// down a refresh cycle; the generic result stands on its own.
func runTypeExtractor(fn func(string) overlay, text string) (ov overlay) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Warning: type-specific extraction failed: %v", r)
			ov = newOverlay()
		}
	}()
	return fn(text)
}

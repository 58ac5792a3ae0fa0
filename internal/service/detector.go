package service

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/concierge-services/concierge/internal/mailtext"
)

// Mailbox is the slice of an open mailbox session the detector needs.
type Mailbox interface {
	ListMessageIDs() ([]uint32, error)
	FetchRaw(id uint32) ([]byte, error)
}

// Vocabulary that flags a message as billing-related. Any single hit on the
// combined sender+subject+body text qualifies.
var billingIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)factura|boleta|cuenta|cuota|pago|cobro|consumo`),
	regexp.MustCompile(`(?i)invoice|bill|payment|statement`),
	regexp.MustCompile(`(?i)folio|n[úu]mero de cuenta|n[º°] de cliente`),
	regexp.MustCompile(`(?i)vencimiento|fecha de pago|total a pagar|monto`),
	regexp.MustCompile(`(?i)due date|amount due|total due`),
	regexp.MustCompile(`(?i)dte|documento tributario|electronica`),
}

var (
	senderDomainPattern = regexp.MustCompile(`@([a-zA-Z0-9\-]+)\.[a-zA-Z]+`)
	domainPrefixPattern = regexp.MustCompile(`(?i)^(admin|noreply|info|facturacion|dte|no-reply)`)
	domainSuffixPattern = regexp.MustCompile(`(?i)(admin|cl)$`)
	// Uppercase multi-word company names ending in "S.A.", e.g. "AGUAS CORDILLERA S.A."
	companyPattern  = regexp.MustCompile(`\b[A-ZÁÉÍÓÚÑ]{2,}(?:\s+[A-ZÁÉÍÓÚÑ]{2,}){0,3}\s+S\.?A\.?`)
	companySASuffix = regexp.MustCompile(`\s+S\.?A\.?$`)
)

// Bills arrive with an attached document; detection only keeps bodies short.
const detectBodyLimit = 5000

// Detect scans up to scanLimit of the most recent mailbox messages and
// aggregates plausible billing senders into a deduplicated service list.
// A single message failing to fetch or parse is skipped; a mailbox-level
// failure propagates, since detection cannot proceed without one.
func Detect(mbox Mailbox, scanLimit int) ([]Detected, error) {
	ids, err := mbox.ListMessageIDs()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if len(ids) > scanLimit {
		ids = ids[len(ids)-scanLimit:]
	}

	log.Printf("Scanning %d emails for service detection", len(ids))

	byID := make(map[string]*Detected)
	var order []string

	for _, id := range ids {
		raw, err := mbox.FetchRaw(id)
		if err != nil {
			log.Printf("Warning: failed to fetch message %d: %v", id, err)
			continue
		}
		msg, err := mailtext.Parse(raw)
		if err != nil {
			log.Printf("Warning: failed to parse message %d: %v", id, err)
			continue
		}
		// Billing emails are assumed to arrive with an attached document.
		if !msg.HasAttachment {
			continue
		}

		body := msg.Body
		if len(body) > detectBodyLimit {
			body = body[:detectBodyLimit]
		}

		if !isBillingEmail(msg.From, msg.Subject, body) {
			continue
		}

		name, serviceID, typ, ok := resolveIdentity(msg.From, msg.Subject, body)
		if !ok {
			continue
		}

		if d, seen := byID[serviceID]; seen {
			d.EmailCount++
			continue
		}
		byID[serviceID] = &Detected{
			Name:          name,
			ID:            serviceID,
			Type:          typ,
			SampleSubject: msg.Subject,
			SampleFrom:    msg.From,
			EmailCount:    1,
		}
		order = append(order, serviceID)
	}

	out := make([]Detected, 0, len(order))
	for _, key := range order {
		out = append(out, *byID[key])
	}
	return out, nil
}

func isBillingEmail(from, subject, body string) bool {
	combined := from + " " + subject + " " + body
	for _, re := range billingIndicators {
		if re.MatchString(combined) {
			return true
		}
	}
	return false
}

// resolveIdentity extracts a candidate service identity from one message,
// in priority order: known-provider patterns, sender-domain heuristic,
// uppercase "... S.A." subject heuristic.
func resolveIdentity(from, subject, body string) (name, id string, typ Type, ok bool) {
	combined := from + " " + subject + " " + body
	for _, p := range providerPatterns {
		if p.re.MatchString(combined) {
			return p.name, Slug(p.name), p.typ, true
		}
	}

	if m := senderDomainPattern.FindStringSubmatch(from); m != nil {
		domain := domainPrefixPattern.ReplaceAllString(m[1], "")
		domain = domainSuffixPattern.ReplaceAllString(domain, "")
		domain = strings.Trim(domain, "-_")
		// Very short remainders ("cl", "dte") say nothing about the company.
		if len(domain) > 3 {
			name = titleWords(splitDomainWords(domain))
			return name, Slug(domain), TypeUnknown, true
		}
	}

	if m := companyPattern.FindString(subject); m != "" {
		company := strings.TrimSpace(companySASuffix.ReplaceAllString(m, ""))
		return titleWords(strings.Fields(strings.ToLower(company))), Slug(company), TypeUnknown, true
	}

	return "", "", TypeUnknown, false
}

var domainWordSeparator = regexp.MustCompile(`[-_]`)

func splitDomainWords(domain string) []string {
	return domainWordSeparator.Split(domain, -1)
}

func titleWords(words []string) string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		out = append(out, strings.ToUpper(string(r[0]))+string(r[1:]))
	}
	return strings.Join(out, " ")
}

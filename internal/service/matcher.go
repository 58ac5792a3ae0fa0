package service

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Matches reports whether a message belongs to the given configured
// service. Three criteria are checked and any one suffices, so that
// sender-address or subject drift between billing cycles does not orphan
// a service:
//
//  1. the domain label of the stored sample sender appears in the message
//     sender,
//  2. every significant word (longer than 3 characters) of the service name
//     appears somewhere in sender+subject+body,
//  3. the service id, with underscores as wildcard gaps, matches the same
//     combined text.
//
// A name with no significant words fails criterion 2 outright and falls
// through to the others.
func Matches(rec Record, from, subject, body string) bool {
	combined := strings.ToLower(from + " " + subject + " " + body)

	if m := senderDomainPattern.FindStringSubmatch(rec.SampleFrom); m != nil {
		if strings.Contains(strings.ToLower(from), strings.ToLower(m[1])) {
			return true
		}
	}

	if rec.Name != "" {
		significant, matched := 0, 0
		for _, word := range strings.Fields(strings.ToLower(rec.Name)) {
			if utf8.RuneCountInString(word) <= 3 {
				continue
			}
			significant++
			if strings.Contains(combined, word) {
				matched++
			}
		}
		if significant > 0 && matched == significant {
			return true
		}
	}

	if rec.ID != "" {
		idPattern := "(?i)" + strings.ReplaceAll(rec.ID, "_", ".*")
		if re, err := regexp.Compile(idPattern); err == nil && re.MatchString(combined) {
			return true
		}
	}

	return false
}

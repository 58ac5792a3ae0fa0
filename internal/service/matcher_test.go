package service

import (
	"testing"
)

func TestMatchesBySampleSenderDomain(t *testing.T) {
	rec := Record{
		ID:         "metrogas",
		Name:       "Gas",
		SampleFrom: "noreply@metrogas.cl",
	}

	if !Matches(rec, "boletas@metrogas.cl", "Documento disponible", "") {
		t.Error("same domain with a different local part should match")
	}
	if Matches(rec, "ventas@lipigas.cl", "Oferta", "") {
		t.Error("unrelated sender should not match")
	}
}

func TestMatchesByDomainAlone(t *testing.T) {
	// Name has no significant words and the id appears nowhere in the
	// message; the sample-sender domain is the only criterion left.
	rec := Record{
		ID:         "gas_natural",
		Name:       "Gas",
		SampleFrom: "noreply@metrogas.cl",
	}

	if !Matches(rec, "boletas@metrogas.cl", "Documento disponible", "") {
		t.Error("domain criterion alone should be sufficient")
	}
}

func TestMatchesBySignificantNameWords(t *testing.T) {
	rec := Record{
		ID:   "aguas_cordillera",
		Name: "Aguas Cordillera",
	}

	tests := []struct {
		name     string
		from     string
		subject  string
		body     string
		expected bool
	}{
		{
			name:     "all words in subject",
			from:     "contacto@otrodominio.cl",
			subject:  "Aguas Cordillera: boleta del mes",
			expected: true,
		},
		{
			name:     "words split across subject and body",
			from:     "contacto@otrodominio.cl",
			subject:  "Boleta Aguas",
			body:     "Cordillera le informa su consumo",
			expected: true,
		},
		{
			name:     "one word missing",
			from:     "contacto@otrodominio.cl",
			subject:  "Aguas del Valle: boleta",
			expected: false,
		},
		{
			name:     "case insensitive",
			from:     "contacto@otrodominio.cl",
			subject:  "AGUAS CORDILLERA boleta",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Matches(rec, tt.from, tt.subject, tt.body)
			if got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMatchesShortNameFallsThrough(t *testing.T) {
	// "Gas" has no word longer than 3 characters, so the name criterion
	// can never satisfy the match on its own.
	rec := Record{Name: "Gas"}

	if Matches(rec, "cualquiera@example.cl", "gas gas gas", "gas") {
		t.Error("a name with no significant words should not match by name")
	}
}

func TestMatchesByIDWildcard(t *testing.T) {
	rec := Record{ID: "aguas_andinas"}

	if !Matches(rec, "noreply@aguasandinas.cl", "Boleta", "") {
		t.Error("underscores should bridge the joined domain form")
	}
	if !Matches(rec, "x@y.cl", "", "Aguas Andinas le saluda") {
		t.Error("wildcard gap should span the space between words")
	}
	if Matches(rec, "x@y.cl", "Boleta Esval", "") {
		t.Error("unrelated text should not match the id")
	}
}

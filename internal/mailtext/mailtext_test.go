package mailtext

import (
	"strings"
	"testing"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "simple tags removed",
			html:     "<p>Total a pagar: <b>$12.013</b></p>",
			expected: "Total a pagar:\n$12.013",
		},
		{
			name:     "script content dropped",
			html:     "<script>var x = 1;</script><p>Boleta disponible</p>",
			expected: "Boleta disponible",
		},
		{
			name:     "style content dropped",
			html:     "<style>p { color: red }</style><div>Consumo 45 m3</div>",
			expected: "Consumo 45 m3",
		},
		{
			name:     "entities decoded",
			html:     "<p>Per&iacute;odo de facturaci&oacute;n</p>",
			expected: "Período de facturación",
		},
		{
			name:     "double encoded entities decoded",
			html:     "<p>facturaci&amp;oacute;n</p>",
			expected: "facturación",
		},
		{
			name:     "inline whitespace collapsed",
			html:     "<p>Av.   Siempre    Viva 742</p>",
			expected: "Av. Siempre Viva 742",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripHTML(tt.html); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDecodeHeader(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "plain header untouched",
			raw:      "Aguas Andinas <noreply@aguasandinas.cl>",
			expected: "Aguas Andinas <noreply@aguasandinas.cl>",
		},
		{
			name:     "utf8 q-encoding",
			raw:      "=?UTF-8?Q?Boleta_Electr=C3=B3nica?=",
			expected: "Boleta Electrónica",
		},
		{
			name:     "utf8 b-encoding",
			raw:      "=?UTF-8?B?RmFjdHVyYWNpw7Nu?=",
			expected: "Facturación",
		},
		{
			name:     "latin1 q-encoding",
			raw:      "=?ISO-8859-1?Q?Per=EDodo?=",
			expected: "Período",
		},
		{
			name:     "malformed encoding kept as-is",
			raw:      "=?UTF-8?Q?broken",
			expected: "=?UTF-8?Q?broken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeHeader(tt.raw); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParsePlainMessage(t *testing.T) {
	raw := "From: noreply@metrogas.cl\r\n" +
		"Subject: Boleta disponible\r\n" +
		"Date: Mon, 05 Jan 2026 10:30:00 -0300\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Total a pagar 12.013\r\n"

	msg, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msg.From != "noreply@metrogas.cl" {
		t.Errorf("from: got %q", msg.From)
	}
	if msg.Subject != "Boleta disponible" {
		t.Errorf("subject: got %q", msg.Subject)
	}
	if msg.Date.IsZero() {
		t.Error("date should be parsed")
	}
	if !strings.Contains(msg.Body, "Total a pagar 12.013") {
		t.Errorf("body: got %q", msg.Body)
	}
	if msg.HasAttachment {
		t.Error("plain message should not report an attachment")
	}
}

func TestParseMultipartPrefersPlainText(t *testing.T) {
	raw := "From: noreply@enel.cl\r\n" +
		"Subject: Tu boleta\r\n" +
		"Content-Type: multipart/alternative; boundary=\"b1\"\r\n" +
		"\r\n" +
		"--b1\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Texto plano de la boleta\r\n" +
		"--b1\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>Versión HTML de la boleta</p>\r\n" +
		"--b1--\r\n"

	msg, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(msg.Body, "Texto plano de la boleta") {
		t.Errorf("body should come from the text/plain part, got %q", msg.Body)
	}
	if strings.Contains(msg.Body, "<p>") {
		t.Errorf("body should not contain HTML tags, got %q", msg.Body)
	}
}

func TestParseMultipartFallsBackToStrippedHTML(t *testing.T) {
	raw := "From: noreply@enel.cl\r\n" +
		"Subject: Tu boleta\r\n" +
		"Content-Type: multipart/alternative; boundary=\"b1\"\r\n" +
		"\r\n" +
		"--b1\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>Total a pagar: <b>$45.990</b></p>\r\n" +
		"--b1--\r\n"

	msg, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(msg.Body, "$45.990") {
		t.Errorf("body should contain the stripped HTML text, got %q", msg.Body)
	}
	if strings.Contains(msg.Body, "<b>") {
		t.Errorf("body should not contain HTML tags, got %q", msg.Body)
	}
}

func TestParseDetectsAttachment(t *testing.T) {
	raw := "From: noreply@aguasandinas.cl\r\n" +
		"Subject: Boleta adjunta\r\n" +
		"Content-Type: multipart/mixed; boundary=\"b1\"\r\n" +
		"\r\n" +
		"--b1\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Su boleta se encuentra adjunta\r\n" +
		"--b1\r\n" +
		"Content-Type: application/pdf; name=\"boleta.pdf\"\r\n" +
		"Content-Disposition: attachment; filename=\"boleta.pdf\"\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"JVBERi0xLjQK\r\n" +
		"--b1--\r\n"

	msg, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !msg.HasAttachment {
		t.Error("attachment should be detected")
	}
	if !strings.Contains(msg.Body, "Su boleta se encuentra adjunta") {
		t.Errorf("body: got %q", msg.Body)
	}
	if strings.Contains(msg.Body, "JVBERi") {
		t.Errorf("attachment payload must not leak into the body, got %q", msg.Body)
	}
}

func TestParseMissingDateLeavesZero(t *testing.T) {
	raw := "From: noreply@metrogas.cl\r\n" +
		"Subject: Boleta\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"hola\r\n"

	msg, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !msg.Date.IsZero() {
		t.Errorf("date should be zero, got %v", msg.Date)
	}
}

// Package mailtext turns raw RFC822 messages into plain text: decoded
// headers, a single body string with HTML stripped, and an attachment flag.
// Everything here is a pure transformation; decoding problems degrade to
// partial output instead of errors.
package mailtext

import (
	"bytes"
	"fmt"
	stdhtml "html"
	"io"
	"mime"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
	xhtml "golang.org/x/net/html"
)

func init() {
	// Decode non-UTF-8 parts (ISO-8859-1, windows-1252, ...) transparently.
	message.CharsetReader = charset.Reader
}

// Message is the decoded view of one mailbox message.
type Message struct {
	From          string
	Subject       string
	Date          time.Time // zero when the Date header is missing or malformed
	Body          string
	HasAttachment bool
}

// Parse decodes a raw RFC822 message. Header decoding and body extraction
// are permissive; only a structurally unreadable message returns an error.
func Parse(raw []byte) (*Message, error) {
	ent, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}

	msg := &Message{
		From:    DecodeHeader(ent.Header.Get("From")),
		Subject: DecodeHeader(ent.Header.Get("Subject")),
	}
	if d, err := mail.ParseDate(ent.Header.Get("Date")); err == nil {
		msg.Date = d
	}

	msg.Body, msg.HasAttachment = scanBody(ent)
	return msg, nil
}

var headerDecoder = mime.WordDecoder{CharsetReader: charset.Reader}

// DecodeHeader decodes MIME encoded-word sequences into a single string.
// A header can mix charsets across words. Undecodable sequences are kept
// as-is and invalid bytes become the Unicode replacement character; this
// never fails.
func DecodeHeader(raw string) string {
	decoded, err := headerDecoder.DecodeHeader(raw)
	if err != nil {
		decoded = raw
	}
	return strings.ToValidUTF8(decoded, "�")
}

// ExtractBody returns the text content of a freshly parsed entity's body.
func ExtractBody(ent *message.Entity) string {
	body, _ := scanBody(ent)
	return body
}

// scanBody extracts the body text and the attachment flag in a single pass;
// the underlying MIME stream can only be read once.
//
// For multipart messages all non-attachment text/plain parts are collected
// and concatenated; when none exist, text/html parts are concatenated and
// stripped instead. A part that fails to decode contributes nothing. A part
// counts as an attachment if its disposition says so or it carries a
// filename.
func scanBody(ent *message.Entity) (string, bool) {
	mr := ent.MultipartReader()
	if mr == nil {
		return singlePartBody(ent), false
	}

	var plainParts, htmlParts []string
	hasAttachment := false

	var walk func(mr message.MultipartReader)
	walk = func(mr message.MultipartReader) {
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				// A malformed part ends this level; earlier parts stand.
				break
			}
			if sub := part.MultipartReader(); sub != nil {
				walk(sub)
				continue
			}
			if isAttachment(part) {
				hasAttachment = true
				continue
			}
			ct := contentType(part)
			if ct != "text/plain" && ct != "text/html" {
				continue
			}
			payload, err := io.ReadAll(part.Body)
			if err != nil || len(payload) == 0 {
				continue
			}
			text := strings.ToValidUTF8(string(payload), "�")
			if ct == "text/plain" {
				plainParts = append(plainParts, text)
			} else {
				htmlParts = append(htmlParts, text)
			}
		}
	}
	walk(mr)

	// Prefer plain text; fall back to stripped HTML to avoid tag/URL noise.
	switch {
	case len(plainParts) > 0:
		return strings.Join(plainParts, " "), hasAttachment
	case len(htmlParts) > 0:
		return StripHTML(strings.Join(htmlParts, " ")), hasAttachment
	default:
		return "", hasAttachment
	}
}

func singlePartBody(ent *message.Entity) string {
	payload, err := io.ReadAll(ent.Body)
	if err != nil || len(payload) == 0 {
		return ""
	}
	text := strings.ToValidUTF8(string(payload), "�")
	if contentType(ent) == "text/html" {
		return StripHTML(text)
	}
	return text
}

func contentType(ent *message.Entity) string {
	ct, _, _ := ent.Header.ContentType()
	if ct == "" {
		return "text/plain"
	}
	return ct
}

// isAttachment reports whether a part is an attached document rather than
// body content.
func isAttachment(part *message.Entity) bool {
	disp, dispParams, _ := part.Header.ContentDisposition()
	if strings.EqualFold(disp, "attachment") {
		return true
	}
	if dispParams["filename"] != "" {
		return true
	}
	_, ctParams, _ := part.Header.ContentType()
	return ctParams["name"] != ""
}

var (
	reScriptStyle = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	reAnyTag      = regexp.MustCompile(`<[^>]+>`)
	reSpaces      = regexp.MustCompile(`[ \t]+`)
)

// StripHTML returns only the visible text of an HTML document, one text
// node per line. Entities are decoded twice because some providers send
// double-encoded bodies (&amp;oacute; for ó).
func StripHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return stripHTMLFallback(html)
	}

	var lines []string
	var visit func(n *xhtml.Node)
	visit = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == xhtml.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				lines = append(lines, reSpaces.ReplaceAllString(text, " "))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	for _, n := range doc.Nodes {
		visit(n)
	}

	// The HTML parser already decoded entities once; decoding again resolves
	// the double-encoded case and is a no-op for well-formed input.
	return stdhtml.UnescapeString(strings.Join(lines, "\n"))
}

// stripHTMLFallback is a regex-based strip for input the parser rejects.
func stripHTMLFallback(html string) string {
	html = reScriptStyle.ReplaceAllString(html, "")
	html = reAnyTag.ReplaceAllString(html, "\n")
	html = stdhtml.UnescapeString(stdhtml.UnescapeString(html))

	var lines []string
	for _, line := range strings.Split(html, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, reSpaces.ReplaceAllString(line, " "))
		}
	}
	return strings.Join(lines, "\n")
}

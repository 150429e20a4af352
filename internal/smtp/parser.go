package smtp

import (
	"io"
	"regexp"
	"strings"

	"github.com/jhillyerd/enmime"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/validator"
)

// SecretCodeHeader carries the optional unlock code of a submitted letter
const SecretCodeHeader = "X-Secret-Code"

// maxSubjectLength caps the subject line carried into the letter
const maxSubjectLength = 200

// ParsedLetter is the part of a MIME message that becomes a letter
type ParsedLetter struct {
	Subject    string
	Content    string
	SecretCode *string
}

// Text is the letter body as stored: the subject, when present, heads the
// content separated by a blank line.
func (l *ParsedLetter) Text() string {
	switch {
	case l.Subject == "":
		return l.Content
	case l.Content == "":
		return l.Subject
	default:
		return l.Subject + "\n\n" + l.Content
	}
}

var (
	scriptStyleRe = regexp.MustCompile(`(?i)<(script|style)[^>]*>[\s\S]*?</(script|style)>`)
	tagRe         = regexp.MustCompile(`<[^>]*>`)
)

// ParseLetter parses a submitted message. The plain text part is the
// content; an HTML-only message is reduced to its text.
func ParseLetter(r io.Reader) (*ParsedLetter, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, err
	}

	letter := &ParsedLetter{
		Subject: validator.SanitizeString(env.GetHeader("Subject"), maxSubjectLength),
	}

	switch {
	case strings.TrimSpace(env.Text) != "":
		letter.Content = strings.TrimRight(normalizeNewlines(env.Text), "\n ")
	case env.HTML != "":
		letter.Content = strings.Join(strings.Fields(stripHTMLTags(env.HTML)), " ")
	}

	if code := strings.TrimSpace(env.GetHeader(SecretCodeHeader)); code != "" {
		letter.SecretCode = &code
	}

	return letter, nil
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// stripHTMLTags removes HTML tags from a string
func stripHTMLTags(html string) string {
	// Remove script and style elements
	html = scriptStyleRe.ReplaceAllString(html, "")

	// Remove HTML tags
	html = tagRe.ReplaceAllString(html, " ")

	// Decode common HTML entities
	html = strings.ReplaceAll(html, "&nbsp;", " ")
	html = strings.ReplaceAll(html, "&lt;", "<")
	html = strings.ReplaceAll(html, "&gt;", ">")
	html = strings.ReplaceAll(html, "&quot;", `"`)
	html = strings.ReplaceAll(html, "&#39;", "'")
	html = strings.ReplaceAll(html, "&amp;", "&")

	return html
}

// Package i18n provides locale-aware formatting of error messages.
package i18n

import (
	"strings"
	"text/template"
)

// Code is an error code string, mirrored from internal/errors to avoid an
// import cycle.
type Code = string

// Catalog holds user-facing message templates for one locale.
type Catalog struct {
	locale   string
	messages map[Code]string
}

// Locale returns the catalog's locale identifier.
func (c *Catalog) Locale() string {
	if c == nil {
		return ""
	}
	return c.locale
}

// Format renders the message for code, substituting metadata values into
// {{.Key}} placeholders. Unknown codes fall back to a generic message.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	if c == nil {
		return genericMessage
	}
	msg, ok := c.messages[code]
	if !ok {
		return genericMessage
	}
	if len(metadata) == 0 || !strings.Contains(msg, "{{") {
		return msg
	}
	tmpl, err := template.New(code).Parse(msg)
	if err != nil {
		return msg
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, metadata); err != nil {
		return msg
	}
	return buf.String()
}

const genericMessage = "Something went wrong"

// GetCatalog returns the catalog for the locale, falling back to en-US.
func GetCatalog(locale string) *Catalog {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case "en-us", "en", "":
		return enUSCatalog
	default:
		return enUSCatalog
	}
}

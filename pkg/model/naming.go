package model

import (
	"strings"

	"github.com/fwupd/fustruct-go/pkg/wire"
)

// SnakeCase converts "NeedsReboot" to "needs_reboot". Names written in all
// capitals are only lowered, so "USB" becomes "usb".
func SnakeCase(name string) string {
	if strings.ToUpper(name) == name {
		return strings.ToLower(name)
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			if b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteString(strings.ToLower(string(r)))
		}
	}
	return b.String()
}

// KebabCase converts a variant name to its string form: "NeedsReboot"
// becomes "needs-reboot".
func KebabCase(name string) string {
	return strings.ReplaceAll(SnakeCase(name), "_", "-")
}

// GoName converts a snake_case field name to an exported Go identifier:
// "off_cffile" becomes "OffCffile". A leading digit gets an "F" prefix.
func GoName(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if r == '_' {
			upper = true
			continue
		}
		if upper && r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		upper = false
		b.WriteRune(r)
	}
	out := b.String()
	if out == "" {
		return "Field"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "F" + out
	}
	return out
}

// NormalizeVariant folds a name for case-insensitive matching, dropping
// '-' and '_'.
func NormalizeVariant(s string) string {
	return wire.NormalizeVariant(s)
}

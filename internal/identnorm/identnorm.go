// Package identnorm canonicalizes identifier and operator glyph text at
// symbol-table insertion time.
//
// The scanner is out of scope for this core, but when separately-scanned
// translation units are combined (a program built from several source
// texts), their TAG spellings may reach the symbol table in different
// Unicode normalization forms even though they denote the same identifier.
// Without canonicalizing at the table boundary, "café" (NFC) and "café"
// (NFD) would intern as two distinct tags.
package identnorm

import "golang.org/x/text/unicode/norm"

// Canonicalize applies Unicode NFC normalization to name, returning it
// unchanged (and without allocating) if it is already normalized.
func Canonicalize(name string) string {
	if norm.NFC.IsNormalString(name) {
		return name
	}
	return norm.NFC.String(name)
}

package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds instance, definition and asset identifiers.
const maxIDLength = 256

// ValidateID checks an instance or definition identifier received from
// outside the process (CLI args, HTTP paths, MCP tool calls).
//
// Identifiers end up in store keys and URL paths, so the rules are strict:
//   - not empty and at most 256 bytes
//   - no control characters or whitespace
//   - no path separators
func ValidateID(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "%s id cannot be empty", kind)
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidID, "%s id too long (max %d characters)", kind, maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidID, "%s id contains invalid characters", kind)
		}
	}
	if strings.ContainsAny(id, "/\\") {
		return New(ErrCodeInvalidID, "%s id cannot contain path separators", kind)
	}
	return nil
}

// ValidateAssetID checks a remote image asset id before it is placed in a
// request path. Asset ids come from payloads, which users can edit freely.
func ValidateAssetID(id string) error {
	if err := ValidateID("asset", id); err != nil {
		return err
	}
	if id == "." || id == ".." || strings.Contains(id, "..") {
		return New(ErrCodeInvalidID, "asset id contains path traversal")
	}
	if strings.ContainsAny(id, "?#%") {
		return New(ErrCodeInvalidID, "asset id contains reserved URL characters")
	}
	return nil
}

// ValidateColor accepts the link colors a board can render: #rgb, #rrggbb
// or a plain CSS color name.
func ValidateColor(c string) error {
	if c == "" {
		return New(ErrCodeInvalidInput, "color cannot be empty")
	}
	if strings.HasPrefix(c, "#") {
		hex := c[1:]
		if len(hex) != 3 && len(hex) != 6 {
			return New(ErrCodeInvalidInput, "color %q must be #rgb or #rrggbb", c)
		}
		for _, r := range hex {
			if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
				return New(ErrCodeInvalidInput, "color %q is not hexadecimal", c)
			}
		}
		return nil
	}
	for _, r := range c {
		if !unicode.IsLetter(r) {
			return New(ErrCodeInvalidInput, "color %q is not a color name", c)
		}
	}
	return nil
}

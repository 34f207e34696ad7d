package host

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxNameBytes = 200

var (
	controlCharsRegex = regexp.MustCompile(`[\x00-\x1F\x7F]`)
	zeroWidthRegex    = regexp.MustCompile(`[\x{200B}-\x{200F}\x{2028}\x{2029}\x{FEFF}]`)
	reservedRegex     = regexp.MustCompile(`[<>:"/\\|?*]`)
	spacesRegex       = regexp.MustCompile(`\s+`)
	underscoresRegex  = regexp.MustCompile(`_{2,}`)
)

// NameSanitizer turns arbitrary display names into names that are safe to
// create inside a single directory on any desktop OS.
type NameSanitizer struct{}

func NewNameSanitizer() *NameSanitizer {
	return &NameSanitizer{}
}

func (ns *NameSanitizer) SanitizeFileName(name string) string {
	sanitized := controlCharsRegex.ReplaceAllString(name, "")
	sanitized = zeroWidthRegex.ReplaceAllString(sanitized, "")
	sanitized = reservedRegex.ReplaceAllString(sanitized, "_")
	sanitized = spacesRegex.ReplaceAllString(sanitized, " ")
	sanitized = underscoresRegex.ReplaceAllString(sanitized, "_")

	// Leading dots would hide the file, trailing dots and spaces are dropped on Windows.
	sanitized = strings.TrimLeft(sanitized, ". ")
	sanitized = strings.TrimRight(sanitized, ". ")

	if sanitized == "" {
		return "file"
	}
	return truncateName(sanitized, maxNameBytes)
}

// truncateName shortens the base name and keeps the extension.
func truncateName(name string, limit int) string {
	if len(name) <= limit {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) >= limit {
		ext = ""
	}
	base := strings.TrimSuffix(name, ext)
	cut := limit - len(ext)
	for cut > 0 && !utf8.RuneStart(base[cut]) {
		cut--
	}
	return base[:cut] + ext
}

package domain

import (
	"regexp"
	"strings"
)

var (
	reservedChars = regexp.MustCompile(`[\\/:*?"<>|]+`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// SafeFilename makes a name safe for Windows, macOS and Linux filesystems.
// Runs of reserved characters become a single underscore and internal
// whitespace collapses to one space. The extension is preserved.
func SafeFilename(name string) string {
	name = reservedChars.ReplaceAllString(name, "_")
	name = whitespaceRun.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

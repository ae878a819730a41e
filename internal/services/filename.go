package services

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/tornado-product/FusionMediaProvider/internal/models"
)

// maxTitleRunes bounds the title part of generated filenames
const maxTitleRunes = 80

// GenerateFilename returns the deterministic file name for item, so that a
// retried download lands on the same path and can resume.
//
//	<provider>_<title>_<id>.<ext>   by default
//	<provider>_<id>.<ext>           with useOriginalNames
func GenerateFilename(item *models.MediaItem, useOriginalNames bool) string {
	provider := strings.ToLower(sanitizeFilenamePart(item.Provider))
	id := sanitizeFilenamePart(item.ID)
	ext := item.MediaType.Extension()

	if useOriginalNames {
		return fmt.Sprintf("%s_%s.%s", provider, id, ext)
	}

	title := sanitizeFilenamePart(item.Title)
	if title == "" {
		title = id
	}
	return fmt.Sprintf("%s_%s_%s.%s", provider, title, id, ext)
}

// sanitizeFilenamePart keeps letters, digits, '_' and '-' of the NFC form of s
func sanitizeFilenamePart(s string) string {
	var b strings.Builder
	n := 0
	for _, r := range norm.NFC.String(s) {
		if n >= maxTitleRunes {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
			b.WriteRune(r)
			n++
		}
	}
	return b.String()
}

package discovery

import (
	"regexp"
	"strings"

	"github.com/pxharvest/pxharvest/px"
)

// Dataset links on the results page carry the accession as a pxid query
// parameter. The class terminates on quotes and angle brackets because we
// match against serialized markup, not decoded attribute values.
var accessionPattern = regexp.MustCompile(`[?&]pxid=([^&"'<>\s]+)`)

// ExtractAccessions pulls every dataset accession out of search-result
// markup, in document order, without duplicates.
func ExtractAccessions(html string) []px.Accession {
	// Serialized attribute values escape ampersands.
	html = strings.ReplaceAll(html, "&amp;", "&")

	matches := accessionPattern.FindAllStringSubmatch(html, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[px.Accession]struct{}, len(matches))
	accessions := make([]px.Accession, 0, len(matches))
	for _, m := range matches {
		acc := px.Accession(m[1])
		if _, dup := seen[acc]; dup {
			continue
		}
		seen[acc] = struct{}{}
		accessions = append(accessions, acc)
	}
	return accessions
}

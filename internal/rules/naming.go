package rules

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/quillcms/quill/internal/contents"
)

// eventVerb returns the display verb for a content event tag. Status
// changes resolve to the direction of the transition.
func eventVerb(ev contents.Event) string {
	switch e := ev.(type) {
	case *contents.Created:
		return "Created"
	case *contents.Updated:
		return "Updated"
	case *contents.Deleted:
		return "Deleted"
	case *contents.StatusChanged:
		switch e.Change {
		case contents.StatusChangePublished:
			return "Published"
		case contents.StatusChangeUnpublished:
			return "Unpublished"
		default:
			return "StatusChanged"
		}
	}
	return ""
}

// SnapshotEventName is the routing name given to backfill events. The
// ContentQueried prefix distinguishes them from live changes at every
// downstream consumer.
func SnapshotEventName(schemaName string) string {
	return fmt.Sprintf("ContentQueried(%s)", ToPascalCase(schemaName))
}

// ToPascalCase converts schema names like "blog-post", "blog_post" or
// "blog post" to "BlogPost".
func ToPascalCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	upper := true
	for _, r := range s {
		switch {
		case r == '-' || r == '_' || r == ' ' || r == '.':
			upper = true
		case upper:
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

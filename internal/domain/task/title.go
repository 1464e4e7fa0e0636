package task

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCase = cases.Title(language.English)

// Title returns the display name of t. Tasks without their own title get
// their type in title case, followed by the instance id.
func Title(t Task) string {
	if titled, ok := t.(Titler); ok && titled.Title() != "" {
		return titled.Title()
	}
	title := titleCase.String(strings.NewReplacer("-", " ", "_", " ", ".", " ").Replace(t.Type()))
	if IsSingleton(t) {
		return title
	}
	return title + " (" + t.ID() + ")"
}

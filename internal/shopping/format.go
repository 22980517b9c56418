package shopping

import (
	"fmt"
	"strings"
)

// FormatList renders entries as a plain-text checklist.
func FormatList(entries []Entry, checked map[string]bool) string {
	if len(entries) == 0 {
		return "No ingredients."
	}

	var sb strings.Builder
	for _, e := range entries {
		box := "[ ]"
		if checked[e.Key.String()] {
			box = "[x]"
		}
		fmt.Fprintf(&sb, "%s %s: %s %s\n", box, e.DisplayName, e.FormatAmount(), e.Unit)
	}
	return sb.String()
}

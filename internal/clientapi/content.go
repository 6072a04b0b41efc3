// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package clientapi

import (
	"sort"
	"strings"
	"unicode/utf16"
)

// FormatContent renders text with its text-URL entities as markdown links.
// Links whose label is already a URL are left as plain text.
func FormatContent(text string, entities []Entity) string {
	links := make([]Entity, 0, len(entities))
	for _, e := range entities {
		if e.Type == EntityTextURL && e.URL != "" {
			links = append(links, e)
		}
	}
	if len(links) == 0 {
		return text
	}

	// Rewrite from the end so earlier offsets stay valid.
	sort.Slice(links, func(i, j int) bool { return links[i].Offset > links[j].Offset })

	units := utf16.Encode([]rune(text))
	limit := len(units)
	for _, e := range links {
		end := e.Offset + e.Length
		if e.Offset < 0 || e.Length <= 0 || end > limit {
			continue
		}

		name := string(utf16.Decode(units[e.Offset:end]))
		if name == e.URL || strings.HasPrefix(name, "http") {
			continue
		}

		link := utf16.Encode([]rune("[" + name + "](" + e.URL + ")"))
		out := make([]uint16, 0, len(units)-e.Length+len(link))
		out = append(out, units[:e.Offset]...)
		out = append(out, link...)
		out = append(out, units[end:]...)
		units = out
		limit = e.Offset
	}
	return string(utf16.Decode(units))
}

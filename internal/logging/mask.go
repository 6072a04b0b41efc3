// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package logging

import "strings"

// MaskToken keeps the first keep characters of a credential and replaces the rest with
// asterisks. Gateway tokens start with an encoded account id, so the visible prefix is
// enough to tell accounts apart in logs.
func MaskToken(token string, keep int) string {
	if keep < 0 {
		keep = 0
	}
	if len(token) <= keep {
		return token
	}
	return token[:keep] + strings.Repeat("*", len(token)-keep)
}

// MaskPhone strips formatting from a phone number and hides everything except the last
// five digits.
func MaskPhone(number string) string {
	var digits strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) <= 5 {
		return d
	}
	return strings.Repeat("*", len(d)-5) + d[len(d)-5:]
}

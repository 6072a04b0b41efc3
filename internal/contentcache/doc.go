// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

// Package contentcache stores binary objects (attachments, avatars, media) on disk
// under their SHA-256 digest so each distinct payload is written once.
//
// Objects are named "<digest>.<ext>", where the extension comes from the MIME
// type. Writes go to a temporary file that is renamed into place, so readers
// never observe partial content.
package contentcache

// Package tglink normalizes Telegram channel identifiers and invite links
// so that values coming from user input, the database and admin-log events
// compare equal.
package tglink

import "strings"

// NormalizeIdentifier normalizes a channel identifier (username, t.me link
// or numeric chat id) to a canonical form usable as a cache key.
//
// Private invite links (t.me/+hash, joinchat) are case sensitive and are
// returned whole; usernames are case insensitive and are lowercased.
// Returns "" for values that cannot identify a channel.
func NormalizeIdentifier(identifier string) string {
	s := strings.TrimSpace(identifier)
	if s == "" || strings.HasPrefix(s, "/") {
		return ""
	}

	sensitive := strings.Contains(s, "t.me/+") || strings.Contains(s, "joinchat/")
	if !sensitive {
		s = strings.ToLower(s)
	}

	// Numeric chat id, possibly negative.
	if isNumeric(strings.TrimPrefix(s, "-")) {
		return s
	}

	if strings.Contains(s, "t.me/") {
		// Strip query parameters and anchors.
		if i := strings.IndexAny(s, "?#"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimRight(s, "/")

		// Private invite links are passed through whole for importChatInvite.
		if strings.Contains(s, "t.me/+") || strings.Contains(s, "joinchat/") {
			return s
		}

		if i := strings.LastIndex(s, "t.me/"); i >= 0 {
			s = s[i+len("t.me/"):]
		}
	}

	s = strings.TrimPrefix(s, "@")
	if s == "" {
		return ""
	}
	return s
}

// NormalizeInviteLink reduces an invite link to its bare hash/name so that
// the same link in different spellings (scheme, host, plus prefix) matches.
func NormalizeInviteLink(link string) string {
	if link == "" {
		return ""
	}
	s := strings.TrimSpace(link)
	for _, prefix := range []string{"https://", "http://"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.TrimPrefix(s, "t.me/")
	s = strings.TrimPrefix(s, "telegram.me/")
	s = strings.ReplaceAll(s, "+", "")
	return strings.TrimSpace(s)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

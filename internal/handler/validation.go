// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import "unicode/utf8"

// Field length limits.
const (
	UsernameMinLen = 6
	UsernameMaxLen = 30
	NameMaxLen     = 60
	TitleMaxLen    = 50
	ContentMaxLen  = 1500
	TagMaxLen      = 30
)

// ValidateUsername returns an error message string if the username is
// invalid, or empty string if valid.
func ValidateUsername(username string) string {
	n := utf8.RuneCountInString(username)
	if n < UsernameMinLen {
		return "Minimum length of username is 6."
	}
	if n > UsernameMaxLen {
		return "Maximum length of username is 30."
	}
	return ""
}

// ValidateName validates a first or last name (1-60 characters).
func ValidateName(name string) string {
	n := utf8.RuneCountInString(name)
	if n == 0 {
		return "Name is required"
	}
	if n > NameMaxLen {
		return "Maximum length of name is 60."
	}
	return ""
}

// ValidatePostTitle validates a post title (required, max 50 characters).
func ValidatePostTitle(title string) string {
	n := utf8.RuneCountInString(title)
	if n == 0 {
		return "Title is required"
	}
	if n > TitleMaxLen {
		return "Maximum length of title is 50."
	}
	return ""
}

// ValidatePostContent validates post content (required, max 1500 characters).
func ValidatePostContent(content string) string {
	n := utf8.RuneCountInString(content)
	if n == 0 {
		return "Content is required"
	}
	if n > ContentMaxLen {
		return "Maximum length of content is 1500."
	}
	return ""
}

// ValidatePostTag validates the optional post tag (max 30 characters).
func ValidatePostTag(tag string) string {
	if utf8.RuneCountInString(tag) > TagMaxLen {
		return "Maximum length of tag is 30."
	}
	return ""
}

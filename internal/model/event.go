// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model holds shared domain constants.
package model

// Event levels for the audit log.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories for the audit log.
const (
	EventCategoryApp        = "app"
	EventCategoryAuth       = "auth"
	EventCategoryModeration = "moderation"
)

// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles defines the excelmanus color palette, theme, and small
// rendering helpers shared by every UI component.
package styles

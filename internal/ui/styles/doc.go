// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the pinlock TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Color System (colors.go)

  - Purple - Filled PIN dots and focused keys
  - Cyan - Titles and links
  - Amber - Setup and confirm prompts
  - Rose - Wrong PIN feedback
  - Surface, Overlay - Panel background and borders

# Glyphs (glyphs.go)

DetectGlyphs chooses circles or ASCII for the PIN dots based on the
terminal's color profile.

# Animation (animations.go)

The wrong-PIN shake is a fixed sequence of offsets played at
ShakeFrameDuration. ShakeColumns converts each offset to terminal columns and ShakeMargins
turns it into margins of constant total width.
*/
package styles

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"time"
)

// =============================================================================
// SHAKE ANIMATION
// =============================================================================

// ShakeFrameDuration is the time between shake frames.
const ShakeFrameDuration = 50 * time.Millisecond

// ShakeOffsets are the horizontal offsets, in pixels, of the wrong-PIN shake.
// The last frame returns to rest.
var ShakeOffsets = []int{10, -10, 6, -6, 0}

// pixelsPerColumn scales pixel offsets to terminal columns.
const pixelsPerColumn = 5

// ShakeColumns returns the column offset for a shake frame. Frames past the
// end are at rest.
func ShakeColumns(frame int) int {
	if frame < 0 || frame >= len(ShakeOffsets) {
		return 0
	}
	return ShakeOffsets[frame] / pixelsPerColumn
}

// ShakeFrames returns the number of frames in the shake.
func ShakeFrames() int {
	return len(ShakeOffsets)
}

// ShakeMargins returns left and right margins that place a block at the
// frame's offset while keeping its total width constant across frames.
func ShakeMargins(frame int) (left, right int) {
	maxCols := 0
	for i := range ShakeOffsets {
		if c := ShakeColumns(i); c > maxCols {
			maxCols = c
		} else if -c > maxCols {
			maxCols = -c
		}
	}
	c := ShakeColumns(frame)
	return maxCols + c, maxCols - c
}

// =============================================================================
// PIN DOTS
// =============================================================================

// RenderDots returns one glyph per PIN position, filled for entered digits,
// separated by spaces.
func RenderDots(glyphs GlyphSet, entered, total int) string {
	if total <= 0 {
		return ""
	}
	if entered < 0 {
		entered = 0
	}
	if entered > total {
		entered = total
	}

	var sb strings.Builder
	for i := 0; i < total; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if i < entered {
			sb.WriteString(glyphs.Filled)
		} else {
			sb.WriteString(glyphs.Empty)
		}
	}
	return sb.String()
}

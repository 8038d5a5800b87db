// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestShakeColumns(t *testing.T) {
	want := []int{2, -2, 1, -1, 0}
	if ShakeFrames() != len(want) {
		t.Fatalf("ShakeFrames() = %d, want %d", ShakeFrames(), len(want))
	}
	for i, w := range want {
		if got := ShakeColumns(i); got != w {
			t.Errorf("ShakeColumns(%d) = %d, want %d", i, got, w)
		}
	}
	if ShakeColumns(-1) != 0 || ShakeColumns(99) != 0 {
		t.Error("out of range frames should be at rest")
	}
}

func TestShakeMargins(t *testing.T) {
	for frame := -1; frame <= ShakeFrames(); frame++ {
		left, right := ShakeMargins(frame)
		if left+right != 4 {
			t.Errorf("frame %d: width %d, want constant 4", frame, left+right)
		}
		if left-2 != ShakeColumns(frame) {
			t.Errorf("frame %d: offset %d, want %d", frame, left-2, ShakeColumns(frame))
		}
	}
}

func TestRenderDots(t *testing.T) {
	tests := []struct {
		entered, total int
		want           string
	}{
		{0, 4, "- - - -"},
		{2, 4, "* * - -"},
		{4, 4, "* * * *"},
		{9, 2, "* *"},
		{-1, 2, "- -"},
		{0, 0, ""},
	}
	for _, tt := range tests {
		if got := RenderDots(ASCIIGlyphs, tt.entered, tt.total); got != tt.want {
			t.Errorf("RenderDots(%d, %d) = %q, want %q", tt.entered, tt.total, got, tt.want)
		}
	}
}

func TestDetectGlyphs(t *testing.T) {
	if DetectGlyphs(true) != ASCIIGlyphs {
		t.Error("forced ASCII should return ASCIIGlyphs")
	}
	t.Setenv("TERM", "linux")
	if DetectGlyphs(false) != ASCIIGlyphs {
		t.Error("linux console should return ASCIIGlyphs")
	}
}

func TestRenderHelpersIncludeIndicators(t *testing.T) {
	checks := map[string]string{
		RenderSuccess("saved"):   StatusIndicators.Success,
		RenderError("wrong"):     StatusIndicators.Error,
		RenderWarning("careful"): StatusIndicators.Warning,
		RenderInfo("note"):       StatusIndicators.Info,
	}
	for out, indicator := range checks {
		if !strings.Contains(out, indicator) {
			t.Errorf("%q missing indicator %q", out, indicator)
		}
	}
}

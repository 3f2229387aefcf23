package model

import (
	"fmt"
	"strconv"
	"strings"
)

// GridDim is a building footprint in grid cells.
type GridDim struct {
	Width  int
	Height int
}

// ParseGridDim parses "WxH" (e.g. "3x2" or "3 x 2").
func ParseGridDim(s string) (GridDim, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return GridDim{}, fmt.Errorf("grid size %q: want WxH", s)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return GridDim{}, fmt.Errorf("grid size %q: width: %w", s, err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return GridDim{}, fmt.Errorf("grid size %q: height: %w", s, err)
	}
	if width <= 0 || height <= 0 {
		return GridDim{}, fmt.Errorf("grid size %q: dimensions must be positive", s)
	}
	return GridDim{Width: width, Height: height}, nil
}

func (g GridDim) String() string {
	return fmt.Sprintf("%dx%d", g.Width, g.Height)
}

package models

import (
	"fmt"
	"strconv"
	"time"
)

// Dimension is the legacy text encoding of the window size kept in the
// user_settings table.
type Dimension struct {
	Width  string `json:"width"`
	Height string `json:"height"`
}

// Ints parses both fields.
func (d Dimension) Ints() (width, height int, err error) {
	width, err = strconv.Atoi(d.Width)
	if err != nil {
		return 0, 0, fmt.Errorf("parse width %q: %w", d.Width, err)
	}
	height, err = strconv.Atoi(d.Height)
	if err != nil {
		return 0, 0, fmt.Errorf("parse height %q: %w", d.Height, err)
	}
	return width, height, nil
}

type WindowInformation struct {
	X          int32     `json:"x"`
	Y          int32     `json:"y"`
	Width      uint32    `json:"width"`
	Height     uint32    `json:"height"`
	Maximized  bool      `json:"maximized"`
	Fullscreen bool      `json:"fullscreen"`
	ModifiedAt time.Time `json:"modified_at"`
}

// SameGeometry reports whether two records describe the same window, ignoring
// the modification time.
func (w WindowInformation) SameGeometry(o WindowInformation) bool {
	return w.X == o.X && w.Y == o.Y && w.Width == o.Width && w.Height == o.Height &&
		w.Maximized == o.Maximized && w.Fullscreen == o.Fullscreen
}

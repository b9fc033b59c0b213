// Package snapshot draws a board as a raster image.
//
// Links are drawn first as cubic curves from each source's out-port to the
// target's in-port, then instances in ascending z order as rounded cards
// with their presenter lines. Disabled instances are not drawn.
//
// The image covers either a fixed viewport seen through the board's view
// offset, or, with [Options.Fit], the bounding box of everything drawn.
package snapshot

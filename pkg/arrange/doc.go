// Package arrange computes automatic board layouts.
//
// [Arrange] packs enabled instances into the viewport. Connectable
// instances go into equal-width columns, tallest first, each into the
// currently shortest column. Decorative instances follow in a wrapping
// shelf to the right of the columns when there is room, otherwise below
// them. Every placement is clamped into the viewport, and the result carries
// the vertical view offset that centers the arranged content.
//
// The animated variant is split in two: [Animation.Step] is a pure function
// of elapsed time that eases each instance from where it was to where it
// belongs, and [Run] drives it from a tick channel until it is done.
//
// Equal-height connectable instances keep their input order, so the same
// input always yields the same layout.
package arrange

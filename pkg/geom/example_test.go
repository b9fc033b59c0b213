package geom_test

import (
	"fmt"

	"github.com/matzehuels/flowboard/pkg/geom"
)

func ExampleVerticalCenterOffset() {
	rects := []geom.Rect{
		{X: 24, Y: 24, W: 220, H: 150},
		{X: 260, Y: 24, W: 140, H: 110},
	}
	fmt.Println(geom.VerticalCenterOffset(rects, 800))
	// Output: 301
}

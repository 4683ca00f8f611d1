package interaction

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/vanderheijden86/recall/pkg/camera"
	"github.com/vanderheijden86/recall/pkg/scene"
)

// DefaultHitPadding enlarges every node's clickable disc beyond its radius.
const DefaultHitPadding = 5.0

// FindNodeAt returns the topmost node whose padded disc contains the screen
// point, or scene.NoNode. Nodes are scanned in reverse draw order, which
// depends on the current hover and selection.
func FindNodeAt(sc *scene.Scene, cam *camera.Camera, screen r2.Vec, hovered, selected int, padding float64) int {
	if sc.Len() == 0 || cam == nil {
		return scene.NoNode
	}
	w := cam.ScreenToWorld(screen)
	order := sc.DrawOrder(hovered, selected)
	for k := len(order) - 1; k >= 0; k-- {
		n := &sc.Nodes[order[k]]
		r := n.Radius + padding
		if r2.Norm2(r2.Sub(w, n.Pos)) < r*r {
			return order[k]
		}
	}
	return scene.NoNode
}

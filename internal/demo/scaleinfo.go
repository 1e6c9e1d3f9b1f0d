package demo

import (
	"github.com/AnatoleLucet/lyra/internal/scene"
	"github.com/AnatoleLucet/lyra/internal/view"
)

// CanDemonstrate reports whether a gesture can be demonstrated in a group
// with the given scales: the view must be up and idle, and one axis must
// map a field through a scale.
func CanDemonstrate(v view.View, info scene.ScaleInfo) bool {
	return v != nil && !v.Parsing() && info.CanDemonstrate()
}

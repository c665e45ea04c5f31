// Enums shared between configuration, command line and the insertion target.
// Kept separate from config so that packages implementing collaborators do
// not have to pull configuration in.
package common

//go:generate go tool go-enum --marshal --names

// Where resolved fragment goes relative to the insert location node.
// ENUM(inside-first, inside-last, before, after)
type InsertPosition string

// Inside reports whether fragment becomes child of the located node.
func (p InsertPosition) Inside() bool {
	return p == InsertPositionInsideFirst || p == InsertPositionInsideLast
}

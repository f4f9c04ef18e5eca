package game

import (
	"github.com/cbodonnell/arena/pkg/game/constants"
	"github.com/cbodonnell/arena/pkg/maps"
	"github.com/solarlune/resolv"
)

const (
	CollisionSpaceTagPlayer string = "player"
	CollisionSpaceTagBullet string = "bullet"
	CollisionSpaceTagLevel  string = "level"
)

// collisionCellSize is the size of a cell of the collision space
const collisionCellSize = 32

// NewCollisionSpace creates a collision space holding every blocking tile of m.
func NewCollisionSpace(m *maps.Map) *resolv.Space {
	size := int(m.PixelSize())
	space := resolv.NewSpace(size, size, collisionCellSize, collisionCellSize)
	for _, tile := range m.Tiles() {
		if !tile.Type.Blocking() {
			continue
		}
		obj := resolv.NewObject(tile.Position.X, tile.Position.Y, constants.TileSize, constants.TileSize, CollisionSpaceTagLevel)
		obj.Data = tile
		space.Add(obj)
	}
	return space
}

// overlapsAt is the exact AABB test used after the broad phase: it reports
// whether a, moved by dx and dy, overlaps b.
func overlapsAt(a *resolv.Object, dx, dy float64, b *resolv.Object) bool {
	ax, ay := a.Position.X+dx, a.Position.Y+dy
	return ax < b.Position.X+b.Size.X &&
		b.Position.X < ax+a.Size.X &&
		ay < b.Position.Y+b.Size.Y &&
		b.Position.Y < ay+a.Size.Y
}

// firstContact returns the first object of collision that a, moved by dx
// and dy, actually overlaps.
func firstContact(a *resolv.Object, dx, dy float64, collision *resolv.Collision) *resolv.Object {
	if collision == nil {
		return nil
	}
	for _, obj := range collision.Objects {
		if overlapsAt(a, dx, dy, obj) {
			return obj
		}
	}
	return nil
}

package game

import (
	"github.com/cbodonnell/arena/pkg/game/constants"
	"github.com/cbodonnell/arena/pkg/game/types"
	"github.com/cbodonnell/arena/pkg/kinematic"
	"github.com/solarlune/resolv"
)

// Player is a participant as seen by this instance.
type Player struct {
	Username string
	Endpoint types.Endpoint
	// Position is the top left corner of the bounding box
	Position kinematic.Vector
	Angle    float64
	State    types.AnimationState
	Weapon   types.Weapon
	Health   int
	Kills    int
	Deaths   int
	// Ammo is only tracked for the local player
	Ammo   int
	Object *resolv.Object `json:"-"`

	sinceFired float64
	reloadLeft float64
}

func NewPlayer(username string, endpoint types.Endpoint, x, y float64) *Player {
	return &Player{
		Username:   username,
		Endpoint:   endpoint,
		Position:   kinematic.Vector{X: x, Y: y},
		Weapon:     types.WeaponPistol,
		Health:     constants.PlayerMaxHealth,
		Ammo:       types.WeaponPistol.Stats().MagazineSize,
		Object:     resolv.NewObject(x, y, constants.PlayerWidth, constants.PlayerHeight, CollisionSpaceTagPlayer),
		sinceFired: types.WeaponPistol.Stats().FireInterval,
	}
}

// IsLocal reports whether the player is simulated by this instance.
func (p *Player) IsLocal() bool {
	return p.Endpoint.IsLocal()
}

// Center returns the center of the bounding box.
func (p *Player) Center() kinematic.Vector {
	return p.Position.Add(kinematic.Vector{X: constants.PlayerWidth / 2, Y: constants.PlayerHeight / 2})
}

// Reloading reports whether the local player is reloading.
func (p *Player) Reloading() bool {
	return p.reloadLeft > 0
}

// SetPosition moves the player and its collision object.
func (p *Player) SetPosition(position kinematic.Vector) {
	p.Position = position
	p.Object.Position.X = position.X
	p.Object.Position.Y = position.Y
	p.Object.Update()
}

// Copy returns a copy of the player with an empty object reference
func (p *Player) Copy() Player {
	c := *p
	c.Object = nil
	return c
}

// Bullet is a projectile owned by the world that spawned it.
type Bullet struct {
	Owner     string
	Position  kinematic.Vector
	Direction kinematic.Vector
	Damage    int
	Age       float64
	Object    *resolv.Object `json:"-"`
}

// NewBullet creates a bullet centered on origin travelling along heading degrees.
func NewBullet(owner string, origin kinematic.Vector, heading float64, damage int) *Bullet {
	position := origin.Add(kinematic.Vector{X: -constants.BulletWidth / 2, Y: -constants.BulletHeight / 2})
	return &Bullet{
		Owner:     owner,
		Position:  position,
		Direction: kinematic.FromAngle(heading),
		Damage:    damage,
		Object:    resolv.NewObject(position.X, position.Y, constants.BulletWidth, constants.BulletHeight, CollisionSpaceTagBullet),
	}
}

// Heading returns the direction of travel in degrees.
func (b *Bullet) Heading() float64 {
	return b.Direction.Angle()
}

// Copy returns a copy of the bullet with an empty object reference
func (b *Bullet) Copy() Bullet {
	c := *b
	c.Object = nil
	return c
}

// MuzzlePosition returns where bullets fired by a player standing at
// position and facing angle leave the barrel.
func MuzzlePosition(position kinematic.Vector, angle float64) kinematic.Vector {
	center := position.Add(kinematic.Vector{X: constants.PlayerWidth / 2, Y: constants.PlayerHeight / 2})
	offset := kinematic.Vector{X: constants.MuzzleOffset, Y: constants.MuzzleOffset}.Rotate(angle)
	return center.Add(offset)
}

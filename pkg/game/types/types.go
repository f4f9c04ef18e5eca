package types

import (
	"fmt"

	"github.com/cbodonnell/arena/pkg/game/constants"
)

// AnimationState is the movement/animation state of a participant.
type AnimationState uint8

const (
	AnimationIdle AnimationState = iota
	AnimationRunning
	AnimationReloading
	AnimationShooting
)

func (s AnimationState) Valid() bool {
	return s <= AnimationShooting
}

func (s AnimationState) String() string {
	switch s {
	case AnimationIdle:
		return "idle"
	case AnimationRunning:
		return "running"
	case AnimationReloading:
		return "reloading"
	case AnimationShooting:
		return "shooting"
	default:
		return fmt.Sprintf("animation(%d)", uint8(s))
	}
}

// Weapon is the active weapon of a participant.
type Weapon uint8

const (
	WeaponPistol Weapon = iota
	WeaponShotgun
	WeaponRifle
)

// Weapons lists every weapon in switch order.
var Weapons = []Weapon{WeaponPistol, WeaponShotgun, WeaponRifle}

func (w Weapon) Valid() bool {
	return w <= WeaponRifle
}

func (w Weapon) String() string {
	switch w {
	case WeaponPistol:
		return "pistol"
	case WeaponShotgun:
		return "shotgun"
	case WeaponRifle:
		return "rifle"
	default:
		return fmt.Sprintf("weapon(%d)", uint8(w))
	}
}

// WeaponStats describes how a weapon fires.
type WeaponStats struct {
	// Damage is applied once per bullet
	Damage int
	// Pellets is the number of bullets fired per shot
	Pellets int
	// FireInterval is the minimum time between shots
	FireInterval float64
	// MagazineSize is the number of shots before a reload
	MagazineSize int
	// ReloadTime is how long a reload takes
	ReloadTime float64
}

var weaponStats = map[Weapon]WeaponStats{
	WeaponPistol: {
		Damage:       15,
		Pellets:      1,
		FireInterval: 0.35,
		MagazineSize: 12,
		ReloadTime:   1.0,
	},
	WeaponShotgun: {
		Damage:       34,
		Pellets:      3,
		FireInterval: 0.9,
		MagazineSize: 6,
		ReloadTime:   1.8,
	},
	WeaponRifle: {
		Damage:       50,
		Pellets:      1,
		FireInterval: 1.2,
		MagazineSize: 5,
		ReloadTime:   2.2,
	},
}

// Stats returns the firing characteristics of w. Unknown weapons fire like a pistol.
func (w Weapon) Stats() WeaponStats {
	if s, ok := weaponStats[w]; ok {
		return s
	}
	return weaponStats[WeaponPistol]
}

// BulletHeadings returns the headings, in degrees, of the bullets fired by
// w from a player whose sprite rotation is angle.
func (w Weapon) BulletHeadings(angle float64) []float64 {
	heading := angle + constants.BulletAngleOffset
	if w == WeaponShotgun {
		return []float64{
			heading - constants.ShotgunSpread,
			heading,
			heading + constants.ShotgunSpread,
		}
	}
	return []float64{heading}
}

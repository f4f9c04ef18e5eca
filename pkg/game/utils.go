package game

import "github.com/cbodonnell/arena/pkg/packets"

// LoginFromPlayer announces a player at its current position.
func LoginFromPlayer(p Player) *packets.Login {
	return &packets.Login{
		Username: p.Username,
		X:        p.Position.X,
		Y:        p.Position.Y,
	}
}

// MoveFromPlayer reports the full movement state of a player.
func MoveFromPlayer(p Player) *packets.Move {
	return &packets.Move{
		Username: p.Username,
		X:        p.Position.X,
		Y:        p.Position.Y,
		Angle:    p.Angle,
		State:    p.State,
		Weapon:   p.Weapon,
	}
}

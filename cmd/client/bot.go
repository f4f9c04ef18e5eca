package main

import (
	"math/rand"

	"github.com/cbodonnell/arena/pkg/game"
	"github.com/cbodonnell/arena/pkg/game/constants"
	"github.com/cbodonnell/arena/pkg/game/types"
	"github.com/cbodonnell/arena/pkg/kinematic"
)

const (
	// botTurnTicks is how many ticks the bot keeps its heading
	botTurnTicks = 45
	// botFireChance is the chance to pull the trigger on a tick
	botFireChance = 0.2
	// botSwitchChance is the chance to switch weapons on a turn
	botSwitchChance = 0.1
)

// botInput wanders in a random direction and shoots where it is going.
type botInput struct {
	rng   *rand.Rand
	ticks int
	move  kinematic.Vector
	aim   float64
}

func newBotInput(rng *rand.Rand) game.Input {
	return &botInput{rng: rng}
}

func (b *botInput) Poll() game.InputState {
	var weapon *types.Weapon
	if b.ticks%botTurnTicks == 0 {
		heading := b.rng.Float64() * 360
		b.move = kinematic.FromAngle(heading)
		b.aim = heading - constants.BulletAngleOffset
		if b.rng.Float64() < botSwitchChance {
			w := types.Weapons[b.rng.Intn(len(types.Weapons))]
			weapon = &w
		}
	}
	b.ticks++

	return game.InputState{
		Move:   b.move,
		Aim:    b.aim,
		Fire:   b.rng.Float64() < botFireChance,
		Weapon: weapon,
	}
}

package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/cbodonnell/arena/pkg/game/constants"
	"github.com/cbodonnell/arena/pkg/game/types"
	"github.com/cbodonnell/arena/pkg/kinematic"
	"github.com/cbodonnell/arena/pkg/maps"
	"github.com/cbodonnell/arena/pkg/packets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testMapContent is an 8x8 room with a single spawn point at (128, 128)
const testMapContent = `1 1 1 1 1 1 1 1
1 0 0 0 0 0 0 1
1 0 17 0 0 0 0 1
1 0 0 0 0 0 0 1
1 0 0 0 0 0 0 1
1 0 0 0 0 0 0 1
1 0 0 0 0 0 0 1
1 1 1 1 1 1 1 1
`

var testSpawn = kinematic.Vector{X: 128, Y: 128}

func newTestMap(t *testing.T) *maps.Map {
	t.Helper()
	m, err := maps.FromContent("room.map", testMapContent)
	require.NoError(t, err)
	return m
}

func newTestWorld(t *testing.T) *World {
	t.Helper()
	return NewWorld(NewWorldOptions{
		Map:           newTestMap(t),
		LocalUsername: "alice",
		Rand:          rand.New(rand.NewSource(1)),
	})
}

func TestNewWorld(t *testing.T) {
	w := newTestWorld(t)

	local, ok := w.LocalPlayer()
	require.True(t, ok)
	assert.Equal(t, "alice", local.Username)
	assert.Equal(t, testSpawn, local.Position)
	assert.Equal(t, constants.PlayerMaxHealth, local.Health)
	assert.True(t, local.IsLocal())
	assert.Nil(t, local.Object)
	assert.Len(t, w.Players(), 1)
	assert.Empty(t, w.Bullets())
}

func TestWorld_AddRemovePlayer(t *testing.T) {
	w := newTestWorld(t)

	assert.True(t, w.AddPlayer("bob", 300, 300))
	assert.False(t, w.AddPlayer("BOB", 0, 0))
	assert.False(t, w.AddPlayer("alice", 0, 0))

	bob, ok := w.Player("bob")
	require.True(t, ok)
	assert.Equal(t, kinematic.Vector{X: 300, Y: 300}, bob.Position)
	assert.False(t, bob.IsLocal())

	assert.False(t, w.RemovePlayer("alice"))
	assert.True(t, w.RemovePlayer("Bob"))
	assert.False(t, w.RemovePlayer("bob"))
	assert.Len(t, w.Players(), 1)
}

func TestWorld_ApplyMove(t *testing.T) {
	w := newTestWorld(t)
	w.AddPlayer("bob", 300, 300)

	move := &packets.Move{Username: "bob", X: 310, Y: 320, Angle: 45, State: types.AnimationRunning, Weapon: types.WeaponRifle}
	require.True(t, w.ApplyMove(move))
	once, _ := w.Player("bob")
	require.True(t, w.ApplyMove(move))
	twice, _ := w.Player("bob")

	assert.Equal(t, once, twice)
	assert.Equal(t, kinematic.Vector{X: 310, Y: 320}, twice.Position)
	assert.Equal(t, 45.0, twice.Angle)
	assert.Equal(t, types.AnimationRunning, twice.State)
	assert.Equal(t, types.WeaponRifle, twice.Weapon)

	assert.False(t, w.ApplyMove(&packets.Move{Username: "alice", X: 1, Y: 1}))
	assert.False(t, w.ApplyMove(&packets.Move{Username: "carol", X: 1, Y: 1}))
	local, _ := w.LocalPlayer()
	assert.Equal(t, testSpawn, local.Position)
}

func TestWorld_ApplyFireShotgunSpread(t *testing.T) {
	w := newTestWorld(t)
	w.AddPlayer("bob", 300, 300)

	bullets := w.ApplyFire(&packets.Fire{Username: "bob", X: 300, Y: 300, Angle: 0, Weapon: types.WeaponShotgun})
	require.Len(t, bullets, 3)

	want := []float64{80, 90, 100}
	for i, b := range bullets {
		assert.Equal(t, "bob", b.Owner)
		assert.InDelta(t, want[i], b.Heading(), 1e-9)
		assert.Equal(t, types.WeaponShotgun.Stats().Damage, b.Damage)
		assert.InDelta(t, 344, b.Position.X, 1e-9)
		assert.InDelta(t, 344, b.Position.Y, 1e-9)
	}
	assert.Len(t, w.Bullets(), 3)
}

func TestWorld_BulletGraceWindow(t *testing.T) {
	w := newTestWorld(t)
	w.AddPlayer("bob", 100, 100)

	// the muzzle of bob is inside alice
	w.ApplyFire(&packets.Fire{Username: "bob", X: 100, Y: 100, Angle: 0, Weapon: types.WeaponPistol})
	out := w.Update(constants.BulletGraceTime / 2)

	assert.Empty(t, out)
	local, _ := w.LocalPlayer()
	assert.Equal(t, constants.PlayerMaxHealth, local.Health)
	assert.Len(t, w.Bullets(), 1)
}

// fireUpAtAlice makes bob, standing below alice, shoot straight up at her.
func fireUpAtAlice(w *World) {
	w.ApplyFire(&packets.Fire{Username: "bob", X: 128, Y: 352, Angle: -180, Weapon: types.WeaponPistol})
}

func updateUntilNoBullets(t *testing.T, w *World) []packets.Packet {
	t.Helper()
	var out []packets.Packet
	for i := 0; i < 20 && len(w.Bullets()) > 0; i++ {
		out = append(out, w.Update(0.05)...)
	}
	require.Empty(t, w.Bullets())
	return out
}

func TestWorld_BulletHitsLocalPlayer(t *testing.T) {
	w := newTestWorld(t)
	w.AddPlayer("bob", 128, 352)

	fireUpAtAlice(w)
	out := updateUntilNoBullets(t, w)

	assert.Empty(t, out)
	local, _ := w.LocalPlayer()
	assert.Equal(t, constants.PlayerMaxHealth-types.WeaponPistol.Stats().Damage, local.Health)
}

func TestWorld_BulletRemovedByWall(t *testing.T) {
	w := newTestWorld(t)
	w.AddPlayer("bob", 300, 300)

	// heading 0 travels right, into the east wall
	w.ApplyFire(&packets.Fire{Username: "bob", X: 300, Y: 300, Angle: -90, Weapon: types.WeaponPistol})
	for i := 0; i < 3; i++ {
		w.Update(0.05)
	}

	assert.Empty(t, w.Bullets())
	bob, _ := w.Player("bob")
	assert.Equal(t, constants.PlayerMaxHealth, bob.Health)
}

func TestWorld_LocalDeathAndRespawn(t *testing.T) {
	w := newTestWorld(t)
	w.AddPlayer("bob", 128, 352)
	w.local.Health = 10

	fireUpAtAlice(w)
	out := updateUntilNoBullets(t, w)

	require.Len(t, out, 1)
	death, ok := out[0].(*packets.Death)
	require.True(t, ok)
	assert.Equal(t, "bob", death.Killer)
	assert.Equal(t, "alice", death.Killed)
	assert.NotZero(t, death.Seq)

	// no input is applied while the death is unacknowledged
	assert.Nil(t, w.ApplyLocalInput(InputState{Fire: true}, 0.05))

	// the death is reported again until the server echoes it
	var resent []packets.Packet
	for i := 0; i < 10; i++ {
		resent = append(resent, w.Update(0.05)...)
	}
	require.NotEmpty(t, resent)
	assert.Equal(t, death, resent[0])

	require.True(t, w.ApplyDeath(death))
	local, _ := w.LocalPlayer()
	assert.Equal(t, constants.PlayerMaxHealth, local.Health)
	assert.True(t, w.Map().IsSpawnPoint(local.Position))
	assert.Equal(t, 1, local.Deaths)
	bob, _ := w.Player("bob")
	assert.Equal(t, 1, bob.Kills)

	assert.Empty(t, w.Update(constants.DeathResendInterval))
	assert.False(t, w.ApplyDeath(death))
	kills, deaths := w.Stats()
	assert.Equal(t, 0, kills)
	assert.Equal(t, 1, deaths)
}

func TestWorld_ApplyDeath(t *testing.T) {
	tests := []struct {
		name       string
		deaths     []*packets.Death
		wantKills  map[string]int
		wantDeaths map[string]int
	}{
		{
			name:       "remote kill",
			deaths:     []*packets.Death{{Killer: "alice", Killed: "bob"}},
			wantKills:  map[string]int{"alice": 1, "bob": 0},
			wantDeaths: map[string]int{"alice": 0, "bob": 1},
		},
		{
			name:       "unnumbered deaths always apply",
			deaths:     []*packets.Death{{Killer: "alice", Killed: "bob"}, {Killer: "alice", Killed: "bob"}},
			wantKills:  map[string]int{"alice": 2, "bob": 0},
			wantDeaths: map[string]int{"alice": 0, "bob": 2},
		},
		{
			name:       "duplicate numbered death",
			deaths:     []*packets.Death{{Killer: "alice", Killed: "bob", Seq: 3}, {Killer: "alice", Killed: "bob", Seq: 3}},
			wantKills:  map[string]int{"alice": 1, "bob": 0},
			wantDeaths: map[string]int{"alice": 0, "bob": 1},
		},
		{
			name:       "self kill",
			deaths:     []*packets.Death{{Killer: "bob", Killed: "bob"}},
			wantKills:  map[string]int{"alice": 0, "bob": 0},
			wantDeaths: map[string]int{"alice": 0, "bob": 1},
		},
		{
			name:       "unknown participants",
			deaths:     []*packets.Death{{Killer: "carol", Killed: "dave"}},
			wantKills:  map[string]int{"alice": 0, "bob": 0},
			wantDeaths: map[string]int{"alice": 0, "bob": 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(t)
			w.AddPlayer("bob", 300, 300)
			for _, d := range tt.deaths {
				w.ApplyDeath(d)
			}
			for _, p := range w.Players() {
				assert.Equal(t, tt.wantKills[p.Username], p.Kills, "kills of %s", p.Username)
				assert.Equal(t, tt.wantDeaths[p.Username], p.Deaths, "deaths of %s", p.Username)
			}
		})
	}
}

func TestWorld_ApplyLocalInput(t *testing.T) {
	w := newTestWorld(t)
	pistol := types.WeaponPistol.Stats()

	out := w.ApplyLocalInput(InputState{Aim: 30, Fire: true}, 1.0/30)
	require.Len(t, out, 1)
	assert.Equal(t, &packets.Fire{Username: "alice", X: 128, Y: 128, Angle: 30, Weapon: types.WeaponPistol}, out[0])
	local, _ := w.LocalPlayer()
	assert.Equal(t, pistol.MagazineSize-1, local.Ammo)
	assert.Equal(t, types.AnimationShooting, local.State)
	assert.Len(t, w.Bullets(), 1)

	// too soon after the last shot
	assert.Empty(t, w.ApplyLocalInput(InputState{Aim: 30, Fire: true}, 1.0/30))

	w.Update(pistol.FireInterval)
	assert.Len(t, w.ApplyLocalInput(InputState{Aim: 30, Fire: true}, 1.0/30), 1)

	assert.Empty(t, w.ApplyLocalInput(InputState{Reload: true}, 1.0/30))
	local, _ = w.LocalPlayer()
	assert.True(t, local.Reloading())
	assert.Equal(t, types.AnimationReloading, local.State)

	w.Update(pistol.ReloadTime)
	local, _ = w.LocalPlayer()
	assert.False(t, local.Reloading())
	assert.Equal(t, pistol.MagazineSize, local.Ammo)
}

func TestWorld_ApplyLocalInputWeaponSwitch(t *testing.T) {
	w := newTestWorld(t)
	shotgun := types.WeaponShotgun

	out := w.ApplyLocalInput(InputState{Fire: true, Weapon: &shotgun}, 1.0/30)
	require.Len(t, out, 1)
	assert.Equal(t, types.WeaponShotgun, out[0].(*packets.Fire).Weapon)
	assert.Len(t, w.Bullets(), 3)

	local, _ := w.LocalPlayer()
	assert.Equal(t, types.WeaponShotgun, local.Weapon)
	assert.Equal(t, shotgun.Stats().MagazineSize-1, local.Ammo)

	move, ok := w.LocalMove()
	require.True(t, ok)
	assert.Equal(t, types.WeaponShotgun, move.Weapon)
}

func TestWorld_LocalMovementStopsAtWalls(t *testing.T) {
	w := newTestWorld(t)

	for i := 0; i < 30; i++ {
		w.ApplyLocalInput(InputState{Move: kinematic.Vector{X: -1}}, 1.0/30)
	}

	local, _ := w.LocalPlayer()
	assert.InDelta(t, constants.TileSize, local.Position.X, 1e-9)
	assert.InDelta(t, testSpawn.Y, local.Position.Y, 1e-9)

	w.ApplyLocalInput(InputState{Move: kinematic.Vector{Y: 1}}, 1.0/30)
	local, _ = w.LocalPlayer()
	assert.Equal(t, types.AnimationRunning, local.State)
	assert.InDelta(t, testSpawn.Y+constants.PlayerSpeed/30, local.Position.Y, 1e-9)
}

func TestWorld_SetGameOver(t *testing.T) {
	w := newTestWorld(t)
	assert.False(t, w.IsGameOver())

	w.SetGameOver("bob", 10)
	assert.True(t, w.IsGameOver())
	winner, kills := w.Winner()
	assert.Equal(t, "bob", winner)
	assert.Equal(t, 10, kills)
}

func TestWorld_DeathSeqSurvivesRebuild(t *testing.T) {
	before := uint64(time.Now().UnixNano())

	// an observer that saw deaths from alice's previous world
	observer := NewWorld(NewWorldOptions{Map: newTestMap(t), LocalUsername: "bob"})
	observer.AddPlayer("alice", 128, 128)
	require.True(t, observer.ApplyDeath(&packets.Death{Killer: "bob", Killed: "alice", Seq: 3}))

	w := newTestWorld(t)
	w.AddPlayer("bob", 128, 352)
	w.local.Health = 10
	fireUpAtAlice(w)
	out := updateUntilNoBullets(t, w)
	require.Len(t, out, 1)

	death := out[0].(*packets.Death)
	assert.Greater(t, death.Seq, before)
	assert.True(t, observer.ApplyDeath(death))

	bob, _ := observer.LocalPlayer()
	assert.Equal(t, 2, bob.Kills)
}

package game

import (
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/cbodonnell/arena/pkg/game/constants"
	"github.com/cbodonnell/arena/pkg/game/types"
	"github.com/cbodonnell/arena/pkg/kinematic"
	"github.com/cbodonnell/arena/pkg/log"
	"github.com/cbodonnell/arena/pkg/maps"
	"github.com/cbodonnell/arena/pkg/packets"
	"github.com/solarlune/resolv"
)

// InputState is what the local input source reports for one tick. Fire,
// Reload and Weapon are edge triggered.
type InputState struct {
	// Move is the movement intent, normalized by the world
	Move kinematic.Vector
	// Aim is the facing angle in degrees
	Aim    float64
	Fire   bool
	Reload bool
	Weapon *types.Weapon
}

// Input reports local input once per tick.
type Input interface {
	Poll() InputState
}

type NewWorldOptions struct {
	Map *maps.Map
	// LocalUsername creates the locally simulated player at a random spawn
	// point. It may be empty for a world without a local player.
	LocalUsername string
	Rand          *rand.Rand
}

// World is this instance's eventually consistent view of the session:
// participants, bullets and map geometry. It is safe for concurrent use.
type World struct {
	lock         sync.Mutex
	gameMap      *maps.Map
	space        *resolv.Space
	players      []*Player
	local        *Player
	bullets      []*Bullet
	rng          *rand.Rand
	deathSeq     uint64
	pendingDeath *packets.Death
	resendTimer  float64
	lastDeaths   map[string]uint64
	gameOver     bool
	winner       string
	winnerKills  int
}

func NewWorld(opts NewWorldOptions) *World {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	// death sequence numbers keep increasing across restarts and rebuilds
	w := &World{
		gameMap:    opts.Map,
		space:      NewCollisionSpace(opts.Map),
		rng:        rng,
		deathSeq:   uint64(time.Now().UnixNano()),
		lastDeaths: make(map[string]uint64),
	}

	if opts.LocalUsername != "" {
		spawn := opts.Map.RandomSpawn(rng)
		w.local = NewPlayer(opts.LocalUsername, types.LocalEndpoint, spawn.X, spawn.Y)
		w.addPlayer(w.local)
	}

	return w
}

// Map returns the immutable map geometry.
func (w *World) Map() *maps.Map {
	return w.gameMap
}

// Tiles returns the map tiles for rendering.
func (w *World) Tiles() []maps.Tile {
	return w.gameMap.Tiles()
}

// LocalPlayer returns a copy of the locally simulated player.
func (w *World) LocalPlayer() (Player, bool) {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.local == nil {
		return Player{}, false
	}
	return w.local.Copy(), true
}

// LocalUsername returns the username of the local player, if any.
func (w *World) LocalUsername() string {
	if w.local == nil {
		return ""
	}
	return w.local.Username
}

// Stats returns the kill and death counts of the local player.
func (w *World) Stats() (kills int, deaths int) {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.local == nil {
		return 0, 0
	}
	return w.local.Kills, w.local.Deaths
}

// Player returns a copy of a participant.
func (w *World) Player(username string) (Player, bool) {
	w.lock.Lock()
	defer w.lock.Unlock()
	p := w.find(username)
	if p == nil {
		return Player{}, false
	}
	return p.Copy(), true
}

// Players returns a copy of every participant.
func (w *World) Players() []Player {
	w.lock.Lock()
	defer w.lock.Unlock()
	players := make([]Player, 0, len(w.players))
	for _, p := range w.players {
		players = append(players, p.Copy())
	}
	return players
}

// Bullets returns a copy of every live bullet.
func (w *World) Bullets() []Bullet {
	w.lock.Lock()
	defer w.lock.Unlock()
	bullets := make([]Bullet, 0, len(w.bullets))
	for _, b := range w.bullets {
		bullets = append(bullets, b.Copy())
	}
	return bullets
}

// IsGameOver reports whether the match ended.
func (w *World) IsGameOver() bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.gameOver
}

// Winner returns the winner of an ended match.
func (w *World) Winner() (username string, kills int) {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.winner, w.winnerKills
}

// AddPlayer inserts a remote participant unless one with the same username
// exists. It returns true when the participant was added.
func (w *World) AddPlayer(username string, x, y float64) bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.find(username) != nil {
		return false
	}
	w.addPlayer(NewPlayer(username, types.Endpoint{}, x, y))
	return true
}

// RemovePlayer removes a remote participant. The local player is never removed.
func (w *World) RemovePlayer(username string) bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	for i, p := range w.players {
		if !strings.EqualFold(p.Username, username) {
			continue
		}
		if p.IsLocal() {
			log.Warn("Ignoring disconnect of the local player %s", username)
			return false
		}
		w.space.Remove(p.Object)
		w.players = append(w.players[:i], w.players[i+1:]...)
		delete(w.lastDeaths, strings.ToLower(username))
		return true
	}
	return false
}

// ApplyMove overwrites the state of a remote participant. Applying the same
// Move twice has the same effect as applying it once. Moves for the local
// player are ignored.
func (w *World) ApplyMove(m *packets.Move) bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	p := w.find(m.Username)
	if p == nil || p.IsLocal() {
		return false
	}
	p.SetPosition(kinematic.Vector{X: m.X, Y: m.Y})
	p.Angle = m.Angle
	p.State = m.State
	p.Weapon = m.Weapon
	return true
}

// ApplyFire spawns the bullets of a shot reported by another participant.
func (w *World) ApplyFire(f *packets.Fire) []Bullet {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.fire(f.Username, kinematic.Vector{X: f.X, Y: f.Y}, f.Angle, f.Weapon)
}

// ApplyDeath applies kill and death counters for both participants. If the
// local player was killed it is healed and moved to a random spawn point.
// Numbered deaths that are not newer than the last one seen for the victim
// are ignored. It returns false when the packet was ignored.
func (w *World) ApplyDeath(d *packets.Death) bool {
	w.lock.Lock()
	defer w.lock.Unlock()

	if d.Seq > 0 {
		key := strings.ToLower(d.Killed)
		if d.Seq <= w.lastDeaths[key] {
			return false
		}
		w.lastDeaths[key] = d.Seq
	}

	if !strings.EqualFold(d.Killer, d.Killed) {
		if killer := w.find(d.Killer); killer != nil {
			killer.Kills++
		}
	}
	killed := w.find(d.Killed)
	if killed == nil {
		return true
	}
	killed.Deaths++

	if killed.IsLocal() {
		w.respawnLocal()
		if w.pendingDeath != nil && d.Seq >= w.pendingDeath.Seq {
			w.pendingDeath = nil
		}
	}
	return true
}

// SetGameOver records the end of the match.
func (w *World) SetGameOver(winner string, kills int) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.gameOver = true
	w.winner = winner
	w.winnerKills = kills
}

// LocalMove returns the full state of the local player as a Move packet.
func (w *World) LocalMove() (*packets.Move, bool) {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.local == nil {
		return nil, false
	}
	return MoveFromPlayer(w.local.Copy()), true
}

// ApplyLocalInput moves and aims the local player and handles weapon
// events. It returns the packets to send, a Fire for every shot.
func (w *World) ApplyLocalInput(in InputState, dt float64) []packets.Packet {
	w.lock.Lock()
	defer w.lock.Unlock()

	p := w.local
	if p == nil || w.pendingDeath != nil {
		return nil
	}

	if in.Weapon != nil && in.Weapon.Valid() && *in.Weapon != p.Weapon {
		p.Weapon = *in.Weapon
		p.Ammo = p.Weapon.Stats().MagazineSize
		p.reloadLeft = 0
		p.sinceFired = p.Weapon.Stats().FireInterval
	}
	p.Angle = in.Aim

	p.State = types.AnimationIdle
	if moved := w.moveLocal(in.Move, dt); moved {
		p.State = types.AnimationRunning
	}

	stats := p.Weapon.Stats()
	if in.Reload && !p.Reloading() && p.Ammo < stats.MagazineSize {
		p.reloadLeft = stats.ReloadTime
	}
	if p.Reloading() {
		p.State = types.AnimationReloading
		return nil
	}

	if !in.Fire || p.sinceFired < stats.FireInterval || p.Ammo <= 0 {
		return nil
	}

	p.Ammo--
	p.sinceFired = 0
	p.State = types.AnimationShooting
	w.fire(p.Username, p.Position, p.Angle, p.Weapon)
	if p.Ammo == 0 {
		p.reloadLeft = stats.ReloadTime
	}

	return []packets.Packet{&packets.Fire{
		Username: p.Username,
		X:        p.Position.X,
		Y:        p.Position.Y,
		Angle:    p.Angle,
		Weapon:   p.Weapon,
	}}
}

// moveLocal moves the local player along dir, stopping at blocking tiles.
func (w *World) moveLocal(dir kinematic.Vector, dt float64) bool {
	length := math.Hypot(dir.X, dir.Y)
	if length == 0 {
		return false
	}
	delta := kinematic.Displacement(dir.Scale(constants.PlayerSpeed/length), dt)

	p := w.local
	dx, dy := delta.X, delta.Y
	collision := p.Object.Check(dx, 0, CollisionSpaceTagLevel)
	if obj := firstContact(p.Object, dx, 0, collision); obj != nil {
		dx = collision.ContactWithObject(obj).X
	}
	p.SetPosition(p.Position.Add(kinematic.Vector{X: dx}))
	collision = p.Object.Check(0, dy, CollisionSpaceTagLevel)
	if obj := firstContact(p.Object, 0, dy, collision); obj != nil {
		dy = collision.ContactWithObject(obj).Y
	}
	p.SetPosition(p.Position.Add(kinematic.Vector{Y: dy}))

	return dx != 0 || dy != 0
}

// Update advances weapon timers and bullets by dt seconds. It returns the
// packets to send: a Death when the local player is killed, repeated every
// DeathResendInterval until the server echoes it back.
func (w *World) Update(dt float64) []packets.Packet {
	w.lock.Lock()
	defer w.lock.Unlock()

	var out []packets.Packet

	if p := w.local; p != nil {
		p.sinceFired += dt
		if p.Reloading() {
			p.reloadLeft -= dt
			if p.reloadLeft <= 0 {
				p.reloadLeft = 0
				p.Ammo = p.Weapon.Stats().MagazineSize
			}
		}
	}

	alive := w.bullets[:0]
	for _, b := range w.bullets {
		if death, keep := w.updateBullet(b, dt); keep {
			alive = append(alive, b)
		} else {
			w.space.Remove(b.Object)
			if death != nil {
				out = append(out, death)
			}
		}
	}
	for i := len(alive); i < len(w.bullets); i++ {
		w.bullets[i] = nil
	}
	w.bullets = alive

	if w.pendingDeath != nil {
		w.resendTimer += dt
		if w.resendTimer >= constants.DeathResendInterval {
			w.resendTimer = 0
			out = append(out, w.pendingDeath)
		}
	}

	return out
}

// updateBullet moves a bullet and resolves its collisions. It returns false
// when the bullet must be removed, with the Death to report if it killed the
// local player.
func (w *World) updateBullet(b *Bullet, dt float64) (*packets.Death, bool) {
	b.Age += dt
	if b.Age > constants.BulletMaxLifetime {
		return nil, false
	}

	b.Position = b.Position.Add(kinematic.Displacement(b.Direction.Scale(constants.BulletSpeed), dt))
	b.Object.Position.X = b.Position.X
	b.Object.Position.Y = b.Position.Y
	b.Object.Update()

	size := w.gameMap.PixelSize()
	if b.Position.X < 0 || b.Position.Y < 0 || b.Position.X > size || b.Position.Y > size {
		return nil, false
	}
	if b.Age < constants.BulletGraceTime {
		return nil, true
	}

	if firstContact(b.Object, 0, 0, b.Object.Check(0, 0, CollisionSpaceTagLevel)) != nil {
		return nil, false
	}

	collision := b.Object.Check(0, 0, CollisionSpaceTagPlayer)
	if collision == nil {
		return nil, true
	}
	for _, obj := range collision.Objects {
		target, ok := obj.Data.(*Player)
		if !ok || strings.EqualFold(target.Username, b.Owner) || !overlapsAt(b.Object, 0, 0, obj) {
			continue
		}
		return w.hit(target, b), false
	}
	return nil, true
}

// hit applies the damage of b to target when target is the local player.
func (w *World) hit(target *Player, b *Bullet) *packets.Death {
	if !target.IsLocal() || w.pendingDeath != nil {
		return nil
	}

	target.Health -= b.Damage
	log.Debug("%s hit %s for %d damage", b.Owner, target.Username, b.Damage)
	if target.Health > 0 {
		return nil
	}

	target.Health = 0
	w.deathSeq++
	w.pendingDeath = &packets.Death{Killer: b.Owner, Killed: target.Username, Seq: w.deathSeq}
	w.resendTimer = 0
	return w.pendingDeath
}

// fire spawns the bullets of one shot. The lock must be held.
func (w *World) fire(owner string, position kinematic.Vector, angle float64, weapon types.Weapon) []Bullet {
	muzzle := MuzzlePosition(position, angle)
	stats := weapon.Stats()

	var spawned []Bullet
	for _, heading := range weapon.BulletHeadings(angle) {
		b := NewBullet(owner, muzzle, heading, stats.Damage)
		w.space.Add(b.Object)
		w.bullets = append(w.bullets, b)
		spawned = append(spawned, b.Copy())
	}
	return spawned
}

func (w *World) respawnLocal() {
	spawn := w.gameMap.RandomSpawn(w.rng)
	w.local.Health = constants.PlayerMaxHealth
	w.local.SetPosition(spawn)
	w.local.State = types.AnimationIdle
}

func (w *World) addPlayer(p *Player) {
	p.Object.Data = p
	w.space.Add(p.Object)
	w.players = append(w.players, p)
}

// find looks up a participant by username, ignoring case. The lock must be held.
func (w *World) find(username string) *Player {
	for _, p := range w.players {
		if strings.EqualFold(p.Username, username) {
			return p
		}
	}
	return nil
}

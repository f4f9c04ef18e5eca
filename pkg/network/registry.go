package network

import (
	"strings"
	"sync"
	"time"

	"github.com/cbodonnell/arena/pkg/game/types"
	"github.com/cbodonnell/arena/pkg/packets"
)

// Connection is a participant known to the server.
type Connection struct {
	Username string
	Endpoint types.Endpoint
	X        float64
	Y        float64
	Angle    float64
	State    types.AnimationState
	Weapon   types.Weapon
	Kills    int
	Deaths   int
	LastSeen time.Time
}

// LocalStatsFunc reports the kill and death counts of the locally simulated
// participant of a host.
type LocalStatsFunc func() (kills int, deaths int)

// ConnectionRegistry is the server's roster of participants and match counters.
type ConnectionRegistry struct {
	connections []*Connection
	lock        sync.RWMutex
	maxKills    int
	// counters of the host's own participant are owned by its world
	hostUsername string
	localStats   LocalStatsFunc
	deathSeqs    map[string]uint64
	ended        bool
	now          func() time.Time
}

// NewConnectionRegistry creates a new registry. A non-positive maxKills
// disables the kill limit.
func NewConnectionRegistry(maxKills int) *ConnectionRegistry {
	return &ConnectionRegistry{
		maxKills:  maxKills,
		deathSeqs: make(map[string]uint64),
		now:       time.Now,
	}
}

func (r *ConnectionRegistry) MaxKills() int {
	return r.maxKills
}

// SetHost marks username as the host's own participant. Its counters are
// read from stats instead of being incremented by the registry.
func (r *ConnectionRegistry) SetHost(username string, stats LocalStatsFunc) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.hostUsername = username
	r.localStats = stats
}

// AddOrUpdate adds a participant, or patches the endpoint of an existing one.
// The gameplay state of an existing participant is never overwritten. It
// returns true when the participant is new.
func (r *ConnectionRegistry) AddOrUpdate(username string, endpoint types.Endpoint, x, y float64) bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	if c := r.find(username); c != nil {
		if endpoint.Valid() {
			if c.Endpoint.Valid() && !c.Endpoint.Equal(endpoint) {
				// a new socket means a new process with its own death sequence
				delete(r.deathSeqs, strings.ToLower(c.Username))
			}
			c.Endpoint = endpoint
		}
		c.LastSeen = r.now()
		return false
	}

	r.connections = append(r.connections, &Connection{
		Username: username,
		Endpoint: endpoint,
		X:        x,
		Y:        y,
		LastSeen: r.now(),
	})
	return true
}

// Remove removes a participant. It returns false if it was not known.
func (r *ConnectionRegistry) Remove(username string) bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	for i, c := range r.connections {
		if strings.EqualFold(c.Username, username) {
			r.connections = append(r.connections[:i], r.connections[i+1:]...)
			delete(r.deathSeqs, strings.ToLower(username))
			return true
		}
	}
	return false
}

// Get returns a copy of a participant.
func (r *ConnectionRegistry) Get(username string) (Connection, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	c := r.find(username)
	if c == nil {
		return Connection{}, false
	}
	return r.snapshot(c), true
}

// Roster returns a copy of every participant in join order.
func (r *ConnectionRegistry) Roster() []Connection {
	r.lock.RLock()
	defer r.lock.RUnlock()

	roster := make([]Connection, 0, len(r.connections))
	for _, c := range r.connections {
		roster = append(roster, r.snapshot(c))
	}
	return roster
}

// Size returns the number of participants.
func (r *ConnectionRegistry) Size() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.connections)
}

// UpdateMove records the movement state reported by a participant.
func (r *ConnectionRegistry) UpdateMove(p *packets.Move) bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	c := r.find(p.Username)
	if c == nil {
		return false
	}
	c.X = p.X
	c.Y = p.Y
	c.Angle = p.Angle
	c.State = p.State
	c.Weapon = p.Weapon
	c.LastSeen = r.now()
	return true
}

// Touch marks a participant as recently heard from.
func (r *ConnectionRegistry) Touch(username string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if c := r.find(username); c != nil {
		c.LastSeen = r.now()
	}
}

// Idle returns the participants not heard from within timeout. The local
// participant is never idle.
func (r *ConnectionRegistry) Idle(timeout time.Duration) []string {
	r.lock.RLock()
	defer r.lock.RUnlock()

	deadline := r.now().Add(-timeout)
	var idle []string
	for _, c := range r.connections {
		if c.Endpoint.IsLocal() || r.isHost(c.Username) {
			continue
		}
		if c.LastSeen.Before(deadline) {
			idle = append(idle, c.Username)
		}
	}
	return idle
}

// RecordKill increments the kill counter of a participant.
func (r *ConnectionRegistry) RecordKill(username string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.recordKill(username)
}

// RecordDeath increments the death counter of a participant.
func (r *ConnectionRegistry) RecordDeath(username string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.recordDeath(username)
}

// RecordDeathEvent applies a Death packet to the counters. Numbered deaths
// that are not newer than the last one seen for the victim are duplicates
// and are ignored. A self-inflicted death counts as a death but not a kill.
// It returns false when the event was ignored.
func (r *ConnectionRegistry) RecordDeathEvent(p *packets.Death) bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	if p.Seq > 0 {
		key := strings.ToLower(p.Killed)
		if p.Seq <= r.deathSeqs[key] {
			return false
		}
		r.deathSeqs[key] = p.Seq
	}

	if !strings.EqualFold(p.Killer, p.Killed) {
		r.recordKill(p.Killer)
	}
	r.recordDeath(p.Killed)
	return true
}

// IsMatchOver reports whether a participant reached the kill limit, and who.
func (r *ConnectionRegistry) IsMatchOver() (winner string, kills int, over bool) {
	if r.maxKills <= 0 {
		return "", 0, false
	}

	for _, c := range r.Roster() {
		if c.Kills >= r.maxKills {
			return c.Username, c.Kills, true
		}
	}
	return "", 0, false
}

// MarkEnded flags the match as ended. It returns true only the first time.
func (r *ConnectionRegistry) MarkEnded() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.ended {
		return false
	}
	r.ended = true
	return true
}

func (r *ConnectionRegistry) Ended() bool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.ended
}

func (r *ConnectionRegistry) recordKill(username string) {
	if r.isHost(username) {
		return
	}
	if c := r.find(username); c != nil {
		c.Kills++
	}
}

func (r *ConnectionRegistry) recordDeath(username string) {
	if r.isHost(username) {
		return
	}
	if c := r.find(username); c != nil {
		c.Deaths++
	}
}

func (r *ConnectionRegistry) isHost(username string) bool {
	return r.hostUsername != "" && strings.EqualFold(r.hostUsername, username)
}

// snapshot copies c, substituting the host's counters. The lock must be held.
func (r *ConnectionRegistry) snapshot(c *Connection) Connection {
	out := *c
	if r.isHost(c.Username) && r.localStats != nil {
		out.Kills, out.Deaths = r.localStats()
	}
	return out
}

// find looks up a participant by username, ignoring case. The lock must be held.
func (r *ConnectionRegistry) find(username string) *Connection {
	for _, c := range r.connections {
		if strings.EqualFold(c.Username, username) {
			return c
		}
	}
	return nil
}

package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/cbodonnell/arena/pkg/log"
	"github.com/cbodonnell/arena/pkg/maps"
	"github.com/cbodonnell/arena/pkg/packets"
	"github.com/cbodonnell/arena/pkg/queue"
)

// DefaultGameLoopInterval is the default simulation tick
const DefaultGameLoopInterval = time.Second / 30

// Sender sends packets to the server.
type Sender interface {
	Send(p packets.Packet) error
}

// GameManager runs the simulation tick of a participant: it drains the
// packets queued by the client receive loop into the world, applies local
// input and sends the local state out.
type GameManager struct {
	username         string
	isHost           bool
	messageQueue     queue.Queue
	sender           Sender
	input            Input
	mapCache         *maps.Cache
	diagnostics      log.Diagnostics
	rng              *rand.Rand
	gameLoopInterval time.Duration
	world            *World
	worldLock        sync.RWMutex
}

// NewGameManagerOptions contains options for creating a new GameManager.
type NewGameManagerOptions struct {
	Username     string
	IsHost       bool
	MessageQueue queue.Queue
	Sender       Sender
	// Input may be nil for a participant without local input
	Input    Input
	MapCache *maps.Cache
	// World is set when the map is already known, as it is for the host.
	// Otherwise the world is created when MapData is received.
	World            *World
	GameLoopInterval time.Duration
	Diagnostics      log.Diagnostics
	Rand             *rand.Rand
}

func NewGameManager(opts NewGameManagerOptions) *GameManager {
	interval := opts.GameLoopInterval
	if interval <= 0 {
		interval = DefaultGameLoopInterval
	}
	mapCache := opts.MapCache
	if mapCache == nil {
		mapCache = maps.NewCache("")
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &GameManager{
		username:         opts.Username,
		isHost:           opts.IsHost,
		messageQueue:     opts.MessageQueue,
		sender:           opts.Sender,
		input:            opts.Input,
		mapCache:         mapCache,
		diagnostics:      log.OrDefault(opts.Diagnostics),
		rng:              rng,
		gameLoopInterval: interval,
		world:            opts.World,
	}
}

// Start runs the game loop until ctx is done.
func (gm *GameManager) Start(ctx context.Context) error {
	ticker := time.NewTicker(gm.gameLoopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			gm.Tick(gm.gameLoopInterval.Seconds())
		}
	}
}

// World returns the current world, or nil until the map is known. The world
// is replaced when the session switches maps.
func (gm *GameManager) World() *World {
	gm.worldLock.RLock()
	defer gm.worldLock.RUnlock()
	return gm.world
}

func (gm *GameManager) setWorld(w *World) {
	gm.worldLock.Lock()
	defer gm.worldLock.Unlock()
	gm.world = w
}

// Tick runs one iteration of the game loop.
func (gm *GameManager) Tick(dt float64) {
	gm.processServerMessages()

	world := gm.World()
	if world == nil {
		return
	}

	var out []packets.Packet
	if gm.input != nil {
		out = append(out, world.ApplyLocalInput(gm.input.Poll(), dt)...)
	}
	out = append(out, world.Update(dt)...)
	if move, ok := world.LocalMove(); ok {
		out = append(out, move)
	}

	for _, p := range out {
		gm.send(p)
	}
}

// Leave tells the server the local player is leaving.
func (gm *GameManager) Leave() {
	if gm.username == "" {
		return
	}
	gm.send(&packets.Disconnect{Username: gm.username})
}

func (gm *GameManager) send(p packets.Packet) {
	if err := gm.sender.Send(p); err != nil {
		log.Error("Failed to send %s packet: %v", p.Type(), err)
	}
}

// processServerMessages processes all pending packets in the queue
func (gm *GameManager) processServerMessages() {
	for _, item := range gm.messageQueue.ReadAllMessages() {
		p, ok := item.(packets.Packet)
		if !ok {
			log.Warn("Unexpected item in message queue: %T", item)
			continue
		}
		gm.handlePacket(p)
	}
}

func (gm *GameManager) handlePacket(p packets.Packet) {
	if md, ok := p.(*packets.MapData); ok {
		gm.handleMapData(md)
		return
	}

	world := gm.World()
	if world == nil {
		log.Debug("Dropping %s packet, world does not exist yet", p.Type())
		return
	}

	switch p := p.(type) {
	case *packets.Login:
		if world.AddPlayer(p.Username, p.X, p.Y) {
			log.Info("%s joined the session", p.Username)
		}
	case *packets.Disconnect:
		if world.RemovePlayer(p.Username) {
			log.Info("%s left the session", p.Username)
		}
	case *packets.Move:
		if !world.ApplyMove(p) {
			log.Trace("Ignoring move of %s", p.Username)
		}
	case *packets.Fire:
		world.ApplyFire(p)
	case *packets.Death:
		if world.ApplyDeath(p) {
			log.Info("%s killed %s", p.Killer, p.Killed)
		} else {
			log.Debug("Ignoring duplicate death of %s (seq %d)", p.Killed, p.Seq)
		}
	case *packets.GameOver:
		world.SetGameOver(p.Winner, p.Kills)
		gm.diagnostics.ShowMessage(fmt.Sprintf("Match over: %s won with %d kills", p.Winner, p.Kills))
	default:
		log.Warn("Unhandled packet type %s", p.Type())
	}
}

// handleMapData creates the world once the map is known, or rebuilds it when
// the session moved to a different map. The host's world is never rebuilt.
func (gm *GameManager) handleMapData(p *packets.MapData) {
	if world := gm.World(); world != nil {
		if world.Map().Name == p.Name {
			return
		}
		if gm.isHost {
			log.Warn("Ignoring map %s, hosting %s", p.Name, world.Map().Name)
			return
		}
		log.Info("Session switched from map %s to %s", world.Map().Name, p.Name)
	}

	m, err := gm.mapCache.Resolve(p.Name, p.Content, p.HasContent)
	if err != nil {
		gm.diagnostics.ShowError(fmt.Sprintf("Failed to load map %s", p.Name), err)
		return
	}

	world := NewWorld(NewWorldOptions{
		Map:           m,
		LocalUsername: gm.username,
		Rand:          gm.rng,
	})
	gm.setWorld(world)
	gm.diagnostics.ShowMessage(fmt.Sprintf("Playing on map %s", m.Name))

	// announce the real spawn position
	if local, ok := world.LocalPlayer(); ok {
		gm.send(LoginFromPlayer(local))
	}
}

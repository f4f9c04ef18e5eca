package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/cbodonnell/arena/pkg/game"
	"github.com/cbodonnell/arena/pkg/log"
	"github.com/cbodonnell/arena/pkg/maps"
	"github.com/cbodonnell/arena/pkg/network"
	"github.com/cbodonnell/arena/pkg/packets"
	"github.com/cbodonnell/arena/pkg/queue"
	"golang.org/x/sync/errgroup"
)

const (
	// ReadyAttempts and ReadyInterval bound the wait for a socket to come up
	ReadyAttempts = 50
	ReadyInterval = 100 * time.Millisecond
	// LoginRetryInterval is how often a joining participant repeats its
	// Login until the session map is known
	LoginRetryInterval = time.Second
	// DefaultQueueSize is the capacity of the receive queue
	DefaultQueueSize = 1024
	// LoopbackHost is the address a host's own client connects to
	LoopbackHost = "127.0.0.1"
)

var ErrInvalidConfig = errors.New("invalid session config")

// Context describes one session of the local participant. Every component of
// the session is built from it.
type Context struct {
	Username string
	IsHost   bool

	// ServerAddr is the host:port to join. Unused when hosting.
	ServerAddr string

	// Port, MapPath, MaxKills and IdleTimeout configure the hosted server
	Port        int
	MapPath     string
	MaxKills    int
	IdleTimeout time.Duration

	GameLoopInterval time.Duration
	QueueSize        int
	// Input is the local input source. It may be nil.
	Input       game.Input
	MapCache    *maps.Cache
	Diagnostics log.Diagnostics
	Rand        *rand.Rand
}

// Session is a running participant: a client socket, its game loop and, for
// a host, the server it owns.
type Session struct {
	Context Context

	server  *network.Server
	client  *network.Client
	manager *game.GameManager
	group   *errgroup.Group
	cancel  context.CancelFunc
}

// Host starts a server for the configured map, then joins it through the
// loopback interface. The host's participant is registered with the server
// in-process so that its counters come from the local world.
func Host(ctx context.Context, sc Context) (*Session, error) {
	sc.IsHost = true
	s, gctx, err := newSession(ctx, sc)
	if err != nil {
		return nil, err
	}

	s.server = network.NewServer(network.NewServerOptions{
		Port:        sc.Port,
		MapPath:     sc.MapPath,
		MaxKills:    sc.MaxKills,
		IdleTimeout: sc.IdleTimeout,
		Diagnostics: sc.Diagnostics,
	})
	s.group.Go(func() error {
		return s.server.Start(gctx)
	})
	if err := waitReady(gctx, "server", s.server); err != nil {
		return nil, s.fail(err)
	}

	world := game.NewWorld(game.NewWorldOptions{
		Map:           s.server.Map(),
		LocalUsername: sc.Username,
		Rand:          s.Context.Rand,
	})
	local, _ := world.LocalPlayer()
	s.server.AddLocalParticipant(sc.Username, local.Position.X, local.Position.Y, world.Stats)

	serverAddr := network.ServerAddress(LoopbackHost, s.server.Addr().Port)
	if err := s.startClient(gctx, serverAddr, world); err != nil {
		return nil, s.fail(err)
	}

	if err := s.client.Send(game.LoginFromPlayer(local)); err != nil {
		return nil, s.fail(fmt.Errorf("failed to send login: %v", err))
	}

	log.Info("Hosting map %s on port %d as %s", world.Map().Name, s.server.Addr().Port, sc.Username)
	return s, nil
}

// Join connects to a running server. The world is created once the server
// announces its map.
func Join(ctx context.Context, sc Context) (*Session, error) {
	sc.IsHost = false
	if sc.ServerAddr == "" {
		return nil, fmt.Errorf("%w: server address is required", ErrInvalidConfig)
	}
	s, gctx, err := newSession(ctx, sc)
	if err != nil {
		return nil, err
	}

	if err := s.startClient(gctx, sc.ServerAddr, nil); err != nil {
		return nil, s.fail(err)
	}

	// provisional until the map, and with it the spawn point, is known
	login := &packets.Login{Username: sc.Username}
	if err := s.client.Send(login); err != nil {
		return nil, s.fail(fmt.Errorf("failed to send login: %v", err))
	}
	s.group.Go(func() error {
		s.retryLogin(gctx, login)
		return nil
	})

	log.Info("Joining %s as %s", sc.ServerAddr, sc.Username)
	return s, nil
}

func newSession(ctx context.Context, sc Context) (*Session, context.Context, error) {
	if err := packets.ValidateUsername(sc.Username); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if sc.QueueSize <= 0 {
		sc.QueueSize = DefaultQueueSize
	}
	if sc.MapCache == nil {
		sc.MapCache = maps.NewCache("")
	}
	if sc.Rand == nil {
		sc.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	sc.Diagnostics = log.OrDefault(sc.Diagnostics)

	ctx, cancel := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(ctx)
	return &Session{
		Context: sc,
		group:   group,
		cancel:  cancel,
	}, gctx, nil
}

// startClient starts the client socket and the game loop draining it.
func (s *Session) startClient(ctx context.Context, serverAddr string, world *game.World) error {
	messageQueue := queue.NewInMemoryQueue(s.Context.QueueSize)
	s.client = network.NewClient(network.NewClientOptions{
		ServerAddr:   serverAddr,
		MessageQueue: messageQueue,
		Diagnostics:  s.Context.Diagnostics,
	})
	s.group.Go(func() error {
		return s.client.Start(ctx)
	})
	if err := waitReady(ctx, "client", s.client); err != nil {
		return err
	}

	s.manager = game.NewGameManager(game.NewGameManagerOptions{
		Username:         s.Context.Username,
		IsHost:           s.Context.IsHost,
		MessageQueue:     messageQueue,
		Sender:           s.client,
		Input:            s.Context.Input,
		MapCache:         s.Context.MapCache,
		World:            world,
		GameLoopInterval: s.Context.GameLoopInterval,
		Diagnostics:      s.Context.Diagnostics,
		Rand:             s.Context.Rand,
	})
	s.group.Go(func() error {
		return s.manager.Start(ctx)
	})
	return nil
}

// retryLogin repeats the provisional login until the world exists, in case
// the map announcement was lost.
func (s *Session) retryLogin(ctx context.Context, login *packets.Login) {
	ticker := time.NewTicker(LoginRetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.manager.World() != nil {
				return
			}
			log.Debug("No map received yet, repeating login")
			if err := s.client.Send(login); err != nil {
				log.Warn("Failed to repeat login: %v", err)
			}
		}
	}
}

type readiness interface {
	WaitReady(ctx context.Context) error
}

// waitReady polls a socket until it runs, fails or the attempts run out.
func waitReady(ctx context.Context, name string, r readiness) error {
	for attempt := 1; attempt <= ReadyAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, ReadyInterval)
		err := r.WaitReady(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		if !errors.Is(err, network.ErrNotReady) || ctx.Err() != nil {
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		log.Debug("Waiting for %s (attempt %d/%d)", name, attempt, ReadyAttempts)
	}
	return fmt.Errorf("failed to start %s: %w", name, network.ErrNotReady)
}

// World returns the world of the session, or nil until the map is known.
func (s *Session) World() *game.World {
	return s.manager.World()
}

// Server returns the hosted server, or nil for a joined session.
func (s *Session) Server() *network.Server {
	return s.server
}

// Client returns the client socket of the session.
func (s *Session) Client() *network.Client {
	return s.client
}

// Wait blocks until every component of the session stopped. It returns the
// first error of a socket or the game loop.
func (s *Session) Wait() error {
	return s.group.Wait()
}

// Close tells the server the participant is leaving and stops the session.
func (s *Session) Close() error {
	if s.manager != nil {
		s.manager.Leave()
	}
	s.abort()
	return s.Wait()
}

// fail stops a session that could not be started and returns err.
func (s *Session) fail(err error) error {
	s.abort()
	s.group.Wait()
	return err
}

func (s *Session) abort() {
	s.cancel()
	if s.client != nil {
		s.client.Close()
	}
	if s.server != nil {
		s.server.Close()
	}
}

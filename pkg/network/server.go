package network

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/cbodonnell/arena/pkg/game/types"
	"github.com/cbodonnell/arena/pkg/log"
	"github.com/cbodonnell/arena/pkg/maps"
	"github.com/cbodonnell/arena/pkg/packets"
)

const (
	DefaultServerPort = 7575
	DefaultMaxKills   = 10
	// ResultsChannelSize represents the size of the match result channel
	ResultsChannelSize = 16
)

// MatchResult is emitted once when a participant reaches the kill limit.
type MatchResult struct {
	MapName     string
	Winner      string
	WinnerKills int
	Players     []Connection
	EndedAt     time.Time
}

type NewServerOptions struct {
	Port int
	// MapPath is a built-in map name or a map file
	MapPath  string
	MaxKills int
	// IdleTimeout removes participants not heard from within it. Zero disables it.
	IdleTimeout time.Duration
	Diagnostics log.Diagnostics
}

// Server owns the listening socket of a session and relays packets between
// participants.
type Server struct {
	*lifecycle
	port        int
	mapPath     string
	idleTimeout time.Duration
	diagnostics log.Diagnostics
	registry    *ConnectionRegistry
	results     chan MatchResult

	// set during initialization, read-only once running
	gameMap *maps.Map
	conn    *net.UDPConn
	connMu  sync.Mutex
}

func NewServer(opts NewServerOptions) *Server {
	mapPath := opts.MapPath
	if mapPath == "" {
		mapPath = maps.DefaultMap
	}
	return &Server{
		lifecycle:   newLifecycle(ErrServerFailed),
		port:        opts.Port,
		mapPath:     mapPath,
		idleTimeout: opts.IdleTimeout,
		diagnostics: log.OrDefault(opts.Diagnostics),
		registry:    NewConnectionRegistry(opts.MaxKills),
		results:     make(chan MatchResult, ResultsChannelSize),
	}
}

// Start loads the map, binds the socket and runs the receive loop until the
// server is closed or ctx is done. Initialization failures leave the server
// in StateFailed and are returned; callers running Start in the background
// use WaitReady to observe them.
func (s *Server) Start(ctx context.Context) error {
	if err := s.begin(); err != nil {
		return err
	}

	if err := s.initialize(); err != nil {
		s.diagnostics.ShowError("Failed to start server", err)
		return s.fail(err)
	}
	if !s.run() {
		s.closeConn()
		return ErrClosed
	}

	s.diagnostics.ShowMessage(fmt.Sprintf("Server listening on %s with map %s", s.conn.LocalAddr(), s.gameMap.Name))

	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()

	if s.idleTimeout > 0 {
		go s.reapIdle()
	}

	return s.receive()
}

func (s *Server) initialize() error {
	gameMap, err := maps.Load(s.mapPath)
	if err != nil {
		return fmt.Errorf("failed to load map %s: %w", s.mapPath, err)
	}

	udpAddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %v", err)
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP address: %v", err)
	}

	s.connMu.Lock()
	s.gameMap = gameMap
	s.conn = conn
	s.connMu.Unlock()
	return nil
}

// Close closes the socket, which terminates the receive loop.
func (s *Server) Close() error {
	if s.close() {
		s.closeConn()
		log.Info("Server closed")
	}
	return nil
}

func (s *Server) closeConn() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn != nil {
		s.conn.Close()
	}
}

// Addr returns the bound address, or nil before the server is running.
func (s *Server) Addr() *net.UDPAddr {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// Map returns the hosted map, or nil before the server is running.
func (s *Server) Map() *maps.Map {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.gameMap
}

func (s *Server) Registry() *ConnectionRegistry {
	return s.registry
}

// Results returns a one-way channel of finished matches
func (s *Server) Results() <-chan MatchResult {
	return s.results
}

// AddLocalParticipant registers the host's own participant, which has no
// transport address until its client logs in.
func (s *Server) AddLocalParticipant(username string, x, y float64, stats LocalStatsFunc) {
	s.registry.AddOrUpdate(username, types.LocalEndpoint, x, y)
	s.registry.SetHost(username, stats)
}

func (s *Server) receive() error {
	buf := make([]byte, ReceiveBufferSize)
	for {
		data, addr, err := ReadDatagramFromUDP(s.conn, buf)
		if err != nil {
			if s.closing() {
				return nil
			}
			log.Error("Server receive loop stopped: %v", err)
			s.diagnostics.ShowError("Server connection lost", err)
			s.Close()
			return err
		}
		s.handleDatagram(data, addr)
	}
}

func (s *Server) handleDatagram(data []byte, addr *net.UDPAddr) {
	if string(data) == packets.DiscoverProbe {
		s.handleDiscover(addr)
		return
	}

	p := packets.Decode(data)
	log.Trace("Received packet %s from %s", p.Type(), addr)
	s.handlePacket(p, addr)
	s.checkMatchOver()
}

func (s *Server) handlePacket(p packets.Packet, addr *net.UDPAddr) {
	switch p := p.(type) {
	case *packets.Login:
		s.handleLogin(p, addr)
	case *packets.Disconnect:
		if s.registry.Remove(p.Username) {
			log.Info("%s left the session", p.Username)
		}
		s.sendToAll(p)
	case *packets.Move:
		if !s.registry.UpdateMove(p) {
			log.Debug("Dropping move from unknown participant %s", p.Username)
			return
		}
		s.sendToAllExcept(p.Username, p)
	case *packets.Fire:
		if _, ok := s.registry.Get(p.Username); !ok {
			log.Debug("Dropping fire from unknown participant %s", p.Username)
			return
		}
		s.registry.Touch(p.Username)
		s.sendToAllExcept(p.Username, p)
	case *packets.Death:
		if s.registry.RecordDeathEvent(p) {
			log.Info("%s killed %s", p.Killer, p.Killed)
		} else {
			log.Debug("Ignoring duplicate death of %s (seq %d)", p.Killed, p.Seq)
		}
		s.sendToAll(p)
	case *packets.GameOver:
		s.sendToAll(p)
	case *packets.MapData:
		log.Debug("Ignoring map data from %s", addr)
	case *packets.Invalid:
		log.Warn("Dropping invalid packet from %s: %s", addr, p.Reason)
	default:
		log.Warn("Unhandled packet type %s from %s", p.Type(), addr)
	}
}

func (s *Server) handleLogin(p *packets.Login, addr *net.UDPAddr) {
	endpoint := types.EndpointFromUDPAddr(addr)
	isNew := s.registry.AddOrUpdate(p.Username, endpoint, p.X, p.Y)
	if isNew {
		log.Info("%s joined the session from %s", p.Username, endpoint)
	} else {
		log.Debug("%s logged in again from %s", p.Username, endpoint)
	}

	// roster sync for the joiner
	for _, c := range s.registry.Roster() {
		if strings.EqualFold(c.Username, p.Username) {
			continue
		}
		s.sendTo(endpoint, &packets.Login{Username: c.Username, X: c.X, Y: c.Y})
	}

	// roster sync for everyone else
	if isNew {
		s.sendToAllExcept(p.Username, p)
	}

	s.sendTo(endpoint, s.mapData())
}

// mapData announces the hosted map. Custom maps carry their content unless
// it would not fit in a datagram.
func (s *Server) mapData() *packets.MapData {
	md := &packets.MapData{Name: s.gameMap.Name}
	if !s.gameMap.Custom {
		return md
	}

	size := len(packets.PacketTypeMapData) + len(md.Name) + len(packets.MapDataSeparator) + len(s.gameMap.Content)
	if size > MaxDatagramSize {
		log.Warn("Map %s is too large to send (%d bytes), sending its name only", md.Name, size)
		return md
	}
	md.Content = s.gameMap.Content
	md.HasContent = true
	return md
}

func (s *Server) handleDiscover(addr *net.UDPAddr) {
	reply := fmt.Sprintf("%s|%s|%d", packets.DiscoverProbe, s.gameMap.Name, s.registry.Size())
	if _, err := s.conn.WriteToUDP([]byte(reply), addr); err != nil {
		log.Error("Failed to reply to discovery from %s: %v", addr, err)
	}
}

func (s *Server) checkMatchOver() {
	if s.registry.Ended() {
		return
	}
	winner, kills, over := s.registry.IsMatchOver()
	if !over || !s.registry.MarkEnded() {
		return
	}

	log.Info("Match over: %s won with %d kills", winner, kills)
	s.sendToAll(&packets.GameOver{Winner: winner, Kills: kills})

	result := MatchResult{
		MapName:     s.gameMap.Name,
		Winner:      winner,
		WinnerKills: kills,
		Players:     s.registry.Roster(),
		EndedAt:     time.Now(),
	}
	select {
	case s.results <- result:
	default:
		log.Warn("Dropping match result, results channel is full")
	}
}

func (s *Server) reapIdle() {
	ticker := time.NewTicker(s.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			for _, username := range s.registry.Idle(s.idleTimeout) {
				if !s.registry.Remove(username) {
					continue
				}
				log.Info("Removing idle participant %s", username)
				s.sendToAll(&packets.Disconnect{Username: username})
			}
		}
	}
}

// sendTo sends a packet to an endpoint. Endpoints without a transport
// address are skipped.
func (s *Server) sendTo(endpoint types.Endpoint, p packets.Packet) {
	if !endpoint.Valid() {
		return
	}
	if err := WritePacketToUDP(s.conn, endpoint.UDPAddr(), p); err != nil {
		log.Error("Failed to send packet %s to %s: %v", p.Type(), endpoint, err)
	}
}

func (s *Server) sendToAll(p packets.Packet) {
	for _, c := range s.registry.Roster() {
		s.sendTo(c.Endpoint, p)
	}
}

func (s *Server) sendToAllExcept(username string, p packets.Packet) {
	for _, c := range s.registry.Roster() {
		if strings.EqualFold(c.Username, username) {
			continue
		}
		s.sendTo(c.Endpoint, p)
	}
}

package packets

import (
	"errors"

	"github.com/cbodonnell/arena/pkg/game/types"
)

const (
	// PacketBufferSize represents the maximum size of a packet other than MapData
	PacketBufferSize = 1024
	// MapDataSeparator separates the map name from the map content in a MapData packet
	MapDataSeparator = "|||"
	// DiscoverProbe is the raw LAN discovery request answered by servers
	DiscoverProbe = "DISCOVER"
)

// Packet types
const (
	PacketTypeInvalid    = "-1"
	PacketTypeLogin      = "00"
	PacketTypeDisconnect = "01"
	PacketTypeMove       = "02"
	PacketTypeFire       = "03"
	PacketTypeDeath      = "04"
	PacketTypeGameOver   = "05"
	PacketTypeMapData    = "06"
)

var (
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidMapName  = errors.New("invalid map name")
	ErrUnknownPacket   = errors.New("unknown packet type")
	ErrPacketTooLarge  = errors.New("packet too large")
)

// Packet is one of the wire message variants. Packets are values and are
// never mutated once encoded.
type Packet interface {
	Type() string
}

// Login announces a participant at a position.
type Login struct {
	Username string
	X        float64
	Y        float64
}

func (*Login) Type() string { return PacketTypeLogin }

// Disconnect announces that a participant left the session.
type Disconnect struct {
	Username string
}

func (*Disconnect) Type() string { return PacketTypeDisconnect }

// Move carries the full movement state of a participant.
type Move struct {
	Username string
	X        float64
	Y        float64
	Angle    float64
	State    types.AnimationState
	Weapon   types.Weapon
}

func (*Move) Type() string { return PacketTypeMove }

// Fire is a one-shot event describing a shot from a reported position.
type Fire struct {
	Username string
	X        float64
	Y        float64
	Angle    float64
	Weapon   types.Weapon
}

func (*Fire) Type() string { return PacketTypeFire }

// Death reports that Killed was killed by Killer. Seq is a per-victim
// monotonically increasing counter; zero means the sender did not number it.
type Death struct {
	Killer string
	Killed string
	Seq    uint64
}

func (*Death) Type() string { return PacketTypeDeath }

// GameOver announces the winner of the match.
type GameOver struct {
	Winner string
	Kills  int
}

func (*GameOver) Type() string { return PacketTypeGameOver }

// MapData tells a participant which map the session is played on. Content is
// only meaningful when HasContent is set.
type MapData struct {
	Name       string
	Content    string
	HasContent bool
}

func (*MapData) Type() string { return PacketTypeMapData }

// Invalid is produced when a datagram cannot be decoded.
type Invalid struct {
	Reason string
}

func (*Invalid) Type() string { return PacketTypeInvalid }

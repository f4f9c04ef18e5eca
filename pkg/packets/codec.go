package packets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cbodonnell/arena/pkg/game/types"
)

const fieldSeparator = ","

type decoderFunc func(payload string) (Packet, error)

var decoders = map[string]decoderFunc{
	PacketTypeLogin:      decodeLogin,
	PacketTypeDisconnect: decodeDisconnect,
	PacketTypeMove:       decodeMove,
	PacketTypeFire:       decodeFire,
	PacketTypeDeath:      decodeDeath,
	PacketTypeGameOver:   decodeGameOver,
	PacketTypeMapData:    decodeMapData,
}

// ValidateUsername reports whether name can be carried in a packet.
func ValidateUsername(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidUsername)
	}
	if strings.Contains(name, fieldSeparator) {
		return fmt.Errorf("%w: %q contains %q", ErrInvalidUsername, name, fieldSeparator)
	}
	if strings.Contains(name, MapDataSeparator) {
		return fmt.Errorf("%w: %q contains %q", ErrInvalidUsername, name, MapDataSeparator)
	}
	return nil
}

// Encode serializes a packet to its ASCII wire form. Encoding is deterministic.
func Encode(p Packet) ([]byte, error) {
	var fields []string
	switch p := p.(type) {
	case *Login:
		if err := ValidateUsername(p.Username); err != nil {
			return nil, err
		}
		fields = []string{p.Username, formatFloat(p.X), formatFloat(p.Y)}
	case *Disconnect:
		if err := ValidateUsername(p.Username); err != nil {
			return nil, err
		}
		fields = []string{p.Username}
	case *Move:
		if err := ValidateUsername(p.Username); err != nil {
			return nil, err
		}
		fields = []string{
			p.Username,
			formatFloat(p.X),
			formatFloat(p.Y),
			formatFloat(p.Angle),
			strconv.Itoa(int(p.State)),
			strconv.Itoa(int(p.Weapon)),
		}
	case *Fire:
		if err := ValidateUsername(p.Username); err != nil {
			return nil, err
		}
		fields = []string{
			p.Username,
			formatFloat(p.X),
			formatFloat(p.Y),
			formatFloat(p.Angle),
			strconv.Itoa(int(p.Weapon)),
		}
	case *Death:
		if err := ValidateUsername(p.Killer); err != nil {
			return nil, err
		}
		if err := ValidateUsername(p.Killed); err != nil {
			return nil, err
		}
		fields = []string{p.Killer, p.Killed}
		if p.Seq > 0 {
			fields = append(fields, strconv.FormatUint(p.Seq, 10))
		}
	case *GameOver:
		if err := ValidateUsername(p.Winner); err != nil {
			return nil, err
		}
		fields = []string{p.Winner, strconv.Itoa(p.Kills)}
	case *MapData:
		if p.Name == "" || strings.Contains(p.Name, MapDataSeparator) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMapName, p.Name)
		}
		if !p.HasContent {
			return []byte(PacketTypeMapData + p.Name), nil
		}
		return []byte(PacketTypeMapData + p.Name + MapDataSeparator + p.Content), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownPacket, p)
	}
	b := []byte(p.Type() + strings.Join(fields, fieldSeparator))
	if len(b) > PacketBufferSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrPacketTooLarge, p.Type(), len(b), PacketBufferSize)
	}
	return b, nil
}

// Decode parses a datagram. It never fails: datagrams that cannot be parsed
// yield an *Invalid packet describing why.
func Decode(data []byte) Packet {
	if len(data) < 2 {
		return &Invalid{Reason: fmt.Sprintf("datagram too short: %d bytes", len(data))}
	}
	code := string(data[:2])
	decode, ok := decoders[code]
	if !ok {
		return &Invalid{Reason: fmt.Sprintf("unknown packet type %q", code)}
	}
	p, err := decode(string(data[2:]))
	if err != nil {
		return &Invalid{Reason: fmt.Sprintf("malformed packet %s: %v", code, err)}
	}
	return p
}

func decodeLogin(payload string) (Packet, error) {
	f, err := splitFields(payload, 3)
	if err != nil {
		return nil, err
	}
	p := &Login{Username: f[0]}
	if p.X, err = parseFloat(f[1]); err != nil {
		return nil, err
	}
	if p.Y, err = parseFloat(f[2]); err != nil {
		return nil, err
	}
	return p, nil
}

func decodeDisconnect(payload string) (Packet, error) {
	f, err := splitFields(payload, 1)
	if err != nil {
		return nil, err
	}
	return &Disconnect{Username: f[0]}, nil
}

func decodeMove(payload string) (Packet, error) {
	f, err := splitFields(payload, 6)
	if err != nil {
		return nil, err
	}
	p := &Move{Username: f[0]}
	if p.X, err = parseFloat(f[1]); err != nil {
		return nil, err
	}
	if p.Y, err = parseFloat(f[2]); err != nil {
		return nil, err
	}
	if p.Angle, err = parseFloat(f[3]); err != nil {
		return nil, err
	}
	state, err := parseOrdinal(f[4])
	if err != nil {
		return nil, err
	}
	p.State = types.AnimationState(state)
	if !p.State.Valid() {
		return nil, fmt.Errorf("invalid animation state %d", state)
	}
	weapon, err := parseOrdinal(f[5])
	if err != nil {
		return nil, err
	}
	p.Weapon = types.Weapon(weapon)
	if !p.Weapon.Valid() {
		return nil, fmt.Errorf("invalid weapon %d", weapon)
	}
	return p, nil
}

func decodeFire(payload string) (Packet, error) {
	f, err := splitFields(payload, 5)
	if err != nil {
		return nil, err
	}
	p := &Fire{Username: f[0]}
	if p.X, err = parseFloat(f[1]); err != nil {
		return nil, err
	}
	if p.Y, err = parseFloat(f[2]); err != nil {
		return nil, err
	}
	if p.Angle, err = parseFloat(f[3]); err != nil {
		return nil, err
	}
	weapon, err := parseOrdinal(f[4])
	if err != nil {
		return nil, err
	}
	p.Weapon = types.Weapon(weapon)
	if !p.Weapon.Valid() {
		return nil, fmt.Errorf("invalid weapon %d", weapon)
	}
	return p, nil
}

func decodeDeath(payload string) (Packet, error) {
	f := strings.Split(payload, fieldSeparator)
	if len(f) != 2 && len(f) != 3 {
		return nil, fmt.Errorf("expected 2 or 3 fields, got %d", len(f))
	}
	if f[0] == "" || f[1] == "" {
		return nil, fmt.Errorf("empty username")
	}
	p := &Death{Killer: f[0], Killed: f[1]}
	if len(f) == 3 {
		seq, err := strconv.ParseUint(f[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid sequence number %q", f[2])
		}
		p.Seq = seq
	}
	return p, nil
}

func decodeGameOver(payload string) (Packet, error) {
	f, err := splitFields(payload, 2)
	if err != nil {
		return nil, err
	}
	kills, err := strconv.Atoi(f[1])
	if err != nil {
		return nil, fmt.Errorf("invalid kills %q", f[1])
	}
	return &GameOver{Winner: f[0], Kills: kills}, nil
}

// decodeMapData splits on the first separator only so that content containing
// the separator is preserved.
func decodeMapData(payload string) (Packet, error) {
	name, content, found := strings.Cut(payload, MapDataSeparator)
	if name == "" {
		return nil, fmt.Errorf("empty map name")
	}
	return &MapData{Name: name, Content: content, HasContent: found}, nil
}

func splitFields(payload string, n int) ([]string, error) {
	f := strings.Split(payload, fieldSeparator)
	if len(f) != n {
		return nil, fmt.Errorf("expected %d fields, got %d", n, len(f))
	}
	if f[0] == "" {
		return nil, fmt.Errorf("empty username")
	}
	return f, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}

func parseOrdinal(s string) (uint8, error) {
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid ordinal %q", s)
	}
	return uint8(n), nil
}

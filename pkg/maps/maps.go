package maps

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/cbodonnell/arena/pkg/game/constants"
	"github.com/cbodonnell/arena/pkg/kinematic"
)

var (
	ErrEmptyMap        = errors.New("map is empty")
	ErrNotSquare       = errors.New("map is not square")
	ErrNoSpawnPoints   = errors.New("map has no spawn points")
	ErrInvalidTileCode = errors.New("invalid tile code")
)

// TileType is the kind of a map tile.
type TileType uint8

const (
	TileGround TileType = iota
	TileWall
	TileBox
	TileBarrel
	TileCactus
	TilePlant
	TileLogs
)

func (t TileType) String() string {
	switch t {
	case TileGround:
		return "ground"
	case TileWall:
		return "wall"
	case TileBox:
		return "box"
	case TileBarrel:
		return "barrel"
	case TileCactus:
		return "cactus"
	case TilePlant:
		return "plant"
	case TileLogs:
		return "logs"
	default:
		return fmt.Sprintf("tile(%d)", uint8(t))
	}
}

// Blocking reports whether the tile stops players and bullets.
func (t TileType) Blocking() bool {
	return t != TileGround
}

// Map file codes
const (
	CodeGround      = 0
	CodeWall        = 1
	CodeBox         = 12
	CodeBarrel      = 13
	CodeCactus      = 14
	CodePlant       = 15
	CodeLogs        = 16
	CodePlayerSpawn = 17
)

var tileCodes = map[int]TileType{
	CodeGround:      TileGround,
	CodeWall:        TileWall,
	CodeBox:         TileBox,
	CodeBarrel:      TileBarrel,
	CodeCactus:      TileCactus,
	CodePlant:       TilePlant,
	CodeLogs:        TileLogs,
	CodePlayerSpawn: TileGround,
}

// Tile is a single cell of the map placed in world pixels.
type Tile struct {
	Type     TileType
	Position kinematic.Vector
}

// Map is the immutable geometry of a session. It is read-only once parsed
// and may be shared between goroutines.
type Map struct {
	Name string
	// Content is the raw text the map was parsed from
	Content string
	// Custom is set for maps that are not built-in assets. Their content
	// must be sent to joining participants.
	Custom bool
	// Size is the number of tiles along each axis
	Size int
	// grid is indexed [x][y]
	grid        [][]TileType
	spawnPoints []kinematic.Vector
}

// Parse parses a whitespace separated integer grid, one row per line. The
// number of rows must match the number of columns. Codes without a tile of
// their own (pickups, keys, enemy starts, ...) are treated as ground.
func Parse(name, content string) (*Map, error) {
	var rows [][]int
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 {
			continue
		}
		row := make([]int, len(tokens))
		for i, token := range tokens {
			code, err := strconv.Atoi(token)
			if err != nil || code < 0 {
				return nil, fmt.Errorf("%w: %q at row %d", ErrInvalidTileCode, token, len(rows))
			}
			row[i] = code
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read map %s: %v", name, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyMap
	}

	size := len(rows[0])
	if len(rows) != size {
		return nil, fmt.Errorf("%w: %d rows, %d columns", ErrNotSquare, len(rows), size)
	}

	m := &Map{
		Name:    name,
		Content: content,
		Size:    size,
		grid:    make([][]TileType, size),
	}
	for x := range m.grid {
		m.grid[x] = make([]TileType, size)
	}
	for y, row := range rows {
		if len(row) != size {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrNotSquare, y, len(row), size)
		}
		for x, code := range row {
			t, ok := tileCodes[code]
			if !ok {
				t = TileGround
			}
			m.grid[x][y] = t
			if code == CodePlayerSpawn {
				m.spawnPoints = append(m.spawnPoints, kinematic.Vector{
					X: float64(x) * constants.TileSize,
					Y: float64(y) * constants.TileSize,
				})
			}
		}
	}
	if len(m.spawnPoints) == 0 {
		return nil, ErrNoSpawnPoints
	}

	return m, nil
}

// TileAt returns the tile at grid coordinates. Coordinates outside the map are walls.
func (m *Map) TileAt(x, y int) TileType {
	if x < 0 || y < 0 || x >= m.Size || y >= m.Size {
		return TileWall
	}
	return m.grid[x][y]
}

// Tiles returns every tile of the map in world pixels.
func (m *Map) Tiles() []Tile {
	tiles := make([]Tile, 0, m.Size*m.Size)
	for x := 0; x < m.Size; x++ {
		for y := 0; y < m.Size; y++ {
			tiles = append(tiles, Tile{
				Type: m.grid[x][y],
				Position: kinematic.Vector{
					X: float64(x) * constants.TileSize,
					Y: float64(y) * constants.TileSize,
				},
			})
		}
	}
	return tiles
}

// SpawnPoints returns a copy of the declared spawn points in world pixels.
func (m *Map) SpawnPoints() []kinematic.Vector {
	out := make([]kinematic.Vector, len(m.spawnPoints))
	copy(out, m.spawnPoints)
	return out
}

// IsSpawnPoint reports whether p is one of the declared spawn points.
func (m *Map) IsSpawnPoint(p kinematic.Vector) bool {
	for _, s := range m.spawnPoints {
		if s == p {
			return true
		}
	}
	return false
}

// RandomSpawn picks a spawn point uniformly at random.
func (m *Map) RandomSpawn(rng *rand.Rand) kinematic.Vector {
	return m.spawnPoints[rng.Intn(len(m.spawnPoints))]
}

// PixelSize returns the width and height of the map in world pixels.
func (m *Map) PixelSize() float64 {
	return float64(m.Size) * constants.TileSize
}

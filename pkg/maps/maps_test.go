package maps

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/cbodonnell/arena/pkg/kinematic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallMap = `1 1 1 1
1 17 0 1
1 12 17 1
1 1 1 1
`

func TestParse(t *testing.T) {
	m, err := Parse("small.map", smallMap)
	require.NoError(t, err)

	assert.Equal(t, 4, m.Size)
	assert.False(t, m.Custom)
	assert.Equal(t, TileWall, m.TileAt(0, 0))
	assert.Equal(t, TileGround, m.TileAt(1, 1))
	assert.Equal(t, TileBox, m.TileAt(1, 2))
	assert.Equal(t, TileWall, m.TileAt(-1, 2))
	assert.Equal(t, TileWall, m.TileAt(2, 4))
	assert.Len(t, m.Tiles(), 16)
	assert.Equal(t, []kinematic.Vector{{X: 64, Y: 64}, {X: 128, Y: 128}}, m.SpawnPoints())
	assert.Equal(t, 256.0, m.PixelSize())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{name: "empty", content: "\n\n", want: ErrEmptyMap},
		{name: "more rows than columns", content: "17 0\n0 0\n0 0\n", want: ErrNotSquare},
		{name: "ragged", content: "17 0\n0\n", want: ErrNotSquare},
		{name: "not a number", content: "17 x\n0 0\n", want: ErrInvalidTileCode},
		{name: "negative", content: "17 -1\n0 0\n", want: ErrInvalidTileCode},
		{name: "no spawn", content: "0 0\n0 0\n", want: ErrNoSpawnPoints},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.name, tt.content)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_UnknownCodesAreGround(t *testing.T) {
	m, err := Parse("pickups.map", "17 5\n9 11\n")
	require.NoError(t, err)
	assert.Equal(t, TileGround, m.TileAt(1, 0))
	assert.Equal(t, TileGround, m.TileAt(1, 1))
}

func TestRandomSpawn(t *testing.T) {
	m, err := Parse("small.map", smallMap)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		assert.True(t, m.IsSpawnPoint(m.RandomSpawn(rng)))
	}
}

func TestAssets(t *testing.T) {
	names := AssetNames()
	assert.Contains(t, names, DefaultMap)
	for _, name := range names {
		m, err := LoadAsset(name)
		require.NoError(t, err, name)
		assert.False(t, m.Custom)
		assert.NotEmpty(t, m.SpawnPoints())
	}
	assert.False(t, IsAsset("../maps.go"))

	_, err := LoadAsset("missing.map")
	assert.ErrorIs(t, err, ErrMapNotFound)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "plain.map")
	require.NoError(t, os.WriteFile(plain, []byte(smallMap), 0o644))
	m, err := Load(plain)
	require.NoError(t, err)
	assert.Equal(t, "plain.map", m.Name)
	assert.True(t, m.Custom)

	compressed, err := Compress(smallMap)
	require.NoError(t, err)
	zst := filepath.Join(dir, "packed.map.zst")
	require.NoError(t, os.WriteFile(zst, compressed, 0o644))
	m, err = Load(zst)
	require.NoError(t, err)
	assert.Equal(t, "packed.map", m.Name)
	assert.Equal(t, smallMap, m.Content)

	m, err = Load(DefaultMap)
	require.NoError(t, err)
	assert.False(t, m.Custom)

	_, err = Load(filepath.Join(dir, "missing.map"))
	assert.ErrorIs(t, err, ErrMapNotFound)
}

func TestCache(t *testing.T) {
	tests := []struct {
		name string
		dir  func(t *testing.T) string
	}{
		{name: "memory", dir: func(t *testing.T) string { return "" }},
		{name: "disk", dir: func(t *testing.T) string { return t.TempDir() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.dir(t)
			c := NewCache(dir)

			_, err := c.Get("small.map")
			assert.ErrorIs(t, err, ErrMapNotFound)

			m, err := c.Resolve("small.map", smallMap, true)
			require.NoError(t, err)
			assert.True(t, m.Custom)

			m, err = c.Resolve("small.map", "", false)
			require.NoError(t, err)
			assert.Equal(t, smallMap, m.Content)

			if dir != "" {
				reopened := NewCache(dir)
				content, err := reopened.Get("small.map")
				require.NoError(t, err)
				assert.Equal(t, smallMap, content)
			}
		})
	}
}

func TestCache_ResolveAsset(t *testing.T) {
	m, err := NewCache("").Resolve(DefaultMap, "", false)
	require.NoError(t, err)
	assert.Equal(t, DefaultMap, m.Name)
	assert.False(t, m.Custom)
}

package maps

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// DefaultMap is the asset hosted when no map is configured.
const DefaultMap = "arena.map"

// CompressedExt marks zstd compressed map files.
const CompressedExt = ".zst"

var ErrMapNotFound = errors.New("map not found")

//go:embed assets/*.map
var assets embed.FS

// AssetNames returns the names of the built-in maps.
func AssetNames() []string {
	entries, err := assets.ReadDir("assets")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// IsAsset reports whether name is a built-in map that every instance ships with.
func IsAsset(name string) bool {
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	_, err := assets.ReadFile("assets/" + name)
	return err == nil
}

// LoadAsset loads a built-in map.
func LoadAsset(name string) (*Map, error) {
	if !IsAsset(name) {
		return nil, fmt.Errorf("%w: %s", ErrMapNotFound, name)
	}
	b, err := assets.ReadFile("assets/" + name)
	if err != nil {
		return nil, fmt.Errorf("failed to read map asset %s: %v", name, err)
	}
	return Parse(name, string(b))
}

// Load loads a built-in map by name, or a map file from disk. Files ending in
// CompressedExt are zstd compressed. Maps loaded from disk are named after
// their file name so they can be announced to other participants.
func Load(nameOrPath string) (*Map, error) {
	if IsAsset(nameOrPath) {
		return LoadAsset(nameOrPath)
	}

	b, err := os.ReadFile(nameOrPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMapNotFound, nameOrPath)
		}
		return nil, fmt.Errorf("failed to read map file %s: %v", nameOrPath, err)
	}

	name := filepath.Base(nameOrPath)
	if strings.HasSuffix(name, CompressedExt) {
		b, err = Decompress(b)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress map file %s: %v", nameOrPath, err)
		}
		name = strings.TrimSuffix(name, CompressedExt)
	}

	return FromContent(name, string(b))
}

// FromContent parses a custom map from raw content.
func FromContent(name, content string) (*Map, error) {
	m, err := Parse(name, content)
	if err != nil {
		return nil, err
	}
	m.Custom = true
	return m, nil
}

// Compress compresses map content with zstd.
func Compress(content string) ([]byte, error) {
	compressed := bytes.NewBuffer(nil)
	compWriter, err := zstd.NewWriter(compressed, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %v", err)
	}
	if _, err := compWriter.Write([]byte(content)); err != nil {
		return nil, fmt.Errorf("failed to compress map: %v", err)
	}
	if err := compWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zstd writer: %v", err)
	}
	return compressed.Bytes(), nil
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	compReader, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %v", err)
	}
	defer compReader.Close()
	b, err := io.ReadAll(compReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read decompressed map: %v", err)
	}
	return b, nil
}

// Cache keeps custom maps received from servers, compressed. When dir is set
// entries are also written to disk as <name>.zst so they survive restarts.
type Cache struct {
	dir     string
	entries map[string][]byte
	lock    sync.RWMutex
}

// NewCache creates a new map cache. An empty dir keeps the cache in memory.
func NewCache(dir string) *Cache {
	return &Cache{
		dir:     dir,
		entries: make(map[string][]byte),
	}
}

// Put stores the content of a map.
func (c *Cache) Put(name, content string) error {
	compressed, err := Compress(content)
	if err != nil {
		return err
	}

	c.lock.Lock()
	c.entries[name] = compressed
	c.lock.Unlock()

	if c.dir == "" {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create map cache directory: %v", err)
	}
	if err := os.WriteFile(c.path(name), compressed, 0o644); err != nil {
		return fmt.Errorf("failed to write cached map %s: %v", name, err)
	}
	return nil
}

// Get returns the content of a cached map.
func (c *Cache) Get(name string) (string, error) {
	c.lock.RLock()
	compressed, ok := c.entries[name]
	c.lock.RUnlock()

	if !ok {
		if c.dir == "" {
			return "", fmt.Errorf("%w: %s", ErrMapNotFound, name)
		}
		b, err := os.ReadFile(c.path(name))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("%w: %s", ErrMapNotFound, name)
			}
			return "", fmt.Errorf("failed to read cached map %s: %v", name, err)
		}
		compressed = b
	}

	b, err := Decompress(compressed)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *Cache) path(name string) string {
	return filepath.Join(c.dir, filepath.Base(name)+CompressedExt)
}

// Resolve loads the map a session announced. Content takes precedence, then
// built-in assets, then the cache.
func (c *Cache) Resolve(name, content string, hasContent bool) (*Map, error) {
	if hasContent && content != "" {
		m, err := FromContent(name, content)
		if err != nil {
			return nil, err
		}
		if err := c.Put(name, content); err != nil {
			return nil, err
		}
		return m, nil
	}
	if IsAsset(name) {
		return LoadAsset(name)
	}
	cached, err := c.Get(name)
	if err != nil {
		return nil, err
	}
	return FromContent(name, cached)
}

package session

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/cbodonnell/arena/pkg/game"
	"github.com/cbodonnell/arena/pkg/game/types"
	"github.com/cbodonnell/arena/pkg/maps"
	"github.com/cbodonnell/arena/pkg/network"
	"github.com/cbodonnell/arena/pkg/packets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTimeout = 3 * time.Second
	testTick    = 10 * time.Millisecond
)

func hostSession(t *testing.T, username string) *Session {
	t.Helper()
	s, err := Host(context.Background(), Context{
		Username:         username,
		GameLoopInterval: testTick,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func joinSession(t *testing.T, username string, host *Session) *Session {
	t.Helper()
	s, err := Join(context.Background(), Context{
		Username:         username,
		ServerAddr:       network.ServerAddress(LoopbackHost, host.Server().Addr().Port),
		GameLoopInterval: testTick,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func hasPlayer(w *game.World, username string) bool {
	if w == nil {
		return false
	}
	_, ok := w.Player(username)
	return ok
}

func TestHost(t *testing.T) {
	host := hostSession(t, "alice")

	world := host.World()
	require.NotNil(t, world)
	assert.Equal(t, maps.DefaultMap, world.Map().Name)
	assert.True(t, host.Context.IsHost)

	local, ok := world.LocalPlayer()
	require.True(t, ok)
	assert.Equal(t, types.LocalEndpoint, local.Endpoint)

	// the login over loopback gives the host participant a transport address
	registry := host.Server().Registry()
	assert.Eventually(t, func() bool {
		c, ok := registry.Get("alice")
		return ok && c.Endpoint.Valid()
	}, testTimeout, testTick)
}

func TestJoin(t *testing.T) {
	host := hostSession(t, "alice")
	bob := joinSession(t, "bob", host)

	assert.Eventually(t, func() bool {
		return hasPlayer(bob.World(), "alice") && hasPlayer(host.World(), "bob")
	}, testTimeout, testTick)

	assert.Equal(t, maps.DefaultMap, bob.World().Map().Name)
	assert.Equal(t, 2, host.Server().Registry().Size())

	// bob re-announces its spawn point once the map is known
	assert.Eventually(t, func() bool {
		local, ok := bob.World().LocalPlayer()
		if !ok {
			return false
		}
		remote, ok := host.World().Player("bob")
		return ok && remote.Position == local.Position
	}, testTimeout, testTick)

	require.NoError(t, bob.Close())
	assert.Eventually(t, func() bool {
		return !hasPlayer(host.World(), "bob")
	}, testTimeout, testTick)
	assert.Equal(t, 1, host.Server().Registry().Size())
}

func TestJoin_DeathIsCounted(t *testing.T) {
	host := hostSession(t, "alice")
	bob := joinSession(t, "bob", host)
	require.Eventually(t, func() bool {
		return hasPlayer(bob.World(), "alice") && hasPlayer(host.World(), "bob")
	}, testTimeout, testTick)

	require.NoError(t, bob.Client().Send(&packets.Death{Killer: "alice", Killed: "bob", Seq: 1}))

	assert.Eventually(t, func() bool {
		kills, _ := host.World().Stats()
		_, deaths := bob.World().Stats()
		return kills == 1 && deaths == 1
	}, testTimeout, testTick)

	c, ok := host.Server().Registry().Get("alice")
	require.True(t, ok)
	assert.Equal(t, 1, c.Kills)
}

func TestHost_InvalidConfig(t *testing.T) {
	_, err := Host(context.Background(), Context{Username: "a,b"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Join(context.Background(), Context{Username: "bob"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestHost_ServerFailure(t *testing.T) {
	_, err := Host(context.Background(), Context{Username: "alice", MapPath: "missing.map"})
	assert.Error(t, err)

	conn, err := net.ListenUDP("udp", &net.UDPAddr{})
	require.NoError(t, err)
	defer conn.Close()

	_, err = Host(context.Background(), Context{Username: "alice", Port: conn.LocalAddr().(*net.UDPAddr).Port})
	assert.Error(t, err)
}

func TestJoin_UnresolvableServer(t *testing.T) {
	_, err := Join(context.Background(), Context{Username: "bob", ServerAddr: "localhost:notaport"})
	assert.ErrorIs(t, err, network.ErrClientFailed)
}

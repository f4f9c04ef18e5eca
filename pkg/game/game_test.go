package game

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	mocks "github.com/cbodonnell/arena/mocks/github.com/cbodonnell/arena/pkg/queue"
	"github.com/cbodonnell/arena/pkg/game/types"
	"github.com/cbodonnell/arena/pkg/maps"
	"github.com/cbodonnell/arena/pkg/packets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	lock sync.Mutex
	sent []packets.Packet
	err  error
}

func (s *fakeSender) Send(p packets.Packet) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.sent = append(s.sent, p)
	return s.err
}

func (s *fakeSender) Sent() []packets.Packet {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]packets.Packet{}, s.sent...)
}

type fakeDiagnostics struct {
	messages []string
	errors   []error
}

func (d *fakeDiagnostics) ShowMessage(msg string) {
	d.messages = append(d.messages, msg)
}

func (d *fakeDiagnostics) ShowError(msg string, err error) {
	d.errors = append(d.errors, err)
}

type fakeInput struct {
	state InputState
}

func (i *fakeInput) Poll() InputState {
	return i.state
}

func newTestGameManager(t *testing.T, opts NewGameManagerOptions) (*GameManager, *mocks.Queue, *fakeSender) {
	t.Helper()
	mockQueue := mocks.NewQueue(t)
	sender := &fakeSender{}
	opts.MessageQueue = mockQueue
	opts.Sender = sender
	if opts.Username == "" {
		opts.Username = "alice"
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(1))
	}
	return NewGameManager(opts), mockQueue, sender
}

func packetTypes(ps []packets.Packet) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Type())
	}
	return out
}

func TestGameManager_MapDataCreatesWorld(t *testing.T) {
	gm, mockQueue, sender := newTestGameManager(t, NewGameManagerOptions{})

	mockQueue.EXPECT().ReadAllMessages().Return([]interface{}{
		&packets.Login{Username: "bob", X: 1, Y: 2},
	}).Once()
	gm.Tick(DefaultGameLoopInterval.Seconds())
	assert.Nil(t, gm.World())
	assert.Empty(t, sender.Sent())

	mockQueue.EXPECT().ReadAllMessages().Return([]interface{}{
		&packets.MapData{Name: "desert.map"},
	}).Once()
	gm.Tick(DefaultGameLoopInterval.Seconds())

	world := gm.World()
	require.NotNil(t, world)
	assert.Equal(t, "desert.map", world.Map().Name)
	local, ok := world.LocalPlayer()
	require.True(t, ok)
	assert.True(t, world.Map().IsSpawnPoint(local.Position))

	sent := sender.Sent()
	assert.Equal(t, []string{packets.PacketTypeLogin, packets.PacketTypeMove}, packetTypes(sent))
	assert.Equal(t, LoginFromPlayer(local), sent[0])
}

func TestGameManager_HandleMapData(t *testing.T) {
	tests := []struct {
		name        string
		isHost      bool
		mapData     *packets.MapData
		wantMapName string
		wantRebuild bool
	}{
		{
			name:        "same map",
			mapData:     &packets.MapData{Name: "arena.map"},
			wantMapName: "arena.map",
		},
		{
			name:        "host keeps its map",
			isHost:      true,
			mapData:     &packets.MapData{Name: "desert.map"},
			wantMapName: "arena.map",
		},
		{
			name:        "participant switches maps",
			mapData:     &packets.MapData{Name: "desert.map"},
			wantMapName: "desert.map",
			wantRebuild: true,
		},
		{
			name:        "unknown map",
			mapData:     &packets.MapData{Name: "missing.map"},
			wantMapName: "arena.map",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := maps.LoadAsset("arena.map")
			require.NoError(t, err)
			world := NewWorld(NewWorldOptions{Map: m, LocalUsername: "alice"})
			diagnostics := &fakeDiagnostics{}
			gm, mockQueue, sender := newTestGameManager(t, NewGameManagerOptions{
				IsHost:      tt.isHost,
				World:       world,
				Diagnostics: diagnostics,
			})

			mockQueue.EXPECT().ReadAllMessages().Return([]interface{}{tt.mapData}).Once()
			gm.Tick(DefaultGameLoopInterval.Seconds())

			assert.Equal(t, tt.wantMapName, gm.World().Map().Name)
			assert.Equal(t, tt.wantRebuild, gm.World() != world)
			if tt.wantRebuild {
				assert.Equal(t, packets.PacketTypeLogin, sender.Sent()[0].Type())
			}
			if tt.mapData.Name == "missing.map" {
				require.Len(t, diagnostics.errors, 1)
				assert.ErrorIs(t, diagnostics.errors[0], maps.ErrMapNotFound)
			}
		})
	}
}

func TestGameManager_CustomMapIsCached(t *testing.T) {
	cache := maps.NewCache(t.TempDir())
	gm, mockQueue, _ := newTestGameManager(t, NewGameManagerOptions{MapCache: cache})

	mockQueue.EXPECT().ReadAllMessages().Return([]interface{}{
		&packets.MapData{Name: "room.map", Content: testMapContent, HasContent: true},
	}).Once()
	gm.Tick(DefaultGameLoopInterval.Seconds())

	require.NotNil(t, gm.World())
	assert.True(t, gm.World().Map().Custom)

	// a later session announces the same map by name only
	other, otherQueue, _ := newTestGameManager(t, NewGameManagerOptions{Username: "bob", MapCache: cache})
	otherQueue.EXPECT().ReadAllMessages().Return([]interface{}{
		&packets.MapData{Name: "room.map"},
	}).Once()
	other.Tick(DefaultGameLoopInterval.Seconds())

	require.NotNil(t, other.World())
	assert.Equal(t, testMapContent, other.World().Map().Content)
}

func TestGameManager_processServerMessages(t *testing.T) {
	diagnostics := &fakeDiagnostics{}
	world := newTestWorld(t)
	gm, mockQueue, _ := newTestGameManager(t, NewGameManagerOptions{World: world, Diagnostics: diagnostics})

	mockQueue.EXPECT().ReadAllMessages().Return([]interface{}{
		&packets.Login{Username: "bob", X: 300, Y: 300},
		&packets.Login{Username: "carol", X: 200, Y: 300},
		&packets.Login{Username: "bob", X: 0, Y: 0},
		&packets.Move{Username: "bob", X: 310, Y: 300, Angle: 90, State: types.AnimationRunning, Weapon: types.WeaponRifle},
		&packets.Disconnect{Username: "carol"},
		&packets.Fire{Username: "bob", X: 310, Y: 300, Angle: 90, Weapon: types.WeaponPistol},
		&packets.Death{Killer: "alice", Killed: "bob", Seq: 1},
		"not a packet",
	}).Once()
	gm.Tick(0)

	players := world.Players()
	require.Len(t, players, 2)
	bob, ok := world.Player("bob")
	require.True(t, ok)
	assert.Equal(t, 310.0, bob.Position.X)
	assert.Equal(t, types.WeaponRifle, bob.Weapon)
	assert.Equal(t, 1, bob.Deaths)
	assert.Len(t, world.Bullets(), 1)
	kills, _ := world.Stats()
	assert.Equal(t, 1, kills)

	mockQueue.EXPECT().ReadAllMessages().Return([]interface{}{
		&packets.GameOver{Winner: "alice", Kills: 10},
	}).Once()
	gm.Tick(0)

	assert.True(t, world.IsGameOver())
	assert.Equal(t, []string{"Match over: alice won with 10 kills"}, diagnostics.messages)
}

func TestGameManager_TickSendsLocalState(t *testing.T) {
	input := &fakeInput{state: InputState{Aim: 45, Fire: true}}
	gm, mockQueue, sender := newTestGameManager(t, NewGameManagerOptions{World: newTestWorld(t), Input: input})
	sender.err = errors.New("network is unreachable")

	mockQueue.EXPECT().ReadAllMessages().Return(nil).Once()
	gm.Tick(DefaultGameLoopInterval.Seconds())

	sent := sender.Sent()
	require.Equal(t, []string{packets.PacketTypeFire, packets.PacketTypeMove}, packetTypes(sent))
	assert.Equal(t, 45.0, sent[1].(*packets.Move).Angle)
	assert.Equal(t, types.AnimationShooting, sent[1].(*packets.Move).State)
}

func TestGameManager_Leave(t *testing.T) {
	gm, _, sender := newTestGameManager(t, NewGameManagerOptions{})

	gm.Leave()
	assert.Equal(t, []packets.Packet{&packets.Disconnect{Username: "alice"}}, sender.Sent())
}

func TestGameManager_Start(t *testing.T) {
	gm, mockQueue, _ := newTestGameManager(t, NewGameManagerOptions{GameLoopInterval: time.Millisecond})
	mockQueue.EXPECT().ReadAllMessages().Return(nil).Maybe()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.NoError(t, gm.Start(ctx))
}

package network

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/cbodonnell/arena/pkg/maps"
	"github.com/cbodonnell/arena/pkg/packets"
	"github.com/cbodonnell/arena/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startClient(t *testing.T, serverAddr string, q queue.Queue) *Client {
	t.Helper()

	c := NewClient(NewClientOptions{ServerAddr: serverAddr, MessageQueue: q})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Start(ctx)
	}()

	readyCtx, readyCancel := context.WithTimeout(ctx, testTimeout)
	defer readyCancel()
	require.NoError(t, c.WaitReady(readyCtx))

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(testTimeout):
			t.Error("client did not stop")
		}
	})
	return c
}

func waitForPackets(t *testing.T, q queue.Queue, n int) []packets.Packet {
	t.Helper()
	var out []packets.Packet
	deadline := time.Now().Add(testTimeout)
	for len(out) < n && time.Now().Before(deadline) {
		for _, m := range q.ReadAllMessages() {
			out = append(out, m.(packets.Packet))
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.Len(t, out, n)
	return out
}

func TestClient_SendAndReceive(t *testing.T) {
	_, addr := startServer(t, NewServerOptions{})
	q := queue.NewInMemoryQueue(16)
	c := startClient(t, addr.String(), q)

	require.NoError(t, c.Send(&packets.Login{Username: "alice", X: 1, Y: 2}))
	assert.Equal(t, []packets.Packet{&packets.MapData{Name: maps.DefaultMap}}, waitForPackets(t, q, 1))
	assert.NotNil(t, c.LocalAddr())
}

func TestClient_DropsInvalidPackets(t *testing.T) {
	q := queue.NewInMemoryQueue(16)
	c := startClient(t, "127.0.0.1:1", q)

	sender := newPeer(t, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: c.LocalAddr().Port})
	_, err := sender.conn.WriteToUDP([]byte("not a packet"), sender.server)
	require.NoError(t, err)
	require.NoError(t, WritePacketToUDP(sender.conn, sender.server, &packets.Disconnect{Username: "bob"}))

	assert.Equal(t, []packets.Packet{&packets.Disconnect{Username: "bob"}}, waitForPackets(t, q, 1))
}

func TestClient_SendBeforeReady(t *testing.T) {
	c := NewClient(NewClientOptions{ServerAddr: "127.0.0.1:7575", MessageQueue: queue.NewInMemoryQueue(1)})
	assert.ErrorIs(t, c.Send(&packets.Disconnect{Username: "alice"}), ErrNotReady)
	assert.Equal(t, StateCreated, c.State())
}

func TestClient_ResolveFailure(t *testing.T) {
	c := NewClient(NewClientOptions{ServerAddr: "no port here", MessageQueue: queue.NewInMemoryQueue(1)})

	err := c.Start(context.Background())
	assert.ErrorIs(t, err, ErrClientFailed)
	assert.Equal(t, StateFailed, c.State())
	assert.ErrorIs(t, c.WaitReady(context.Background()), ErrClientFailed)
}

func TestClient_CloseBeforeStart(t *testing.T) {
	c := NewClient(NewClientOptions{ServerAddr: "127.0.0.1:7575", MessageQueue: queue.NewInMemoryQueue(1)})
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Start(context.Background()), ErrAlreadyStarted)
	assert.ErrorIs(t, c.WaitReady(context.Background()), ErrClosed)
}

package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/cbodonnell/arena/pkg/log"
	"github.com/cbodonnell/arena/pkg/packets"
	"github.com/cbodonnell/arena/pkg/queue"
)

type NewClientOptions struct {
	// ServerAddr is the host:port of the server
	ServerAddr string
	// MessageQueue receives every decoded packet
	MessageQueue queue.Queue
	Diagnostics  log.Diagnostics
}

// Client owns the socket of a participant. Its receive loop decodes packets
// onto a queue that the simulation drains once per tick.
type Client struct {
	*lifecycle
	serverAddr    string
	messageQueue  queue.Queue
	diagnostics   log.Diagnostics
	serverUDPAddr *net.UDPAddr
	conn          *net.UDPConn
	connMu        sync.Mutex
}

func NewClient(opts NewClientOptions) *Client {
	return &Client{
		lifecycle:    newLifecycle(ErrClientFailed),
		serverAddr:   opts.ServerAddr,
		messageQueue: opts.MessageQueue,
		diagnostics:  log.OrDefault(opts.Diagnostics),
	}
}

// ServerAddress joins a host and port.
func ServerAddress(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Start resolves the server, binds a local socket and runs the receive loop
// until the client is closed or ctx is done.
func (c *Client) Start(ctx context.Context) error {
	if err := c.begin(); err != nil {
		return err
	}

	if err := c.initialize(); err != nil {
		c.diagnostics.ShowError(fmt.Sprintf("Failed to connect to %s", c.serverAddr), err)
		return c.fail(err)
	}
	if !c.run() {
		c.closeConn()
		return ErrClosed
	}

	log.Info("UDP client bound to %s, server %s", c.conn.LocalAddr(), c.serverUDPAddr)

	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.done:
		}
	}()

	return c.receive()
}

func (c *Client) initialize() error {
	serverUDPAddr, err := net.ResolveUDPAddr("udp", c.serverAddr)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %v", err)
	}

	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP address: %v", err)
	}

	c.connMu.Lock()
	c.serverUDPAddr = serverUDPAddr
	c.conn = conn
	c.connMu.Unlock()
	return nil
}

func (c *Client) receive() error {
	buf := make([]byte, ReceiveBufferSize)
	for {
		data, addr, err := ReadDatagramFromUDP(c.conn, buf)
		if err != nil {
			if c.closing() {
				return nil
			}
			log.Error("Client receive loop stopped: %v", err)
			c.diagnostics.ShowError("Connection to server lost", err)
			c.Close()
			return err
		}

		p := packets.Decode(data)
		if invalid, ok := p.(*packets.Invalid); ok {
			log.Warn("Dropping invalid packet from %s: %s", addr, invalid.Reason)
			continue
		}
		log.Trace("Received packet %s from %s", p.Type(), addr)

		if err := c.messageQueue.Enqueue(p); err != nil {
			if errors.Is(err, queue.ErrQueueFull) {
				log.Warn("Dropping packet %s: %v", p.Type(), err)
				continue
			}
			log.Error("Failed to enqueue packet %s: %v", p.Type(), err)
		}
	}
}

// Send sends a packet to the server.
func (c *Client) Send(p packets.Packet) error {
	if !c.Ready() {
		return ErrNotReady
	}
	return WritePacketToUDP(c.conn, c.serverUDPAddr, p)
}

// Close closes the socket, which terminates the receive loop.
func (c *Client) Close() error {
	if c.close() {
		c.closeConn()
		log.Debug("Client closed")
	}
	return nil
}

func (c *Client) closeConn() {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn != nil {
		c.conn.Close()
	}
}

// LocalAddr returns the bound address, or nil before the client is running.
func (c *Client) LocalAddr() *net.UDPAddr {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return nil
	}
	return c.conn.LocalAddr().(*net.UDPAddr)
}

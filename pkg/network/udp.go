package network

import (
	"fmt"
	"net"

	"github.com/cbodonnell/arena/pkg/packets"
)

const (
	// ReceiveBufferSize is large enough for any UDP datagram so MapData
	// packets carrying a custom map are never truncated
	ReceiveBufferSize = 64 * 1024
	// MaxDatagramSize is the largest UDP payload that can be sent over IPv4
	MaxDatagramSize = 65507
)

// WritePacketToUDP encodes a packet and writes it to addr.
func WritePacketToUDP(conn *net.UDPConn, addr *net.UDPAddr, p packets.Packet) error {
	b, err := packets.Encode(p)
	if err != nil {
		return fmt.Errorf("failed to encode packet: %v", err)
	}

	if _, err := conn.WriteToUDP(b, addr); err != nil {
		return fmt.Errorf("failed to write packet to UDP connection: %v", err)
	}

	return nil
}

// ReadDatagramFromUDP reads one datagram into buf.
func ReadDatagramFromUDP(conn *net.UDPConn, buf []byte) ([]byte, *net.UDPAddr, error) {
	n, addr, err := conn.ReadFromUDP(buf)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read from UDP connection: %v", err)
	}
	return buf[:n], addr, nil
}

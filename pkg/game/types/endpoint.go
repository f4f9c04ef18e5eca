package types

import (
	"fmt"
	"net"
)

// Endpoint is the transport identity of a participant.
type Endpoint struct {
	IP   net.IP
	Port int
}

// LocalEndpoint marks the participant simulated by this instance. It has no
// transport address and is never sent to.
var LocalEndpoint = Endpoint{IP: nil, Port: -1}

// EndpointFromUDPAddr converts a UDP address to an Endpoint.
func EndpointFromUDPAddr(addr *net.UDPAddr) Endpoint {
	if addr == nil {
		return LocalEndpoint
	}
	return Endpoint{IP: addr.IP, Port: addr.Port}
}

// IsLocal reports whether e is the locally simulated participant marker.
func (e Endpoint) IsLocal() bool {
	return e.IP == nil && e.Port == -1
}

// Valid reports whether datagrams can be sent to e.
func (e Endpoint) Valid() bool {
	return e.IP != nil && e.Port > 0
}

// Equal reports whether e and o are the same transport identity.
func (e Endpoint) Equal(o Endpoint) bool {
	return e.Port == o.Port && e.IP.Equal(o.IP)
}

// UDPAddr returns the UDP address of e, or nil when it is not valid.
func (e Endpoint) UDPAddr() *net.UDPAddr {
	if !e.Valid() {
		return nil
	}
	return &net.UDPAddr{IP: e.IP, Port: e.Port}
}

func (e Endpoint) String() string {
	if !e.Valid() {
		return fmt.Sprintf("local(%v,%d)", e.IP, e.Port)
	}
	return e.UDPAddr().String()
}

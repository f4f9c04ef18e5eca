package network

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cbodonnell/arena/pkg/log"
	"github.com/cbodonnell/arena/pkg/packets"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultScanTimeout     = 300 * time.Millisecond
	DefaultScanConcurrency = 64
)

var ErrNoLocalIP = errors.New("no local IPv4 address")

// DiscoveredServer is a server that answered a discovery probe.
type DiscoveredServer struct {
	Addr    *net.UDPAddr
	MapName string
	Players int
}

type ScanOptions struct {
	Port        int
	Timeout     time.Duration
	Concurrency int
}

func (o ScanOptions) withDefaults() ScanOptions {
	if o.Port <= 0 {
		o.Port = DefaultServerPort
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultScanTimeout
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultScanConcurrency
	}
	return o
}

// LocalIP returns the IPv4 address of the interface used for outbound
// traffic, falling back to the first non-loopback interface address.
func LocalIP() (net.IP, error) {
	// no packets are sent by dialing UDP
	if conn, err := net.Dial("udp", "8.8.8.8:80"); err == nil {
		defer conn.Close()
		if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok && addr.IP.To4() != nil && !addr.IP.IsLoopback() {
			return addr.IP.To4(), nil
		}
	}

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, fmt.Errorf("failed to list interface addresses: %v", err)
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip := ipNet.IP.To4(); ip != nil {
			return ip, nil
		}
	}
	return nil, ErrNoLocalIP
}

// SubnetHosts returns every host address of the /24 network containing ip,
// excluding ip itself.
func SubnetHosts(ip net.IP) []net.IP {
	ip4 := ip.To4()
	if ip4 == nil {
		return nil
	}
	hosts := make([]net.IP, 0, 253)
	for i := 1; i < 255; i++ {
		host := net.IPv4(ip4[0], ip4[1], ip4[2], byte(i)).To4()
		if host.Equal(ip4) {
			continue
		}
		hosts = append(hosts, host)
	}
	return hosts
}

// ScanForServers probes the local /24 network for servers.
func ScanForServers(ctx context.Context, opts ScanOptions) ([]DiscoveredServer, error) {
	ip, err := LocalIP()
	if err != nil {
		return nil, err
	}
	log.Info("Scanning %s/24 for servers", ip)
	return ScanHosts(ctx, SubnetHosts(ip), opts)
}

// ScanHosts probes each host concurrently and returns the servers that
// answered, ordered by address.
func ScanHosts(ctx context.Context, hosts []net.IP, opts ScanOptions) ([]DiscoveredServer, error) {
	opts = opts.withDefaults()

	var (
		found []DiscoveredServer
		lock  sync.Mutex
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for _, host := range hosts {
		addr := &net.UDPAddr{IP: host, Port: opts.Port}
		g.Go(func() error {
			server, err := Probe(ctx, addr, opts.Timeout)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Trace("No server at %s: %v", addr, err)
				return nil
			}
			lock.Lock()
			found = append(found, server)
			lock.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to scan for servers: %w", err)
	}

	sort.Slice(found, func(i, j int) bool {
		return bytes.Compare(found[i].Addr.IP.To16(), found[j].Addr.IP.To16()) < 0
	})
	return found, nil
}

// Probe sends a discovery request to addr and waits up to timeout for a reply.
func Probe(ctx context.Context, addr *net.UDPAddr, timeout time.Duration) (DiscoveredServer, error) {
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return DiscoveredServer{}, fmt.Errorf("failed to dial %s: %v", addr, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return DiscoveredServer{}, fmt.Errorf("failed to set deadline: %v", err)
	}

	if _, err := conn.Write([]byte(packets.DiscoverProbe)); err != nil {
		return DiscoveredServer{}, fmt.Errorf("failed to send discovery probe: %v", err)
	}

	buf := make([]byte, packets.PacketBufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		return DiscoveredServer{}, fmt.Errorf("failed to read discovery reply: %v", err)
	}

	return parseDiscoverReply(addr, string(buf[:n]))
}

// parseDiscoverReply parses DISCOVER|<mapName>|<players>.
func parseDiscoverReply(addr *net.UDPAddr, reply string) (DiscoveredServer, error) {
	rest, ok := strings.CutPrefix(reply, packets.DiscoverProbe+"|")
	if !ok {
		return DiscoveredServer{}, fmt.Errorf("unexpected discovery reply %q", reply)
	}
	i := strings.LastIndex(rest, "|")
	if i < 0 {
		return DiscoveredServer{}, fmt.Errorf("unexpected discovery reply %q", reply)
	}
	players, err := strconv.Atoi(rest[i+1:])
	if err != nil {
		return DiscoveredServer{}, fmt.Errorf("invalid player count in discovery reply %q", reply)
	}
	return DiscoveredServer{
		Addr:    addr,
		MapName: rest[:i],
		Players: players,
	}, nil
}

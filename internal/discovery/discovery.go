// Package discovery advertises and finds soleklart servers on the local
// network over mDNS.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	SERVICE           = "_soleklart._tcp"
	DOMAIN            = "local."
	DISCOVERY_TIMEOUT = 5 * time.Second
)

// Server is a soleklart instance found on the network.
type Server struct {
	Instance string
	Host     string
	Address  string
	Port     int
	Version  string
}

func (s Server) URL() string {
	return "http://" + net.JoinHostPort(s.Address, strconv.Itoa(s.Port))
}

type Advertisement struct {
	server *zeroconf.Server
}

// Advertise registers instance on port until Shutdown is called.
func Advertise(instance string, port int, version string) (*Advertisement, error) {
	server, err := zeroconf.Register(instance, SERVICE, DOMAIN, port, TXTRecords(version), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mdns service: %w", err)
	}
	return &Advertisement{server: server}, nil
}

func (a *Advertisement) Shutdown() {
	if a != nil && a.server != nil {
		a.server.Shutdown()
	}
}

func TXTRecords(version string) []string {
	return []string{"version=" + version, "api=/v1"}
}

// Browse collects the servers that answer within timeout. Entries without a
// usable address are skipped and each instance is reported once.
func Browse(ctx context.Context, timeout time.Duration, logger *slog.Logger) ([]Server, error) {
	if timeout <= 0 {
		timeout = DISCOVERY_TIMEOUT
	}

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize resolver: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	go func() {
		if err := resolver.Browse(ctx, SERVICE, DOMAIN, entries); err != nil {
			logger.Error("Failed to browse for servers", "error", err)
		}
	}()

	seen := map[string]Server{}

loop:
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				break loop
			}
			server, ok := serverFromEntry(entry)
			if !ok {
				continue
			}
			logger.Debug("Found server", "instance", server.Instance, "url", server.URL())
			seen[server.Instance] = server
		case <-ctx.Done():
			break loop
		}
	}

	servers := make([]Server, 0, len(seen))
	for _, server := range seen {
		servers = append(servers, server)
	}
	sort.Slice(servers, func(i, j int) bool {
		return servers[i].Instance < servers[j].Instance
	})

	return servers, nil
}

func serverFromEntry(entry *zeroconf.ServiceEntry) (Server, bool) {
	if entry == nil {
		return Server{}, false
	}

	var address string
	switch {
	case len(entry.AddrIPv4) > 0:
		address = entry.AddrIPv4[0].String()
	case len(entry.AddrIPv6) > 0:
		address = entry.AddrIPv6[0].String()
	default:
		return Server{}, false
	}

	server := Server{
		Instance: entry.Instance,
		Host:     entry.HostName,
		Address:  address,
		Port:     entry.Port,
	}

	for _, record := range entry.Text {
		if version, ok := strings.CutPrefix(record, "version="); ok {
			server.Version = version
		}
	}

	return server, true
}

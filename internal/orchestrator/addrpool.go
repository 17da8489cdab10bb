package orchestrator

import (
	"fmt"
	"net"
	"strings"

	"github.com/c-robinson/iplib"
)

// Per-service address pools used when no profile-derived network is
// available. Each VPN protocol hands out tunnel addresses from its own /24.
var defaultPools = map[string]string{
	ServiceL2TP: "10.51.0.0/24",
	ServicePPTP: "10.52.0.0/24",
	ServiceSSTP: "10.53.0.0/24",
	ServiceAny:  "10.50.0.0/24",
}

// ExhaustedError reports an address pool with no free host address left.
type ExhaustedError struct {
	Pool string
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("address pool %s has no free addresses", e.Pool)
}

// PoolForService resolves the CIDR block for a service. When the service
// profile carries a local-address (the gateway), the pool is that address's
// /24 network; otherwise the default table applies.
func PoolForService(service, profileLocalAddress string) string {
	if ip := net.ParseIP(strings.TrimSpace(profileLocalAddress)); ip != nil && ip.To4() != nil {
		return iplib.NewNet4(ip.To4().Mask(net.CIDRMask(24, 32)), 24).String()
	}
	if pool, ok := defaultPools[strings.ToLower(service)]; ok {
		return pool
	}
	return defaultPools[ServiceAny]
}

// NextAddress returns the lowest free host address in the service's default
// pool. used is the set of every credential's remote address on the device,
// regardless of service: cross-service collisions are cheaper to avoid than
// to diagnose.
func NextAddress(service string, used []net.IP) (net.IP, error) {
	return NextAddressInPool(PoolForService(service, ""), used)
}

// NextAddressInPool enumerates host offsets in ascending order, skipping the
// network address, the gateway (first host), and the broadcast address, and
// returns the first address not present in used.
func NextAddressInPool(cidr string, used []net.IP) (net.IP, error) {
	_, parsed, err := iplib.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("invalid address pool %q: %w", cidr, err)
	}
	n, ok := parsed.(iplib.Net4)
	if !ok {
		return nil, fmt.Errorf("address pool %q is not an IPv4 network", cidr)
	}

	taken := make(map[string]struct{}, len(used))
	for _, ip := range used {
		if ip != nil {
			taken[ip.String()] = struct{}{}
		}
	}

	network := iplib.IP4ToUint32(n.NetworkAddress())
	broadcast := iplib.IP4ToUint32(n.BroadcastAddress())

	// Offset 0 is the network, 1 the gateway.
	for candidate := network + 2; candidate < broadcast; candidate++ {
		ip := iplib.Uint32ToIP4(candidate)
		if _, ok := taken[ip.String()]; !ok {
			return ip, nil
		}
	}
	return nil, &ExhaustedError{Pool: cidr}
}

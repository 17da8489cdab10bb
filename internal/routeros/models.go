package routeros

import (
	"strings"

	"github.com/spf13/cast"
)

// Credential is a remote VPN user record (PPP secret). The device owns it;
// nothing here is cached as source of truth.
type Credential struct {
	ID            string `mapstructure:".id" json:"id"`
	Name          string `mapstructure:"name" json:"name"`
	Password      string `mapstructure:"password" json:"password,omitempty"`
	Service       string `mapstructure:"service" json:"service"`
	Profile       string `mapstructure:"profile" json:"profile"`
	RemoteAddress string `mapstructure:"remote-address" json:"remote_address,omitempty"`
	Comment       string `mapstructure:"comment" json:"comment,omitempty"`
	Disabled      bool   `mapstructure:"disabled" json:"disabled"`
	LastLoggedOut string `mapstructure:"last-logged-out" json:"last_logged_out,omitempty"`
}

// NATRule is a firewall NAT entry. Client rules live in the dstnat chain
// with action dst-nat; the single masquerade rule is srcnat/masquerade.
// Comment equals the owning credential's username by convention and is the
// primary correlation key; it may be absent or stale.
type NATRule struct {
	ID        string `mapstructure:".id" json:"id"`
	Chain     string `mapstructure:"chain" json:"chain"`
	Action    string `mapstructure:"action" json:"action"`
	Protocol  string `mapstructure:"protocol" json:"protocol,omitempty"`
	DstPort   string `mapstructure:"dst-port" json:"dst_port,omitempty"`
	ToAddress string `mapstructure:"to-addresses" json:"to_address,omitempty"`
	ToPort    string `mapstructure:"to-ports" json:"to_port,omitempty"`
	Comment   string `mapstructure:"comment" json:"comment,omitempty"`
	Disabled  bool   `mapstructure:"disabled" json:"disabled"`
}

// DstPorts expands the dst-port field, which the device stores as a string
// and may hold a comma-separated list.
func (r NATRule) DstPorts() []int {
	if strings.TrimSpace(r.DstPort) == "" {
		return nil
	}
	var ports []int
	for _, part := range strings.Split(r.DstPort, ",") {
		if p := cast.ToInt(strings.TrimSpace(part)); p > 0 {
			ports = append(ports, p)
		}
	}
	return ports
}

// HealthProbe is a netwatch entry monitoring a credential's tunnel address.
type HealthProbe struct {
	ID       string `mapstructure:".id" json:"id"`
	Host     string `mapstructure:"host" json:"host"`
	Comment  string `mapstructure:"comment" json:"comment,omitempty"`
	Interval string `mapstructure:"interval" json:"interval,omitempty"`
	Timeout  string `mapstructure:"timeout" json:"timeout,omitempty"`
	Status   string `mapstructure:"status" json:"status,omitempty"`
	Since    string `mapstructure:"since" json:"since,omitempty"`
}

// ServiceProfile is a named PPP profile bundling tunneling parameters for
// one VPN protocol.
type ServiceProfile struct {
	ID           string `mapstructure:".id" json:"id"`
	Name         string `mapstructure:"name" json:"name"`
	LocalAddress string `mapstructure:"local-address" json:"local_address,omitempty"`
	OnlyOne      string `mapstructure:"only-one" json:"only_one,omitempty"`
	Comment      string `mapstructure:"comment" json:"comment,omitempty"`
}

// ActiveSession is a live PPP connection. Traffic counters come from the
// matching interface record, not from /ppp/active itself.
type ActiveSession struct {
	ID        string `mapstructure:".id" json:"id"`
	Name      string `mapstructure:"name" json:"name"`
	Service   string `mapstructure:"service" json:"service"`
	Address   string `mapstructure:"address" json:"address,omitempty"`
	CallerID  string `mapstructure:"caller-id" json:"caller_id,omitempty"`
	Uptime    string `mapstructure:"uptime" json:"uptime,omitempty"`
	Interface string `mapstructure:"-" json:"interface,omitempty"`
	RxByte    int64  `mapstructure:"-" json:"rx_byte"`
	TxByte    int64  `mapstructure:"-" json:"tx_byte"`
	RxPacket  int64  `mapstructure:"-" json:"rx_packet"`
	TxPacket  int64  `mapstructure:"-" json:"tx_packet"`
}

// Interface is the subset of an interface record needed for traffic stats.
type Interface struct {
	ID       string `mapstructure:".id" json:"id"`
	Name     string `mapstructure:"name" json:"name"`
	Type     string `mapstructure:"type" json:"type,omitempty"`
	Running  bool   `mapstructure:"running" json:"running"`
	RxByte   int64  `mapstructure:"rx-byte" json:"rx_byte"`
	TxByte   int64  `mapstructure:"tx-byte" json:"tx_byte"`
	RxPacket int64  `mapstructure:"rx-packet" json:"rx_packet"`
	TxPacket int64  `mapstructure:"tx-packet" json:"tx_packet"`
}

// SystemResource is the device identity block from /system/resource.
type SystemResource struct {
	BoardName        string `mapstructure:"board-name" json:"board"`
	Version          string `mapstructure:"version" json:"version"`
	ArchitectureName string `mapstructure:"architecture-name" json:"architecture"`
	CPU              string `mapstructure:"cpu" json:"cpu,omitempty"`
	Uptime           string `mapstructure:"uptime" json:"uptime"`
	FreeMemory       int64  `mapstructure:"free-memory" json:"free_memory,omitempty"`
	TotalMemory      int64  `mapstructure:"total-memory" json:"total_memory,omitempty"`
}

// LogEntry is one device log line.
type LogEntry struct {
	Time    string `mapstructure:"time" json:"time"`
	Topics  string `mapstructure:"topics" json:"topics"`
	Message string `mapstructure:"message" json:"message"`
}

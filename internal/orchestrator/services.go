package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/safrinnetwork/MikReMan/internal/routeros"
)

// Comment tag that marks the masquerade rule this service owns.
const masqueradeComment = "mikreman"

// Fixed gateway per service: the profile's local-address anchors the
// service's /24 address pool.
var profileGateway = map[string]string{
	ServiceL2TP: "10.51.0.1",
	ServicePPTP: "10.52.0.1",
	ServiceSSTP: "10.53.0.1",
}

// EnsureServiceProfile creates or refreshes the PPP profile for a service
// and assigns it as the server's default profile. Both steps form one unit:
// a failure in either is fatal. The "any" service has no dedicated profile.
func (o *Orchestrator) EnsureServiceProfile(ctx context.Context, service string) (*ProfileResult, error) {
	service = strings.ToLower(strings.TrimSpace(service))
	gateway, ok := profileGateway[service]
	if !ok {
		return nil, &ValidationError{Field: "service", Reason: fmt.Sprintf("no dedicated profile for service %q", service)}
	}
	defer o.lock()()

	name := profileForService[service]
	attrs := map[string]interface{}{
		"name":            name,
		"local-address":   gateway,
		"bridge-learning": "default",
		"use-ipv6":        "no",
		"use-mpls":        "no",
		"use-compression": "no",
		"use-encryption":  "no",
		"only-one":        "yes",
		"change-tcp-mss":  "default",
		"use-upnp":        "default",
		"address-list":    "",
		"on-up":           "",
		"on-down":         "",
	}

	result := &ProfileResult{Name: name}

	existing, err := o.findProfile(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		updated, err := o.profiles.Update(ctx, existing.ID, attrs)
		if err != nil {
			return nil, errors.Wrapf(err, "update profile %s", name)
		}
		result.ProfileID = updated.ID
	} else {
		created, err := o.profiles.Create(ctx, attrs)
		if err != nil {
			return nil, errors.Wrapf(err, "create profile %s", name)
		}
		result.ProfileID = created.ID
		result.Created = true
	}

	script := fmt.Sprintf("/interface %s-server server set default-profile=\"%s\"", service, name)
	if _, err := o.client.Execute(ctx, script); err != nil {
		return nil, errors.Wrapf(err, "set default profile for %s", service)
	}

	zap.L().Info("service profile ensured",
		zap.String("service", service),
		zap.String("profile", name),
		zap.Bool("created", result.Created),
	)
	return result, nil
}

func (o *Orchestrator) findProfile(ctx context.Context, name string) (*routeros.ServiceProfile, error) {
	profiles, err := o.profiles.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if profiles[i].Name == name {
			return &profiles[i], nil
		}
	}
	return nil, nil
}

// EnsureMasquerade guarantees exactly one srcnat masquerade rule tagged with
// the service's comment. Idempotent: an existing rule is reused.
func (o *Orchestrator) EnsureMasquerade(ctx context.Context) (*routeros.NATRule, error) {
	defer o.lock()()

	rules, err := o.nat.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rules {
		if rules[i].Chain == "srcnat" && rules[i].Action == "masquerade" && rules[i].Comment == masqueradeComment {
			return &rules[i], nil
		}
	}

	created, err := o.nat.Create(ctx, routeros.NATRule{
		Chain:   "srcnat",
		Action:  "masquerade",
		Comment: masqueradeComment,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create masquerade rule")
	}
	return created, nil
}

// Masquerade reports the owned masquerade rule, or nil when none exists.
func (o *Orchestrator) Masquerade(ctx context.Context) (*routeros.NATRule, error) {
	rules, err := o.nat.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rules {
		if rules[i].Chain == "srcnat" && rules[i].Action == "masquerade" && rules[i].Comment == masqueradeComment {
			return &rules[i], nil
		}
	}
	return nil, nil
}

// ServiceStatus reads the enabled flag of each VPN server on the device.
func (o *Orchestrator) ServiceStatus(ctx context.Context) (map[string]bool, error) {
	status := make(map[string]bool, 3)
	for _, service := range []string{ServiceL2TP, ServicePPTP, ServiceSSTP} {
		enabled, err := o.system.ServerEnabled(ctx, service)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s server status", service)
		}
		status[service] = enabled
	}
	return status, nil
}

// ToggleService enables or disables one VPN server. The change is pushed to
// the device first; persisting it locally is best effort.
func (o *Orchestrator) ToggleService(ctx context.Context, service string, enable bool) error {
	service = strings.ToLower(strings.TrimSpace(service))
	if service != ServiceL2TP && service != ServicePPTP && service != ServiceSSTP {
		return &ValidationError{Field: "service", Reason: fmt.Sprintf("unknown service %q", service)}
	}
	defer o.lock()()

	state := "no"
	if enable {
		state = "yes"
	}
	script := fmt.Sprintf("/interface %s-server server set enabled=%s", service, state)
	if _, err := o.client.Execute(ctx, script); err != nil {
		return errors.Wrapf(err, "toggle %s server", service)
	}

	if o.statusStore != nil {
		if err := o.statusStore.SetServiceStatus(service, enable); err != nil {
			zap.L().Warn("service status persistence failed",
				zap.String("service", service),
				zap.Error(err),
			)
		}
	}

	zap.L().Info("vpn service toggled",
		zap.String("service", service),
		zap.Bool("enabled", enable),
	)
	return nil
}

// TestConnection verifies reachability and credentials by reading the
// device identity block.
func (o *Orchestrator) TestConnection(ctx context.Context) (*DeviceInfo, error) {
	res, err := o.system.Resource(ctx)
	if err != nil {
		return nil, err
	}
	return &DeviceInfo{
		Board:        res.BoardName,
		Version:      res.Version,
		Architecture: res.ArchitectureName,
		Uptime:       res.Uptime,
	}, nil
}

// ActiveSessionsWithTraffic joins live PPP sessions with their interface
// traffic counters. RouterOS names tunnel interfaces in a few shapes
// depending on version and protocol, so several patterns are tried.
func (o *Orchestrator) ActiveSessionsWithTraffic(ctx context.Context) ([]routeros.ActiveSession, error) {
	sessions, err := o.system.ActiveSessions(ctx)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return sessions, nil
	}

	ifaces, err := o.system.Interfaces(ctx)
	if err != nil {
		zap.L().Warn("interface listing failed, sessions returned without traffic", zap.Error(err))
		return sessions, nil
	}
	byName := make(map[string]routeros.Interface, len(ifaces))
	for _, iface := range ifaces {
		byName[iface.Name] = iface
	}

	for i := range sessions {
		s := &sessions[i]
		for _, candidate := range []string{
			fmt.Sprintf("<%s-%s>", s.Service, s.Name),
			fmt.Sprintf("%s-%s", s.Service, s.Name),
			fmt.Sprintf("<pppoe-%s>", s.Name),
			s.Name,
		} {
			if iface, ok := byName[candidate]; ok {
				s.Interface = iface.Name
				s.RxByte = iface.RxByte
				s.TxByte = iface.TxByte
				s.RxPacket = iface.RxPacket
				s.TxPacket = iface.TxPacket
				break
			}
		}
	}
	return sessions, nil
}

// Logs returns the device log tail.
func (o *Orchestrator) Logs(ctx context.Context) ([]routeros.LogEntry, error) {
	return o.system.Logs(ctx)
}

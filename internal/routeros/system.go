package routeros

import (
	"context"
	"fmt"

	"github.com/spf13/cast"
)

// SystemRepo covers the read-only device surfaces: /system/resource,
// /interface, /ppp/active, /log, and the per-service server status objects.
type SystemRepo struct {
	c *Client
}

func NewSystemRepo(c *Client) *SystemRepo {
	return &SystemRepo{c: c}
}

func (r *SystemRepo) Resource(ctx context.Context) (*SystemResource, error) {
	raw, err := r.c.record(ctx, "/system/resource")
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, &ProtocolError{Op: "GET /system/resource", Err: fmt.Errorf("empty response")}
	}
	var res SystemResource
	if err := decodeRecord(raw, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *SystemRepo) Interfaces(ctx context.Context) ([]Interface, error) {
	records, err := r.c.list(ctx, "/interface")
	if err != nil {
		return nil, err
	}
	ifaces := make([]Interface, 0, len(records))
	for _, raw := range records {
		var iface Interface
		if err := decodeRecord(raw, &iface); err != nil {
			return nil, err
		}
		ifaces = append(ifaces, iface)
	}
	return ifaces, nil
}

func (r *SystemRepo) ActiveSessions(ctx context.Context) ([]ActiveSession, error) {
	records, err := r.c.list(ctx, "/ppp/active")
	if err != nil {
		return nil, err
	}
	sessions := make([]ActiveSession, 0, len(records))
	for _, raw := range records {
		var session ActiveSession
		if err := decodeRecord(raw, &session); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (r *SystemRepo) Logs(ctx context.Context) ([]LogEntry, error) {
	records, err := r.c.list(ctx, "/log?.proplist=time,topics,message")
	if err != nil {
		return nil, err
	}
	entries := make([]LogEntry, 0, len(records))
	for _, raw := range records {
		var entry LogEntry
		if err := decodeRecord(raw, &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ServerEnabled reads the enabled flag of one VPN server
// (/interface/{service}-server/server). The flag arrives as a string or a
// boolean depending on RouterOS version.
func (r *SystemRepo) ServerEnabled(ctx context.Context, service string) (bool, error) {
	raw, err := r.c.record(ctx, fmt.Sprintf("/interface/%s-server/server", service))
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	return cast.ToBool(raw["enabled"]), nil
}

package routeros

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

const netwatchPath = "/tool/netwatch"

// Default probe cadence for client tunnel monitoring.
const (
	probeInterval = "00:01:00"
	probeTimeout  = "00:00:05"
)

// NetwatchRepo is the typed CRUD facade over /tool/netwatch.
type NetwatchRepo struct {
	c *Client
}

func NewNetwatchRepo(c *Client) *NetwatchRepo {
	return &NetwatchRepo{c: c}
}

func (r *NetwatchRepo) List(ctx context.Context) ([]HealthProbe, error) {
	records, err := r.c.list(ctx, netwatchPath)
	if err != nil {
		return nil, err
	}
	probes := make([]HealthProbe, 0, len(records))
	for _, raw := range records {
		var probe HealthProbe
		if err := decodeRecord(raw, &probe); err != nil {
			return nil, err
		}
		probes = append(probes, probe)
	}
	return probes, nil
}

func (r *NetwatchRepo) Get(ctx context.Context, id string) (*HealthProbe, error) {
	raw, err := r.c.record(ctx, netwatchPath+"/"+url.PathEscape(id))
	if err == nil && raw != nil {
		var probe HealthProbe
		if err := decodeRecord(raw, &probe); err != nil {
			return nil, err
		}
		if probe.ID != "" {
			return &probe, nil
		}
	}

	probes, listErr := r.List(ctx)
	if listErr != nil {
		if err != nil {
			return nil, err
		}
		return nil, listErr
	}
	for i := range probes {
		if probes[i].ID == id {
			return &probes[i], nil
		}
	}
	return nil, &NotFoundError{Resource: "netwatch entry", ID: id}
}

// Create adds a probe for host, tagged with the owning username as comment.
func (r *NetwatchRepo) Create(ctx context.Context, probe HealthProbe) (*HealthProbe, error) {
	if probe.Interval == "" {
		probe.Interval = probeInterval
	}
	if probe.Timeout == "" {
		probe.Timeout = probeTimeout
	}
	attrs := map[string]interface{}{
		"host":     probe.Host,
		"comment":  probe.Comment,
		"interval": probe.Interval,
		"timeout":  probe.Timeout,
	}

	res, err := r.c.Request(ctx, http.MethodPut, netwatchPath, attrs)
	if err != nil {
		return nil, err
	}
	raw, err := toRecord(res, "PUT "+netwatchPath)
	if err != nil || raw == nil {
		return nil, err
	}
	var created HealthProbe
	if err := decodeRecord(raw, &created); err != nil {
		return nil, err
	}
	zap.L().Info("netwatch entry created",
		zap.String("id", created.ID),
		zap.String("host", created.Host),
		zap.String("comment", created.Comment),
	)
	return &created, nil
}

func (r *NetwatchRepo) Update(ctx context.Context, id string, patch map[string]interface{}) (*HealthProbe, error) {
	res, err := r.c.Request(ctx, http.MethodPatch, netwatchPath+"/"+url.PathEscape(id), patch)
	if err != nil {
		return nil, err
	}
	raw, err := toRecord(res, "PATCH "+netwatchPath)
	if err != nil || raw == nil {
		return nil, err
	}
	var updated HealthProbe
	if err := decodeRecord(raw, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *NetwatchRepo) Delete(ctx context.Context, id string) error {
	_, err := r.c.Request(ctx, http.MethodDelete, netwatchPath+"/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	zap.L().Info("netwatch entry deleted", zap.String("id", id))
	return nil
}

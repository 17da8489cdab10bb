package routeros

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

const natPath = "/ip/firewall/nat"

// NATRepo is the typed CRUD facade over /ip/firewall/nat.
type NATRepo struct {
	c *Client
}

func NewNATRepo(c *Client) *NATRepo {
	return &NATRepo{c: c}
}

func (r *NATRepo) List(ctx context.Context) ([]NATRule, error) {
	records, err := r.c.list(ctx, natPath)
	if err != nil {
		return nil, err
	}
	rules := make([]NATRule, 0, len(records))
	for _, raw := range records {
		var rule NATRule
		if err := decodeRecord(raw, &rule); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (r *NATRepo) Get(ctx context.Context, id string) (*NATRule, error) {
	raw, err := r.c.record(ctx, natPath+"/"+url.PathEscape(id))
	if err == nil && raw != nil {
		var rule NATRule
		if err := decodeRecord(raw, &rule); err != nil {
			return nil, err
		}
		if rule.ID != "" {
			return &rule, nil
		}
	}

	rules, listErr := r.List(ctx)
	if listErr != nil {
		if err != nil {
			return nil, err
		}
		return nil, listErr
	}
	for i := range rules {
		if rules[i].ID == id {
			return &rules[i], nil
		}
	}
	return nil, &NotFoundError{Resource: "nat rule", ID: id}
}

func (r *NATRepo) Create(ctx context.Context, rule NATRule) (*NATRule, error) {
	attrs := map[string]interface{}{
		"chain":  rule.Chain,
		"action": rule.Action,
	}
	if rule.Protocol != "" {
		attrs["protocol"] = rule.Protocol
	}
	if rule.DstPort != "" {
		attrs["dst-port"] = rule.DstPort
	}
	if rule.ToAddress != "" {
		attrs["to-addresses"] = rule.ToAddress
	}
	if rule.ToPort != "" {
		attrs["to-ports"] = rule.ToPort
	}
	if rule.Comment != "" {
		attrs["comment"] = rule.Comment
	}

	res, err := r.c.Request(ctx, http.MethodPut, natPath, attrs)
	if err != nil {
		return nil, err
	}
	raw, err := toRecord(res, "PUT "+natPath)
	if err != nil || raw == nil {
		return nil, err
	}
	var created NATRule
	if err := decodeRecord(raw, &created); err != nil {
		return nil, err
	}
	zap.L().Info("nat rule created",
		zap.String("id", created.ID),
		zap.String("chain", created.Chain),
		zap.String("dst_port", created.DstPort),
		zap.String("comment", created.Comment),
	)
	return &created, nil
}

func (r *NATRepo) Update(ctx context.Context, id string, patch map[string]interface{}) (*NATRule, error) {
	res, err := r.c.Request(ctx, http.MethodPatch, natPath+"/"+url.PathEscape(id), patch)
	if err != nil {
		return nil, err
	}
	raw, err := toRecord(res, "PATCH "+natPath)
	if err != nil || raw == nil {
		return nil, err
	}
	var updated NATRule
	if err := decodeRecord(raw, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *NATRepo) Delete(ctx context.Context, id string) error {
	_, err := r.c.Request(ctx, http.MethodDelete, natPath+"/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	zap.L().Info("nat rule deleted", zap.String("id", id))
	return nil
}

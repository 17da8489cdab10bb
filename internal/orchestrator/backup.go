package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// BackupSink delivers a generated backup document somewhere durable, for
// example a Telegram chat.
type BackupSink interface {
	SendFile(ctx context.Context, filename string, content []byte, caption string) error
}

// BuildBackup renders a restorable snapshot of the managed resources as a
// RouterOS script. Secrets, NAT rules, and service states are read live from
// the device.
func (o *Orchestrator) BuildBackup(ctx context.Context) ([]byte, error) {
	res, err := o.system.Resource(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read system resource")
	}
	creds, err := o.secrets.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list credentials")
	}
	rules, err := o.nat.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list nat rules")
	}
	status, err := o.ServiceStatus(ctx)
	if err != nil {
		zap.L().Warn("service status unavailable for backup", zap.Error(err))
		status = map[string]bool{}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# MikReMan backup %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "# board=%s version=%s uptime=%s\n\n", res.BoardName, res.Version, res.Uptime)

	b.WriteString("/ppp secret\n")
	for _, c := range creds {
		fmt.Fprintf(&b, "add name=\"%s\" password=\"%s\" service=%s profile=\"%s\"",
			c.Name, c.Password, c.Service, c.Profile)
		if c.RemoteAddress != "" {
			fmt.Fprintf(&b, " remote-address=%s", c.RemoteAddress)
		}
		if c.Comment != "" {
			fmt.Fprintf(&b, " comment=\"%s\"", c.Comment)
		}
		if c.Disabled {
			b.WriteString(" disabled=yes")
		}
		b.WriteString("\n")
	}

	b.WriteString("\n/ip firewall nat\n")
	for _, r := range rules {
		fmt.Fprintf(&b, "add chain=%s action=%s", r.Chain, r.Action)
		if r.Protocol != "" {
			fmt.Fprintf(&b, " protocol=%s", r.Protocol)
		}
		if r.DstPort != "" {
			fmt.Fprintf(&b, " dst-port=%s", r.DstPort)
		}
		if r.ToAddress != "" {
			fmt.Fprintf(&b, " to-addresses=%s", r.ToAddress)
		}
		if r.ToPort != "" {
			fmt.Fprintf(&b, " to-ports=%s", r.ToPort)
		}
		if r.Comment != "" {
			fmt.Fprintf(&b, " comment=\"%s\"", r.Comment)
		}
		b.WriteString("\n")
	}

	if len(status) > 0 {
		b.WriteString("\n")
		for _, service := range []string{ServiceL2TP, ServicePPTP, ServiceSSTP} {
			enabled, ok := status[service]
			if !ok {
				continue
			}
			state := "no"
			if enabled {
				state = "yes"
			}
			fmt.Fprintf(&b, "/interface %s-server server set enabled=%s\n", service, state)
		}
	}

	return []byte(b.String()), nil
}

// SendBackup builds a snapshot and hands it to the sink. It also asks the
// device to write its own compact export to local storage; that step is
// best effort.
func (o *Orchestrator) SendBackup(ctx context.Context, sink BackupSink) error {
	if sink == nil {
		return errors.New("no backup sink configured")
	}

	content, err := o.BuildBackup(ctx)
	if err != nil {
		return err
	}

	stamp := time.Now().Format("20060102-150405")
	if _, err := o.client.Execute(ctx, fmt.Sprintf("/export compact file=mikreman-%s", stamp)); err != nil {
		zap.L().Warn("on-device export failed", zap.Error(err))
	}

	filename := fmt.Sprintf("mikreman-backup-%s.rsc", stamp)
	caption := fmt.Sprintf("MikReMan backup %s", time.Now().Format("2006-01-02 15:04"))
	if err := sink.SendFile(ctx, filename, content, caption); err != nil {
		return errors.Wrap(err, "deliver backup")
	}

	zap.L().Info("backup delivered", zap.String("filename", filename), zap.Int("bytes", len(content)))
	return nil
}

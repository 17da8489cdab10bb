package orchestrator

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/safrinnetwork/MikReMan/internal/routeros"
)

// ServiceStatusStore receives service enable/disable state changes so they
// survive restarts. Persistence failures never fail the device operation.
type ServiceStatusStore interface {
	SetServiceStatus(service string, enabled bool) error
}

// Orchestrator composes credentials, NAT rules, and health probes into
// lifecycle operations against one RouterOS device. It holds no resource
// state; the device is always the source of truth.
type Orchestrator struct {
	client   *routeros.Client
	secrets  *routeros.SecretRepo
	nat      *routeros.NATRepo
	netwatch *routeros.NetwatchRepo
	profiles *routeros.ProfileRepo
	system   *routeros.SystemRepo

	mu          *sync.Mutex
	statusStore ServiceStatusStore
}

type Option func(*Orchestrator)

// WithDeviceLock serializes all mutating operations through one mutex.
// Without it, concurrent provisioning may allocate duplicate addresses.
func WithDeviceLock() Option {
	return func(o *Orchestrator) { o.mu = &sync.Mutex{} }
}

// WithServiceStatusStore persists ToggleService changes.
func WithServiceStatusStore(store ServiceStatusStore) Option {
	return func(o *Orchestrator) { o.statusStore = store }
}

func New(client *routeros.Client, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:   client,
		secrets:  routeros.NewSecretRepo(client),
		nat:      routeros.NewNATRepo(client),
		netwatch: routeros.NewNetwatchRepo(client),
		profiles: routeros.NewProfileRepo(client),
		system:   routeros.NewSystemRepo(client),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) lock() func() {
	if o.mu == nil {
		return func() {}
	}
	o.mu.Lock()
	return o.mu.Unlock
}

func validService(service string) bool {
	_, ok := profileForService[service]
	return ok
}

func validateProvision(req *ProvisionRequest) error {
	req.Username = strings.TrimSpace(req.Username)
	req.Service = strings.ToLower(strings.TrimSpace(req.Service))
	req.RemoteAddress = strings.TrimSpace(req.RemoteAddress)

	if req.Username == "" {
		return &ValidationError{Field: "username", Reason: "must not be empty"}
	}
	if req.Password == "" {
		return &ValidationError{Field: "password", Reason: "must not be empty"}
	}
	if !validService(req.Service) {
		return &ValidationError{Field: "service", Reason: fmt.Sprintf("unknown service %q", req.Service)}
	}
	if req.RemoteAddress != "" && net.ParseIP(req.RemoteAddress) == nil {
		return &ValidationError{Field: "remote_address", Reason: "not a valid IP address"}
	}
	if req.NAT != nil {
		for _, p := range req.NAT.Ports {
			if p < 1 || p > 65535 {
				return &ValidationError{Field: "nat.ports", Reason: fmt.Sprintf("port %d out of range", p)}
			}
		}
	}
	return nil
}

// Provision creates a credential plus its optional NAT rules and health
// probe. Credential creation is fatal; address allocation, NAT, and probe
// failures degrade into the result instead of aborting.
func (o *Orchestrator) Provision(ctx context.Context, req ProvisionRequest) (*ProvisionResult, error) {
	if err := validateProvision(&req); err != nil {
		return nil, err
	}
	defer o.lock()()

	result := &ProvisionResult{
		Username: req.Username,
		Service:  req.Service,
		Profile:  profileForService[req.Service],
	}

	address := req.RemoteAddress
	if address == "" {
		allocated, err := o.allocateAddress(ctx, req.Service)
		if err != nil {
			// The credential still works with a dynamic address; record
			// the failure and continue.
			result.AddressError = err.Error()
			zap.L().Warn("address allocation failed, provisioning without static address",
				zap.String("username", req.Username),
				zap.Error(err),
			)
		} else {
			address = allocated
		}
	}
	result.RemoteAddress = address

	created, err := o.secrets.Create(ctx, routeros.Credential{
		Name:          req.Username,
		Password:      req.Password,
		Service:       req.Service,
		Profile:       result.Profile,
		RemoteAddress: address,
		Comment:       req.Username,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create credential %s", req.Username)
	}
	result.CredentialID = created.ID

	if req.NAT != nil && len(req.NAT.Ports) > 0 && address != "" {
		result.NAT = o.createForwarding(ctx, req.Username, address, req.NAT)
	}

	if address != "" {
		probe, err := o.netwatch.Create(ctx, routeros.HealthProbe{
			Host:    address,
			Comment: req.Username,
		})
		if err != nil {
			result.ProbeError = err.Error()
			zap.L().Warn("health probe creation failed",
				zap.String("username", req.Username),
				zap.Error(err),
			)
		} else {
			result.ProbeID = probe.ID
		}
	}

	return result, nil
}

// allocateAddress picks the next free address for a service, pooling from
// the service profile's local-address network when one exists.
func (o *Orchestrator) allocateAddress(ctx context.Context, service string) (string, error) {
	creds, err := o.secrets.List(ctx)
	if err != nil {
		return "", err
	}
	used := make([]net.IP, 0, len(creds))
	for _, c := range creds {
		if ip := net.ParseIP(c.RemoteAddress); ip != nil {
			used = append(used, ip)
		}
	}

	pool := PoolForService(service, o.profileLocalAddress(ctx, service))
	ip, err := NextAddressInPool(pool, used)
	if err != nil {
		return "", err
	}
	return ip.String(), nil
}

func (o *Orchestrator) profileLocalAddress(ctx context.Context, service string) string {
	name := profileForService[service]
	if name == "" || name == "default" {
		return ""
	}
	profiles, err := o.profiles.List(ctx)
	if err != nil {
		return ""
	}
	for _, p := range profiles {
		if p.Name == name {
			return p.LocalAddress
		}
	}
	return ""
}

// createForwarding builds the dst-nat rules for one credential. Each port
// gets its own external port; failures are per-port.
func (o *Orchestrator) createForwarding(ctx context.Context, username, address string, spec *NATSpec) []NATOutcome {
	existing := o.usedExternalPorts(ctx)
	outcomes := make([]NATOutcome, 0, len(spec.Ports))

	for _, internal := range spec.Ports {
		external := NextPort(existing)
		existing = append(existing, external)

		comment := username
		if spec.Individual {
			comment = fmt.Sprintf("%s (Port %d)", username, internal)
		}

		rule, err := o.nat.Create(ctx, routeros.NATRule{
			Chain:     "dstnat",
			Action:    "dst-nat",
			Protocol:  "tcp",
			DstPort:   strconv.Itoa(external),
			ToAddress: address,
			ToPort:    strconv.Itoa(internal),
			Comment:   comment,
		})

		outcome := NATOutcome{InternalPort: internal, ExternalPort: external}
		if err != nil {
			outcome.Error = err.Error()
			zap.L().Warn("nat rule creation failed",
				zap.String("username", username),
				zap.Int("internal_port", internal),
				zap.Error(err),
			)
		} else {
			outcome.RuleID = rule.ID
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// usedExternalPorts collects every dst-port already claimed in the dstnat
// chain. A listing failure yields an empty set; the allocator then relies on
// randomness alone.
func (o *Orchestrator) usedExternalPorts(ctx context.Context) []int {
	rules, err := o.nat.List(ctx)
	if err != nil {
		zap.L().Warn("nat listing failed, allocating ports unchecked", zap.Error(err))
		return nil
	}
	var ports []int
	for _, r := range rules {
		if r.Chain == "dstnat" {
			ports = append(ports, r.DstPorts()...)
		}
	}
	return ports
}

// Deprovision removes a credential and everything correlated to it, in
// dependency order: probes first, then NAT rules, then the credential.
// There is no rollback; a fatal credential delete after partial cleanup
// leaves the cleanup done.
func (o *Orchestrator) Deprovision(ctx context.Context, id string) (*DeprovisionResult, error) {
	defer o.lock()()

	cred, err := o.secrets.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &DeprovisionResult{Username: cred.Name, Address: cred.RemoteAddress}

	for _, probe := range o.correlateProbes(ctx, cred) {
		if err := o.netwatch.Delete(ctx, probe.ID); err != nil {
			zap.L().Warn("probe cleanup failed",
				zap.String("username", cred.Name),
				zap.String("probe_id", probe.ID),
				zap.Error(err),
			)
			continue
		}
		result.ProbesDeleted++
	}

	for _, rule := range o.correlateNAT(ctx, cred) {
		if err := o.nat.Delete(ctx, rule.ID); err != nil {
			zap.L().Warn("nat cleanup failed",
				zap.String("username", cred.Name),
				zap.String("rule_id", rule.ID),
				zap.Error(err),
			)
			continue
		}
		result.NATDeleted++
	}

	if err := o.secrets.Delete(ctx, cred.ID); err != nil {
		return nil, errors.Wrapf(err, "delete credential %s", cred.Name)
	}
	result.CredentialDeleted = true

	zap.L().Info("credential deprovisioned",
		zap.String("username", cred.Name),
		zap.Int("probes_deleted", result.ProbesDeleted),
		zap.Int("nat_deleted", result.NATDeleted),
	)
	return result, nil
}

// correlateProbes finds the netwatch entries owned by a credential. Comment
// match wins; when no comment matches, entries probing the credential's
// tunnel address are taken instead.
func (o *Orchestrator) correlateProbes(ctx context.Context, cred *routeros.Credential) []routeros.HealthProbe {
	probes, err := o.netwatch.List(ctx)
	if err != nil {
		zap.L().Warn("netwatch listing failed during correlation", zap.Error(err))
		return nil
	}

	var byComment []routeros.HealthProbe
	for _, p := range probes {
		if p.Comment != "" && p.Comment == cred.Name {
			byComment = append(byComment, p)
		}
	}
	if len(byComment) > 0 {
		return byComment
	}

	if cred.RemoteAddress == "" {
		return nil
	}
	var byHost []routeros.HealthProbe
	for _, p := range probes {
		if p.Host == cred.RemoteAddress {
			byHost = append(byHost, p)
		}
	}
	return byHost
}

// correlateNAT finds the dst-nat rules owned by a credential, by comment
// prefix first and to-addresses second. Individual rules carry comments like
// "name (Port N)", so prefix matching covers both comment modes.
func (o *Orchestrator) correlateNAT(ctx context.Context, cred *routeros.Credential) []routeros.NATRule {
	rules, err := o.nat.List(ctx)
	if err != nil {
		zap.L().Warn("nat listing failed during correlation", zap.Error(err))
		return nil
	}

	var byComment []routeros.NATRule
	for _, r := range rules {
		if r.Chain != "dstnat" {
			continue
		}
		if r.Comment == cred.Name || strings.HasPrefix(r.Comment, cred.Name+" (Port ") {
			byComment = append(byComment, r)
		}
	}
	if len(byComment) > 0 {
		return byComment
	}

	if cred.RemoteAddress == "" {
		return nil
	}
	var byAddress []routeros.NATRule
	for _, r := range rules {
		if r.Chain == "dstnat" && r.ToAddress == cred.RemoteAddress {
			byAddress = append(byAddress, r)
		}
	}
	return byAddress
}

// ToggleStatus flips a credential between enabled and disabled.
func (o *Orchestrator) ToggleStatus(ctx context.Context, id string) (*routeros.Credential, error) {
	defer o.lock()()

	cred, err := o.secrets.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := o.secrets.Update(ctx, cred.ID, map[string]interface{}{
		"disabled": !cred.Disabled,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "toggle credential %s", cred.Name)
	}
	zap.L().Info("credential toggled",
		zap.String("username", cred.Name),
		zap.Bool("disabled", !cred.Disabled),
	)
	return updated, nil
}

// Update patches a credential in place. Changing the service also switches
// the profile; clearing remote_address removes the static assignment.
func (o *Orchestrator) Update(ctx context.Context, id string, req UpdateRequest) (*routeros.Credential, error) {
	defer o.lock()()

	cred, err := o.secrets.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
		}
		patch["name"] = name
	}
	if req.Password != nil && *req.Password != "" {
		patch["password"] = *req.Password
	}
	if req.Service != nil {
		service := strings.ToLower(strings.TrimSpace(*req.Service))
		if !validService(service) {
			return nil, &ValidationError{Field: "service", Reason: fmt.Sprintf("unknown service %q", service)}
		}
		patch["service"] = service
		patch["profile"] = profileForService[service]
	}
	if req.RemoteAddress != nil {
		address := strings.TrimSpace(*req.RemoteAddress)
		if address != "" && net.ParseIP(address) == nil {
			return nil, &ValidationError{Field: "remote_address", Reason: "not a valid IP address"}
		}
		patch["remote-address"] = address
	}
	if req.Comment != nil {
		patch["comment"] = *req.Comment
	}
	if len(patch) == 0 {
		return cred, nil
	}

	updated, err := o.secrets.Update(ctx, cred.ID, patch)
	if err != nil {
		return nil, errors.Wrapf(err, "update credential %s", cred.Name)
	}
	return updated, nil
}

// BulkDeprovision removes several credentials sequentially. The run
// succeeds when at least one credential is removed; per-id failures are
// recorded, never propagated.
func (o *Orchestrator) BulkDeprovision(ctx context.Context, ids []string) *BulkResult {
	result := &BulkResult{Items: make([]BulkItem, 0, len(ids))}
	for _, id := range ids {
		item := BulkItem{ID: id}
		if _, err := o.Deprovision(ctx, id); err != nil {
			item.Error = err.Error()
			result.Failed++
		} else {
			item.OK = true
			result.Succeeded++
		}
		result.Items = append(result.Items, item)
	}
	result.OK = result.Succeeded > 0
	return result
}

// BulkToggle flips several credentials sequentially, same aggregation rules
// as BulkDeprovision.
func (o *Orchestrator) BulkToggle(ctx context.Context, ids []string) *BulkResult {
	result := &BulkResult{Items: make([]BulkItem, 0, len(ids))}
	for _, id := range ids {
		item := BulkItem{ID: id}
		if _, err := o.ToggleStatus(ctx, id); err != nil {
			item.Error = err.Error()
			result.Failed++
		} else {
			item.OK = true
			result.Succeeded++
		}
		result.Items = append(result.Items, item)
	}
	result.OK = result.Succeeded > 0
	return result
}

// ListCredentials returns every PPP secret on the device.
func (o *Orchestrator) ListCredentials(ctx context.Context) ([]routeros.Credential, error) {
	return o.secrets.List(ctx)
}

// UserDetail bundles one credential with its correlated resources.
type UserDetail struct {
	Credential routeros.Credential    `json:"credential"`
	NAT        []routeros.NATRule     `json:"nat,omitempty"`
	Probes     []routeros.HealthProbe `json:"probes,omitempty"`
}

// UserDetails resolves a credential and the NAT rules and probes that
// belong to it.
func (o *Orchestrator) UserDetails(ctx context.Context, id string) (*UserDetail, error) {
	cred, err := o.secrets.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &UserDetail{
		Credential: *cred,
		NAT:        o.correlateNAT(ctx, cred),
		Probes:     o.correlateProbes(ctx, cred),
	}, nil
}

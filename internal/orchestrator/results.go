package orchestrator

import "fmt"

// VPN service identifiers accepted by provisioning operations.
const (
	ServiceL2TP = "l2tp"
	ServicePPTP = "pptp"
	ServiceSSTP = "sstp"
	ServiceAny  = "any"
)

// profileForService maps a service to the PPP profile name its credentials
// are attached to. The "any" service uses the device's builtin default.
var profileForService = map[string]string{
	ServiceL2TP: "L2TP",
	ServicePPTP: "PPTP",
	ServiceSSTP: "SSTP",
	ServiceAny:  "default",
}

// ValidationError rejects a request before anything touches the device.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NATSpec asks for port-forwarding rules alongside a credential. Ports holds
// the internal destination ports on the client device; external ports are
// allocated. Individual selects one rule per port, each tagged with its own
// comment, instead of a single consolidated rule.
type NATSpec struct {
	Ports      []int `json:"ports"`
	Individual bool  `json:"individual"`
}

// ProvisionRequest creates one VPN credential with optional NAT forwarding
// and a health probe. An empty RemoteAddress means allocate from the
// service's pool.
type ProvisionRequest struct {
	Username      string   `json:"username"`
	Password      string   `json:"password"`
	Service       string   `json:"service"`
	RemoteAddress string   `json:"remote_address,omitempty"`
	NAT           *NATSpec `json:"nat,omitempty"`
}

// UpdateRequest patches an existing credential. Nil fields are untouched.
// A non-nil empty RemoteAddress clears the static assignment.
type UpdateRequest struct {
	Name          *string `json:"name,omitempty"`
	Password      *string `json:"password,omitempty"`
	Service       *string `json:"service,omitempty"`
	RemoteAddress *string `json:"remote_address,omitempty"`
	Comment       *string `json:"comment,omitempty"`
}

// NATOutcome reports one requested forwarding rule. A failed rule carries
// Error and leaves RuleID empty; the credential itself is unaffected.
type NATOutcome struct {
	InternalPort int    `json:"internal_port"`
	ExternalPort int    `json:"external_port"`
	RuleID       string `json:"rule_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

// ProvisionResult is the full outcome of a provisioning run. ProbeError is
// set when the netwatch entry could not be created; the credential still
// exists in that case.
type ProvisionResult struct {
	CredentialID  string       `json:"credential_id"`
	Username      string       `json:"username"`
	Service       string       `json:"service"`
	Profile       string       `json:"profile"`
	RemoteAddress string       `json:"remote_address,omitempty"`
	AddressError  string       `json:"address_error,omitempty"`
	NAT           []NATOutcome `json:"nat,omitempty"`
	ProbeID       string       `json:"probe_id,omitempty"`
	ProbeError    string       `json:"probe_error,omitempty"`
}

// DeprovisionResult summarizes the cleanup for one credential.
type DeprovisionResult struct {
	Username          string `json:"username"`
	Address           string `json:"address,omitempty"`
	ProbesDeleted     int    `json:"probes_deleted"`
	NATDeleted        int    `json:"nat_deleted"`
	CredentialDeleted bool   `json:"credential_deleted"`
}

// BulkItem is the per-id outcome of a bulk operation.
type BulkItem struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// BulkResult aggregates a bulk operation. OK is true when at least one item
// succeeded.
type BulkResult struct {
	OK        bool       `json:"ok"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	Items     []BulkItem `json:"items"`
}

// ProfileResult reports service profile bootstrap.
type ProfileResult struct {
	ProfileID string `json:"profile_id"`
	Name      string `json:"name"`
	Created   bool   `json:"created"`
}

// DeviceInfo is the connection test response.
type DeviceInfo struct {
	Board        string `json:"board"`
	Version      string `json:"version"`
	Architecture string `json:"architecture"`
	Uptime       string `json:"uptime"`
}

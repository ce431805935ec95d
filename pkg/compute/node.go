package compute

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// ProviderName identifies the provider behind every entity produced by this
// module. It is part of the derived node UUID, so it must stay stable.
const ProviderName = "gogrid"

// NodeState is the abstract lifecycle state of a compute node.
type NodeState string

const (
	StatePending   NodeState = "pending"
	StateRunning   NodeState = "running"
	StateRebooting NodeState = "rebooting"
	StateUnknown   NodeState = "unknown"
)

// NodeID is the provider-issued node identifier. GoGrid allocates it
// asynchronously, minutes after the provisioning call returns, so a freshly
// created node carries a pending ID. Callers must check Assigned before
// using the value.
type NodeID struct {
	value    string
	assigned bool
}

// AssignedID wraps a provider-issued identifier.
func AssignedID(v string) NodeID {
	return NodeID{value: v, assigned: true}
}

// PendingID is the identifier of a node the provider has not named yet.
// It is also the zero value of NodeID.
func PendingID() NodeID {
	return NodeID{}
}

// Assigned reports whether the provider has issued an identifier.
func (id NodeID) Assigned() bool {
	return id.assigned
}

// Value returns the identifier and whether it has been assigned.
func (id NodeID) Value() (string, bool) {
	return id.value, id.assigned
}

func (id NodeID) String() string {
	if !id.assigned {
		return "<pending>"
	}
	return id.value
}

// NodeExtra carries provider-specific node attributes.
type NodeExtra struct {
	RAM      string // size name as reported by the provider, e.g. "512MB"
	Sandbox  bool
	Password string // provisioned root password, when the account may read it
}

// Node is a compute node as seen through the provider API. Nodes are value
// objects: fresher API records produce new Node values, existing ones are
// never mutated in place.
type Node struct {
	ID         NodeID
	Name       string
	State      NodeState
	PublicIPs  []string
	PrivateIPs []string
	Extra      NodeExtra
}

// UUID derives a stable identifier from the node's first public IP and the
// provider name. The public IP is fixed at provisioning time, so the UUID is
// durable even while the provider-issued ID is still pending.
func (n Node) UUID() string {
	ip := ""
	if len(n.PublicIPs) > 0 {
		ip = n.PublicIPs[0]
	}
	sum := sha1.Sum([]byte(fmt.Sprintf("%s:%s", ip, ProviderName)))
	return hex.EncodeToString(sum[:])
}

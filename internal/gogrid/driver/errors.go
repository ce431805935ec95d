package driver

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for lifecycle operations
var (
	ErrNoUnassignedIPs  = errors.New("no unassigned public IPs available")
	ErrNodeUnidentified = errors.New("node has no provider-issued identifier yet")
)

// OperationError is raised when the API classified a request as failed.
// It carries the endpoint and the provider's own message so callers can
// diagnose without replaying the request.
type OperationError struct {
	Endpoint string
	Message  string
}

func (e *OperationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider reported failure on %s", e.Endpoint)
	}
	return fmt.Sprintf("provider reported failure on %s: %s", e.Endpoint, e.Message)
}

// AllocationTimeoutError is raised when a blocking create gave up waiting
// for the provider to assign a node identifier. The provisioning request
// itself was accepted and keeps running provider-side; the caller decides
// whether to keep the node or retry the whole operation.
type AllocationTimeoutError struct {
	NodeName string
	PublicIP string
	Waited   time.Duration
}

func (e *AllocationTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for id allocation for node %q (ip %s)",
		e.Waited, e.NodeName, e.PublicIP)
}

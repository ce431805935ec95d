package driver

import (
	"fmt"

	"github.com/gookit/goutil/strutil"

	"github.com/gridhop/gogrid/internal/gogrid/client"
	"github.com/gridhop/gogrid/pkg/compute"
)

// stateNames maps provider state names to abstract lifecycle states.
// Anything the provider adds later falls through to StateUnknown; the
// mapper must never fail on a state string.
var stateNames = map[string]compute.NodeState{
	"Starting":   compute.StatePending,
	"On":         compute.StateRunning,
	"Off":        compute.StatePending,
	"Restarting": compute.StateRebooting,
	"Saving":     compute.StatePending,
	"Restoring":  compute.StatePending,
}

func mapState(name string) compute.NodeState {
	if state, ok := stateNames[name]; ok {
		return state
	}
	return compute.StateUnknown
}

// coerceID renders a wire identifier as a string. The API emits ids as JSON
// numbers on some endpoints and strings on others; absent ids come through
// as nil and coerce to "".
func coerceID(v any) string {
	if v == nil {
		return ""
	}
	s, err := strutil.AnyToString(v, false)
	if err != nil {
		return ""
	}
	return s
}

// toNode maps one server record to a domain node. password is the
// previously correlated provisioned password, empty when unknown. A record
// without a public address is rejected: the address is the only durable
// handle on a node whose id is still pending.
func toNode(rec client.ServerRecord, password string) (compute.Node, error) {
	if rec.IP.IP == "" {
		return compute.Node{}, fmt.Errorf("server record %q carries no IP address", rec.Name)
	}

	id := compute.PendingID()
	if v := coerceID(rec.ID); v != "" {
		id = compute.AssignedID(v)
	}

	return compute.Node{
		ID:        id,
		Name:      rec.Name,
		State:     mapState(rec.State.Name),
		PublicIPs: []string{rec.IP.IP},
		Extra: compute.NodeExtra{
			RAM:      rec.RAM.Name,
			Sandbox:  rec.IsSandbox == "true",
			Password: password,
		},
	}, nil
}

func toImage(rec client.ImageRecord) compute.Image {
	return compute.Image{
		ID:   coerceID(rec.ID),
		Name: rec.FriendlyName,
	}
}

// toLocation maps a datacenter lookup record. The API does not report a
// country; all GoGrid datacenters are US-based.
func toLocation(rec client.DatacenterRecord) compute.Location {
	return compute.Location{
		ID:      coerceID(rec.ID),
		Name:    rec.Name,
		Country: "US",
	}
}

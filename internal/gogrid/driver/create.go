package driver

import (
	"context"
	"log/slog"
	"time"

	"github.com/gridhop/gogrid/pkg/compute"
	"github.com/gridhop/gogrid/pkg/events"
)

// CreateNode provisions a node and blocks until the provider assigns its
// identifier, by polling the server list and correlating on the node's
// public address. The wait is bounded by the driver's allocation timeout
// and aborts on context cancellation; either way the provisioning request
// already submitted keeps running provider-side. Timeout surfaces as
// *AllocationTimeoutError and is not retried here.
func (d *Driver) CreateNode(ctx context.Context, spec CreateSpec) (compute.Node, error) {
	corrID := events.NewCorrelationID()

	node, err := d.CreateNodeAsync(ctx, spec)
	if err != nil {
		return compute.Node{}, err
	}

	publicIP := node.PublicIPs[0]
	d.bus.Publish(events.TopicProvisionSubmitted, events.ProvisionEvent{
		ID:       corrID,
		NodeName: node.Name,
		PublicIP: publicIP,
	})

	if id, ok := node.ID.Value(); ok {
		d.bus.Publish(events.TopicProvisionResolved, events.ProvisionEvent{
			ID:       corrID,
			NodeName: node.Name,
			PublicIP: publicIP,
			NodeID:   id,
		})
		return node, nil
	}

	d.logger.Info("waiting for node id allocation",
		slog.String("node", node.Name),
		slog.String("public_ip", publicIP),
		slog.Duration("poll_interval", d.pollInterval),
		slog.Duration("timeout", d.allocTimeout))

	start := time.Now()
	deadline := start.Add(d.allocTimeout)
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		d.bus.Publish(events.TopicProvisionPolling, events.ProvisionEvent{
			ID:       corrID,
			NodeName: node.Name,
			PublicIP: publicIP,
			Attempt:  attempt,
		})

		resolved, found, err := d.findIdentified(ctx, publicIP)
		if err != nil {
			return compute.Node{}, err
		}
		if found {
			id, _ := resolved.ID.Value()
			d.logger.Info("node id allocated",
				slog.String("node", resolved.Name),
				slog.String("node_id", id),
				slog.Duration("waited", time.Since(start)))
			d.bus.Publish(events.TopicProvisionResolved, events.ProvisionEvent{
				ID:       corrID,
				NodeName: resolved.Name,
				PublicIP: publicIP,
				NodeID:   id,
				Attempt:  attempt,
			})
			return resolved, nil
		}

		if time.Now().After(deadline) {
			d.bus.Publish(events.TopicProvisionTimedOut, events.ProvisionEvent{
				ID:       corrID,
				NodeName: node.Name,
				PublicIP: publicIP,
				Attempt:  attempt,
			})
			return compute.Node{}, &AllocationTimeoutError{
				NodeName: node.Name,
				PublicIP: publicIP,
				Waited:   time.Since(start),
			}
		}

		select {
		case <-ctx.Done():
			return compute.Node{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// findIdentified scans the current server list for a record whose public
// address matches and whose identifier has been assigned. First match wins.
func (d *Driver) findIdentified(ctx context.Context, publicIP string) (compute.Node, bool, error) {
	nodes, err := d.ListNodes(ctx)
	if err != nil {
		return compute.Node{}, false, err
	}
	for _, n := range nodes {
		if len(n.PublicIPs) > 0 && n.PublicIPs[0] == publicIP && n.ID.Assigned() {
			return n, true, nil
		}
	}
	return compute.Node{}, false, nil
}

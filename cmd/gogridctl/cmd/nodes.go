package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridhop/gogrid/internal/gogrid/driver"
	"github.com/gridhop/gogrid/internal/gogrid/journal"
	"github.com/gridhop/gogrid/pkg/compute"
	"github.com/gridhop/gogrid/pkg/events"
)

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "Manage compute nodes",
}

var nodesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all nodes",
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, e *env) error {
			nodes, err := e.driver.ListNodes(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("%-12s %-20s %-10s %-16s %-8s %s\n", "ID", "NAME", "STATE", "PUBLIC IP", "RAM", "PASSWORD")
			for _, n := range nodes {
				ip := ""
				if len(n.PublicIPs) > 0 {
					ip = n.PublicIPs[0]
				}
				password := ""
				if n.Extra.Password != "" {
					password = "(known)"
				}
				fmt.Printf("%-12s %-20s %-10s %-16s %-8s %s\n",
					n.ID, n.Name, n.State, ip, n.Extra.RAM, password)
			}
			return nil
		})
	},
}

var nodesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Provision a new node",
	Long: `Provision a new node and wait for the provider to assign its id.

GoGrid allocates node identifiers asynchronously, typically minutes after
the provisioning call. By default this command polls until the id appears
(bounded by create.allocation_timeout); --no-wait returns immediately with
a pending id instead. Ctrl-C aborts the wait, not the provisioning.`,
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")
		image, _ := cmd.Flags().GetString("image")
		size, _ := cmd.Flags().GetString("size")
		description, _ := cmd.Flags().GetString("description")
		sandbox, _ := cmd.Flags().GetBool("sandbox")
		datacenter, _ := cmd.Flags().GetString("datacenter")
		noWait, _ := cmd.Flags().GetBool("no-wait")

		run(func(ctx context.Context, e *env) error {
			spec := driver.CreateSpec{
				Name:        name,
				ImageID:     image,
				SizeID:      size,
				Description: description,
				Sandbox:     sandbox,
			}
			if datacenter != "" {
				spec.Location = &compute.Location{ID: datacenter}
			}

			// abort the wait on Ctrl-C; the provisioning request itself
			// keeps running provider-side
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			unsubscribe, err := e.bus.Subscribe(events.TopicProvisionPolling, func(ev events.ProvisionEvent) {
				fmt.Printf("waiting for id allocation (attempt %d, ip %s)\n", ev.Attempt, ev.PublicIP)
			})
			if err == nil {
				defer unsubscribe()
			}

			started := time.Now().UTC()
			var node compute.Node
			if noWait {
				node, err = e.driver.CreateNodeAsync(ctx, spec)
			} else {
				node, err = e.driver.CreateNode(ctx, spec)
			}

			entry := journal.Entry{
				Operation:  "create",
				NodeName:   name,
				Detail:     fmt.Sprintf("image=%s size=%s sandbox=%t", image, size, sandbox),
				StartedAt:  started,
				FinishedAt: time.Now().UTC(),
			}
			if err != nil {
				entry.Error = err.Error()
				e.record(context.Background(), entry)
				return err
			}
			if id, ok := node.ID.Value(); ok {
				entry.NodeID = id
			}
			if len(node.PublicIPs) > 0 {
				entry.PublicIP = node.PublicIPs[0]
			}
			e.record(context.Background(), entry)

			fmt.Printf("Node %s provisioned\n", node.Name)
			fmt.Printf("  id:        %s\n", node.ID)
			fmt.Printf("  uuid:      %s\n", node.UUID())
			fmt.Printf("  public ip: %s\n", strings.Join(node.PublicIPs, ", "))
			fmt.Printf("  state:     %s\n", node.State)
			if !node.ID.Assigned() {
				fmt.Println("The provider has not assigned an id yet; it will appear in 'nodes list' within minutes.")
			}
			return nil
		})
	},
}

var nodesRebootCmd = &cobra.Command{
	Use:   "reboot <node-id>",
	Short: "Restart a node",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, e *env) error {
			node, err := findNode(ctx, e, args[0])
			if err != nil {
				return err
			}

			started := time.Now().UTC()
			err = e.driver.RebootNode(ctx, node)
			recordLifecycle(e, "reboot", node, started, err)
			if err != nil {
				return err
			}
			fmt.Printf("Reboot requested for node %s (%s)\n", node.Name, node.ID)
			return nil
		})
	},
}

var nodesDestroyCmd = &cobra.Command{
	Use:   "destroy <node-id>",
	Short: "Delete a node",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		yes, _ := cmd.Flags().GetBool("yes")

		run(func(ctx context.Context, e *env) error {
			node, err := findNode(ctx, e, args[0])
			if err != nil {
				return err
			}

			if !yes {
				fmt.Printf("Destroy node %s (%s)? Re-run with --yes to confirm.\n", node.Name, node.ID)
				return nil
			}

			started := time.Now().UTC()
			err = e.driver.DestroyNode(ctx, node)
			recordLifecycle(e, "destroy", node, started, err)
			if err != nil {
				return err
			}
			fmt.Printf("Node %s (%s) destroyed\n", node.Name, node.ID)
			return nil
		})
	},
}

// findNode resolves a provider node id to a current node record.
func findNode(ctx context.Context, e *env, id string) (compute.Node, error) {
	nodes, err := e.driver.ListNodes(ctx)
	if err != nil {
		return compute.Node{}, err
	}
	for _, n := range nodes {
		if v, ok := n.ID.Value(); ok && v == id {
			return n, nil
		}
	}
	return compute.Node{}, fmt.Errorf("no node with id %s", id)
}

func recordLifecycle(e *env, operation string, node compute.Node, started time.Time, opErr error) {
	entry := journal.Entry{
		Operation:  operation,
		NodeName:   node.Name,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}
	if id, ok := node.ID.Value(); ok {
		entry.NodeID = id
	}
	if len(node.PublicIPs) > 0 {
		entry.PublicIP = node.PublicIPs[0]
	}
	if opErr != nil {
		entry.Error = opErr.Error()
	}
	e.record(context.Background(), entry)
}

func init() {
	nodesCreateCmd.Flags().String("name", "", "node name (required)")
	nodesCreateCmd.Flags().String("image", "", "image id (required, see 'images list')")
	nodesCreateCmd.Flags().String("size", "", "plan id (required, see 'sizes')")
	nodesCreateCmd.Flags().String("description", "", "node description")
	nodesCreateCmd.Flags().Bool("sandbox", false, "provision a sandbox (test-tier) node")
	nodesCreateCmd.Flags().String("datacenter", "", "datacenter id to allocate the IP from")
	nodesCreateCmd.Flags().Bool("no-wait", false, "do not wait for id allocation")
	nodesCreateCmd.MarkFlagRequired("name")
	nodesCreateCmd.MarkFlagRequired("image")
	nodesCreateCmd.MarkFlagRequired("size")

	nodesDestroyCmd.Flags().Bool("yes", false, "confirm destruction")

	nodesCmd.AddCommand(nodesListCmd)
	nodesCmd.AddCommand(nodesCreateCmd)
	nodesCmd.AddCommand(nodesRebootCmd)
	nodesCmd.AddCommand(nodesDestroyCmd)
	rootCmd.AddCommand(nodesCmd)
}

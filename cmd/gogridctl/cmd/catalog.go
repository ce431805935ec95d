package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridhop/gogrid/pkg/compute"
)

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "List provider datacenters",
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, e *env) error {
			locations, err := e.driver.ListLocations(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("%-6s %-15s %s\n", "ID", "NAME", "COUNTRY")
			for _, loc := range locations {
				fmt.Printf("%-6s %-15s %s\n", loc.ID, loc.Name, loc.Country)
			}
			return nil
		})
	},
}

var sizesCmd = &cobra.Command{
	Use:   "sizes",
	Short: "List server plans",
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, e *env) error {
			fmt.Printf("%-8s %-8s %-8s %s\n", "ID", "RAM(MB)", "DISK(GB)", "$/HOUR")
			for _, s := range e.driver.ListSizes() {
				fmt.Printf("%-8s %-8d %-8d %.3f\n", s.ID, s.RAM, s.Disk, s.HourlyPrice)
			}
			return nil
		})
	},
}

var ipCmd = &cobra.Command{
	Use:   "ip",
	Short: "Work with public IPs",
}

var ipAllocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "Pick an unassigned public IP",
	Long: `Pick the first unassigned public IP, optionally within one datacenter.

The provider offers no atomic reservation: a concurrent allocator may bind
the same address first, so treat the result as a best-effort hint.`,
	Run: func(cmd *cobra.Command, args []string) {
		datacenter, _ := cmd.Flags().GetString("datacenter")

		run(func(ctx context.Context, e *env) error {
			var location *compute.Location
			if datacenter != "" {
				location = &compute.Location{ID: datacenter}
			}

			ip, err := e.driver.AllocateUnassignedIP(ctx, location)
			if err != nil {
				return err
			}
			fmt.Println(ip)
			return nil
		})
	},
}

func init() {
	ipAllocateCmd.Flags().String("datacenter", "", "restrict to one datacenter id")

	ipCmd.AddCommand(ipAllocateCmd)
	rootCmd.AddCommand(locationsCmd)
	rootCmd.AddCommand(sizesCmd)
	rootCmd.AddCommand(ipCmd)
}

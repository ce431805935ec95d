package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridhop/gogrid/pkg/compute"
)

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Manage machine images",
}

var imagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available images",
	Run: func(cmd *cobra.Command, args []string) {
		datacenter, _ := cmd.Flags().GetString("datacenter")

		run(func(ctx context.Context, e *env) error {
			var location *compute.Location
			if datacenter != "" {
				location = &compute.Location{ID: datacenter}
			}

			images, err := e.driver.ListImages(ctx, location)
			if err != nil {
				return err
			}

			fmt.Printf("%-10s %s\n", "ID", "NAME")
			for _, img := range images {
				fmt.Printf("%-10s %s\n", img.ID, img.Name)
			}
			return nil
		})
	},
}

var imagesSaveCmd = &cobra.Command{
	Use:   "save <node-id>",
	Short: "Snapshot a node into a new image",
	Long: `Snapshot a running node into a new image. The node must be prepared
for imaging per the provider's documentation beforehand.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")

		run(func(ctx context.Context, e *env) error {
			node, err := findNode(ctx, e, args[0])
			if err != nil {
				return err
			}

			started := time.Now().UTC()
			image, err := e.driver.SaveImage(ctx, node, name)
			recordLifecycle(e, "save-image", node, started, err)
			if err != nil {
				return err
			}

			fmt.Printf("Image %s (%s) saved from node %s\n", image.Name, image.ID, node.Name)
			return nil
		})
	},
}

func init() {
	imagesListCmd.Flags().String("datacenter", "", "filter images to one datacenter id")

	imagesSaveCmd.Flags().String("name", "", "name for the new image (required)")
	imagesSaveCmd.MarkFlagRequired("name")

	imagesCmd.AddCommand(imagesListCmd)
	imagesCmd.AddCommand(imagesSaveCmd)
	rootCmd.AddCommand(imagesCmd)
}

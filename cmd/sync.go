package cmd

import (
	"fmt"

	"catalog-sync/core/reconcile"

	"github.com/spf13/cobra"
)

// syncCmd runs one manual sync in the foreground.
var syncCmd = &cobra.Command{
	Use:   "sync [tenant]",
	Short: "Run a manual catalog sync for a tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer app.close()

		res, err := app.service.SyncNow(cmd.Context(), args[0])
		if res != nil {
			d := res.Details
			fmt.Println("\n--- Sync Result ---")
			fmt.Printf("Tenant:      %s\n", args[0])
			fmt.Printf("Run:         %s\n", res.RunID)
			fmt.Printf("Provider:    %s\n", res.Provider)
			fmt.Printf("Status:      %s\n", res.Status)
			fmt.Printf("Skipped:     %v\n", res.Skipped)
			fmt.Println("-------------------")
			fmt.Printf("%-12s %8s %8s %10s %8s\n", "", "created", "updated", "unchanged", "removed")
			printCounts("Categories", d.Categories)
			printCounts("Items", d.Items)
			printCounts("Modifiers", d.Modifiers)
			printCounts("Options", d.Options)
			if len(res.Errors) > 0 {
				fmt.Println("\nErrors:")
				for _, e := range res.Errors {
					fmt.Printf("- %s\n", e)
				}
			}
			fmt.Println("-------------------")
		}
		return err
	},
}

func printCounts(name string, k reconcile.KindCounts) {
	fmt.Printf("%-12s %8d %8d %10d %8d\n", name, k.Created, k.Updated, k.Unchanged, k.Removed)
}

func init() {
	RootCmd.AddCommand(syncCmd)
}

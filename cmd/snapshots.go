package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"catalog-sync/feature/pos"

	"github.com/spf13/cobra"
)

var snapshotsProvider string

// snapshotsCmd lists archived catalogs or prints one of them.
var snapshotsCmd = &cobra.Command{
	Use:   "snapshots [tenant] [run-id]",
	Short: "List or show archived catalog snapshots",
	Long: `Without a run id, lists the snapshots archived for the tenant, newest first.
With a run id, prints that snapshot as JSON.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer app.close()

		if app.archive == nil {
			return errors.New("snapshots are disabled (STORAGE_SNAPSHOTS_ENABLED=false)")
		}

		tenantID := args[0]
		provider, err := resolveProvider(cmd, app, tenantID)
		if err != nil {
			return err
		}

		if len(args) == 2 {
			snap, err := app.archive.Load(cmd.Context(), tenantID, provider, args[1])
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		entries, err := app.archive.List(cmd.Context(), tenantID, provider)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No snapshots.")
			return nil
		}
		fmt.Printf("%-36s %10s  %s\n", "RUN", "SIZE", "ARCHIVED")
		for _, e := range entries {
			fmt.Printf("%-36s %10d  %s\n", e.RunID, e.Size, e.LastModified.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

// resolveProvider uses the flag when set, otherwise the tenant's active provider.
func resolveProvider(cmd *cobra.Command, app *application, tenantID string) (pos.Provider, error) {
	if snapshotsProvider != "" {
		return pos.ParseProvider(snapshotsProvider)
	}
	st, err := app.service.Status(cmd.Context(), tenantID)
	if err != nil {
		return "", err
	}
	if st.Provider == string(pos.ProviderNone) {
		return "", fmt.Errorf("tenant %s has no active provider, pass --provider", tenantID)
	}
	return pos.Provider(st.Provider), nil
}

func init() {
	snapshotsCmd.Flags().StringVar(&snapshotsProvider, "provider", "", "POS provider (square, toast)")
	RootCmd.AddCommand(snapshotsCmd)
}

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statusJSON bool

// statusCmd prints a tenant's integration state.
var statusCmd = &cobra.Command{
	Use:   "status [tenant]",
	Short: "Show a tenant's POS integration status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer app.close()

		st, err := app.service.Status(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if statusJSON {
			out, err := json.MarshalIndent(st, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		fmt.Printf("Tenant:      %s\n", st.TenantID)
		fmt.Printf("Provider:    %s\n", st.Provider)
		fmt.Printf("Enabled:     %v\n", st.Enabled)
		for p, id := range st.ProviderAccountIDs {
			fmt.Printf("Account:     %s %s\n", p, id)
		}
		if st.AccountName != "" {
			fmt.Printf("Name:        %s\n", st.AccountName)
		}
		fmt.Printf("Sync status: %s\n", st.SyncStatus)
		if st.LastSyncAt != nil {
			fmt.Printf("Last sync:   %s\n", st.LastSyncAt.Format("2006-01-02 15:04:05 MST"))
		}
		if st.SyncError != "" {
			fmt.Printf("Last error:  %s\n", st.SyncError)
		}
		if st.TokenExpiresAt != nil {
			fmt.Printf("Token until: %s (expiring: %v)\n", st.TokenExpiresAt.Format("2006-01-02"), st.TokenExpiring)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the status as JSON")
	RootCmd.AddCommand(statusCmd)
}

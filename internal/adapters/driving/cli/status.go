package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show vector sync status",
	Long:  `Reports indexed and pending document counts for the configured user.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if services == nil || services.Status == nil {
		return errors.New("status service not configured")
	}

	status, err := services.Status.Status(cmd.Context(), services.UserID)
	if err != nil {
		return err
	}

	cmd.Printf("State:   %s\n", status.State)
	cmd.Printf("Indexed: %d\n", status.IndexedCount)
	cmd.Printf("Pending: %d\n", status.PendingCount)
	return nil
}

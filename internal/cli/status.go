package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mendhq/mender/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show circuit breaker states and recent recovery attempts",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	resp, err := httpClient().Get(serverAddr + "/health/detailed")
	if err != nil {
		fmt.Printf("Failed to reach mender at %s: %v\n", serverAddr, err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var detail struct {
		Breakers       map[string]string         `json:"breakers"`
		RecentAttempts []*domain.RecoveryAttempt `json:"recent_attempts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		fmt.Printf("Invalid response: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Circuit breakers:")
	if len(detail.Breakers) == 0 {
		fmt.Println("  (none created yet)")
	}
	for service, state := range detail.Breakers {
		fmt.Printf("  %-30s %s\n", service, state)
	}

	fmt.Println("Recent recovery attempts:")
	if len(detail.RecentAttempts) == 0 {
		fmt.Println("  (none recorded)")
	}
	for _, a := range detail.RecentAttempts {
		fmt.Printf("  %s  %-24s %-18s %-10s retries=%d\n",
			a.StartedAt.Format(time.RFC3339), a.AlertName, a.Strategy, a.Status, a.RetryCount)
	}
}

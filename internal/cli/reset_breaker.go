package cli

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var resetBreakerCmd = &cobra.Command{
	Use:   "reset-breaker [service]",
	Short: "Force a circuit breaker back to CLOSED",
	Args:  cobra.ExactArgs(1),
	Run:   runResetBreaker,
}

func init() {
	rootCmd.AddCommand(resetBreakerCmd)
}

func runResetBreaker(cmd *cobra.Command, args []string) {
	service := args[0]
	url := fmt.Sprintf("%s/admin/breakers/%s/reset", serverAddr, service)

	resp, err := httpClient().Post(url, "application/json", nil)
	if err != nil {
		fmt.Printf("Failed to reach mender at %s: %v\n", serverAddr, err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		fmt.Printf("Reset failed: HTTP %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Printf("Successfully reset circuit breaker for %s\n", service)
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

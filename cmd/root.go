package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "transaction-payments",
	Short: "Transaction payments microservice",
	Long:  "A microservice tracking the payment lifecycle of charging-session transactions via the Paymob gateway.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

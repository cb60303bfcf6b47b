/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fieldforce-link",
	Short: "Work order management API server",
	Long: `FieldForce Link is a REST API server for field service work order management.
Clients file service requests, managers approve and schedule them, field
workers track time against work orders, and completion produces a signed
PDF report delivered to stakeholders.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// GetRootCmd returns the root command (used by tests)
func GetRootCmd() *cobra.Command {
	return rootCmd
}

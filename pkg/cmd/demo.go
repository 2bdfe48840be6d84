package cmd

import (
	"github.com/rowcheck/examples/basic"
	"github.com/spf13/cobra"
)

func demoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Validate a small built-in sample",
		Example: `
		$ rowcheck demo
		Valid: [true,foo]
		[validation.row.invalid] 1, "bar is not valid", [false,bar]
		Valid: [true,baz]
		`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return basic.Main(cmd.OutOrStdout())
		},
	}
}

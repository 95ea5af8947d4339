package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specforge/specforge/runner"
)

func testCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run generated acceptance tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := requireInitialized()
			if err != nil {
				return err
			}
			if len(specFiles(root)) == 0 {
				fmt.Println("Warning: No spec files found.")
				fmt.Println("Suggestion: Run `specforge new` to create specs.")
				return nil
			}

			result := runner.RunAcceptance(cmd.Context(), root)
			fmt.Println(result.Output)
			if len(result.FailingTests) > 0 {
				fmt.Println("\nFailing tests:")
				for _, t := range result.FailingTests {
					fmt.Printf("  %s\n", t)
				}
			}
			if !result.Success() {
				return fmt.Errorf("acceptance tests failed")
			}
			return nil
		},
	}
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Run both acceptance and unit tests (dual stream verification)",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := requireInitialized()
			if err != nil {
				return err
			}
			result := runner.RunVerify(cmd.Context(), root)
			fmt.Println(result.Output)
			if len(result.FailingTests) > 0 {
				fmt.Println("\nFailing tests:")
				for _, t := range result.FailingTests {
					fmt.Printf("  %s\n", t)
				}
			}
			if !result.Success() {
				fmt.Println("\nVerification FAILED.")
				return fmt.Errorf("verification failed")
			}
			fmt.Println("\nVerification PASSED.")
			return nil
		},
	}
}

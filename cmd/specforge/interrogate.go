package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specforge/specforge/interrogation"
)

func interrogateCmd() *cobra.Command {
	var (
		slug    string
		answers []string
		approve bool
	)

	cmd := &cobra.Command{
		Use:   "interrogate <idea>",
		Short: "Iterate on a spec draft through clarifying questions",
		Long: `Interrogate runs one deterministic drafting iteration: the idea and
accumulated answers render a draft spec, which is compiled and linted,
and its IR hash recorded. Approval requires all blocking questions
answered and the IR stable across two consecutive iterations.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := requireInitialized()
			if err != nil {
				return err
			}
			parsed, err := interrogation.ParseAnswerFlags(answers)
			if err != nil {
				return err
			}
			session, questions, err := interrogation.Iterate(root, args[0], slug, parsed, approve)
			if err != nil {
				return err
			}

			fmt.Printf("Session: %s (iteration %d)\n", session.Slug, session.Iteration)
			if session.Approved {
				fmt.Println("Status: APPROVED")
			} else if session.Stable() {
				fmt.Println("Status: IR stable, awaiting approval")
			} else {
				fmt.Println("Status: drafting")
			}

			if len(questions) > 0 {
				fmt.Println("\nBlocking questions:")
				for _, q := range questions {
					fmt.Printf("  %s: %s\n", q.ID, q.Text)
				}
				fmt.Println("\nAnswer with --answer key=value and re-run.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&slug, "slug", "", "Session slug (derived from idea when empty)")
	cmd.Flags().StringArrayVar(&answers, "answer", nil, "Answer a question (key=value, repeatable)")
	cmd.Flags().BoolVar(&approve, "approve", false, "Approve the draft once stable")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/horn/pkg/horn/journal"
	"github.com/cognicore/horn/pkg/horn/kbio"
	"github.com/cognicore/horn/pkg/horn/prolog"
	"github.com/cognicore/horn/pkg/horn/prover"
)

func (a *app) crosscheckCmd() *cobra.Command {
	var (
		depth   int
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "crosscheck FILE STATEMENT",
		Short: "Prove STATEMENT with both horn and an embedded Prolog interpreter",
		Long: `Proves STATEMENT against the knowledge base in FILE twice: once with the
depth-bounded prover and once with plain Prolog resolution, then reports
whether the verdicts agree. Exits 1 on disagreement.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			kb, err := kbio.LoadKBFile(args[0])
			if err != nil {
				return classify(err)
			}
			statement, err := loadStatement(args[1])
			if err != nil {
				return classify(err)
			}

			opts := a.proverOptions(depth, cmd.Flags().Changed("depth"), false, false)
			checker := prolog.Checker{Engine: prover.New(opts), Timeout: timeout}
			rep, err := checker.Check(ctx, kbio.StandardizeApart(kb), statement)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "statement: %s\n", kbio.FormatTextAtom(statement))
			fmt.Fprintf(out, "horn:      %s (%d steps)\n", verdict(rep.Horn), rep.HornSteps)
			if rep.PrologErr != nil {
				fmt.Fprintf(out, "prolog:    error: %v\n", rep.PrologErr)
			} else {
				fmt.Fprintf(out, "prolog:    %s\n", verdict(rep.Prolog))
			}
			if a.verbose {
				for _, kv := range sortedBindings(rep.HornBindings) {
					fmt.Fprintf(out, "  horn   %s = %s\n", kv[0], kv[1])
				}
				for _, kv := range sortedBindings(rep.PrologBindings) {
					fmt.Fprintf(out, "  prolog %s = %s\n", kv[0], kv[1])
				}
			}
			if !rep.Agree() {
				fmt.Fprintln(out, "agree:     no")
				return errNotProvable
			}
			fmt.Fprintln(out, "agree:     yes")
			return nil
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 0, "Maximum proof depth (default from config)")
	cmd.Flags().DurationVar(&timeout, "timeout", prolog.DefaultTimeout, "Time limit for the Prolog side")
	return cmd
}

func verdict(provable bool) string {
	if provable {
		return "provable"
	}
	return "not provable"
}

func sortedBindings(b map[string]string) [][2]string {
	return journal.Record{Bindings: b}.SortedBindings()
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/horn/pkg/horn/corpus"
	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/kbio"
	"github.com/cognicore/horn/pkg/horn/prover"
)

func (a *app) benchCmd() *cobra.Command {
	var (
		n         int
		depth     int
		seedFacts bool
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time the arithmetic benchmark knowledge base",
		Long: `Proves leq(seven, add(three, nine)) against a small theory of ≤ with
transitivity, monotonicity and commutativity rules, N times.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if n <= 0 {
				return classify(fmt.Errorf("%w: --n must be positive", internalerr.ErrInvalidInput))
			}
			kb := kbio.StandardizeApart(corpus.Arithmetic())
			goal := corpus.ArithmeticGoal()
			opts := prover.Options{MaxDepth: depth, SeedFacts: seedFacts}

			var (
				provable bool
				steps    int
			)
			start := time.Now()
			for i := 0; i < n; i++ {
				res, err := prover.Prove(kb, goal, opts)
				switch {
				case err == nil:
					provable, steps = true, res.Steps
				case internalerr.IsUnprovable(err):
					provable = false
				default:
					return err
				}
			}
			elapsed := time.Since(start)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "goal:      %s\n", kbio.FormatTextAtom(goal))
			fmt.Fprintf(out, "provable:  %t\n", provable)
			if provable {
				fmt.Fprintf(out, "steps:     %d\n", steps)
			}
			fmt.Fprintf(out, "runs:      %d\n", n)
			fmt.Fprintf(out, "total:     %s\n", elapsed)
			fmt.Fprintf(out, "per proof: %s\n", elapsed/time.Duration(n))
			return nil
		},
	}
	cmd.Flags().IntVar(&n, "n", 100, "Number of proof attempts")
	cmd.Flags().IntVar(&depth, "depth", 5, "Maximum proof depth")
	cmd.Flags().BoolVar(&seedFacts, "seed-facts", true, "Treat ground facts as already proven")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cognicore/horn/pkg/horn"
	"github.com/cognicore/horn/pkg/horn/config"
	"github.com/cognicore/horn/pkg/horn/journal"
	"github.com/cognicore/horn/pkg/horn/kbio"
	"github.com/cognicore/horn/pkg/horn/logic"
)

type proveFlags struct {
	kbFile      bool
	file        bool
	depth       int
	seedFacts   bool
	occursCheck bool
	name        string
}

func (a *app) proveCmd() *cobra.Command {
	var f proveFlags
	cmd := &cobra.Command{
		Use:   "prove KB STATEMENT",
		Short: "Decide whether STATEMENT follows from KB",
		Long: `Decides whether STATEMENT follows from the knowledge base KB.

KB and STATEMENT are inline JSON or clause text unless --kbfile / --file
say they are file paths. Exits 0 when the statement is provable, 1 when it
is not and 2 on malformed input.`,
		Example: `  horn prove --kbfile testdata/kb/criminal.pl 'criminal(Who)' -v
  horn prove 'p(a). q(X) :- p(X).' 'q(a)'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return classify(a.runProve(cmd, args, f))
		},
	}
	cmd.Flags().BoolVar(&f.kbFile, "kbfile", false, "Treat KB as a file path")
	cmd.Flags().BoolVar(&f.file, "file", false, "Treat STATEMENT as a file path")
	cmd.Flags().IntVar(&f.depth, "depth", 0, "Maximum proof depth (default from config)")
	cmd.Flags().BoolVar(&f.seedFacts, "seed-facts", false, "Treat ground facts as already proven")
	cmd.Flags().BoolVar(&f.occursCheck, "occurs-check", false, "Reject cyclic bindings during unification")
	cmd.Flags().StringVar(&f.name, "name", "", "Name recorded with the attempt in the proof history")
	return cmd
}

func (a *app) runProve(cmd *cobra.Command, args []string, f proveFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	loader := config.Loader{}
	if f.kbFile {
		loader.KBPath = args[0]
	}
	if f.file {
		loader.StatementPath = args[1]
	}
	comp, err := loader.Load()
	if err != nil {
		return err
	}

	kb := comp.KB
	if !f.kbFile {
		if kb, err = loadKB(args[0]); err != nil {
			return err
		}
	}
	var statement logic.Atom
	if comp.Statement != nil {
		statement = *comp.Statement
	} else if statement, err = loadStatement(args[1]); err != nil {
		return err
	}

	opts := a.proverOptions(f.depth, cmd.Flags().Changed("depth"), f.seedFacts, f.occursCheck)
	h, cleanup, err := a.buildHorn(ctx, opts, false)
	if err != nil {
		return err
	}
	defer cleanup()

	name := f.name
	if name == "" && f.kbFile {
		name = args[0]
	}
	resp, err := h.Prove(ctx, horn.ProveRequest{KB: name, Rules: &kb, Statement: statement})
	if err != nil {
		return err
	}

	printOutcome(cmd.OutOrStdout(), resp.Record, a.verbose)
	if !resp.Provable {
		return errNotProvable
	}
	return nil
}

func loadKB(arg string) (logic.KB, error) {
	kb, err := kbio.ParseInlineKB(arg)
	if err != nil {
		return logic.KB{}, fmt.Errorf("knowledge base %q: %w", arg, err)
	}
	return kb, nil
}

func loadStatement(arg string) (logic.Atom, error) {
	a, err := kbio.ParseInlineStatement(arg)
	if err != nil {
		return logic.Atom{}, fmt.Errorf("statement %q: %w", arg, err)
	}
	return a, nil
}

func printOutcome(w io.Writer, rec journal.Record, verbose bool) {
	if !rec.Provable {
		fmt.Fprintln(w, "proposition is not provable")
		if verbose {
			fmt.Fprintf(w, "reason: %s\n", rec.Reason)
			fmt.Fprintf(w, "steps: %d\n", rec.Steps)
		}
		return
	}

	fmt.Fprintln(w, "proposition is provable")
	if verbose {
		if rec.Answer != rec.Statement {
			fmt.Fprintf(w, "answer: %s\n", rec.Answer)
		}
		for _, kv := range rec.SortedBindings() {
			fmt.Fprintf(w, "  %s = %s\n", kv[0], kv[1])
		}
		fmt.Fprintf(w, "steps: %d\n", rec.Steps)
	}
}

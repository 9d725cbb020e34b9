package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/horn/pkg/horn"
	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/kbio"
	"github.com/cognicore/horn/pkg/horn/logic"
)

func (a *app) replCmd() *cobra.Command {
	var (
		kbPath string
		kbName string
		depth  int
	)
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Prove statements interactively, one per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if (kbPath == "") == (kbName == "") {
				return classify(fmt.Errorf("%w: exactly one of --kb or --name is required", internalerr.ErrInvalidInput))
			}

			opts := a.proverOptions(depth, cmd.Flags().Changed("depth"), false, false)
			h, cleanup, err := a.buildHorn(ctx, opts, kbName != "")
			if err != nil {
				return classify(err)
			}
			defer cleanup()

			req := horn.ProveRequest{KB: kbName}
			if kbPath != "" {
				kb, err := kbio.LoadKBFile(kbPath)
				if err != nil {
					return classify(err)
				}
				req.KB = kbPath
				req.Rules = &kb
			}
			return a.runREPL(ctx, cmd, h, req)
		},
	}
	cmd.Flags().StringVar(&kbPath, "kb", "", "Knowledge base file")
	cmd.Flags().StringVar(&kbName, "name", "", "Stored knowledge base name")
	cmd.Flags().IntVar(&depth, "depth", 0, "Maximum proof depth (default from config)")
	return cmd
}

func (a *app) runREPL(ctx context.Context, cmd *cobra.Command, h *horn.Horn, req horn.ProveRequest) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Type a statement such as criminal(Who). (Ctrl+D to exit)")
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		if line == ":quit" || line == ":q" {
			break
		}

		statement, err := kbio.ParseAtom(line)
		if err != nil {
			fmt.Fprintln(out, "Error:", err)
			continue
		}
		if err := a.replProve(ctx, cmd, h, req, statement); err != nil {
			fmt.Fprintln(out, "Error:", err)
		}
	}

	fmt.Fprintln(out, "\nGoodbye!")
	return scanner.Err()
}

func (a *app) replProve(ctx context.Context, cmd *cobra.Command, h *horn.Horn, req horn.ProveRequest, statement logic.Atom) error {
	req.Statement = statement
	resp, err := h.Prove(ctx, req)
	if err != nil {
		return err
	}
	// Bindings are the point of an interactive query.
	printOutcome(cmd.OutOrStdout(), resp.Record, true)
	return nil
}

package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cognicore/horn/pkg/horn"
	"github.com/cognicore/horn/pkg/horn/kbio"
	"github.com/cognicore/horn/pkg/horn/maintenance"
)

func (a *app) kbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Manage stored knowledge bases",
	}
	cmd.AddCommand(a.kbImportCmd(), a.kbListCmd(), a.kbShowCmd(), a.kbDeleteCmd(), a.kbHistoryCmd(), a.kbRecheckCmd())
	return cmd
}

func (a *app) kbImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import NAME FILE",
		Short: "Store the knowledge base in FILE under NAME",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return classify(a.withStore(cmd, func(ctx context.Context, h *horn.Horn) error {
				kb, err := kbio.LoadKBFile(args[1])
				if err != nil {
					return err
				}
				if err := h.ImportKB(ctx, args[0], kb); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %s: %d rules\n", args[0], len(kb.Rules))
				return nil
			}))
		},
	}
}

func (a *app) kbListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored knowledge bases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return classify(a.withStore(cmd, func(ctx context.Context, h *horn.Horn) error {
				kbs, err := h.ListKBs(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tRULES\tFACTS\tUPDATED")
				for _, kb := range kbs {
					fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", kb.Name, kb.Rules, kb.Facts, kb.UpdatedAt.Format("2006-01-02 15:04:05"))
				}
				return tw.Flush()
			}))
		},
	}
}

func (a *app) kbShowCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Print a stored knowledge base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return classify(a.withStore(cmd, func(ctx context.Context, h *horn.Horn) error {
				f, err := kbio.ParseFormat(format)
				if err != nil {
					return err
				}
				kb, err := h.GetKB(ctx, args[0])
				if err != nil {
					return err
				}
				data, err := kbio.EncodeKB(kb, f)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}))
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or yaml")
	return cmd
}

func (a *app) kbDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Remove a stored knowledge base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return classify(a.withStore(cmd, func(ctx context.Context, h *horn.Horn) error {
				if err := h.DeleteKB(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			}))
		},
	}
}

func (a *app) kbHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [NAME]",
		Short: "Show recorded proof attempts, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return classify(a.withStore(cmd, func(ctx context.Context, h *horn.Horn) error {
				records, err := h.History(ctx, name, limit)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tKB\tSTATEMENT\tPROVABLE\tSTEPS\tREASON")
				for _, r := range records {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%d\t%s\n", r.ID, r.KB, r.Statement, r.Provable, r.Steps, r.Reason)
				}
				return tw.Flush()
			}))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of records")
	return cmd
}

func (a *app) kbRecheckCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recheck NAME",
		Short: "Prove recorded statements again and report changed verdicts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return classify(a.withStore(cmd, func(ctx context.Context, h *horn.Horn) error {
				records, err := h.History(ctx, args[0], limit)
				if err != nil {
					return err
				}
				rc := maintenance.Rechecker{Prover: h, Source: &maintenance.SliceSource{Records: records}, KB: args[0]}
				res, err := rc.Recheck(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, c := range res.Changed {
					fmt.Fprintf(out, "%s: %s -> %s\n", c.Statement, verdict(c.Was), verdict(c.Now))
				}
				fmt.Fprintf(out, "rechecked %d statements: %d changed, %d errors\n", res.Processed, len(res.Changed), res.Errors)
				return nil
			}))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "Number of recent records to consider")
	return cmd
}

// withStore runs fn against the configured persistent store.
func (a *app) withStore(cmd *cobra.Command, fn func(ctx context.Context, h *horn.Horn) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	h, cleanup, err := a.buildHorn(ctx, a.proverOptions(0, false, false, false), true)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(ctx, h)
}

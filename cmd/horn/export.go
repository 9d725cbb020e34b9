package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/cognicore/horn/pkg/horn/kbio"
	"github.com/cognicore/horn/pkg/horn/prolog"
)

// streamWriter writes rendered programs to an io.Writer.
type streamWriter struct {
	w io.Writer
}

func (s streamWriter) WriteRules(ctx context.Context, content string) error {
	_, err := io.WriteString(s.w, content)
	return err
}

func (a *app) exportCmd() *cobra.Command {
	var (
		output  string
		dynamic bool
	)
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Print a knowledge base as Prolog clauses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, err := kbio.LoadKBFile(args[0])
			if err != nil {
				return classify(err)
			}
			exporter := prolog.Exporter{Writer: streamWriter{w: cmd.OutOrStdout()}, Dynamic: dynamic}
			if output != "" {
				exporter.Writer = prolog.FileWriter{Path: output}
			}
			return exporter.Export(cmd.Context(), kb)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().BoolVar(&dynamic, "dynamic", false, "Declare every predicate dynamic")
	return cmd
}

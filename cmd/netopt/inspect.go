package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/born-ml/netopt/internal/serialization"
)

var inspectJSON bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.born>",
	Short: "Print the header and tensors of a checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(cmd.OutOrStdout(), args[0], inspectJSON)
	},
}

func runInspect(out io.Writer, path string, asJSON bool) error {
	params, h, err := serialization.Load(path)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(h)
	}

	fmt.Fprintf(out, "Model:    %s\n", h.ModelType)
	fmt.Fprintf(out, "Format:   v%d\n", h.FormatVersion)
	fmt.Fprintf(out, "Created:  %s\n", h.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "Layers:   %d\n", len(params))
	if c := h.Checkpoint; c != nil {
		fmt.Fprintf(out, "Training: optimizer=%s loss=%.6g epochs=%d eta=%g stopped=%t\n",
			c.Optimizer, c.Loss, c.Epochs, c.Eta, c.Stopped)
		fmt.Fprintf(out, "Run:      %s\n", c.RunID)
	}

	keys := make([]string, 0, len(h.Metadata))
	for k := range h.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "Meta:     %s=%s\n", k, h.Metadata[k])
	}

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDTYPE\tSHAPE\tBYTES")
	for _, t := range h.Tensors {
		fmt.Fprintf(w, "%s\t%s\t%v\t%d\n", t.Name, t.DType, t.Shape, t.Size)
	}
	return w.Flush()
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Print the raw JSON header")
}

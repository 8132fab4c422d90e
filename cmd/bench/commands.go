package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"doc-bench/internal/app"
	"doc-bench/internal/chunker"
	"doc-bench/internal/pdftext"
)

type depsLoader func() (app.Deps, error)

func newRootCommand(load depsLoader) *cobra.Command {
	root := &cobra.Command{
		Use:          "bench",
		Short:        "Chunk documents and benchmark model summaries",
		SilenceUsage: true,
	}
	root.AddCommand(
		newChunkCommand(load),
		newRunCommand(load),
		newModelsCommand(load),
	)
	return root
}

func newChunkCommand(load depsLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chunk <num_tokens> <file>",
		Short: "Print the overlapping chunks of a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			numTokens, err := parseNumTokens(args[0])
			if err != nil {
				return err
			}
			deps, err := load()
			if err != nil {
				return err
			}
			overlap, err := overlapFlag(cmd, deps)
			if err != nil {
				return err
			}
			text, err := loadText(deps, args[1])
			if err != nil {
				return err
			}

			chunks, err := chunker.ChunkText(text, deps.Counter, chunker.Options{MaxTokens: numTokens, Overlap: overlap})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range chunks {
				fmt.Fprintf(out, "--- chunk %d (%d tokens, %d retained) ---\n%s\n", c.Index, c.TokenCount, c.Retained, c.Text)
			}
			fmt.Fprintf(out, "%d chunks\n", len(chunks))
			return nil
		},
	}
	cmd.Flags().Float64("overlap", chunker.DefaultOverlap, "Fraction of the budget carried over between chunks")
	return cmd
}

func newRunCommand(load depsLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <num_tokens> <file>",
		Short: "Summarize a document with a model and write the report",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			numTokens, err := parseNumTokens(args[0])
			if err != nil {
				return err
			}
			deps, err := load()
			if err != nil {
				return err
			}
			overlap, err := overlapFlag(cmd, deps)
			if err != nil {
				return err
			}
			model, _ := cmd.Flags().GetString("model")
			chunkPrompt, _ := cmd.Flags().GetString("chunk-prompt")
			finalPrompt, _ := cmd.Flags().GetString("final-prompt")

			text, err := loadText(deps, args[1])
			if err != nil {
				return err
			}
			outcome, err := app.RunJob(cmd.Context(), deps, app.Job{
				Filename:    filepath.Base(args[1]),
				Model:       model,
				NumTokens:   numTokens,
				Overlap:     overlap,
				Text:        text,
				ChunkPrompt: chunkPrompt,
				FinalPrompt: finalPrompt,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n\n", outcome.Result.FinalSummary)
			fmt.Fprintf(out, "chunks: %d\nduration: %s\nreport: %s\n",
				len(outcome.Result.Chunks), outcome.Result.Duration.Round(time.Millisecond), outcome.ReportPath)
			return nil
		},
	}
	cmd.Flags().StringP("model", "m", "", "Model name from the catalog")
	cmd.Flags().Float64("overlap", chunker.DefaultOverlap, "Fraction of the budget carried over between chunks")
	cmd.Flags().String("chunk-prompt", "", "Instruction prepended to every chunk")
	cmd.Flags().String("final-prompt", "", "Instruction prepended to the joined chunk summaries")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

func newModelsCommand(load depsLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := load()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPROVIDER\tCONTEXT\tREPORT")
			for _, m := range deps.Catalog.Models {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", m.Name, m.Provider, m.ContextLength, deps.Reports.Path(m.Name))
			}
			return w.Flush()
		},
	}
}

func parseNumTokens(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("num_tokens must be an integer, got %q", arg)
	}
	if n <= 0 {
		return 0, chunker.ErrInvalidBudget
	}
	return n, nil
}

// overlapFlag returns the --overlap flag, or the configured OVERLAP when the
// flag is not given. A configured 0 means no overlap.
func overlapFlag(cmd *cobra.Command, deps app.Deps) (float64, error) {
	if !cmd.Flags().Changed("overlap") {
		return deps.Config.Overlap, nil
	}
	return cmd.Flags().GetFloat64("overlap")
}

// loadText reads plain text files as is and extracts everything else as PDF.
func loadText(deps app.Deps, path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	doc, err := pdftext.Extract(path)
	if err != nil {
		return "", err
	}
	if failures := doc.Failures(); failures != nil {
		deps.Log.Warn("some pages could not be extracted", "file", path,
			"failed", doc.Count(pdftext.PageFailed), "err", failures)
	}
	text := doc.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("document contains no text")
	}
	return text, nil
}

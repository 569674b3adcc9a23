// Package main provides the CLI entry point for gridbook.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/okabe-dev/gridbook/pkg/gridbook"
	"github.com/okabe-dev/gridbook/pkg/gridbook/models"
	"github.com/okabe-dev/gridbook/pkg/gridbook/recompute"
)

var (
	pretty       bool
	user         string
	runRecompute bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gridbook",
		Short: "Edit workbook documents through reversible operations",
		Long: `gridbook stores a spreadsheet document as JSON and mutates it through
atomic operation batches with full undo/redo history.`,
	}

	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	rootCmd.PersistentFlags().StringVar(&user, "user", "", "Attribute changes to this user")
	rootCmd.PersistentFlags().BoolVar(&runRecompute, "recompute", false, "Recompute formulas after applying")

	rootCmd.AddCommand(
		newCmd(),
		applyCmd(),
		undoCmd(),
		redoCmd(),
		getCmd(),
		sheetsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new [workbook.json]",
		Short: "Create a new workbook file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err == nil {
				return fmt.Errorf("file already exists: %s", args[0])
			}
			return saveWorkbook(args[0], models.NewWorkbook())
		},
	}
}

// opEnvelope is the wire form of one operation: a kind tag plus the
// kind-specific payload.
type opEnvelope struct {
	Kind    gridbook.Kind   `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

func applyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply [workbook.json] [operations.json]",
		Short: "Apply a batch of operations atomically",
		Long: `apply reads a JSON array of {kind, payload} operations and applies them
as one atomic batch. On any failure the workbook file is left untouched.
Pass "-" to read the operations from stdin.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := loadWorkbook(args[0])
			if err != nil {
				return err
			}
			ops, err := loadOperations(args[1])
			if err != nil {
				return err
			}

			opts := gridbook.ApplyOptions{User: user}
			if runRecompute {
				coord := recompute.NewCoordinator(recompute.NewExcelEngine(), nil)
				defer coord.Close()
				opts.Recompute = coord
			}

			res := gridbook.ApplyOperations(wb, ops, opts)
			if !res.Success {
				for _, e := range res.Errors {
					fmt.Fprintln(os.Stderr, "error:", e)
				}
				return fmt.Errorf("batch rejected, workbook unchanged")
			}
			for _, w := range res.Warnings {
				fmt.Fprintln(os.Stderr, "warning:", w)
			}
			if err := saveWorkbook(args[0], wb); err != nil {
				return err
			}
			fmt.Printf("applied %d operation(s), %d action(s) logged\n", len(ops), len(res.Actions))
			return nil
		},
	}
}

func undoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo [workbook.json]",
		Short: "Undo the most recent action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return stepHistory(args[0], gridbook.Undo, "undid")
		},
	}
}

func redoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redo [workbook.json]",
		Short: "Redo the most recently undone action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return stepHistory(args[0], gridbook.Redo, "redid")
		},
	}
}

func stepHistory(path string, step func(*models.Workbook, gridbook.ApplyOptions) (*gridbook.UndoResult, error), verb string) error {
	wb, err := loadWorkbook(path)
	if err != nil {
		return err
	}

	opts := gridbook.ApplyOptions{User: user}
	if runRecompute {
		coord := recompute.NewCoordinator(recompute.NewExcelEngine(), nil)
		defer coord.Close()
		opts.Recompute = coord
	}

	res, err := step(wb, opts)
	if err != nil {
		if gridbook.IsNothingToUndo(err) || gridbook.IsNothingToRedo(err) {
			fmt.Println(err)
			return nil
		}
		return err
	}
	for _, w := range res.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	if err := saveWorkbook(path, wb); err != nil {
		return err
	}
	fmt.Printf("%s %s\n", verb, res.Action.Kind)
	return nil
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [workbook.json] [sheet] [address]",
		Short: "Print one cell as JSON",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := loadWorkbook(args[0])
			if err != nil {
				return err
			}
			sheet := wb.SheetByName(args[1])
			if sheet == nil {
				return fmt.Errorf("sheet not found: %s", args[1])
			}
			cell := sheet.Cell(args[2])
			if cell == nil {
				fmt.Println("null")
				return nil
			}
			return printJSON(cell)
		},
	}
}

func sheetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets [workbook.json]",
		Short: "List the workbook's sheets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := loadWorkbook(args[0])
			if err != nil {
				return err
			}
			for _, s := range wb.Sheets {
				fmt.Printf("%s\t%s\t%d cells\n", s.ID, s.Name, len(s.Cells))
			}
			return nil
		},
	}
}

func loadWorkbook(path string) (*models.Workbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workbook: %w", err)
	}
	wb := &models.Workbook{}
	if err := json.Unmarshal(data, wb); err != nil {
		return nil, fmt.Errorf("parsing workbook: %w", err)
	}
	return wb, nil
}

func saveWorkbook(path string, wb *models.Workbook) error {
	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(wb, "", "  ")
	} else {
		data, err = json.Marshal(wb)
	}
	if err != nil {
		return fmt.Errorf("serializing workbook: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func loadOperations(path string) ([]gridbook.Operation, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading operations: %w", err)
	}

	var envelopes []opEnvelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return nil, fmt.Errorf("parsing operations: %w", err)
	}
	ops := make([]gridbook.Operation, 0, len(envelopes))
	for i, env := range envelopes {
		op, err := gridbook.DecodeOperation(env.Kind, env.Payload)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func printJSON(v any) error {
	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

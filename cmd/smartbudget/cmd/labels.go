package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"smartbudget/pkg/config"
	"smartbudget/pkg/db"
)

var splitExpenseIDs []int64

// labelsCmd represents the labels command group
var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Manage labels and their assignments",
	Long: `Inspect and curate labels without editing the database by hand.

Renames, merges, and splits keep every expense assignment consistent;
weight history stays attached to the surviving labels.

Example:
  smartbudget labels list
  smartbudget labels rename discretionary optional
  smartbudget labels merge essential groceries household
  smartbudget labels split essential commute --expense 101 --expense 102
  smartbudget labels apply`,
}

var labelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List labels",
	Run:   runLabelsList,
}

var labelsApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Assign labels to expenses from the label rules",
	Run:   runLabelsApply,
}

var labelsRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a label",
	Args:  cobra.ExactArgs(2),
	Run:   runLabelsRename,
}

var labelsMergeCmd = &cobra.Command{
	Use:   "merge <target> <source>...",
	Short: "Merge one or more labels into a target label",
	Args:  cobra.MinimumNArgs(2),
	Run:   runLabelsMerge,
}

var labelsSplitCmd = &cobra.Command{
	Use:   "split <source> <new>",
	Short: "Move selected expenses from one label to a new one",
	Args:  cobra.ExactArgs(2),
	Run:   runLabelsSplit,
}

func init() {
	labelsSplitCmd.Flags().Int64SliceVar(&splitExpenseIDs, "expense", nil, "Expense id to move (repeatable)")
	_ = labelsSplitCmd.MarkFlagRequired("expense")

	labelsCmd.AddCommand(labelsListCmd)
	labelsCmd.AddCommand(labelsApplyCmd)
	labelsCmd.AddCommand(labelsRenameCmd)
	labelsCmd.AddCommand(labelsMergeCmd)
	labelsCmd.AddCommand(labelsSplitCmd)
}

func runLabelsList(cmd *cobra.Command, args []string) {
	conn, labels := openLabels()
	defer conn.Close()

	list, err := labels.List()
	exitOnError(err, "failed to list labels")

	if len(list) == 0 {
		fmt.Println("No labels defined")
		return
	}
	for _, label := range list {
		fmt.Printf("%4d  %s\n", label.LabelID, label.Name)
	}
}

func runLabelsApply(cmd *cobra.Command, args []string) {
	conn, labels := openLabels()
	defer conn.Close()

	assigned, err := labels.ApplyRules()
	exitOnError(err, "failed to apply label rules")

	fmt.Printf("Assigned %d label(s) from label rules\n", assigned)
}

func runLabelsRename(cmd *cobra.Command, args []string) {
	conn, labels := openLabels()
	defer conn.Close()

	err := labels.Rename(args[0], args[1])
	exitOnError(err, "failed to rename label")

	fmt.Printf("Renamed label %q to %q\n", args[0], args[1])
}

func runLabelsMerge(cmd *cobra.Command, args []string) {
	conn, labels := openLabels()
	defer conn.Close()

	target, sources := args[0], args[1:]
	err := labels.Merge(target, sources)
	exitOnError(err, "failed to merge labels")

	fmt.Printf("Merged %d label(s) into %q\n", len(sources), target)
}

func runLabelsSplit(cmd *cobra.Command, args []string) {
	conn, labels := openLabels()
	defer conn.Close()

	moved, err := labels.Split(args[0], args[1], splitExpenseIDs)
	exitOnError(err, "failed to split label")

	fmt.Printf("Moved %d expense assignment(s) from %q to %q\n", moved, args[0], args[1])
}

// Helper functions

// openLabels loads configuration and opens the label repository.
func openLabels() (*db.Connection, *db.Labels) {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate([]string{"storage", "dataDir"}); err != nil {
		exitOnError(err, "invalid configuration")
	}

	pathResolver := newPathResolver(cfg)

	dbPath := pathResolver.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)
	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")

	return conn, db.NewLabels(conn)
}

package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sitegate/internal/flags"
	"sitegate/internal/matrix"
	"sitegate/internal/probe"
)

var checksListQuiet bool

var checksCmd = &cobra.Command{
	Use:   "checks",
	Short: "Inspect check kinds and the interaction matrix",
	Long: `Inspect the interaction matrix.

Examples:
  # List the checks of the built-in matrix
  sitegate checks list

  # Start a custom matrix from the built-in one
  sitegate checks default > matrix.yaml
  sitegate matrix --matrix-file matrix.yaml
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var checksKindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the check kinds a matrix definition can use",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		bold := color.New(color.Bold)
		w := cmd.OutOrStdout()
		for _, k := range probe.Kinds() {
			bold.Fprintf(w, "%s\n", k.Name)
			fmt.Fprintf(w, "  %s\n", k.Description)
		}
	},
}

var checksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the checks of the matrix in run order",
	Long: `List the checks of the matrix in run order: the built-in matrix, or
--matrix-file.

Output:
  A vertical list of checks:
    ----------------------------------------
    CHECK: {NAME}
    ----------------------------------------
    Kind:     {KIND}
    Category: {CATEGORY}
    Priority: {P0|P1}
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := currentMatrix()
		if err != nil {
			return err
		}
		for _, s := range def.Checks {
			if checksListQuiet {
				fmt.Fprintln(cmd.OutOrStdout(), s.Name)
			} else {
				printCheck(cmd.OutOrStdout(), s)
			}
		}
		return nil
	},
}

var checksShowCmd = &cobra.Command{
	Use:   "show [check-name]",
	Short: "Show the definition of one matrix check",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := currentMatrix()
		if err != nil {
			return err
		}
		for _, s := range def.Checks {
			if s.Name == args[0] {
				return matrix.Encode(cmd.OutOrStdout(), matrix.Definition{Checks: []probe.Spec{s}})
			}
		}
		return fmt.Errorf("check not found: %s", args[0])
	},
}

var checksDefaultCmd = &cobra.Command{
	Use:   "default",
	Short: "Print the built-in matrix as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return matrix.Encode(cmd.OutOrStdout(), matrix.Default())
	},
}

func currentMatrix() (matrix.Definition, error) {
	if cfg.Probe.MatrixFile == "" {
		return matrix.Default(), nil
	}
	return matrix.Load(cfg.Paths.Abs(cfg.Probe.MatrixFile))
}

func printCheck(w io.Writer, s probe.Spec) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "CHECK: %s\n", s.Name)
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintf(w, "Kind:     %s\n", s.Kind)
	if s.Category != "" {
		fmt.Fprintf(w, "Category: %s\n", s.Category)
	}
	prio := s.Priority
	if prio == "" {
		prio = "default"
	}
	fmt.Fprintf(w, "Priority: %s\n", prio)
	if s.Viewport != nil {
		fmt.Fprintf(w, "Viewport: %dx%d\n", s.Viewport.Width, s.Viewport.Height)
	}
	fmt.Fprintln(w)
}

func init() {
	rootCmd.AddCommand(checksCmd)
	checksCmd.AddCommand(checksKindsCmd, checksListCmd, checksShowCmd, checksDefaultCmd)
	checksListCmd.Flags().BoolVarP(&checksListQuiet, "quiet", "q", false, "Only print check names")
	for _, c := range []*cobra.Command{checksListCmd, checksShowCmd} {
		c.Flags().StringVar(&cfg.Probe.MatrixFile, flags.FlagMatrixFile, cfg.Probe.MatrixFile, "YAML matrix definition replacing the built-in matrix")
		c.Flags().StringVar(&cfg.Paths.ProjectRoot, flags.FlagProjectRoot, cfg.Paths.ProjectRoot, "Project root; relative paths are resolved against it")
	}
}

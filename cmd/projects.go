package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/parkops/workplan/app"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List stored projects",
	Args:  cobra.NoArgs,
	RunE:  runProjects,
}

var duplicateHistory bool

var duplicateCmd = &cobra.Command{
	Use:   "duplicate <name> <copy>",
	Short: "Copy a project under a new name",
	Args:  cobra.ExactArgs(2),
	RunE:  runDuplicate,
}

func init() {
	duplicateCmd.Flags().BoolVar(&duplicateHistory, "history", false, "carry the analysis history into the copy")
	rootCmd.AddCommand(projectsCmd, duplicateCmd)
}

func runProjects(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	names, err := svc.Store.List()
	if err != nil {
		return err
	}
	for _, name := range names {
		p, err := svc.Store.Load(name)
		if err != nil {
			return err
		}
		line := fmt.Sprintf("%-20s %3d activities, %d analyses", name, len(p.Activities()), len(p.History()))
		if latest := p.Latest(); latest != nil {
			line += fmt.Sprintf(", latest %s", latest.Verdict)
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}

func runDuplicate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	p, err := svc.Store.Load(args[0])
	if err != nil {
		return err
	}
	dup := p.Duplicate(args[1], duplicateHistory)
	if err := svc.Store.Save(dup); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "duplicated %s as %s\n", p.Name, dup.Name)
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

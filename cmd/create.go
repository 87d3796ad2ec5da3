package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parkops/workplan/app"
	"github.com/parkops/workplan/core/model"
	"github.com/parkops/workplan/core/project"
	"github.com/parkops/workplan/infra/loader"
)

var (
	workplanPath  string
	resourcesPath string
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project from a work-plan CSV and an optional resource YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreate,
}

func init() {
	createCmd.Flags().StringVarP(&workplanPath, "workplan", "w", "", "work-plan CSV file")
	createCmd.Flags().StringVarP(&resourcesPath, "resources", "r", "", "resource-set YAML file")
	_ = createCmd.MarkFlagRequired("workplan")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	activities, err := loader.LoadWorkplanCSV(workplanPath)
	if err != nil {
		return err
	}
	var rs model.ResourceSet
	if resourcesPath != "" {
		rs, err = loader.LoadResourcesYAML(resourcesPath)
	} else {
		rs, err = model.NewResourceSet(nil, 0, nil)
	}
	if err != nil {
		return err
	}

	p := project.New(args[0], activities, rs)
	if err := svc.Store.Save(p); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created project %s with %d activities\n", p.Name, len(activities))
	return nil
}

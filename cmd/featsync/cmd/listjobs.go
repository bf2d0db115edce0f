package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/featsync/internal/config"
)

var listjobsCmd = &cobra.Command{
	Use:   "list-jobs",
	Short: "List sync jobs defined in the configuration",
	RunE:  runListJobs,
}

func init() {
	rootCmd.AddCommand(listjobsCmd)
}

func runListJobs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	names := cfg.ListJobs()
	if len(names) == 0 {
		fmt.Fprintln(outputWriter, "No jobs defined.")
		return nil
	}
	sort.Strings(names)

	for _, name := range names {
		job := cfg.Jobs[name]
		fmt.Fprintf(outputWriter, "%s\n", name)
		fmt.Fprintf(outputWriter, "  source uid field: %s\n", job.SourceUIDField)
		fmt.Fprintf(outputWriter, "  target uid field: %s\n", job.TargetUIDField)
		if len(job.AttributeMap) > 0 {
			fmt.Fprintf(outputWriter, "  custom mappings:  %d\n", len(job.AttributeMap))
		}
	}
	return nil
}

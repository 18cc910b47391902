package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	jobsListLimit     int
	jobsListResumable bool
)

// jobsCmd represents the jobs command
var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect and manage transcription jobs",
	Long: `Inspect and manage persisted transcription jobs.

Jobs survive process restarts, so this command is useful after a crash
or interruption to see which jobs can be resumed.

Available subcommands:
  list    - List jobs in the store
  resume  - Resume an interrupted job
  delete  - Delete a job and its segments`,
}

// jobsListCmd lists stored jobs
var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List transcription jobs",
	RunE:  runJobsList,
}

// jobsResumeCmd resumes an interrupted job
var jobsResumeCmd = &cobra.Command{
	Use:   "resume <job-id>",
	Short: "Resume an interrupted job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsResume,
}

// jobsDeleteCmd deletes a job
var jobsDeleteCmd = &cobra.Command{
	Use:   "delete <job-id>",
	Short: "Delete a job and its segments",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsDelete,
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsResumeCmd)
	jobsCmd.AddCommand(jobsDeleteCmd)

	jobsListCmd.Flags().IntVar(&jobsListLimit, "limit", 50, "maximum number of jobs to show")
	jobsListCmd.Flags().BoolVar(&jobsListResumable, "resumable", false, "only show jobs that can be resumed")
}

func runJobsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	services, err := buildStack(cfg)
	if err != nil {
		return err
	}
	defer services.db.Close()

	jobs, err := services.store.ListJobs(cmd.Context(), jobsListLimit)
	if jobsListResumable {
		jobs, err = services.store.ListResumable(cmd.Context())
	}
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No jobs found")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-60s %-12s %-12s %s\n", "ID", "STATUS", "STEP", "UPDATED")
	for _, job := range jobs {
		fmt.Fprintf(out, "%-60s %-12s %-12s %s\n",
			job.ID, job.Status, job.Step, job.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runJobsResume(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	services, err := buildStack(cfg)
	if err != nil {
		return err
	}
	defer services.db.Close()

	job, err := services.pipeline.Resume(cmd.Context(), args[0], func(message string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", message)
	})
	if err != nil {
		return fmt.Errorf("resume failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Job %s is %s\n", job.ID, job.Status)
	return nil
}

func runJobsDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	services, err := buildStack(cfg)
	if err != nil {
		return err
	}
	defer services.db.Close()

	if err := services.store.DeleteJob(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted job %s\n", args[0])
	return nil
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mplads/internal/domain"
	"mplads/internal/jobs"
)

var shapeFlag string

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Recompute the denormalized summary store",
	Long: `rebuild recomputes summaries for the selected house/term scope and
replaces the stored rows in a single transaction. The run is tracked as a
persistent job so an interrupted rebuild is visible and recoverable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		runner := newRunner(eng)
		runner.Start()
		defer runner.Stop(5 * time.Second)

		job, err := jobs.NewJob(jobs.JobTypeRebuildSummaries, jobs.RebuildParams{
			House:         houseFlag,
			TermSelection: termFlag,
			Shape:         shapeFlag,
		})
		if err != nil {
			return err
		}
		if err := runner.Submit(job); err != nil {
			return err
		}

		final, err := waitForJob(eng.jobStore(), job.ID)
		if err != nil {
			return err
		}
		if final.Status != jobs.JobCompleted {
			return fmt.Errorf("rebuild %s: %s", final.Status, final.Error)
		}
		fmt.Printf("rebuild completed: %s\n", final.Result)
		return nil
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List recent background jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		list, err := eng.jobStore().ListJobs(20)
		if err != nil {
			return err
		}
		for _, j := range list {
			fmt.Printf("%s  %-20s %-10s %3d%%  %s\n",
				j.ID, j.Type, j.Status, j.Progress, j.CreatedAt.Format(time.RFC3339))
		}
		return nil
	},
}

// newRunner wires the job handlers against the engine's facade and cache.
func newRunner(eng *engine) *jobs.Runner {
	runner := jobs.NewRunner(eng.jobStore(), eng.logger, jobs.RunnerConfig{
		QueueSize:        eng.cfg.Jobs.QueueSize,
		WorkerCount:      eng.cfg.Jobs.WorkerCount,
		RecoveryInterval: time.Duration(eng.cfg.Jobs.RecoveryIntervalSeconds) * time.Second,
	})

	runner.RegisterHandler(jobs.JobTypeRebuildSummaries,
		func(ctx context.Context, job *jobs.Job, progress func(int)) (interface{}, error) {
			var params jobs.RebuildParams
			if err := job.DecodeParams(&params); err != nil {
				return nil, err
			}
			sc := eng.facade.ResolveScope(params.House, params.TermSelection)

			progress(10)
			var (
				rows int
				err  error
			)
			if params.Shape == "" {
				rows, err = eng.facade.RebuildAll(sc)
			} else {
				rows, err = eng.facade.RebuildScope(sc, domain.SummaryScope(params.Shape))
			}
			if err != nil {
				return nil, err
			}
			progress(100)
			return map[string]interface{}{"rows": rows}, nil
		})

	runner.RegisterHandler(jobs.JobTypeCacheCleanup,
		func(ctx context.Context, job *jobs.Job, progress func(int)) (interface{}, error) {
			removed := eng.cache.RemoveExpired()
			progress(100)
			return map[string]interface{}{"removed": removed}, nil
		})

	return runner
}

func waitForJob(store *jobs.Store, id string) (*jobs.Job, error) {
	for {
		job, err := store.GetJob(id)
		if err != nil {
			return nil, err
		}
		switch job.Status {
		case jobs.JobCompleted, jobs.JobFailed, jobs.JobCancelled:
			return job, nil
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func init() {
	rebuildCmd.Flags().StringVar(&shapeFlag, "shape", "",
		"Limit the rebuild to one shape: mp, state, constituency, or overall")
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(jobsCmd)
}

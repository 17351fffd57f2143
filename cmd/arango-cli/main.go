package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kelsos/arango-go/arango"
	"github.com/kelsos/arango-go/internal/config"
	"github.com/kelsos/arango-go/internal/logger"
	"github.com/kelsos/arango-go/internal/storage"
	"github.com/kelsos/arango-go/internal/tui"
	"github.com/kelsos/arango-go/internal/utils"
)

func connect(cfg *config.Config) (*arango.Database, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	conn := arango.NewConnection(arango.Config{
		Protocol: cfg.Protocol,
		Host:     cfg.Host,
		Port:     cfg.Port,
		Database: cfg.Database,
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  cfg.Timeout,
	})
	return arango.NewDatabase(conn), nil
}

func main() {
	utils.LoadEnvironment()
	logger.Init()

	cfg := config.NewConfig()
	cfg.LoadFromEnvironment()

	rootCmd := &cobra.Command{
		Use:   "arango-cli",
		Short: "A CLI tool for working with an ArangoDB server",
		Long:  `arango-cli runs queries and document operations against an ArangoDB server, synchronously or through the server's async job queue.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfg.Protocol, "protocol", cfg.Protocol, "Transfer protocol (http or https)")
	rootCmd.PersistentFlags().StringVar(&cfg.Host, "host", cfg.Host, "Server host")
	rootCmd.PersistentFlags().IntVarP(&cfg.Port, "port", "p", cfg.Port, "Server port")
	rootCmd.PersistentFlags().StringVarP(&cfg.Database, "database", "d", cfg.Database, "Target database")
	rootCmd.PersistentFlags().StringVarP(&cfg.Username, "username", "u", cfg.Username, "Username")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Run: func(cmd *cobra.Command, args []string) {
			db, err := connect(cfg)
			if err != nil {
				logger.Fatal("Invalid configuration: %v", err)
			}
			version, _, err := db.Version(cmd.Context())
			if err != nil {
				logger.Fatal("Failed to get server version: %v", err)
			}
			fmt.Printf("%s %s (%s)\n", version.Server, version.Version, version.License)
		},
	}

	var (
		queryAsync bool
		queryCount bool
		batchSize  int
	)
	queryCmd := &cobra.Command{
		Use:   "query <aql>",
		Short: "Run an AQL query",
		Long:  `Run an AQL query and stream its results. With --async the query is handed to the server's job queue and the job id is recorded for later retrieval.`,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			db, err := connect(cfg)
			if err != nil {
				logger.Fatal("Invalid configuration: %v", err)
			}
			opts := &arango.QueryOptions{Count: queryCount, BatchSize: batchSize}

			if queryAsync {
				_, job, err := db.Async(true).Query().Execute(cmd.Context(), args[0], opts)
				if err != nil {
					logger.Fatal("Failed to submit query: %v", err)
				}
				asyncJob := job.(*arango.AsyncJob)
				if err := storage.SaveJob(asyncJob.ID(), args[0]); err != nil {
					logger.Warn("Failed to record job id: %v", err)
				}
				fmt.Printf("job %s\n", asyncJob.ID())
				return
			}

			cursor, _, err := db.Query().Execute(cmd.Context(), args[0], opts)
			if err != nil {
				logger.Fatal("Query failed: %v", err)
			}
			defer cursor.Close(cmd.Context())

			if count, ok := cursor.Count(); ok {
				logger.Info("Query matched %d documents", count)
			}
			if err := streamRows(cmd.Context(), cursor, os.Stdout); err != nil {
				logger.Fatal("Failed to read query results: %v", err)
			}
		},
	}
	queryCmd.Flags().BoolVar(&queryAsync, "async", false, "Queue the query on the server and return a job id")
	queryCmd.Flags().BoolVar(&queryCount, "count", false, "Request the total result count")
	queryCmd.Flags().IntVar(&batchSize, "batch-size", 0, "Maximum number of rows per server round trip")

	var seedCount int
	seedCmd := &cobra.Command{
		Use:   "seed <collection>",
		Short: "Insert generated documents through a single batch call",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			db, err := connect(cfg)
			if err != nil {
				logger.Fatal("Invalid configuration: %v", err)
			}
			if !db.Connection().WaitForReady(cmd.Context(), cfg.APIReadyTimeout, time.Second) {
				logger.Fatal("Server at %s did not become ready", cfg.BaseURL())
			}
			if err := seedCollection(cmd.Context(), db, args[0], seedCount); err != nil {
				logger.Fatal("Failed to seed collection: %v", err)
			}
		},
	}
	seedCmd.Flags().IntVarP(&seedCount, "count", "n", 10, "Number of documents to insert")

	var dumpOutput string
	dumpCmd := &cobra.Command{
		Use:   "dump <collection>",
		Short: "Export a collection's documents to a JSON lines file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			db, err := connect(cfg)
			if err != nil {
				logger.Fatal("Invalid configuration: %v", err)
			}
			output := dumpOutput
			if output == "" {
				output = fmt.Sprintf("%s_%s.jsonl", args[0], time.Now().Format("2006-01-02_15-04-05"))
			}
			n, err := dumpCollection(cmd.Context(), db, args[0], output)
			if err != nil {
				logger.Fatal("Failed to dump collection: %v", err)
			}
			logger.Info("Exported %d documents to %s", n, output)
		},
	}
	dumpCmd.Flags().StringVarP(&dumpOutput, "output", "o", "", "Output file (default: <collection>_<timestamp>.jsonl)")

	jobCmd := &cobra.Command{
		Use:   "job <status|result|cancel|delete> <id>",
		Short: "Inspect or manage a server-side async job",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			db, err := connect(cfg)
			if err != nil {
				logger.Fatal("Invalid configuration: %v", err)
			}
			if err := runJobAction(cmd.Context(), db, args[0], args[1]); err != nil {
				logger.Fatal("Job %s: %v", args[1], err)
			}
		},
	}

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Watch recorded async jobs until they finish",
		Run: func(cmd *cobra.Command, args []string) {
			db, err := connect(cfg)
			if err != nil {
				logger.Fatal("Invalid configuration: %v", err)
			}
			if err := runMonitor(cmd.Context(), db); err != nil {
				logger.Fatal("Monitor failed: %v", err)
			}
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(monitorCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Fatal("Failed to execute command: %v", err)
	}
}

// streamRows prints every remaining cursor row as one JSON line.
func streamRows(ctx context.Context, cursor *arango.Cursor, out *os.File) error {
	for {
		row, err := cursor.Next(ctx)
		if err == arango.ErrNoMoreDocuments {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, string(row)); err != nil {
			return err
		}
	}
}

// seedCollection queues count inserts with generated keys and commits them
// as one batch, reporting per-document failures without aborting the rest.
func seedCollection(ctx context.Context, db *arango.Database, name string, count int) error {
	if _, _, err := db.CreateCollection(ctx, name, nil); err != nil && !isDuplicateName(err) {
		return err
	}

	batch := db.Batch(true)
	col := batch.Collection(name)

	jobs := make([]arango.Job, 0, count)
	for i := 0; i < count; i++ {
		doc := map[string]any{
			"_key":     uuid.NewString(),
			"sequence": i,
			"seededAt": time.Now().Unix(),
		}
		_, job, err := col.Insert(ctx, doc, nil)
		if err != nil {
			return err
		}
		jobs = append(jobs, job)
	}

	logger.Info("Committing %d inserts in one batch", batch.Queued())
	if err := batch.Commit(ctx); err != nil {
		return err
	}

	inserted := 0
	for i, job := range jobs {
		meta, err := arango.JobResult[arango.DocumentMeta](ctx, job)
		if err != nil {
			logger.Error("Insert %d failed: %v", i, err)
			continue
		}
		logger.Debug("Inserted %s", meta.ID)
		inserted++
	}
	logger.Info("Inserted %d/%d documents into %s", inserted, count, name)
	return nil
}

// dumpCollection streams every document of the collection into a JSON
// lines file and returns the number of rows written.
func dumpCollection(ctx context.Context, db *arango.Database, name, output string) (int, error) {
	cursor, _, err := db.Collection(name).All(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	file, err := os.Create(output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	written := 0
	for {
		row, err := cursor.Next(ctx)
		if err == arango.ErrNoMoreDocuments {
			return written, nil
		}
		if err != nil {
			return written, err
		}
		if _, err := fmt.Fprintln(file, string(row)); err != nil {
			return written, err
		}
		written++
	}
}

func runJobAction(ctx context.Context, db *arango.Database, action, id string) error {
	job := db.AsyncJob(id)

	switch action {
	case "status":
		status, err := job.Status(ctx)
		if err != nil {
			return err
		}
		fmt.Println(status)
	case "result":
		result, err := job.Result(ctx)
		if err != nil {
			return err
		}
		var pretty json.RawMessage = result
		if indented, err := json.MarshalIndent(pretty, "", "  "); err == nil {
			pretty = indented
		}
		fmt.Println(string(pretty))
		if err := storage.RemoveJob(id); err != nil {
			logger.Warn("Failed to drop job record: %v", err)
		}
	case "cancel":
		cancelled, err := job.Cancel(ctx, true)
		if err != nil {
			return err
		}
		if !cancelled {
			logger.Warn("Job %s was already gone", id)
		}
	case "delete":
		deleted, err := job.Delete(ctx, true)
		if err != nil {
			return err
		}
		if !deleted {
			logger.Warn("Job %s was already gone", id)
		}
		if err := storage.RemoveJob(id); err != nil {
			logger.Warn("Failed to drop job record: %v", err)
		}
	default:
		return fmt.Errorf("unknown job action %q", action)
	}
	return nil
}

// runMonitor shows the TUI and polls every recorded job once a second
// until it leaves the pending state.
func runMonitor(ctx context.Context, db *arango.Database) error {
	if err := logger.InitFileOnly(); err != nil {
		return err
	}
	defer logger.Close()

	jobs, err := storage.LoadJobs()
	if err != nil {
		return err
	}

	program := tea.NewProgram(tui.NewModel(), tea.WithAltScreen())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		program.Send(tui.JobsLoaded{Jobs: jobs})

		pending := make(map[string]bool, len(jobs))
		for _, job := range jobs {
			pending[job.ID] = true
		}

		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for len(pending) > 0 {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			for id := range pending {
				status, err := db.AsyncJob(id).Status(ctx)
				if err != nil {
					logger.Error("Failed to poll job %s: %v", id, err)
					program.Send(tui.StatusUpdate{ID: id, Status: arango.JobError, Err: err})
					delete(pending, id)
					continue
				}
				program.Send(tui.StatusUpdate{ID: id, Status: status})
				if status != arango.JobPending {
					program.Send(tui.LogMessage{Message: fmt.Sprintf("Job %s is %s", id, status)})
					delete(pending, id)
				}
			}
		}
		program.Send(tui.LogMessage{Message: "All jobs finished"})
	}()

	_, err = program.Run()
	return err
}

// isDuplicateName reports a "duplicate name" error from collection creation.
func isDuplicateName(err error) bool {
	var serverErr *arango.ServerError
	return errors.As(err, &serverErr) && serverErr.ErrorNum == 1207
}

package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"vodconverter/internal/ledger"
)

var titleCaser = cases.Title(language.English)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Show recent conversion jobs from the local ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg.LedgerPath())
			if err != nil {
				return fmt.Errorf("open job ledger: %w", err)
			}
			defer store.Close()

			jobs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(jobViews(jobs))
			}
			if len(jobs) == 0 {
				fmt.Fprintln(out, "No jobs recorded")
				return nil
			}
			fmt.Fprintln(out, renderJobs(jobs))

			counts, err := store.Counts(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Totals: %d completed, %d failed, %d running\n",
				counts[ledger.OutcomeCompleted], counts[ledger.OutcomeFailed], counts[ledger.OutcomeRunning])
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of jobs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print jobs as JSON")
	cmd.AddCommand(newJobShowCommand(ctx))
	return cmd
}

func newJobShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one ledger entry in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id %q", args[0])
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg.LedgerPath())
			if err != nil {
				return fmt.Errorf("open job ledger: %w", err)
			}
			defer store.Close()

			job, err := store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if job == nil {
				return fmt.Errorf("job %d not found", id)
			}
			out := cmd.OutOrStdout()
			fields := [][2]string{
				{"Upload", dash(job.JobID)},
				{"Episode", strconv.FormatInt(job.AssetID, 10)},
				{"Message", dash(job.MessageID)},
				{"Source", dash(job.SourceKey)},
				{"State", titleCaser.String(job.State)},
				{"Outcome", titleCaser.String(string(job.Outcome))},
				{"Path token", dash(job.PathToken)},
				{"Qualities", dash(strings.Join(job.Qualities, ", "))},
				{"Started", job.StartedAt.Format(time.RFC3339)},
				{"Duration", job.Duration().Round(time.Second).String()},
			}
			if job.ErrorKind != "" || job.ErrorMessage != "" {
				fields = append(fields,
					[2]string{"Error kind", dash(job.ErrorKind)},
					[2]string{"Error", dash(job.ErrorMessage)},
				)
			}
			for _, f := range fields {
				fmt.Fprintf(out, "%-11s %s\n", f[0]+":", f[1])
			}
			return nil
		},
	}
}

func renderJobs(jobs []ledger.Job) string {
	headers := []string{"ID", "Upload", "Episode", "State", "Outcome", "Qualities", "Duration", "Error"}
	aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			strconv.FormatInt(job.ID, 10),
			dash(job.JobID),
			strconv.FormatInt(job.AssetID, 10),
			titleCaser.String(job.State),
			titleCaser.String(string(job.Outcome)),
			dash(strings.Join(job.Qualities, ", ")),
			job.Duration().Round(time.Second).String(),
			dash(job.ErrorKind),
		})
	}
	return renderTable(headers, rows, aligns)
}

type jobView struct {
	ID           int64      `json:"id"`
	MessageID    string     `json:"messageId,omitempty"`
	UploadID     string     `json:"uploadProcessId,omitempty"`
	EpisodeID    int64      `json:"episodeId"`
	SourceKey    string     `json:"sourceKey,omitempty"`
	State        string     `json:"state"`
	Outcome      string     `json:"outcome"`
	PathToken    string     `json:"filePath,omitempty"`
	Qualities    []string   `json:"qualities,omitempty"`
	ErrorKind    string     `json:"errorKind,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	StartedAt    time.Time  `json:"startedAt"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
}

func jobViews(jobs []ledger.Job) []jobView {
	views := make([]jobView, 0, len(jobs))
	for _, job := range jobs {
		view := jobView{
			ID:           job.ID,
			MessageID:    job.MessageID,
			UploadID:     job.JobID,
			EpisodeID:    job.AssetID,
			SourceKey:    job.SourceKey,
			State:        job.State,
			Outcome:      string(job.Outcome),
			PathToken:    job.PathToken,
			Qualities:    job.Qualities,
			ErrorKind:    job.ErrorKind,
			ErrorMessage: job.ErrorMessage,
			StartedAt:    job.StartedAt,
		}
		if !job.FinishedAt.IsZero() {
			finished := job.FinishedAt
			view.FinishedAt = &finished
		}
		views = append(views, view)
	}
	return views
}

func dash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

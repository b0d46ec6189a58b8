package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/spk-docs/doctracker/internal/document/state"
	"github.com/spk-docs/doctracker/internal/export"
	"github.com/spk-docs/doctracker/internal/storage"
)

func listCmd(g *globalFlags) *cobra.Command {
	var (
		q      state.Query
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			ctrl, cleanup, err := openController(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			view, err := ctrl.View(q)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}
			return printView(cmd.OutOrStdout(), view)
		},
	}
	cmd.Flags().StringVarP(&q.Search, "query", "q", "", "Search objective, proposer and group")
	cmd.Flags().StringVar(&q.Group, "group", "", "Only this department group")
	cmd.Flags().IntVar(&q.Month, "month", 0, "Only this submission month (1-12)")
	cmd.Flags().StringVar(&q.Expr, "expr", "", `Filter expression, e.g. 'year == 2025 && statusDept3 == "ยังไม่เริ่ม"'`)
	cmd.Flags().IntVar(&q.Page, "page", 1, "Page number")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the view as JSON")
	return cmd
}

func printView(w io.Writer, v state.View) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOC NUMBER\tDATE\tPROPOSER\tGROUP\tDIRECTOR\tOBJECTIVE")
	for _, d := range v.Documents {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			d.DocNumber, d.SubmissionDate, d.Proposer, d.DepartmentGroup, d.DirectorStatus, d.Objective)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "page %d/%d, %d documents\n", v.Page, v.TotalPages, v.Total)
	return err
}

func exportCmd(g *globalFlags) *cobra.Command {
	var (
		output  string
		publish bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all documents as CSV, or publish a snapshot to object storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			ctrl, cleanup, err := openController(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			labels := export.Labels{DirectorName: cfg.Documents.DirectorName, Departments: cfg.Documents.Departments}
			if publish {
				mc := storage.ConfigFrom(cfg.Storage)
				if mc == nil {
					return fmt.Errorf("--publish requires MINIO_ENDPOINT")
				}
				store, err := storage.NewMinIOStorage(ctx, mc)
				if err != nil {
					return err
				}
				snap, err := export.NewExporter(store, labels, mc.URLExpiry).Publish(ctx, ctrl.Documents())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n(expires %s)\n", snap.Key, snap.URL, snap.ExpiresAt.Format(time.RFC3339))
				return nil
			}

			out := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return export.WriteCSV(out, ctrl.Documents(), labels)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "CSV file to write (- for stdout)")
	cmd.Flags().BoolVar(&publish, "publish", false, "Upload to MinIO and print a presigned URL")
	return cmd
}

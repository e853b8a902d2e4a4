package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-studio/internal/draft"
	"github.com/jonathan/resume-studio/internal/export"
	"github.com/jonathan/resume-studio/internal/observability"
	"github.com/jonathan/resume-studio/internal/paging"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a draft file to a paginated PDF",
	Long:  "Renders a draft JSON file, captures it in headless Chrome and writes the paginated PDF. Optionally saves a thumbnail first.",
	RunE:  runExport,
}

var (
	exportInput     string
	exportOutDir    string
	exportThumbnail bool
	exportVerify    bool
)

func init() {
	exportCmd.Flags().StringVarP(&exportInput, "in", "i", "", "Path to draft JSON file (required)")
	exportCmd.Flags().StringVarP(&exportOutDir, "out", "o", "", "Output directory (default from config)")
	exportCmd.Flags().BoolVar(&exportThumbnail, "thumbnail", false, "Also capture a thumbnail and write the saved draft")
	exportCmd.Flags().BoolVar(&exportVerify, "verify", false, "Read the written PDF back and check its page count")
	_ = exportCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(exportCmd)
}

func runExport(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if exportOutDir != "" {
		cfg.OutputDir = exportOutDir
	}
	log := observability.Init(cfg.Log)
	printer := observability.NewPrinter(os.Stdout)

	d, err := readDraftFile(exportInput)
	if err != nil {
		return err
	}
	printer.PrintDraftSummary(&d, draft.Completion(d))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng, err := newEngine(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer eng.Close() //nolint:errcheck

	ec := exportConfig(cfg)
	ec.OnProgress = func(ev export.ProgressEvent) {
		log.Info().Str("flow", ev.Flow).Str("step", ev.Step).Msg(ev.Message)
	}
	store := newFileStore(exportInput, cfg.OutputDir, d)
	coord := export.New(store, eng.capturer, ec, log)
	defer coord.Close()

	var summary observability.ExportSummary
	if exportThumbnail {
		payload, err := coord.SaveThumbnail(ctx, store.id, d)
		if err != nil {
			return fmt.Errorf("failed to save thumbnail: %w", err)
		}
		d = payload.Draft
		summary.Thumbnail = payload.ThumbnailLink
	}

	doc, err := coord.Export(ctx, d)
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}
	path, err := doc.Save(cfg.OutputDir)
	if err != nil {
		return err
	}
	summary.Path = path
	summary.Pages = doc.Pages
	summary.Bytes = len(doc.Bytes())

	if exportVerify {
		n, err := paging.CountPDFPages(path)
		if err != nil {
			return fmt.Errorf("failed to verify %s: %w", path, err)
		}
		summary.VerifiedPages = n
		if n != doc.Pages {
			printer.PrintExport(summary)
			return fmt.Errorf("page count mismatch: assembled %d, read back %d", doc.Pages, n)
		}
	}

	printer.PrintExport(summary)
	return nil
}

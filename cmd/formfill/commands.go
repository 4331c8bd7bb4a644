package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/formfill-api/cmd/api"
	"github.com/FACorreiaa/formfill-api/internal/domain/formfill"
	"github.com/FACorreiaa/formfill-api/internal/domain/formfill/excel"
	"github.com/FACorreiaa/formfill-api/internal/domain/formfill/pdf"
	"github.com/FACorreiaa/formfill-api/internal/domain/formfill/service"
)

var fillOutput string

// fillCmd fills the template from a local spreadsheet
var fillCmd = &cobra.Command{
	Use:   "fill <spreadsheet>",
	Short: "Fill the template from a local spreadsheet",
	Long: `Read the first data row of an .xlsx workbook and write the filled
template to the --output path. The holding areas are not used.`,
	Args: cobra.ExactArgs(1),
	RunE: runFill,
}

// purgeCmd sweeps the holding areas once
var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete stored uploads and expired generated documents",
	RunE:  runPurge,
}

func init() {
	fillCmd.Flags().StringVarP(&fillOutput, "output", "o", "filled.pdf", "path of the filled PDF")
}

func runFill(cmd *cobra.Command, args []string) (err error) {
	source := args[0]
	if !formfill.IsSpreadsheet(source) {
		return fmt.Errorf("%s: %w", source, formfill.ErrInvalidInput)
	}

	filler := pdf.NewFiller(cfg.Storage.TemplatePath)
	if !filler.TemplateAvailable() {
		return fmt.Errorf("%s: %w", cfg.Storage.TemplatePath, pdf.ErrTemplateNotFound)
	}

	record, err := excel.ReadFirstRecord(source)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", source, err)
	}

	out, err := os.Create(fillOutput)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(fillOutput)
		}
	}()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	if err := filler.Fill(ctx, record.Values(), out); err != nil {
		return fmt.Errorf("failed to fill PDF: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", fillOutput)
	return nil
}

func runPurge(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	deps, err := api.InitDependencies(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	result, err := deps.FormFillService.Purge(ctx, service.TriggerCLI)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d files (%d uploads, %d outputs)\n",
		result.FilesDeleted, result.UploadsDeleted, result.OutputsDeleted)
	for _, e := range result.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "failed: %v\n", e)
	}
	return nil
}

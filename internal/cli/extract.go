package cli

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/export"
	"github.com/joseph-ayodele/docextract/internal/pipeline"
	"github.com/joseph-ayodele/docextract/internal/server"
)

var (
	extractFields     string
	extractAutoDetect bool
	extractDocType    string
	extractFormat     string
	extractOut        string
	extractSummary    bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract fields from a PDF or image",
	Long: `Runs the full pipeline on one file and writes the result as JSON
(stdout or --out) or as an XLSX workbook (--format xlsx --out path).`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractFields, "fields", "", "comma-separated field names (default: per document type)")
	extractCmd.Flags().BoolVar(&extractAutoDetect, "auto-detect", true, "classify the document type with the LLM")
	extractCmd.Flags().StringVar(&extractDocType, "doc-type", "", "document type when --auto-detect=false")
	extractCmd.Flags().StringVar(&extractFormat, "format", "json", "output format: json or xlsx")
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "", "output file (default stdout, json only)")
	extractCmd.Flags().BoolVar(&extractSummary, "summary", false, "print a human-readable summary to stderr")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(extractFormat)
	switch format {
	case "json":
	case "xlsx":
		if extractOut == "" {
			return common.Kind(common.ErrInvalidInput, "INVALID_REQUEST", "--format xlsx requires --out", nil)
		}
	default:
		return common.Kind(common.ErrInvalidInput, "INVALID_REQUEST", fmt.Sprintf("unknown --format %q", extractFormat), nil)
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		return err
	}
	logger := common.NewLogger(cfg.Log, cmd.ErrOrStderr())

	ctx := cmd.Context()
	proc, closeFn, err := newProcessor(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeFn(); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}()

	result, err := proc.ProcessDocument(ctx, pipeline.Request{
		Path:       args[0],
		Fields:     server.SplitFields(extractFields),
		AutoDetect: extractAutoDetect,
		DocType:    extractDocType,
	})
	if err != nil {
		return err
	}

	if err := writeResult(cmd, format, result, logger); err != nil {
		return err
	}
	if extractSummary {
		printSummary(cmd.ErrOrStderr(), result)
	}
	return nil
}

func writeResult(cmd *cobra.Command, format string, result *entity.ExtractionResult, logger *slog.Logger) error {
	var data []byte
	switch format {
	case "xlsx":
		b, err := export.XLSX(result, logger)
		if err != nil {
			return err
		}
		data = b
	default:
		var buf bytes.Buffer
		if err := export.JSON(&buf, result); err != nil {
			return err
		}
		data = buf.Bytes()
	}

	if extractOut == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(extractOut, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", extractOut, err)
	}
	logger.Info("extract.written", "path", extractOut, "format", format, "bytes", len(data))
	return nil
}

func printSummary(w io.Writer, result *entity.ExtractionResult) {
	fmt.Fprintf(w, "Document type: %s\n", result.DocType)
	fmt.Fprintf(w, "Overall confidence: %s\n", export.FormatConfidence(result.OverallConfidence))
	fmt.Fprintln(w)
	for _, f := range result.Fields {
		value := f.Value
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(w, "  %-24s %-40s %7s  p%d\n", f.Name, value, export.FormatConfidence(f.Confidence), f.Source.Page)
	}
	if len(result.QA.FailedRules) > 0 {
		fmt.Fprintf(w, "\nFailed checks: %s\n", strings.Join(result.QA.FailedRules, ", "))
	}
	if result.QA.Notes != "" {
		fmt.Fprintf(w, "Notes: %s\n", result.QA.Notes)
	}
}

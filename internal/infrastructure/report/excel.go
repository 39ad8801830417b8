// Package report writes scrape results as a styled Excel workbook.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/storescan/zepto-scraper/internal/domain"
)

// Sheet names and layout constants
const (
	SummarySheet     = "Summary"
	AllProductsSheet = "All Products"

	maxSheetNameLen = 31
	maxColumnWidth  = 55
	headerHeight    = 28
	rowHeight       = 16
	freezeCell      = "C2"

	timestampLayout = "20060102_1504"
)

// sheetNameReplacer strips characters Excel rejects in sheet names
var sheetNameReplacer = strings.NewReplacer(
	":", "_", `\`, "_", "/", "_", "?", "_", "*", "_", "[", "(", "]", ")",
)

// ExcelWriter writes a report to a timestamped .xlsx file
type ExcelWriter struct {
	outputDir  string
	filePrefix string
	logger     *zap.Logger
}

// NewExcelWriter creates a new report writer
func NewExcelWriter(outputDir, filePrefix string, logger *zap.Logger) *ExcelWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExcelWriter{
		outputDir:  outputDir,
		filePrefix: filePrefix,
		logger:     logger.Named("report"),
	}
}

// Write saves the report and returns the file path.
// It returns domain.ErrNoProducts when the report has no rows.
func (w *ExcelWriter) Write(ctx context.Context, report *domain.Report) (string, error) {
	if report.Len() == 0 {
		return "", domain.ErrNoProducts
	}

	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", w.outputDir, err)
	}

	generatedAt := report.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}
	path := filepath.Join(w.outputDir, fmt.Sprintf("%s_%s.xlsx", w.filePrefix, generatedAt.Format(timestampLayout)))

	f := excelize.NewFile()
	defer f.Close()

	if err := w.build(f, report); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook %s: %w", path, err)
	}

	w.logger.Info("report saved",
		zap.String("file", path),
		zap.Int("rows", report.Len()),
		zap.Int("stores", len(Summarize(report))))
	return path, nil
}

func (w *ExcelWriter) build(f *excelize.File, report *domain.Report) error {
	styles, err := newSheetStyles(f)
	if err != nil {
		return err
	}

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	summaries := Summarize(report)
	summaryRows := make([][]any, len(summaries))
	for i, s := range summaries {
		summaryRows[i] = s.row()
	}
	if err := writeTable(f, styles, SummarySheet, summaryHeaders, summaryRows); err != nil {
		return err
	}
	hideGrid := false
	if err := f.SetSheetView(SummarySheet, 0, &excelize.ViewOptions{ShowGridLines: &hideGrid}); err != nil {
		return fmt.Errorf("failed to hide summary gridlines: %w", err)
	}

	if err := addTable(f, styles, AllProductsSheet, Headers(), recordRows(report.Records(), 0)); err != nil {
		return err
	}

	names := newSheetNamer(SummarySheet, AllProductsSheet)
	for _, store := range report.Stores {
		if len(store.Records) == 0 {
			continue
		}
		// per-store sheets omit the Store Name column
		sheet := names.next(store.Store.Name)
		if err := addTable(f, styles, sheet, Headers()[1:], recordRows(store.Records, 1)); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	return nil
}

// recordRows renders records starting at column index from
func recordRows(records []domain.ProductRecord, from int) [][]any {
	rows := make([][]any, len(records))
	for i := range records {
		row := make([]any, 0, len(productColumns)-from)
		for _, c := range productColumns[from:] {
			row = append(row, c.value(&records[i]))
		}
		rows[i] = row
	}
	return rows
}

// sheetStyles holds the style ids shared by every sheet
type sheetStyles struct {
	header int
	even   int
	odd    int
}

func newSheetStyles(f *excelize.File) (*sheetStyles, error) {
	border := []excelize.Border{
		{Type: "bottom", Color: "DDDDDD", Style: 1},
		{Type: "right", Color: "DDDDDD", Style: 1},
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: "Arial", Bold: true, Color: "FFFFFF", Size: 10},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1A1A2E"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    border,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	cell := func(fill string) (int, error) {
		return f.NewStyle(&excelize.Style{
			Font:      &excelize.Font{Family: "Arial", Size: 9},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fill}},
			Alignment: &excelize.Alignment{Vertical: "center"},
			Border:    border,
		})
	}
	even, err := cell("F5F5F5")
	if err != nil {
		return nil, fmt.Errorf("failed to create row style: %w", err)
	}
	odd, err := cell("FFFFFF")
	if err != nil {
		return nil, fmt.Errorf("failed to create row style: %w", err)
	}

	return &sheetStyles{header: header, even: even, odd: odd}, nil
}

func addTable(f *excelize.File, styles *sheetStyles, sheet string, headers []string, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
	}
	return writeTable(f, styles, sheet, headers, rows)
}

// writeTable writes a styled header row followed by zebra-striped data rows
func writeTable(f *excelize.File, styles *sheetStyles, sheet string, headers []string, rows [][]any) error {
	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}

	headerRow := make([]any, len(headers))
	widths := make([]int, len(headers))
	for i, h := range headers {
		headerRow[i] = h
		widths[i] = utf8.RuneCountInString(h)
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write %q header: %w", sheet, err)
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", styles.header); err != nil {
		return err
	}
	if err := f.SetRowHeight(sheet, 1, headerHeight); err != nil {
		return err
	}

	for i, row := range rows {
		rowNum := i + 2
		start := fmt.Sprintf("A%d", rowNum)
		if err := f.SetSheetRow(sheet, start, &row); err != nil {
			return fmt.Errorf("failed to write %q row %d: %w", sheet, rowNum, err)
		}

		style := styles.odd
		if rowNum%2 == 0 {
			style = styles.even
		}
		if err := f.SetCellStyle(sheet, start, fmt.Sprintf("%s%d", lastCol, rowNum), style); err != nil {
			return err
		}
		if err := f.SetRowHeight(sheet, rowNum, rowHeight); err != nil {
			return err
		}

		for col, v := range row {
			if n := utf8.RuneCountInString(fmt.Sprint(v)); col < len(widths) && n > widths[col] {
				widths[col] = n
			}
		}
	}

	for i, w := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, float64(min(w+2, maxColumnWidth))); err != nil {
			return err
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      2,
		YSplit:      1,
		TopLeftCell: freezeCell,
		ActivePane:  "bottomRight",
	})
}

// sheetNamer produces unique, Excel-safe sheet names
type sheetNamer struct {
	used map[string]struct{}
}

func newSheetNamer(reserved ...string) *sheetNamer {
	n := &sheetNamer{used: make(map[string]struct{})}
	for _, r := range reserved {
		n.used[strings.ToLower(r)] = struct{}{}
	}
	return n
}

func (n *sheetNamer) next(storeName string) string {
	base := strings.Trim(sheetNameReplacer.Replace(storeName), "' ")
	if base == "" {
		base = "Store"
	}

	name := truncateRunes(base, maxSheetNameLen)
	for i := 2; ; i++ {
		if _, taken := n.used[strings.ToLower(name)]; !taken {
			break
		}
		suffix := fmt.Sprintf(" (%d)", i)
		name = truncateRunes(base, maxSheetNameLen-len(suffix)) + suffix
	}

	n.used[strings.ToLower(name)] = struct{}{}
	return name
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

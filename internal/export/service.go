package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/doctext/internal/entity"
)

const sheet = "Jobs"

// Service renders job summaries as XLSX workbooks.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// JobsXLSX returns a workbook with one row per job, in the given order.
func (s *Service) JobsXLSX(_ context.Context, jobs []entity.JobSummary) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Job ID",
		"Status",
		"Bucket",
		"Key",
		"Pages",
		"Blocks",
		"Started",
		"Ended",
		"Duration (ms)",
		"Error",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, j := range jobs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, j.ID)
		write(2, string(j.Status))
		write(3, j.Bucket)
		write(4, j.Key)
		write(5, j.Pages)
		write(6, j.Blocks)
		write(7, j.StartedAt.UTC().Format(time.RFC3339))
		if j.EndedAt != nil {
			write(8, j.EndedAt.UTC().Format(time.RFC3339))
			write(9, j.EndedAt.Sub(j.StartedAt).Milliseconds())
		}
		if j.ErrorMessage != "" {
			write(10, truncate(j.ErrorMessage, 500))
		}
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 38) // job id
	_ = f.SetColWidth(sheet, "B", "B", 12) // status
	_ = f.SetColWidth(sheet, "C", "D", 28)
	_ = f.SetColWidth(sheet, "G", "H", 22) // times
	_ = f.SetColWidth(sheet, "J", "J", 60) // error

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(jobs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

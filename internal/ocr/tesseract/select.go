package tesseract

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/doctext/internal/common"
	"github.com/joseph-ayodele/doctext/internal/ocr"
)

// Select returns the recognition engine named by cfg.Engine.
func Select(cfg common.OCRConfig, logger *slog.Logger) (ocr.Engine, error) {
	switch cfg.Engine {
	case "gosseract", "":
		return NewEngine(cfg.TessdataDir), nil
	case "cli":
		return ocr.NewCLIEngine(ocr.CLIConfig{Binary: cfg.Binary, TessdataDir: cfg.TessdataDir}, logger), nil
	default:
		return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown OCR engine %q", cfg.Engine), common.ErrBadRequest)
	}
}

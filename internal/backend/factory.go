package backend

import (
	"context"
	"fmt"
	"log/slog"

	gsheet "bilancio/internal/sheets/google"
	"bilancio/internal/sheets/memory"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateMirror(ctx context.Context, config Config) (*Result, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid mirror type: %s", config.Type)
	}

	switch config.Type {
	case NoneMirror:
		f.logger.Info("Mirror disabled")
		return &Result{Mirror: nil, Cleanup: nil}, nil
	case MemoryMirror:
		f.logger.Info("Initialized memory mirror")
		return &Result{Mirror: memory.New(), Cleanup: nil}, nil
	case SheetsMirror:
		cli, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
		}
		f.logger.Info("Initialized Google Sheets mirror",
			"spreadsheet_id", config.GoogleSpreadsheetID,
			"sheet", config.GoogleSheetName)
		return &Result{Mirror: cli, Cleanup: nil}, nil
	default:
		return nil, fmt.Errorf("unsupported mirror type: %s", config.Type)
	}
}

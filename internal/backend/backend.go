// Package backend selects the mirror target the worker writes to.
package backend

import (
	"context"

	"bilancio/internal/sheets"
)

// Mirror is the unified interface every mirror target implements.
type Mirror interface {
	sheets.TransactionWriter
	sheets.TransactionDeleter
}

// CleanupFunc releases resources held by a mirror.
type CleanupFunc func() error

// Result contains the mirror instance and optional cleanup function.
type Result struct {
	Mirror  Mirror
	Cleanup CleanupFunc
}

// Factory creates mirrors based on configuration.
type Factory interface {
	CreateMirror(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for mirror creation.
type Config struct {
	Type Type

	// Google Sheets specific
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

// Type represents the kind of mirror target.
type Type string

const (
	NoneMirror   Type = "none"
	MemoryMirror Type = "memory"
	SheetsMirror Type = "sheets"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case NoneMirror, MemoryMirror, SheetsMirror:
		return true
	default:
		return false
	}
}

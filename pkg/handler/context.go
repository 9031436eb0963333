package handler

// DI for all handlers alike.

import (
	"github.com/yumyai/blastview/pkg/db"
	"github.com/yumyai/blastview/pkg/model"
)

type AppContext struct {
	Store   *db.BlockStore
	Ledger  *db.UploadLedger
	Results *ResultCache

	// Filter values a page starts from before the user changes them.
	Defaults model.Params
	// Largest report accepted by /upload.
	MaxUploadBytes int64
}

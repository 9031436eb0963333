package handler

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/yumyai/blastview/pkg/db"
	"go.uber.org/zap"
)

const uploadField = "file"

var allowedReportExt = map[string]bool{".txt": true, ".tsv": true}

// UploadReport accepts a multipart report, stores it and splits it into query blocks.
func (app *AppContext) UploadReport(w http.ResponseWriter, r *http.Request) {
	if app.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, app.MaxUploadBytes)
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("report is larger than %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "missing report file in field \"file\"", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(path.Ext(header.Filename))
	if !allowedReportExt[ext] {
		http.Error(w, "only .txt and .tsv reports are accepted", http.StatusBadRequest)
		return
	}

	result, err := app.Store.SaveReport(header.Filename, file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	upload := &db.Upload{
		ReportName: path.Base(strings.ReplaceAll(header.Filename, "\\", "/")),
		SizeBytes:  header.Size,
		Blocks:     result.Blocks,
		Discarded:  result.Discarded,
	}
	if err := app.Ledger.Record(r.Context(), upload); err != nil {
		// The blocks are already on disk, so the upload itself succeeded.
		requestLogger(r).Warn("Could not record upload", zap.String("report", upload.ReportName), zap.Error(err))
	}

	requestLogger(r).Info("Uploaded report",
		zap.String("report", upload.ReportName),
		zap.Int64("bytes", upload.SizeBytes),
		zap.Int("blocks", result.Blocks),
	)

	message := fmt.Sprintf("Split %s into %d query files.", upload.ReportName, result.Blocks)
	if result.Blocks == 0 {
		message = fmt.Sprintf("%s has no \"# Query:\" lines, nothing was split.", upload.ReportName)
	}
	app.renderIndex(w, r, app.Defaults, message)
}

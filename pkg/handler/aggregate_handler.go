package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yumyai/blastview/logger"
	"github.com/yumyai/blastview/pkg/handler/request"
	"github.com/yumyai/blastview/pkg/model"
	"github.com/yumyai/blastview/pkg/render"
	"go.uber.org/zap"
)

const aggregateFileName = "all_filtered_queries.tsv"

// RunAggregate filters every stored block with the posted parameters and keeps the
// merged result for the caller's session.
func (app *AppContext) RunAggregate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	params, err := request.ParseFilterParams(r.PostForm, app.Defaults)
	if err != nil {
		writeError(w, r, err)
		return
	}

	session := sessionID(w, r)

	result, err := app.Store.Aggregate(params)
	if errors.Is(err, model.ErrNoBlocks) {
		app.renderIndex(w, r, params, "No query data yet, upload a BLAST result file first.")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	app.Results.Store(session, params, result)
	app.renderAggregate(w, params, result)
}

// AggregatePage shows the session's last merged result.
func (app *AppContext) AggregatePage(w http.ResponseWriter, r *http.Request) {
	params := app.Defaults
	var result *model.AggregateResult
	if session, ok := existingSession(r); ok {
		if cached, ok := app.Results.Get(session); ok {
			params, result = cached.Params, cached.Result
		}
	}
	app.renderAggregate(w, params, result)
}

func (app *AppContext) renderAggregate(w http.ResponseWriter, params model.Params, result *model.AggregateResult) {
	data := render.AggregatePageData{
		Form:     render.NewParamForm("/aggregate", http.MethodPost, params),
		Download: "/aggregate/download",
	}
	if result != nil {
		data.Ready = true
		data.TotalHits = result.TotalHits
		data.Blocks = result.Blocks
		data.Rows = result.Rows
		data.Skipped = result.Skipped
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.RenderAggregatePage(w, data); err != nil {
		logger.Error("Render aggregate page", zap.Error(err))
	}
}

// AggregateDownload sends every merged row of the session's result.
func (app *AppContext) AggregateDownload(w http.ResponseWriter, r *http.Request) {
	session, ok := existingSession(r)
	var cached *SessionResult
	if ok {
		cached, ok = app.Results.Get(session)
	}
	if !ok {
		http.Error(w, "no merged result for this session, run the filter first", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", tsvContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", aggregateFileName))
	if err := model.WriteTSV(w, cached.Result.Rows); err != nil {
		logger.Error("Write merged TSV", zap.Error(err))
	}
}

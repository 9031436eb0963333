package handler

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/yumyai/blastview/logger"
	"github.com/yumyai/blastview/pkg/handler/request"
	"github.com/yumyai/blastview/pkg/model"
	"github.com/yumyai/blastview/pkg/render"
	"go.uber.org/zap"
)

const tsvContentType = "text/tab-separated-values; charset=utf-8"

// MainPage lists the stored query blocks.
func (app *AppContext) MainPage(w http.ResponseWriter, r *http.Request) {
	params, err := request.ParseFilterParams(r.URL.Query(), app.Defaults)
	if err != nil {
		writeError(w, r, err)
		return
	}
	app.renderIndex(w, r, params, "")
}

// renderIndex fills the filter form and the block links from params.
func (app *AppContext) renderIndex(w http.ResponseWriter, r *http.Request, params model.Params, message string) {
	blocks, err := app.Store.ListBlocks()
	if err != nil {
		writeError(w, r, err)
		return
	}

	uploads, err := app.Ledger.Recent(r.Context(), 10)
	if err != nil {
		// History is informational; the page still works without it.
		requestLogger(r).Warn("Could not read upload history", zap.Error(err))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = render.RenderIndexPage(w, render.IndexPageData{
		Blocks:   blocks,
		HasBlock: len(blocks) > 0,
		Form:     render.NewParamForm("/aggregate", http.MethodPost, params),
		Query:    request.Encode(params),
		Message:  message,
		Uploads:  uploads,
	})
	if err != nil {
		logger.Error("Render index page", zap.Error(err))
	}
}

// filterBlock reads one block and runs the filter over it. The outcome keeps the raw
// lines so the page can show the block's comments.
func (app *AppContext) filterBlock(r *http.Request) (string, model.Params, model.ParseOutcome, []model.Hit, error) {
	name := r.PathValue("name")

	params, err := request.ParseFilterParams(r.URL.Query(), app.Defaults)
	if err != nil {
		return name, params, model.ParseOutcome{}, nil, err
	}

	lines, err := app.Store.ReadBlock(name)
	if err != nil {
		return name, params, model.ParseOutcome{}, nil, err
	}

	outcome := model.ParseBlock(lines)
	if outcome.Status != model.Parsed {
		return name, params, outcome, nil, nil
	}
	return name, params, outcome, model.FilterAndRank(outcome.Rows, params), nil
}

// QueryPage shows one block, filtered with the parameters in the query string.
func (app *AppContext) QueryPage(w http.ResponseWriter, r *http.Request) {
	name, params, outcome, rows, err := app.filterBlock(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.Debug("Filtered block", zap.String("block", name), zap.Int("rows", len(rows)))

	data := render.QueryPageData{
		Block:    name,
		Rows:     rows,
		Comments: model.CommentLines(outcome.Raw),
		Form:     render.NewParamForm("/query/"+url.PathEscape(name), http.MethodGet, params),
		Download: "/query/" + url.PathEscape(name) + "/download?" + request.Encode(params).Encode(),
	}
	if outcome.Status != model.Parsed {
		data.Status = outcome.Status.String()
		data.Reason = outcome.Reason()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.RenderQueryPage(w, data); err != nil {
		logger.Error("Render query page", zap.String("block", name), zap.Error(err))
	}
}

// QueryDownload sends the filtered table of one block as TSV.
func (app *AppContext) QueryDownload(w http.ResponseWriter, r *http.Request) {
	name, _, outcome, rows, err := app.filterBlock(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// A block without hits downloads as the header alone.
	if outcome.Status == model.Malformed {
		http.Error(w, fmt.Sprintf("%s has no table: %s", name, outcome.Reason()), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", tsvContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "filtered_"+name))
	if err := model.WriteTSV(w, rows); err != nil {
		logger.Error("Write TSV", zap.String("block", name), zap.Error(err))
	}
}

// Handler for miscellaneous endpoints such as health check and the JSON API

package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/yumyai/blastview/logger"
	"github.com/yumyai/blastview/pkg/db"
	"github.com/yumyai/blastview/pkg/handler/request"
	"github.com/yumyai/blastview/pkg/model"
	"go.uber.org/zap"
)

type HealthResponse struct {
	Health    string    `json:"health"`
	Timestamp time.Time `json:"timestamp"`
}

type QueriesResponse struct {
	Queries []string `json:"queries"`
}

type UploadsResponse struct {
	Uploads []db.Upload `json:"uploads"`
}

type AggregateResponse struct {
	Params model.Params `json:"params"`
	*model.AggregateResult
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Encode JSON response", zap.Error(err))
	}
}

func HealthCheck(w http.ResponseWriter, r *http.Request) {

	response := HealthResponse{
		Health:    "ok",
		Timestamp: time.Now(),
	}

	writeJSON(w, response)
}

func (app *AppContext) QueriesAPI(w http.ResponseWriter, r *http.Request) {
	blocks, err := app.Store.ListBlocks()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, QueriesResponse{Queries: blocks})
}

func (app *AppContext) UploadsAPI(w http.ResponseWriter, r *http.Request) {
	uploads, err := app.Ledger.Recent(r.Context(), 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, UploadsResponse{Uploads: uploads})
}

// AggregateAPI aggregates with the query-string parameters. Nothing is cached.
func (app *AppContext) AggregateAPI(w http.ResponseWriter, r *http.Request) {
	params, err := request.ParseFilterParams(r.URL.Query(), app.Defaults)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := app.Store.Aggregate(params)
	if errors.Is(err, model.ErrNoBlocks) {
		result = &model.AggregateResult{Rows: []model.Hit{}, Skipped: []model.SkippedBlock{}}
	} else if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, AggregateResponse{Params: params, AggregateResult: result})
}

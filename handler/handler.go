// Package handler exposes the click engine over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"pokuclick/aggregator"
	"pokuclick/forwarder"
	"pokuclick/interfaces"
)

const maxBodyBytes = 1 << 10

// ClickResponse is returned by POST /click.
type ClickResponse struct {
	LocalTotal int64   `json:"local_total"`
	Pitch      float64 `json:"pitch"`
	Gain       float64 `json:"gain"`
}

// StateResponse is returned by GET /state.
type StateResponse struct {
	Engine aggregator.Snapshot `json:"engine"`
	View   ViewState           `json:"view"`
}

// VolumeRequest is the body of PUT /volume.
type VolumeRequest struct {
	Volume *int `json:"volume"`
}

// AnimationResponse is returned by POST /animation/complete.
type AnimationResponse struct {
	Animation string `json:"animation"`
}

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Options selects the optional routes.
type Options struct {
	// Aggregate, when set, is served at /aggregate.
	Aggregate interfaces.AggregateStore
	// ClickMiddleware wraps POST /click only.
	ClickMiddleware Middleware
}

// Handler routes requests to the aggregator and presenter.
type Handler struct {
	aggregator *aggregator.Aggregator
	presenter  *StatePresenter
	aggregate  interfaces.AggregateStore
	logger     *zap.Logger
	mux        *http.ServeMux
}

// New builds the route table.
func New(agg *aggregator.Aggregator, presenter *StatePresenter, opts Options, logger *zap.Logger) *Handler {
	h := &Handler{
		aggregator: agg,
		presenter:  presenter,
		aggregate:  opts.Aggregate,
		logger:     logger,
		mux:        http.NewServeMux(),
	}

	var click http.Handler = http.HandlerFunc(h.handleClick)
	if opts.ClickMiddleware != nil {
		click = opts.ClickMiddleware(click)
	}
	h.mux.Handle("POST /click", click)
	h.mux.HandleFunc("GET /state", h.handleState)
	h.mux.HandleFunc("PUT /volume", h.handleVolume)
	h.mux.HandleFunc("POST /animation/complete", h.handleAnimationComplete)
	if h.aggregate != nil {
		h.mux.HandleFunc("GET /aggregate", h.handleAggregateRead)
		h.mux.HandleFunc("PUT /aggregate", h.handleAggregateWrite)
	}
	return h
}

// ServeHTTP implements the http.Handler interface.
func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(rw, r)
}

func (h *Handler) handleClick(rw http.ResponseWriter, r *http.Request) {
	value, cue := h.aggregator.RecordInteraction()
	h.writeJSON(rw, http.StatusOK, ClickResponse{
		LocalTotal: value,
		Pitch:      cue.Pitch,
		Gain:       cue.Gain,
	})
}

func (h *Handler) handleState(rw http.ResponseWriter, r *http.Request) {
	h.writeJSON(rw, http.StatusOK, StateResponse{
		Engine: h.aggregator.Snapshot(),
		View:   h.presenter.View(),
	})
}

func (h *Handler) handleVolume(rw http.ResponseWriter, r *http.Request) {
	var req VolumeRequest
	if err := decodeBody(r, &req); err != nil || req.Volume == nil {
		h.logger.Debug("Rejected volume request", zap.Error(err))
		http.Error(rw, "Bad Request", http.StatusBadRequest)
		return
	}
	volume := h.aggregator.SetVolume(*req.Volume)
	h.writeJSON(rw, http.StatusOK, VolumeRequest{Volume: &volume})
}

func (h *Handler) handleAnimationComplete(rw http.ResponseWriter, r *http.Request) {
	state := h.presenter.CompleteAnimation()
	h.writeJSON(rw, http.StatusOK, AnimationResponse{Animation: state.String()})
}

func (h *Handler) handleAggregateRead(rw http.ResponseWriter, r *http.Request) {
	total, exists, err := h.aggregate.Read(r.Context())
	if err != nil {
		h.logger.Error("Failed to read aggregate", zap.Error(err))
		http.Error(rw, "Aggregate unavailable", http.StatusBadGateway)
		return
	}
	if !exists {
		http.NotFound(rw, r)
		return
	}
	h.writeJSON(rw, http.StatusOK, forwarder.AggregateDocument{Total: total})
}

func (h *Handler) handleAggregateWrite(rw http.ResponseWriter, r *http.Request) {
	var doc forwarder.AggregateDocument
	if err := decodeBody(r, &doc); err != nil || doc.Total < 0 {
		http.Error(rw, "Bad Request", http.StatusBadRequest)
		return
	}
	if err := h.aggregate.WriteIfChanged(r.Context(), doc.Total); err != nil {
		h.logger.Error("Failed to write aggregate", zap.Error(err))
		http.Error(rw, "Aggregate unavailable", http.StatusBadGateway)
		return
	}
	h.logger.Debug("Aggregate written by peer",
		zap.Int64("total", doc.Total),
		zap.String("remote_addr", r.RemoteAddr))
	rw.WriteHeader(http.StatusNoContent)
}

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return errors.New("empty body")
	}
	return json.Unmarshal(body, v)
}

func (h *Handler) writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		h.logger.Warn("Failed to write response", zap.Error(err))
	}
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goldenoak/threadline/pkg/domain/model"
	"github.com/goldenoak/threadline/pkg/domain/types"
	"github.com/goldenoak/threadline/pkg/usecase"
	"github.com/goldenoak/threadline/pkg/utils/errutil"
	"github.com/goldenoak/threadline/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

type historyResponse struct {
	Customers   []*model.CustomerGroup `json:"customers"`
	RefreshedAt time.Time              `json:"refreshed_at"`
}

// chatHistoryHandler serves the aggregated Customer → Case → Conversation
// view. `window_hours` overrides the case window for this request; the
// cached view is only usable for default-window requests.
func (s *Server) chatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	windowHours := 0
	if raw := r.URL.Query().Get("window_hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid window_hours"), http.StatusBadRequest)
			return
		}
		windowHours = parsed
	}

	if windowHours == 0 && s.cache != nil {
		if groups, refreshedAt, ok := s.cache.Cached(); ok {
			writeJSON(w, r, http.StatusOK, historyResponse{Customers: groups, RefreshedAt: refreshedAt})
			return
		}
	}

	groups, err := s.uc.History.ChatHistory(r.Context(), windowHours)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, http.StatusOK, historyResponse{Customers: groups, RefreshedAt: time.Now().UTC()})
}

func (s *Server) deleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	conversationID := types.ConversationID(chi.URLParam(r, "conversationID"))
	if conversationID == "" {
		errutil.HandleHTTP(r.Context(), w, goerr.New("conversation ID is required"), http.StatusBadRequest)
		return
	}

	groups, err := s.uc.History.DeleteConversation(r.Context(), conversationID, 0)
	if err != nil {
		if errors.Is(err, usecase.ErrConversationNotFound) {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusNotFound)
			return
		}
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}

	if s.cache != nil {
		s.cache.Invalidate()
	}

	writeJSON(w, r, http.StatusOK, historyResponse{Customers: groups, RefreshedAt: time.Now().UTC()})
}

type ingestResponse struct {
	ConversationIDs []types.ConversationID `json:"conversation_ids"`
}

// ingestHandler accepts one raw interaction record, or an array of them
func (s *Server) ingestHandler(w http.ResponseWriter, r *http.Request) {
	var payload any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid JSON body"), http.StatusBadRequest)
		return
	}

	var raws []map[string]any
	switch body := payload.(type) {
	case map[string]any:
		raws = []map[string]any{body}
	case []any:
		for _, item := range body {
			raw, ok := item.(map[string]any)
			if !ok {
				errutil.HandleHTTP(r.Context(), w, goerr.New("array items must be objects"), http.StatusBadRequest)
				return
			}
			raws = append(raws, raw)
		}
	default:
		errutil.HandleHTTP(r.Context(), w, goerr.New("body must be an object or an array of objects"), http.StatusBadRequest)
		return
	}

	ids, err := s.uc.Ingest.IngestBatch(r.Context(), raws)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidRecord) {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}

	if s.cache != nil {
		s.cache.Invalidate()
	}

	writeJSON(w, r, http.StatusCreated, ingestResponse{ConversationIDs: ids})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/pauljones0/brick-deals/internal/models"
	"github.com/pauljones0/brick-deals/internal/render"
	"github.com/pauljones0/brick-deals/internal/viewstate"
)

// Dispatcher accepts view events.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev viewstate.Event) error
}

// ViewSource exposes the latest rendered view.
type ViewSource interface {
	View() (render.View, bool)
}

type Server struct {
	dispatcher Dispatcher
	views      ViewSource
}

func NewServer(d Dispatcher, v ViewSource) *Server {
	return &Server{dispatcher: d, views: v}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /view", s.handleView)
	mux.HandleFunc("POST /events/page", s.eventHandler(parsePage))
	mux.HandleFunc("POST /events/size", s.eventHandler(parseSize))
	mux.HandleFunc("POST /events/filter", s.eventHandler(parseFilter))
	mux.HandleFunc("POST /events/sort", s.eventHandler(parseSort))
	mux.HandleFunc("POST /events/favorite", s.eventHandler(parseFavorite))
	mux.HandleFunc("POST /events/favorites-only", s.eventHandler(func(*http.Request) (viewstate.Event, error) {
		return viewstate.FavoritesOnlyToggled{}, nil
	}))
	mux.HandleFunc("POST /events/mode", s.eventHandler(func(r *http.Request) (viewstate.Event, error) {
		return viewstate.ModeChanged{SetID: strings.TrimSpace(r.URL.Query().Get("set"))}, nil
	}))
	return mux
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	view, ready := s.views.View()
	if !ready {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "view not ready"})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type eventParser func(r *http.Request) (viewstate.Event, error)

func (s *Server) eventHandler(parse eventParser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ev, err := parse(r)
		if err != nil {
			err = fmt.Errorf("%w: %w", viewstate.ErrInvalidEventPayload, err)
			slog.Warn("Rejected event", "path", r.URL.Path, "query", r.URL.RawQuery, "error", err)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if err := s.dispatcher.Dispatch(r.Context(), ev); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, viewstate.ErrStopped) {
				status = http.StatusServiceUnavailable
			}
			slog.Error("Failed to dispatch event", "event", ev.Kind(), "error", err)
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "event": ev.Kind().String()})
	}
}

func parsePage(r *http.Request) (viewstate.Event, error) {
	n, err := intParam(r, "page")
	if err != nil {
		return nil, err
	}
	return viewstate.PageChanged{Page: n}, nil
}

func parseSize(r *http.Request) (viewstate.Event, error) {
	n, err := intParam(r, "size")
	if err != nil {
		return nil, err
	}
	return viewstate.PageSizeChanged{Size: n}, nil
}

func parseFilter(r *http.Request) (viewstate.Event, error) {
	f, err := models.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		return nil, err
	}
	return viewstate.FilterToggled{Filter: f}, nil
}

func parseSort(r *http.Request) (viewstate.Event, error) {
	so, err := models.ParseSort(r.URL.Query().Get("sort"))
	if err != nil {
		return nil, err
	}
	return viewstate.SortChanged{Sort: so}, nil
}

func parseFavorite(r *http.Request) (viewstate.Event, error) {
	uuid := strings.TrimSpace(r.URL.Query().Get("uuid"))
	if uuid == "" {
		return nil, errors.New("missing uuid")
	}
	return viewstate.FavoriteToggled{UUID: uuid}, nil
}

func intParam(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number", name, raw)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

// Package httpapi implements the HTTP boundary of §6: a session-scoped
// query/next/previous surface over the indexed store, identified by a
// "sessionid" cookie.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lluisalemanypuig/chesspebase/internal/session"
)

const sessionCookie = "sessionid"

// NewRouter builds the chi router serving POST /query, GET /next and
// GET /previous against mgr.
func NewRouter(mgr *session.Manager, log *zap.SugaredLogger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	h := &handler{mgr: mgr, log: log}
	r.Post("/query", h.query)
	r.Get("/next", h.next)
	r.Get("/previous", h.previous)
	return r
}

func requestLogger(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debugw("http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		})
	}
}

type handler struct {
	mgr *session.Manager
	log *zap.SugaredLogger
}

// queryResponse mirrors the original wire shape, where every field is
// a JSON string even when the value is numeric.
type queryResponse struct {
	ID       string `json:"id,omitempty"`
	Position string `json:"position"`
	Time     string `json:"time"`
	Count    string `json:"count"`
}

type stepResponse struct {
	Position string `json:"position"`
	Current  string `json:"current"`
	Total    string `json:"total"`
}

func (h *handler) cookieID(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func (h *handler) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *handler) query(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "could not read request body", http.StatusBadRequest)
		return
	}

	requestedID := h.cookieID(r)
	q := ParseQueryBody(string(body))

	start := time.Now()
	id, s := h.mgr.Run(requestedID, q)
	elapsed := time.Since(start)

	newID := id != requestedID
	if newID {
		h.setCookie(w, id)
	}

	resp := queryResponse{
		Position: "end",
		Time:     elapsed.String(),
		Count:    strconv.FormatUint(s.Total, 10),
	}
	if newID {
		resp.ID = id
	}
	if fen, ok, _, _, _ := h.mgr.Next(id); ok {
		resp.Position = fen
	}

	writeJSON(w, resp)
}

func (h *handler) next(w http.ResponseWriter, r *http.Request) {
	id := h.cookieID(r)
	if id == "" {
		http.Error(w, "sessionid cookie not found", http.StatusBadRequest)
		return
	}

	fen, ok, cursor, total, err := h.mgr.Next(id)
	if err != nil {
		http.Error(w, "unknown session", http.StatusBadRequest)
		return
	}
	if !ok {
		fen = "end"
	}

	writeJSON(w, stepResponse{
		Position: fen,
		Current:  strconv.Itoa(cursor),
		Total:    strconv.FormatUint(total, 10),
	})
}

func (h *handler) previous(w http.ResponseWriter, r *http.Request) {
	id := h.cookieID(r)
	if id == "" {
		http.Error(w, "sessionid cookie not found", http.StatusBadRequest)
		return
	}

	fen, ok, cursor, total, err := h.mgr.Previous(id)
	if err != nil {
		http.Error(w, "unknown session", http.StatusBadRequest)
		return
	}
	if !ok {
		fen = "begin"
	}

	writeJSON(w, stepResponse{
		Position: fen,
		Current:  strconv.Itoa(cursor),
		Total:    strconv.FormatUint(total, 10),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

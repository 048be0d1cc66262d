// Package player contains all HTTP handlers related to the Player resource.
//
// HANDLER PATTERN USED HERE — THE CLOSURE / FACTORY PATTERN:
// ────────────────────────────────────────────────────────────
// Go's router expects handler functions with the signature:
//
//	func(http.ResponseWriter, *http.Request)
//
// That signature has no room for extra parameters like the player
// service. To inject it we use a factory function that:
//  1. Accepts dependencies (the service)
//  2. Returns a function with the exact signature the router needs
//
//	mux.HandleFunc("POST /players", player.New(svc))
//	//                              ^^^^^^^^^^^^^^
//	//              New(svc) is called ONCE at startup. It returns a
//	//              handler func which is called on EVERY request.
//
// Handlers only translate between HTTP and the service: parse the path,
// query and body, call one service method, and map its error to a status.
package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aanand-mishra/players-api/internal/filter"
	"github.com/aanand-mishra/players-api/internal/http/middleware"
	"github.com/aanand-mishra/players-api/internal/service"
	"github.com/aanand-mishra/players-api/internal/storage"
	"github.com/aanand-mishra/players-api/internal/types"
	"github.com/aanand-mishra/players-api/internal/utils/response"
)

// Paging defaults for GET /players.
const (
	DefaultPageNumber = 0
	DefaultPageSize   = 3
)

// Service is the subset of *service.Players the handlers call.
type Service interface {
	List(ctx context.Context, criteria filter.Criteria, page storage.Page) ([]types.Player, error)
	Count(ctx context.Context, criteria filter.Criteria) (int64, error)
	Get(ctx context.Context, id int64) (types.Player, error)
	Create(ctx context.Context, data types.PlayerData) (types.Player, error)
	Update(ctx context.Context, id int64, data types.PlayerData) (types.Player, error)
	Delete(ctx context.Context, id int64) error
}

var _ Service = (*service.Players)(nil)

// Routes registers every player route on mux.
//
// Route table:
//
//	GET    /players          → list one page of players
//	GET    /players/count    → count matching players
//	GET    /players/{id}     → get one player by ID
//	POST   /players          → create a new player
//	POST   /players/{id}     → partially update a player
//	DELETE /players/{id}     → delete a player
//
// "/players/count" is more specific than "/players/{id}", so ServeMux
// routes it to Count even though "count" would also match {id}.
func Routes(mux *http.ServeMux, svc Service) {
	mux.HandleFunc("GET /players", GetList(svc))
	mux.HandleFunc("GET /players/count", Count(svc))
	mux.HandleFunc("GET /players/{id}", GetByID(svc))
	mux.HandleFunc("POST /players", New(svc))
	mux.HandleFunc("POST /players/{id}", Update(svc))
	mux.HandleFunc("DELETE /players/{id}", Delete(svc))
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /players
// Returns one page of the players matching the filter parameters.
//
// Query parameters (all optional):
//
//	pageNumber (default 0), pageSize (default 3, at most 1000),
//	name, title, race, profession, banned,
//	minLevel, maxLevel, minExperience, maxExperience,
//	after, before (epoch milliseconds)
//
// Returns an empty array [] (not null) when nothing matches.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		criteria, err := filter.FromQuery(q)
		if err != nil {
			writeError(w, r, err)
			return
		}

		page, err := parsePage(q)
		if err != nil {
			writeError(w, r, err)
			return
		}

		players, err := svc.List(r.Context(), criteria, page)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if players == nil {
			players = []types.Player{}
		}

		_ = response.WriteJSON(w, http.StatusOK, players)
	}
}

// Count handles GET /players/count
// Accepts the same filter parameters as GetList (paging is ignored) and
// returns a bare integer.
func Count(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		criteria, err := filter.FromQuery(r.URL.Query())
		if err != nil {
			writeError(w, r, err)
			return
		}

		n, err := svc.Count(r.Context(), criteria)
		if err != nil {
			writeError(w, r, err)
			return
		}

		_ = response.WriteJSON(w, http.StatusOK, n)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /players/{id}
//
// Error responses:
//
//	400 Bad Request  — id is empty, "0", or not an integer
//	404 Not Found    — no player with that id
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := service.ParseID(r.PathValue("id"))
		if err != nil {
			writeError(w, r, err)
			return
		}

		p, err := svc.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}

		_ = response.WriteJSON(w, http.StatusOK, p)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /players
// Creates a new player from the JSON request body.
//
// Request body (JSON):
//
//	{ "name": "Vasya", "title": "Mage", "race": "ELF",
//	  "profession": "WARRIOR", "birthday": 1577836800000,
//	  "experience": 5000, "banned": false }
//
// "banned" is optional; "level" and "untilNextLevel" are computed and
// any values sent for them are ignored.
//
// Success response (200 OK): the stored player, including its id.
// ─────────────────────────────────────────────────────────────────────────────
func New(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := decodePlayerData(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		p, err := svc.Create(r.Context(), data)
		if err != nil {
			writeError(w, r, err)
			return
		}

		slog.Info("player created via api",
			slog.String("request_id", middleware.RequestIDFrom(r.Context())),
			slog.Int64("id", p.ID))

		_ = response.WriteJSON(w, http.StatusOK, p)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles POST /players/{id}
// Overwrites only the fields present in the body; everything else keeps
// its stored value. The derived level fields are recomputed.
//
// Error responses:
//
//	400 Bad Request  — invalid id, empty/malformed body, or out-of-range value
//	404 Not Found    — no player with that id
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := service.ParseID(r.PathValue("id"))
		if err != nil {
			writeError(w, r, err)
			return
		}

		data, err := decodePlayerData(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		p, err := svc.Update(r.Context(), id, data)
		if err != nil {
			writeError(w, r, err)
			return
		}

		_ = response.WriteJSON(w, http.StatusOK, p)
	}
}

// Delete handles DELETE /players/{id}
// Permanently removes a player; responds { "status": "deleted" }.
func Delete(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := service.ParseID(r.PathValue("id"))
		if err != nil {
			writeError(w, r, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}

		_ = response.WriteJSON(w, http.StatusOK, response.Deleted())
	}
}

// errBadBody marks request bodies that could not be decoded.
var errBadBody = errors.New("invalid request body")

func decodePlayerData(r *http.Request) (types.PlayerData, error) {
	var data types.PlayerData

	err := json.NewDecoder(r.Body).Decode(&data)
	if errors.Is(err, io.EOF) {
		return types.PlayerData{}, fmt.Errorf("%w: request body is empty", errBadBody)
	}
	if err != nil {
		return types.PlayerData{}, fmt.Errorf("%w: %s", errBadBody, err.Error())
	}

	return data, nil
}

// errBadPage marks malformed paging parameters.
var errBadPage = errors.New("invalid paging parameter")

func parsePage(q url.Values) (storage.Page, error) {
	page := storage.Page{Number: DefaultPageNumber, Size: DefaultPageSize}

	if v := q.Get("pageNumber"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return storage.Page{}, fmt.Errorf("%w: pageNumber must be a non-negative integer", errBadPage)
		}
		page.Number = n
	}
	if v := q.Get("pageSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > storage.MaxPageSize {
			return storage.Page{}, fmt.Errorf("%w: pageSize must be an integer between 1 and %d", errBadPage, storage.MaxPageSize)
		}
		page.Size = n
	}

	return page, nil
}

// writeError maps an error onto a status code and the standard error body.
// Unexpected errors are logged and hidden behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrBadRequest),
		errors.Is(err, filter.ErrInvalidCriterion),
		errors.Is(err, errBadBody),
		errors.Is(err, errBadPage):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			slog.String("request_id", middleware.RequestIDFrom(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		err = errors.New("internal server error")
	}

	_ = response.WriteJSON(w, status, response.GeneralError(err))
}

package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"blogd/pkg/types"
)

type (
	saveFunc[T any] func(context.Context, T) (*T, error)
	getFunc[T any]  func(context.Context, int64) (*T, error)
	listFunc[T any] func(context.Context, types.Page) (types.PageResult[T], error)
	idFunc[T any]   func(*T) *int64
)

// decodeJSON enforces the JSON content type and body limit and decodes the
// request body into T. It writes the error response itself.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return v, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		// Oversized bodies also land here; report 400 without size details.
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return v, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("encode response")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid id "+strconv.Quote(raw))
		return 0, false
	}
	return id, true
}

func idString(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

// createHandler handles POST /api/<entities>: 201 with Location on success.
//
// @Summary  Create an entity
// @Accept   json
// @Produce  json
// @Success  201
// @Failure  400 {object} types.ErrorResponse
// @Router   /api/blogs [post]
// @Router   /api/tags [post]
// @Router   /api/entries [post]
func createHandler[T any](entity, location string, save saveFunc[T], id idFunc[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodeJSON[T](w, r)
		if !ok {
			return
		}
		out, err := save(r.Context(), in)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		sid := idString(id(out))
		w.Header().Set("Location", location+sid)
		setCreatedAlert(w, entity, sid)
		writeJSON(w, http.StatusCreated, out)
	}
}

// updateHandler handles PUT /api/<entities>. A body without id is created
// and answered like a POST.
//
// @Summary  Update an entity
// @Accept   json
// @Produce  json
// @Success  200
// @Failure  400 {object} types.ErrorResponse
// @Failure  404 {object} types.ErrorResponse
// @Router   /api/blogs [put]
// @Router   /api/tags [put]
// @Router   /api/entries [put]
func updateHandler[T any](entity, location string, save saveFunc[T], id idFunc[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodeJSON[T](w, r)
		if !ok {
			return
		}
		creating := id(&in) == nil
		out, err := save(r.Context(), in)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		sid := idString(id(out))
		if creating {
			w.Header().Set("Location", location+sid)
			setCreatedAlert(w, entity, sid)
			writeJSON(w, http.StatusCreated, out)
			return
		}
		setUpdatedAlert(w, entity, sid)
		writeJSON(w, http.StatusOK, out)
	}
}

// @Summary  Get an entity by id
// @Produce  json
// @Param    id path int true "Entity id"
// @Success  200
// @Failure  404 {object} types.ErrorResponse
// @Router   /api/blogs/{id} [get]
// @Router   /api/tags/{id} [get]
// @Router   /api/entries/{id} [get]
func getHandler[T any](get getFunc[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		out, err := get(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// @Summary  List entities
// @Produce  json
// @Param    page query int false "Zero-based page"
// @Param    size query int false "Page size"
// @Success  200
// @Router   /api/blogs [get]
// @Router   /api/tags [get]
// @Router   /api/entries [get]
func listHandler[T any](base string, list listFunc[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := parsePage(r)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		res, err := list(r.Context(), page)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writePage(w, res, base, nil)
	}
}

func writePage[T any](w http.ResponseWriter, res types.PageResult[T], base string, extra url.Values) {
	setPaginationHeaders(w, res, base, extra)
	items := res.Items
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, items)
}

// @Summary  Delete an entity
// @Param    id path int true "Entity id"
// @Success  200
// @Failure  404 {object} types.ErrorResponse
// @Router   /api/blogs/{id} [delete]
// @Router   /api/tags/{id} [delete]
// @Router   /api/entries/{id} [delete]
func deleteHandler(entity string, del func(context.Context, int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := del(r.Context(), id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		setDeletedAlert(w, entity, strconv.FormatInt(id, 10))
		w.WriteHeader(http.StatusOK)
	}
}

// @Summary  Search entries
// @Produce  json
// @Param    query query string true "Search terms"
// @Success  200 {array} types.Entry
// @Router   /api/_search/entries [get]
func searchEntriesHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		page, err := parsePage(r)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		res, err := svc.SearchEntries(r.Context(), query, page)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writePage(w, res, "/api/_search/entries", url.Values{"query": {query}})
	}
}

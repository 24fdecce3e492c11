package recording

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Lookup finds finalized recordings by ID. *MemoryStore implements it.
type Lookup interface {
	Get(id string) (*Artifact, error)
	List() []*Artifact
}

// Handler returns an http.Handler serving recordings:
//
//	GET /            JSON list of artifact metadata, newest first
//	GET /{id}        raw payload as an attachment
//	GET /{id}/meta   JSON metadata of one artifact
//
// Mount it on a router: r.Mount("/recordings", recording.Handler(store))
func Handler(store Lookup) http.Handler {
	r := chi.NewRouter()

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, store.List())
	})

	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		a, ok := lookup(w, r, store)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", a.ContentType())
		w.Header().Set("Content-Length", strconv.Itoa(a.Size()))
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Filename()))
		w.WriteHeader(http.StatusOK)
		w.Write(a.Data)
	})

	r.Get("/{id}/meta", func(w http.ResponseWriter, r *http.Request) {
		a, ok := lookup(w, r, store)
		if !ok {
			return
		}
		writeJSON(w, a)
	})

	return r
}

func lookup(w http.ResponseWriter, r *http.Request, store Lookup) (*Artifact, bool) {
	a, err := store.Get(chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "Recording not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		http.Error(w, "Lookup failed", http.StatusInternalServerError)
		return nil, false
	}
	return a, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/camlink/pkg/conn"
	"github.com/vango-dev/camlink/pkg/protocol"
	"github.com/vango-dev/camlink/pkg/recording"
	"github.com/vango-dev/camlink/pkg/stream"
)

// streamAPI is the subset of the client used by the HTTP API.
type streamAPI interface {
	Streams() *stream.Registry
}

type createStreamRequest struct {
	URL         string `json:"url"`
	ElementID   string `json:"element_id"`
	MediaID     string `json:"media_id"`
	CamID       string `json:"cam_id,omitempty"`
	ChnID       string `json:"chn_id,omitempty"`
	StitchID    string `json:"stitch_id,omitempty"`
	StitchIndex string `json:"stitch_index,omitempty"`
	StitchChnID string `json:"stitch_chn_id,omitempty"`
}

type streamStatus struct {
	ElementID string       `json:"element_id"`
	MediaID   string       `json:"media_id"`
	URL       string       `json:"url"`
	State     string       `json:"state"`
	Recording bool         `json:"recording"`
	Stats     stream.Stats `json:"stats"`
}

func statusOf(s *stream.Session) streamStatus {
	return streamStatus{
		ElementID: s.ElementID(),
		MediaID:   s.MediaID(),
		URL:       s.Endpoint().URL,
		State:     s.State().String(),
		Recording: s.Recording(),
		Stats:     s.Stats(),
	}
}

// newRouter builds the serve API:
//
//	GET    /healthz
//	GET    /metrics
//	GET    /streams
//	POST   /streams
//	GET    /streams/{id}
//	DELETE /streams/{id}
//	POST   /streams/{id}/record
//	DELETE /streams/{id}/record
//	GET    /streams/{id}/screenshot
//	GET    /recordings/...
func newRouter(c streamAPI, channel func() conn.State, store recording.Lookup, reg prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		state := channel()
		code := http.StatusOK
		if state != conn.StateOpen {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]any{
			"channel": state.String(),
			"streams": c.Streams().Len(),
		})
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Mount("/recordings", recording.Handler(store))

	r.Route("/streams", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			reg := c.Streams()
			out := make([]streamStatus, 0, reg.Len())
			for _, id := range reg.ElementIDs() {
				if s, ok := reg.Get(id); ok {
					out = append(out, statusOf(s))
				}
			}
			writeJSON(w, http.StatusOK, out)
		})

		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var req createStreamRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid JSON body", http.StatusBadRequest)
				return
			}
			if req.URL == "" {
				http.Error(w, "url is required", http.StatusBadRequest)
				return
			}
			s, err := c.Streams().CreateStream(r.Context(), req.URL, stream.Params{
				ElementID:   req.ElementID,
				MediaID:     req.MediaID,
				CamID:       req.CamID,
				ChnID:       req.ChnID,
				StitchID:    req.StitchID,
				StitchIndex: req.StitchIndex,
				StitchChnID: req.StitchChnID,
			})
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, statusOf(s))
		})

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				s, ok := c.Streams().Get(chi.URLParam(r, "id"))
				if !ok {
					writeError(w, stream.ErrNotFound)
					return
				}
				writeJSON(w, http.StatusOK, statusOf(s))
			})

			r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
				if err := c.Streams().CloseStream(r.Context(), chi.URLParam(r, "id")); err != nil {
					writeError(w, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})

			r.Post("/record", func(w http.ResponseWriter, r *http.Request) {
				if err := c.Streams().StartRecord(chi.URLParam(r, "id")); err != nil {
					writeError(w, err)
					return
				}
				w.WriteHeader(http.StatusAccepted)
			})

			r.Delete("/record", func(w http.ResponseWriter, r *http.Request) {
				a, err := c.Streams().StopRecord(r.Context(), chi.URLParam(r, "id"))
				if a == nil {
					writeError(w, err)
					return
				}
				// The artifact exists even when a sink failed.
				writeJSON(w, http.StatusOK, a)
			})

			r.Get("/screenshot", func(w http.ResponseWriter, r *http.Request) {
				frame, err := c.Streams().Screenshot(chi.URLParam(r, "id"))
				if err != nil {
					writeError(w, err)
					return
				}
				writeFrame(w, &frame)
			})
		})
	})

	return r
}

func writeFrame(w http.ResponseWriter, f *protocol.VideoFrameData) {
	ct := "application/octet-stream"
	if f.CodecID == protocol.CodecMJPEG {
		ct = "image/jpeg"
	}
	h := w.Header()
	h.Set("Content-Type", ct)
	h.Set("Content-Length", strconv.Itoa(len(f.Data)))
	h.Set("X-Frame-Codec", f.CodecID.String())
	h.Set("X-Frame-Width", strconv.Itoa(int(f.Width)))
	h.Set("X-Frame-Height", strconv.Itoa(int(f.Height)))
	h.Set("X-Frame-Sequence", strconv.FormatUint(uint64(f.Sequence), 10))
	h.Set("X-Frame-Timestamp", strconv.FormatUint(uint64(f.Timestamp), 10))
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(f.Data)
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, stream.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, stream.ErrInvalidParams):
		code = http.StatusBadRequest
	case errors.Is(err, stream.ErrDuplicateStream),
		errors.Is(err, stream.ErrAlreadyRecording),
		errors.Is(err, stream.ErrNotRecording),
		errors.Is(err, stream.ErrNoFrameAvailable):
		code = http.StatusConflict
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ruteri/storage-router/api"
	"github.com/ruteri/storage-router/cryptoutils"
	"github.com/ruteri/storage-router/hashing"
	"github.com/ruteri/storage-router/interfaces"
	"github.com/ruteri/storage-router/storage"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

// Handler processes HTTP requests for the storage router API.
type Handler struct {
	router *storage.Router
	log    *slog.Logger
}

// NewHandler creates an HTTP request handler over a storage router.
func NewHandler(router *storage.Router, log *slog.Logger) *Handler {
	return &Handler{router: router, log: log}
}

// HandleGetImmutable serves GET /api/v1/immutable/{hash}.
//
// Query parameters: url (hint, tried first), driver (repeatable whitelist),
// raw (skip JSON validation), chain (verify with the chain-compatible hash),
// fqu, data_id, zonefile (driver hints).
func (h *Handler) HandleGetImmutable(w http.ResponseWriter, r *http.Request) {
	hash, err := url.PathUnescape(chi.URLParam(r, "hash"))
	if err != nil || hash == "" {
		http.Error(w, "invalid hash", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	opts := storage.GetImmutableOptions{
		URLHint: q.Get("url"),
		Raw:     q.Get("raw") == "true",
		Hints: interfaces.RequestHints{
			FQU:      q.Get("fqu"),
			DataID:   q.Get("data_id"),
			Zonefile: q.Get("zonefile") == "true",
		},
	}
	if q.Get("chain") == "true" {
		opts.HashFunc = hashing.ChainHash
	}
	if drivers, ok := q["driver"]; ok {
		opts.Drivers = drivers
	}

	data, err := h.router.GetImmutable(r.Context(), hash, opts)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if opts.Raw {
		w.Header().Set("Content-Type", "application/octet-stream")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	w.Write(data)
}

// HandlePutImmutable serves POST /api/v1/immutable.
func (h *Handler) HandlePutImmutable(w http.ResponseWriter, r *http.Request) {
	var req api.PutImmutableRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	storeReq := storage.PutImmutableRequest{
		Hash:     req.Hash,
		TxID:     req.TxID,
		Required: req.Required,
	}
	if req.Text != "" {
		storeReq.Data = []byte(req.Text)
	}
	if len(req.Payload) > 0 {
		storeReq.Payload = req.Payload
	}

	hash, err := h.router.PutImmutable(r.Context(), storeReq)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, api.PutImmutableResponse{Hash: hash})
}

// HandleDeleteImmutable serves DELETE /api/v1/immutable/{hash}.
func (h *Handler) HandleDeleteImmutable(w http.ResponseWriter, r *http.Request) {
	hash, err := url.PathUnescape(chi.URLParam(r, "hash"))
	if err != nil || hash == "" {
		http.Error(w, "invalid hash", http.StatusBadRequest)
		return
	}

	var req api.DeleteImmutableRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	key := cryptoutils.KeyInfo{PrivateKey: req.PrivateKey}
	if err := h.router.DeleteImmutable(r.Context(), hash, req.TxID, key); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, api.StatusResponse{Status: "deleted"})
}

// HandleGetMutable serves GET /api/v1/mutable/{fqid}.
//
// Query parameters: pubkey, address, owner (verification inputs), url
// (repeatable candidate URLs), driver (repeatable whitelist), raw.
func (h *Handler) HandleGetMutable(w http.ResponseWriter, r *http.Request) {
	fqid, err := url.PathUnescape(chi.URLParam(r, "fqid"))
	if err != nil || fqid == "" {
		http.Error(w, "invalid data ID", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	opts := storage.GetMutableOptions{
		PublicKey:    q.Get("pubkey"),
		DataAddress:  q.Get("address"),
		OwnerAddress: q.Get("owner"),
		Raw:          q.Get("raw") == "true",
	}
	if urls, ok := q["url"]; ok {
		opts.URLs = urls
	}
	if drivers, ok := q["driver"]; ok {
		opts.Drivers = drivers
	}

	payload, err := h.router.GetMutable(r.Context(), fqid, opts)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if opts.Raw {
		w.Header().Set("Content-Type", "application/octet-stream")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	w.Write(payload)
}

// HandlePutMutable serves POST /api/v1/mutable/{fqid}.
func (h *Handler) HandlePutMutable(w http.ResponseWriter, r *http.Request) {
	fqid, err := url.PathUnescape(chi.URLParam(r, "fqid"))
	if err != nil || fqid == "" {
		http.Error(w, "invalid data ID", http.StatusBadRequest)
		return
	}

	var req api.PutMutableRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	err = h.router.PutMutable(r.Context(), fqid, storage.PutMutableRequest{
		Payload:   req.Payload,
		Key:       cryptoutils.KeyInfo{PrivateKey: req.PrivateKey},
		AsProfile: req.AsProfile,
		Required:  req.Required,
		UseOnly:   req.UseOnly,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, api.StatusResponse{Status: "stored"})
}

// HandleDeleteMutable serves DELETE /api/v1/mutable/{fqid}.
func (h *Handler) HandleDeleteMutable(w http.ResponseWriter, r *http.Request) {
	fqid, err := url.PathUnescape(chi.URLParam(r, "fqid"))
	if err != nil || fqid == "" {
		http.Error(w, "invalid data ID", http.StatusBadRequest)
		return
	}

	var req api.DeleteMutableRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	key := cryptoutils.KeyInfo{PrivateKey: req.PrivateKey}
	if err := h.router.DeleteMutable(r.Context(), fqid, key, req.UseOnly); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, api.StatusResponse{Status: "deleted"})
}

// HandleGetAnnouncement serves GET /api/v1/announcements/{hash}.
func (h *Handler) HandleGetAnnouncement(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	text, err := h.router.GetAnnouncement(r.Context(), hash)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, text)
}

// HandlePutAnnouncement serves POST /api/v1/announcements.
func (h *Handler) HandlePutAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req api.PutAnnouncementRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	hash, err := h.router.PutAnnouncement(r.Context(), req.Text, req.TxID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, api.PutAnnouncementResponse{Hash: hash})
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, interfaces.ErrContentNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, storage.ErrUnsupportedKey):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrReplicationFailed):
		http.Error(w, err.Error(), http.StatusBadGateway)
	case strings.Contains(err.Error(), "need data hash and text"):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.log.Error("Request failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

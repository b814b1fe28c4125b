package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrportal/internal/application/service"
	"hrportal/internal/transfer"
	id "hrportal/pkg/domain"
)

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	blobID, err := id.ParseBlobID(chi.URLParam(r, "fileId"))
	if err != nil {
		h.fail(w, r, "download file", err)
		return
	}
	obj, err := h.svc.OpenDocument(r.Context(), service.CallerFromContext(r.Context()), blobID)
	if err != nil {
		h.fail(w, r, "download file", err)
		return
	}
	transfer.Serve(w, r, obj, transfer.DispositionFor(r), h.logger)
}

func (h *Handler) handlePurge(w http.ResponseWriter, r *http.Request) {
	blobID, err := id.ParseBlobID(chi.URLParam(r, "fileId"))
	if err != nil {
		h.fail(w, r, "purge file", err)
		return
	}
	if err := h.svc.PurgeBlob(r.Context(), service.CallerFromContext(r.Context()), blobID); err != nil {
		h.fail(w, r, "purge file", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

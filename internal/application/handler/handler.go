// Package handler exposes the application lifecycle over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrportal/internal/application/models"
	"hrportal/internal/application/service"
	"hrportal/internal/blob"
	"hrportal/internal/transfer"
	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
	"hrportal/pkg/platform/httputil"
	adminmw "hrportal/pkg/platform/middleware/admin"
	request "hrportal/pkg/platform/middleware/request"
)

// Service defines the application operations the handlers call.
type Service interface {
	Submit(ctx context.Context, caller service.Caller, req service.SubmitRequest) (*models.Application, error)
	List(ctx context.Context, caller service.Caller, filter models.ListFilter) (*service.Page, error)
	Get(ctx context.Context, caller service.Caller, appID id.ApplicationID) (*models.Application, error)
	UpdateApplication(ctx context.Context, caller service.Caller, appID id.ApplicationID, req service.UpdateRequest) (*models.Application, error)
	SubmitRequestedDocs(ctx context.Context, caller service.Caller, appID id.ApplicationID, files []service.Upload) (*models.Application, error)
	UploadContract(ctx context.Context, caller service.Caller, appID id.ApplicationID, file service.Upload) (*models.Application, error)
	UploadSignedContract(ctx context.Context, caller service.Caller, appID id.ApplicationID, file service.Upload) (*models.Application, error)
	OpenDocument(ctx context.Context, caller service.Caller, blobID id.BlobID) (*blob.Object, error)
	PurgeBlob(ctx context.Context, caller service.Caller, blobID id.BlobID) error
}

// Middleware is a chi-compatible middleware.
type Middleware = func(http.Handler) http.Handler

type Handler struct {
	svc          Service
	logger       *slog.Logger
	requireAuth  Middleware
	requireAdmin Middleware
	maxBody      int64
}

// New wires the handler. requireAuth validates candidate bearer tokens and
// requireAdmin checks the admin token; maxBody caps multipart request size.
func New(svc Service, logger *slog.Logger, requireAuth, requireAdmin Middleware, maxBody int64) *Handler {
	return &Handler{
		svc:          svc,
		logger:       logger,
		requireAuth:  requireAuth,
		requireAdmin: requireAdmin,
		maxBody:      maxBody,
	}
}

// Register mounts the application and file routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/applications", h.handleSubmit)
		r.Get("/applications", h.handleList)
		r.Get("/applications/{id}", h.handleGet)
		r.Post("/applications/{id}/requested-docs", h.handleRequestedDocs)
		r.Post("/applications/{id}/signed-contract", h.handleSignedContract)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.authOrAdmin)
		r.Patch("/applications/{id}", h.handleUpdate)
		r.Get("/files/{fileId}", h.handleDownload)
		r.Head("/files/{fileId}", h.handleDownload)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireAdmin)
		r.Get("/admin/applications/{id}", h.handleGet)
		r.Patch("/admin/applications/{id}", h.handleUpdate)
		r.Post("/applications/{id}/contract", h.handleContract)
		r.Delete("/files/{fileId}", h.handlePurge)
	})
}

// authOrAdmin accepts either credential: the admin token when the header is
// present, otherwise a bearer token.
func (h *Handler) authOrAdmin(next http.Handler) http.Handler {
	viaAdmin := h.requireAdmin(next)
	viaAuth := h.requireAuth(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(adminmw.HeaderAdminToken) != "" {
			viaAdmin.ServeHTTP(w, r)
			return
		}
		viaAuth.ServeHTTP(w, r)
	})
}

// fail logs and writes err. Server-side failures log at error level.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	status := dErrors.ToHTTPStatus(dErrors.CodeOf(err))
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, op+" failed",
		"request_id", request.GetRequestID(ctx),
		"status", status,
		"error", err,
	)
	httputil.WriteError(w, err)
}

func (h *Handler) readForm(w http.ResponseWriter, r *http.Request) (*transfer.Form, error) {
	return transfer.ReadForm(w, r, h.maxBody, transfer.DefaultMaxMemory)
}

func applicationID(r *http.Request) (id.ApplicationID, error) {
	return id.ParseApplicationID(chi.URLParam(r, "id"))
}

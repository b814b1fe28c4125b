package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"hrportal/internal/application/models"
	"hrportal/internal/application/service"
	"hrportal/internal/transfer"
	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
	"hrportal/pkg/platform/httputil"
)

var submitSlots = map[string]models.Slot{
	"resume":            models.SlotResume,
	"applicationLetter": models.SlotApplicationLetter,
	"supportingDocs":    models.SlotSupportingDocs,
}

var requestedDocsSlots = map[string]models.Slot{
	"validId":      models.SlotValidID,
	"portfolio":    models.SlotPortfolio,
	"certificates": models.SlotCertificates,
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	form, err := h.readForm(w, r)
	if err != nil {
		h.fail(w, r, "submit application", err)
		return
	}
	defer form.RemoveAll()

	jobID, err := id.ParseJobID(form.Value("jobId"))
	if err != nil {
		h.fail(w, r, "submit application", err)
		return
	}
	files, err := uploads(form, submitSlots)
	if err != nil {
		h.fail(w, r, "submit application", err)
		return
	}

	app, err := h.svc.Submit(r.Context(), service.CallerFromContext(r.Context()), service.SubmitRequest{
		JobID: jobID,
		Info: models.CandidateInfo{
			FullName:    form.Value("fullName"),
			Email:       form.Value("email"),
			CoverLetter: form.Value("coverLetter"),
		},
		Files: files,
	})
	if err != nil {
		h.fail(w, r, "submit application", err)
		return
	}
	w.Header().Set("Location", "/applications/"+app.ID.String())
	httputil.WriteJSON(w, http.StatusCreated, app)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.ListFilter{JobID: id.JobID(q.Get("jobId"))}
	var err error
	if filter.Page, err = intParam(q.Get("page")); err != nil {
		h.fail(w, r, "list applications", err)
		return
	}
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		h.fail(w, r, "list applications", err)
		return
	}
	page, err := h.svc.List(r.Context(), service.CallerFromContext(r.Context()), filter)
	if err != nil {
		h.fail(w, r, "list applications", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	appID, err := applicationID(r)
	if err != nil {
		h.fail(w, r, "get application", err)
		return
	}
	app, err := h.svc.Get(r.Context(), service.CallerFromContext(r.Context()), appID)
	if err != nil {
		h.fail(w, r, "get application", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
}

type updateRequest struct {
	Status                *string `json:"status"`
	RequestedDocsApproved *bool   `json:"requestedDocsApproved"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	appID, err := applicationID(r)
	if err != nil {
		h.fail(w, r, "update application", err)
		return
	}
	var body updateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		h.fail(w, r, "update application", dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	req := service.UpdateRequest{RequestedDocsApproved: body.RequestedDocsApproved}
	if body.Status != nil {
		st, err := models.ParseStatus(*body.Status)
		if err != nil {
			h.fail(w, r, "update application", err)
			return
		}
		req.Status = &st
	}

	app, err := h.svc.UpdateApplication(r.Context(), service.CallerFromContext(r.Context()), appID, req)
	if err != nil {
		h.fail(w, r, "update application", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
}

func (h *Handler) handleRequestedDocs(w http.ResponseWriter, r *http.Request) {
	appID, err := applicationID(r)
	if err != nil {
		h.fail(w, r, "upload requested documents", err)
		return
	}
	form, err := h.readForm(w, r)
	if err != nil {
		h.fail(w, r, "upload requested documents", err)
		return
	}
	defer form.RemoveAll()

	files, err := uploads(form, requestedDocsSlots)
	if err != nil {
		h.fail(w, r, "upload requested documents", err)
		return
	}
	app, err := h.svc.SubmitRequestedDocs(r.Context(), service.CallerFromContext(r.Context()), appID, files)
	if err != nil {
		h.fail(w, r, "upload requested documents", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
}

func (h *Handler) handleContract(w http.ResponseWriter, r *http.Request) {
	h.handleSingleFile(w, r, "upload contract", "contract", h.svc.UploadContract)
}

func (h *Handler) handleSignedContract(w http.ResponseWriter, r *http.Request) {
	h.handleSingleFile(w, r, "upload signed contract", "signedContract", h.svc.UploadSignedContract)
}

type singleFileOp func(ctx context.Context, caller service.Caller, appID id.ApplicationID, file service.Upload) (*models.Application, error)

// handleSingleFile accepts the file under field or the generic "file" field.
func (h *Handler) handleSingleFile(w http.ResponseWriter, r *http.Request, op, field string, call singleFileOp) {
	appID, err := applicationID(r)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	form, err := h.readForm(w, r)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	defer form.RemoveAll()

	parts := append(form.PartsFor(field), form.PartsFor("file")...)
	if len(parts) != 1 {
		h.fail(w, r, op, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("exactly one %s file is required", field)))
		return
	}
	app, err := call(r.Context(), service.CallerFromContext(r.Context()), appID, toUpload(parts[0], ""))
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
}

// uploads maps form fields to slots. Unknown file fields are rejected.
func uploads(form *transfer.Form, slots map[string]models.Slot) ([]service.Upload, error) {
	out := make([]service.Upload, 0, len(form.Parts))
	for _, p := range form.Parts {
		slot, ok := slots[p.Field]
		if !ok {
			return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unexpected file field %q", p.Field))
		}
		out = append(out, toUpload(p, slot))
	}
	return out, nil
}

func toUpload(p transfer.Part, slot models.Slot) service.Upload {
	u := service.Upload{Open: p.Open}
	u.Slot = slot
	u.Filename = p.Filename
	u.ContentType = p.ContentType
	u.Size = p.Size
	return u
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("invalid number %q", raw))
	}
	return n, nil
}

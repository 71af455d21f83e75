// Package handler wires the bond lifecycle onto HTTP. Handlers stay thin:
// decode, call the service, translate the coded error, and note the action
// in the activity log.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"fidelis/internal/bond/models"
	"fidelis/internal/bond/service"
	"fidelis/internal/bond/status"
	"fidelis/internal/bulkimport"
	"fidelis/internal/document"
	"fidelis/internal/export"
	"fidelis/internal/history"
	"fidelis/pkg/domain"
	dErrors "fidelis/pkg/domain-errors"
	"fidelis/pkg/platform/httputil"
)

// maxUploadBytes caps multipart request memory.
const maxUploadBytes = 32 << 20

// BondService is the lifecycle surface the handler consumes.
type BondService interface {
	Create(ctx context.Context, in models.Input, idempotencyKey string) (*service.View, error)
	Get(ctx context.Context, id domain.BondID) (*service.View, error)
	List(ctx context.Context, filter service.ListFilter) ([]service.View, error)
	Update(ctx context.Context, id domain.BondID, in models.Input) (*service.View, error)
	Archive(ctx context.Context, id domain.BondID) error
	Restore(ctx context.Context, id domain.BondID) error
	Renew(ctx context.Context, id domain.BondID) (*service.View, error)
	Delete(ctx context.Context, id domain.BondID) error
	History(ctx context.Context, id domain.BondID) ([]history.Entry, error)
}

// DocumentService is the document surface the handler consumes.
type DocumentService interface {
	Upload(ctx context.Context, bondID domain.BondID, docType domain.DocumentType, up document.Upload) (*document.Document, error)
	ListByBond(ctx context.Context, bondID domain.BondID) ([]document.Document, error)
	ListByType(ctx context.Context, bondID domain.BondID, docType domain.DocumentType) ([]document.Document, error)
	Delete(ctx context.Context, id domain.DocumentID) error
	Reconcile(ctx context.Context, bondID domain.BondID, docType domain.DocumentType, keepNames []string, newFiles []document.Upload) (*document.ReconcileSummary, error)
}

// Importer runs a bulk import stream.
type Importer interface {
	ImportFile(ctx context.Context, r io.Reader) (*bulkimport.Summary, error)
}

// ActivityRecorder notes actions for the activity log. Best-effort.
type ActivityRecorder interface {
	Emit(ctx context.Context, action, entity, entityID string)
}

// Handler serves the bond API.
type Handler struct {
	bonds     BondService
	documents DocumentService
	importer  Importer
	activity  ActivityRecorder
	logger    *slog.Logger
}

// New constructs a bond handler with its dependencies.
func New(bonds BondService, documents DocumentService, importer Importer, activity ActivityRecorder, logger *slog.Logger) *Handler {
	return &Handler{
		bonds:     bonds,
		documents: documents,
		importer:  importer,
		activity:  activity,
		logger:    logger,
	}
}

// Register mounts the bond endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/bonds", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/export", h.HandleExport)
		r.Post("/import", h.HandleImport)

		r.Route("/{bondID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Put("/", h.HandleUpdate)
			r.Delete("/", h.HandleDelete)
			r.Post("/archive", h.HandleArchive)
			r.Post("/restore", h.HandleRestore)
			r.Post("/renew", h.HandleRenew)
			r.Get("/history", h.HandleHistory)
			r.Post("/documents", h.HandleDocumentUpload)
			r.Get("/documents", h.HandleDocumentList)
		})
	})
	r.Delete("/documents/{documentID}", h.HandleDocumentDelete)
}

func (h *Handler) bondID(w http.ResponseWriter, r *http.Request) (domain.BondID, bool) {
	id, err := domain.ParseBondID(chi.URLParam(r, "bondID"))
	if err != nil {
		httputil.WriteError(w, err)
		return domain.BondID{}, false
	}
	return id, true
}

// HandleCreate handles POST /bonds. A JSON body creates a bare bond. A
// multipart body carries the field values in a "bond" part plus initial
// attachments in file parts named after their document type.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		h.createWithAttachments(w, r)
		return
	}

	ctx := r.Context()
	in, ok := httputil.Decode[models.Input](w, r, h.logger)
	if !ok {
		return
	}

	view, err := h.bonds.Create(ctx, in, r.Header.Get("Idempotency-Key"))
	if err != nil {
		h.logger.ErrorContext(ctx, "bond create failed", "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.activity.Emit(ctx, "bond.create", "bond", view.ID.String())
	httputil.WriteJSON(w, http.StatusCreated, view)
}

// createResponse answers a multipart create: the bond plus the per-file
// outcome of each attachment.
type createResponse struct {
	Bond      *service.View          `json:"bond"`
	Documents []document.Document    `json:"documents,omitempty"`
	Failures  []document.ItemFailure `json:"failures,omitempty"`
}

func (h *Handler) createWithAttachments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed multipart body"))
		return
	}
	var in models.Input
	if err := json.Unmarshal([]byte(r.FormValue("bond")), &in); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed bond payload"))
		return
	}

	view, err := h.bonds.Create(ctx, in, r.Header.Get("Idempotency-Key"))
	if err != nil {
		h.logger.ErrorContext(ctx, "bond create failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	h.activity.Emit(ctx, "bond.create", "bond", view.ID.String())

	// Attachments land after the bond row and its history entry. A failed
	// file never undoes the create; it is reported per file instead.
	resp := createResponse{Bond: view}
	for _, docType := range domain.DocumentTypes {
		for _, header := range r.MultipartForm.File[string(docType)] {
			doc, err := h.uploadPart(ctx, view.ID, docType, header)
			if err != nil {
				h.logger.WarnContext(ctx, "attachment upload failed",
					"bond_id", view.ID.String(), "file", header.Filename, "error", err)
				resp.Failures = append(resp.Failures, document.ItemFailure{
					Name: header.Filename, Op: "upload", Err: err.Error(),
				})
				continue
			}
			h.activity.Emit(ctx, "document.upload", "document", doc.ID.String())
			resp.Documents = append(resp.Documents, *doc)
		}
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) uploadPart(ctx context.Context, bondID domain.BondID, docType domain.DocumentType, header *multipart.FileHeader) (*document.Document, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return h.documents.Upload(ctx, bondID, docType, document.Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	})
}

// HandleList handles GET /bonds.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := listFilterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	views, err := h.bonds.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "bond list failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"bonds": views})
}

// HandleExport handles GET /bonds/export.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := listFilterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	views, err := h.bonds.List(ctx, filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var columns []string
	if raw := strings.TrimSpace(r.URL.Query().Get("columns")); raw != "" {
		columns = strings.Split(raw, ",")
	}
	projection, err := export.Project(views, columns)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, projection)
}

// HandleGet handles GET /bonds/{bondID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bondID(w, r)
	if !ok {
		return
	}
	view, err := h.bonds.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// updateRequest is the PUT /bonds/{id} body: new field values plus, per
// document type, the display names to keep. Unkept documents of a listed
// type are deleted after the field update lands.
type updateRequest struct {
	Bond      models.Input `json:"bond"`
	Documents []struct {
		Type string   `json:"type"`
		Keep []string `json:"keep"`
	} `json:"documents,omitempty"`
}

type updateResponse struct {
	Bond      *service.View                         `json:"bond"`
	Documents map[string]*document.ReconcileSummary `json:"documents,omitempty"`
}

// HandleUpdate handles PUT /bonds/{bondID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.bondID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[updateRequest](w, r, h.logger)
	if !ok {
		return
	}

	view, err := h.bonds.Update(ctx, id, req.Bond)
	if err != nil {
		h.logger.ErrorContext(ctx, "bond update failed", "bond_id", id.String(), "error", err)
		httputil.WriteError(w, err)
		return
	}

	resp := updateResponse{Bond: view}
	for _, docs := range req.Documents {
		docType, err := domain.ParseDocumentType(docs.Type)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		summary, err := h.documents.Reconcile(ctx, id, docType, docs.Keep, nil)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		if resp.Documents == nil {
			resp.Documents = make(map[string]*document.ReconcileSummary)
		}
		resp.Documents[string(docType)] = summary
	}

	h.activity.Emit(ctx, "bond.update", "bond", id.String())
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleDelete handles DELETE /bonds/{bondID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.bondID(w, r)
	if !ok {
		return
	}
	if err := h.bonds.Delete(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "bond delete failed", "bond_id", id.String(), "error", err)
		httputil.WriteError(w, err)
		return
	}
	h.activity.Emit(ctx, "bond.delete", "bond", id.String())
	w.WriteHeader(http.StatusNoContent)
}

// HandleArchive handles POST /bonds/{bondID}/archive.
func (h *Handler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, true)
}

// HandleRestore handles POST /bonds/{bondID}/restore.
func (h *Handler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, false)
}

func (h *Handler) setArchived(w http.ResponseWriter, r *http.Request, archived bool) {
	ctx := r.Context()
	id, ok := h.bondID(w, r)
	if !ok {
		return
	}
	action, mutate := "bond.restore", h.bonds.Restore
	if archived {
		action, mutate = "bond.archive", h.bonds.Archive
	}
	if err := mutate(ctx, id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.activity.Emit(ctx, action, "bond", id.String())
	w.WriteHeader(http.StatusNoContent)
}

// HandleRenew handles POST /bonds/{bondID}/renew.
func (h *Handler) HandleRenew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.bondID(w, r)
	if !ok {
		return
	}
	view, err := h.bonds.Renew(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.activity.Emit(ctx, "bond.renew", "bond", id.String())
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleHistory handles GET /bonds/{bondID}/history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bondID(w, r)
	if !ok {
		return
	}
	entries, err := h.bonds.History(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"history": entries})
}

// HandleDocumentUpload handles POST /bonds/{bondID}/documents.
func (h *Handler) HandleDocumentUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.bondID(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed multipart body"))
		return
	}
	docType, err := domain.ParseDocumentType(r.FormValue("type"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "file is required"))
		return
	}
	defer file.Close()

	doc, err := h.documents.Upload(ctx, id, docType, document.Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "document upload failed", "bond_id", id.String(), "error", err)
		httputil.WriteError(w, err)
		return
	}
	h.activity.Emit(ctx, "document.upload", "document", doc.ID.String())
	httputil.WriteJSON(w, http.StatusCreated, doc)
}

// HandleDocumentList handles GET /bonds/{bondID}/documents.
func (h *Handler) HandleDocumentList(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bondID(w, r)
	if !ok {
		return
	}

	var (
		docs []document.Document
		err  error
	)
	if raw := r.URL.Query().Get("type"); raw != "" {
		docType, perr := domain.ParseDocumentType(raw)
		if perr != nil {
			httputil.WriteError(w, perr)
			return
		}
		docs, err = h.documents.ListByType(r.Context(), id, docType)
	} else {
		docs, err = h.documents.ListByBond(r.Context(), id)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// HandleDocumentDelete handles DELETE /documents/{documentID}.
func (h *Handler) HandleDocumentDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.documents.Delete(ctx, id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.activity.Emit(ctx, "document.delete", "document", id.String())
	w.WriteHeader(http.StatusNoContent)
}

// HandleImport handles POST /bonds/import. A sheet with failing rows still
// answers 200: the summary body reports per-row outcomes.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed multipart body"))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "file is required"))
		return
	}
	defer file.Close()

	summary, err := h.importer.ImportFile(ctx, file)
	if err != nil {
		h.logger.ErrorContext(ctx, "bulk import failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	h.activity.Emit(ctx, "bond.import", "bond", "")
	h.logger.InfoContext(ctx, "bulk import finished",
		"total", summary.Total, "succeeded", summary.Succeeded, "failed", summary.Failed)
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func listFilterFromQuery(r *http.Request) (service.ListFilter, error) {
	var filter service.ListFilter
	q := r.URL.Query()

	switch q.Get("archived") {
	case "":
	case "true":
		v := true
		filter.Archived = &v
	case "false":
		v := false
		filter.Archived = &v
	default:
		return filter, dErrors.New(dErrors.CodeValidation, "archived must be true or false")
	}

	if raw := q.Get("status"); raw != "" {
		st := status.Status(strings.ToUpper(raw))
		switch st {
		case status.StatusValid, status.StatusExpireSoon, status.StatusExpired:
			filter.Status = st
		default:
			return filter, dErrors.Newf(dErrors.CodeValidation, "unknown status %q", raw)
		}
	}

	filter.Query = strings.TrimSpace(q.Get("q"))
	return filter, nil
}

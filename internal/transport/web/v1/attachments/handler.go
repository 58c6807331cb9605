package attachments

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/etendosoftware/workspace-gateway/internal/attachment"
	"github.com/etendosoftware/workspace-gateway/internal/domain"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/logx"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/mw"
	v1 "github.com/etendosoftware/workspace-gateway/internal/transport/web/v1"
)

// MaxUpload caps multipart uploads.
const MaxUpload = 64 << 20

type Handler struct {
	Log     *zap.Logger
	Service *attachment.Service
}

func ref(r *http.Request) attachment.Ref {
	q := r.URL.Query()
	return attachment.Ref{TabID: q.Get("tabId"), RecordID: q.Get("recordId")}
}

// List godoc
// @Summary     Attachments of a record
// @Tags        attachments
// @Produce     json
// @Security    BearerAuth
// @Param       tabId    query string true "tab id"
// @Param       recordId query string true "record id"
// @Success     200 {object} domain.APIEnvelope{data=[]domain.Attachment}
// @Router      /api/attachments [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "attachments.list"
	list, err := h.Service.List(r.Context(), v1.Session(r), ref(r))
	if err != nil {
		logx.Error(h.Log, mw.RequestIDFromCtx(r.Context()), op, "list failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	v1.WriteOKData(w, r, list)
}

// Upload godoc
// @Summary     Attach a file to a record
// @Tags        attachments
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       tabId       query    string true  "tab id"
// @Param       recordId    query    string true  "record id"
// @Param       orgId       query    string false "document organization"
// @Param       description query    string false "description"
// @Param       file        formData file   true  "file"
// @Success     200 {object} domain.APIEnvelope{data=domain.Attachment}
// @Failure     400 {object} domain.APIEnvelope
// @Router      /api/attachments [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	const op = "attachments.upload"
	reqID := mw.RequestIDFromCtx(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, MaxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logx.Warn(h.Log, reqID, op, "invalid multipart", "err", err.Error())
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		logx.Warn(h.Log, reqID, op, "missing file", "err", err.Error())
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		v1.WriteDomainError(w, r, fmt.Errorf("%w: read file: %v", domain.ErrBadParams, err))
		return
	}

	q := r.URL.Query()
	att, err := h.Service.Upload(r.Context(), v1.Session(r), ref(r), attachment.UploadInput{
		OrgID:       q.Get("orgId"),
		Description: q.Get("description"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		logx.Error(h.Log, reqID, op, "upload failed", err, "file", header.Filename)
		v1.WriteDomainError(w, r, err)
		return
	}
	logx.Info(h.Log, reqID, op, "ok", "attachment_id", att.ID, "size", len(data))
	v1.WriteOKData(w, r, att)
}

type editRequest struct {
	Description string `json:"description"`
}

func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	const op = "attachments.edit"
	var req editRequest
	if err := v1.DecodeJSON(w, r, 16<<10, &req); err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	id := r.PathValue("id")
	if err := h.Service.Edit(r.Context(), v1.Session(r), r.URL.Query().Get("tabId"), id, req.Description); err != nil {
		logx.Error(h.Log, mw.RequestIDFromCtx(r.Context()), op, "edit failed", err, "attachment_id", id)
		v1.WriteDomainError(w, r, err)
		return
	}
	v1.WriteOKResponse(w, r, map[string]string{"id": id})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "attachments.delete"
	id := r.PathValue("id")
	if err := h.Service.Delete(r.Context(), v1.Session(r), id); err != nil {
		logx.Error(h.Log, mw.RequestIDFromCtx(r.Context()), op, "delete failed", err, "attachment_id", id)
		v1.WriteDomainError(w, r, err)
		return
	}
	v1.WriteOKResponse(w, r, map[string]any{"deleted": true, "id": id})
}

func (h *Handler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	const op = "attachments.delete_all"
	if err := h.Service.DeleteAll(r.Context(), v1.Session(r), ref(r)); err != nil {
		logx.Error(h.Log, mw.RequestIDFromCtx(r.Context()), op, "delete all failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	v1.WriteOKResponse(w, r, map[string]bool{"deleted": true})
}

// Download godoc
// @Summary     Download one attachment
// @Tags        attachments
// @Produce     octet-stream
// @Security    BearerAuth
// @Param       id path string true "attachment id"
// @Success     200 {file} file
// @Failure     404 {object} domain.APIEnvelope
// @Router      /api/attachments/{id}/download [get]
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	f, err := h.Service.Download(r.Context(), v1.Session(r), r.PathValue("id"))
	h.serveFile(w, r, "attachments.download", f, err)
}

func (h *Handler) DownloadAll(w http.ResponseWriter, r *http.Request) {
	f, err := h.Service.DownloadAll(r.Context(), v1.Session(r), ref(r))
	h.serveFile(w, r, "attachments.download_all", f, err)
}

func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, op string, f attachment.File, err error) {
	reqID := mw.RequestIDFromCtx(r.Context())
	if err != nil {
		logx.Error(h.Log, reqID, op, "download failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	defer f.Body.Close()

	ct := f.Info.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	if f.Info.FileName != "" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Info.FileName}))
	}
	if f.Info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(f.Info.Size, 10))
	}
	if f.FromMirror {
		w.Header().Set("X-Cache", "HIT")
	}
	w.WriteHeader(http.StatusOK)
	n, _ := io.Copy(w, f.Body)
	logx.Info(h.Log, reqID, op, "ok", "bytes", n, "mirror", f.FromMirror)
}

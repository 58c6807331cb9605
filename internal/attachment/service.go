// Package attachment proxies the ERP attachment servlet and keeps a copy of
// every file it sees in an optional object store.
package attachment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
	"github.com/etendosoftware/workspace-gateway/internal/erp"
)

const (
	Servlet = "sws/com.etendoerp.metadata.attachments"

	descriptionPrefix = "Description: "
	mirrorPrefix      = "attachments/"
)

// Mirror is the object store behind downloads. Implemented by infra/storage/s3.
type Mirror interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType, fileName string) error
	Get(ctx context.Context, key string) (io.ReadCloser, domain.BlobInfo, error)
	Delete(ctx context.Context, key string) error
}

type Ref struct {
	TabID    string
	RecordID string
}

func (r Ref) valid() bool { return domain.ValidID(r.TabID) && domain.ValidID(r.RecordID) }

type UploadInput struct {
	OrgID       string
	Description string
	FileName    string
	ContentType string
	Data        []byte
}

// File is a downloaded attachment. Callers close Body.
type File struct {
	Body       io.ReadCloser
	Info       domain.BlobInfo
	FromMirror bool
}

type Service struct {
	erp    *erp.Client
	mirror Mirror
	log    *zap.Logger
}

// New builds the service; mirror may be nil.
func New(ec *erp.Client, mirror Mirror, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{erp: ec, mirror: mirror, log: log}
}

func (s *Service) List(ctx context.Context, sess domain.Session, ref Ref) ([]domain.Attachment, error) {
	if !ref.valid() {
		return nil, fmt.Errorf("%w: tabId and recordId required", domain.ErrBadParams)
	}
	q := url.Values{"command": {"LIST"}, "tabId": {ref.TabID}, "recordId": {ref.RecordID}}
	resp, err := s.erp.ForSession(sess).Get(ctx, Servlet, erp.Query(q))
	if err != nil {
		return nil, err
	}
	if err := resp.Err("attachment list"); err != nil {
		return nil, err
	}
	var out struct {
		Attachments []domain.Attachment `json:"attachments"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode attachments: %v", domain.ErrUpstream, err)
	}
	list := out.Attachments
	if list == nil {
		list = []domain.Attachment{}
	}
	for i := range list {
		list[i].Description = strings.TrimPrefix(list[i].Description, descriptionPrefix)
	}
	return list, nil
}

// Upload sends the file as multipart and returns the newest attachment of
// the record afterwards.
func (s *Service) Upload(ctx context.Context, sess domain.Session, ref Ref, in UploadInput) (domain.Attachment, error) {
	if !ref.valid() || in.FileName == "" {
		return domain.Attachment{}, fmt.Errorf("%w: tabId, recordId and file required", domain.ErrBadParams)
	}

	body, ct, err := multipartBody(in)
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("%w: multipart: %v", domain.ErrBadParams, err)
	}
	q := url.Values{"command": {"UPLOAD"}, "tabId": {ref.TabID}, "recordId": {ref.RecordID}, "orgId": {in.OrgID}}
	if in.Description != "" {
		q.Set("description", in.Description)
	}
	resp, err := s.erp.ForSession(sess).Post(ctx, Servlet, body, erp.Query(q), erp.ContentType(ct))
	if err != nil {
		return domain.Attachment{}, err
	}
	if err := resp.Err("attachment upload"); err != nil {
		return domain.Attachment{}, err
	}

	list, err := s.List(ctx, sess, ref)
	if err != nil {
		return domain.Attachment{}, err
	}
	if len(list) == 0 {
		return domain.Attachment{}, nil
	}
	att := list[len(list)-1]
	s.store(ctx, att.ID, in.Data, in.ContentType, in.FileName)
	return att, nil
}

func (s *Service) Edit(ctx context.Context, sess domain.Session, tabID, id, description string) error {
	if !domain.ValidID(tabID) || !domain.ValidID(id) {
		return fmt.Errorf("%w: tabId and attachmentId required", domain.ErrBadParams)
	}
	q := url.Values{"command": {"EDIT"}, "tabId": {tabID}, "attachmentId": {id}}
	resp, err := s.erp.ForSession(sess).Post(ctx, Servlet, map[string]string{"description": description}, erp.Query(q))
	if err != nil {
		return err
	}
	return resp.Err("attachment edit")
}

func (s *Service) Delete(ctx context.Context, sess domain.Session, id string) error {
	if !domain.ValidID(id) {
		return fmt.Errorf("%w: attachmentId required", domain.ErrBadParams)
	}
	q := url.Values{"command": {"DELETE"}, "attachmentId": {id}}
	resp, err := s.erp.ForSession(sess).Post(ctx, Servlet, map[string]any{}, erp.Query(q))
	if err != nil {
		return err
	}
	if err := resp.Err("attachment delete"); err != nil {
		return err
	}
	s.forget(ctx, id)
	return nil
}

func (s *Service) DeleteAll(ctx context.Context, sess domain.Session, ref Ref) error {
	list, err := s.List(ctx, sess, ref)
	if err != nil {
		return err
	}
	q := url.Values{"command": {"DELETE_ALL"}, "tabId": {ref.TabID}, "recordId": {ref.RecordID}}
	resp, err := s.erp.ForSession(sess).Post(ctx, Servlet, map[string]any{}, erp.Query(q))
	if err != nil {
		return err
	}
	if err := resp.Err("attachment delete all"); err != nil {
		return err
	}
	for _, a := range list {
		s.forget(ctx, a.ID)
	}
	return nil
}

// Download serves the mirrored copy when there is one, else fetches the
// file from the ERP and mirrors it.
func (s *Service) Download(ctx context.Context, sess domain.Session, id string) (File, error) {
	if !domain.ValidID(id) {
		return File{}, fmt.Errorf("%w: attachmentId required", domain.ErrBadParams)
	}
	if s.mirror != nil {
		rc, info, err := s.mirror.Get(ctx, mirrorPrefix+id)
		if err == nil {
			return File{Body: rc, Info: info, FromMirror: true}, nil
		}
		s.log.Debug("mirror miss", zap.String("attachment_id", id), zap.Error(err))
	}

	q := url.Values{"command": {"DOWNLOAD"}, "attachmentId": {id}}
	f, err := s.fetch(ctx, sess, q, "attachment download")
	if err != nil {
		return File{}, err
	}
	s.store(ctx, id, f.raw, f.Info.ContentType, f.Info.FileName)
	return f.File, nil
}

// DownloadAll returns the ZIP the ERP builds for a record. It is not mirrored.
func (s *Service) DownloadAll(ctx context.Context, sess domain.Session, ref Ref) (File, error) {
	if !ref.valid() {
		return File{}, fmt.Errorf("%w: tabId and recordId required", domain.ErrBadParams)
	}
	q := url.Values{"command": {"DOWNLOAD_ALL"}, "tabId": {ref.TabID}, "recordId": {ref.RecordID}}
	f, err := s.fetch(ctx, sess, q, "attachment download all")
	if err != nil {
		return File{}, err
	}
	if f.Info.FileName == "" {
		f.Info.FileName = "attachments.zip"
	}
	return f.File, nil
}

type fetched struct {
	File
	raw []byte
}

func (s *Service) fetch(ctx context.Context, sess domain.Session, q url.Values, what string) (fetched, error) {
	resp, err := s.erp.ForSession(sess).Get(ctx, Servlet, erp.Query(q))
	if err != nil {
		return fetched{}, err
	}
	if err := resp.Err(what); err != nil {
		return fetched{}, err
	}
	info := domain.BlobInfo{
		Size:        int64(len(resp.Body)),
		ContentType: resp.Header.Get("Content-Type"),
		FileName:    fileName(resp.Header),
	}
	if info.ContentType == "" {
		info.ContentType = http.DetectContentType(resp.Body)
	}
	return fetched{
		File: File{Body: io.NopCloser(bytes.NewReader(resp.Body)), Info: info},
		raw:  resp.Body,
	}, nil
}

func (s *Service) store(ctx context.Context, id string, data []byte, contentType, name string) {
	if s.mirror == nil || id == "" || data == nil {
		return
	}
	if err := s.mirror.Put(ctx, mirrorPrefix+id, bytes.NewReader(data), int64(len(data)), contentType, name); err != nil {
		s.log.Warn("mirror put failed", zap.String("attachment_id", id), zap.Error(err))
	}
}

func (s *Service) forget(ctx context.Context, id string) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Delete(ctx, mirrorPrefix+id); err != nil {
		s.log.Warn("mirror delete failed", zap.String("attachment_id", id), zap.Error(err))
	}
}

func multipartBody(in UploadInput) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{"name": "file", "filename": in.FileName}))
	ct := in.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(in.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func fileName(h http.Header) string {
	_, params, err := mime.ParseMediaType(h.Get("Content-Disposition"))
	if err != nil {
		return ""
	}
	return params["filename"]
}

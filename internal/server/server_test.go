package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gst-automator/invoice-tracker/constants"
	"github.com/gst-automator/invoice-tracker/internal/common"
	"github.com/gst-automator/invoice-tracker/internal/entity"
	"github.com/gst-automator/invoice-tracker/internal/export"
	"github.com/gst-automator/invoice-tracker/internal/pipeline"
	"github.com/gst-automator/invoice-tracker/internal/repository"
)

// recordingQueue captures enqueued jobs instead of processing them.
type recordingQueue struct {
	jobs []pipeline.Job
}

func (q *recordingQueue) Enqueue(_ context.Context, job pipeline.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) Shutdown(_ context.Context) {}

func newTestServer(t *testing.T) (*gin.Engine, repository.EntryRepository, *recordingQueue) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repository.Open(context.Background(), repository.Config{DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { repository.Close(db, nil) })

	entries := repository.NewEntryRepository(db, nil)
	invoices := repository.NewInvoiceRepository(db, nil)
	queue := &recordingQueue{}

	srv := New(entries, queue, export.NewService(invoices, nil), db, common.ServerConfig{
		Addr:        ":0",
		UploadDir:   t.TempDir(),
		MaxUploadMB: 5,
	}, nil)
	return srv.Router(), entries, queue
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadAcceptsAndEnqueues(t *testing.T) {
	router, entries, queue := newTestServer(t)

	body, contentType := multipartBody(t, "invoice.txt", []byte("Bill No: 42"))
	req := httptest.NewRequest(http.MethodPost, "/api/invoices", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var entry entity.ProcessingEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, "invoice.txt", entry.Filename)
	assert.Equal(t, constants.StatusPending, entry.Status)
	assert.Len(t, entry.Fingerprint, 64)
	assert.EqualValues(t, len("Bill No: 42"), entry.FileSize)

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, entry.ID, queue.jobs[0].EntryID)

	stored, err := entries.GetByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.Fingerprint, stored.Fingerprint)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	router, _, queue := newTestServer(t)

	body, contentType := multipartBody(t, "photo.jpeg", []byte{0xFF, 0xD8})
	req := httptest.NewRequest(http.MethodPost, "/api/invoices", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, queue.jobs)
}

func TestUploadRequiresFileField(t *testing.T) {
	router, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/invoices", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListEntries(t *testing.T) {
	router, entries, _ := newTestServer(t)

	e := &entity.ProcessingEntry{Filename: "a.pdf", SourcePath: "/tmp/a.pdf", Fingerprint: "fp"}
	require.NoError(t, entries.Create(context.Background(), e))

	req := httptest.NewRequest(http.MethodGet, "/api/invoices", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Entries []entity.ProcessingEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "a.pdf", resp.Entries[0].Filename)
}

func TestGetEntryValidation(t *testing.T) {
	router, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/invoices/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/invoices/0b1f7e0a-30dd-4a2d-9a39-0c38e236ab51", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolveDuplicateKeepReenqueues(t *testing.T) {
	router, entries, queue := newTestServer(t)
	ctx := context.Background()

	e := &entity.ProcessingEntry{Filename: "dup.pdf", SourcePath: "/tmp/dup.pdf", Fingerprint: "fp"}
	require.NoError(t, entries.Create(ctx, e))
	require.NoError(t, entries.MarkProcessing(ctx, e.ID))
	require.NoError(t, entries.MarkDuplicateConflict(ctx, e.ID))

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/invoices/%s/resolve", e.ID),
		bytes.NewBufferString(`{"keep": true}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got, err := entries.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusPending, got.Status)
	assert.True(t, got.KeepAnyway)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, e.ID, queue.jobs[0].EntryID)
}

func TestResolveDuplicateDiscard(t *testing.T) {
	router, entries, queue := newTestServer(t)
	ctx := context.Background()

	e := &entity.ProcessingEntry{Filename: "dup.pdf", SourcePath: "/tmp/dup.pdf", Fingerprint: "fp"}
	require.NoError(t, entries.Create(ctx, e))
	require.NoError(t, entries.MarkProcessing(ctx, e.ID))
	require.NoError(t, entries.MarkDuplicateConflict(ctx, e.ID))

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/invoices/%s/resolve", e.ID),
		bytes.NewBufferString(`{"keep": false}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	_, err := entries.GetByID(ctx, e.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Empty(t, queue.jobs)
}

func TestResolveRejectsNonConflictedEntry(t *testing.T) {
	router, entries, _ := newTestServer(t)
	ctx := context.Background()

	e := &entity.ProcessingEntry{Filename: "a.pdf", SourcePath: "/tmp/a.pdf", Fingerprint: "fp"}
	require.NoError(t, entries.Create(ctx, e))

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/invoices/%s/resolve", e.ID),
		bytes.NewBufferString(`{"keep": true}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteEntry(t *testing.T) {
	router, entries, _ := newTestServer(t)
	ctx := context.Background()

	e := &entity.ProcessingEntry{Filename: "a.pdf", SourcePath: "/tmp/does-not-exist.pdf", Fingerprint: "fp"}
	require.NoError(t, entries.Create(ctx, e))

	req := httptest.NewRequest(http.MethodDelete, "/api/invoices/"+e.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, err := entries.GetByID(ctx, e.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestHealthz(t *testing.T) {
	router, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExportEndpoint(t *testing.T) {
	router, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/export", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestUploadRejectsOversizedBody(t *testing.T) {
	router, _, queue := newTestServer(t)

	big := bytes.Repeat([]byte("a"), 6<<20)
	body, contentType := multipartBody(t, "huge.txt", big)
	req := httptest.NewRequest(http.MethodPost, "/api/invoices", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, queue.jobs)
}

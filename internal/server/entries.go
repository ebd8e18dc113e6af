package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gst-automator/invoice-tracker/constants"
	"github.com/gst-automator/invoice-tracker/internal/common"
	"github.com/gst-automator/invoice-tracker/internal/dedup"
	"github.com/gst-automator/invoice-tracker/internal/entity"
	"github.com/gst-automator/invoice-tracker/internal/pipeline"
)

// uploadInvoice accepts one document, stores it under the upload directory,
// and enqueues it for processing. The response carries the PENDING entry; the
// outcome is observed via GET.
func (s *Server) uploadInvoice(c *gin.Context) {
	// MaxMultipartMemory only bounds the in-memory buffer; the body itself
	// is capped here so an oversized upload stops at the limit.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadMB<<20)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("upload exceeds the %d MB limit", s.cfg.MaxUploadMB),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}

	ext := constants.NormalizeExt(filepath.Ext(fileHeader.Filename))
	if !constants.AllowedExt(ext) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("unsupported file type %q, expected pdf or txt", ext),
		})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
		return
	}
	defer src.Close()

	id := uuid.New()
	destPath := filepath.Join(s.cfg.UploadDir, fmt.Sprintf("%s.%s", id, ext))
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		s.internalError(c, "prepare upload dir", err)
		return
	}
	dest, err := os.Create(destPath)
	if err != nil {
		s.internalError(c, "store upload", err)
		return
	}
	size, fingerprint, err := copyAndFingerprint(dest, src)
	if cerr := dest.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(destPath)
		s.internalError(c, "store upload", err)
		return
	}

	entry := &entity.ProcessingEntry{
		ID:          id,
		Filename:    fileHeader.Filename,
		SourcePath:  destPath,
		FileSize:    size,
		Fingerprint: fingerprint,
		Status:      constants.StatusPending,
	}
	if err := s.entries.Create(c.Request.Context(), entry); err != nil {
		_ = os.Remove(destPath)
		s.internalError(c, "create entry", err)
		return
	}

	_ = s.queue.Enqueue(c.Request.Context(), pipeline.Job{
		EntryID:     entry.ID,
		SubmittedAt: time.Now().UTC(),
	})
	c.JSON(http.StatusAccepted, entry)
}

func (s *Server) listEntries(c *gin.Context) {
	entries, err := s.entries.List(c.Request.Context())
	if err != nil {
		s.internalError(c, "list entries", err)
		return
	}
	if entries == nil {
		entries = []*entity.ProcessingEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) getEntry(c *gin.Context) {
	id, ok := s.entryID(c)
	if !ok {
		return
	}
	entry, err := s.entries.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		s.internalError(c, "get entry", err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

type resolveRequest struct {
	Keep bool `json:"keep"`
}

// resolveDuplicate applies the user decision on a conflicted entry. Keeping
// it re-enters the pipeline with the duplicate check disarmed; discarding
// removes the entry and its stored file.
func (s *Server) resolveDuplicate(c *gin.Context) {
	id, ok := s.entryID(c)
	if !ok {
		return
	}
	var req resolveRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be JSON with a boolean 'keep'"})
		return
	}

	entry, err := s.entries.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		s.internalError(c, "get entry", err)
		return
	}
	if entry.Status != constants.StatusDuplicateConflict {
		c.JSON(http.StatusConflict, gin.H{
			"error": fmt.Sprintf("entry is %s, only DUPLICATE_CONFLICT can be resolved", entry.Status),
		})
		return
	}

	if err := s.entries.ResolveDuplicate(c.Request.Context(), id, req.Keep); err != nil {
		s.internalError(c, "resolve duplicate", err)
		return
	}
	if !req.Keep {
		_ = os.Remove(entry.SourcePath)
		c.JSON(http.StatusOK, gin.H{"id": id, "resolution": "discarded"})
		return
	}

	_ = s.queue.Enqueue(c.Request.Context(), pipeline.Job{
		EntryID:     id,
		SubmittedAt: time.Now().UTC(),
	})
	c.JSON(http.StatusOK, gin.H{"id": id, "resolution": "kept"})
}

func (s *Server) deleteEntry(c *gin.Context) {
	id, ok := s.entryID(c)
	if !ok {
		return
	}
	entry, err := s.entries.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		s.internalError(c, "get entry", err)
		return
	}
	if err := s.entries.Delete(c.Request.Context(), id); err != nil {
		s.internalError(c, "delete entry", err)
		return
	}
	_ = os.Remove(entry.SourcePath)
	c.Status(http.StatusNoContent)
}

func (s *Server) entryID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Param("id")
	if err := common.NewValidator().Field("id", raw, common.Required, common.UUID).Error(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return uuid.Nil, false
	}
	id, _ := uuid.Parse(raw)
	return id, true
}

func (s *Server) internalError(c *gin.Context, op string, err error) {
	s.logger.Error("http."+op+".failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// copyAndFingerprint streams the upload to disk while hashing it, so the
// fingerprint covers exactly the stored bytes.
func copyAndFingerprint(dst io.Writer, src io.Reader) (int64, string, error) {
	var buf countingWriter
	fingerprint, err := dedup.FingerprintReader(io.TeeReader(src, io.MultiWriter(dst, &buf)))
	if err != nil {
		return 0, "", err
	}
	return buf.n, fingerprint, nil
}

type countingWriter struct{ n int64 }

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	return len(p), nil
}

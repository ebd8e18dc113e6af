package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// exportXLSX streams the accepted invoices as a workbook attachment.
func (s *Server) exportXLSX(c *gin.Context) {
	xlsx, err := s.export.ExportInvoicesXLSX(c.Request.Context())
	if err != nil {
		s.internalError(c, "export", err)
		return
	}
	filename := fmt.Sprintf("invoices-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, xlsx)
}

package app

import (
	"log"
	"mime"
	"path/filepath"
	"strings"
)

func init() {
	ensureMimeType(".csv", "text/csv; charset=utf-8")
	ensureMimeType(".xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ensureMimeType(".pdf", "application/pdf")
	ensureMimeType(".webp", "image/webp")
	ensureMimeType(".heic", "image/heic")
}

func ensureMimeType(ext, typ string) {
	if mime.TypeByExtension(ext) != "" {
		return
	}
	if err := mime.AddExtensionType(ext, typ); err != nil {
		log.Printf("app: failed to register MIME type for %s: %v", ext, err)
	}
}

// UploadContentType keeps a specific declared type and otherwise guesses from the
// file extension. Browsers often send application/octet-stream for scans.
func UploadContentType(filename, declared string) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if typ := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); typ != "" {
		return typ
	}
	return "application/octet-stream"
}

package upload

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
)

var allowedExt = map[string]bool{
	".json": true,
	".xml":  true,
	".zip":  true,
	".gz":   true,
}

var allowedMime = map[string]bool{
	"application/json":   true,
	"text/xml":           true,
	"application/xml":    true,
	"application/zip":    true,
	"application/x-gzip": true,
	"application/gzip":   true,
}

// ValidateExportBySniff checks the provided filename (extension) and the
// first bytes (head) against the health-export formats we accept. Returns
// the detected mime or an error.
func ValidateExportBySniff(filename string, head []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", errors.New("only JSON, XML, ZIP and GZIP exports are supported")
	}

	detected := http.DetectContentType(head)

	// Block obvious scriptable content regardless of extension
	if strings.HasPrefix(detected, "text/html") || strings.HasPrefix(detected, "application/xhtml") {
		return "", errors.New("invalid file type: HTML content is not allowed")
	}

	// JSON exports sniff as text/plain; Apple Health XML sniffs as text/xml
	if strings.HasPrefix(detected, "text/plain") && (ext == ".json" || ext == ".xml") {
		return detected, nil
	}

	// Compressed exports may come back as octet-stream depending on Go version
	if detected == "application/octet-stream" && (ext == ".zip" || ext == ".gz") {
		return detected, nil
	}

	for mime := range allowedMime {
		if strings.HasPrefix(detected, mime) {
			return detected, nil
		}
	}

	return "", errors.New("the file type is not supported")
}

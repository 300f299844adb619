package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateExportAcceptsJSON(t *testing.T) {
	mime, err := ValidateExportBySniff("export.json", []byte(`{"data":[{"type":"HKQuantityTypeIdentifierStepCount"}]}`))
	assert.NoError(t, err)
	assert.NotEmpty(t, mime)
}

func TestValidateExportAcceptsAppleHealthXML(t *testing.T) {
	head := []byte(`<?xml version="1.0" encoding="UTF-8"?><HealthData locale="en_US">`)
	mime, err := ValidateExportBySniff("export.xml", head)
	assert.NoError(t, err)
	assert.NotEmpty(t, mime)
}

func TestValidateExportAcceptsZipByExtension(t *testing.T) {
	// ZIP magic bytes sniff as application/zip
	head := []byte{0x50, 0x4b, 0x03, 0x04, 0x00, 0x00}
	mime, err := ValidateExportBySniff("export.zip", head)
	assert.NoError(t, err)
	assert.NotEmpty(t, mime)
}

func TestValidateExportRejectsUnknownExtension(t *testing.T) {
	_, err := ValidateExportBySniff("export.exe", []byte("MZ"))
	assert.Error(t, err)
}

func TestValidateExportRejectsHTMLContent(t *testing.T) {
	_, err := ValidateExportBySniff("export.json", []byte("<!DOCTYPE html><html><body>nope</body></html>"))
	assert.Error(t, err)
}

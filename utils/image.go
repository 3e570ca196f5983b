package utils

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// SniffImageType detects the content type from the payload itself and
// reports whether it is an image type the analyzers accept.
func SniffImageType(data []byte) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return ct, supportedImageTypes[ct]
}

// ExtensionFor picks a file extension for an image content type.
func ExtensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	// fallback: use subtype
	if parts := strings.SplitN(contentType, "/", 2); len(parts) == 2 {
		return "." + parts[1]
	}
	return ""
}

// DecodeDataURI splits "data:<mime>;base64,<data>" and decodes the payload.
func DecodeDataURI(uri string) ([]byte, string, error) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, "", fmt.Errorf("invalid data URI")
	}
	meta, data, ok := strings.Cut(uri, ",")
	if !ok {
		return nil, "", fmt.Errorf("invalid data URI")
	}
	mediaType := strings.TrimPrefix(meta, "data:")
	if !strings.HasSuffix(mediaType, ";base64") {
		return nil, "", fmt.Errorf("data URI is not base64 encoded")
	}
	contentType := strings.TrimSuffix(mediaType, ";base64")

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return raw, contentType, nil
}

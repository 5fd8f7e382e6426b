// Package attach converts uploaded files to and from the data URL form in
// which attachments are stored.
package attach

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"mairie/internal/utils"
	"mairie/pkg/types"
)

// MaxSize bounds a single attachment. The whole collection is rewritten on
// every change, so large blobs slow every mutation down.
const MaxSize = 5 << 20

var (
	ErrTooLarge   = errors.New("attachment exceeds maximum size")
	ErrNotDataURL = errors.New("attachment content is not a base64 data URL")
)

// genericMimeType is what browsers send when they do not know better.
const genericMimeType = "application/octet-stream"

// FromReader reads r fully and returns it as an attachment with a fresh id.
// The MIME type comes from mimeType unless it is missing or generic, then
// the file extension, then content sniffing.
func FromReader(name, mimeType string, r io.Reader) (types.Attachment, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return types.Attachment{}, fmt.Errorf("read attachment %s: %w", name, err)
	}

	if len(data) > MaxSize {
		return types.Attachment{}, fmt.Errorf("%w: %s", ErrTooLarge, name)
	}

	if mimeType == "" || mimeType == genericMimeType {
		mimeType = mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	return types.Attachment{
		ID:       utils.NanoIDSize(9),
		Name:     filepath.Base(name),
		MimeType: mimeType,
		Content:  EncodeDataURL(mimeType, data),
	}, nil
}

// FromFile is FromReader over the file at path.
func FromFile(path string) (types.Attachment, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Attachment{}, fmt.Errorf("open attachment: %w", err)
	}
	defer f.Close()

	return FromReader(filepath.Base(path), "", f)
}

func EncodeDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Decode returns the bytes and MIME type held in an attachment's content.
func Decode(att types.Attachment) ([]byte, string, error) {
	header, payload, ok := strings.Cut(att.Content, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, "", ErrNotDataURL
	}

	mimeType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	if mimeType == "" {
		mimeType = att.MimeType
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrNotDataURL, err)
	}

	return data, mimeType, nil
}

// Reader is Decode wrapped for streaming to a response.
func Reader(att types.Attachment) (io.Reader, string, error) {
	data, mimeType, err := Decode(att)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), mimeType, nil
}

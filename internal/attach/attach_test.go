package attach

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mairie/pkg/types"
)

func TestFromReaderRoundTrip(t *testing.T) {
	payload := []byte("%PDF-1.4 fake plan")

	att, err := FromReader("plans/plan.pdf", "", bytes.NewReader(payload))
	require.NoError(t, err)

	assert.NotEmpty(t, att.ID)
	assert.Equal(t, "plan.pdf", att.Name)
	assert.Equal(t, "application/pdf", att.MimeType)
	assert.True(t, strings.HasPrefix(att.Content, "data:application/pdf;base64,"))

	data, mimeType, err := Decode(att)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, "application/pdf", mimeType)
}

func TestFromReaderSniffsUnknownExtension(t *testing.T) {
	att, err := FromReader("notes", "", strings.NewReader("bonjour"))
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", att.MimeType)
}

func TestFromReaderPrefersGivenType(t *testing.T) {
	att, err := FromReader("scan.bin", "image/jpeg", strings.NewReader("jpg"))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", att.MimeType)

	att, err = FromReader("plan.pdf", "application/octet-stream", strings.NewReader("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", att.MimeType)
}

func TestFromReaderRejectsLargeFiles(t *testing.T) {
	_, err := FromReader("big.bin", "", bytes.NewReader(make([]byte, MaxSize+1)))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courrier.txt")
	require.NoError(t, os.WriteFile(path, []byte("Madame, Monsieur"), 0o600))

	att, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "courrier.txt", att.Name)

	r, _, err := Reader(att)
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)
	assert.Equal(t, "Madame, Monsieur", buf.String())
}

func TestDecodeRejectsOpaqueContent(t *testing.T) {
	for _, content := range []string{"", "blob:1234", "data:text/plain,hello", "data:text/plain;base64,@@@"} {
		_, _, err := Decode(types.Attachment{Content: content})
		assert.ErrorIs(t, err, ErrNotDataURL, content)
	}
}

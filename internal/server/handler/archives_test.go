package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bchsol/CryptoDragon/internal/domain"
)

const archiveOwner = "0xcccccccccccccccccccccccccccccccccccccccc"

type fakeBlobReader struct {
	prefix string
	infos  []domain.BlobInfo
	data   map[string][]byte
}

func (f *fakeBlobReader) Get(_ context.Context, path string) (io.ReadCloser, error) {
	d, ok := f.data[path]
	if !ok {
		return nil, fmt.Errorf("s3blob: get %s: %w", path, domain.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(d)), nil
}

func (f *fakeBlobReader) List(_ context.Context, prefix string) ([]domain.BlobInfo, error) {
	f.prefix = prefix
	return f.infos, nil
}

func newArchiveHandler(reader *fakeBlobReader) *ArchiveHandler {
	return NewArchiveHandler(reader,
		func() string { return archiveOwner },
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestListArchivesScopesToOwner(t *testing.T) {
	reader := &fakeBlobReader{infos: []domain.BlobInfo{
		{Path: "snapshots/" + archiveOwner + "/20260830T120000Z.json", Size: 512, LastModified: time.Now()},
	}}
	h := newArchiveHandler(reader)

	w := httptest.NewRecorder()
	h.ListArchives(w, httptest.NewRequest(http.MethodGet, "/api/snapshots", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "snapshots/"+archiveOwner+"/", reader.prefix)
	assert.Contains(t, w.Body.String(), "20260830T120000Z.json")
}

func TestListArchivesEmpty(t *testing.T) {
	h := newArchiveHandler(&fakeBlobReader{})

	w := httptest.NewRecorder()
	h.ListArchives(w, httptest.NewRequest(http.MethodGet, "/api/snapshots", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"snapshots":[]}`, w.Body.String())
}

func TestGetArchive(t *testing.T) {
	body := []byte(`{"owner":"` + archiveOwner + `"}`)
	reader := &fakeBlobReader{data: map[string][]byte{
		"snapshots/" + archiveOwner + "/20260830T120000Z.json": body,
	}}
	h := newArchiveHandler(reader)

	r := httptest.NewRequest(http.MethodGet, "/api/snapshots/20260830T120000Z.json", nil)
	r.SetPathValue("name", "20260830T120000Z.json")

	w := httptest.NewRecorder()
	h.GetArchive(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, body, w.Body.Bytes())
}

func TestGetArchiveNotFound(t *testing.T) {
	h := newArchiveHandler(&fakeBlobReader{})

	r := httptest.NewRequest(http.MethodGet, "/api/snapshots/missing.json", nil)
	r.SetPathValue("name", "missing.json")

	w := httptest.NewRecorder()
	h.GetArchive(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

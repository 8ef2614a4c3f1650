package assets_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-perhiasan/internal/assets"
)

type recordingStore struct {
	target  assets.Target
	names   []string
	deleted []string
}

func (s *recordingStore) Upload(_ context.Context, files []assets.File, target assets.Target) ([]string, error) {
	s.target = target
	urls := make([]string, 0, len(files))
	for i, f := range files {
		_, _ = io.ReadAll(f.Body)
		s.names = append(s.names, f.Name)
		urls = append(urls, assets.PublicURL(target.FileName(f.Name, i+1)))
	}
	return urls, nil
}

func (s *recordingStore) Delete(_ context.Context, urls []string) assets.DeleteSummary {
	s.deleted = append(s.deleted, urls...)
	return assets.DeleteSummary{Total: len(urls), Successful: len(urls)}
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, ct := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="files"; filename="`+name+`"`)
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("img"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestUploadPassesTarget(t *testing.T) {
	store := &recordingStore{}
	h := &assets.Handler{Store: store}
	body, ct := multipartBody(t, map[string]string{"parent": "Rings", "category": "Bands", "itemName": "Halo"},
		map[string]string{"a.jpg": "image/jpeg"})

	req := httptest.NewRequest(http.MethodPost, "/admin/assets", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "Rings", store.target.Parent)
	require.Equal(t, "Bands", store.target.Category)
	require.Equal(t, []string{"a.jpg"}, store.names)

	var resp struct {
		Data struct {
			URLs []string `json:"urls"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, []string{assets.PublicURL("Halo_1.jpg")}, resp.Data.URLs)
}

func TestUploadRejectsNonImages(t *testing.T) {
	h := &assets.Handler{Store: &recordingStore{}}
	body, ct := multipartBody(t, nil, map[string]string{"notes.txt": "text/plain"})
	req := httptest.NewRequest(http.MethodPost, "/admin/assets", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestUploadTooLarge(t *testing.T) {
	h := &assets.Handler{Store: &recordingStore{}, MaxBytes: 64}
	body, ct := multipartBody(t, map[string]string{"itemName": strings.Repeat("x", 200)}, map[string]string{"a.jpg": "image/jpeg"})
	req := httptest.NewRequest(http.MethodPost, "/admin/assets", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUploadWithoutStore(t *testing.T) {
	h := &assets.Handler{}
	rec := httptest.NewRecorder()
	h.Upload(rec, httptest.NewRequest(http.MethodPost, "/admin/assets", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "ASSETS_DISABLED")
}

func TestDeleteAssets(t *testing.T) {
	store := &recordingStore{}
	h := &assets.Handler{Store: store}
	url := assets.PublicURL("abc")
	req := httptest.NewRequest(http.MethodDelete, "/admin/assets", strings.NewReader(`{"urls":["`+url+`"]}`))
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{url}, store.deleted)
	require.Contains(t, rec.Body.String(), `"successful":1`)
}

func TestDeleteAssetsValidates(t *testing.T) {
	h := &assets.Handler{Store: &recordingStore{}}
	rec := httptest.NewRecorder()
	h.Delete(rec, httptest.NewRequest(http.MethodDelete, "/admin/assets", strings.NewReader(`{"urls":[]}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

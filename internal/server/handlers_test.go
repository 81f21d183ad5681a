package server

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mkoeppel/certpress/pkg/config"
	"github.com/mkoeppel/certpress/pkg/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	st := store.NewMemoryStore()
	t.Cleanup(func() { st.Close() })
	return New(config.Default(), st, nil)
}

func templatePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 120, 80))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode template: %v", err)
	}
	return buf.Bytes()
}

func uploadTemplate(t *testing.T, srv *Server) string {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "template.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(templatePNG(t)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/assets", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		AssetID string `json:"asset_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if resp.AssetID == "" {
		t.Fatal("expected non-empty asset_id")
	}
	return resp.AssetID
}

func TestHealthz(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("body = %q, want OK", rec.Body.String())
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	srv := testServer(t)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "notes.txt")
	part.Write([]byte("not an image"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/assets", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRenderSinglePNG(t *testing.T) {
	srv := testServer(t)
	id := uploadTemplate(t, srv)

	body, _ := json.Marshal(map[string]any{
		"asset_id": id,
		"text":     "Ada Lovelace",
		"pos_x":    10,
		"pos_y":    20,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/render", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q, want image/png", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "edited-image.png") {
		t.Errorf("content disposition = %q, want edited-image.png", cd)
	}
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if got := img.Bounds().Dx(); got != 120 {
		t.Errorf("width = %d, want 120", got)
	}
}

func TestRenderUnknownAsset(t *testing.T) {
	srv := testServer(t)
	body, _ := json.Marshal(map[string]any{"asset_id": "no-such-id", "text": "x"})
	req := httptest.NewRequest(http.MethodPost, "/api/render", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRenderMissingAssetID(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/render", strings.NewReader(`{"text":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestBatchFromCSV(t *testing.T) {
	srv := testServer(t)
	id := uploadTemplate(t, srv)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("asset_id", id)
	mw.WriteField("pos_x", "5")
	mw.WriteField("pos_y", "5")
	part, _ := mw.CreateFormFile("csv", "names.csv")
	part.Write([]byte("Name\nAli Hassan\nSara\n"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/batch", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("content type = %q, want application/zip", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "certificates.zip") {
		t.Errorf("content disposition = %q, want certificates.zip", cd)
	}

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	want := []string{"certificate_Ali_Hassan.png", "certificate_Sara.png"}
	if len(zr.File) != len(want) {
		t.Fatalf("entries = %d, want %d", len(zr.File), len(want))
	}
	for i, f := range zr.File {
		if f.Name != want[i] {
			t.Errorf("entry[%d] = %q, want %q", i, f.Name, want[i])
		}
	}
}

func TestBatchFromNamesField(t *testing.T) {
	srv := testServer(t)
	id := uploadTemplate(t, srv)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("asset_id", id)
	mw.WriteField("names", "Omar, Lena")
	mw.WriteField("format", "png")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/batch", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Errorf("entries = %d, want 2", len(zr.File))
	}
}

func TestUploadFromURL(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(templatePNG(t))
	}))
	defer origin.Close()

	srv := testServer(t)
	body, _ := json.Marshal(map[string]string{"image_url": origin.URL + "/template.png"})
	req := httptest.NewRequest(http.MethodPost, "/api/assets", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

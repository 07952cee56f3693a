package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"seefood/internal/pkg/common"
)

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func sampleGIF(t *testing.T) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.Black, color.White})
	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	return buf.Bytes()
}

func dataURI(mime string, b []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(b)
}

func TestDecodeDataURIPassesPNGThrough(t *testing.T) {
	raw := samplePNG(t)
	svc := NewService(1 << 20)

	got, err := svc.Decode(context.Background(), dataURI("image/png", raw))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatal("expected PNG bytes to be returned unchanged")
	}
}

func TestDecodeConvertsGIFToJPEG(t *testing.T) {
	svc := NewService(1 << 20)

	got, err := svc.Decode(context.Background(), dataURI("image/gif", sampleGIF(t)))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(got) < 2 || got[0] != 0xFF || got[1] != 0xD8 {
		t.Fatal("expected JPEG output")
	}
}

func TestDecodeRejectsOversizedImage(t *testing.T) {
	svc := NewService(10)

	_, err := svc.Decode(context.Background(), dataURI("image/png", samplePNG(t)))
	if err == nil || common.AsCustomError(err).Code != common.ErrInvalidImageSize.Code {
		t.Fatalf("expected size error, got %v", err)
	}
}

func TestDecodeRejectsInvalidInput(t *testing.T) {
	svc := NewService(1 << 20)

	cases := []string{
		"",
		"not an image",
		"data:image/png;base64",
		"data:image/png,plain",
		"data:image/png;base64,!!!",
		dataURI("image/png", []byte("definitely not a png")),
	}
	for _, in := range cases {
		_, err := svc.Decode(context.Background(), in)
		if err == nil {
			t.Errorf("Decode(%q) succeeded, want error", in)
			continue
		}
		if code := common.AsCustomError(err).Code; code != common.ErrInvalidImageFormat.Code {
			t.Errorf("Decode(%q) code = %s, want %s", in, code, common.ErrInvalidImageFormat.Code)
		}
	}
}

func TestDecodeDownloadsURL(t *testing.T) {
	raw := samplePNG(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(raw)
	}))
	defer server.Close()

	svc := NewService(1 << 20)
	got, err := svc.Decode(context.Background(), server.URL+"/frame.png")
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatal("downloaded bytes differ")
	}

	if err := svc.Validate(context.Background(), server.URL+"/missing.png"); err == nil {
		t.Fatal("expected error for 404 download")
	}
}

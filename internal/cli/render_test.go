package cli

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/mkoeppel/certpress/pkg/pipeline"
)

func writeTemplate(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 100, 60))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode template: %v", err)
	}
	path := filepath.Join(dir, "template.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	return path
}

func TestWriteArtifactDefaultName(t *testing.T) {
	dir := t.TempDir()
	result := &pipeline.Result{Data: []byte("png bytes"), Filename: "edited-image.png"}

	path, err := writeArtifact(dir, result)
	if err != nil {
		t.Fatalf("writeArtifact: %v", err)
	}
	want := filepath.Join(dir, "edited-image.png")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "png bytes" {
		t.Errorf("artifact content = %q", data)
	}
}

func TestWriteArtifactExplicitFile(t *testing.T) {
	dir := t.TempDir()
	result := &pipeline.Result{Data: []byte("x"), Filename: "edited-image.png"}

	target := filepath.Join(dir, "out", "diploma.png")
	path, err := writeArtifact(target, result)
	if err != nil {
		t.Fatalf("writeArtifact: %v", err)
	}
	if path != target {
		t.Errorf("path = %q, want %q", path, target)
	}
	if _, err := os.Stat(target); err != nil {
		t.Errorf("artifact not written: %v", err)
	}
}

func TestRunRenderSingle(t *testing.T) {
	dir := t.TempDir()
	tpl := writeTemplate(t, dir)

	opts := &renderOpts{
		output:   dir,
		text:     "Grace Hopper",
		fontSize: 24,
		color:    "#112233",
	}
	if err := runRender(context.Background(), tpl, opts); err != nil {
		t.Fatalf("runRender: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "edited-image.png"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("output is not a PNG: %v", err)
	}
}

func TestRunRenderBatchArchive(t *testing.T) {
	dir := t.TempDir()
	tpl := writeTemplate(t, dir)

	opts := &renderOpts{
		output:   dir,
		text:     "Ada, Grace",
		fontSize: 20,
		color:    "#000000",
	}
	if err := runRender(context.Background(), tpl, opts); err != nil {
		t.Fatalf("runRender: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "certificates.zip")); err != nil {
		t.Errorf("archive not written: %v", err)
	}
}

func TestRunRenderMissingImage(t *testing.T) {
	opts := &renderOpts{text: "x", fontSize: 20, color: "#000000"}
	err := runRender(context.Background(), filepath.Join(t.TempDir(), "nope.png"), opts)
	if err == nil {
		t.Fatal("expected error for missing template")
	}
}

package ingest

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fouche-Hugo/draft-together/internal/validation"
)

func writeTarball(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for name, content := range files {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		require.NoError(t, tw.WriteHeader(hdr))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestDecompressTarball_ExtractsFiles(t *testing.T) {
	dir := t.TempDir()
	tarballPath := filepath.Join(dir, "dragontail-14.1.1.tgz")
	require.NoError(t, os.WriteFile(tarballPath, writeTarball(t, map[string]string{
		"14.1.1/data/en_US/championFull.json": `{"data":{}}`,
	}), 0o644))

	outputDir := filepath.Join(dir, "extracted")
	w := newWorker(newFakeCatalogStore(), validation.NewSet())
	require.NoError(t, w.decompressTarball(tarballPath, outputDir))

	data, err := os.ReadFile(filepath.Join(outputDir, "14.1.1", "data", "en_US", "championFull.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{}}`, string(data))
}

func TestDecompressTarball_RejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	tarballPath := filepath.Join(dir, "malicious.tgz")
	require.NoError(t, os.WriteFile(tarballPath, writeTarball(t, map[string]string{
		"../../escape.txt": "gotcha",
	}), 0o644))

	outputDir := filepath.Join(dir, "extracted")
	w := newWorker(newFakeCatalogStore(), validation.NewSet())
	err := w.decompressTarball(tarballPath, outputDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes output directory")
}

func TestDecompressTarball_ResumesFromExistingDir(t *testing.T) {
	dir := t.TempDir()
	tarballPath := filepath.Join(dir, "dragontail-14.1.1.tgz")
	require.NoError(t, os.WriteFile(tarballPath, []byte("not actually gzip"), 0o644))

	outputDir := filepath.Join(dir, "extracted")
	require.NoError(t, os.MkdirAll(outputDir, 0o755))

	w := newWorker(newFakeCatalogStore(), validation.NewSet())
	require.NoError(t, w.decompressTarball(tarballPath, outputDir))
}

func TestEnsureTarball_ResumesFromCache(t *testing.T) {
	dir := t.TempDir()
	cachedPath := filepath.Join(dir, "dragontail-14.1.1.tgz")
	require.NoError(t, os.WriteFile(cachedPath, []byte("cached"), 0o644))

	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		t.Fatal("ensureTarball should not hit the network when the file is already cached")
		return nil, nil
	})}

	w := newWorker(newFakeCatalogStore(), validation.NewSet(), WithHTTPClient(client), WithBaseDir(dir))
	path, err := w.ensureTarball(context.Background(), "14.1.1")
	require.NoError(t, err)
	assert.Equal(t, cachedPath, path)
}

func TestEnsureTarball_Downloads(t *testing.T) {
	dir := t.TempDir()
	body := "tarball-bytes"

	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		require.True(t, strings.Contains(r.URL.String(), "dragontail-14.1.1.tgz"))
		return jsonResponse(body), nil
	})}

	w := newWorker(newFakeCatalogStore(), validation.NewSet(), WithHTTPClient(client), WithBaseDir(dir))
	path, err := w.ensureTarball(context.Background(), "14.1.1")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))
}

func TestExtractChampions_ParsesDefaultSkinAndSortsByID(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "14.1.1", "data", "en_US")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))

	doc := `{"data":{
		"Zed":{"id":"Zed","name":"Zed","image":{"full":"Zed.png"},"skins":[{"name":"default","num":0}]},
		"Ahri":{"id":"Ahri","name":"Ahri","image":{"full":"Ahri.png"},"skins":[{"name":"default","num":0},{"name":"Foxfire Ahri","num":1}]}
	}}`
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "championFull.json"), []byte(doc), 0o644))

	w := newWorker(newFakeCatalogStore(), validation.NewSet())
	entries, err := w.extractChampions(dir, "14.1.1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Ahri", entries[0].riotID)
	assert.Equal(t, "Ahri_0.jpg", entries[0].centeredDefaultSkinImagePath)
	assert.Equal(t, "Zed", entries[1].riotID)
}

func TestCorrectFiddlesticksImageName_RenamesVariant(t *testing.T) {
	dir := t.TempDir()
	variant := filepath.Join(dir, "FiddleSticks_0.jpg")
	require.NoError(t, os.WriteFile(variant, []byte("img"), 0o644))

	expected := filepath.Join(dir, "Fiddlesticks_0.jpg")
	require.NoError(t, correctFiddlesticksImageName(expected))

	_, err := os.Stat(expected)
	require.NoError(t, err)
	_, err = os.Stat(variant)
	assert.True(t, os.IsNotExist(err))
}

func TestCorrectFiddlesticksImageName_NoopWhenCanonicalExists(t *testing.T) {
	dir := t.TempDir()
	expected := filepath.Join(dir, "Fiddlesticks_0.jpg")
	require.NoError(t, os.WriteFile(expected, []byte("img"), 0o644))

	require.NoError(t, correctFiddlesticksImageName(expected))
}

func TestCopyAssets_CopiesBothImagesPerChampion(t *testing.T) {
	dir := t.TempDir()
	defaultDir := filepath.Join(dir, "14.1.1", "img", "champion")
	centeredDir := filepath.Join(dir, "img", "champion", "centered")
	require.NoError(t, os.MkdirAll(defaultDir, 0o755))
	require.NoError(t, os.MkdirAll(centeredDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(defaultDir, "Ahri.png"), []byte("default"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(centeredDir, "Ahri_0.jpg"), []byte("centered"), 0o644))

	outDir := filepath.Join(dir, "assets")
	w := newWorker(newFakeCatalogStore(), validation.NewSet(), WithBaseDir(outDir))
	entries := []championEntry{{riotID: "Ahri", name: "Ahri", defaultSkinImagePath: "Ahri.png", centeredDefaultSkinImagePath: "Ahri_0.jpg"}}
	require.NoError(t, w.copyAssets(dir, "14.1.1", entries))

	data, err := os.ReadFile(filepath.Join(outDir, "assets", "img", "Ahri.png"))
	require.NoError(t, err)
	assert.Equal(t, "default", string(data))

	data, err = os.ReadFile(filepath.Join(outDir, "assets", "img", "Ahri_0.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "centered", string(data))
}

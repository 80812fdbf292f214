package ingest

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Fouche-Hugo/draft-together/internal/logging"
)

// championEntry is one parsed championFull.json record, with asset paths
// still relative to the decompressed tree.
type championEntry struct {
	riotID                       string
	name                         string
	defaultSkinImagePath         string
	centeredDefaultSkinImagePath string
}

// ensureTarball downloads the version's tarball if it is not already cached
// under baseDir, treating an existing file as a resumable checkpoint.
func (w *Worker) ensureTarball(ctx context.Context, version string) (string, error) {
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return "", fmt.Errorf("ingest: create cache dir: %w", err)
	}

	path := filepath.Join(w.baseDir, fmt.Sprintf("dragontail-%s.tgz", version))
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("ingest: stat cached tarball: %w", err)
	}

	url := fmt.Sprintf(tarballURLTemplate, version)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ingest: download tarball: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ingest: download tarball: unexpected status %d", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("ingest: create tarball file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("ingest: write tarball: %w", err)
	}
	return path, nil
}

// decompressTarball unpacks tarballPath into outputDir, treating an already
// present outputDir as a resumable checkpoint from a prior partial run.
func (w *Worker) decompressTarball(tarballPath, outputDir string) error {
	if _, err := os.Stat(outputDir); err == nil {
		return nil
	}

	f, err := os.Open(tarballPath)
	if err != nil {
		return fmt.Errorf("ingest: open tarball: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("ingest: open gzip stream: %w", err)
	}
	defer gz.Close()

	cleanOutputDir := filepath.Clean(outputDir)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("ingest: read tar entry: %w", err)
		}

		target := filepath.Join(cleanOutputDir, filepath.Clean(hdr.Name))
		if target != cleanOutputDir && !strings.HasPrefix(target, cleanOutputDir+string(os.PathSeparator)) {
			return fmt.Errorf("ingest: tar entry %q escapes output directory", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode)&0o777)
			if err != nil {
				return err
			}
			_, copyErr := io.Copy(out, tr)
			closeErr := out.Close()
			if copyErr != nil {
				return fmt.Errorf("ingest: write %s: %w", target, copyErr)
			}
			if closeErr != nil {
				return closeErr
			}
		}
	}
}

type championFullDoc struct {
	Data map[string]struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Image struct {
			Full string `json:"full"`
		} `json:"image"`
		Skins []struct {
			Name string `json:"name"`
			Num  int    `json:"num"`
		} `json:"skins"`
	} `json:"data"`
}

// extractChampions parses the decompressed tree's championFull.json.
func (w *Worker) extractChampions(decompressedDir, version string) ([]championEntry, error) {
	path := filepath.Join(decompressedDir, version, "data", "en_US", "championFull.json")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open champion catalog json: %w", err)
	}
	defer f.Close()

	var doc championFullDoc
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("ingest: decode champion catalog json: %w", err)
	}

	entries := make([]championEntry, 0, len(doc.Data))
	for _, c := range doc.Data {
		num := 0
		for _, skin := range c.Skins {
			if skin.Name == "default" {
				num = skin.Num
				break
			}
		}

		entries = append(entries, championEntry{
			riotID:                       c.ID,
			name:                         c.Name,
			defaultSkinImagePath:         c.Image.Full,
			centeredDefaultSkinImagePath: fmt.Sprintf("%s_%d.jpg", c.ID, num),
		})
	}

	// Deterministic order keeps ingestion output (and its tests) stable.
	sort.Slice(entries, func(i, j int) bool { return entries[i].riotID < entries[j].riotID })
	return entries, nil
}

// copyAssets copies each champion's two image assets out of the
// decompressed tree into the stable output directory.
func (w *Worker) copyAssets(decompressedDir, version string, entries []championEntry) error {
	imageDir := filepath.Join(w.outputDir, "img")
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		return fmt.Errorf("ingest: create asset output dir: %w", err)
	}

	defaultImageDir := filepath.Join(decompressedDir, version, "img", "champion")
	centeredImageDir := filepath.Join(decompressedDir, "img", "champion", "centered")

	for _, e := range entries {
		centeredSrc := filepath.Join(centeredImageDir, e.centeredDefaultSkinImagePath)

		if e.riotID == "Fiddlesticks" {
			if err := correctFiddlesticksImageName(centeredSrc); err != nil {
				return fmt.Errorf("ingest: correct fiddlesticks image: %w", err)
			}
		}

		if err := copyFile(centeredSrc, filepath.Join(imageDir, e.centeredDefaultSkinImagePath)); err != nil {
			return fmt.Errorf("ingest: copy centered asset for %s: %w", e.riotID, err)
		}
		if err := copyFile(filepath.Join(defaultImageDir, e.defaultSkinImagePath), filepath.Join(imageDir, e.defaultSkinImagePath)); err != nil {
			return fmt.Errorf("ingest: copy default asset for %s: %w", e.riotID, err)
		}
	}
	return nil
}

// correctFiddlesticksImageName compensates for an upstream inconsistency:
// some Data Dragon versions spell the centered-skin asset "FiddleSticks".
func correctFiddlesticksImageName(expectedPath string) error {
	if _, err := os.Stat(expectedPath); err == nil {
		return nil
	}

	dir, file := filepath.Split(expectedPath)
	variant := filepath.Join(dir, strings.Replace(file, "Fiddlesticks", "FiddleSticks", 1))
	if _, err := os.Stat(variant); err != nil {
		// Neither spelling exists; the copy step below will surface the error.
		return nil
	}
	return os.Rename(variant, expectedPath)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// cleanupCaches removes the decompressed tree and tarball after a
// successful run. Failures are logged, not returned: a cleanup failure must
// not roll back an already-committed catalog update.
func (w *Worker) cleanupCaches(ctx context.Context, decompressedDir, tarballPath string) {
	if err := os.RemoveAll(decompressedDir); err != nil {
		logging.Warn(ctx, "failed to remove decompressed cache dir", zap.String("dir", decompressedDir), zap.Error(err))
	}
	if err := os.Remove(tarballPath); err != nil {
		logging.Warn(ctx, "failed to remove tarball cache", zap.String("path", tarballPath), zap.Error(err))
	}
}

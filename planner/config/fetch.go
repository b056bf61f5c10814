package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Cogwheel-Validator/spectra-planner/planner/catalog"
	getter "github.com/hashicorp/go-getter"
)

// FetchCatalog downloads a catalog file from src into dstDir and returns the
// local path. src is anything go-getter understands: a local path, an
// http(s) URL or a git repository with a //subpath.
//
// Params:
//   - src: the catalog source, e.g. "https://example.com/catalog.toml" or
//     "github.com/org/repo//catalogs/mainnet.toml"
//   - dstDir: the directory to download the catalog into
//
// Returns:
//   - string: the path of the downloaded file
//   - error: if the catalog cannot be downloaded
func FetchCatalog(ctx context.Context, src, dstDir string) (string, error) {
	if src == "" {
		return "", fmt.Errorf("empty catalog source")
	}
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	pwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	dst := filepath.Join(dstDir, catalogFileName(src))
	client := getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeFile,
	}
	if err := client.Get(); err != nil {
		return "", fmt.Errorf("failed to download catalog from %s: %w", src, err)
	}
	return dst, nil
}

// LoadCatalog fetches src into a temporary directory when it is not a
// plain local file, then loads it.
func LoadCatalog(ctx context.Context, src string) (*catalog.Catalog, error) {
	loader := NewCatalogLoader()
	if info, err := os.Stat(src); err == nil && !info.IsDir() {
		return loader.LoadFromFile(src)
	}

	dir, err := os.MkdirTemp("", "planner-catalog-")
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(dir)
	}()

	path, err := FetchCatalog(ctx, src, dir)
	if err != nil {
		return nil, err
	}
	return loader.LoadFromFile(path)
}

// catalogFileName keeps the source extension so the loader picks the right
// decoder.
func catalogFileName(src string) string {
	switch ext := filepath.Ext(stripQuery(src)); ext {
	case ".json", ".toml":
		return "catalog" + ext
	default:
		return "catalog.toml"
	}
}

func stripQuery(src string) string {
	for i := 0; i < len(src); i++ {
		if src[i] == '?' {
			return src[:i]
		}
	}
	return src
}

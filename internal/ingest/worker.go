// Package ingest runs the two background feeds that keep the champion
// catalog and its role metadata current: a catalog refresh from Riot's Data
// Dragon tarballs, and a role refresh from two community data feeds.
package ingest

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Fouche-Hugo/draft-together/internal/champion"
	"github.com/Fouche-Hugo/draft-together/internal/logging"
	"github.com/Fouche-Hugo/draft-together/internal/metrics"
	"github.com/Fouche-Hugo/draft-together/internal/store"
	"github.com/Fouche-Hugo/draft-together/internal/validation"
)

const (
	versionsURL        = "https://ddragon.leagueoflegends.com/api/versions.json"
	tarballURLTemplate = "https://ddragon.leagueoflegends.com/cdn/dragontail-%s.tgz"

	championRatesURL      = "http://cdn.merakianalytics.com/riot/lol/resources/latest/en-US/championrates.json"
	communityChampionsURL = "https://raw.communitydragon.org/latest/plugins/rcp-be-lol-game-data/global/default/v1/champion-summary.json"

	dataDragonDir = "dragontail"

	defaultCatalogPeriod = time.Hour
	defaultRolePeriod    = 24 * time.Hour
)

// catalogStore is the subset of *store.CatalogStore the worker needs,
// narrowed to a test seam so unit tests can drive Worker against a fake
// store instead of a live Postgres connection.
type catalogStore interface {
	ListChampions(ctx context.Context) ([]champion.Champion, error)
	Upsert(ctx context.Context, c store.ChampionInsertion) error
	SetRoles(ctx context.Context, name, alias string, roles []champion.Role) error
	CurrentVersion(ctx context.Context) (string, bool, error)
	SetCurrentVersion(ctx context.Context, version string) error
}

// Worker runs the catalog refresh and the role refresh as two
// self-restarting loops, each logging and retrying on failure rather than
// aborting the process.
type Worker struct {
	catalog    catalogStore
	validation *validation.Set
	httpClient *http.Client

	catalogPeriod time.Duration
	rolePeriod    time.Duration

	baseDir   string
	outputDir string
}

// Option customizes a Worker; used by tests to shrink periods and point the
// cache/output directories at a temp dir.
type Option func(*Worker)

// WithHTTPClient overrides the HTTP client used for every upstream fetch.
func WithHTTPClient(c *http.Client) Option { return func(w *Worker) { w.httpClient = c } }

// WithPeriods overrides the catalog and role refresh intervals.
func WithPeriods(catalogPeriod, rolePeriod time.Duration) Option {
	return func(w *Worker) {
		w.catalogPeriod = catalogPeriod
		w.rolePeriod = rolePeriod
	}
}

// WithBaseDir overrides the cache directory tarballs and decompressed trees
// live under, and the stable asset output directory derived from it.
func WithBaseDir(dir string) Option {
	return func(w *Worker) {
		w.baseDir = dir
		w.outputDir = filepath.Join(dir, "assets")
	}
}

// NewWorker constructs a Worker with the default 1h/24h refresh periods,
// backed by catalog and the shared validation set it keeps in sync.
func NewWorker(catalog *store.CatalogStore, val *validation.Set, opts ...Option) *Worker {
	return newWorker(catalog, val, opts...)
}

// newWorker accepts the narrowed catalogStore interface, used directly by
// tests to substitute a fake store.
func newWorker(catalog catalogStore, val *validation.Set, opts ...Option) *Worker {
	w := &Worker{
		catalog:       catalog,
		validation:    val,
		httpClient:    &http.Client{Timeout: 2 * time.Minute},
		catalogPeriod: defaultCatalogPeriod,
		rolePeriod:    defaultRolePeriod,
		baseDir:       dataDragonDir,
		outputDir:     filepath.Join(dataDragonDir, "assets"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts both loops as goroutines and returns immediately; they run
// until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	go w.runCatalogLoop(ctx)
	go w.runRoleLoop(ctx)
}

func (w *Worker) runCatalogLoop(ctx context.Context) {
	ticker := time.NewTicker(w.catalogPeriod)
	defer ticker.Stop()

	for {
		w.tickCatalogRefresh(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) tickCatalogRefresh(ctx context.Context) {
	start := time.Now()
	if err := w.refreshCatalog(ctx); err != nil {
		logging.Error(ctx, "catalog refresh failed", zap.Error(err))
		metrics.IngestRunsTotal.WithLabelValues("catalog", "error").Inc()
	} else {
		metrics.IngestRunsTotal.WithLabelValues("catalog", "ok").Inc()
	}
	metrics.IngestRunDuration.WithLabelValues("catalog").Observe(time.Since(start).Seconds())
}

func (w *Worker) runRoleLoop(ctx context.Context) {
	ticker := time.NewTicker(w.rolePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tickRoleRefresh(ctx)
		}
	}
}

func (w *Worker) tickRoleRefresh(ctx context.Context) {
	start := time.Now()
	if err := w.refreshRoles(ctx); err != nil {
		logging.Error(ctx, "role refresh failed", zap.Error(err))
		metrics.IngestRunsTotal.WithLabelValues("roles", "error").Inc()
	} else {
		metrics.IngestRunsTotal.WithLabelValues("roles", "ok").Inc()
	}
	metrics.IngestRunDuration.WithLabelValues("roles").Observe(time.Since(start).Seconds())
}

// refreshCatalog runs one full catalog update: any step's error aborts this
// run, leaving the tarball/decompressed-tree caches in place for the next
// tick.
func (w *Worker) refreshCatalog(ctx context.Context) error {
	latest, err := w.fetchLatestVersion(ctx)
	if err != nil {
		return err
	}

	current, ok, err := w.catalog.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	if ok && current == latest {
		logging.Info(ctx, "catalog already at latest version", zap.String("version", latest))
		return nil
	}

	tarballPath, err := w.ensureTarball(ctx, latest)
	if err != nil {
		return err
	}

	decompressedDir := filepath.Join(w.baseDir, "dragontail-"+latest)
	if err := w.decompressTarball(tarballPath, decompressedDir); err != nil {
		return err
	}

	entries, err := w.extractChampions(decompressedDir, latest)
	if err != nil {
		return err
	}

	if err := w.copyAssets(decompressedDir, latest, entries); err != nil {
		return err
	}

	for _, e := range entries {
		err := w.catalog.Upsert(ctx, store.ChampionInsertion{
			RiotID:                       e.riotID,
			Name:                         e.name,
			DefaultSkinImagePath:         e.defaultSkinImagePath,
			CenteredDefaultSkinImagePath: e.centeredDefaultSkinImagePath,
		})
		if err != nil {
			return err
		}
	}

	if err := w.reloadValidationSet(ctx); err != nil {
		return err
	}

	// A role-refresh failure here does not unwind the catalog update that
	// already succeeded; the role loop's own 24h tick will retry.
	if err := w.refreshRoles(ctx); err != nil {
		logging.Warn(ctx, "inline role refresh after catalog update failed", zap.Error(err))
	}

	if err := w.catalog.SetCurrentVersion(ctx, latest); err != nil {
		return err
	}

	w.cleanupCaches(ctx, decompressedDir, tarballPath)
	return nil
}

func (w *Worker) reloadValidationSet(ctx context.Context) error {
	champions, err := w.catalog.ListChampions(ctx)
	if err != nil {
		return err
	}

	ids := make([]int, 0, len(champions))
	for _, c := range champions {
		ids = append(ids, c.ID)
	}
	w.validation.Replace(ids)
	metrics.ValidationSetSize.Set(float64(len(ids)))
	return nil
}

// refreshRoles pulls the play-rate and alias feeds and rewrites each mapped
// champion's role set. Per-champion lookup misses are logged and skipped;
// only the feed fetches themselves can fail this run.
func (w *Worker) refreshRoles(ctx context.Context) error {
	rates, err := w.fetchChampionRates(ctx)
	if err != nil {
		return err
	}

	aliases, err := w.fetchCommunityChampions(ctx)
	if err != nil {
		return err
	}

	for communityID, rate := range rates {
		cc, ok := aliases[communityID]
		if !ok {
			logging.Warn(ctx, "no name/alias mapping for community champion id", zap.Int("community_id", communityID))
			continue
		}

		roles := champion.RolesAboveThreshold(rate)
		if err := w.catalog.SetRoles(ctx, cc.Name, cc.Alias, roles); err != nil {
			logging.Warn(ctx, "failed to set roles", zap.String("name", cc.Name), zap.String("alias", cc.Alias), zap.Error(err))
		}
	}

	return nil
}

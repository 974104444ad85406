package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/go-redis/redismock/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"savings-workers/internal/common/config"
	apperrors "savings-workers/internal/common/errors"
	"savings-workers/internal/common/logger"
	"savings-workers/internal/common/metrics"
	"savings-workers/internal/models"
)

const catalogQuery = `SELECT name, annual_rate, tax_rate, min_horizon_years, max_total_contribution\s+FROM savings_products\s+ORDER BY position, name`

var productColumns = []string{"name", "annual_rate", "tax_rate", "min_horizon_years", "max_total_contribution"}

func testLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

type stubSource struct {
	products []models.SavingsProduct
	err      error
	calls    int
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Products(ctx context.Context) ([]models.SavingsProduct, error) {
	s.calls++
	return s.products, s.err
}

func sampleCatalog() []models.SavingsProduct {
	return []models.SavingsProduct{
		{Name: "Livret A", AnnualRate: 0.03, TaxRate: 0, MinHorizonYears: 0, MaxTotalContribution: models.Cap(22950)},
		{Name: "PEA", AnnualRate: 0.06, TaxRate: 0.172, MinHorizonYears: 5},
	}
}

func TestPostgresSource_Products(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(catalogQuery).WillReturnRows(
		sqlmock.NewRows(productColumns).
			AddRow("Livret A", 0.03, 0.0, 0, 22950.0).
			AddRow("PEA", 0.06, 0.172, 5, nil),
	)

	src, err := NewPostgresSource(db, "savings_products", time.Second)
	require.NoError(t, err)

	products, err := src.Products(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleCatalog(), products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_Errors(t *testing.T) {
	t.Run("connection failure is retryable", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(catalogQuery).WillReturnError(errors.New("connection refused"))
		src, err := NewPostgresSource(db, "savings_products", time.Second)
		require.NoError(t, err)

		_, err = src.Products(context.Background())
		stdErr, ok := apperrors.AsStandardError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeCatalogLoadFailed, stdErr.Code)
		assert.True(t, stdErr.Retryable)
	})

	t.Run("slow query times out", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(catalogQuery).WillDelayFor(200 * time.Millisecond).
			WillReturnRows(sqlmock.NewRows(productColumns))
		src, err := NewPostgresSource(db, "savings_products", 10*time.Millisecond)
		require.NoError(t, err)

		_, err = src.Products(context.Background())
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeQueryTimeout))
	})

	t.Run("invalid row", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(catalogQuery).WillReturnRows(
			sqlmock.NewRows(productColumns).AddRow("Broken", 0.05, 2.0, 0, nil),
		)
		src, err := NewPostgresSource(db, "savings_products", time.Second)
		require.NoError(t, err)

		_, err = src.Products(context.Background())
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidRecord))
	})

	t.Run("table name is checked", func(t *testing.T) {
		_, err := NewPostgresSource(nil, "products; DROP TABLE x", time.Second)
		assert.Error(t, err)

		_, err = NewPostgresSource(nil, "finance.savings_products", time.Second)
		assert.NoError(t, err)
	})
}

func newSearchServer(t *testing.T, status int, body string) *elasticsearch.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/savings-products/_search", r.URL.Path)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{server.URL},
		DisableRetry: true,
	})
	require.NoError(t, err)
	return client
}

func TestElasticsearchSource_Products(t *testing.T) {
	client := newSearchServer(t, http.StatusOK, `{
		"hits": {
			"total": {"value": 2},
			"hits": [
				{"_source": {"name": "Livret A", "annual_rate": 0.03, "tax_rate": 0, "min_horizon_years": 0, "max_total_contribution": 22950, "position": 1}},
				{"_source": {"name": "PEA", "annual_rate": 0.06, "tax_rate": 0.172, "min_horizon_years": 5, "position": 2}}
			]
		}
	}`)

	products, err := NewElasticsearchSource(client, "savings-products", time.Second).Products(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleCatalog(), products)
}

func TestElasticsearchSource_Errors(t *testing.T) {
	t.Run("missing index", func(t *testing.T) {
		client := newSearchServer(t, http.StatusNotFound, `{"error": {"type": "index_not_found_exception"}}`)
		_, err := NewElasticsearchSource(client, "savings-products", time.Second).Products(context.Background())
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeResourceNotFound))
	})

	t.Run("server error", func(t *testing.T) {
		client := newSearchServer(t, http.StatusInternalServerError, `{"error": "boom"}`)
		_, err := NewElasticsearchSource(client, "savings-products", time.Second).Products(context.Background())
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSearchQueryFailed))
	})

	t.Run("catalog larger than one search", func(t *testing.T) {
		client := newSearchServer(t, http.StatusOK, `{
			"hits": {
				"total": {"value": 1500, "relation": "eq"},
				"hits": [{"_source": {"name": "Livret A", "annual_rate": 0.03, "tax_rate": 0, "min_horizon_years": 0}}]
			}
		}`)
		_, err := NewElasticsearchSource(client, "savings-products", time.Second).Products(context.Background())
		stdErr, ok := apperrors.AsStandardError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeSearchQueryFailed, stdErr.Code)
		assert.Contains(t, stdErr.Details, "1500")
	})

	t.Run("undecodable body", func(t *testing.T) {
		client := newSearchServer(t, http.StatusOK, `not json`)
		_, err := NewElasticsearchSource(client, "savings-products", time.Second).Products(context.Background())
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSearchQueryFailed))
	})
}

func TestFileSource_Products(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")
	require.NoError(t, os.WriteFile(path, []byte("nom,taux_interet,fiscalite,duree_min,versement_max\nLivret A,0.03,0,0,22950\nPEA,0.06,0.172,5,\n"), 0o644))

	products, err := NewFileSource(path, false, testLogger(t)).Products(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleCatalog(), products)
}

func TestCachedSource_MissThenHit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	inner := &stubSource{products: sampleCatalog()}
	src := NewCachedSource(inner, rdb, time.Minute, testLogger(t))
	assert.Equal(t, "savings:catalog:stub", src.Key())

	missBefore := testutil.ToFloat64(metrics.SavingsCatalogCache.WithLabelValues(cacheMiss))
	hitBefore := testutil.ToFloat64(metrics.SavingsCatalogCache.WithLabelValues(cacheHit))

	first, err := src.Products(context.Background())
	require.NoError(t, err)
	second, err := src.Products(context.Background())
	require.NoError(t, err)

	assert.Equal(t, sampleCatalog(), first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, missBefore+1, testutil.ToFloat64(metrics.SavingsCatalogCache.WithLabelValues(cacheMiss)))
	assert.Equal(t, hitBefore+1, testutil.ToFloat64(metrics.SavingsCatalogCache.WithLabelValues(cacheHit)))

	assert.True(t, mr.Exists(src.Key()))
	assert.Equal(t, time.Minute, mr.TTL(src.Key()))

	mr.FastForward(2 * time.Minute)
	_, err = src.Products(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)

	require.NoError(t, src.Invalidate(context.Background()))
	assert.False(t, mr.Exists(src.Key()))
}

func TestCachedSource_CorruptEntryIsReplaced(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	inner := &stubSource{products: sampleCatalog()}
	src := NewCachedSource(inner, rdb, time.Minute, testLogger(t))
	require.NoError(t, mr.Set(src.Key(), "{not json"))

	products, err := src.Products(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleCatalog(), products)

	raw, err := mr.Get(src.Key())
	require.NoError(t, err)
	var cached []models.SavingsProduct
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	assert.Equal(t, sampleCatalog(), cached)
}

func TestCachedSource_RedisFailuresFallBack(t *testing.T) {
	rdb, mock := redismock.NewClientMock()

	inner := &stubSource{products: sampleCatalog()}
	src := NewCachedSource(inner, rdb, time.Minute, testLogger(t))

	data, err := json.Marshal(sampleCatalog())
	require.NoError(t, err)

	mock.ExpectGet(src.Key()).SetErr(errors.New("READONLY"))
	mock.ExpectSet(src.Key(), data, time.Minute).SetErr(errors.New("READONLY"))

	errorsBefore := testutil.ToFloat64(metrics.SavingsCatalogCache.WithLabelValues(cacheError))

	products, err := src.Products(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleCatalog(), products)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, errorsBefore+2, testutil.ToFloat64(metrics.SavingsCatalogCache.WithLabelValues(cacheError)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedSource_SourceErrorIsReturned(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	inner := &stubSource{err: apperrors.NewCatalogLoadFailedError("stub", errors.New("down"))}
	src := NewCachedSource(inner, rdb, time.Minute, testLogger(t))

	mock.ExpectGet(src.Key()).RedisNil()

	_, err := src.Products(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCatalogLoadFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad(t *testing.T) {
	products, err := Load(context.Background(), &stubSource{products: sampleCatalog()})
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.SavingsCatalogProducts.WithLabelValues("stub")))

	_, err = Load(context.Background(), &stubSource{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCatalogEmpty))
}

func TestNew_SelectsSource(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cfg := &config.Config{}
	cfg.Catalog.Source = config.CatalogSourcePostgres
	cfg.Catalog.Table = "savings_products"

	src, err := New(cfg, Clients{DB: db}, testLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &PostgresSource{}, src)

	cfg.Catalog.Cache.Enabled = true
	_, err = New(cfg, Clients{DB: db}, testLogger(t))
	assert.Error(t, err)

	rdb, _ := redismock.NewClientMock()
	src, err = New(cfg, Clients{DB: db, Redis: rdb}, testLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &CachedSource{}, src)
	assert.Equal(t, "postgres", src.Name())

	cfg.Catalog.Source = config.CatalogSourceElasticsearch
	cfg.Catalog.Cache.Enabled = false
	_, err = New(cfg, Clients{}, testLogger(t))
	assert.Error(t, err)

	cfg.Catalog.Source = config.CatalogSourceFile
	cfg.Catalog.File = "configs/products.csv"
	src, err = New(cfg, Clients{}, testLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &FileSource{}, src)
}

func TestOpen_FileSourceWithCache(t *testing.T) {
	mr := miniredis.RunT(t)
	path := filepath.Join(t.TempDir(), "products.csv")
	require.NoError(t, os.WriteFile(path, []byte("nom,taux_interet,fiscalite,duree_min,versement_max\nLivret A,0.03,0,0,22950\nPEA,0.06,0.172,5,\n"), 0o644))

	cfg := &config.Config{}
	cfg.Catalog.Source = config.CatalogSourceFile
	cfg.Catalog.File = path
	cfg.Catalog.Cache.Enabled = true
	cfg.Catalog.Cache.TTL = 60000
	cfg.Database.Redis.Address = mr.Addr()

	src, closeFn, err := Open(context.Background(), cfg, testLogger(t))
	require.NoError(t, err)
	defer closeFn()

	products, err := Load(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, sampleCatalog(), products)
	assert.True(t, mr.Exists("savings:catalog:file"))
	assert.Equal(t, time.Minute, mr.TTL("savings:catalog:file"))
}

func TestOpen_UnknownSource(t *testing.T) {
	cfg := &config.Config{}
	cfg.Catalog.Source = "ftp"

	_, _, err := Open(context.Background(), cfg, testLogger(t))
	assert.Error(t, err)
}

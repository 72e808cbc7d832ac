package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/models"
	"github.com/hiflogistics/freight_backend/testutil"
	"github.com/hiflogistics/freight_backend/utils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCorrelationIdMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CorrelationIdMiddleware())
	var seen string
	r.GET("/ping", func(c *gin.Context) {
		seen, _ = utils.GetCorrelationIdFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(CorrelationIdHeader, "abc-123")
	w := serve(r, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", w.Header().Get(CorrelationIdHeader))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "abc-123", seen)
	assert.Equal(t, seen, w.Header().Get(CorrelationIdHeader))
}

func TestActorMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(ActorMiddleware())
	var actor string
	r.GET("/who", func(c *gin.Context) {
		actor = utils.GetActorNameFromContext(c.Request.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set(ActorHeader, "  Nok  ")
	serve(r, req)
	assert.Equal(t, "Nok", actor)

	serve(r, httptest.NewRequest(http.MethodGet, "/who", nil))
	assert.Equal(t, utils.DefaultActorName, actor)
}

func TestReadinessMiddleware(t *testing.T) {
	prev := config.GetDB()
	config.SetDB(nil)
	t.Cleanup(func() { config.SetDB(prev) })

	r := gin.New()
	r.Use(ReadinessMiddleware())
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/api/v1/companies", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/companies", nil)).Code)
}

func TestPortalCompanyMiddleware(t *testing.T) {
	testutil.NewTestDB(t)
	company := testutil.CreateCompany(t, testutil.Context(), "Portal Co")

	r := gin.New()
	group := r.Group("/portal/companies/:companyId", PortalCompanyMiddleware())
	var scoped int
	group.GET("/stats", func(c *gin.Context) {
		scoped, _ = utils.GetPortalCompanyIdFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/portal/companies/"+strconv.Itoa(company.ID)+"/stats", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, company.ID, scoped)

	assert.Equal(t, http.StatusNotFound, serve(r, httptest.NewRequest(http.MethodGet, "/portal/companies/9999/stats", nil)).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, httptest.NewRequest(http.MethodGet, "/portal/companies/abc/stats", nil)).Code)
}

// counter implements the two redis commands the rate limiter uses.
type counter struct {
	redis.Cmdable
	mu     sync.Mutex
	counts map[string]int64
	ttls   map[string]time.Duration
}

func (c *counter) Incr(ctx context.Context, key string) *redis.IntCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key]++
	return redis.NewIntResult(c.counts[key], nil)
}

func (c *counter) Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	store := &counter{counts: map[string]int64{}, ttls: map[string]time.Duration{}}
	r := gin.New()
	r.Use(NewRateLimiter(store, 2, time.Minute).Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		codes = append(codes, serve(r, req).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, time.Minute, store.ttls["ratelimit:10.0.0.1"])

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	assert.Equal(t, http.StatusOK, serve(r, other).Code)
}

func TestLoaders_BatchLookupsWithDefaults(t *testing.T) {
	testutil.NewTestDB(t)
	ctx := testutil.Context()
	a := testutil.CreateCompany(t, ctx, "Alpha Trading")
	b := testutil.CreateCompany(t, ctx, "Beta Foods")

	loaderCtx := context.WithValue(ctx, loadersKey, NewLoaders(config.GetDB()))
	companies, errs := GetCompanies(loaderCtx, []int{b.ID, a.ID, 4242})
	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Len(t, companies, 3)
	assert.Equal(t, "Beta Foods", companies[0].Name)
	assert.Equal(t, "Alpha Trading", companies[1].Name)
	// unknown ids resolve to an empty record carrying the id
	assert.Equal(t, 4242, companies[2].ID)
	assert.Empty(t, companies[2].Name)
}

func TestLoaders_QuotationDocuments(t *testing.T) {
	testutil.NewTestDB(t)
	ctx := testutil.Context()
	company := testutil.CreateCompany(t, ctx, "Gamma Ltd")
	dest := testutil.CreateDestination(t, ctx, "Laos")
	q1 := testutil.CreateQuotation(t, ctx, company.ID, dest.ID)
	q2 := testutil.CreateQuotation(t, ctx, company.ID, dest.ID)

	_, err := models.SubmitDocument(ctx, &models.NewDocumentSubmission{
		QuotationId: q1.ID, DocumentType: "Invoice", FileName: "invoice.pdf", FileUrl: "files/invoice.pdf",
	})
	require.NoError(t, err)

	docs, err := GetQuotationDocuments(ctx, q1.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "invoice.pdf", docs[0].FileName)

	docs, err = GetQuotationDocuments(ctx, q2.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)

	pallets, err := GetQuotationPallets(ctx, q2.ID)
	require.NoError(t, err)
	assert.Len(t, pallets, 1)
}

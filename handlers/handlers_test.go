package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/models"
	"github.com/hiflogistics/freight_backend/testutil"
	"github.com/hiflogistics/freight_backend/utils"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter() *gin.Engine {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewRouter(logger)
}

func doRequest(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Name", "Nok")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type fixture struct {
	company     *models.Company
	destination *models.Destination
}

func seed(t *testing.T) fixture {
	t.Helper()
	testutil.NewTestDB(t)
	ctx := testutil.Context()
	return fixture{
		company:     testutil.CreateCompany(t, ctx, "Siam Fresh Co."),
		destination: testutil.CreateDestination(t, ctx, "Myanmar"),
	}
}

func TestRouter_HealthAndUnknownRoute(t *testing.T) {
	testutil.NewTestDB(t)
	r := newTestRouter()

	assert.Equal(t, http.StatusNoContent, doRequest(t, r, http.MethodGet, "/healthz", nil).Code)

	w := doRequest(t, r, http.MethodGet, "/api/v1/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"route not found"}`, w.Body.String())
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(utils.ErrorRecordNotFound))
	assert.Equal(t, http.StatusBadRequest, statusFor(utils.NewValidationError("name", "required")))
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("wrap: %w", models.ErrInvalidStatusTransition)))
	assert.Equal(t, http.StatusConflict, statusFor(models.ErrQuotationLocked))
	assert.Equal(t, http.StatusForbidden, statusFor(models.ErrNotCompanyQuotation))
	assert.Equal(t, http.StatusInternalServerError, statusFor(fmt.Errorf("boom")))
}

func TestCompanies_ValidationAndNotFound(t *testing.T) {
	testutil.NewTestDB(t)
	r := newTestRouter()

	w := doRequest(t, r, http.MethodPost, "/api/v1/companies", map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, r, http.MethodPost, "/api/v1/companies", map[string]string{"name": "Bangkok Orchids"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	company := decode[models.Company](t, w)
	assert.Equal(t, "Bangkok Orchids", company.Name)

	assert.Equal(t, http.StatusNotFound, doRequest(t, r, http.MethodGet, "/api/v1/companies/9999", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(t, r, http.MethodGet, "/api/v1/companies/abc", nil).Code)
}

func TestQuotations_CreateListAndPreview(t *testing.T) {
	f := seed(t)
	r := newTestRouter()
	input := testutil.QuotationInput(f.company.ID, f.destination.ID)

	w := doRequest(t, r, http.MethodPost, "/api/v1/quotations/preview", models.PricingRequest{
		DestinationId: f.destination.ID,
		Pallets:       input.Pallets,
		ClearanceCost: input.ClearanceCost,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "13350")

	w = doRequest(t, r, http.MethodPost, "/api/v1/quotations", input)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Quotation](t, w)
	assert.True(t, created.TotalCost.Equal(testutil.Decimal("13350")))

	w = doRequest(t, r, http.MethodGet, "/api/v1/quotations", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := decode[struct {
		Items []struct {
			ID              int    `json:"id"`
			CompanyName     string `json:"company_name"`
			DestinationName string `json:"destination_name"`
		} `json:"items"`
	}](t, w)
	require.Len(t, page.Items, 1)
	assert.Equal(t, created.ID, page.Items[0].ID)
	assert.Equal(t, "Siam Fresh Co.", page.Items[0].CompanyName)
	assert.Equal(t, "Myanmar", page.Items[0].DestinationName)

	w = doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/v1/quotations/%d/pallets", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.QuotationPallet](t, w), 1)
}

func TestQuotations_PreviewRejectsEmptyPallets(t *testing.T) {
	f := seed(t)
	r := newTestRouter()
	w := doRequest(t, r, http.MethodPost, "/api/v1/quotations/preview", models.PricingRequest{DestinationId: f.destination.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuotations_ShareAndTrack(t *testing.T) {
	f := seed(t)
	r := newTestRouter()
	q := testutil.CreateQuotation(t, testutil.Context(), f.company.ID, f.destination.ID)

	w := doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/v1/quotations/%d/share", q.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	share := decode[struct {
		ShareToken string `json:"share_token"`
	}](t, w)
	require.NotEmpty(t, share.ShareToken)

	w = doRequest(t, r, http.MethodGet, "/public/track/"+share.ShareToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decode[models.TrackingView](t, w)
	assert.Equal(t, q.QuotationNumber, view.QuotationNumber)

	assert.Equal(t, http.StatusNotFound, doRequest(t, r, http.MethodGet, "/public/track/unknown", nil).Code)
}

func TestQuotations_ExportRegister(t *testing.T) {
	f := seed(t)
	r := newTestRouter()
	testutil.CreateQuotation(t, testutil.Context(), f.company.ID, f.destination.ID)

	w := doRequest(t, r, http.MethodGet, "/api/v1/quotations/export", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.XlsxContentType, w.Header().Get("Content-Type"))
	book, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer book.Close()
	assert.NotEmpty(t, book.GetSheetList())
}

func TestPortal_ScopesToCompany(t *testing.T) {
	f := seed(t)
	r := newTestRouter()
	ctx := testutil.Context()
	other := testutil.CreateCompany(t, ctx, "Other Trading")
	theirs := testutil.CreateQuotation(t, ctx, other.ID, f.destination.ID)
	ours := testutil.CreateQuotation(t, ctx, f.company.ID, f.destination.ID)

	base := fmt.Sprintf("/portal/companies/%d", f.company.ID)
	w := doRequest(t, r, http.MethodGet, base+"/quotations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Quotation](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, ours.ID, list[0].ID)

	assert.Equal(t, http.StatusNotFound, doRequest(t, r, http.MethodGet, fmt.Sprintf("%s/quotations/%d", base, theirs.ID), nil).Code)

	w = doRequest(t, r, http.MethodPost, base+"/documents", models.NewDocumentSubmission{
		QuotationId: theirs.ID,
		FileName:    "invoice.pdf",
		FileUrl:     "https://files.example.com/invoice.pdf",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	assert.Equal(t, http.StatusNotFound, doRequest(t, r, http.MethodGet, "/portal/companies/9999/stats", nil).Code)
}

func pushBody(t *testing.T, msg config.PubSubMessage) map[string]interface{} {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	return map[string]interface{}{
		"message":      map[string]interface{}{"data": data, "id": "push-1"},
		"subscription": "projects/test/subscriptions/freight",
	}
}

func TestPubSubPush_ProcessesEventAndAcksMalformed(t *testing.T) {
	f := seed(t)
	r := newTestRouter()
	q := testutil.CreateQuotation(t, testutil.Context(), f.company.ID, f.destination.ID)

	events, err := models.GetOutboxEvents(testutil.Context(), models.OutboxFilter{Limit: 10})
	require.NoError(t, err)
	var created *models.OutboxEvent
	for _, ev := range events {
		if ev.ReferenceType == models.EventReferenceQuotation && ev.ReferenceId == q.ID {
			created = ev
		}
	}
	require.NotNil(t, created)

	w := doRequest(t, r, http.MethodPost, "/pubsub", pushBody(t, models.ConvertToPubSubMessage(*created)))
	assert.Equal(t, http.StatusNoContent, w.Code)

	events, err = models.GetOutboxEvents(testutil.Context(), models.OutboxFilter{ReferenceType: &created.ReferenceType, ReferenceId: &q.ID, Limit: 10})
	require.NoError(t, err)
	for _, ev := range events {
		if ev.ID == created.ID {
			assert.NotNil(t, ev.ProcessedAt)
		}
	}

	w = doRequest(t, r, http.MethodPost, "/pubsub", map[string]string{"message": "nope"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doRequest(t, r, http.MethodPost, "/pubsub", pushBody(t, config.PubSubMessage{}))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestOutbox_ReplayRejectsPendingEvent(t *testing.T) {
	f := seed(t)
	r := newTestRouter()
	testutil.CreateQuotation(t, testutil.Context(), f.company.ID, f.destination.ID)

	w := doRequest(t, r, http.MethodGet, "/api/v1/outbox-events?publish_status=PENDING", nil)
	require.Equal(t, http.StatusOK, w.Code)
	events := decode[[]models.OutboxEvent](t, w)
	require.NotEmpty(t, events)

	w = doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/v1/outbox-events/%d/replay", events[0].ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestOpportunities_BoardAndTasks(t *testing.T) {
	seed(t)
	r := newTestRouter()

	w := doRequest(t, r, http.MethodPost, "/api/v1/opportunities", map[string]interface{}{
		"topic":  "Durian season",
		"amount": "25000",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	opp := decode[models.Opportunity](t, w)

	w = doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/v1/opportunities/%d/tasks", opp.ID), map[string]string{"title": "Call shipper"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := decode[models.OpportunityTask](t, w)

	w = doRequest(t, r, http.MethodPut, fmt.Sprintf("/api/v1/opportunities/%d/tasks/%d/toggle", opp.ID, task.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(t, r, http.MethodGet, "/api/v1/opportunities/board", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Durian season")
}

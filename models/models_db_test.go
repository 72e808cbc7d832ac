package models_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/models"
	"github.com/hiflogistics/freight_backend/testutil"
	"github.com/hiflogistics/freight_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateQuotation_NumbersPricesAndRecordsEvent(t *testing.T) {
	testutil.NewTestDB(t)
	ctx := testutil.Context()
	company := testutil.CreateCompany(t, ctx, "Siam Fresh Co.")
	dest := testutil.CreateDestination(t, ctx, "Myanmar")

	first := testutil.CreateQuotation(t, ctx, company.ID, dest.ID)
	second := testutil.CreateQuotation(t, ctx, company.ID, dest.ID)

	prefix := "QT-" + utils.LocalNow().Format("0601") + "-"
	assert.Equal(t, prefix+"0001", first.QuotationNumber)
	assert.Equal(t, prefix+"0002", second.QuotationNumber)
	assert.Equal(t, models.QuotationStatusDraft, first.Status)
	assert.True(t, first.TotalCost.Equal(testutil.Decimal("13350")), first.TotalCost.String())

	histories, err := models.GetHistories(ctx, string(models.EventReferenceQuotation), first.ID)
	require.NoError(t, err)
	require.NotEmpty(t, histories)

	refType := models.EventReferenceQuotation
	events, err := models.GetOutboxEvents(ctx, models.OutboxFilter{ReferenceType: &refType, ReferenceId: &first.ID})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.OutboxPublishStatusPending, events[0].PublishStatus)
}

func TestUpdateQuotationStatus_RejectsUnknownStatus(t *testing.T) {
	testutil.NewTestDB(t)
	ctx := testutil.Context()
	company := testutil.CreateCompany(t, ctx, "Siam Fresh Co.")
	dest := testutil.CreateDestination(t, ctx, "Myanmar")
	q := testutil.CreateQuotation(t, ctx, company.ID, dest.ID)

	_, err := models.UpdateQuotationStatus(ctx, q.ID, "lost")
	require.ErrorIs(t, err, models.ErrInvalidStatus)
}

func TestUpdateQuotationStatus_StrictLifecycle(t *testing.T) {
	t.Setenv("STRICT_QUOTATION_STATUS", "true")
	testutil.NewTestDB(t)
	ctx := testutil.Context()
	company := testutil.CreateCompany(t, ctx, "Siam Fresh Co.")
	dest := testutil.CreateDestination(t, ctx, "Myanmar")
	q := testutil.CreateQuotation(t, ctx, company.ID, dest.ID)

	_, err := models.UpdateQuotationStatus(ctx, q.ID, models.QuotationStatusCompleted)
	require.ErrorIs(t, err, models.ErrInvalidStatusTransition)

	for _, status := range []models.QuotationStatus{
		models.QuotationStatusSent,
		models.QuotationStatusAccepted,
		models.QuotationStatusShipped,
		models.QuotationStatusCompleted,
	} {
		updated, err := models.UpdateQuotationStatus(ctx, q.ID, status)
		require.NoError(t, err, status)
		assert.Equal(t, status, updated.Status)
	}

	_, err = models.UpdateQuotation(ctx, q.ID, testutil.QuotationInput(company.ID, dest.ID))
	require.ErrorIs(t, err, models.ErrQuotationLocked)
}

func TestSubmitDocument_MovesQuotationToDocsUploaded(t *testing.T) {
	testutil.NewTestDB(t)
	ctx := testutil.Context()
	company := testutil.CreateCompany(t, ctx, "Siam Fresh Co.")
	dest := testutil.CreateDestination(t, ctx, "Myanmar")
	q := testutil.CreateQuotation(t, ctx, company.ID, dest.ID)

	_, err := models.SubmitDocument(ctx, &models.NewDocumentSubmission{
		QuotationId: q.ID,
		FileName:    "invoice.pdf",
		FileUrl:     "https://files.example.com/invoice.pdf",
	})
	var verr *utils.ValidationError
	require.ErrorAs(t, err, &verr)

	doc, err := models.SubmitDocument(ctx, &models.NewDocumentSubmission{
		QuotationId:  q.ID,
		DocumentType: "Commercial Invoice",
		FileName:     "invoice.pdf",
		FileUrl:      "https://files.example.com/invoice.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, company.Name, doc.CompanyName)

	reloaded, err := models.GetQuotation(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuotationStatusDocsUploaded, reloaded.Status)

	_, err = models.ReviewDocument(ctx, doc.ID, &models.DocumentReview{Status: models.DocumentStatusSubmitted})
	require.ErrorAs(t, err, &verr)

	reviewed, err := models.ReviewDocument(ctx, doc.ID, &models.DocumentReview{Status: models.DocumentStatusApproved, ReviewNote: "ok"})
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusApproved, reviewed.Status)
	assert.Equal(t, "Tester", reviewed.ReviewedBy)
	assert.NotNil(t, reviewed.ReviewedAt)
}

func TestSubmitDocument_UnknownQuotation(t *testing.T) {
	testutil.NewTestDB(t)
	_, err := models.SubmitDocument(testutil.Context(), &models.NewDocumentSubmission{
		QuotationId:  999,
		DocumentType: "Commercial Invoice",
		FileName:     "invoice.pdf",
		FileUrl:      "https://files.example.com/invoice.pdf",
	})
	var verr *utils.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestLinkQuotation_OneOpportunityPerQuotation(t *testing.T) {
	testutil.NewTestDB(t)
	ctx := testutil.Context()
	company := testutil.CreateCompany(t, ctx, "Siam Fresh Co.")
	dest := testutil.CreateDestination(t, ctx, "Myanmar")
	q := testutil.CreateQuotation(t, ctx, company.ID, dest.ID)

	first, err := models.CreateOpportunity(ctx, &models.NewOpportunity{Topic: "Durian airfreight", CompanyId: &company.ID})
	require.NoError(t, err)
	second, err := models.CreateOpportunity(ctx, &models.NewOpportunity{Topic: "Mango airfreight", CompanyId: &company.ID})
	require.NoError(t, err)

	linked, err := models.LinkQuotation(ctx, first.ID, q.ID)
	require.NoError(t, err)
	require.NotNil(t, linked.QuotationId)
	assert.Equal(t, q.ID, *linked.QuotationId)

	_, err = models.LinkQuotation(ctx, second.ID, q.ID)
	require.ErrorIs(t, err, models.ErrQuotationAlreadyLinked)

	found, err := models.GetOpportunityByQuotation(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestDeleteDestination_InUse(t *testing.T) {
	testutil.NewTestDB(t)
	ctx := testutil.Context()
	company := testutil.CreateCompany(t, ctx, "Siam Fresh Co.")
	used := testutil.CreateDestination(t, ctx, "Myanmar")
	unused := testutil.CreateDestination(t, ctx, "Laos")
	testutil.CreateQuotation(t, ctx, company.ID, used.ID)

	_, err := models.DeleteDestination(ctx, used.ID)
	require.ErrorIs(t, err, models.ErrRecordInUse)

	_, err = models.DeleteDestination(ctx, unused.ID)
	require.NoError(t, err)
	_, err = models.GetDestination(ctx, unused.ID)
	require.ErrorIs(t, err, utils.ErrorRecordNotFound)
}

func TestDebitNote_DraftThenSave(t *testing.T) {
	testutil.NewTestDB(t)
	ctx := testutil.Context()
	company := testutil.CreateCompany(t, ctx, "Siam Fresh Co.")
	dest := testutil.CreateDestination(t, ctx, "Myanmar")
	q := testutil.CreateQuotation(t, ctx, company.ID, dest.ID)

	draft, err := models.GetOrDraftDebitNote(ctx, q.ID)
	require.NoError(t, err)
	assert.False(t, draft.Saved)
	assert.True(t, strings.HasPrefix(draft.DebitNote.DebitNoteNo, config.DebitNotePrefix()+"-"), draft.DebitNote.DebitNoteNo)
	assert.True(t, draft.Total.Equal(q.TotalCost), draft.Total.String())

	saved, err := models.SaveDebitNote(ctx, q.ID, &models.NewDebitNote{AwbNumber: " 123-45678901 "})
	require.NoError(t, err)
	assert.True(t, saved.Saved)
	assert.Equal(t, draft.DebitNote.DebitNoteNo, saved.DebitNote.DebitNoteNo)
	assert.Equal(t, "123-45678901", saved.DebitNote.AwbNumber)
	assert.Equal(t, "Tester", saved.DebitNote.CreatedBy)

	again, err := models.SaveDebitNote(ctx, q.ID, &models.NewDebitNote{Remarks: "paid"})
	require.NoError(t, err)
	assert.Equal(t, saved.DebitNote.ID, again.DebitNote.ID)
	assert.Equal(t, "paid", again.DebitNote.Remarks)
}

func TestOnboarding_TokenIsSingleUse(t *testing.T) {
	testutil.NewTestDB(t)
	ctx := testutil.Context()
	company := testutil.CreateCompany(t, ctx, "Siam Fresh Co.")

	issued, err := models.IssueOnboardingToken(ctx, company.ID)
	require.NoError(t, err)
	require.NotNil(t, issued.OnboardingToken)
	token := *issued.OnboardingToken

	reissued, err := models.IssueOnboardingToken(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, token, *reissued.OnboardingToken)

	form := &models.CompanyOnboarding{
		Address:       "99 Sukhumvit Rd, Bangkok",
		TaxId:         "0105551234567",
		ContactPerson: "Somchai",
		ContactEmail:  "somchai@siamfresh.example",
		ContactPhone:  "081 234 5678",
	}
	_, err = models.CompleteOnboarding(ctx, token, form)
	require.NoError(t, err)

	onboarded, err := models.GetCompanyByOnboardingToken(ctx, token)
	require.NoError(t, err)
	assert.NotNil(t, onboarded.OnboardedAt)
	assert.Equal(t, "+66812345678", onboarded.ContactPhone)

	_, err = models.CompleteOnboarding(ctx, token, form)
	require.ErrorIs(t, err, models.ErrOnboardingTokenUsed)

	_, err = models.CompleteOnboarding(ctx, "missing", form)
	require.ErrorIs(t, err, utils.ErrorRecordNotFound)
}

func TestPackingList_CreateAndStatus(t *testing.T) {
	testutil.NewTestDB(t)
	ctx := testutil.Context()

	_, err := models.CreatePackingList(ctx, &models.NewPackingList{})
	var verr *utils.ValidationError
	require.ErrorAs(t, err, &verr)

	pl, err := models.CreatePackingList(ctx, &models.NewPackingList{
		Consignee: models.PackingParty{Name: "Yangon Foods"},
		Consigner: models.PackingParty{Name: "Siam Fresh Co."},
		Pallets: []models.NewPackingListPallet{
			{BoxFrom: 1, BoxTo: 10, Products: []models.NewPackingListProduct{
				{ProductCode: "DUR-01", Quantity: 10, TotalGrossWeight: testutil.Decimal("120")},
			}},
			{BoxFrom: 11, BoxTo: 15, Products: []models.NewPackingListProduct{
				{ProductCode: "MAN-01", Quantity: 5, TotalGrossWeight: testutil.Decimal("60")},
			}},
		},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(pl.PackingListNo, "PL-"+utils.LocalNow().Format("200601")+"-"), pl.PackingListNo)
	assert.Equal(t, models.PackingListStatusDraft, pl.Status)
	assert.Equal(t, 15, pl.TotalBoxes)
	assert.True(t, pl.TotalGrossWeight.Equal(testutil.Decimal("180")), pl.TotalGrossWeight.String())

	_, err = models.UpdatePackingListStatus(ctx, pl.ID, "shipped")
	require.ErrorIs(t, err, models.ErrInvalidStatus)

	updated, err := models.UpdatePackingListStatus(ctx, pl.ID, models.PackingListStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.PackingListStatusCompleted, updated.Status)

	f, err := models.ExportPackingList(ctx, pl.ID)
	require.NoError(t, err)
	defer f.Close()
	assert.NotEmpty(t, f.GetSheetList())
}

func TestSettings_UpsertAndGet(t *testing.T) {
	testutil.NewTestDB(t)
	ctx := testutil.Context()

	_, err := models.UpsertSetting(ctx, &models.NewSetting{Category: "pricing", Key: "margin", Value: json.RawMessage(`{`)})
	var verr *utils.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = models.UpsertSetting(ctx, &models.NewSetting{Category: "pricing", Key: "margin", Value: json.RawMessage(`10`)})
	require.NoError(t, err)
	_, err = models.UpsertSetting(ctx, &models.NewSetting{Category: " pricing ", Key: "margin", Value: json.RawMessage(`12`)})
	require.NoError(t, err)

	setting, err := models.GetSetting(ctx, "pricing", "margin")
	require.NoError(t, err)
	assert.JSONEq(t, `12`, string(setting.Value))

	all, err := models.GetSettings(ctx, "pricing")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRequestQuotation_FromPortal(t *testing.T) {
	testutil.NewTestDB(t)
	ctx := testutil.Context()
	company := testutil.CreateCompany(t, ctx, "Siam Fresh Co.")
	other := testutil.CreateCompany(t, ctx, "Other Co.")
	dest := testutil.CreateDestination(t, ctx, "Myanmar")

	input := testutil.QuotationInput(other.ID, dest.ID)
	input.Status = models.QuotationStatusAccepted
	q, err := models.RequestQuotation(ctx, company.ID, input)
	require.NoError(t, err)
	assert.Equal(t, company.ID, q.CompanyId)
	assert.Equal(t, models.QuotationStatusDraft, q.Status)

	mine, err := models.GetPortalQuotations(ctx, company.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	theirs, err := models.GetPortalQuotations(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestExports_OpenAsWorkbooks(t *testing.T) {
	testutil.NewTestDB(t)
	ctx := testutil.Context()
	company := testutil.CreateCompany(t, ctx, "Siam Fresh Co.")
	dest := testutil.CreateDestination(t, ctx, "Myanmar")
	testutil.CreateQuotation(t, ctx, company.ID, dest.ID)

	register, err := models.ExportQuotationRegister(ctx, models.QuotationFilter{})
	require.NoError(t, err)
	defer register.Close()
	rows, err := register.GetRows(register.GetSheetList()[0])
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	card, err := models.ExportRateCard(ctx, dest.ID)
	require.NoError(t, err)
	defer card.Close()
	buf, err := card.WriteToBuffer()
	require.NoError(t, err)
	tiers, err := models.ReadRateCardXlsx(buf, dest.ID)
	require.NoError(t, err)
	assert.Len(t, tiers, 3)
}

func TestGetDashboard_CountsQuotations(t *testing.T) {
	testutil.NewTestDB(t)
	ctx := testutil.Context()
	company := testutil.CreateCompany(t, ctx, "Siam Fresh Co.")
	dest := testutil.CreateDestination(t, ctx, "Myanmar")
	testutil.CreateQuotation(t, ctx, company.ID, dest.ID)
	testutil.CreateQuotation(t, ctx, company.ID, dest.ID)

	dashboard, err := models.GetDashboard(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, 2, dashboard.TotalQuotations)
	assert.Len(t, dashboard.Monthly, 6)
	assert.Equal(t, 1, dashboard.ActiveClients)
	require.NotEmpty(t, dashboard.TopDestinations)
	assert.Equal(t, dest.ID, dashboard.TopDestinations[0].DestinationId)
}

func TestUpdateQuotation_RepricesAndReplacesChildren(t *testing.T) {
	testutil.NewTestDB(t)
	ctx := testutil.Context()
	company := testutil.CreateCompany(t, ctx, "Siam Fresh Co.")
	dest := testutil.CreateDestination(t, ctx, "Myanmar")
	q := testutil.CreateQuotation(t, ctx, company.ID, dest.ID)

	input := testutil.QuotationInput(company.ID, dest.ID)
	input.Pallets[0].Quantity = 2
	input.Pallets = append(input.Pallets, models.NewQuotationPallet{
		Length: testutil.Decimal("100"), Width: testutil.Decimal("100"), Height: testutil.Decimal("60"), Weight: testutil.Decimal("600"), Quantity: 1,
	})
	input.AdditionalCharges = []models.NewQuotationCharge{{Name: "Dry ice", Amount: testutil.Decimal("1200")}}
	input.Notes = "Keep chilled"

	updated, err := models.UpdateQuotation(ctx, q.ID, input)
	require.NoError(t, err)
	assert.Equal(t, q.QuotationNumber, updated.QuotationNumber)
	assert.Equal(t, models.QuotationStatusDraft, updated.Status)
	// 200kg x 40 x 2 pallets plus 600kg x 35
	assert.True(t, updated.TotalFreightCost.Equal(testutil.Decimal("37000")), updated.TotalFreightCost.String())
	assert.True(t, updated.SubTotal.Equal(testutil.Decimal("42350")), updated.SubTotal.String())
	assert.True(t, updated.TotalCost.Equal(testutil.Decimal("43550")), updated.TotalCost.String())

	reloaded, err := models.GetQuotation(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Pallets, 2)
	require.Len(t, reloaded.Charges, 1)
	assert.Equal(t, "Dry ice", reloaded.Charges[0].Name)
	assert.Equal(t, "Keep chilled", reloaded.Notes)

	input.Status = models.QuotationStatusSent
	_, err = models.UpdateQuotation(ctx, q.ID, input)
	require.NoError(t, err)

	refType := models.EventReferenceQuotation
	events, err := models.GetOutboxEvents(ctx, models.OutboxFilter{ReferenceType: &refType, ReferenceId: &q.ID})
	require.NoError(t, err)
	var actions []models.EventAction
	for _, ev := range events {
		actions = append(actions, ev.Action)
	}
	assert.ElementsMatch(t, []models.EventAction{
		models.EventActionCreate,
		models.EventActionUpdate,
		models.EventActionStatus,
	}, actions)
}

func TestDuplicateQuotation_NewDraftAtCurrentRates(t *testing.T) {
	testutil.NewTestDB(t)
	ctx := testutil.Context()
	company := testutil.CreateCompany(t, ctx, "Siam Fresh Co.")
	dest := testutil.CreateDestination(t, ctx, "Myanmar")
	q := testutil.CreateQuotation(t, ctx, company.ID, dest.ID)
	_, err := models.UpdateQuotationStatus(ctx, q.ID, models.QuotationStatusSent)
	require.NoError(t, err)

	rates, err := models.GetFreightRates(ctx, dest.ID)
	require.NoError(t, err)
	var mid *models.FreightRate
	for _, r := range rates {
		if r.BaseRate.Equal(testutil.Decimal("40")) {
			mid = r
		}
	}
	require.NotNil(t, mid)
	_, err = models.UpdateFreightRate(ctx, mid.ID, &models.NewFreightRate{
		DestinationId: dest.ID,
		MinWeight:     mid.MinWeight,
		MaxWeight:     mid.MaxWeight,
		BaseRate:      testutil.Decimal("45"),
	})
	require.NoError(t, err)

	dup, err := models.DuplicateQuotation(ctx, q.ID)
	require.NoError(t, err)
	assert.NotEqual(t, q.ID, dup.ID)
	prefix := "QT-" + utils.LocalNow().Format("0601") + "-"
	assert.Equal(t, prefix+"0002", dup.QuotationNumber)
	assert.Equal(t, models.QuotationStatusDraft, dup.Status)
	require.Len(t, dup.Pallets, 1)
	assert.True(t, dup.TotalFreightCost.Equal(testutil.Decimal("9000")), dup.TotalFreightCost.String())
	assert.True(t, dup.TotalCost.Equal(testutil.Decimal("14350")), dup.TotalCost.String())

	source, err := models.GetQuotation(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuotationStatusSent, source.Status)
	assert.True(t, source.TotalCost.Equal(testutil.Decimal("13350")), source.TotalCost.String())
}

func TestFreightRate_RejectsOverlappingTiers(t *testing.T) {
	testutil.NewTestDB(t)
	ctx := testutil.Context()
	dest := testutil.CreateDestination(t, ctx, "Myanmar")
	var verr *utils.ValidationError

	_, err := models.CreateFreightRate(ctx, &models.NewFreightRate{
		DestinationId: dest.ID, MinWeight: testutil.DecimalPtr("50"), MaxWeight: testutil.DecimalPtr("150"), BaseRate: testutil.Decimal("42"),
	})
	require.ErrorAs(t, err, &verr)

	effective := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	next, err := models.CreateFreightRate(ctx, &models.NewFreightRate{
		DestinationId: dest.ID, MinWeight: testutil.DecimalPtr("50"), MaxWeight: testutil.DecimalPtr("150"), BaseRate: testutil.Decimal("42"), EffectiveDate: &effective,
	})
	require.NoError(t, err)

	other, err := models.CreateDestination(ctx, &models.NewDestination{Country: "Laos", Port: "Vientiane", AirportCode: "vte"})
	require.NoError(t, err)
	_, err = models.CreateFreightRate(ctx, &models.NewFreightRate{
		DestinationId: other.ID, MinWeight: testutil.DecimalPtr("50"), MaxWeight: testutil.DecimalPtr("150"), BaseRate: testutil.Decimal("38"),
	})
	require.NoError(t, err)

	rates, err := models.GetFreightRates(ctx, dest.ID)
	require.NoError(t, err)
	var open *models.FreightRate
	for _, r := range rates {
		if r.MaxWeight == nil && r.EffectiveDate == nil {
			open = r
		}
	}
	require.NotNil(t, open)
	_, err = models.UpdateFreightRate(ctx, open.ID, &models.NewFreightRate{
		DestinationId: dest.ID, MinWeight: testutil.DecimalPtr("400"), BaseRate: testutil.Decimal("35"),
	})
	require.ErrorAs(t, err, &verr)

	_, err = models.UpdateFreightRate(ctx, open.ID, &models.NewFreightRate{
		DestinationId: dest.ID, MinWeight: testutil.DecimalPtr("500"), BaseRate: testutil.Decimal("33"),
	})
	require.NoError(t, err)

	_, err = models.UpdateFreightRate(ctx, next.ID, &models.NewFreightRate{
		DestinationId: dest.ID, MinWeight: testutil.DecimalPtr("0"), MaxWeight: testutil.DecimalPtr("150"), BaseRate: testutil.Decimal("42"), EffectiveDate: &effective,
	})
	require.NoError(t, err)
}

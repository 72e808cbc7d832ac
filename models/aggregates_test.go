package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func boolPtr(b bool) *bool {
	return &b
}

func TestCountByStatus_IncludesZeroCounts(t *testing.T) {
	rows := []quotationSummary{
		{Status: QuotationStatusDraft},
		{Status: QuotationStatusDraft},
		{Status: QuotationStatusShipped},
	}
	got := CountByStatus(rows)
	require.Len(t, got, len(AllQuotationStatuses()))
	counts := map[QuotationStatus]int{}
	for _, c := range got {
		counts[c.Status] = c.Count
	}
	assert.Equal(t, 2, counts[QuotationStatusDraft])
	assert.Equal(t, 1, counts[QuotationStatusShipped])
	assert.Equal(t, 0, counts[QuotationStatusRejected])
}

func TestRevenue_CountsAcceptedAndLater(t *testing.T) {
	rows := []quotationSummary{
		{Status: QuotationStatusDraft, TotalCost: dec("100")},
		{Status: QuotationStatusSent, TotalCost: dec("200")},
		{Status: QuotationStatusAccepted, TotalCost: dec("300")},
		{Status: QuotationStatusShipped, TotalCost: dec("400")},
		{Status: QuotationStatusRejected, TotalCost: dec("500")},
	}
	assert.True(t, Revenue(rows).Equal(dec("700")))
}

func TestMonthlySeries_BucketsLastMonths(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	rows := []quotationSummary{
		{Status: QuotationStatusAccepted, TotalCost: dec("1000"), CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Status: QuotationStatusDraft, TotalCost: dec("50"), CreatedAt: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{Status: QuotationStatusCompleted, TotalCost: dec("250"), CreatedAt: time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)},
		{Status: QuotationStatusCompleted, TotalCost: dec("999"), CreatedAt: time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)},
	}
	got := MonthlySeries(rows, now, 3)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"2026-01", "2026-02", "2026-03"}, []string{got[0].Month, got[1].Month, got[2].Month})
	assert.Equal(t, 1, got[0].Count)
	assert.True(t, got[0].Revenue.Equal(dec("250")))
	assert.Equal(t, 0, got[1].Count)
	assert.Equal(t, 2, got[2].Count)
	assert.True(t, got[2].Revenue.Equal(dec("1000")))
}

func TestTopDestinations_RanksByCountThenId(t *testing.T) {
	rows := []quotationSummary{
		{DestinationId: 2}, {DestinationId: 2},
		{DestinationId: 1}, {DestinationId: 3},
	}
	names := map[int]string{1: "Myanmar", 2: "Laos", 3: "Cambodia"}
	got := TopDestinations(rows, names, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "Laos", got[0].Name)
	assert.True(t, got[0].Share.Equal(dec("50")))
	assert.Equal(t, 1, got[1].DestinationId)
	assert.True(t, got[1].Share.Equal(dec("25")))

	assert.Empty(t, TopDestinations(nil, names, 5))
}

func TestPipelineByStage_WeightsByProbability(t *testing.T) {
	got := PipelineByStage([]opportunitySummary{
		{Stage: OpportunityStageQuoting, Amount: dec("1000"), Probability: 20},
		{Stage: OpportunityStageQuoting, Amount: dec("500"), Probability: 50},
		{Stage: OpportunityStage("unknown"), Amount: dec("1"), Probability: 100},
	})
	require.Len(t, got, len(AllOpportunityStages()))
	quoting := got[OpportunityStageQuoting.Rank()]
	assert.Equal(t, 2, quoting.Count)
	assert.True(t, quoting.Amount.Equal(dec("1500")))
	assert.True(t, quoting.WeightedAmount.Equal(dec("450")))
}

func TestActiveClients_DistinctCompaniesInWindow(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := []quotationSummary{
		{CompanyId: 1, CreatedAt: now.AddDate(0, 0, -10)},
		{CompanyId: 1, CreatedAt: now.AddDate(0, 0, -20)},
		{CompanyId: 2, CreatedAt: now.AddDate(0, 0, -89)},
		{CompanyId: 3, CreatedAt: now.AddDate(0, 0, -120)},
	}
	assert.Equal(t, 2, ActiveClients(rows, now))
}

func TestBuildBoard_GroupsEveryStage(t *testing.T) {
	opps := []*Opportunity{
		{ID: 1, Stage: OpportunityStageInquiry, Amount: dec("1000"), Probability: 10},
		{ID: 2, Stage: OpportunityStageInquiry, Amount: dec("2000"), Probability: 10},
		{ID: 3, Stage: OpportunityStageClosedWon, Amount: dec("500"), Probability: 100},
	}
	board := BuildBoard(opps)
	require.Len(t, board, len(AllOpportunityStages()))

	inquiry := board[0]
	assert.Equal(t, "Initial Inquiry", inquiry.Label)
	assert.Equal(t, 2, inquiry.Count)
	assert.True(t, inquiry.TotalAmount.Equal(dec("3000")))
	assert.True(t, inquiry.WeightedAmount.Equal(dec("300")))

	won := board[OpportunityStageClosedWon.Rank()]
	assert.Equal(t, 1, won.Count)
	assert.True(t, won.WeightedAmount.Equal(dec("500")))

	assert.NotNil(t, board[OpportunityStageQuoting.Rank()].Opportunities)
	assert.Empty(t, board[OpportunityStageQuoting.Rank()].Opportunities)
}

func TestDebitNoteLines(t *testing.T) {
	q := &Quotation{
		TotalFreightCost: dec("8000"),
		DeliveryRequired: boolPtr(true),
		VehicleType:      "4wheel",
		DeliveryCost:     dec("3500"),
		ClearanceCost:    dec("5350"),
		Charges: []QuotationCharge{
			{Name: "Insurance", Amount: dec("200")},
			{Name: "Fumigation", Description: "Fumigation certificate", Amount: dec("150")},
		},
	}
	lines, total := DebitNoteLines(q, "Myanmar")
	want := []string{
		"Freight Cost - From Bangkok to Myanmar",
		"Delivery Service (4WHEEL)",
		"Clearance & Handling Fee",
		"Insurance",
		"Fumigation certificate",
	}
	got := make([]string, 0, len(lines))
	for _, l := range lines {
		got = append(got, l.Description)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("line descriptions mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, total.Equal(dec("17200")))

	q.DeliveryRequired = boolPtr(false)
	q.ClearanceCost = decimal.Zero
	q.Charges = nil
	lines, total = DebitNoteLines(q, "Laos")
	require.Len(t, lines, 1)
	assert.True(t, total.Equal(dec("8000")))
}

func TestBuildPortalStats(t *testing.T) {
	statuses := []QuotationStatus{
		QuotationStatusDraft, QuotationStatusSent, QuotationStatusShipped,
		QuotationStatusCompleted, QuotationStatusRejected, QuotationStatusAccepted,
	}
	quotations := make([]*Quotation, 0, len(statuses))
	for i, s := range statuses {
		quotations = append(quotations, &Quotation{ID: i + 1, Status: s})
	}
	stats := BuildPortalStats(quotations)
	assert.Equal(t, 6, stats.TotalQuotations)
	assert.Equal(t, 3, stats.ActiveQuotations)
	assert.Equal(t, 1, stats.InTransitShipments)
	assert.Equal(t, 1, stats.CompletedShipments)
	require.Len(t, stats.RecentQuotations, 5)
	assert.Equal(t, 1, stats.RecentQuotations[0].ID)
}

func TestBuildChecklist(t *testing.T) {
	invoiceId, packingId := 1, 2
	types := []*DocumentType{
		{ID: invoiceId, Name: "Commercial Invoice", IsRequired: boolPtr(true)},
		{ID: packingId, Name: "Packing List", IsRequired: boolPtr(true)},
		{ID: 3, Name: "Certificate of Origin", IsRequired: boolPtr(false)},
	}
	t0 := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	docs := []*DocumentSubmission{
		{ID: 10, DocumentTypeId: &invoiceId, Status: DocumentStatusApproved, SubmittedAt: t0},
		{ID: 11, DocumentTypeId: &invoiceId, Status: DocumentStatusSubmitted, SubmittedAt: t0.Add(time.Hour)},
		{ID: 12, DocumentType: "packing list", Status: DocumentStatusRejected, SubmittedAt: t0},
	}

	checklist := BuildChecklist(7, types, docs)
	require.Len(t, checklist.Items, 3)
	assert.Equal(t, 7, checklist.QuotationId)
	assert.False(t, checklist.Complete)

	invoice := checklist.Items[0]
	assert.True(t, invoice.Approved)
	require.NotNil(t, invoice.Latest)
	assert.Equal(t, 11, invoice.Latest.ID)

	packing := checklist.Items[1]
	assert.False(t, packing.Approved)
	require.NotNil(t, packing.Latest)
	assert.Equal(t, 12, packing.Latest.ID)

	assert.Nil(t, checklist.Items[2].Latest)

	docs = append(docs, &DocumentSubmission{ID: 13, DocumentTypeId: &packingId, Status: DocumentStatusApproved, SubmittedAt: t0.Add(2 * time.Hour)})
	assert.True(t, BuildChecklist(7, types, docs).Complete)
}

func TestTrackingStep(t *testing.T) {
	stage := func(s OpportunityStage) *OpportunityStage { return &s }
	cases := []struct {
		status QuotationStatus
		stage  *OpportunityStage
		step   int
		label  string
	}{
		{QuotationStatusDraft, nil, 0, "Preparing"},
		{QuotationStatusAccepted, stage(OpportunityStagePendingDocs), 1, "Pending Documents"},
		{QuotationStatusDocsUploaded, stage(OpportunityStageBookingRequested), 3, "Booking Requested"},
		{QuotationStatusShipped, stage(OpportunityStagePendingDocs), 4, "Shipped"},
		{QuotationStatusCompleted, nil, 5, "Delivered"},
		{QuotationStatusSent, stage(OpportunityStagePaymentReceived), 5, "Payment Received"},
	}
	for _, c := range cases {
		assert.Equal(t, c.step, TrackingStep(c.status, c.stage), "%s", c.status)
		assert.Equal(t, c.label, TrackingStatusLabel(c.status, c.stage), "%s", c.status)
	}
}

func TestRenderBookingEmail(t *testing.T) {
	q := &Quotation{
		CustomerName: "Siam Fresh Co.",
		Pallets: []QuotationPallet{
			{Length: dec("120"), Width: dec("100"), Height: dec("100"), Weight: dec("150"), Quantity: 2},
			{Length: dec("80"), Width: dec("60"), Height: dec("50"), Weight: dec("40"), Quantity: 0},
		},
	}
	email, err := RenderBookingEmail(q, "Myanmar", BookingEmailInput{Product: "Durian", SenderName: "Nok"})
	require.NoError(t, err)
	assert.Equal(t, "Booking Request - Durian to Myanmar", email.Subject)
	assert.Contains(t, email.Body, "Net Weight: 340 KG")
	assert.Contains(t, email.Body, "NUMBER OF PIECE: 3 Pallets")
	assert.Contains(t, email.Body, "PALLET DIMENSION: 120 × 100 × 100 cm")
	assert.Contains(t, email.Body, "SHIPPER: Siam Fresh Co.")
	assert.Contains(t, email.Body, "ORIGIN: BKK")
	assert.True(t, strings.HasSuffix(email.Body, "Nok"))

	empty, err := RenderBookingEmail(&Quotation{}, "", BookingEmailInput{})
	require.NoError(t, err)
	assert.Equal(t, "Booking Request - Shipment to International", empty.Subject)
	assert.Contains(t, empty.Body, "[Recipient Name]")
}

func TestActiveRates_PicksLatestEffectiveSet(t *testing.T) {
	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	rates := []*FreightRate{
		{ID: 1, MinWeight: decPtr("0"), BaseRate: dec("60")},
		{ID: 2, MinWeight: decPtr("100"), BaseRate: dec("45"), EffectiveDate: &mar},
		{ID: 3, MinWeight: decPtr("0"), BaseRate: dec("50"), EffectiveDate: &mar},
		{ID: 4, MinWeight: decPtr("0"), BaseRate: dec("55"), EffectiveDate: &jan},
		{ID: 5, MinWeight: decPtr("0"), BaseRate: dec("40"), EffectiveDate: &jun},
	}
	ids := func(rs []*FreightRate) []int {
		out := make([]int, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}
	assert.Equal(t, []int{3, 2}, ids(ActiveRates(rates, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))))
	assert.Equal(t, []int{1}, ids(ActiveRates(rates, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC))))
}

func TestPackingListTotals(t *testing.T) {
	pallets := []PackingListPallet{
		{BoxFrom: 1, BoxTo: 10},
		{BoxFrom: 11, BoxTo: 15},
	}
	boxes, _ := PackingListTotals(pallets)
	assert.Equal(t, 15, boxes)
}

func TestQuotationStatus_Transitions(t *testing.T) {
	assert.True(t, QuotationStatusDraft.CanTransitionTo(QuotationStatusSent))
	assert.True(t, QuotationStatusSent.CanTransitionTo(QuotationStatusSent))
	assert.False(t, QuotationStatusDraft.CanTransitionTo(QuotationStatusCompleted))
	assert.False(t, QuotationStatusCompleted.CanTransitionTo(QuotationStatusDraft))
	assert.False(t, QuotationStatus("lost").IsValid())
}

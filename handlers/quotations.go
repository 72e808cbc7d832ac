package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hiflogistics/freight_backend/middlewares"
	"github.com/hiflogistics/freight_backend/models"
)

type quotationListItem struct {
	*models.Quotation
	CompanyName     string `json:"company_name"`
	DestinationName string `json:"destination_name"`
}

type quotationPage struct {
	Items    []quotationListItem `json:"items"`
	PageInfo *models.PageInfo    `json:"page_info"`
}

type statusInput struct {
	Status string `json:"status" binding:"required"`
}

// withNames resolves company and destination names through the request loaders.
func withNames(ctx context.Context, quotations []*models.Quotation) ([]quotationListItem, error) {
	companyIds := make([]int, 0, len(quotations))
	for _, q := range quotations {
		companyIds = append(companyIds, q.CompanyId)
	}
	companies, errs := middlewares.GetCompanies(ctx, companyIds)
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	items := make([]quotationListItem, 0, len(quotations))
	for i, q := range quotations {
		item := quotationListItem{Quotation: q}
		if companies[i] != nil {
			item.CompanyName = companies[i].Name
		}
		destination, err := middlewares.GetDestination(ctx, q.DestinationId)
		if err != nil {
			return nil, err
		}
		if destination != nil {
			item.DestinationName = destination.Country
		}
		items = append(items, item)
	}
	return items, nil
}

func previewQuotation(c *gin.Context) {
	var input models.PricingRequest
	if !bindJSON(c, &input) {
		return
	}
	result, err := models.PriceQuotation(c.Request.Context(), &input)
	respond(c, http.StatusOK, result, err)
}

func listQuotations(c *gin.Context) {
	var filter models.QuotationFilter
	if !bindQuery(c, &filter) {
		return
	}
	ctx := c.Request.Context()
	limit, after := pageParams(c)
	conn, err := models.PaginateQuotations(ctx, filter, limit, after)
	if err != nil {
		respondError(c, err)
		return
	}
	quotations := make([]*models.Quotation, 0, len(conn.Edges))
	for _, edge := range conn.Edges {
		quotations = append(quotations, edge.Node)
	}
	items, err := withNames(ctx, quotations)
	respond(c, http.StatusOK, quotationPage{Items: items, PageInfo: conn.PageInfo}, err)
}

func getQuotation(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	quotation, err := models.GetQuotation(c.Request.Context(), id)
	respond(c, http.StatusOK, quotation, err)
}

func createQuotation(c *gin.Context) {
	var input models.NewQuotation
	if !bindJSON(c, &input) {
		return
	}
	quotation, err := models.CreateQuotation(c.Request.Context(), &input)
	respond(c, http.StatusCreated, quotation, err)
}

func updateQuotation(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewQuotation
	if !bindJSON(c, &input) {
		return
	}
	quotation, err := models.UpdateQuotation(c.Request.Context(), id, &input)
	respond(c, http.StatusOK, quotation, err)
}

func deleteQuotation(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	quotation, err := models.DeleteQuotation(c.Request.Context(), id)
	respond(c, http.StatusOK, quotation, err)
}

func updateQuotationStatus(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input statusInput
	if !bindJSON(c, &input) {
		return
	}
	quotation, err := models.UpdateQuotationStatus(c.Request.Context(), id, models.QuotationStatus(input.Status))
	respond(c, http.StatusOK, quotation, err)
}

func duplicateQuotation(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	quotation, err := models.DuplicateQuotation(c.Request.Context(), id)
	respond(c, http.StatusCreated, quotation, err)
}

func shareQuotation(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	quotation, err := models.GenerateShareToken(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"share_token": quotation.ShareToken})
}

func bookingEmail(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.BookingEmailInput
	if c.Request.ContentLength != 0 && !bindJSON(c, &input) {
		return
	}
	email, err := models.GetBookingEmail(c.Request.Context(), id, input)
	respond(c, http.StatusOK, email, err)
}

func quotationChecklist(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	checklist, err := models.GetDocumentChecklist(c.Request.Context(), id)
	respond(c, http.StatusOK, checklist, err)
}

func quotationDocuments(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	if _, err := models.GetQuotation(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	docs, err := middlewares.GetQuotationDocuments(c.Request.Context(), id)
	respond(c, http.StatusOK, docs, err)
}

func exportQuotationRegister(c *gin.Context) {
	var filter models.QuotationFilter
	if !bindQuery(c, &filter) {
		return
	}
	f, err := models.ExportQuotationRegister(c.Request.Context(), filter)
	writeXlsx(c, "quotations.xlsx", f, err)
}

func getDebitNote(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	note, err := models.GetOrDraftDebitNote(c.Request.Context(), id)
	respond(c, http.StatusOK, note, err)
}

func saveDebitNote(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewDebitNote
	if !bindJSON(c, &input) {
		return
	}
	note, err := models.SaveDebitNote(c.Request.Context(), id, &input)
	respond(c, http.StatusOK, note, err)
}

func listDebitNotes(c *gin.Context) {
	var filter models.DebitNoteFilter
	if !bindQuery(c, &filter) {
		return
	}
	notes, err := models.GetDebitNotes(c.Request.Context(), filter)
	respond(c, http.StatusOK, notes, err)
}

func deleteDebitNote(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	note, err := models.DeleteDebitNote(c.Request.Context(), id)
	respond(c, http.StatusOK, note, err)
}

func quotationPallets(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	if _, err := models.GetQuotation(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	pallets, err := middlewares.GetQuotationPallets(c.Request.Context(), id)
	respond(c, http.StatusOK, pallets, err)
}

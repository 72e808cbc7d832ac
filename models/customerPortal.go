package models

import (
	"context"
	"errors"

	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/utils"
	"gorm.io/gorm"
)

var ErrNotCompanyQuotation = errors.New("quotation does not belong to this company")

const portalRecentLimit = 5

type PortalStats struct {
	TotalQuotations    int          `json:"total_quotations"`
	ActiveQuotations   int          `json:"active_quotations"`
	InTransitShipments int          `json:"in_transit_shipments"`
	CompletedShipments int          `json:"completed_shipments"`
	RecentQuotations   []*Quotation `json:"recent_quotations"`
}

// BuildPortalStats expects quotations newest first.
func BuildPortalStats(quotations []*Quotation) *PortalStats {
	stats := &PortalStats{
		TotalQuotations:  len(quotations),
		RecentQuotations: make([]*Quotation, 0, portalRecentLimit),
	}
	for _, q := range quotations {
		switch {
		case q.Status.IsActive():
			stats.ActiveQuotations++
		case q.Status == QuotationStatusShipped:
			stats.InTransitShipments++
		case q.Status == QuotationStatusCompleted:
			stats.CompletedShipments++
		}
	}
	if len(quotations) > portalRecentLimit {
		quotations = quotations[:portalRecentLimit]
	}
	stats.RecentQuotations = append(stats.RecentQuotations, quotations...)
	return stats
}

func GetPortalQuotations(ctx context.Context, companyId int) ([]*Quotation, error) {
	if err := utils.ValidateResourceId[Company](ctx, companyId); err != nil {
		return nil, err
	}
	db := config.GetDB()
	var results []*Quotation
	err := db.WithContext(ctx).
		Where("company_id = ?", companyId).
		Preload("Pallets", func(db *gorm.DB) *gorm.DB { return db.Order("seq_no") }).
		Preload("Charges", func(db *gorm.DB) *gorm.DB { return db.Order("seq_no") }).
		Order("created_at DESC").Order("id DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetPortalQuotation hides quotations of other companies as not found.
func GetPortalQuotation(ctx context.Context, companyId int, id int) (*Quotation, error) {
	quotation, err := GetQuotation(ctx, id)
	if err != nil {
		return nil, err
	}
	if quotation.CompanyId != companyId {
		return nil, utils.ErrorRecordNotFound
	}
	return quotation, nil
}

// RequestQuotation stores a customer request as a priced draft.
func RequestQuotation(ctx context.Context, companyId int, input *NewQuotation) (*Quotation, error) {
	input.CompanyId = companyId
	input.Status = QuotationStatusDraft
	input.RequestedByCustomer = true
	return CreateQuotation(ctx, input)
}

func GetPortalDocuments(ctx context.Context, companyId int) ([]*DocumentSubmission, error) {
	if err := utils.ValidateResourceId[Company](ctx, companyId); err != nil {
		return nil, err
	}
	return GetDocumentSubmissions(ctx, DocumentFilter{CompanyId: &companyId})
}

// SubmitPortalDocument only accepts documents for the company's own quotations.
func SubmitPortalDocument(ctx context.Context, companyId int, input *NewDocumentSubmission) (*DocumentSubmission, error) {
	quotation, err := utils.FetchModel[Quotation](ctx, input.QuotationId)
	if err != nil {
		return nil, err
	}
	if quotation.CompanyId != companyId {
		return nil, ErrNotCompanyQuotation
	}
	return SubmitDocument(ctx, input)
}

func GetPortalStats(ctx context.Context, companyId int) (*PortalStats, error) {
	if err := utils.ValidateResourceId[Company](ctx, companyId); err != nil {
		return nil, err
	}
	db := config.GetDB()
	var quotations []*Quotation
	err := db.WithContext(ctx).
		Where("company_id = ?", companyId).
		Order("created_at DESC").Order("id DESC").
		Find(&quotations).Error
	if err != nil {
		return nil, err
	}
	return BuildPortalStats(quotations), nil
}

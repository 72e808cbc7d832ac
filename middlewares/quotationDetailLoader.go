package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/hiflogistics/freight_backend/models"
	"gorm.io/gorm"
)

type quotationDocumentReader struct {
	db *gorm.DB
}

func (r *quotationDocumentReader) GetDocuments(ctx context.Context, quotationIds []int) []*dataloader.Result[[]*models.DocumentSubmission] {
	var results []models.DocumentSubmission
	err := r.db.WithContext(ctx).Where("quotation_id IN ?", quotationIds).Order("submitted_at DESC").Find(&results).Error
	if err != nil {
		return handleError[[]*models.DocumentSubmission](len(quotationIds), err)
	}
	return generateLoaderArrayResults(results, quotationIds)
}

type quotationPalletReader struct {
	db *gorm.DB
}

func (r *quotationPalletReader) GetPallets(ctx context.Context, quotationIds []int) []*dataloader.Result[[]*models.QuotationPallet] {
	var results []models.QuotationPallet
	err := r.db.WithContext(ctx).Where("quotation_id IN ?", quotationIds).Order("seq_no").Find(&results).Error
	if err != nil {
		return handleError[[]*models.QuotationPallet](len(quotationIds), err)
	}
	return generateLoaderArrayResults(results, quotationIds)
}

func GetQuotationDocuments(ctx context.Context, quotationId int) ([]*models.DocumentSubmission, error) {
	loaders := For(ctx)
	return loaders.quotationDocumentLoader.Load(ctx, quotationId)()
}

func GetQuotationPallets(ctx context.Context, quotationId int) ([]*models.QuotationPallet, error) {
	loaders := For(ctx)
	return loaders.quotationPalletLoader.Load(ctx, quotationId)()
}

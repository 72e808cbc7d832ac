package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/hiflogistics/freight_backend/models"
	"gorm.io/gorm"
)

type companyReader struct {
	db *gorm.DB
}

func (r *companyReader) getCompanies(ctx context.Context, ids []int) []*dataloader.Result[*models.Company] {
	var results []models.Company
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.Company](len(ids), err)
	}
	return generateLoaderResults(results, ids)
}

func GetCompany(ctx context.Context, id int) (*models.Company, error) {
	loaders := For(ctx)
	return loaders.CompanyLoader.Load(ctx, id)()
}

func GetCompanies(ctx context.Context, ids []int) ([]*models.Company, []error) {
	loaders := For(ctx)
	return loaders.CompanyLoader.LoadMany(ctx, ids)()
}

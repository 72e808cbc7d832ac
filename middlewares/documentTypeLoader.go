package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/hiflogistics/freight_backend/models"
	"gorm.io/gorm"
)

type documentTypeReader struct {
	db *gorm.DB
}

func (r *documentTypeReader) getDocumentTypes(ctx context.Context, ids []int) []*dataloader.Result[*models.DocumentType] {
	var results []models.DocumentType
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.DocumentType](len(ids), err)
	}
	return generateLoaderResults(results, ids)
}

func GetDocumentType(ctx context.Context, id int) (*models.DocumentType, error) {
	loaders := For(ctx)
	return loaders.DocumentTypeLoader.Load(ctx, id)()
}

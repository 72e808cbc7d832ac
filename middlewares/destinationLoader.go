package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/hiflogistics/freight_backend/models"
	"gorm.io/gorm"
)

type destinationReader struct {
	db *gorm.DB
}

func (r *destinationReader) getDestinations(ctx context.Context, ids []int) []*dataloader.Result[*models.Destination] {
	var results []models.Destination
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.Destination](len(ids), err)
	}
	return generateLoaderResults(results, ids)
}

func GetDestination(ctx context.Context, id int) (*models.Destination, error) {
	loaders := For(ctx)
	return loaders.DestinationLoader.Load(ctx, id)()
}

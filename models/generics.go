package models

import (
	"context"

	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/utils"
)

// first find in redis, then in db, cache result
// (may return RecordNotFound error)
func GetResource[T any](ctx context.Context, id int, associations ...string) (*T, error) {
	result, err := utils.RetrieveRedis[T](id)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result, err = utils.FetchModel[T](ctx, id, associations...)
		if err != nil {
			return nil, err
		}
		if err := utils.StoreRedis[T](result, id); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// list all resources, redis or db, cache result
func ListAllResource[T any](ctx context.Context, orders ...string) ([]*T, error) {
	results, err := utils.RetrieveRedisList[T]("")
	if err != nil {
		return nil, err
	}
	if results == nil {
		db := config.GetDB()
		var model T
		dbCtx := db.WithContext(ctx).Model(&model)
		for _, order := range orders {
			dbCtx = dbCtx.Order(order)
		}
		results = make([]*T, 0)
		if err = dbCtx.Find(&results).Error; err != nil {
			return nil, err
		}
		if err := utils.StoreRedisList[T](results, ""); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// drop the cached instance and every cached list of the type
func invalidateResource[T any](id int) error {
	if err := utils.RemoveRedisItem[T](id); err != nil {
		return err
	}
	return utils.RemoveRedisLists[T]()
}

package utils

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/hiflogistics/freight_backend/config"
)

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil || lifespan <= 0 {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	return reflect.TypeOf(v).Name()
}

/* Redis */

// key for a single instance, Type:id
func RedisItemKey[T any](id int) string {
	return GetTypeName[T]() + ":" + fmt.Sprint(id)
}

// key for a list, TypeList or TypeList:scope
func RedisListKey[T any](scope string) string {
	if scope == "" {
		return GetTypeName[T]() + "List"
	}
	return GetTypeName[T]() + "List:" + scope
}

// store instance, obj should be a pointer
func StoreRedis[T any](obj any, id int) error {
	return config.SetRedisObject(RedisItemKey[T](id), &obj, GetCacheLifespan())
}

// store list, scope can be empty
func StoreRedisList[T any](obj any, scope string) error {
	return config.SetRedisObject(RedisListKey[T](scope), &obj, GetCacheLifespan())
}

// get from redis
// returns nil if does not exist
func RetrieveRedis[T any](id int) (*T, error) {
	var result *T
	exists, err := config.GetRedisObject(RedisItemKey[T](id), &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

// retrieve a list, nil if not cached
func RetrieveRedisList[T any](scope string) ([]*T, error) {
	var result []*T
	exists, err := config.GetRedisObject(RedisListKey[T](scope), &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

// clear every scoped list of a type
func RemoveRedisLists[T any]() error {
	if err := config.RemoveRedisKey(RedisListKey[T]("")); err != nil {
		return err
	}
	return config.RemoveRedisPattern(GetTypeName[T]() + "List:*")
}

// remove an instance, Type:id
func RemoveRedisItem[T any](id int) error {
	return config.RemoveRedisKey(RedisItemKey[T](id))
}

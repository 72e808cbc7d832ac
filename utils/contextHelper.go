package utils

import (
	"context"

	"github.com/hiflogistics/freight_backend/appctx"
)

const DefaultActorName = "System"

var (
	ContextKeyCorrelationId   = appctx.ContextKeyCorrelationId
	ContextKeyActorName       = appctx.ContextKeyActorName
	ContextKeyPortalCompanyId = appctx.ContextKeyPortalCompanyId
)

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

// GetActorNameFromContext falls back to DefaultActorName.
func GetActorNameFromContext(ctx context.Context) string {
	if name, ok := appctx.GetString(ctx, ContextKeyActorName); ok && name != "" {
		return name
	}
	return DefaultActorName
}

func SetActorNameInContext(ctx context.Context, name string) context.Context {
	return appctx.Set(ctx, ContextKeyActorName, name)
}

func GetPortalCompanyIdFromContext(ctx context.Context) (int, bool) {
	return appctx.GetInt(ctx, ContextKeyPortalCompanyId)
}

func SetPortalCompanyIdInContext(ctx context.Context, companyId int) context.Context {
	return appctx.Set(ctx, ContextKeyPortalCompanyId, companyId)
}

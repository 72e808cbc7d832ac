package middlewares

import (
	"context"
	"reflect"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/models"
	"gorm.io/gorm"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders batch the lookups list endpoints make per row.
type Loaders struct {
	CompanyLoader      *dataloader.Loader[int, *models.Company]
	DestinationLoader  *dataloader.Loader[int, *models.Destination]
	DocumentTypeLoader *dataloader.Loader[int, *models.DocumentType]

	quotationDocumentLoader *dataloader.Loader[int, []*models.DocumentSubmission]
	quotationPalletLoader   *dataloader.Loader[int, []*models.QuotationPallet]
}

func NewLoaders(conn *gorm.DB) *Loaders {
	companyReader := &companyReader{db: conn}
	destinationReader := &destinationReader{db: conn}
	documentTypeReader := &documentTypeReader{db: conn}
	quotationDocumentReader := &quotationDocumentReader{db: conn}
	quotationPalletReader := &quotationPalletReader{db: conn}

	return &Loaders{
		CompanyLoader:      dataloader.NewBatchedLoader(companyReader.getCompanies, dataloader.WithWait[int, *models.Company](time.Millisecond)),
		DestinationLoader:  dataloader.NewBatchedLoader(destinationReader.getDestinations, dataloader.WithWait[int, *models.Destination](time.Millisecond)),
		DocumentTypeLoader: dataloader.NewBatchedLoader(documentTypeReader.getDocumentTypes, dataloader.WithWait[int, *models.DocumentType](time.Millisecond)),

		quotationDocumentLoader: dataloader.NewBatchedLoader(quotationDocumentReader.GetDocuments, dataloader.WithWait[int, []*models.DocumentSubmission](time.Millisecond)),
		quotationPalletLoader:   dataloader.NewBatchedLoader(quotationPalletReader.GetPallets, dataloader.WithWait[int, []*models.QuotationPallet](time.Millisecond)),
	}
}

func LoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		loader := NewLoaders(config.GetDB())
		ctx := context.WithValue(c.Request.Context(), loadersKey, loader)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// For returns the request's loaders. Outside a request a fresh set is built.
func For(ctx context.Context) *Loaders {
	if loaders, ok := ctx.Value(loadersKey).(*Loaders); ok {
		return loaders
	}
	return NewLoaders(config.GetDB())
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// turns results from db into dataloader results
// (T must be a struct)
func generateLoaderResults[T models.Data](results []T, ids []int) []*dataloader.Result[*T] {
	resultMap := make(map[int]T)
	var resultZero T
	resultMap[0] = resultZero.GetDefault(0).(T)
	for _, result := range results {
		resultMap[result.GetId()] = result
	}

	loaderResults := make([]*dataloader.Result[*T], 0, len(ids))
	for _, id := range ids {
		data := resultMap[id]
		if reflect.ValueOf(data).IsZero() {
			data = data.GetDefault(id).(T)
		}
		loaderResults = append(loaderResults, &dataloader.Result[*T]{Data: &data})
	}
	return loaderResults
}

// T must be struct
// each id has many related results
func generateLoaderArrayResults[T models.RelatedData](results []T, referenceIds []int) (loaderResults []*dataloader.Result[[]*T]) {
	resultMap := make(map[int][]*T)
	for _, result := range results {
		// new variable every turn, so the pointer is not shared
		copy := result
		resultMap[result.GetReferenceId()] = append(resultMap[result.GetReferenceId()], &copy)
	}
	for _, id := range referenceIds {
		resultArray := resultMap[id]
		loaderResults = append(loaderResults, &dataloader.Result[[]*T]{Data: resultArray})
	}
	return loaderResults
}

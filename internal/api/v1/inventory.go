package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/tenantdesk/internal/server/middleware"
)

type AdjustStockInput struct {
	ID   string `path:"id" doc:"Inventory item ID"`
	Body struct {
		Delta float64 `json:"delta" doc:"Units to add (positive) or remove (negative)"`
	}
}

func RegisterInventoryRoutes(api huma.API, stock InventoryService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-inventory",
		Method:      http.MethodGet,
		Path:        "/inventory",
		Summary:     "List inventory items by name",
		Tags:        []string{"Inventory"},
	}, func(ctx context.Context, _ *struct{}) (*RecordsOutput, error) {
		scope := middleware.ScopeFromContext(ctx)
		if scope.IsNone() {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		items, err := stock.List(ctx, scope)
		if err != nil {
			return nil, toHTTPError(err, "failed to list inventory")
		}

		return &RecordsOutput{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "adjust-stock",
		Method:      http.MethodPost,
		Path:        "/inventory/{id}/adjust",
		Summary:     "Adjust the stock of an inventory item",
		Tags:        []string{"Inventory"},
	}, func(ctx context.Context, input *AdjustStockInput) (*RecordOutput, error) {
		scope := middleware.ScopeFromContext(ctx)
		if scope.IsNone() {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		item, err := stock.AdjustStock(ctx, scope, input.ID, input.Body.Delta)
		if err != nil {
			return nil, toHTTPError(err, "failed to adjust stock")
		}

		return &RecordOutput{Body: item}, nil
	})
}

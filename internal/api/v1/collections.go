package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/tenantdesk/internal/domain"
	"github.com/gosuda/tenantdesk/internal/server/middleware"
)

type ListRecordsInput struct {
	Collection string `path:"collection" doc:"Collection name"`
	Sort       string `query:"sort" doc:"Field to sort by"`
	Order      string `query:"order" enum:"asc,desc" default:"asc" doc:"Sort direction"`
}

type RecordsOutput struct {
	Body []domain.Record
}

type InsertRecordInput struct {
	Collection string        `path:"collection" doc:"Collection name"`
	Body       domain.Record `doc:"Record fields; companyId is always taken from the caller"`
}

type RecordOutput struct {
	Body domain.Record
}

type SaveRecordsInput struct {
	Collection string          `path:"collection" doc:"Collection name"`
	Body       []domain.Record `doc:"Full next state of the caller's slice of the collection"`
}

type UpdateRecordInput struct {
	Collection string        `path:"collection" doc:"Collection name"`
	ID         string        `path:"id" doc:"Record ID"`
	Body       domain.Record `doc:"Fields to overwrite"`
}

type DeleteRecordInput struct {
	Collection string `path:"collection" doc:"Collection name"`
	ID         string `path:"id" doc:"Record ID"`
}

// RegisterCollectionRoutes exposes the data service over every known
// collection. The Tenant Scope always comes from the authenticated actor.
// Tenant and account rows are writable by the platform owner only, and
// account listings are narrowed to the caller's tenant.
func RegisterCollectionRoutes(api huma.API, data DataService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-records",
		Method:      http.MethodGet,
		Path:        "/collections/{collection}",
		Summary:     "List the records of a collection",
		Tags:        []string{"Collections"},
	}, func(ctx context.Context, input *ListRecordsInput) (*RecordsOutput, error) {
		coll, err := lookup(input.Collection)
		if err != nil {
			return nil, err
		}

		recs, err := data.FetchAll(ctx, middleware.ScopeFromContext(ctx), coll)
		if err != nil {
			return nil, toHTTPError(err, "failed to list records")
		}
		actor, _ := middleware.ActorFromContext(ctx)
		recs = coll.ReadableBy(actor, recs)
		if input.Sort != "" {
			domain.SortBy(recs, input.Sort, input.Order == "desc")
		}

		return &RecordsOutput{Body: recs}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "insert-record",
		Method:      http.MethodPost,
		Path:        "/collections/{collection}",
		Summary:     "Create a record",
		Tags:        []string{"Collections"},
	}, func(ctx context.Context, input *InsertRecordInput) (*RecordOutput, error) {
		coll, err := writable(ctx, input.Collection)
		if err != nil {
			return nil, err
		}

		rec, err := data.InsertOne(ctx, middleware.ScopeFromContext(ctx), coll, input.Body)
		if err != nil {
			return nil, toHTTPError(err, "failed to create record")
		}

		return &RecordOutput{Body: rec}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "save-records",
		Method:      http.MethodPut,
		Path:        "/collections/{collection}",
		Summary:     "Replace the caller's records of a collection",
		Tags:        []string{"Collections"},
	}, func(ctx context.Context, input *SaveRecordsInput) (*struct{}, error) {
		coll, err := writable(ctx, input.Collection)
		if err != nil {
			return nil, err
		}

		if err := data.Save(ctx, middleware.ScopeFromContext(ctx), coll, input.Body); err != nil {
			return nil, toHTTPError(err, "failed to save records")
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-record",
		Method:      http.MethodPatch,
		Path:        "/collections/{collection}/{id}",
		Summary:     "Merge fields into a record",
		Tags:        []string{"Collections"},
	}, func(ctx context.Context, input *UpdateRecordInput) (*struct{}, error) {
		coll, err := writable(ctx, input.Collection)
		if err != nil {
			return nil, err
		}

		if err := data.UpdateOne(ctx, middleware.ScopeFromContext(ctx), coll, input.ID, input.Body); err != nil {
			return nil, toHTTPError(err, "failed to update record")
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-record",
		Method:      http.MethodDelete,
		Path:        "/collections/{collection}/{id}",
		Summary:     "Delete a record",
		Tags:        []string{"Collections"},
	}, func(ctx context.Context, input *DeleteRecordInput) (*struct{}, error) {
		coll, err := writable(ctx, input.Collection)
		if err != nil {
			return nil, err
		}

		if err := data.DeleteOne(ctx, middleware.ScopeFromContext(ctx), coll, input.ID); err != nil {
			return nil, toHTTPError(err, "failed to delete record")
		}

		return nil, nil
	})
}

// writable resolves a collection the caller is about to write.
func writable(ctx context.Context, name string) (domain.Collection, error) {
	coll, err := lookup(name)
	if err != nil {
		return domain.Collection{}, err
	}
	actor, _ := middleware.ActorFromContext(ctx)
	if !coll.WritableBy(actor) {
		return domain.Collection{}, huma.Error403Forbidden("platform owner required to modify " + coll.Name)
	}
	return coll, nil
}

package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/tenantdesk/internal/domain"
	"github.com/gosuda/tenantdesk/internal/provision"
)

type CreateTenantInput struct {
	Body struct {
		Name          string `json:"name" minLength:"1" maxLength:"255" doc:"Company name"`
		Document      string `json:"document,omitempty" maxLength:"32" doc:"Tax id"`
		AdminName     string `json:"admin_name" minLength:"1" maxLength:"255" doc:"Administrator display name"`
		AdminEmail    string `json:"admin_email" minLength:"3" maxLength:"255" doc:"Administrator login email"`
		AdminPassword string `json:"admin_password" minLength:"8" maxLength:"128" doc:"Administrator password"` //nolint:gosec // G117: credential DTO
	}
}

type CreateTenantOutput struct {
	Body struct {
		Tenant domain.Record `json:"tenant"`
		Admin  *domain.Actor `json:"admin"`
	}
}

type ResetInput struct {
	Body struct {
		Collections []string `json:"collections,omitempty" doc:"Collections to wipe; all when empty"`
	} `required:"false"`
}

type ResetOutput struct {
	Body struct {
		Cleared []string `json:"cleared"`
	}
}

// RegisterAdminRoutes mounts platform administration. The caller must chain
// middleware.RequireOwner in front of these routes.
func RegisterAdminRoutes(api huma.API, data DataService, prov Provisioner) {
	huma.Register(api, huma.Operation{
		OperationID: "create-tenant",
		Method:      http.MethodPost,
		Path:        "/admin/tenants",
		Summary:     "Provision a tenant and its administrator",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *CreateTenantInput) (*CreateTenantOutput, error) {
		res, err := prov.CreateTenant(ctx, provision.Request{
			TenantName:     input.Body.Name,
			TenantDocument: input.Body.Document,
			AdminName:      input.Body.AdminName,
			AdminEmail:     input.Body.AdminEmail,
			AdminPassword:  input.Body.AdminPassword,
		})
		if err != nil {
			return nil, toHTTPError(err, "failed to provision tenant")
		}

		out := &CreateTenantOutput{}
		out.Body.Tenant = res.Tenant.Record()
		out.Body.Admin = res.Admin.Actor()
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "seed",
		Method:        http.MethodPost,
		Path:          "/admin/seed",
		Summary:       "Seed demonstration data into an empty remote",
		Tags:          []string{"Admin"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, _ *struct{}) (*struct{}, error) {
		if err := data.SeedInitialData(ctx); err != nil {
			return nil, toHTTPError(err, "failed to seed")
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reset",
		Method:      http.MethodPost,
		Path:        "/admin/reset",
		Summary:     "Wipe collections remotely and locally",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *ResetInput) (*ResetOutput, error) {
		colls := domain.Collections()
		if len(input.Body.Collections) > 0 {
			colls = colls[:0]
			for _, name := range input.Body.Collections {
				coll, err := lookup(name)
				if err != nil {
					return nil, err
				}
				colls = append(colls, coll)
			}
		}

		data.ClearAll(ctx, colls)

		out := &ResetOutput{}
		out.Body.Cleared = make([]string, 0, len(colls))
		for _, c := range colls {
			out.Body.Cleared = append(out.Body.Cleared, c.Name)
		}
		return out, nil
	})
}

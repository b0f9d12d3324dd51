package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/tenantdesk/internal/api/v1"
	"github.com/gosuda/tenantdesk/internal/api/ws"
)

func registerAuthRoutes(api huma.API, deps Deps) {
	v1.RegisterAuthRoutes(api, deps.Auth)
}

func registerAPIRoutes(api huma.API, deps Deps) {
	v1.RegisterMeRoutes(api)
	v1.RegisterCollectionRoutes(api, deps.Data)
}

func registerTenantRoutes(api huma.API, deps Deps) {
	v1.RegisterInventoryRoutes(api, deps.Inventory)
}

func registerAdminRoutes(api huma.API, deps Deps) {
	v1.RegisterAdminRoutes(api, deps.Data, deps.Provisioner)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/collections/{collection}", hub.ServeCollection)
}

// Package router mounts the bounded context route groups, each route gated by
// the permission it names.
package router

import (
	"cmp"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar mounts its routes on the API group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Guard turns a permission name into the middleware enforcing it
type Guard interface {
	Require(permission string) gin.HandlerFunc
}

// Router mounts groups under /api/{version} behind shared middleware
type Router struct {
	engine     *gin.Engine
	version    string
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
}

type RouterOption func(*Router)

// WithAPIVersion replaces the default "v1"
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.version = version }
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, version: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds middleware that runs before every API route
func (r *Router) Use(middleware ...gin.HandlerFunc) *Router {
	r.middleware = append(r.middleware, middleware...)
	return r
}

func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Setup mounts every registered group
func (r *Router) Setup() {
	api := r.engine.Group("/api/"+r.version, r.middleware...)
	for _, reg := range r.registrars {
		reg.RegisterRoutes(api)
	}
}

// Route describes one endpoint. An empty Permission only needs
// authentication.
type Route struct {
	Method     string
	Path       string
	Permission string
}

// DomainGroup collects the routes of one bounded context
type DomainGroup struct {
	name       string
	prefix     string
	guard      Guard
	middleware []gin.HandlerFunc
	routes     []Route
	handlers   [][]gin.HandlerFunc
}

func NewDomainGroup(name, prefix string, guard Guard) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix, guard: guard}
}

// Use adds middleware to this group only
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

func (dg *DomainGroup) handle(method, path, permission string, handlers []gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, Route{Method: method, Path: path, Permission: permission})
	dg.handlers = append(dg.handlers, handlers)
	return dg
}

func (dg *DomainGroup) GET(path, permission string, h ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodGet, path, permission, h)
}

func (dg *DomainGroup) POST(path, permission string, h ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPost, path, permission, h)
}

func (dg *DomainGroup) PUT(path, permission string, h ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPut, path, permission, h)
}

func (dg *DomainGroup) DELETE(path, permission string, h ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodDelete, path, permission, h)
}

// RegisterRoutes puts the permission guard in front of each handler chain
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix, dg.middleware...)
	for i, route := range dg.routes {
		chain := dg.handlers[i]
		if route.Permission != "" && dg.guard != nil {
			chain = append([]gin.HandlerFunc{dg.guard.Require(route.Permission)}, chain...)
		}
		group.Handle(route.Method, route.Path, chain...)
	}
}

func (dg *DomainGroup) Name() string   { return dg.name }
func (dg *DomainGroup) Prefix() string { return dg.prefix }

// Routes lists the endpoints with full paths, sorted by path then method
func (dg *DomainGroup) Routes() []Route {
	out := make([]Route, len(dg.routes))
	for i, r := range dg.routes {
		r.Path = dg.prefix + r.Path
		out[i] = r
	}
	slices.SortFunc(out, func(a, b Route) int {
		return cmp.Or(cmp.Compare(a.Path, b.Path), cmp.Compare(a.Method, b.Method))
	})
	return out
}

package application

import (
	"net/http"
	"reflect"

	"github.com/benbjohnson/hashfs"
	"github.com/gorilla/mux"

	"github.com/mazmed/portal/pkg/eventbus"
)

// Controller owns a set of routes mounted on the root router.
type Controller interface {
	Register(r *mux.Router)
	Key() string
}

// Module wires services and controllers of one bounded context.
type Module interface {
	Register(app Application) error
	Name() string
}

// Application is the process-wide registry shared by modules.
type Application interface {
	EventPublisher() eventbus.EventBus
	Controllers() []Controller
	Middleware() []mux.MiddlewareFunc
	HashFsAssets() []*hashfs.FS
	RegisterControllers(controllers ...Controller)
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	RegisterHashFsAssets(fs ...*hashfs.FS)
	RegisterServices(services ...interface{})
	Service(service interface{}) interface{}
	Services() map[reflect.Type]interface{}
	HTTPClient() *http.Client
}

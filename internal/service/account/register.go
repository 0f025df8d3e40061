package account

import (
	"google.golang.org/grpc"

	"github.com/coolmes833/swapskills/internal/api"
	"github.com/coolmes833/swapskills/internal/app"
)

// Registrar ties the Account service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(s grpc.ServiceRegistrar) {
	api.RegisterAccountServiceServer(s, NewAccountService(r.appCtx))
}

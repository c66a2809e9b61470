package inbound

import (
	"context"

	"github.com/otterhq/otter/internal/pkg/router"
	"github.com/otterhq/otter/internal/push/usecase"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) error
	Send(ctx context.Context, in usecase.SendInput) (*usecase.SendOutput, error)
	Decide(ctx context.Context, in usecase.DecideInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/register-push/:uuid", end.Register)
	r.POST("/send-push/:uuid", end.Send)
	r.POST("/decide-push", end.Decide)
}

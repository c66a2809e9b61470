package inbound

import (
	"context"

	"github.com/otterhq/otter/internal/otp/usecase"
	"github.com/otterhq/otter/internal/pkg/router"
)

type uc interface {
	GenerateHOTP(ctx context.Context, in usecase.GenerateHOTPInput) (*usecase.GenerateOutput, error)
	GenerateTOTP(ctx context.Context, in usecase.GenerateTOTPInput) (*usecase.GenerateOutput, error)
	ProvisionHOTP(ctx context.Context, in usecase.ProvisionHOTPInput) (*usecase.ProvisionOutput, error)
	ProvisionTOTP(ctx context.Context, in usecase.ProvisionTOTPInput) (*usecase.ProvisionOutput, error)

	Verify(ctx context.Context, in usecase.VerifyInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Generation
	r.POST("/generate-otp/hotp", end.GenerateHOTP)
	r.POST("/generate-otp/totp", end.GenerateTOTP)
	r.POST("/generate-otp/hotp/provision-uri", end.ProvisionHOTP)
	r.POST("/generate-otp/totp/provision-uri", end.ProvisionTOTP)

	// Verification
	r.POST("/verify-otp/:otp_type/:uuid", end.Verify)
}

package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/otterhq/otter/internal/otp/entity"
	"github.com/otterhq/otter/internal/pkg/goerror"
	"github.com/otterhq/otter/internal/pkg/otp"
	"github.com/otterhq/otter/internal/pkg/valueobject"
)

type ProvisionTOTPInput struct {
	// Timeout is the step width in seconds.
	Timeout uint `validate:"required,gt=0,lte=86400"`
	// Name labels the account inside the authenticator app.
	Name string `validate:"required,max=100"`
	// IssuerName is the organization shown next to the account.
	IssuerName string `validate:"required,max=100"`
}

// ProvisionTOTP creates a time-based record and returns an otpauth URI
// instead of a raw code.
func (s *Usecase) ProvisionTOTP(ctx context.Context, in ProvisionTOTPInput) (*ProvisionOutput, error) {
	ctx, span := s.startSpan(ctx, "ProvisionTOTP")
	defer span.End()

	in.Name = strings.TrimSpace(in.Name)
	in.IssuerName = strings.TrimSpace(in.IssuerName)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	secret, err := s.secrets.Generate(s.secretLength())
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp secret", "error", err)
		return nil, goerror.NewServer(err)
	}

	rec := entity.Record{
		ID:              s.uuid.Generate(),
		Secret:          secret,
		Mode:            entity.ModeTime,
		IntervalSeconds: in.Timeout,
		ExtraClaims: valueobject.JSONMap{
			"name":   in.Name,
			"issuer": in.IssuerName,
		},
	}

	if err := s.createRecord(ctx, &rec); err != nil {
		slog.ErrorContext(ctx, "failed to create totp record", "error", err)
		return nil, goerror.NewServer(err)
	}

	uri := otp.TOTPProvisioningURI(otp.Provision{
		Issuer:      in.IssuerName,
		AccountName: in.Name,
		Secret:      secret,
		Digits:      s.deriver.Digits(),
	}, in.Timeout)

	s.publishGenerated(ctx, &rec)

	return &ProvisionOutput{RecordID: rec.ID, ProvisioningURI: uri}, nil
}

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

type ProvisionHOTPInput struct {
	// Count seeds the record counter.
	Count uint64
	// Name labels the account inside the authenticator app.
	Name string `validate:"required,max=100"`
	// IssuerName is the organization shown next to the account.
	IssuerName string `validate:"required,max=100"`
	// InitialCount overrides the counter embedded in the URI when set.
	InitialCount *uint64
}

type ProvisionOutput struct {
	RecordID        string
	ProvisioningURI string
}

// ProvisionHOTP creates a counter-based record and returns an otpauth URI
// instead of a raw code. The two outputs are mutually exclusive per call.
func (s *Usecase) ProvisionHOTP(ctx context.Context, in ProvisionHOTPInput) (*ProvisionOutput, error) {
	ctx, span := s.startSpan(ctx, "ProvisionHOTP")
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
		ID:      s.uuid.Generate(),
		Secret:  secret,
		Mode:    entity.ModeCounter,
		Counter: in.Count,
		ExtraClaims: valueobject.JSONMap{
			"name":   in.Name,
			"issuer": in.IssuerName,
		},
	}

	if err := s.createRecord(ctx, &rec); err != nil {
		slog.ErrorContext(ctx, "failed to create hotp record", "error", err)
		return nil, goerror.NewServer(err)
	}

	uriCounter := in.Count
	if in.InitialCount != nil {
		uriCounter = *in.InitialCount
	}

	uri := otp.HOTPProvisioningURI(otp.Provision{
		Issuer:      in.IssuerName,
		AccountName: in.Name,
		Secret:      secret,
		Digits:      s.deriver.Digits(),
	}, uriCounter)

	s.publishGenerated(ctx, &rec)

	return &ProvisionOutput{RecordID: rec.ID, ProvisioningURI: uri}, nil
}

package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/otterhq/otter/internal/pkg/goerror"
	"github.com/otterhq/otter/internal/push/entity"
)

type RegisterInput struct {
	// RecordID names the OTP record the principal is claiming.
	RecordID string `validate:"required,uuid"`
	// Username is the external principal identity.
	Username string `validate:"required,min=1,max=150"`
	// DeviceToken is the optional push registration token. When empty the
	// principal is reachable through a topic send only.
	DeviceToken string `validate:"omitempty,max=4096"`
}

// Register binds a principal to a record and registers its push channel.
// Binding is set-once: re-registering the same principal refreshes the
// device token, a different principal is refused.
func (s *Usecase) Register(ctx context.Context, in RegisterInput) error {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	err := s.retryOnTimeout(ctx, func(ctx context.Context) error {
		return s.repoDB.BindPrincipal(ctx, in.RecordID, in.Username)
	})
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "register against unknown record", "record_id", in.RecordID)
		return goerror.NewRejected()
	}
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "record already bound to another principal", "record_id", in.RecordID)
		return goerror.NewBusiness("record is already bound to another principal", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to bind principal", "record_id", in.RecordID, "error", err)
		return goerror.NewServer(err)
	}

	ch := entity.Channel{
		Principal:   in.Username,
		DeviceToken: in.DeviceToken,
	}
	if err := s.repoDB.UpsertChannel(ctx, ch); err != nil {
		slog.ErrorContext(ctx, "failed to upsert push channel", "principal", in.Username, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

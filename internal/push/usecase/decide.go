package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/otterhq/otter/internal/pkg/goerror"
	"github.com/otterhq/otter/internal/push/entity"
	"github.com/samber/lo"
)

type DecideInput struct {
	// Username is the principal answering the confirmation.
	Username string `validate:"required,min=1,max=150"`
	// ReferCode is the 4-symbol code from the notification.
	ReferCode string `validate:"required,refercode"`
	// Accept is the principal's decision.
	Accept bool
}

// Decide consumes a pending confirmation code and reports the outcome to
// the status callback sink. The code is single-use: the first decision
// invalidates it regardless of accept or deny.
func (s *Usecase) Decide(ctx context.Context, in DecideInput) error {
	ctx, span := s.startSpan(ctx, "Decide")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	in.ReferCode = strings.ToUpper(strings.TrimSpace(in.ReferCode))
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	pending, err := s.repoCache.GetPendingCode(ctx, in.Username)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "no pending refer code", "principal", in.Username)
		return goerror.NewBusiness("refer code is expired or unknown", goerror.CodeRejected)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to read pending refer code", "principal", in.Username, "error", err)
		return goerror.NewServer(err)
	}

	codeHash, err := base64.StdEncoding.DecodeString(pending.CodeHash)
	if err != nil || !s.hmac.Verify(string(codeHash), in.ReferCode) {
		// Wrong guess. The pending code stays live until its TTL or a
		// correct decision.
		slog.WarnContext(ctx, "refer code mismatch", "principal", in.Username)
		return goerror.NewBusiness("refer code is expired or unknown", goerror.CodeRejected)
	}

	// The take deletes only the delivery observed above, so a concurrent
	// resend's fresh code stays live and two decisions cannot both win.
	if _, err := s.repoCache.TakePendingCode(ctx, in.Username, pending.DeliveryID); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "pending refer code already consumed", "principal", in.Username)
			return goerror.NewBusiness("refer code is expired or unknown", goerror.CodeRejected)
		}
		slog.ErrorContext(ctx, "failed to consume pending refer code", "principal", in.Username, "error", err)
		return goerror.NewServer(err)
	}

	status := lo.Ternary(in.Accept, entity.DeliveryStatusAccepted, entity.DeliveryStatusDenied)
	if err := s.repoDB.UpdateDeliveryStatus(ctx, pending.DeliveryID, status); err != nil {
		slog.WarnContext(ctx, "failed to update delivery status", "delivery_id", pending.DeliveryID, "error", err)
	}

	httpCode := lo.Ternary(in.Accept, http.StatusOK, http.StatusBadRequest)
	// The report must outlive the request; its context keeps the trace and
	// correlation values but not the cancelation.
	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.callback.Report(ctx, httpCode); err != nil {
			slog.ErrorContext(ctx, "failed to report decision to callback sink", "delivery_id", pending.DeliveryID, "error", err)
			return err
		}
		return nil
	})

	s.publishDelivery(ctx, &entity.Delivery{
		ID:        pending.DeliveryID,
		RecordID:  pending.RecordID,
		Principal: in.Username,
		Status:    status,
		SentAt:    s.clock.Now(),
	})

	return nil
}

package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/otterhq/otter/internal/otp/entity"
	"github.com/otterhq/otter/internal/pkg/goerror"
)

type VerifyInput struct {
	// OtpType is the hotp|totp path segment the caller claimed.
	OtpType string `validate:"required,oneof=hotp totp"`
	// RecordID is the public correlation id in canonical uuid form.
	RecordID string `validate:"required,uuid"`
	// Code is the candidate submitted by the caller.
	Code string `validate:"required,otpcode"`
}

// Verify checks a candidate code against the stored record and advances the
// counter on a counter-mode match. Every reject path, including an unknown
// record id or a claimed type that disagrees with the stored mode, returns
// the same coarse rejection so the wire leaks nothing.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) error {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	var rec *entity.Record
	err := s.retryOnTimeout(ctx, func(ctx context.Context) error {
		var errGet error
		rec, errGet = s.repoDB.GetRecord(ctx, in.RecordID)
		return errGet
	})
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "verify against unknown record", "record_id", in.RecordID)
		return goerror.NewRejected()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get record", "record_id", in.RecordID, "error", err)
		return goerror.NewServer(err)
	}

	if entity.ModeFromOtpType(in.OtpType) != rec.Mode {
		slog.WarnContext(ctx, "verify type does not match record mode", "record_id", rec.ID, "claimed", in.OtpType)
		s.publishVerified(ctx, rec.ID, rec.Mode, false)
		return goerror.NewRejected()
	}

	switch rec.Mode {
	case entity.ModeCounter:
		err = s.verifyCounter(ctx, rec, in.Code)
	case entity.ModeTime:
		err = s.verifyTime(ctx, rec, in.Code)
	default:
		err = goerror.NewRejected()
	}

	s.publishVerified(ctx, rec.ID, rec.Mode, err == nil)

	return err
}

func (s *Usecase) verifyCounter(ctx context.Context, rec *entity.Record, code string) error {
	match, ok := s.deriver.VerifyHOTP(rec.Secret, rec.Counter, code, s.lookAhead())
	if !ok {
		return goerror.NewRejected()
	}

	err := s.retryOnTimeout(ctx, func(ctx context.Context) error {
		return s.repoDB.UpdateCounter(ctx, rec.ID, match+1)
	})
	if errors.Is(err, goerror.ErrConflict) {
		// Another verify advanced past us first; accepting now would
		// allow a replay of the same counter value.
		slog.WarnContext(ctx, "counter advance lost to concurrent verify", "record_id", rec.ID)
		return goerror.NewRejected()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to advance record counter", "record_id", rec.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

func (s *Usecase) verifyTime(ctx context.Context, rec *entity.Record, code string) error {
	if _, ok := s.deriver.VerifyTOTP(rec.Secret, s.clock.Now(), rec.IntervalSeconds, code, s.skew()); !ok {
		return goerror.NewRejected()
	}

	return nil
}

package usecase

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/otterhq/otter/internal/otp/entity"
	"github.com/otterhq/otter/internal/pkg/clock"
	"github.com/otterhq/otter/internal/pkg/config"
	"github.com/otterhq/otter/internal/pkg/goerror"
	"github.com/otterhq/otter/internal/pkg/instrument"
	"github.com/otterhq/otter/internal/pkg/otp"
	"github.com/otterhq/otter/internal/pkg/validator"
	libotp "github.com/pquerna/otp"
)

const (
	recordIDOne = "0fb9c1f6-4f61-4a52-a9ef-2de2efb7a0b1"
	recordIDTwo = "1f977a19-2b0b-4d99-93d6-9f2bd934c102"

	fixedSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"
)

var testTime = time.Date(2026, time.March, 14, 15, 9, 26, 0, time.UTC)

type fakeDB struct {
	records map[string]entity.Record

	createErrs []error
	getErrs    []error
	updateErrs []error
}

func newFakeDB() *fakeDB {
	return &fakeDB{records: map[string]entity.Record{}}
}

func takeErr(queue *[]error) error {
	if len(*queue) == 0 {
		return nil
	}

	err := (*queue)[0]
	*queue = (*queue)[1:]

	return err
}

func (f *fakeDB) CreateRecord(_ context.Context, in entity.Record) error {
	if err := takeErr(&f.createErrs); err != nil {
		return err
	}
	if _, ok := f.records[in.ID]; ok {
		return goerror.ErrConflict
	}

	f.records[in.ID] = in

	return nil
}

func (f *fakeDB) GetRecord(_ context.Context, id string) (*entity.Record, error) {
	if err := takeErr(&f.getErrs); err != nil {
		return nil, err
	}

	rec, ok := f.records[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	return &rec, nil
}

func (f *fakeDB) UpdateCounter(_ context.Context, id string, newCounter uint64) error {
	if err := takeErr(&f.updateErrs); err != nil {
		return err
	}

	rec, ok := f.records[id]
	if !ok || rec.Mode != entity.ModeCounter || rec.Counter >= newCounter {
		return goerror.ErrConflict
	}

	rec.Counter = newCounter
	f.records[id] = rec

	return nil
}

func (f *fakeDB) BindPrincipal(_ context.Context, id, principal string) error {
	rec, ok := f.records[id]
	if !ok {
		return goerror.ErrNotFound
	}
	if rec.LinkedPrincipal != "" && rec.LinkedPrincipal != principal {
		return goerror.ErrConflict
	}

	rec.LinkedPrincipal = principal
	f.records[id] = rec

	return nil
}

type fakeMQ struct {
	generated []OtpGeneratedEvent
	verified  []OtpVerifiedEvent
	err       error
}

func (f *fakeMQ) PublishOtpGenerated(_ context.Context, msg OtpGeneratedEvent) error {
	f.generated = append(f.generated, msg)
	return f.err
}

func (f *fakeMQ) PublishOtpVerified(_ context.Context, msg OtpVerifiedEvent) error {
	f.verified = append(f.verified, msg)
	return f.err
}

type fakeSecrets struct{ secret string }

func (f fakeSecrets) Generate(int) (string, error) {
	if f.secret == "" {
		return "", otp.ErrEntropyUnavailable
	}
	return f.secret, nil
}

type seqID struct {
	ids  []string
	next int
}

func (s *seqID) Generate() string {
	id := s.ids[s.next%len(s.ids)]
	s.next++
	return id
}

type fixture struct {
	uc *Usecase
	db *fakeDB
	mq *fakeMQ
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  otp:
    secret_length: 32
    hotp_look_ahead: 5
    totp_skew: 1
`))
	if err != nil {
		t.Fatalf("failed to build config: %v", err)
	}

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}

	db := newFakeDB()
	mq := &fakeMQ{}

	uc := New(Dependency{
		RepoDB:        db,
		RepoMessaging: mq,
		Validator:     v10,
		Config:        cfg,
		Secrets:       fakeSecrets{secret: fixedSecret},
		Deriver:       otp.NewHMACDeriver(libotp.DigitsSix, libotp.AlgorithmSHA1),
		UUID:          &seqID{ids: []string{recordIDOne, recordIDTwo}},
		Clock:         clock.Fixed{At: testTime},
		Instrument:    instrument.NewNoop(),
	})

	return &fixture{uc: uc, db: db, mq: mq}
}

func codeFor(t *testing.T, counter uint64) string {
	t.Helper()

	code, err := otp.NewHMACDeriver(libotp.DigitsSix, libotp.AlgorithmSHA1).HOTPCode(fixedSecret, counter)
	if err != nil {
		t.Fatalf("failed to derive code: %v", err)
	}

	return code
}

func rejectionMessage(t *testing.T, err error) string {
	t.Helper()

	var ge *goerror.Error
	if !errors.As(err, &ge) {
		t.Fatalf("expected a structured error, got %T: %v", err, err)
	}
	if ge.Code() != goerror.CodeRejected {
		t.Fatalf("got code %v, want %v", ge.Code(), goerror.CodeRejected)
	}

	return ge.Msg()
}

func TestGenerateHOTP(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)

		// Act
		out, err := fx.uc.GenerateHOTP(context.Background(), GenerateHOTPInput{Count: 3})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.RecordID != recordIDOne {
			t.Fatalf("got record id %q, want %q", out.RecordID, recordIDOne)
		}
		if out.Code != codeFor(t, 3) {
			t.Fatalf("got code %q, want the code for counter 3", out.Code)
		}

		rec := fx.db.records[recordIDOne]
		if rec.Mode != entity.ModeCounter || rec.Counter != 3 {
			t.Fatalf("stored record has mode=%v counter=%d, want counter mode at 3", rec.Mode, rec.Counter)
		}
		if len(fx.mq.generated) != 1 || fx.mq.generated[0].Mode != "counter" {
			t.Fatalf("expected one counter-mode generated event, got %+v", fx.mq.generated)
		}
	})

	t.Run("IDCollisionRetries", func(t *testing.T) {
		fx := newFixture(t)
		fx.db.records[recordIDOne] = entity.Record{ID: recordIDOne}

		out, err := fx.uc.GenerateHOTP(context.Background(), GenerateHOTPInput{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.RecordID != recordIDTwo {
			t.Fatalf("got record id %q, want the regenerated %q", out.RecordID, recordIDTwo)
		}
	})

	t.Run("TimeoutRetriesOnce", func(t *testing.T) {
		fx := newFixture(t)
		fx.db.createErrs = []error{goerror.ErrTimeout}

		if _, err := fx.uc.GenerateHOTP(context.Background(), GenerateHOTPInput{}); err != nil {
			t.Fatalf("unexpected error after a single timeout: %v", err)
		}
	})

	t.Run("EntropyFailure", func(t *testing.T) {
		fx := newFixture(t)
		fx.uc.secrets = fakeSecrets{}

		_, err := fx.uc.GenerateHOTP(context.Background(), GenerateHOTPInput{})

		var ge *goerror.Error
		if !errors.As(err, &ge) || ge.Code() != goerror.CodeInternal {
			t.Fatalf("got %v, want an internal error", err)
		}
		if len(fx.db.records) != 0 {
			t.Fatal("no record may be stored when the secret cannot be generated")
		}
	})
}

func TestGenerateTOTP(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		fx := newFixture(t)

		out, err := fx.uc.GenerateTOTP(context.Background(), GenerateTOTPInput{Timeout: 30})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		rec := fx.db.records[out.RecordID]
		if rec.Mode != entity.ModeTime || rec.IntervalSeconds != 30 {
			t.Fatalf("stored record has mode=%v interval=%d, want time mode at 30s", rec.Mode, rec.IntervalSeconds)
		}

		d := otp.NewHMACDeriver(libotp.DigitsSix, libotp.AlgorithmSHA1)
		if _, ok := d.VerifyTOTP(fixedSecret, testTime, 30, out.Code, 0); !ok {
			t.Fatalf("returned code %q does not verify at issue time", out.Code)
		}
	})

	t.Run("RejectsZeroTimeout", func(t *testing.T) {
		fx := newFixture(t)

		_, err := fx.uc.GenerateTOTP(context.Background(), GenerateTOTPInput{})

		var ge *goerror.Error
		if !errors.As(err, &ge) || ge.Code() != goerror.CodeInvalidInput {
			t.Fatalf("got %v, want a validation error", err)
		}
	})

	t.Run("RejectsOversizedTimeout", func(t *testing.T) {
		fx := newFixture(t)

		if _, err := fx.uc.GenerateTOTP(context.Background(), GenerateTOTPInput{Timeout: 90000}); err == nil {
			t.Fatal("expected a validation error for a timeout above one day")
		}
	})
}

func TestProvisionHOTP(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		fx := newFixture(t)

		out, err := fx.uc.ProvisionHOTP(context.Background(), ProvisionHOTPInput{
			Count:      2,
			Name:       "alice",
			IssuerName: "Otter",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		u, err := url.Parse(out.ProvisioningURI)
		if err != nil {
			t.Fatalf("unexpected parse error: %v", err)
		}
		if u.Scheme != "otpauth" || u.Host != "hotp" {
			t.Fatalf("got %s://%s, want otpauth://hotp", u.Scheme, u.Host)
		}
		if got := u.Query().Get("counter"); got != "2" {
			t.Fatalf("got counter %q, want %q", got, "2")
		}
		if got := u.Query().Get("secret"); got != fixedSecret {
			t.Fatalf("got secret %q, want the record secret", got)
		}

		rec := fx.db.records[out.RecordID]
		if rec.ExtraClaims["name"] != "alice" || rec.ExtraClaims["issuer"] != "Otter" {
			t.Fatalf("stored claims %v, want name and issuer", rec.ExtraClaims)
		}
	})

	t.Run("InitialCountOverridesURI", func(t *testing.T) {
		fx := newFixture(t)
		initial := uint64(9)

		out, err := fx.uc.ProvisionHOTP(context.Background(), ProvisionHOTPInput{
			Count:        2,
			Name:         "alice",
			IssuerName:   "Otter",
			InitialCount: &initial,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		u, err := url.Parse(out.ProvisioningURI)
		if err != nil {
			t.Fatalf("unexpected parse error: %v", err)
		}
		if got := u.Query().Get("counter"); got != "9" {
			t.Fatalf("got counter %q, want the override %q", got, "9")
		}
		if rec := fx.db.records[out.RecordID]; rec.Counter != 2 {
			t.Fatalf("stored counter %d, want the seed 2", rec.Counter)
		}
	})

	t.Run("RejectsMissingName", func(t *testing.T) {
		fx := newFixture(t)

		if _, err := fx.uc.ProvisionHOTP(context.Background(), ProvisionHOTPInput{IssuerName: "Otter"}); err == nil {
			t.Fatal("expected a validation error without an account name")
		}
	})
}

func TestProvisionTOTP(t *testing.T) {
	fx := newFixture(t)

	out, err := fx.uc.ProvisionTOTP(context.Background(), ProvisionTOTPInput{
		Timeout:    60,
		Name:       "alice",
		IssuerName: "Otter",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u, err := url.Parse(out.ProvisioningURI)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if u.Host != "totp" {
		t.Fatalf("got kind %q, want %q", u.Host, "totp")
	}
	if got := u.Query().Get("period"); got != "60" {
		t.Fatalf("got period %q, want %q", got, "60")
	}
}

func TestVerify(t *testing.T) {
	seedCounter := func(fx *fixture, counter uint64) {
		fx.db.records[recordIDOne] = entity.Record{
			ID:      recordIDOne,
			Secret:  fixedSecret,
			Mode:    entity.ModeCounter,
			Counter: counter,
		}
	}
	seedTime := func(fx *fixture, interval uint) {
		fx.db.records[recordIDOne] = entity.Record{
			ID:              recordIDOne,
			Secret:          fixedSecret,
			Mode:            entity.ModeTime,
			IntervalSeconds: interval,
		}
	}

	t.Run("CounterSuccessAdvancesCounter", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		seedCounter(fx, 0)

		// Act
		err := fx.uc.Verify(context.Background(), VerifyInput{
			OtpType:  "hotp",
			RecordID: recordIDOne,
			Code:     codeFor(t, 0),
		})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := fx.db.records[recordIDOne].Counter; got != 1 {
			t.Fatalf("got counter %d, want 1", got)
		}
		if len(fx.mq.verified) != 1 || !fx.mq.verified[0].Accepted {
			t.Fatalf("expected one accepted verified event, got %+v", fx.mq.verified)
		}
	})

	t.Run("ReplayOfConsumedCodeRejected", func(t *testing.T) {
		fx := newFixture(t)
		seedCounter(fx, 0)
		code := codeFor(t, 0)
		in := VerifyInput{OtpType: "hotp", RecordID: recordIDOne, Code: code}

		if err := fx.uc.Verify(context.Background(), in); err != nil {
			t.Fatalf("first verify failed: %v", err)
		}

		err := fx.uc.Verify(context.Background(), in)
		if rejectionMessage(t, err) == "" {
			t.Fatal("expected a rejection message")
		}
		if got := fx.db.records[recordIDOne].Counter; got != 1 {
			t.Fatalf("counter moved to %d on a replay, want 1", got)
		}
	})

	t.Run("LookAheadSkipsMissedCodes", func(t *testing.T) {
		fx := newFixture(t)
		seedCounter(fx, 0)

		err := fx.uc.Verify(context.Background(), VerifyInput{
			OtpType:  "hotp",
			RecordID: recordIDOne,
			Code:     codeFor(t, 3),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := fx.db.records[recordIDOne].Counter; got != 4 {
			t.Fatalf("got counter %d, want 4", got)
		}
	})

	t.Run("BeyondLookAheadRejected", func(t *testing.T) {
		fx := newFixture(t)
		seedCounter(fx, 0)

		err := fx.uc.Verify(context.Background(), VerifyInput{
			OtpType:  "hotp",
			RecordID: recordIDOne,
			Code:     codeFor(t, 6),
		})
		rejectionMessage(t, err)

		if got := fx.db.records[recordIDOne].Counter; got != 0 {
			t.Fatalf("counter moved to %d on a reject, want 0", got)
		}
	})

	t.Run("ConcurrentAdvanceRejected", func(t *testing.T) {
		fx := newFixture(t)
		seedCounter(fx, 0)
		fx.db.updateErrs = []error{goerror.ErrConflict}

		err := fx.uc.Verify(context.Background(), VerifyInput{
			OtpType:  "hotp",
			RecordID: recordIDOne,
			Code:     codeFor(t, 0),
		})
		rejectionMessage(t, err)
	})

	t.Run("TimeSuccess", func(t *testing.T) {
		fx := newFixture(t)
		seedTime(fx, 30)

		d := otp.NewHMACDeriver(libotp.DigitsSix, libotp.AlgorithmSHA1)
		code, err := d.TOTPCode(fixedSecret, testTime, 30)
		if err != nil {
			t.Fatalf("failed to derive code: %v", err)
		}

		if err := fx.uc.Verify(context.Background(), VerifyInput{OtpType: "totp", RecordID: recordIDOne, Code: code}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("TimeWithinSkew", func(t *testing.T) {
		fx := newFixture(t)
		seedTime(fx, 30)

		d := otp.NewHMACDeriver(libotp.DigitsSix, libotp.AlgorithmSHA1)
		code, err := d.TOTPCode(fixedSecret, testTime.Add(-30*time.Second), 30)
		if err != nil {
			t.Fatalf("failed to derive code: %v", err)
		}

		if err := fx.uc.Verify(context.Background(), VerifyInput{OtpType: "totp", RecordID: recordIDOne, Code: code}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("TimeExpiredRejected", func(t *testing.T) {
		fx := newFixture(t)
		seedTime(fx, 30)

		d := otp.NewHMACDeriver(libotp.DigitsSix, libotp.AlgorithmSHA1)
		code, err := d.TOTPCode(fixedSecret, testTime.Add(-5*time.Minute), 30)
		if err != nil {
			t.Fatalf("failed to derive code: %v", err)
		}

		err = fx.uc.Verify(context.Background(), VerifyInput{OtpType: "totp", RecordID: recordIDOne, Code: code})
		rejectionMessage(t, err)
	})

	t.Run("ModeMismatchRejected", func(t *testing.T) {
		fx := newFixture(t)
		seedTime(fx, 30)

		err := fx.uc.Verify(context.Background(), VerifyInput{
			OtpType:  "hotp",
			RecordID: recordIDOne,
			Code:     "123456",
		})
		rejectionMessage(t, err)

		if len(fx.mq.verified) != 1 || fx.mq.verified[0].Accepted {
			t.Fatalf("expected one rejected verified event, got %+v", fx.mq.verified)
		}
	})

	t.Run("UnknownRecordIndistinguishableFromWrongCode", func(t *testing.T) {
		fx := newFixture(t)
		seedCounter(fx, 0)

		unknownErr := fx.uc.Verify(context.Background(), VerifyInput{
			OtpType:  "hotp",
			RecordID: recordIDTwo,
			Code:     "123456",
		})
		wrongErr := fx.uc.Verify(context.Background(), VerifyInput{
			OtpType:  "hotp",
			RecordID: recordIDOne,
			Code:     codeFor(t, 9),
		})

		if rejectionMessage(t, unknownErr) != rejectionMessage(t, wrongErr) {
			t.Fatal("unknown record and wrong code must reject with the same message")
		}
	})

	t.Run("TimeoutRetriedOnLookup", func(t *testing.T) {
		fx := newFixture(t)
		seedCounter(fx, 0)
		fx.db.getErrs = []error{goerror.ErrTimeout}

		err := fx.uc.Verify(context.Background(), VerifyInput{
			OtpType:  "hotp",
			RecordID: recordIDOne,
			Code:     codeFor(t, 0),
		})
		if err != nil {
			t.Fatalf("unexpected error after a single timeout: %v", err)
		}
	})

	t.Run("RejectsMalformedInput", func(t *testing.T) {
		fx := newFixture(t)

		cases := []VerifyInput{
			{OtpType: "sms", RecordID: recordIDOne, Code: "123456"},
			{OtpType: "hotp", RecordID: "not-a-uuid", Code: "123456"},
			{OtpType: "hotp", RecordID: recordIDOne, Code: "12ab56"},
			{OtpType: "hotp", RecordID: recordIDOne, Code: ""},
		}
		for i, in := range cases {
			err := fx.uc.Verify(context.Background(), in)

			var ge *goerror.Error
			if !errors.As(err, &ge) || ge.Code() != goerror.CodeInvalidInput {
				t.Fatalf("case %d: got %v, want a validation error", i, err)
			}
		}
	})
}

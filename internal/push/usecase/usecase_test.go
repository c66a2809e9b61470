package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/otterhq/otter/internal/pkg/clock"
	"github.com/otterhq/otter/internal/pkg/config"
	"github.com/otterhq/otter/internal/pkg/goerror"
	"github.com/otterhq/otter/internal/pkg/goroutine"
	"github.com/otterhq/otter/internal/pkg/hash"
	"github.com/otterhq/otter/internal/pkg/instrument"
	"github.com/otterhq/otter/internal/pkg/validator"
	"github.com/otterhq/otter/internal/push/entity"
)

const (
	recordIDOne = "0fb9c1f6-4f61-4a52-a9ef-2de2efb7a0b1"
	recordIDTwo = "1f977a19-2b0b-4d99-93d6-9f2bd934c102"

	fixedCode = "WXYZ"
)

var testTime = time.Date(2026, time.March, 14, 15, 9, 26, 0, time.UTC)

type fakeDB struct {
	principals map[string]string
	channels   map[string]entity.Channel
	deliveries map[int64]entity.Delivery

	bindErrs []error
	getErrs  []error
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		principals: map[string]string{},
		channels:   map[string]entity.Channel{},
		deliveries: map[int64]entity.Delivery{},
	}
}

func takeErr(queue *[]error) error {
	if len(*queue) == 0 {
		return nil
	}

	err := (*queue)[0]
	*queue = (*queue)[1:]

	return err
}

func (f *fakeDB) BindPrincipal(_ context.Context, recordID, principal string) error {
	if err := takeErr(&f.bindErrs); err != nil {
		return err
	}

	current, ok := f.principals[recordID]
	if !ok {
		return goerror.ErrNotFound
	}
	if current != "" && current != principal {
		return goerror.ErrConflict
	}

	f.principals[recordID] = principal

	return nil
}

func (f *fakeDB) GetRecordPrincipal(_ context.Context, recordID string) (string, error) {
	if err := takeErr(&f.getErrs); err != nil {
		return "", err
	}

	principal, ok := f.principals[recordID]
	if !ok {
		return "", goerror.ErrNotFound
	}

	return principal, nil
}

func (f *fakeDB) UpsertChannel(_ context.Context, ch entity.Channel) error {
	f.channels[ch.Principal] = ch
	return nil
}

func (f *fakeDB) GetChannel(_ context.Context, principal string) (*entity.Channel, error) {
	ch, ok := f.channels[principal]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	return &ch, nil
}

func (f *fakeDB) CreateDelivery(_ context.Context, d entity.Delivery) error {
	f.deliveries[d.ID] = d
	return nil
}

func (f *fakeDB) UpdateDeliveryStatus(_ context.Context, id int64, status entity.DeliveryStatus) error {
	d, ok := f.deliveries[id]
	if !ok {
		return goerror.ErrNotFound
	}

	d.Status = status
	f.deliveries[id] = d

	return nil
}

type fakeCache struct {
	pending map[string]entity.PendingCode

	// afterGet runs once following a successful read, letting tests
	// interleave a concurrent resend between the read and the take.
	afterGet func()
}

func newFakeCache() *fakeCache {
	return &fakeCache{pending: map[string]entity.PendingCode{}}
}

func (f *fakeCache) SetPendingCode(_ context.Context, principal string, pc entity.PendingCode, _ time.Duration) error {
	f.pending[principal] = pc
	return nil
}

func (f *fakeCache) GetPendingCode(_ context.Context, principal string) (*entity.PendingCode, error) {
	pc, ok := f.pending[principal]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	if f.afterGet != nil {
		hook := f.afterGet
		f.afterGet = nil
		hook()
	}

	return &pc, nil
}

func (f *fakeCache) TakePendingCode(_ context.Context, principal string, deliveryID int64) (*entity.PendingCode, error) {
	pc, ok := f.pending[principal]
	if !ok || pc.DeliveryID != deliveryID {
		return nil, goerror.ErrNotFound
	}

	delete(f.pending, principal)

	return &pc, nil
}

type fakeMQ struct {
	deliveries []PushDeliveryEvent
}

func (f *fakeMQ) PublishPushDelivery(_ context.Context, msg PushDeliveryEvent) error {
	f.deliveries = append(f.deliveries, msg)
	return nil
}

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) Send(_ context.Context, _ entity.Channel, code string) error {
	if f.err != nil {
		return f.err
	}

	f.sent = append(f.sent, code)

	return nil
}

type fakeCallback struct {
	mu    sync.Mutex
	codes []int
}

func (f *fakeCallback) Report(_ context.Context, httpCode int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.codes = append(f.codes, httpCode)

	return nil
}

func (f *fakeCallback) reported() []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]int(nil), f.codes...)
}

type fakeSecrets struct{ code string }

func (f fakeSecrets) Generate(int) (string, error) {
	return f.code, nil
}

type seqNumberID struct{ next int64 }

func (s *seqNumberID) Generate() int64 {
	s.next++
	return s.next
}

type fixture struct {
	uc       *Usecase
	db       *fakeDB
	cache    *fakeCache
	mq       *fakeMQ
	sender   *fakeSender
	callback *fakeCallback
	hmac     hash.Hash
	mgr      *goroutine.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  push:
    refer_code_ttl_seconds: 300
`))
	if err != nil {
		t.Fatalf("failed to build config: %v", err)
	}

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}

	fx := &fixture{
		db:       newFakeDB(),
		cache:    newFakeCache(),
		mq:       &fakeMQ{},
		sender:   &fakeSender{},
		callback: &fakeCallback{},
		hmac:     hash.NewHMACSHA256("test-secret"),
		mgr:      goroutine.NewManager(4),
	}

	fx.uc = New(Dependency{
		RepoDB:        fx.db,
		RepoCache:     fx.cache,
		RepoMessaging: fx.mq,
		Sender:        fx.sender,
		Callback:      fx.callback,
		Validator:     v10,
		Config:        cfg,
		Secrets:       fakeSecrets{code: fixedCode},
		HMAC:          fx.hmac,
		UID:           &seqNumberID{},
		Clock:         clock.Fixed{At: testTime},
		Instrument:    instrument.NewNoop(),
		Goroutine:     fx.mgr,
	})

	return fx
}

// bound seeds an unbound record and, when principal is not empty, binds it
// and registers a push channel.
func (fx *fixture) bound(principal string) {
	fx.db.principals[recordIDOne] = principal
	if principal != "" {
		fx.db.channels[principal] = entity.Channel{Principal: principal, DeviceToken: "device-token"}
	}
}

func rejectionOf(t *testing.T, err error, code goerror.Code) string {
	t.Helper()

	var ge *goerror.Error
	if !errors.As(err, &ge) {
		t.Fatalf("expected a structured error, got %T: %v", err, err)
	}
	if ge.Code() != code {
		t.Fatalf("got code %v, want %v", ge.Code(), code)
	}

	return ge.Msg()
}

func TestRegister(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.db.principals[recordIDOne] = ""

		// Act
		err := fx.uc.Register(context.Background(), RegisterInput{
			RecordID:    recordIDOne,
			Username:    "alice",
			DeviceToken: "token-a",
		})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fx.db.principals[recordIDOne] != "alice" {
			t.Fatalf("record bound to %q, want %q", fx.db.principals[recordIDOne], "alice")
		}
		if fx.db.channels["alice"].DeviceToken != "token-a" {
			t.Fatalf("channel token %q, want %q", fx.db.channels["alice"].DeviceToken, "token-a")
		}
	})

	t.Run("RebindSamePrincipalRefreshesToken", func(t *testing.T) {
		fx := newFixture(t)
		fx.bound("alice")

		err := fx.uc.Register(context.Background(), RegisterInput{
			RecordID:    recordIDOne,
			Username:    "alice",
			DeviceToken: "token-b",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fx.db.channels["alice"].DeviceToken != "token-b" {
			t.Fatalf("channel token %q, want the refreshed %q", fx.db.channels["alice"].DeviceToken, "token-b")
		}
	})

	t.Run("RebindDifferentPrincipalRefused", func(t *testing.T) {
		fx := newFixture(t)
		fx.bound("alice")

		err := fx.uc.Register(context.Background(), RegisterInput{
			RecordID: recordIDOne,
			Username: "mallory",
		})
		rejectionOf(t, err, goerror.CodeConflict)

		if fx.db.principals[recordIDOne] != "alice" {
			t.Fatal("binding must not change on a refused re-register")
		}
	})

	t.Run("UnknownRecordRejected", func(t *testing.T) {
		fx := newFixture(t)

		err := fx.uc.Register(context.Background(), RegisterInput{
			RecordID: recordIDTwo,
			Username: "alice",
		})
		rejectionOf(t, err, goerror.CodeRejected)
	})

	t.Run("TimeoutRetriedOnce", func(t *testing.T) {
		fx := newFixture(t)
		fx.db.principals[recordIDOne] = ""
		fx.db.bindErrs = []error{goerror.ErrTimeout}

		err := fx.uc.Register(context.Background(), RegisterInput{
			RecordID: recordIDOne,
			Username: "alice",
		})
		if err != nil {
			t.Fatalf("unexpected error after a single timeout: %v", err)
		}
	})

	t.Run("RejectsMalformedInput", func(t *testing.T) {
		fx := newFixture(t)

		cases := []RegisterInput{
			{RecordID: "not-a-uuid", Username: "alice"},
			{RecordID: recordIDOne, Username: ""},
			{RecordID: recordIDOne, Username: "   "},
		}
		for i, in := range cases {
			err := fx.uc.Register(context.Background(), in)

			var ge *goerror.Error
			if !errors.As(err, &ge) || ge.Code() != goerror.CodeInvalidInput {
				t.Fatalf("case %d: got %v, want a validation error", i, err)
			}
		}
	})
}

func TestSend(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.bound("alice")

		// Act
		out, err := fx.uc.Send(context.Background(), SendInput{RecordID: recordIDOne})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.ReferCode != fixedCode {
			t.Fatalf("got refer code %q, want %q", out.ReferCode, fixedCode)
		}
		if len(fx.sender.sent) != 1 || fx.sender.sent[0] != fixedCode {
			t.Fatalf("notifier received %v, want one send of %q", fx.sender.sent, fixedCode)
		}

		pending, ok := fx.cache.pending["alice"]
		if !ok {
			t.Fatal("no pending code stored for the principal")
		}
		codeHash, err := base64.StdEncoding.DecodeString(pending.CodeHash)
		if err != nil {
			t.Fatalf("pending code hash is not base64: %v", err)
		}
		if !fx.hmac.Verify(string(codeHash), fixedCode) {
			t.Fatal("stored hash does not verify against the issued code")
		}

		d, ok := fx.db.deliveries[pending.DeliveryID]
		if !ok || d.Status != entity.DeliveryStatusSent {
			t.Fatalf("delivery row %+v, want a sent row", d)
		}
		if len(fx.mq.deliveries) != 1 || fx.mq.deliveries[0].Status != "sent" {
			t.Fatalf("expected one sent event, got %+v", fx.mq.deliveries)
		}
	})

	t.Run("ResendReplacesPendingCode", func(t *testing.T) {
		fx := newFixture(t)
		fx.bound("alice")

		if _, err := fx.uc.Send(context.Background(), SendInput{RecordID: recordIDOne}); err != nil {
			t.Fatalf("first send failed: %v", err)
		}
		firstDelivery := fx.cache.pending["alice"].DeliveryID

		if _, err := fx.uc.Send(context.Background(), SendInput{RecordID: recordIDOne}); err != nil {
			t.Fatalf("second send failed: %v", err)
		}

		if fx.cache.pending["alice"].DeliveryID == firstDelivery {
			t.Fatal("re-send must supersede the previous pending code")
		}
	})

	t.Run("UnknownRecordRejected", func(t *testing.T) {
		fx := newFixture(t)

		_, err := fx.uc.Send(context.Background(), SendInput{RecordID: recordIDTwo})
		rejectionOf(t, err, goerror.CodeRejected)
	})

	t.Run("UnboundRecordRejected", func(t *testing.T) {
		fx := newFixture(t)
		fx.bound("")

		_, err := fx.uc.Send(context.Background(), SendInput{RecordID: recordIDOne})
		rejectionOf(t, err, goerror.CodeRejected)
	})

	t.Run("MissingChannelRejected", func(t *testing.T) {
		fx := newFixture(t)
		fx.db.principals[recordIDOne] = "alice"

		_, err := fx.uc.Send(context.Background(), SendInput{RecordID: recordIDOne})
		rejectionOf(t, err, goerror.CodeRejected)
	})

	t.Run("NotifierFailureSurfaced", func(t *testing.T) {
		fx := newFixture(t)
		fx.bound("alice")
		fx.sender.err = errors.New("fcm unavailable")

		_, err := fx.uc.Send(context.Background(), SendInput{RecordID: recordIDOne})

		var ge *goerror.Error
		if !errors.As(err, &ge) || ge.Code() != goerror.CodeInternal {
			t.Fatalf("got %v, want an internal error", err)
		}
		if len(fx.db.deliveries) != 0 {
			t.Fatal("no delivery row may be written when the notifier fails")
		}
	})
}

func TestDecide(t *testing.T) {
	send := func(t *testing.T, fx *fixture) {
		t.Helper()

		fx.bound("alice")
		if _, err := fx.uc.Send(context.Background(), SendInput{RecordID: recordIDOne}); err != nil {
			t.Fatalf("send failed: %v", err)
		}
	}

	t.Run("Accept", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		send(t, fx)
		deliveryID := fx.cache.pending["alice"].DeliveryID

		// Act
		err := fx.uc.Decide(context.Background(), DecideInput{
			Username:  "alice",
			ReferCode: fixedCode,
			Accept:    true,
		})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := fx.cache.pending["alice"]; ok {
			t.Fatal("pending code must be consumed by a decision")
		}
		if got := fx.db.deliveries[deliveryID].Status; got != entity.DeliveryStatusAccepted {
			t.Fatalf("delivery status %v, want accepted", got)
		}

		if err := fx.mgr.Wait(); err != nil {
			t.Fatalf("callback goroutine failed: %v", err)
		}
		if got := fx.callback.reported(); len(got) != 1 || got[0] != 200 {
			t.Fatalf("callback received %v, want [200]", got)
		}
	})

	t.Run("Deny", func(t *testing.T) {
		fx := newFixture(t)
		send(t, fx)
		deliveryID := fx.cache.pending["alice"].DeliveryID

		err := fx.uc.Decide(context.Background(), DecideInput{
			Username:  "alice",
			ReferCode: fixedCode,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := fx.db.deliveries[deliveryID].Status; got != entity.DeliveryStatusDenied {
			t.Fatalf("delivery status %v, want denied", got)
		}

		if err := fx.mgr.Wait(); err != nil {
			t.Fatalf("callback goroutine failed: %v", err)
		}
		if got := fx.callback.reported(); len(got) != 1 || got[0] != 400 {
			t.Fatalf("callback received %v, want [400]", got)
		}
	})

	t.Run("LowercaseCodeNormalized", func(t *testing.T) {
		fx := newFixture(t)
		send(t, fx)

		err := fx.uc.Decide(context.Background(), DecideInput{
			Username:  "alice",
			ReferCode: "wxyz",
			Accept:    true,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("WrongGuessDoesNotConsume", func(t *testing.T) {
		fx := newFixture(t)
		send(t, fx)

		err := fx.uc.Decide(context.Background(), DecideInput{
			Username:  "alice",
			ReferCode: "AAAA",
			Accept:    true,
		})
		rejectionOf(t, err, goerror.CodeRejected)

		if _, ok := fx.cache.pending["alice"]; !ok {
			t.Fatal("a wrong guess must not consume the pending code")
		}

		// The real code still works afterwards.
		err = fx.uc.Decide(context.Background(), DecideInput{
			Username:  "alice",
			ReferCode: fixedCode,
			Accept:    true,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("SecondDecisionRejected", func(t *testing.T) {
		fx := newFixture(t)
		send(t, fx)
		in := DecideInput{Username: "alice", ReferCode: fixedCode, Accept: true}

		if err := fx.uc.Decide(context.Background(), in); err != nil {
			t.Fatalf("first decision failed: %v", err)
		}

		err := fx.uc.Decide(context.Background(), in)
		rejectionOf(t, err, goerror.CodeRejected)
	})

	t.Run("ResendDuringDecideKeepsNewCode", func(t *testing.T) {
		// Arrange: a resend lands between the decision's read of the
		// pending code and its take.
		fx := newFixture(t)
		send(t, fx)
		staleDelivery := fx.cache.pending["alice"].DeliveryID

		fx.cache.afterGet = func() {
			if _, err := fx.uc.Send(context.Background(), SendInput{RecordID: recordIDOne}); err != nil {
				t.Fatalf("resend failed: %v", err)
			}
		}

		// Act
		err := fx.uc.Decide(context.Background(), DecideInput{
			Username:  "alice",
			ReferCode: fixedCode,
			Accept:    true,
		})

		// Assert: the stale decision is rejected and the fresh code
		// survives to be decided.
		rejectionOf(t, err, goerror.CodeRejected)

		newPending, ok := fx.cache.pending["alice"]
		if !ok {
			t.Fatal("the resent pending code must stay live")
		}
		if newPending.DeliveryID == staleDelivery {
			t.Fatal("expected the pending code to belong to the resend")
		}

		err = fx.uc.Decide(context.Background(), DecideInput{
			Username:  "alice",
			ReferCode: fixedCode,
			Accept:    true,
		})
		if err != nil {
			t.Fatalf("deciding the resent code failed: %v", err)
		}
	})

	t.Run("CallbackOutlivesRequestContext", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		send(t, fx)

		ctx, cancel := context.WithCancel(context.Background())

		// Act: the request context is canceled right after the decision
		// returns, as a server does when the handler finishes.
		err := fx.uc.Decide(ctx, DecideInput{
			Username:  "alice",
			ReferCode: fixedCode,
			Accept:    true,
		})
		cancel()

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := fx.mgr.Wait(); err != nil {
			t.Fatalf("callback goroutine failed: %v", err)
		}
		if got := fx.callback.reported(); len(got) != 1 || got[0] != 200 {
			t.Fatalf("callback received %v, want [200]", got)
		}
	})

	t.Run("UnknownPrincipalRejected", func(t *testing.T) {
		fx := newFixture(t)

		err := fx.uc.Decide(context.Background(), DecideInput{
			Username:  "nobody",
			ReferCode: fixedCode,
		})
		rejectionOf(t, err, goerror.CodeRejected)
	})

	t.Run("RejectsMalformedInput", func(t *testing.T) {
		fx := newFixture(t)

		cases := []DecideInput{
			{Username: "", ReferCode: fixedCode},
			{Username: "alice", ReferCode: ""},
			{Username: "alice", ReferCode: "AB1!"},
			{Username: "alice", ReferCode: "TOOLONG"},
		}
		for i, in := range cases {
			err := fx.uc.Decide(context.Background(), in)

			var ge *goerror.Error
			if !errors.As(err, &ge) || ge.Code() != goerror.CodeInvalidInput {
				t.Fatalf("case %d: got %v, want a validation error", i, err)
			}
		}
	})
}

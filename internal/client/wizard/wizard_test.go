package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/swiftsend/swiftsend/internal/client/api"
	"github.com/swiftsend/swiftsend/internal/rates"
)

type fakeSaver struct {
	mu     sync.Mutex
	calls  []api.AddRecipientInput
	result api.Recipient
	err    error
}

func (f *fakeSaver) AddRecipient(_ context.Context, input api.AddRecipientInput) (api.Recipient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, input)
	if f.err != nil {
		return api.Recipient{}, f.err
	}
	return f.result, nil
}

func (f *fakeSaver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// manualVerifier hands out one controllable lookup per Verify call.
type manualVerifier struct {
	mu      sync.Mutex
	pending []*lookup
}

type lookup struct {
	method     string
	identifier string
	done       chan struct{}
	name       string
	err        error
	ctx        context.Context
}

func (v *manualVerifier) Verify(ctx context.Context, method, identifier string) (string, error) {
	l := &lookup{method: method, identifier: identifier, done: make(chan struct{}), ctx: ctx}
	v.mu.Lock()
	v.pending = append(v.pending, l)
	v.mu.Unlock()
	select {
	case <-l.done:
		return l.name, l.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (v *manualVerifier) last(t *testing.T) *lookup {
	t.Helper()
	v.mu.Lock()
	defer v.mu.Unlock()
	require.NotEmpty(t, v.pending, "no lookup started")
	return v.pending[len(v.pending)-1]
}

func (v *manualVerifier) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.pending)
}

func (l *lookup) resolve(name string) {
	l.name = name
	close(l.done)
}

func newTestWizard(saver *fakeSaver, verifier *manualVerifier) *Wizard {
	return New(Deps{
		Recipients: saver,
		Verifier:   verifier,
		Rates:      rates.NewStatic(0),
		Now:        func() time.Time { return time.UnixMilli(1724761234567) },
	})
}

func TestForwardGuardsHoldStep(t *testing.T) {
	w := newTestWizard(&fakeSaver{}, &manualVerifier{})
	ctx := context.Background()

	// Step 1 without a delivery method.
	require.Error(t, w.Next(ctx))
	require.Equal(t, StepRecipient, w.Step())

	// Mobile without a phone.
	require.NoError(t, w.SetMethod(MethodMobile))
	w.SetName("Kwame Mensah")
	require.Error(t, w.Next(ctx))
	require.Equal(t, StepRecipient, w.Step())
}

func TestMobileRecipientSavedOnAdvance(t *testing.T) {
	saver := &fakeSaver{result: api.Recipient{ID: "r1", SeqID: 1, Method: "mobile", FullName: "Kwame Mensah"}}
	w := newTestWizard(saver, &manualVerifier{})
	ctx := context.Background()

	require.NoError(t, w.SetMethod(MethodMobile))
	w.SetName("Kwame Mensah")
	// Short number: no lookup fires, name stays as typed.
	w.SetPhone("024")
	w.SetName("Kwame Mensah")
	w.SetNetwork("MTN", "MTN Mobile Money")

	require.NoError(t, w.Next(ctx))
	require.Equal(t, StepAmount, w.Step())
	require.Equal(t, 1, saver.callCount())
	require.Equal(t, "r1", w.Draft().RecipientID)
	require.Equal(t, "MTN", saver.calls[0].NetworkCode)
}

func TestFailedSaveKeepsRecipientStep(t *testing.T) {
	saver := &fakeSaver{err: errors.New("network down")}
	verifier := &manualVerifier{}
	w := newTestWizard(saver, verifier)

	require.NoError(t, w.SetMethod(MethodBank))
	w.SetBank("GCB Bank")
	w.SetAccount("1234567890")

	// Bank+account triggered a lookup; finish it so Next is not blocked.
	require.Eventually(t, func() bool { return verifier.count() == 1 }, time.Second, 5*time.Millisecond)
	verifier.last(t).resolve("Akosua Osei")
	require.Eventually(t, func() bool { return !w.Verifying() }, time.Second, 5*time.Millisecond)

	err := w.Next(context.Background())
	require.Error(t, err)
	require.Equal(t, StepRecipient, w.Step())
	require.Empty(t, w.Draft().RecipientID)
	require.Equal(t, 1, saver.callCount())
}

func TestSavedRecipientSkipsSaveCall(t *testing.T) {
	saver := &fakeSaver{}
	w := newTestWizard(saver, &manualVerifier{})

	w.SelectRecipient(api.Recipient{
		ID: "r9", Method: "mobile", FullName: "Efua Appiah", MomoNumber: "0249876543", NetworkCode: "VOD",
	})
	require.NoError(t, w.Next(context.Background()))
	require.Equal(t, StepAmount, w.Step())
	require.Zero(t, saver.callCount())
}

func TestPrefilledEntryStartsAtAmount(t *testing.T) {
	w := NewWithRecipient(Deps{
		Recipients: &fakeSaver{},
		Verifier:   &manualVerifier{},
		Rates:      rates.NewStatic(0),
	}, api.Recipient{ID: "r2", Method: "bank", FullName: "Yaw Darko", BankName: "GCB Bank", AccountNumber: "42"})

	require.Equal(t, StepAmount, w.Step())
	require.Equal(t, "r2", w.Draft().RecipientID)
}

func TestAmountAndPaymentGuards(t *testing.T) {
	w := newTestWizard(&fakeSaver{}, &manualVerifier{})
	w.SelectRecipient(api.Recipient{ID: "r1", Method: "mobile", FullName: "Ama Mensah", MomoNumber: "0241112222"})
	ctx := context.Background()
	require.NoError(t, w.Next(ctx))

	for _, bad := range []string{"", "abc", "-5", "0"} {
		w.SetAmount(bad)
		require.Error(t, w.Next(ctx), "amount %q must not advance", bad)
		require.Equal(t, StepAmount, w.Step())
	}

	w.SetAmount("500")
	require.NoError(t, w.Next(ctx))
	require.Equal(t, StepPayment, w.Step())

	require.Error(t, w.Next(ctx))
	require.Equal(t, StepPayment, w.Step())

	w.SetPaymentMethod("card")
	require.NoError(t, w.Next(ctx))
	require.Equal(t, StepReview, w.Step())
}

func TestBackAlwaysAllowedAndPreservesDraft(t *testing.T) {
	w := newTestWizard(&fakeSaver{}, &manualVerifier{})
	w.SelectRecipient(api.Recipient{ID: "r1", Method: "mobile", FullName: "Ama Mensah", MomoNumber: "0241112222"})
	ctx := context.Background()
	require.NoError(t, w.Next(ctx))
	w.SetAmount("250.50")
	require.NoError(t, w.Next(ctx))

	w.Back()
	require.Equal(t, StepAmount, w.Step())
	w.Back()
	require.Equal(t, StepRecipient, w.Step())
	w.Back()
	require.Equal(t, StepRecipient, w.Step())

	d := w.Draft()
	require.Equal(t, "250.50", d.Amount)
	require.Equal(t, "Ama Mensah", d.Name)
}

func TestVerificationPopulatesName(t *testing.T) {
	verifier := &manualVerifier{}
	w := newTestWizard(&fakeSaver{}, verifier)

	require.NoError(t, w.SetMethod(MethodMobile))
	w.SetPhone("0241234567")

	require.Eventually(t, func() bool { return verifier.count() == 1 }, time.Second, 5*time.Millisecond)
	require.True(t, w.Verifying())

	verifier.last(t).resolve("Kofi Boateng")
	require.Eventually(t, func() bool { return !w.Verifying() }, time.Second, 5*time.Millisecond)
	require.Equal(t, "Kofi Boateng", w.Draft().Name)
}

func TestVerificationBlocksForwardNavigation(t *testing.T) {
	verifier := &manualVerifier{}
	w := newTestWizard(&fakeSaver{}, verifier)

	require.NoError(t, w.SetMethod(MethodMobile))
	w.SetPhone("0241234567")
	require.Eventually(t, func() bool { return w.Verifying() }, time.Second, 5*time.Millisecond)

	err := w.Next(context.Background())
	require.ErrorIs(t, err, ErrVerificationPending)
	require.Equal(t, StepRecipient, w.Step())
}

func TestStaleLookupNeverLandsOnNewIdentifier(t *testing.T) {
	verifier := &manualVerifier{}
	w := newTestWizard(&fakeSaver{}, verifier)

	require.NoError(t, w.SetMethod(MethodMobile))
	w.SetPhone("0241111111")
	require.Eventually(t, func() bool { return verifier.count() == 1 }, time.Second, 5*time.Millisecond)
	first := verifier.last(t)

	w.SetPhone("0242222222")
	require.Eventually(t, func() bool { return verifier.count() == 2 }, time.Second, 5*time.Millisecond)
	second := verifier.last(t)

	// The superseded lookup was cancelled, and even a late resolve is ignored.
	require.Eventually(t, func() bool { return first.ctx.Err() != nil }, time.Second, 5*time.Millisecond)
	first.resolve("Stale Name")

	second.resolve("Abena Frimpong")
	require.Eventually(t, func() bool { return w.Draft().Name == "Abena Frimpong" }, time.Second, 5*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, "Abena Frimpong", w.Draft().Name)
}

func TestChangingIdentifierClearsResolvedName(t *testing.T) {
	verifier := &manualVerifier{}
	w := newTestWizard(&fakeSaver{}, verifier)

	require.NoError(t, w.SetMethod(MethodMobile))
	w.SetPhone("0241234567")
	require.Eventually(t, func() bool { return verifier.count() == 1 }, time.Second, 5*time.Millisecond)
	verifier.last(t).resolve("Kwesi Owusu")
	require.Eventually(t, func() bool { return w.Draft().Name != "" }, time.Second, 5*time.Millisecond)

	w.SetPhone("0249999999")
	require.Empty(t, w.Draft().Name)
}

func TestQuoteScenario(t *testing.T) {
	w := newTestWizard(&fakeSaver{}, &manualVerifier{})
	w.SetAmount("500")

	q, err := w.Quote(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2.50", q.Fee)
	require.Equal(t, "502.50", q.TotalCharge)
	require.Equal(t, "5625.00", q.RecipientAmount)

	// Pure: recomputing yields identical results.
	again, err := w.Quote(context.Background())
	require.NoError(t, err)
	require.Equal(t, q, again)
}

func TestConfirmOnlyAtReview(t *testing.T) {
	w := newTestWizard(&fakeSaver{}, &manualVerifier{})
	_, err := w.Confirm()
	require.Error(t, err)

	w.SelectRecipient(api.Recipient{ID: "r1", Method: "mobile", FullName: "Ama Mensah", MomoNumber: "0241112222"})
	ctx := context.Background()
	require.NoError(t, w.Next(ctx))
	w.SetAmount("100")
	require.NoError(t, w.Next(ctx))
	w.SetPaymentMethod("bank")
	require.NoError(t, w.Next(ctx))

	ref, err := w.Confirm()
	require.NoError(t, err)
	require.Len(t, ref, 10)
	require.Equal(t, "SS", ref[:2])
	require.Equal(t, StepConfirmed, w.Step())

	require.Error(t, w.Next(ctx))
}

func TestLocalReferenceUsesClockTail(t *testing.T) {
	now := time.UnixMilli(1724761234567)
	require.Equal(t, "SS61234567", localReference(now))
}

func TestSwitchingMethodResetsRecipientFields(t *testing.T) {
	w := newTestWizard(&fakeSaver{}, &manualVerifier{})
	w.SelectRecipient(api.Recipient{ID: "r1", Method: "mobile", FullName: "Ama Mensah", MomoNumber: "0241112222"})
	w.SetAmount("75")

	require.NoError(t, w.SetMethod(MethodBank))
	d := w.Draft()
	require.Empty(t, d.RecipientID)
	require.Empty(t, d.Name)
	require.Empty(t, d.Phone)
	require.Equal(t, "75", d.Amount)
}

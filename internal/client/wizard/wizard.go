// Package wizard drives the four-step send-money flow: recipient entry,
// amount, payment method, review. Steps advance only when their guards hold;
// going back is always allowed and keeps everything entered so far.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/swiftsend/swiftsend/internal/client/api"
	"github.com/swiftsend/swiftsend/internal/client/verify"
	"github.com/swiftsend/swiftsend/internal/notification"
	"github.com/swiftsend/swiftsend/internal/rates"
)

// Step is the wizard's position.
type Step int

const (
	StepRecipient Step = iota + 1
	StepAmount
	StepPayment
	StepReview
	// StepConfirmed is terminal. Confirm moved past review; the draft is done.
	StepConfirmed
)

func (s Step) String() string {
	switch s {
	case StepRecipient:
		return "recipient"
	case StepAmount:
		return "amount"
	case StepPayment:
		return "payment"
	case StepReview:
		return "review"
	case StepConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// Delivery methods and payment instruments offered by the flow. Crypto is
// declared server-side but not selectable here.
const (
	MethodMobile = "mobile"
	MethodBank   = "bank"
)

// minPhoneDigits and minAccountDigits are the identifier lengths that
// trigger a lookup.
const (
	minPhoneDigits   = 10
	minAccountDigits = 10
)

// ErrVerificationPending blocks forward navigation while a lookup runs.
var ErrVerificationPending = errors.New("recipient verification in progress")

// Draft is the working state accumulated across steps. It lives only as
// long as the wizard; abandoning the flow discards it.
type Draft struct {
	Method      string
	RecipientID string
	Name        string
	Phone       string
	NetworkCode string
	NetworkName string
	Bank        string
	Account     string

	Amount        string
	PaymentMethod string
}

// Saver persists a new recipient. Satisfied by *api.Client.
type Saver interface {
	AddRecipient(ctx context.Context, input api.AddRecipientInput) (api.Recipient, error)
}

// Deps are the wizard's collaborators.
type Deps struct {
	Recipients Saver
	Verifier   verify.Verifier
	Rates      rates.Provider
	Notifier   notification.Notifier
	// Now is the clock used for the local reference; defaults to time.Now.
	Now func() time.Time
}

// Wizard is the send-money state machine. Safe for concurrent use; the
// verification lookup runs on its own goroutine.
type Wizard struct {
	deps Deps

	mu        sync.Mutex
	step      Step
	draft     Draft
	verifying bool

	verifyGen    uint64
	verifyCancel context.CancelFunc
}

// New starts a blank wizard at the recipient step.
func New(deps Deps) *Wizard {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Wizard{deps: deps, step: StepRecipient}
}

// NewWithRecipient starts at the amount step with a saved recipient already
// selected.
func NewWithRecipient(deps Deps, rec api.Recipient) *Wizard {
	w := New(deps)
	w.SelectRecipient(rec)
	w.step = StepAmount
	return w
}

// Step returns the current position.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Draft returns a copy of the working state.
func (w *Wizard) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Verifying reports whether a recipient lookup is in flight.
func (w *Wizard) Verifying() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.verifying
}

// SetMethod switches the delivery method and clears recipient fields, since
// an identifier entered for one method means nothing under the other.
func (w *Wizard) SetMethod(method string) error {
	if method != MethodMobile && method != MethodBank {
		return fmt.Errorf("unsupported delivery method %q", method)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.draft.Method == method {
		return nil
	}
	w.cancelVerifyLocked()
	w.draft = Draft{
		Method:        method,
		Amount:        w.draft.Amount,
		PaymentMethod: w.draft.PaymentMethod,
	}
	return nil
}

// SetName lets the user type the recipient name directly. Manual edits
// detach the draft from any saved recipient.
func (w *Wizard) SetName(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.Name = name
	w.draft.RecipientID = ""
}

// SetPhone updates the mobile number. A resolved name never survives an
// identifier change; a long-enough number kicks off a fresh lookup.
func (w *Wizard) SetPhone(phone string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.draft.Phone == phone {
		return
	}
	w.draft.Phone = phone
	w.draft.Name = ""
	w.draft.RecipientID = ""
	if w.draft.Method == MethodMobile && len(digits(phone)) >= minPhoneDigits {
		w.startVerifyLocked(MethodMobile, phone)
	} else {
		w.cancelVerifyLocked()
	}
}

// SetNetwork records the mobile money network.
func (w *Wizard) SetNetwork(code, name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.NetworkCode = code
	w.draft.NetworkName = name
}

// SetBank updates the bank name, re-verifying when the account is complete.
func (w *Wizard) SetBank(bank string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.draft.Bank == bank {
		return
	}
	w.draft.Bank = bank
	w.draft.Name = ""
	w.draft.RecipientID = ""
	w.maybeVerifyBankLocked()
}

// SetAccount updates the account number, re-verifying when bank and account
// form a complete pair.
func (w *Wizard) SetAccount(account string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.draft.Account == account {
		return
	}
	w.draft.Account = account
	w.draft.Name = ""
	w.draft.RecipientID = ""
	w.maybeVerifyBankLocked()
}

func (w *Wizard) maybeVerifyBankLocked() {
	if w.draft.Method == MethodBank && w.draft.Bank != "" && len(digits(w.draft.Account)) >= minAccountDigits {
		w.startVerifyLocked(MethodBank, w.draft.Bank+"/"+w.draft.Account)
	} else {
		w.cancelVerifyLocked()
	}
}

// SelectRecipient fills the draft from a saved recipient. The save step is
// skipped later because the ID already exists.
func (w *Wizard) SelectRecipient(rec api.Recipient) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelVerifyLocked()
	w.draft.Method = rec.Method
	w.draft.RecipientID = rec.ID
	w.draft.Name = rec.FullName
	w.draft.Phone = rec.MomoNumber
	w.draft.NetworkCode = rec.NetworkCode
	w.draft.NetworkName = rec.NetworkName
	w.draft.Bank = rec.BankName
	w.draft.Account = rec.AccountNumber
}

// SetAmount records the user-entered amount string. Validation happens at
// the step transition.
func (w *Wizard) SetAmount(amount string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.Amount = amount
}

// SetPaymentMethod records the payment instrument.
func (w *Wizard) SetPaymentMethod(method string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.PaymentMethod = method
}

// startVerifyLocked launches a lookup for the identifier, superseding any
// in-flight one. The generation counter keeps a stale result from landing
// after the identifier changed again. Callers hold w.mu.
func (w *Wizard) startVerifyLocked(method, identifier string) {
	w.cancelVerifyLocked()
	w.verifyGen++
	gen := w.verifyGen

	ctx, cancel := context.WithCancel(context.Background())
	w.verifyCancel = cancel
	w.verifying = true

	go func() {
		name, err := w.deps.Verifier.Verify(ctx, method, identifier)

		w.mu.Lock()
		defer w.mu.Unlock()
		if gen != w.verifyGen {
			return
		}
		w.verifying = false
		w.verifyCancel = nil
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				w.notify(notification.KindError, "could not verify recipient: "+err.Error())
			}
			return
		}
		w.draft.Name = name
	}()
}

// cancelVerifyLocked aborts any in-flight lookup. Callers hold w.mu.
func (w *Wizard) cancelVerifyLocked() {
	if w.verifyCancel != nil {
		w.verifyCancel()
		w.verifyCancel = nil
	}
	w.verifyGen++
	w.verifying = false
}

// Next advances one step if the current step's guard holds. On the
// recipient step an unsaved recipient is persisted first; a failed save
// keeps the wizard where it is.
func (w *Wizard) Next(ctx context.Context) error {
	w.mu.Lock()
	step := w.step
	w.mu.Unlock()

	switch step {
	case StepRecipient:
		return w.submitRecipient(ctx)
	case StepAmount:
		w.mu.Lock()
		defer w.mu.Unlock()
		if _, err := ParseAmount(w.draft.Amount); err != nil {
			return err
		}
		w.step = StepPayment
		return nil
	case StepPayment:
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.draft.PaymentMethod == "" {
			return fmt.Errorf("select a payment method")
		}
		w.step = StepReview
		return nil
	case StepReview:
		return fmt.Errorf("use Confirm to finish the transfer")
	default:
		return fmt.Errorf("transfer already confirmed")
	}
}

// Back moves one step toward the start. Always allowed, never validates,
// keeps all entered data.
func (w *Wizard) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step > StepRecipient && w.step <= StepReview {
		w.step--
	}
}

func (w *Wizard) submitRecipient(ctx context.Context) error {
	w.mu.Lock()
	if w.verifying {
		w.mu.Unlock()
		return ErrVerificationPending
	}
	if err := validateRecipientDraft(w.draft); err != nil {
		w.mu.Unlock()
		return err
	}
	if w.draft.RecipientID != "" {
		// Reused from the saved list; nothing to persist.
		w.step = StepAmount
		w.mu.Unlock()
		return nil
	}
	input := api.AddRecipientInput{
		DeliveryMethod: w.draft.Method,
		Name:           w.draft.Name,
		Phone:          w.draft.Phone,
		Bank:           w.draft.Bank,
		Account:        w.draft.Account,
		NetworkCode:    w.draft.NetworkCode,
		NetworkName:    w.draft.NetworkName,
	}
	w.mu.Unlock()

	rec, err := w.deps.Recipients.AddRecipient(ctx, input)
	if err != nil {
		w.notify(notification.KindError, "could not save recipient: "+err.Error())
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.RecipientID = rec.ID
	w.step = StepAmount
	return nil
}

func validateRecipientDraft(d Draft) error {
	switch d.Method {
	case MethodMobile:
		if d.Name == "" {
			return fmt.Errorf("recipient name is required")
		}
		if d.Phone == "" {
			return fmt.Errorf("phone number is required")
		}
		return nil
	case MethodBank:
		if d.Name == "" {
			return fmt.Errorf("recipient name is required")
		}
		if d.Bank == "" {
			return fmt.Errorf("bank name is required")
		}
		if d.Account == "" {
			return fmt.Errorf("account number is required")
		}
		return nil
	default:
		return fmt.Errorf("choose a delivery method")
	}
}

// Quote derives the fee, total charge, and recipient-side amount for the
// current draft.
func (w *Wizard) Quote(ctx context.Context) (Quote, error) {
	w.mu.Lock()
	amount := w.draft.Amount
	w.mu.Unlock()

	rate, err := w.deps.Rates.CurrentRate(ctx, rates.PairUSDGHS)
	if err != nil {
		return Quote{}, fmt.Errorf("exchange rate: %w", err)
	}
	return ComputeQuote(amount, rate)
}

// Confirm finishes the flow from the review step. It returns a local
// reference derived from the clock; the server assigns the authoritative
// one when the transfer is recorded.
func (w *Wizard) Confirm() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepReview {
		return "", fmt.Errorf("confirm is only available at review")
	}
	w.step = StepConfirmed
	return localReference(w.deps.Now()), nil
}

// localReference is "SS" plus the last eight digits of the unix-millisecond
// clock. Not collision-resistant; display only.
func localReference(now time.Time) string {
	millis := strconv.FormatInt(now.UnixMilli(), 10)
	if len(millis) > 8 {
		millis = millis[len(millis)-8:]
	}
	return "SS" + millis
}

func digits(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out = append(out, r)
		}
	}
	return string(out)
}

func (w *Wizard) notify(kind, body string) {
	if w.deps.Notifier != nil {
		_ = w.deps.Notifier.Send(context.Background(), notification.Message{Kind: kind, Body: body})
	}
}

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/swiftsend/swiftsend/internal/client/api"
	"github.com/swiftsend/swiftsend/internal/client/recipients"
	"github.com/swiftsend/swiftsend/internal/client/session"
	"github.com/swiftsend/swiftsend/internal/client/verify"
	"github.com/swiftsend/swiftsend/internal/client/wizard"
	"github.com/swiftsend/swiftsend/internal/config"
	"github.com/swiftsend/swiftsend/internal/logging"
	"github.com/swiftsend/swiftsend/internal/notification"
	"github.com/swiftsend/swiftsend/internal/rates"
)

const verifyDelay = 800 * time.Millisecond

type app struct {
	store  *session.Store
	client *api.Client
	deps   wizard.Deps
	in     *bufio.Scanner
}

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	var baseURL string
	flag.StringVar(&baseURL, "url", cfg.BaseURL, "API base URL")
	flag.Parse()

	logger := logging.NewText(cfg.LogLevel)

	store := session.Open(cfg.SessionFile, logger)
	client := api.New(baseURL, store, logger, api.WithTimeout(cfg.RequestTimeout))

	hydrateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.AwaitHydration(hydrateCtx); err != nil {
		fmt.Fprintf(os.Stderr, "load session: %v\n", err)
		os.Exit(1)
	}

	a := &app{
		store:  store,
		client: client,
		deps: wizard.Deps{
			Recipients: client,
			Verifier:   verify.NewDirectory(verifyDelay),
			Rates:      rates.NewStatic(0),
			Notifier:   notification.NewLoggerNotifier(logger),
		},
		in: bufio.NewScanner(os.Stdin),
	}

	if user, ok := store.CurrentUser(); ok {
		fmt.Printf("Welcome back, %s\n", user.Name)
	}
	a.repl()
}

func (a *app) repl() {
	for {
		fmt.Print("swiftsend> ")
		if !a.in.Scan() {
			return
		}
		args := strings.Fields(strings.TrimSpace(a.in.Text()))
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Println("Available commands: help, signup, login, logout, whoami, send, recipients [mobile|bank], networks, history, exit")
		case "signup":
			a.signup()
		case "login":
			a.login()
		case "logout":
			a.store.Logout()
			fmt.Println("Signed out")
		case "whoami":
			if user, ok := a.store.CurrentUser(); ok && a.store.IsLoggedIn() {
				fmt.Printf("%s <%s>\n", user.Name, user.Email)
			} else {
				fmt.Println("Not signed in")
			}
		case "send":
			a.send()
		case "recipients":
			method := wizard.MethodMobile
			if len(args) > 1 {
				method = args[1]
			}
			a.listRecipients(method)
		case "networks":
			a.networks()
		case "history":
			a.history()
		case "exit":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

func (a *app) prompt(label string) string {
	fmt.Print(label)
	if !a.in.Scan() {
		return ""
	}
	return strings.TrimSpace(a.in.Text())
}

func (a *app) signup() {
	name := a.prompt("Name: ")
	email := a.prompt("Email: ")
	password := a.prompt("Password: ")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sess, err := a.client.Register(ctx, name, email, password)
	if err != nil {
		if api.IsKind(err, api.KindConflict) {
			fmt.Println("That email is already registered")
			return
		}
		fmt.Printf("Sign up failed: %v\n", err)
		return
	}

	a.store.Login(session.User{
		ID:               sess.User.ID,
		Name:             sess.User.Name,
		Email:            sess.User.Email,
		DoneOnboarding:   sess.User.DoneOnboarding,
		SelectedCurrency: sess.User.SelectedCurrency,
	}, sess.AccessToken)
	fmt.Printf("Welcome, %s\n", sess.User.Name)
}

func (a *app) login() {
	email := a.prompt("Email: ")
	password := a.prompt("Password: ")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sess, err := a.client.Login(ctx, email, password)
	if err != nil {
		if api.IsKind(err, api.KindCredential) {
			fmt.Println("Invalid email or password")
			return
		}
		fmt.Printf("Login failed: %v\n", err)
		return
	}

	a.store.Login(session.User{
		ID:               sess.User.ID,
		Name:             sess.User.Name,
		Email:            sess.User.Email,
		DoneOnboarding:   sess.User.DoneOnboarding,
		SelectedCurrency: sess.User.SelectedCurrency,
	}, sess.AccessToken)
	fmt.Printf("Signed in as %s\n", sess.User.Name)
}

func (a *app) requireLogin() bool {
	if !a.store.IsLoggedIn() {
		fmt.Println("Sign in first with 'login'")
		return false
	}
	return true
}

func (a *app) listRecipients(method string) {
	if !a.requireLogin() {
		return
	}
	feed := recipients.NewFeed(a.client, method)
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		page, err := feed.NextPage(ctx)
		cancel()
		if err != nil {
			fmt.Printf("Could not load recipients: %v\n", err)
			return
		}
		for _, rec := range page {
			fmt.Printf("  %s  %s  %s\n", rec.ID, rec.FullName, recipientDetail(rec))
		}
		if feed.Exhausted() {
			if len(feed.Items()) == 0 {
				fmt.Println("No saved recipients")
			}
			return
		}
		if a.prompt("More? [y/N] ") != "y" {
			return
		}
	}
}

func recipientDetail(rec api.Recipient) string {
	if rec.Method == wizard.MethodBank {
		return rec.BankName + " " + rec.AccountNumber
	}
	return rec.MomoNumber + " (" + rec.NetworkName + ")"
}

func (a *app) networks() {
	if !a.requireLogin() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	options, err := a.client.MomoNetworks(ctx)
	if err != nil {
		fmt.Printf("Could not load networks: %v\n", err)
		return
	}
	for _, opt := range options {
		fmt.Printf("  %s  %s\n", opt.Code, opt.Name)
	}
}

func (a *app) history() {
	if !a.requireLogin() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	transfers, err := a.client.Transfers(ctx, 20)
	if err != nil {
		fmt.Printf("Could not load history: %v\n", err)
		return
	}
	if len(transfers) == 0 {
		fmt.Println("No transfers yet")
		return
	}
	for _, tr := range transfers {
		fmt.Printf("  %s  %s  $%.2f  %s\n", tr.Reference, tr.Method, float64(tr.AmountCents)/100, tr.Status)
	}
}

// send walks the four wizard steps interactively.
func (a *app) send() {
	if !a.requireLogin() {
		return
	}
	w := wizard.New(a.deps)

	for {
		switch w.Step() {
		case wizard.StepRecipient:
			if !a.stepRecipient(w) {
				return
			}
		case wizard.StepAmount:
			if !a.stepAmount(w) {
				return
			}
		case wizard.StepPayment:
			if !a.stepPayment(w) {
				return
			}
		case wizard.StepReview:
			a.stepReview(w)
			return
		}
	}
}

func (a *app) stepRecipient(w *wizard.Wizard) bool {
	method := a.prompt("Delivery method [mobile/bank]: ")
	if method == "" {
		return false
	}
	if err := w.SetMethod(method); err != nil {
		fmt.Println(err)
		return true
	}

	if method == wizard.MethodMobile {
		w.SetPhone(a.prompt("Phone number: "))
		code := a.prompt("Network code [MTN/VOD/ATL]: ")
		w.SetNetwork(code, code)
	} else {
		w.SetBank(a.prompt("Bank name: "))
		w.SetAccount(a.prompt("Account number: "))
	}

	// Lookup resolves the registered holder name; wait for it to settle.
	for w.Verifying() {
		fmt.Println("Verifying recipient...")
		time.Sleep(200 * time.Millisecond)
	}
	if name := w.Draft().Name; name != "" {
		fmt.Printf("Resolved name: %s\n", name)
	} else {
		w.SetName(a.prompt("Recipient name: "))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := w.Next(ctx); err != nil {
		if errors.Is(err, wizard.ErrVerificationPending) {
			fmt.Println("Still verifying, try again in a moment")
		} else {
			fmt.Printf("Could not save recipient: %v\n", err)
		}
		return a.prompt("Retry? [y/N] ") == "y"
	}
	return true
}

func (a *app) stepAmount(w *wizard.Wizard) bool {
	w.SetAmount(a.prompt("Amount to send (USD): "))
	if err := w.Next(context.Background()); err != nil {
		fmt.Println(err)
		return a.prompt("Retry? [y/N] ") == "y"
	}
	return true
}

func (a *app) stepPayment(w *wizard.Wizard) bool {
	w.SetPaymentMethod(a.prompt("Payment method [card/bank]: "))
	if err := w.Next(context.Background()); err != nil {
		fmt.Println(err)
		return a.prompt("Retry? [y/N] ") == "y"
	}
	return true
}

func (a *app) stepReview(w *wizard.Wizard) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	quote, err := w.Quote(ctx)
	if err != nil {
		fmt.Printf("Could not price the transfer: %v\n", err)
		return
	}
	draft := w.Draft()
	fmt.Printf("\nSending $%s to %s\n", quote.Amount, draft.Name)
	fmt.Printf("  Fee:              $%s\n", quote.Fee)
	fmt.Printf("  Total charge:     $%s\n", quote.TotalCharge)
	fmt.Printf("  Recipient gets:   GHS %s (rate %.2f)\n", quote.RecipientAmount, quote.Rate)

	if a.prompt("Confirm & send? [y/N] ") != "y" {
		fmt.Println("Cancelled")
		return
	}

	reference, err := w.Confirm()
	if err != nil {
		fmt.Println(err)
		return
	}

	amount, err := wizard.ParseAmount(draft.Amount)
	if err != nil {
		fmt.Println(err)
		return
	}
	transfer, err := a.client.SubmitTransfer(ctx, api.SubmitTransferInput{
		RecipientID:   draft.RecipientID,
		Method:        draft.Method,
		AmountCents:   int64(math.Round(amount * 100)),
		PaymentMethod: draft.PaymentMethod,
		Reference:     reference,
	})
	if err != nil {
		fmt.Printf("Transfer recorded locally as %s but the server rejected it: %v\n", reference, err)
		return
	}
	fmt.Printf("Transfer submitted. Reference: %s\n", transfer.Reference)
}

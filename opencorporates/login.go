package opencorporates

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/ownerlookup/browser"
	"github.com/use-agent/ownerlookup/config"
)

// Sign-in form elements.
const (
	emailFieldSelector    = "#user_email"
	passwordFieldSelector = "#user_password"
	submitButtonXPath     = `//button[@name="submit"]`
)

// redirectPollInterval is how often Login checks whether the sign-in page
// has been left.
var redirectPollInterval = 250 * time.Millisecond

var (
	errNoCredentials  = errors.New("credentials not configured: set OPENCORPORATES_EMAIL and OPENCORPORATES_PASSWORD")
	errNoSignInForm   = errors.New("sign-in form did not appear")
	errStillSignedOut = errors.New("still on the sign-in page after submitting credentials")
)

// LoginTimeouts bound the steps of a sign-in.
type LoginTimeouts struct {
	// Navigation bounds loading the sign-in page. Zero falls back to Form.
	Navigation time.Duration

	// Form bounds the wait for the form and for the redirect after submit.
	Form time.Duration
}

// Login signs in to the site once: it fills the sign-in form, submits it and
// waits for the browser to leave the sign-in page. Every step is bounded, so
// a sign-in page that never loads fails instead of hanging. Any failure is
// logged and returned; the password is never logged.
func Login(ctx context.Context, page browser.Page, signInURL string, creds config.CredentialsConfig, timeouts LoginTimeouts) error {
	err := login(ctx, page, signInURL, creds, timeouts)
	if err != nil {
		slog.Error("sign-in failed", "url", signInURL, "account", creds.Email, "error", err)
		return err
	}
	slog.Info("signed in", "account", creds.Email)
	return nil
}

func login(ctx context.Context, page browser.Page, signInURL string, creds config.CredentialsConfig, timeouts LoginTimeouts) error {
	if !creds.Configured() {
		return errNoCredentials
	}

	if err := navigateSignIn(ctx, page, signInURL, timeouts); err != nil {
		return err
	}

	found, err := page.WaitFor(ctx, emailFieldSelector, timeouts.Form)
	if err != nil {
		return err
	}
	if !found {
		return errNoSignInForm
	}

	if err := page.Input(ctx, emailFieldSelector, creds.Email); err != nil {
		return err
	}
	if err := page.Input(ctx, passwordFieldSelector, creds.Password); err != nil {
		return err
	}
	if err := page.ClickX(ctx, submitButtonXPath); err != nil {
		return err
	}

	return waitLeave(ctx, page, signInURL, timeouts.Form)
}

func navigateSignIn(ctx context.Context, page browser.Page, signInURL string, timeouts LoginTimeouts) error {
	bound := timeouts.Navigation
	if bound <= 0 {
		bound = timeouts.Form
	}
	if bound > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, bound)
		defer cancel()
	}
	return page.Navigate(ctx, signInURL)
}

// waitLeave polls the page location until it no longer points at the
// sign-in page.
func waitLeave(ctx context.Context, page browser.Page, signInURL string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(redirectPollInterval)
	defer ticker.Stop()

	for {
		current, err := page.URL(ctx)
		if err == nil && !onSignInPage(current, signInURL) {
			return nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return errStillSignedOut
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func onSignInPage(current, signInURL string) bool {
	current, _, _ = strings.Cut(current, "?")
	return strings.TrimSuffix(current, "/") == strings.TrimSuffix(signInURL, "/")
}

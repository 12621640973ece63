package opencorporates

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/ownerlookup/models"
)

var testTimeouts = LoginTimeouts{Navigation: time.Second, Form: time.Second}

func TestLogin(t *testing.T) {
	page := newSite()

	err := Login(context.Background(), page, SignInURL(testBase), testCreds, testTimeouts)
	require.NoError(t, err)

	assert.Equal(t, "ops@example.com", page.Inputs()[emailFieldSelector])
	assert.Equal(t, "s3cret", page.Inputs()[passwordFieldSelector])
	assert.Equal(t, []string{submitButtonXPath}, page.Clicks())
}

func TestLogin_StillOnSignInPage(t *testing.T) {
	page := newSite()
	page.SubmitURL = SignInURL(testBase) + "?error=invalid"

	err := Login(context.Background(), page, SignInURL(testBase), testCreds, LoginTimeouts{Form: 50 * time.Millisecond})
	assert.ErrorIs(t, err, errStillSignedOut)
}

func TestLogin_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Login(ctx, newSite(), SignInURL(testBase), testCreds, testTimeouts)
	assert.Error(t, err)
}

func TestLogin_SignInPageNeverLoads(t *testing.T) {
	tests := []struct {
		name     string
		timeouts LoginTimeouts
	}{
		{"navigation timeout", LoginTimeouts{Navigation: 50 * time.Millisecond, Form: time.Hour}},
		{"falls back to form timeout", LoginTimeouts{Form: 50 * time.Millisecond}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := newSite()
			hold := make(chan struct{})
			defer close(hold)
			page.Hold[SignInURL(testBase)] = hold

			done := make(chan error, 1)
			go func() {
				done <- Login(context.Background(), page, SignInURL(testBase), testCreds, tt.timeouts)
			}()

			select {
			case err := <-done:
				var se *models.ScrapeError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, models.ErrCodeTimeout, se.Code)
			case <-time.After(2 * time.Second):
				t.Fatal("Login did not give up on a sign-in page that never loads")
			}
		})
	}
}

func TestOnSignInPage(t *testing.T) {
	signIn := "https://oc.test/users/sign_in"
	assert.True(t, onSignInPage(signIn, signIn))
	assert.True(t, onSignInPage(signIn+"/", signIn))
	assert.True(t, onSignInPage(signIn+"?locale=en", signIn))
	assert.False(t, onSignInPage("https://oc.test/", signIn))
	assert.False(t, onSignInPage("https://oc.test/users/sign_in_help", signIn))
}

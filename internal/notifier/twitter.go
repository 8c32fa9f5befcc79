package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/dghubble/oauth1"

	"github.com/pfrederiksen/event-scout/internal/storage"
)

// ErrMissingCredentials is returned when any Twitter credential is empty.
var ErrMissingCredentials = errors.New("missing required Twitter credentials")

// Credentials are the OAuth1 keys for a Twitter account.
type Credentials struct {
	APIKey       string `yaml:"api_key"`
	APISecret    string `yaml:"api_secret"`
	AccessToken  string `yaml:"access_token"`
	AccessSecret string `yaml:"access_secret"`
}

// CredentialsFromEnv reads TWITTER_API_KEY, TWITTER_API_SECRET,
// TWITTER_ACCESS_TOKEN and TWITTER_ACCESS_SECRET.
func CredentialsFromEnv() Credentials {
	return Credentials{
		APIKey:       os.Getenv("TWITTER_API_KEY"),
		APISecret:    os.Getenv("TWITTER_API_SECRET"),
		AccessToken:  os.Getenv("TWITTER_ACCESS_TOKEN"),
		AccessSecret: os.Getenv("TWITTER_ACCESS_SECRET"),
	}
}

// Complete reports whether every credential is set.
func (c Credentials) Complete() bool {
	return c.APIKey != "" && c.APISecret != "" && c.AccessToken != "" && c.AccessSecret != ""
}

type statusUpdater interface {
	Update(status string, params *twitter.StatusUpdateParams) (*twitter.Tweet, *http.Response, error)
}

// TwitterNotifier posts notifications to Twitter
type TwitterNotifier struct {
	statuses statusUpdater
}

// NewTwitterNotifier creates a Twitter notifier from creds
func NewTwitterNotifier(creds Credentials) (*TwitterNotifier, error) {
	if !creds.Complete() {
		return nil, ErrMissingCredentials
	}

	config := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	httpClient := config.Client(oauth1.NoContext, token)
	client := twitter.NewClient(httpClient)

	return &TwitterNotifier{statuses: client.Statuses}, nil
}

// Notify posts one status for the notification
func (t *TwitterNotifier) Notify(ctx context.Context, n *storage.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, _, err := t.statuses.Update(formatMessage(n), nil); err != nil {
		return fmt.Errorf("failed to post tweet for notification %s: %w", n.ID, err)
	}
	return nil
}

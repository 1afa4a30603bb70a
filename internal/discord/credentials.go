package discord

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// ErrAuth is returned when Discord rejects the bot credential.
var ErrAuth = errors.New("discord rejected the token")

// ErrNoToken is returned when no credential was supplied.
var ErrNoToken = errors.New("discord token is empty")

// Credentials holds the bot token used for the gateway session and handed to
// the export tool.
type Credentials struct {
	Token string // raw token without the "Bot " prefix
}

// NewCredentials normalises a token as it may appear in .env files or be
// pasted by the operator: surrounding whitespace and quotes and a leading
// "Bot " scheme are stripped.
func NewCredentials(token string) (*Credentials, error) {
	token = strings.TrimSpace(token)
	token = strings.Trim(token, `"'`)
	if len(token) > 4 && strings.EqualFold(token[:4], "bot ") {
		token = strings.TrimSpace(token[4:])
	}
	if token == "" {
		return nil, ErrNoToken
	}
	return &Credentials{Token: token}, nil
}

// Authorization returns the value of the Authorization header for bot
// requests.
func (c *Credentials) Authorization() string {
	return "Bot " + c.Token
}

// isAuthError reports whether err is Discord refusing the credential, as
// opposed to a transient network failure.
func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		return rest.Response.StatusCode == http.StatusUnauthorized
	}
	// gateway close code 4004: authentication failed
	return strings.Contains(err.Error(), "4004")
}

package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/oauth"

	"github.com/mbolis/quick-forms/service"
	"github.com/mbolis/quick-forms/store"
)

// Claim names added to every user token.
const (
	ClaimRoles  = "roles"
	ClaimUserID = "uid"
)

const refreshTokenTTL = 8760 * time.Hour

type credentialsVerifier struct {
	users  *service.UserService
	tokens store.Tokens
}

func CredentialsVerifier(users *service.UserService, tokens store.Tokens) oauth.CredentialsVerifier {
	return &credentialsVerifier{users, tokens}
}

// NewBearerServer issues and refreshes user tokens with the password grant.
func NewBearerServer(secret string, ttl time.Duration, users *service.UserService, tokens store.Tokens) *oauth.BearerServer {
	return oauth.NewBearerServer(secret, ttl, CredentialsVerifier(users, tokens), nil)
}

func (cs *credentialsVerifier) ValidateUser(username string, password string, scope string, r *http.Request) error {
	_, err := cs.users.Authenticate(r.Context(), username, password)
	return err
}
func (cs *credentialsVerifier) StoreTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	return cs.tokens.StoreToken(context.Background(), credential, tokenID, refreshTokenID, time.Now().Add(refreshTokenTTL))
}
func (cs *credentialsVerifier) ValidateTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	expiration, err := cs.tokens.ConsumeToken(context.Background(), credential, tokenID, refreshTokenID)
	if err != nil {
		return errors.New("could not refresh")
	}
	if expiration.Before(time.Now()) {
		return errors.New("could not refresh")
	}
	return nil
}
func (cs *credentialsVerifier) AddClaims(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	user, err := cs.users.GetUserByUsername(r.Context(), credential)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		ClaimRoles:  string(user.Role),
		ClaimUserID: user.ID,
	}, nil
}
func (*credentialsVerifier) AddProperties(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{}, nil
}
func (*credentialsVerifier) ValidateClient(clientID string, clientSecret string, scope string, r *http.Request) error {
	return errors.New("not supported")
}

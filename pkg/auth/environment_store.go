package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore
const (
	EnvAccessToken   = "GREETSEND_CLOUD_TOKEN"
	EnvPhoneNumberID = "GREETSEND_CLOUD_PHONE_NUMBER_ID"
	EnvBusinessID    = "GREETSEND_CLOUD_BUSINESS_ID"
)

// EnvironmentStore implements CredentialStore using environment variables.
// It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	token := os.Getenv(EnvAccessToken)
	phoneID := os.Getenv(EnvPhoneNumberID)

	if token == "" || phoneID == "" {
		return nil, ErrCredentialsNotFound
	}

	if name == "" {
		name = DefaultAccountName
	}

	return &Account{
		Name:          name,
		PhoneNumberID: phoneID,
		AccessToken:   token,
		BusinessID:    os.Getenv(EnvBusinessID),
		LastModified:  time.Now(),
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv(EnvAccessToken) != "" && os.Getenv(EnvPhoneNumberID) != ""
}

package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements Store using environment variables. It is
// read-only and mainly serves containers and CI, where BDFR_* variables
// are the natural way to pass a login in.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(creds *Credentials) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(username string) (*Credentials, error) {
	creds := &Credentials{
		Username:     os.Getenv("BDFR_USERNAME"),
		Password:     os.Getenv("BDFR_PASSWORD"),
		ClientID:     os.Getenv("BDFR_CLIENT_ID"),
		ClientSecret: os.Getenv("BDFR_CLIENT_SECRET"),
		LastModified: time.Now(),
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, ErrCredentialsNotFound
	}
	if username != "" && creds.Username != username {
		return nil, ErrCredentialsNotFound
	}
	return creds, nil
}

// List returns a single login when the environment is populated
func (e *EnvironmentStore) List() ([]*Credentials, error) {
	creds, err := e.Retrieve("")
	if err != nil {
		return []*Credentials{}, nil
	}
	return []*Credentials{creds}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(username string) bool {
	return os.Getenv("BDFR_CLIENT_ID") != "" && os.Getenv("BDFR_CLIENT_SECRET") != ""
}

package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

// EnvPassphrase overrides the generated passphrase of the encrypted store
const EnvPassphrase = "GREETSEND_PASSPHRASE"

const (
	vaultVersion = 2
	saltSize     = 32
	keySize      = 32
	iterations   = 100000
)

// EncryptedFileStore keeps Cloud API accounts in a single file. Phone number
// and business IDs are stored as they are; only the access token is sealed
// with AES-GCM, bound to its account name and phone number ID so a token
// cannot be moved to another entry.
type EncryptedFileStore struct {
	path       string
	passphrase string

	mu   sync.Mutex
	key  []byte
	salt string
}

type vaultFile struct {
	Version  int                   `json:"version"`
	Salt     string                `json:"salt"`
	Accounts map[string]vaultEntry `json:"accounts"`
}

type vaultEntry struct {
	PhoneNumberID string    `json:"phone_number_id"`
	BusinessID    string    `json:"business_id,omitempty"`
	Token         string    `json:"token"`
	LastModified  time.Time `json:"last_modified"`
}

// NewEncryptedFileStore opens the vault at path. The file is created on the
// first Store.
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	passphrase, err := loadPassphrase()
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}
	return &EncryptedFileStore{path: path, passphrase: passphrase}, nil
}

// Store seals the account's token and writes the vault
func (e *EncryptedFileStore) Store(account *Account) error {
	if account == nil || account.Name == "" {
		return ErrInvalidCredentials
	}
	if !isNumeric(account.PhoneNumberID) {
		return fmt.Errorf("%w: phone number ID must be numeric", ErrInvalidCredentials)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	vault, err := e.read()
	if errors.Is(err, os.ErrNotExist) {
		vault = &vaultFile{Accounts: make(map[string]vaultEntry)}
	} else if err != nil {
		return err
	}

	key, err := e.keyFor(vault)
	if err != nil {
		return err
	}
	sealed, err := sealToken(key, account)
	if err != nil {
		return fmt.Errorf("failed to encrypt token: %w", err)
	}

	modified := account.LastModified
	if modified.IsZero() {
		modified = time.Now()
	}
	vault.Accounts[account.Name] = vaultEntry{
		PhoneNumberID: account.PhoneNumberID,
		BusinessID:    account.BusinessID,
		Token:         sealed,
		LastModified:  modified,
	}
	return e.write(vault)
}

// Retrieve returns the named account with its token decrypted
func (e *EncryptedFileStore) Retrieve(name string) (*Account, error) {
	if name == "" {
		return nil, ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	vault, err := e.read()
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrCredentialsNotFound
	} else if err != nil {
		return nil, err
	}

	entry, ok := vault.Accounts[name]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return e.open(vault, name, entry)
}

// List returns every account, most recently modified first
func (e *EncryptedFileStore) List() ([]*Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	vault, err := e.read()
	if errors.Is(err, os.ErrNotExist) {
		return []*Account{}, nil
	} else if err != nil {
		return nil, err
	}

	accounts := make([]*Account, 0, len(vault.Accounts))
	for name, entry := range vault.Accounts {
		account, err := e.open(vault, name, entry)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].LastModified.After(accounts[j].LastModified)
	})
	return accounts, nil
}

// Delete removes the named account. Removing the last one deletes the file.
func (e *EncryptedFileStore) Delete(name string) error {
	if name == "" {
		return ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	vault, err := e.read()
	if errors.Is(err, os.ErrNotExist) {
		return ErrCredentialsNotFound
	} else if err != nil {
		return err
	}
	if _, ok := vault.Accounts[name]; !ok {
		return ErrCredentialsNotFound
	}

	delete(vault.Accounts, name)
	if len(vault.Accounts) == 0 {
		return os.Remove(e.path)
	}
	return e.write(vault)
}

// Exists reports whether the vault has an entry for name. The token is not
// decrypted.
func (e *EncryptedFileStore) Exists(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	vault, err := e.read()
	if err != nil {
		return false
	}
	_, ok := vault.Accounts[name]
	return ok
}

func (e *EncryptedFileStore) open(vault *vaultFile, name string, entry vaultEntry) (*Account, error) {
	key, err := e.keyFor(vault)
	if err != nil {
		return nil, err
	}
	account := &Account{
		Name:          name,
		PhoneNumberID: entry.PhoneNumberID,
		BusinessID:    entry.BusinessID,
		LastModified:  entry.LastModified,
	}
	token, err := openToken(key, account, entry.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt token for account %s: %w", name, err)
	}
	account.AccessToken = token
	return account, nil
}

func (e *EncryptedFileStore) read() (*vaultFile, error) {
	content, err := os.ReadFile(e.path)
	if err != nil {
		return nil, err
	}

	var vault vaultFile
	if err := json.Unmarshal(content, &vault); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", e.path, err)
	}
	if vault.Version != vaultVersion {
		return nil, fmt.Errorf("unsupported credentials file version %d in %s", vault.Version, e.path)
	}
	if vault.Accounts == nil {
		vault.Accounts = make(map[string]vaultEntry)
	}
	return &vault, nil
}

func (e *EncryptedFileStore) write(vault *vaultFile) error {
	vault.Version = vaultVersion
	content, err := json.MarshalIndent(vault, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return os.Rename(tmp, e.path)
}

// keyFor derives the key for the vault's salt, generating a salt for a new
// vault. The derived key is cached per salt since PBKDF2 is slow on purpose.
func (e *EncryptedFileStore) keyFor(vault *vaultFile) ([]byte, error) {
	if vault.Salt == "" {
		salt := make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
		vault.Salt = base64.StdEncoding.EncodeToString(salt)
	}
	if e.key != nil && e.salt == vault.Salt {
		return e.key, nil
	}

	salt, err := base64.StdEncoding.DecodeString(vault.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	e.key = pbkdf2.Key([]byte(e.passphrase), salt, iterations, keySize, sha256.New)
	e.salt = vault.Salt
	return e.key, nil
}

// tokenAAD ties a sealed token to the entry it was stored under
func tokenAAD(account *Account) []byte {
	return []byte(account.Name + "\x00" + account.PhoneNumberID)
}

func sealToken(key []byte, account *Account) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, []byte(account.AccessToken), tokenAAD(account))
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func openToken(key []byte, account *Account, sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", err
	}
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	if len(raw) < gcm.NonceSize() {
		return "", errors.New("sealed token too short")
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ciphertext, tokenAAD(account))
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// loadPassphrase reads GREETSEND_PASSPHRASE, then the passphrase file next
// to the vault, creating one on first use
func loadPassphrase() (string, error) {
	if pass := os.Getenv(EnvPassphrase); pass != "" {
		return pass, nil
	}

	configDir, err := getConfigDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(configDir, ".passphrase")

	if content, err := os.ReadFile(path); err == nil && len(content) > 0 {
		return string(content), nil
	}

	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	passphrase := base64.URLEncoding.EncodeToString(b)
	if err := os.WriteFile(path, []byte(passphrase), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return passphrase, nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

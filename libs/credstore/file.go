package credstore

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	fileFormatVersion = 1
	saltSize          = 16
	nonceSize         = 24
	keySize           = 32
)

// scrypt cost parameters. Tests lower scryptN to keep runs fast.
var (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

type sealedFile struct {
	Version int    `json:"v"`
	Salt    []byte `json:"salt"`
	Nonce   []byte `json:"nonce"`
	Box     []byte `json:"box"`
}

// FileStore seals credentials with NaCl secretbox under a key derived from a
// passphrase with scrypt. A fresh salt and nonce are drawn on every write.
type FileStore struct {
	path       string
	passphrase []byte
	mu         sync.Mutex
}

func NewFileStore(path, passphrase string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("credential file path is required")
	}
	if passphrase == "" {
		return nil, errors.New("credential file passphrase is required")
	}
	return &FileStore{path: path, passphrase: []byte(passphrase)}, nil
}

func (s *FileStore) Get(_ context.Context) (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Credentials{}, nil
		}
		return Credentials{}, fmt.Errorf("read credential file: %w", err)
	}

	var sealed sealedFile
	if err := json.Unmarshal(raw, &sealed); err != nil {
		return Credentials{}, ErrWrongPassphrase
	}
	if sealed.Version != fileFormatVersion || len(sealed.Salt) != saltSize || len(sealed.Nonce) != nonceSize {
		return Credentials{}, ErrWrongPassphrase
	}
	key, err := s.deriveKey(sealed.Salt)
	if err != nil {
		return Credentials{}, err
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed.Nonce)
	plain, ok := secretbox.Open(nil, sealed.Box, &nonce, key)
	if !ok {
		return Credentials{}, ErrWrongPassphrase
	}

	var creds Credentials
	if err := json.Unmarshal(plain, &creds); err != nil {
		return Credentials{}, ErrWrongPassphrase
	}
	return creds, nil
}

func (s *FileStore) Set(_ context.Context, creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plain, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	sealed := sealedFile{Version: fileFormatVersion, Salt: make([]byte, saltSize), Nonce: make([]byte, nonceSize)}
	if _, err := rand.Read(sealed.Salt); err != nil {
		return err
	}
	if _, err := rand.Read(sealed.Nonce); err != nil {
		return err
	}
	key, err := s.deriveKey(sealed.Salt)
	if err != nil {
		return err
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed.Nonce)
	sealed.Box = secretbox.Seal(nil, plain, &nonce, key)

	out, err := json.Marshal(sealed)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, out)
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) deriveKey(salt []byte) (*[keySize]byte, error) {
	derived, err := scrypt.Key(s.passphrase, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("derive credential key: %w", err)
	}
	var key [keySize]byte
	copy(key[:], derived)
	return &key, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("create temp credential file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

package credstore

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core/session"
)

var _ session.CredentialStore = (*File)(nil)

type credentials struct {
	Token string `json:"token"`
}

// File keeps the token in a JSON file readable by its owner only.
type File struct {
	path  string
	mutex sync.Mutex
}

// NewFile returns a File store at path; an empty path means $HOME/.masomo/credentials.
func NewFile(path string) (*File, error) {
	if path == "" {
		homeDir, err := homedir.Dir()
		if err != nil {
			return nil, errors.Wrap(err, "error locating user's home directory")
		}
		path = filepath.Join(homeDir, ".masomo", "credentials")
	}
	return &File{path: path}, nil
}

func (f *File) Path() string {
	return f.path
}

func (f *File) Save(token string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.Wrapf(err, "error creating credentials directory %s", dir)
	}
	data, err := json.Marshal(credentials{Token: token})
	if err != nil {
		return errors.Wrap(err, "error marshaling credentials")
	}

	// the token file is replaced atomically
	tmp, err := ioutil.TempFile(dir, ".credentials-*")
	if err != nil {
		return errors.Wrapf(err, "error creating temp file in %s", dir)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "error writing to %s", tmp.Name())
	}
	if err = tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "error setting permissions on %s", tmp.Name())
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "error closing %s", tmp.Name())
	}
	if err = os.Rename(tmp.Name(), f.path); err != nil {
		return errors.Wrapf(err, "error writing to %s", f.path)
	}
	return nil
}

func (f *File) Load() (string, bool) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	data, err := ioutil.ReadFile(f.path)
	if err != nil {
		return "", false
	}
	var creds credentials
	if err = json.Unmarshal(data, &creds); err != nil || creds.Token == "" {
		return "", false
	}
	return creds.Token, true
}

func (f *File) Clear() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "error deleting %s", f.path)
	}
	return nil
}

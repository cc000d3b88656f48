package credentials

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path"
	"sync"

	"github.com/krancour/guestflow/internal/file"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

const credentialsFileName = "credentials"

type fileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore returns a Store that persists the Pair as JSON in a file named
// "credentials" within the given directory. The directory is created on first
// write.
func NewFileStore(dir string) Store {
	return &fileStore{
		dir: dir,
	}
}

// NewHomeFileStore returns a Store backed by the credentials file within the
// current user's guestflow home directory.
func NewHomeFileStore() (Store, error) {
	guestflowHome, err := GuestflowHome()
	if err != nil {
		return nil, errors.Wrap(err, "error finding guestflow home")
	}
	return NewFileStore(guestflowHome), nil
}

// GuestflowHome returns the path of the current user's guestflow home
// directory.
func GuestflowHome() (string, error) {
	homeDir, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "error locating user's home directory")
	}
	return path.Join(homeDir, ".guestflow"), nil
}

func (f *fileStore) Read() (Pair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pair := Pair{}
	credentialsFile := f.path()
	if !file.Exists(credentialsFile) {
		return pair, nil
	}
	pairBytes, err := ioutil.ReadFile(credentialsFile)
	if err != nil {
		return pair, errors.Wrapf(
			err,
			"error reading credentials file at %s",
			credentialsFile,
		)
	}
	if err := json.Unmarshal(pairBytes, &pair); err != nil {
		return Pair{}, errors.Wrapf(
			err,
			"error parsing credentials file at %s",
			credentialsFile,
		)
	}
	return pair, nil
}

// Write marshals the Pair into a temporary file in the same directory and
// renames it over the credentials file, so readers never observe a partially
// written Pair.
func (f *fileStore) Write(pair Pair) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := os.Stat(f.dir); err != nil {
		if !os.IsNotExist(err) {
			return errors.Wrapf(
				err,
				"error checking for existence of %s",
				f.dir,
			)
		}
		// The directory doesn't exist-- create it
		if err := os.MkdirAll(f.dir, 0700); err != nil {
			return errors.Wrapf(err, "error creating %s", f.dir)
		}
	}
	pairBytes, err := json.Marshal(pair)
	if err != nil {
		return errors.Wrap(err, "error marshaling credentials")
	}
	tmpFile, err := ioutil.TempFile(f.dir, credentialsFileName)
	if err != nil {
		return errors.Wrapf(err, "error creating temporary file in %s", f.dir)
	}
	defer os.Remove(tmpFile.Name()) // nolint: errcheck
	if _, err := tmpFile.Write(pairBytes); err != nil {
		tmpFile.Close() // nolint: errcheck
		return errors.Wrapf(err, "error writing to %s", tmpFile.Name())
	}
	if err := tmpFile.Close(); err != nil {
		return errors.Wrapf(err, "error closing %s", tmpFile.Name())
	}
	if err := os.Chmod(tmpFile.Name(), 0600); err != nil {
		return errors.Wrapf(err, "error setting mode of %s", tmpFile.Name())
	}
	if err := os.Rename(tmpFile.Name(), f.path()); err != nil {
		return errors.Wrapf(err, "error writing to %s", f.path())
	}
	return nil
}

func (f *fileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path()); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "error deleting credentials")
	}
	return nil
}

func (f *fileStore) path() string {
	return path.Join(f.dir, credentialsFileName)
}

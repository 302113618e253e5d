// Package files implements file utilities shared by the hub cache and the dataset writers.
package files

import (
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DefaultDirCreationPerm is used when creating parent directories.
const DefaultDirCreationPerm = 0755

// DefaultFileCreationPerm is the permission of files written by WriteAtomic.
const DefaultFileCreationPerm = 0644

// Exists returns true if the path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ExecOnFileLock opens the lockPath file (or creates if it doesn't yet exist), locks it, and executes the function.
// If the lockPath is already locked, it polls with a 1 to 2 seconds period (randomly), until it acquires the lock.
//
// The lockPath is not removed. It's safe to remove it from the given fn, if one knows that no new calls to
// ExecOnFileLock with the same lockPath is going to be made.
func ExecOnFileLock(lockPath string, fn func()) (err error) {
	fileLock := flock.New(lockPath)
	for {
		locked, err := fileLock.TryLock()
		if err != nil {
			return errors.Wrapf(err, "while trying to lock %q", lockPath)
		}
		if locked {
			break
		}
		// Wait from 1 to 2 seconds.
		time.Sleep(time.Millisecond * time.Duration(1000+rand.Intn(1000)))
	}

	// Clean up in a deferred function, so it happens even if `fn()` panics.
	defer func() {
		unlockErr := fileLock.Unlock()
		if unlockErr != nil {
			if err == nil {
				err = errors.Wrapf(unlockErr, "unlocking file %q", lockPath)
			} else {
				klog.Errorf("Error unlocking file %q: %v", lockPath, unlockErr)
			}
		}
	}()

	fn()
	return
}

// WriteAtomic writes filePath by calling write on a temporary file next to it, and then atomically
// moving it into place. A filePath+".lock" file coordinates concurrent writers of the same path.
//
// Each call writes its own uniquely named temporary file, so writers that end up holding different
// lock files (the lock file is removed after writing) never write to the same file.
//
// If write returns an error, the temporary file is removed and filePath is left untouched.
func WriteAtomic(filePath string, write func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(filePath), DefaultDirCreationPerm); err != nil {
		return errors.Wrapf(err, "failed to create directory for file %q", filePath)
	}
	lockPath := filePath + ".lock"
	var mainErr error
	errLock := ExecOnFileLock(lockPath, func() {
		mainErr = writeViaTemp(filePath, write)
		if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
			klog.Warningf("error removing lock file %q: %+v", lockPath, err)
		}
	})
	if mainErr != nil {
		return mainErr
	}
	if errLock != nil {
		return errors.WithMessagef(errLock, "while locking %q to write %q", lockPath, filePath)
	}
	return nil
}

func writeViaTemp(filePath string, write func(w io.Writer) error) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(filePath), filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "creating temporary file for %q", filePath)
	}
	tmpPath := tmpFile.Name()
	closed := false
	defer func() {
		// On error, make sure to close and remove the unfinished temporary file.
		if !closed {
			if err := tmpFile.Close(); err != nil {
				klog.Warningf("Failed closing temporary file %q: %v", tmpPath, err)
			}
			if err := os.Remove(tmpPath); err != nil {
				klog.Warningf("Failed removing temporary file %q: %v", tmpPath, err)
			}
		}
	}()

	if err := tmpFile.Chmod(DefaultFileCreationPerm); err != nil {
		return errors.Wrapf(err, "setting permissions of %q", tmpPath)
	}
	if err := write(tmpFile); err != nil {
		return errors.WithMessagef(err, "while writing %q", tmpPath)
	}
	closed = true
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "failed to close temporary file %q", tmpPath)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "failed to move %q to %q", tmpPath, filePath)
	}
	return nil
}

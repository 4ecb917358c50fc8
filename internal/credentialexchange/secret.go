package credentialexchange

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/werf/lockgate"
	"github.com/werf/lockgate/pkg/file_locker"
	"github.com/zalando/go-keyring"
)

var (
	ErrUnableToLoadAWSCred        = errors.New("unable to load AWS credential")
	ErrCannotLockDir              = errors.New("unable to create lock dir")
	ErrUnableToRetrieveSections   = errors.New("unable to retrieve sections")
	ErrUnableToLoadDueToLock      = errors.New("cannot load secret due to lock error")
	ErrUnableToAcquireLock        = errors.New("cannot acquire lock")
	ErrUnmarshallingSecret        = errors.New("cannot unmarshal secret")
	ErrFailedToClearSecretStorage = errors.New("failed to clear secret storage on OS")
)

const lockTimeout = 1 * time.Minute

// keyringApi is the subset of the OS secret store in use
type keyringApi interface {
	Set(service, user, password string) error
	Get(service, user string) (string, error)
	Delete(service, user string) error
}

// SecretStore keeps one set of credentials per account/role in the OS
// secret store. Reads and writes are serialised across processes with a
// file lock.
type SecretStore struct {
	AWSCredentials *AWSCredentials
	AWSCredJson    string
	keyring        keyringApi
	roleArn        string
	lockDir        string
	locker         lockgate.Locker
	lockResource   string
	secretService  string
	secretUser     string
}

func (s *SecretStore) WithLocker(locker lockgate.Locker) *SecretStore {
	s.locker = locker
	return s
}

func (s *SecretStore) WithKeyring(keyring keyringApi) *SecretStore {
	s.keyring = keyring
	return s
}

// keyRingImpl is the default keyring implementation
type keyRingImpl struct{}

func (k *keyRingImpl) Set(service, user, password string) error {
	return keyring.Set(service, user, password)
}
func (k *keyRingImpl) Get(service, user string) (string, error) {
	return keyring.Get(service, user)
}
func (k *keyRingImpl) Delete(service, user string) error {
	return keyring.Delete(service, user)
}

// SecretServiceName is the keyring service the credentials of roleArn are
// stored under.
func SecretServiceName(roleArn string) string {
	return fmt.Sprintf("%s-%s", SELF_NAME, RoleKeyConverter(roleArn))
}

func NewSecretStore(roleArn, baseDir, username string) (*SecretStore, error) {
	lockDir := path.Join(baseDir, fmt.Sprintf(".%s-lock", SELF_NAME))
	locker, err := file_locker.NewFileLocker(lockDir)
	if err != nil {
		return nil, fmt.Errorf("cannot setup lock dir: %s, %w", lockDir, ErrCannotLockDir)
	}

	namer := SecretServiceName(roleArn)
	return &SecretStore{
		lockDir:       lockDir,
		locker:        locker,
		keyring:       &keyRingImpl{},
		lockResource:  namer,
		secretService: namer,
		roleArn:       roleArn,
		secretUser:    username,
	}, nil
}

func (s *SecretStore) ensureLock() (func(), error) {
	acquired, lock, err := s.locker.Acquire(s.lockResource, lockgate.AcquireOptions{Shared: false, Timeout: lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("%s, %w", err, ErrUnableToAcquireLock)
	}

	if !acquired {
		return nil, fmt.Errorf("%s not acquired, %w", s.lockResource, ErrUnableToLoadDueToLock)
	}
	return func() {
		if err := s.locker.Release(lock); err != nil {
			logrus.WithField("resource", s.lockResource).Warnf("failed to release lock: %s", err)
		}
	}, nil
}

func (s *SecretStore) load() error {
	release, err := s.ensureLock()
	if err != nil {
		return err
	}
	defer release()

	creds := &AWSCredentials{}

	jsonStr, err := s.keyring.Get(s.secretService, s.secretUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			s.AWSCredentials = nil
			s.AWSCredJson = ""
			return nil
		}
		return err
	}

	if err := json.Unmarshal([]byte(jsonStr), &creds); err != nil {
		return fmt.Errorf("%s, %w", err, ErrUnmarshallingSecret)
	}

	s.AWSCredentials = creds
	s.AWSCredJson = jsonStr
	return nil
}

func (s *SecretStore) save() error {
	release, err := s.ensureLock()
	if err != nil {
		return err
	}
	defer release()

	if err := WriteIniSection(s.roleArn); err != nil {
		return err
	}

	return s.keyring.Set(s.secretService, s.secretUser, s.AWSCredJson)
}

// AWSCredential returns the stored credentials, or nil when there are none.
func (s *SecretStore) AWSCredential() (*AWSCredentials, error) {
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("secret store: %s, %w", err, ErrUnableToLoadAWSCred)
	}

	if s.AWSCredentials == nil && s.AWSCredJson == "" {
		return nil, nil
	}

	logrus.WithField("role", s.roleArn).Debug("got credential from OS secret store")

	return s.AWSCredentials, nil
}

func (s *SecretStore) SaveAWSCredential(cred *AWSCredentials) error {
	s.AWSCredentials = cred
	jsonStr, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	s.AWSCredJson = string(jsonStr)
	return s.save()
}

// Clear removes the credentials of this store's role, nothing stored is
// not an error.
func (s *SecretStore) Clear() error {
	if err := s.keyring.Delete(s.secretService, s.secretUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%s, %w", err, ErrFailedToClearSecretStorage)
	}
	logrus.WithField("role", s.roleArn).Debug("cleared credential from OS secret store")
	return nil
}

// ClearAll loops through all the sections in the INI file
// deletes them from the keychain implementation on the OS
func (s *SecretStore) ClearAll() error {
	srvSections, err := GetAllIniSections()
	if err != nil {
		return fmt.Errorf("unable to get sections from ini: %s, %w", err, ErrUnableToRetrieveSections)
	}

	for _, v := range srvSections {
		if err := s.keyring.Delete(fmt.Sprintf("%s-%s", SELF_NAME, v), s.secretUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("%s, %w", err, ErrFailedToClearSecretStorage)
		}
		logrus.WithField("role", KeyRoleConverter(v)).Debug("cleared credential from OS secret store")
	}

	return nil
}

// RoleKeyConverter converts a role to a key used for storing in key store
func RoleKeyConverter(role string) string {
	return strings.ReplaceAll(strings.ReplaceAll(role, ":", "_"), "/", "____")
}

// KeyRoleConverter Converts a key back to a role
func KeyRoleConverter(key string) string {
	return strings.ReplaceAll(strings.ReplaceAll(key, "____", "/"), "_", ":")
}

package credentialexchange_test

import (
	"errors"
	"testing"

	"github.com/dnitsch/aws-sso-portal/internal/credentialexchange"
	"github.com/zalando/go-keyring"
)

var roleTest string = "arn:aws:iam::111122342343:role/DevAdmin"
var keyTest string = "arn_aws_iam__111122342343_role____DevAdmin"

func TestConvertRoleToKey(t *testing.T) {

	got := credentialexchange.RoleKeyConverter(roleTest)
	want := keyTest
	if got != want {
		t.Errorf("Wanted: %s, Got: %s", want, got)
	}
}

func TestConvertKeyToRole(t *testing.T) {

	got := credentialexchange.KeyRoleConverter(keyTest)
	want := roleTest
	if got != want {
		t.Errorf("Wanted: %s, Got: %s", want, got)
	}
}

func Test_RoleArn_from_config(t *testing.T) {
	conf := credentialexchange.CredentialConfig{AccountId: "111122342343", RoleName: "DevAdmin"}
	if got := conf.RoleArn(); got != roleTest {
		t.Errorf("got %s, wanted %s", got, roleTest)
	}
}

type mockKeyring struct {
	deleteErr error
	deleted   []string
	store     map[string]string
}

func (m *mockKeyring) Set(service, user, password string) error {
	m.store[service+user] = password
	return nil
}

func (m *mockKeyring) Get(service, user string) (string, error) {
	v, ok := m.store[service+user]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return v, nil
}

func (m *mockKeyring) Delete(service, user string) error {
	m.deleted = append(m.deleted, service)
	return m.deleteErr
}

func newStore(t *testing.T) *credentialexchange.SecretStore {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	keyring.MockInit()
	s, err := credentialexchange.NewSecretStore(roleTest, home, "tester")
	if err != nil {
		t.Fatalf("got %s, wanted <nil>", err)
	}
	return s
}

func Test_SecretStore_save_and_load(t *testing.T) {
	s := newStore(t)

	if got, err := s.AWSCredential(); err != nil || got != nil {
		t.Fatalf("empty store: got (%v, %v), wanted (<nil>, <nil>)", got, err)
	}

	if err := s.SaveAWSCredential(mockSuccessCreds); err != nil {
		t.Fatalf("got %s, wanted <nil>", err)
	}

	reloaded, err := credentialexchange.NewSecretStore(roleTest, t.TempDir(), "tester")
	if err != nil {
		t.Fatal(err)
	}
	got, err := reloaded.AWSCredential()
	if err != nil {
		t.Fatalf("got %s, wanted <nil>", err)
	}
	if got == nil || got.AWSSessionToken != mockSuccessCreds.AWSSessionToken {
		t.Fatalf("got %+v, wanted %+v", got, mockSuccessCreds)
	}
	if !got.Expires.Equal(mockSuccessCreds.Expires) {
		t.Errorf("got %v, wanted %v", got.Expires, mockSuccessCreds.Expires)
	}

	sections, err := credentialexchange.GetAllIniSections()
	if err != nil {
		t.Fatal(err)
	}
	if len(sections) != 1 || sections[0] != keyTest {
		t.Errorf("got %v, wanted role section %s", sections, keyTest)
	}

	if err := reloaded.Clear(); err != nil {
		t.Fatalf("got %s, wanted <nil>", err)
	}
	if got, _ := s.AWSCredential(); got != nil {
		t.Errorf("got %+v after clear, wanted <nil>", got)
	}
}

func Test_SecretStore_corrupt_secret(t *testing.T) {
	s := newStore(t)
	keyring.Set(credentialexchange.SecretServiceName(roleTest), "tester", "{not json")

	_, err := s.AWSCredential()
	if !errors.Is(err, credentialexchange.ErrUnableToLoadAWSCred) {
		t.Errorf("got %v, wanted %s", err, credentialexchange.ErrUnableToLoadAWSCred)
	}
}

func Test_SecretStore_ClearAll_with(t *testing.T) {
	ttests := map[string]struct {
		deleteErr error
		expectErr error
	}{
		"deletes every stored role":      {},
		"missing secret is not an error": {deleteErr: keyring.ErrNotFound},
		"keyring failure":                {deleteErr: errors.New("locked"), expectErr: credentialexchange.ErrFailedToClearSecretStorage},
	}
	for name, tt := range ttests {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			for _, role := range []string{roleTest, "arn:aws:iam::222233334444:role/ReadOnly"} {
				if err := credentialexchange.WriteIniSection(role); err != nil {
					t.Fatal(err)
				}
			}
			m := &mockKeyring{deleteErr: tt.deleteErr, store: map[string]string{}}
			s.WithKeyring(m)

			err := s.ClearAll()
			if tt.expectErr != nil {
				if !errors.Is(err, tt.expectErr) {
					t.Errorf("got %v, wanted %s", err, tt.expectErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("got %s, wanted <nil>", err)
			}
			if len(m.deleted) != 2 {
				t.Errorf("got %v, wanted both roles deleted", m.deleted)
			}
		})
	}
}

func Test_SecretStore_Clear_with(t *testing.T) {
	ttests := map[string]struct {
		deleteErr error
		expectErr error
	}{
		"removes the role":         {},
		"nothing stored":           {deleteErr: keyring.ErrNotFound},
		"keyring refuses deletion": {deleteErr: errors.New("locked"), expectErr: credentialexchange.ErrFailedToClearSecretStorage},
	}
	for name, tt := range ttests {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			m := &mockKeyring{deleteErr: tt.deleteErr, store: map[string]string{}}
			s.WithKeyring(m)

			err := s.Clear()
			if tt.expectErr != nil {
				if !errors.Is(err, tt.expectErr) {
					t.Errorf("got %v, wanted %s", err, tt.expectErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("got %s, wanted <nil>", err)
			}
			if len(m.deleted) != 1 || m.deleted[0] != credentialexchange.SecretServiceName(roleTest) {
				t.Errorf("got %v, wanted %s deleted", m.deleted, credentialexchange.SecretServiceName(roleTest))
			}
		})
	}
}

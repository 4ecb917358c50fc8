package cmd_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dnitsch/aws-sso-portal/cmd"
	"github.com/spf13/pflag"
	"github.com/zalando/go-keyring"
)

// execute runs the shared root command and puts the flags of the executed
// command back to their defaults, cobra keeps flag values between executions.
func execute(t *testing.T, stderr io.Writer, args ...string) (string, error) {
	t.Helper()
	o := new(bytes.Buffer)
	root := cmd.RootCmd
	root.SetArgs(args)
	root.SetErr(stderr)
	root.SetOut(o)
	c, err := root.ExecuteC()
	if c != nil {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	return o.String(), err
}

func Test_helpers_for_command(t *testing.T) {
	ttests := map[string]struct{}{
		"accounts":    {},
		"credentials": {},
		"export":      {},
		"clear-cache": {},
	}
	for name := range ttests {
		t.Run(name, func(t *testing.T) {
			b := new(bytes.Buffer)
			out, _ := execute(t, b, name, "--help")
			if b.Len() > 0 {
				t.Fatal("got err, wanted nil")
			}
			if len(out) <= 0 {
				t.Fatalf("got empty, wanted a help message")
			}
		})
	}
}

func portalServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/sso-token", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":"tok"}`))
	})
	mux.HandleFunc("/instance/appinstances", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"paginationToken":null,"result":[{"id":"ins-a","name":"123456789012 (Production)","description":"AWS SSO","applicationId":"app-1","applicationName":"AWS Account","icon":"https://example.com/a.png"}]}`))
	})
	mux.HandleFunc("/instance/appinstance/ins-a/profiles", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"paginationToken":null,"result":[{"id":"p-1","name":"Admin","description":"admin","url":"https://example.com","protocol":"SAML"}]}`))
	})
	mux.HandleFunc("/federation/credentials/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("account_id") != "123456789012" || r.URL.Query().Get("role_name") != "Admin" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(`{"roleCredentials":{"accessKeyId":"ASIA1","secretAccessKey":"secret","sessionToken":"session","expiration":4102444800000}}`))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return execute(t, io.Discard, args...)
}

func Test_accounts_and_credentials_against_portal(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "")
	keyring.MockInit()
	ts := portalServer(t)
	login := []string{"--org-id", "o-123", "--auth-code", "code", "--portal-url", ts.URL}

	if out, _ := run(t, "credentials", "--help"); !strings.Contains(out, "Usage") {
		t.Fatalf("help: got %q", out)
	}

	out, err := run(t, append([]string{"accounts"}, login...)...)
	if err != nil {
		t.Fatalf("accounts: got %s, wanted <nil>", err)
	}
	if !strings.Contains(out, "123456789012") || !strings.Contains(out, "Production") || !strings.Contains(out, "Admin") {
		t.Errorf("accounts: got %q", out)
	}

	out, err = run(t, append([]string{"credentials", "--account-id", "123456789012", "--role", "Admin"}, login...)...)
	if err != nil {
		t.Fatalf("credentials: got %s, wanted <nil>", err)
	}
	got := map[string]any{}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("credentials: stdout is not a credential_process payload: %s, %q", err, out)
	}
	if got["AccessKeyId"] != "ASIA1" || got["SessionToken"] != "session" {
		t.Errorf("credentials: got %q", out)
	}

	out, err = run(t, "export", "--account-id", "123456789012", "--role", "Admin", "--reload-before", "60")
	if err != nil {
		t.Fatalf("export: got %s, wanted <nil>", err)
	}
	if !strings.Contains(out, `"SessionToken":"session"`) {
		t.Errorf("export: got %q", out)
	}

	if _, err := run(t, "clear-cache", "--account-id", "123456789012", "--role", "Other"); err != nil {
		t.Fatalf("clear-cache of another role: got %s, wanted <nil>", err)
	}
	if _, err := run(t, "export", "--account-id", "123456789012", "--role", "Admin"); err != nil {
		t.Fatalf("export after clearing another role: got %s, wanted <nil>", err)
	}

	if _, err := run(t, "clear-cache"); err != nil {
		t.Fatalf("clear-cache: got %s, wanted <nil>", err)
	}
	if _, err := run(t, "export", "--account-id", "123456789012", "--role", "Admin"); err == nil {
		t.Error("export after clear-cache: got <nil>, wanted an error")
	}
}

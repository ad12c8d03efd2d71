package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/oneway/internal/config"
	"github.com/felixgeelhaar/oneway/internal/credential"
	"github.com/felixgeelhaar/oneway/internal/errors"
	"github.com/felixgeelhaar/oneway/internal/exitcode"
	"github.com/felixgeelhaar/oneway/internal/flow"
	"github.com/felixgeelhaar/oneway/internal/model"
	"github.com/felixgeelhaar/oneway/internal/testserver"
	"github.com/felixgeelhaar/oneway/internal/tui"
	"github.com/felixgeelhaar/oneway/internal/version"
)

type fakePrompter struct {
	login    tui.Credentials
	signup   flow.SignupForm
	password string
	confirm  string
	member   model.MemberInput
	calls    []string
}

func (p *fakePrompter) Login(c *tui.Credentials) error {
	p.calls = append(p.calls, "login")
	*c = p.login
	return nil
}

func (p *fakePrompter) Signup(f *flow.SignupForm) error {
	p.calls = append(p.calls, "signup")
	*f = p.signup
	return nil
}

func (p *fakePrompter) SetPassword(password, confirm *string) error {
	p.calls = append(p.calls, "password")
	*password, *confirm = p.password, p.confirm
	return nil
}

func (p *fakePrompter) AddMember(m *model.MemberInput) error {
	p.calls = append(p.calls, "member")
	*m = p.member
	return nil
}

type cli struct {
	srv         *testserver.Server
	configPath  string
	store       *credential.FileStore
	prompter    *fakePrompter
	interactive bool
}

func newCLI(t *testing.T) *cli {
	t.Helper()

	srv := testserver.New(t)
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Endpoints.GraphQL = srv.GraphQLURL()
	cfg.Endpoints.API = srv.APIURL()
	cfg.HTTP.Timeout = 5 * time.Second
	cfg.Store.Path = filepath.Join(dir, "credentials.json")
	cfg.Logging.Level = "error"

	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, config.Save(cfg, configPath))

	return &cli{
		srv:        srv,
		configPath: configPath,
		store:      credential.NewFileStore(cfg.Store.Path),
		prompter:   &fakePrompter{},
	}
}

func (c *cli) run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	root := NewRootCommand(Options{
		Out:         &out,
		ErrOut:      &errOut,
		Getenv:      func(string) string { return "" },
		Prompter:    c.prompter,
		Interactive: func() bool { return c.interactive },
	})
	root.SetArgs(append([]string{"--config", c.configPath, "--no-color"}, args...))
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func (c *cli) token(t *testing.T) (string, bool) {
	t.Helper()
	token, ok, err := c.store.Get(context.Background())
	require.NoError(t, err)
	return token, ok
}

func (c *cli) signIn(t *testing.T) string {
	t.Helper()
	userID := c.srv.AddUser("Ada", "Lovelace", "ada@example.com", "secret")
	require.NoError(t, c.store.Set(context.Background(), c.srv.IssueToken(userID)))
	return userID
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, errors.CodeOf(err), "error: %v", err)
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand(Options{})

	want := []string{"login", "signup", "logout", "status", "welcome", "invitation", "members", "doctor", "config", "version"}
	var got []string
	for _, c := range root.Commands() {
		got = append(got, c.Name())
	}
	for _, name := range want {
		assert.Contains(t, got, name)
	}

	for _, flag := range []string{"config", "format", "log-level", "log-format", "no-color"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "missing --%s", flag)
	}
}

func TestLogin(t *testing.T) {
	c := newCLI(t)
	c.srv.AddUser("Ada", "Lovelace", "ada@example.com", "secret")

	stdout, stderr, err := c.run(t, "login", "--email", "ada@example.com", "--password", "secret")
	require.NoError(t, err)

	token, ok := c.token(t)
	require.True(t, ok)
	assert.True(t, c.srv.Valid(token))
	assert.Contains(t, stderr, "Signed in as ada@example.com")
	assert.Contains(t, stdout, "Welcome, ada@example.com!")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	c := newCLI(t)
	c.srv.AddUser("Ada", "Lovelace", "ada@example.com", "secret")

	_, _, err := c.run(t, "login", "--email", "ada@example.com", "--password", "wrong")

	requireCode(t, err, errors.ErrCodeInvalidCredentials)
	assert.Contains(t, err.Error(), flow.MsgInvalidCredentials)
	assert.Equal(t, exitcode.AuthError, exitcode.DetermineExitCode(err))
	_, ok := c.token(t)
	assert.False(t, ok)
}

func TestLogin_AlreadySignedIn(t *testing.T) {
	c := newCLI(t)
	c.signIn(t)

	stdout, _, err := c.run(t, "login", "--email", "ada@example.com", "--password", "secret")
	require.NoError(t, err)

	assert.Zero(t, c.srv.Count("login"))
	assert.Contains(t, stdout, "Welcome, ada@example.com!")
}

func TestLogin_Prompts(t *testing.T) {
	c := newCLI(t)
	c.srv.AddUser("Ada", "Lovelace", "ada@example.com", "secret")
	c.interactive = true
	c.prompter.login = tui.Credentials{Email: "ada@example.com", Password: "secret"}

	_, _, err := c.run(t, "login", "--format", "json")
	require.NoError(t, err)

	assert.Equal(t, []string{"login"}, c.prompter.calls)
	_, ok := c.token(t)
	assert.True(t, ok)
}

func TestSignup(t *testing.T) {
	t.Run("script mode confirms the password", func(t *testing.T) {
		c := newCLI(t)

		stdout, _, err := c.run(t, "signup",
			"--first-name", "Ada", "--last-name", "Lovelace",
			"--email", "ada@example.com", "--password", "secret")
		require.NoError(t, err)

		_, ok := c.token(t)
		assert.True(t, ok)
		assert.Contains(t, stdout, "Welcome, ada@example.com!")
	})

	t.Run("mismatched passwords never reach the backend", func(t *testing.T) {
		c := newCLI(t)

		_, _, err := c.run(t, "signup",
			"--first-name", "Ada", "--last-name", "Lovelace",
			"--email", "ada@example.com", "--password", "secret", "--confirm-password", "other")

		requireCode(t, err, errors.ErrCodePasswordMismatch)
		assert.Contains(t, err.Error(), "Passwords do not match")
		assert.Zero(t, c.srv.Count("signup"))
		assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(err))
	})

	t.Run("duplicate email", func(t *testing.T) {
		c := newCLI(t)
		c.srv.AddUser("Ada", "Lovelace", "ada@example.com", "secret")

		_, _, err := c.run(t, "signup",
			"--first-name", "Ada", "--last-name", "Lovelace",
			"--email", "ada@example.com", "--password", "secret")

		requireCode(t, err, errors.ErrCodeGraphQLOperation)
		assert.Contains(t, err.Error(), flow.MsgSignupFailed+": Email has already been taken")
		_, ok := c.token(t)
		assert.False(t, ok)
	})

	t.Run("interactive asks for confirmation", func(t *testing.T) {
		c := newCLI(t)
		c.interactive = true
		c.prompter.signup = flow.SignupForm{
			FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
			Password: "secret", ConfirmPassword: "secret",
		}

		_, _, err := c.run(t, "signup", "--format", "json",
			"--first-name", "Ada", "--last-name", "Lovelace",
			"--email", "ada@example.com", "--password", "secret")
		require.NoError(t, err)

		assert.Equal(t, []string{"signup"}, c.prompter.calls)
	})
}

func TestWelcome(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		c := newCLI(t)

		_, _, err := c.run(t, "welcome")

		requireCode(t, err, errors.ErrCodeNotAuthenticated)
		assert.Empty(t, c.srv.Requests())
		assert.Equal(t, exitcode.AuthError, exitcode.DetermineExitCode(err))
	})

	t.Run("rejected session is cleared", func(t *testing.T) {
		c := newCLI(t)
		c.signIn(t)
		token, _ := c.token(t)
		c.srv.Revoke(token)

		_, _, err := c.run(t, "welcome")

		requireCode(t, err, errors.ErrCodeSessionExpired)
		_, ok := c.token(t)
		assert.False(t, ok)
	})

	t.Run("json dashboard", func(t *testing.T) {
		c := newCLI(t)
		userID := c.signIn(t)
		c.srv.Invite(userID, "Alan", "Turing", "alan@example.com", model.RoleMember)

		stdout, stderr, err := c.run(t, "welcome", "--format", "json")
		require.NoError(t, err)
		assert.Empty(t, stderr)

		var view dashboardView
		require.NoError(t, json.Unmarshal([]byte(stdout), &view))
		assert.Equal(t, "Welcome, ada@example.com!", view.Message)
		assert.Equal(t, model.ID(userID), view.UserID)
		require.Len(t, view.Members, 1)
		assert.Equal(t, "alan@example.com", view.Members[0].Email)
		assert.Equal(t, model.StatusPending, view.Members[0].Status())
	})

	t.Run("rotated token is stored", func(t *testing.T) {
		c := newCLI(t)
		c.signIn(t)
		before, _ := c.token(t)
		c.srv.RotateOnWelcome = true

		_, _, err := c.run(t, "welcome")
		require.NoError(t, err)

		after, ok := c.token(t)
		require.True(t, ok)
		assert.NotEqual(t, before, after)
		assert.True(t, c.srv.Valid(after))
	})
}

func TestMembers(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		c := newCLI(t)
		userID := c.signIn(t)
		c.srv.Invite(userID, "Alan", "Turing", "alan@example.com", model.RoleAdmin)

		stdout, _, err := c.run(t, "members", "list")
		require.NoError(t, err)

		assert.Contains(t, stdout, "alan@example.com")
		assert.Contains(t, stdout, "Pending")
	})

	t.Run("add", func(t *testing.T) {
		c := newCLI(t)
		c.signIn(t)

		stdout, stderr, err := c.run(t, "members", "add",
			"--first-name", "Alan", "--last-name", "Turing", "--email", "alan@example.com")
		require.NoError(t, err)

		assert.Equal(t, 1, c.srv.Count("createmember"))
		assert.Contains(t, stderr, flow.MsgMemberAdded)
		assert.Contains(t, stdout, "alan@example.com")
		assert.Contains(t, stdout, model.RoleMember)
	})

	t.Run("add prompts for missing fields", func(t *testing.T) {
		c := newCLI(t)
		c.signIn(t)
		c.interactive = true
		c.prompter.member = model.MemberInput{
			FirstName: "Alan", LastName: "Turing", Email: "alan@example.com", Role: model.RoleAdmin,
		}

		_, _, err := c.run(t, "members", "add", "--format", "yaml")
		require.NoError(t, err)

		assert.Equal(t, []string{"member"}, c.prompter.calls)
		req, ok := c.srv.Last("createmember")
		require.True(t, ok)
		assert.Equal(t, model.RoleAdmin, req.Variables["role"])
	})

	t.Run("add without fields", func(t *testing.T) {
		c := newCLI(t)
		c.signIn(t)

		_, _, err := c.run(t, "members", "add", "--email", "alan@example.com")

		requireCode(t, err, errors.ErrCodeFieldRequired)
		assert.Zero(t, c.srv.Count("createmember"))
	})

	t.Run("add with unknown role", func(t *testing.T) {
		c := newCLI(t)
		c.signIn(t)

		_, _, err := c.run(t, "members", "add",
			"--first-name", "Alan", "--last-name", "Turing", "--email", "alan@example.com", "--role", "owner")

		requireCode(t, err, errors.ErrCodeInvalidRole)
		assert.Zero(t, c.srv.Count("createmember"))
	})

	t.Run("rejected add ends the session", func(t *testing.T) {
		c := newCLI(t)
		c.signIn(t)
		c.srv.FailNext("createmember", "Unauthorized")

		_, _, err := c.run(t, "members", "add",
			"--first-name", "Alan", "--last-name", "Turing", "--email", "alan@example.com")

		requireCode(t, err, errors.ErrCodeSessionExpired)
		assert.Contains(t, err.Error(), flow.MsgSignInAgain)
		_, ok := c.token(t)
		assert.False(t, ok)
	})
}

func TestInvitationAccept(t *testing.T) {
	t.Run("sets the password and signs in", func(t *testing.T) {
		c := newCLI(t)
		managerID := c.srv.AddUser("Ada", "Lovelace", "ada@example.com", "secret")
		_, invitation := c.srv.Invite(managerID, "Alan", "Turing", "alan@example.com", model.RoleMember)

		stdout, stderr, err := c.run(t, "invitation", "accept", invitation, "--password", "enigma")
		require.NoError(t, err)

		assert.Contains(t, stderr, "Set up your account, alan@example.com")
		assert.Contains(t, stdout, "Welcome, alan@example.com!")
		token, ok := c.token(t)
		require.True(t, ok)
		assert.True(t, c.srv.Valid(token))
	})

	t.Run("invalid invitation points to signup", func(t *testing.T) {
		c := newCLI(t)

		_, _, err := c.run(t, "invitation", "accept", "inv-bogus", "--password", "enigma")

		requireCode(t, err, errors.ErrCodeInvitationInvalid)
		assert.Contains(t, err.Error(), "oneway signup")
		assert.Zero(t, c.srv.Count("updatepassword"))
		_, ok := c.token(t)
		assert.False(t, ok)
	})

	t.Run("mismatch", func(t *testing.T) {
		c := newCLI(t)
		managerID := c.srv.AddUser("Ada", "Lovelace", "ada@example.com", "secret")
		_, invitation := c.srv.Invite(managerID, "Alan", "Turing", "alan@example.com", model.RoleMember)

		_, _, err := c.run(t, "invitation", "accept", invitation,
			"--password", "enigma", "--confirm-password", "bombe")

		requireCode(t, err, errors.ErrCodePasswordMismatch)
		assert.Zero(t, c.srv.Count("updatepassword"))
	})

	t.Run("prompts for the password", func(t *testing.T) {
		c := newCLI(t)
		managerID := c.srv.AddUser("Ada", "Lovelace", "ada@example.com", "secret")
		_, invitation := c.srv.Invite(managerID, "Alan", "Turing", "alan@example.com", model.RoleMember)
		c.interactive = true
		c.prompter.password, c.prompter.confirm = "enigma", "enigma"

		_, _, err := c.run(t, "invitation", "accept", invitation, "--format", "json")
		require.NoError(t, err)

		assert.Equal(t, []string{"password"}, c.prompter.calls)
		_, ok := c.token(t)
		assert.True(t, ok)
	})

	t.Run("requires a token argument", func(t *testing.T) {
		c := newCLI(t)

		_, _, err := c.run(t, "invitation", "accept")

		require.Error(t, err)
		assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(err))
	})
}

func TestLogout(t *testing.T) {
	c := newCLI(t)
	c.signIn(t)

	stdout, _, err := c.run(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Signed out.")
	_, ok := c.token(t)
	assert.False(t, ok)
	assert.Empty(t, c.srv.Requests())

	stdout, _, err = c.run(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Not signed in.")
}

func TestStatus(t *testing.T) {
	c := newCLI(t)

	stdout, _, err := c.run(t, "status", "--format", "json")
	require.NoError(t, err)

	var view statusView
	require.NoError(t, json.Unmarshal([]byte(stdout), &view))
	assert.False(t, view.Authenticated)
	assert.Nil(t, view.Token)
	assert.Equal(t, c.srv.GraphQLURL(), view.GraphQL)
	assert.Contains(t, view.Store, "credentials.json")

	c.signIn(t)
	stdout, _, err = c.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Signed in:")
	assert.Contains(t, stdout, "yes")
	assert.Contains(t, stdout, "opaque")

	token, _ := c.token(t)
	assert.NotContains(t, stdout, token)
	assert.Empty(t, c.srv.Requests())
}

func TestConfigCommands(t *testing.T) {
	c := newCLI(t)

	stdout, _, err := c.run(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, c.configPath, strings.TrimSpace(stdout))

	_, _, err = c.run(t, "config", "set", "http.timeout", "10s")
	require.NoError(t, err)

	stdout, _, err = c.run(t, "config", "get", "http.timeout")
	require.NoError(t, err)
	assert.Equal(t, "10s", strings.TrimSpace(stdout))

	stdout, _, err = c.run(t, "config", "view", "--format", "json")
	require.NoError(t, err)
	var view map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &view))
	assert.Equal(t, c.srv.GraphQLURL(), view["endpoints.graphql"])
	assert.Equal(t, "10s", view["http.timeout"])

	_, _, err = c.run(t, "config", "set", "store.backend", "floppy")
	requireCode(t, err, errors.ErrCodeConfigInvalid)
	assert.Equal(t, exitcode.ConfigError, exitcode.DetermineExitCode(err))

	stdout, _, err = c.run(t, "config", "get", "store.backend")
	require.NoError(t, err)
	assert.Equal(t, credential.BackendFile, strings.TrimSpace(stdout), "rejected value must not be saved")

	for key, value := range map[string]string{
		"telemetry.sample_rate": "NaN",
		"logging.level":         "verbose",
		"logging.format":        "logfmt",
	} {
		_, _, err = c.run(t, "config", "set", key, value)
		requireCode(t, err, errors.ErrCodeConfigInvalid)
	}
}

func TestInvalidFormat(t *testing.T) {
	c := newCLI(t)

	_, _, err := c.run(t, "status", "--format", "xml")

	requireCode(t, err, errors.ErrCodeConfigInvalid)
}

func TestVersion(t *testing.T) {
	c := newCLI(t)
	info := version.GetInfo()

	stdout, _, err := c.run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "oneway "+info.Short()+"\n", stdout)

	stdout, _, err = c.run(t, "version", "-v")
	require.NoError(t, err)
	assert.Equal(t, info.String()+"\n", stdout)

	decoders := map[string]func([]byte, any) error{
		"json": json.Unmarshal,
		"yaml": yaml.Unmarshal,
	}
	for format, decode := range decoders {
		t.Run(format, func(t *testing.T) {
			stdout, _, err := c.run(t, "version", "--format", format)
			require.NoError(t, err)

			var got map[string]string
			require.NoError(t, decode([]byte(stdout), &got))
			assert.Equal(t, map[string]string{
				"version":    info.Version,
				"commit":     info.Commit,
				"date":       info.Date,
				"go_version": info.GoVersion,
				"platform":   info.Platform,
			}, got)
		})
	}
}

func TestDoctor(t *testing.T) {
	c := newCLI(t)

	stdout, _, err := c.run(t, "doctor")
	require.NoError(t, err)
	assert.Contains(t, stdout, "graphql-endpoint")
	assert.Contains(t, stdout, "api-endpoint")
	assert.Contains(t, stdout, "credential-store")
	assert.Contains(t, stdout, "Overall: healthy")

	c.srv.Close()
	stdout, _, err = c.run(t, "doctor", "--format", "json")
	requireCode(t, err, errors.ErrCodeNetworkUnavailable)
	assert.Equal(t, exitcode.NetworkError, exitcode.DetermineExitCode(err))

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, "unhealthy", report["status"])
}

func TestMetricsTextfile(t *testing.T) {
	c := newCLI(t)
	c.srv.AddUser("Ada", "Lovelace", "ada@example.com", "secret")
	path := filepath.Join(t.TempDir(), "metrics", "oneway.prom")

	_, _, err := c.run(t, "config", "set", "metrics.textfile", path)
	require.NoError(t, err)

	_, _, err = c.run(t, "login", "--email", "ada@example.com", "--password", "wrong")
	requireCode(t, err, errors.ErrCodeInvalidCredentials)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `oneway_command_executions_total{command="oneway login",success="false"} 1`)
	assert.Contains(t, text, `oneway_requests_total{operation="login",success="false",transport="graphql"} 1`)
	assert.Contains(t, text, `oneway_errors_total{error_code="AUTH-001"} 1`)
}

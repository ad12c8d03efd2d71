package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/oneway/internal/flow"
	"github.com/felixgeelhaar/oneway/internal/model"
)

// Credentials is the login form.
type Credentials struct {
	Email    string
	Password string
}

// Prompter collects form input from the user. Fields already set by flags
// are used as defaults.
type Prompter interface {
	Login(c *Credentials) error
	Signup(f *flow.SignupForm) error
	SetPassword(password, confirm *string) error
	AddMember(m *model.MemberInput) error
}

// HuhPrompter renders forms with huh.
type HuhPrompter struct {
	Accessible bool
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func (p HuhPrompter) run(groups ...*huh.Group) error {
	form := huh.NewForm(groups...).WithAccessible(p.Accessible)
	if err := form.Run(); err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

func (p HuhPrompter) Login(c *Credentials) error {
	return p.run(huh.NewGroup(
		huh.NewInput().Title("Email").Value(&c.Email).Validate(required("email")),
		huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&c.Password),
	).Title("Login"))
}

func (p HuhPrompter) Signup(f *flow.SignupForm) error {
	return p.run(huh.NewGroup(
		huh.NewInput().Title("First Name").Value(&f.FirstName).Validate(required("first name")),
		huh.NewInput().Title("Last Name").Value(&f.LastName).Validate(required("last name")),
		huh.NewInput().Title("Email").Value(&f.Email).Validate(required("email")),
		huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&f.Password).Validate(required("password")),
		huh.NewInput().Title("Confirm Password").EchoMode(huh.EchoModePassword).Value(&f.ConfirmPassword),
	).Title("Sign Up"))
}

func (p HuhPrompter) SetPassword(password, confirm *string) error {
	return p.run(huh.NewGroup(
		huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(password),
		huh.NewInput().Title("Confirm Password").EchoMode(huh.EchoModePassword).Value(confirm),
	).Title("Setup Your Account"))
}

func (p HuhPrompter) AddMember(m *model.MemberInput) error {
	if m.Role == "" {
		m.Role = model.RoleMember
	}
	return p.run(huh.NewGroup(
		huh.NewInput().Title("First Name").Value(&m.FirstName),
		huh.NewInput().Title("Last Name").Value(&m.LastName),
		huh.NewInput().Title("Email").Value(&m.Email),
		huh.NewSelect[string]().
			Title("Role").
			Options(huh.NewOptions(model.Roles...)...).
			Value(&m.Role),
	).Title("Add Member"))
}

var _ Prompter = HuhPrompter{}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// NoPromptEnv disables prompts when set to any non-empty value.
const NoPromptEnv = "ONEWAY_NO_PROMPT"

var ciEnvVars = []string{
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"JENKINS_URL",
	"TRAVIS",
	"CIRCLECI",
	"BUILDKITE",
}

// ShouldPrompt reports whether forms may be shown: never in CI or with
// ONEWAY_NO_PROMPT set, otherwise only when stdin is a terminal.
func ShouldPrompt() bool {
	return promptAllowed(os.Getenv) && IsInteractive()
}

func promptAllowed(getenv func(string) string) bool {
	if getenv(NoPromptEnv) != "" {
		return false
	}
	for _, name := range ciEnvVars {
		if getenv(name) != "" {
			return false
		}
	}
	return true
}

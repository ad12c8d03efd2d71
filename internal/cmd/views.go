package cmd

import (
	"io"

	"github.com/felixgeelhaar/oneway/internal/credential"
	"github.com/felixgeelhaar/oneway/internal/model"
	"github.com/felixgeelhaar/oneway/internal/tui"
)

type dashboardView struct {
	Message string         `json:"message" yaml:"message"`
	UserID  model.ID       `json:"user_id" yaml:"user_id"`
	Members []model.Member `json:"members" yaml:"members"`
}

func (v dashboardView) RenderText(w io.Writer, color bool) error {
	_, err := io.WriteString(w, tui.Dashboard(v.Message, v.Members, color))
	return err
}

type membersView []model.Member

func (v membersView) RenderText(w io.Writer, color bool) error {
	if len(v) == 0 {
		_, err := io.WriteString(w, "No members yet.\n")
		return err
	}
	_, err := io.WriteString(w, tui.MembersTable(v, color)+"\n")
	return err
}

type statusView struct {
	Authenticated bool                  `json:"authenticated" yaml:"authenticated"`
	Store         string                `json:"store" yaml:"store"`
	GraphQL       string                `json:"graphql" yaml:"graphql"`
	API           string                `json:"api" yaml:"api"`
	Token         *credential.TokenInfo `json:"token,omitempty" yaml:"token,omitempty"`
}

func (v statusView) RenderText(w io.Writer, color bool) error {
	signedIn := "no"
	if v.Authenticated {
		signedIn = "yes"
	}
	pairs := [][2]string{
		{"Signed in", signedIn},
		{"Store", v.Store},
		{"GraphQL", v.GraphQL},
		{"API", v.API},
	}
	if v.Token != nil {
		pairs = append(pairs, [2]string{"Token", v.Token.Format})
		if v.Token.Subject != "" {
			pairs = append(pairs, [2]string{"Subject", v.Token.Subject})
		}
		if v.Token.ExpiresAt != nil {
			pairs = append(pairs, [2]string{"Expires", v.Token.ExpiresAt.Local().Format("2006-01-02 15:04:05 MST")})
		}
	}
	_, err := io.WriteString(w, tui.KeyValues(pairs, color))
	return err
}

// resultView is the structured form of a command that only reports an
// outcome.
type resultView struct {
	Status  string `json:"status" yaml:"status"`
	Message string `json:"message" yaml:"message"`
}

func (v resultView) RenderText(w io.Writer, color bool) error {
	_, err := io.WriteString(w, tui.Notice(v.Status, v.Message, color)+"\n")
	return err
}

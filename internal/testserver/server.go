// Package testserver runs an in-process stand-in for the team backend: one
// GraphQL endpoint and the two REST probes. It exists for tests only.
package testserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Request is what the server saw for one incoming call.
type Request struct {
	Path          string
	Operation     string
	Authorization string
	RequestID     string
	UserAgent     string
	Variables     map[string]any
}

type user struct {
	id          int
	firstName   string
	lastName    string
	email       string
	password    string
	role        string
	managerID   int
	passwordSet bool
}

// Server is a fake backend. Configure behaviour through the exported fields
// before issuing requests.
type Server struct {
	*httptest.Server

	// RotateOnWelcome makes GET /welcome issue a fresh token in the
	// Authorization response header and revoke the old one.
	RotateOnWelcome bool

	// OmitUpdatePasswordToken makes updatepassword succeed without a token.
	OmitUpdatePasswordToken bool

	// GraphQLStatus, when non-zero, replaces every GraphQL response with an
	// empty body of that status.
	GraphQLStatus int

	mu          sync.Mutex
	nextID      int
	users       map[int]*user
	sessions    map[string]int
	invitations map[string]int
	failNext    map[string]string
	requests    []Request
}

// New starts a server and registers its shutdown with t.
func New(t testing.TB) *Server {
	s := &Server{
		users:       map[int]*user{},
		sessions:    map[string]int{},
		invitations: map[string]int{},
		failNext:    map[string]string{},
	}

	r := mux.NewRouter()
	r.HandleFunc("/graphql", s.handleGraphQL).Methods(http.MethodPost)
	r.HandleFunc("/welcome", s.handleWelcome).Methods(http.MethodGet)
	r.HandleFunc("/invitation", s.handleInvitation).Methods(http.MethodGet)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// GraphQLURL returns the GraphQL endpoint.
func (s *Server) GraphQLURL() string { return s.URL + "/graphql" }

// APIURL returns the REST base URL.
func (s *Server) APIURL() string { return s.URL }

// AddUser registers an account with a password and returns its id.
func (s *Server) AddUser(firstName, lastName, email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.addUserLocked(firstName, lastName, email, "admin", 0)
	u.password = password
	u.passwordSet = true
	return strconv.Itoa(u.id)
}

// IssueToken creates a valid session token for the user id.
func (s *Server) IssueToken(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := strconv.Atoi(userID)
	return s.issueLocked(id)
}

// Invite creates a member of managerID who has not set a password and returns
// the invitation token.
func (s *Server) Invite(managerID, firstName, lastName, email, role string) (memberID, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mid, _ := strconv.Atoi(managerID)
	u := s.addUserLocked(firstName, lastName, email, role, mid)
	token = "inv-" + uuid.NewString()
	s.invitations[token] = u.id
	return strconv.Itoa(u.id), token
}

// Revoke invalidates a session token.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// Valid reports whether token is a live session token.
func (s *Server) Valid(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[token]
	return ok
}

// FailNext makes the next call of operation return a GraphQL error.
func (s *Server) FailNext(operation, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[operation] = message
}

// Requests returns every request seen so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many times operation (or REST path) was called.
func (s *Server) Count(operation string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Operation == operation {
			n++
		}
	}
	return n
}

// Last returns the most recent request for operation.
func (s *Server) Last(operation string) (Request, bool) {
	reqs := s.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Operation == operation {
			return reqs[i], true
		}
	}
	return Request{}, false
}

func (s *Server) addUserLocked(firstName, lastName, email, role string, managerID int) *user {
	s.nextID++
	u := &user{
		id:        s.nextID,
		firstName: firstName,
		lastName:  lastName,
		email:     email,
		role:      role,
		managerID: managerID,
	}
	s.users[u.id] = u
	return u
}

func (s *Server) issueLocked(userID int) string {
	token := "tok-" + uuid.NewString()
	s.sessions[token] = userID
	return token
}

func (s *Server) record(r *http.Request, operation string, vars map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, Request{
		Path:          r.URL.Path,
		Operation:     operation,
		Authorization: r.Header.Get("Authorization"),
		RequestID:     r.Header.Get("X-Request-ID"),
		UserAgent:     r.UserAgent(),
		Variables:     vars,
	})
}

func bearer(r *http.Request) string {
	v := r.Header.Get("Authorization")
	if !strings.HasPrefix(v, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(v, "Bearer ")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	s.record(r, "welcome", nil)

	s.mu.Lock()
	defer s.mu.Unlock()

	token := bearer(r)
	id, ok := s.sessions[token]
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	if s.RotateOnWelcome {
		delete(s.sessions, token)
		w.Header().Set("Authorization", "Bearer "+s.issueLocked(id))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":         fmt.Sprintf("Welcome, %s!", s.users[id].email),
		"current_user_id": id,
	})
}

func (s *Server) handleInvitation(w http.ResponseWriter, r *http.Request) {
	s.record(r, "invitation", nil)

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.invitations[bearer(r)]
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid invitation"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":         fmt.Sprintf("Set up your account, %s", s.users[id].email),
		"current_user_id": id,
	})
}

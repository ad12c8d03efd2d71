package testserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

type graphqlRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
}

// operationName returns the name declared after the mutation/query keyword.
func operationName(req graphqlRequest) string {
	if req.OperationName != "" {
		return req.OperationName
	}
	fields := strings.Fields(req.Query)
	for i := 0; i+1 < len(fields); i++ {
		if fields[i] == "mutation" || fields[i] == "query" {
			name := fields[i+1]
			if j := strings.IndexAny(name, "({"); j >= 0 {
				name = name[:j]
			}
			return name
		}
	}
	return ""
}

func str(vars map[string]any, key string) string {
	v, _ := vars[key].(string)
	return v
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	var req graphqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	op := operationName(req)
	s.record(r, op, req.Variables)

	if s.GraphQLStatus != 0 {
		w.WriteHeader(s.GraphQLStatus)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if msg, ok := s.failNext[op]; ok {
		delete(s.failNext, op)
		s.fail(w, msg)
		return
	}

	switch op {
	case "login":
		s.login(w, req.Variables)
	case "signup":
		s.signup(w, req.Variables)
	case "updatepassword":
		s.updatePassword(w, req.Variables)
	case "createmember":
		s.createMember(w, r, req.Variables)
	case "getmembers":
		s.getMembers(w, r, req.Variables)
	default:
		s.fail(w, "unknown operation "+op)
	}
}

func (s *Server) fail(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]any{
		"data":   nil,
		"errors": []graphqlError{{Message: message}},
	})
}

func (s *Server) data(w http.ResponseWriter, field string, payload any) {
	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{field: payload},
	})
}

func userJSON(u *user) map[string]any {
	return map[string]any{"id": strconv.Itoa(u.id), "email": u.email}
}

func memberJSON(u *user) map[string]any {
	return map[string]any{
		"id":          strconv.Itoa(u.id),
		"firstName":   u.firstName,
		"lastName":    u.lastName,
		"email":       u.email,
		"role":        u.role,
		"passwordSet": u.passwordSet,
	}
}

func (s *Server) findByEmail(email string) *user {
	for _, u := range s.users {
		if u.email == email {
			return u
		}
	}
	return nil
}

func (s *Server) authorized(r *http.Request) (*user, bool) {
	id, ok := s.sessions[bearer(r)]
	if !ok {
		return nil, false
	}
	return s.users[id], true
}

func (s *Server) login(w http.ResponseWriter, vars map[string]any) {
	u := s.findByEmail(str(vars, "email"))
	if u == nil || !u.passwordSet || u.password != str(vars, "password") {
		s.fail(w, "Invalid email or password")
		return
	}
	s.data(w, "login", map[string]any{"user": userJSON(u), "token": s.issueLocked(u.id)})
}

func (s *Server) signup(w http.ResponseWriter, vars map[string]any) {
	email := str(vars, "email")
	if email == "" || str(vars, "password") == "" {
		s.fail(w, "Email and password are required")
		return
	}
	if s.findByEmail(email) != nil {
		s.fail(w, "Email has already been taken")
		return
	}

	u := s.addUserLocked(str(vars, "firstName"), str(vars, "lastName"), email, "admin", 0)
	u.password = str(vars, "password")
	u.passwordSet = true
	s.data(w, "signup", map[string]any{"user": userJSON(u), "token": s.issueLocked(u.id)})
}

func (s *Server) updatePassword(w http.ResponseWriter, vars map[string]any) {
	id, _ := strconv.Atoi(str(vars, "id"))
	u, ok := s.users[id]
	if !ok {
		s.fail(w, "User not found")
		return
	}

	u.password = str(vars, "password")
	u.passwordSet = true

	token := ""
	if !s.OmitUpdatePasswordToken {
		token = s.issueLocked(u.id)
	}
	s.data(w, "updatepassword", map[string]any{
		"user":   userJSON(u),
		"errors": []string{},
		"token":  token,
	})
}

func (s *Server) createMember(w http.ResponseWriter, r *http.Request, vars map[string]any) {
	if _, ok := s.authorized(r); !ok {
		s.fail(w, "Unauthorized")
		return
	}
	if s.findByEmail(str(vars, "email")) != nil {
		s.fail(w, "Email has already been taken")
		return
	}

	managerID, _ := strconv.Atoi(str(vars, "managerId"))
	u := s.addUserLocked(str(vars, "firstName"), str(vars, "lastName"), str(vars, "email"), str(vars, "role"), managerID)

	m := memberJSON(u)
	delete(m, "passwordSet")
	s.data(w, "createmember", map[string]any{"employee": m, "errors": []string{}})
}

func (s *Server) getMembers(w http.ResponseWriter, r *http.Request, vars map[string]any) {
	if _, ok := s.authorized(r); !ok {
		s.fail(w, "Unauthorized")
		return
	}

	managerID, _ := strconv.Atoi(str(vars, "id"))
	members := []map[string]any{}
	for id := 1; id <= s.nextID; id++ {
		if u, ok := s.users[id]; ok && u.managerID == managerID && managerID != 0 {
			members = append(members, memberJSON(u))
		}
	}
	s.data(w, "getmembers", members)
}

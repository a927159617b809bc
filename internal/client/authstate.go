package client

import "sync"

// ActionType identifies an auth state transition
type ActionType string

// SetCurrentUserType is the only action the reducer acts on
const SetCurrentUserType ActionType = "SET_CURRENT_USER"

// User is the profile decoded from the bearer token
type User struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// State is the client's current authenticated identity.
// States are never mutated in place; Reduce returns a new one.
type State struct {
	User            User   `json:"user"`
	Token           string `json:"token"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

// InitialState is the logged-out state
func InitialState() *State {
	return &State{}
}

// Action is a state transition request
type Action interface {
	Type() ActionType
}

// CurrentUser is the payload of SetCurrentUser
type CurrentUser struct {
	User  User
	Token string
}

// IsEmpty reports whether the payload carries no identity at all
func (c CurrentUser) IsEmpty() bool {
	return c.User == (User{}) && c.Token == ""
}

// SetCurrentUser replaces the current identity
type SetCurrentUser struct {
	Payload CurrentUser
}

// Type implements Action
func (SetCurrentUser) Type() ActionType {
	return SetCurrentUserType
}

// Reduce applies action to state.
// Unrecognised actions return state itself, not a copy.
func Reduce(state *State, action Action) *State {
	switch a := action.(type) {
	case SetCurrentUser:
		return &State{
			IsAuthenticated: !a.Payload.IsEmpty(),
			User:            a.Payload.User,
			Token:           a.Payload.Token,
		}
	case *SetCurrentUser:
		if a == nil {
			return state
		}
		return Reduce(state, *a)
	default:
		return state
	}
}

// Session holds the current State for concurrent readers and dispatchers
type Session struct {
	state *State
	mu    sync.RWMutex
}

// NewSession creates a logged-out session
func NewSession() *Session {
	return &Session{state: InitialState()}
}

// State returns the current state; callers must not mutate it
func (s *Session) State() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch applies action and returns the resulting state
func (s *Session) Dispatch(action Action) *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, action)
	return s.state
}

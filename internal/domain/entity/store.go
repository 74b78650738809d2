package entity

// SessionStore is the single persisted record for one privacy-context
// namespace. Sessions are ordered newest-first.
type SessionStore struct {
	Sessions         []*Session `json:"sessions"`
	CurrentSessionID SessionID  `json:"currentSessionId"`
}

// NewSessionStore creates an empty, valid store record.
func NewSessionStore() *SessionStore {
	return &SessionStore{Sessions: []*Session{}}
}

// Find returns the session with the given ID, or nil.
func (st *SessionStore) Find(id SessionID) *Session {
	for _, s := range st.Sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Current resolves CurrentSessionID to a session. A dangling pointer
// resolves to nil; callers treat that as "no active session".
func (st *SessionStore) Current() *Session {
	if st.CurrentSessionID == "" {
		return nil
	}
	return st.Find(st.CurrentSessionID)
}

// Prepend inserts a session newest-first and truncates to maxSessions,
// discarding the oldest. maxSessions <= 0 means unbounded.
func (st *SessionStore) Prepend(s *Session, maxSessions int) {
	st.Sessions = append([]*Session{s}, st.Sessions...)
	if maxSessions > 0 && len(st.Sessions) > maxSessions {
		st.Sessions = st.Sessions[:maxSessions]
	}
}

// Remove deletes the session with the given ID. The current pointer is
// cleared when it referenced the removed session.
func (st *SessionStore) Remove(id SessionID) bool {
	for i, s := range st.Sessions {
		if s.ID == id {
			st.Sessions = append(st.Sessions[:i], st.Sessions[i+1:]...)
			if st.CurrentSessionID == id {
				st.CurrentSessionID = ""
			}
			return true
		}
	}
	return false
}

// Normalize repairs recoverable inconsistencies after loading: nil
// slices become empty and a dangling current pointer is cleared.
func (st *SessionStore) Normalize() {
	if st.Sessions == nil {
		st.Sessions = []*Session{}
	}
	for _, s := range st.Sessions {
		if s.Tabs == nil {
			s.Tabs = []*TabEntry{}
		}
		if s.ClosedTabs == nil {
			s.ClosedTabs = []*TabEntry{}
		}
	}
	if st.CurrentSessionID != "" && st.Find(st.CurrentSessionID) == nil {
		st.CurrentSessionID = ""
	}
}

// Clone returns a deep copy of the whole record.
func (st *SessionStore) Clone() *SessionStore {
	if st == nil {
		return nil
	}
	clone := &SessionStore{
		Sessions:         make([]*Session, len(st.Sessions)),
		CurrentSessionID: st.CurrentSessionID,
	}
	for i, s := range st.Sessions {
		clone.Sessions[i] = s.Clone()
	}
	return clone
}

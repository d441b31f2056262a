package models

import "strings"

// User is a customer account. Authentication lives outside this module;
// only the banned flag is consulted here.
type User struct {
	ID            int64    `json:"id"`
	Username      string   `json:"username"`
	FullName      string   `json:"full_name"`
	Phone         string   `json:"phone,omitempty"`
	LoyaltyPoints int      `json:"loyalty_points"`
	Addresses     []string `json:"addresses"`
	IsBanned      bool     `json:"is_banned"`
}

func (u *User) CanAuthenticate() bool {
	return !u.IsBanned
}

// HasAddress compares addresses ignoring surrounding space and case.
func (u *User) HasAddress(address string) bool {
	key := addressKey(address)
	for _, a := range u.Addresses {
		if addressKey(a) == key {
			return true
		}
	}
	return false
}

func addressKey(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// Session carries the caller identity into every core call. UserID is nil
// for guests.
type Session struct {
	ID     string
	UserID *int64
}

func (s Session) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return ErrMissingSession
	}
	return nil
}

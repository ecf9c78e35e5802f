// Package domain contains core concepts of the chat system.
// This file defines identities and user profiles.
// No runtime, network, or UI logic should be added here.
package domain

// Identity is the opaque verified identity issued by the external
// identity provider for a connection or request. Immutable once created,
// referenced by value everywhere in this core.
type Identity struct {
	UID      string `json:"u_id"`
	Username string `json:"username"`
}

// IsAnonymous reports whether the request carried no valid token.
func (i Identity) IsAnonymous() bool {
	return i.UID == ""
}

// Profile is the stored user record behind an identity.
type Profile struct {
	UID      string `json:"u_id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	About    string `json:"about,omitempty"`
	Photo    string `json:"photo,omitempty"`
}

// Public strips the fields never exposed to other users.
func (p Profile) Public() Profile {
	p.Email = ""
	return p
}

// Identity returns the identity referenced by this profile.
func (p Profile) Identity() Identity {
	return Identity{UID: p.UID, Username: p.Username}
}

package git

import (
	"time"

	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	// DefaultIdentityName is the author and committer name of every commit crypta creates
	DefaultIdentityName = "crypta"
	// DefaultIdentityEmail is the author and committer email of every commit crypta creates
	DefaultIdentityEmail = "crypta@local"
	// DefaultCommitMessage is used when the caller supplies no commit message
	DefaultCommitMessage = "Sync secrets"
)

// Identity is the signature stamped on synthetic commits
type Identity struct {
	Name  string
	Email string
}

// DefaultIdentity returns the crypta identity
func DefaultIdentity() Identity {
	return Identity{Name: DefaultIdentityName, Email: DefaultIdentityEmail}
}

// Signature returns the go-git signature of the identity at the given time
func (id Identity) Signature(when time.Time) *object.Signature {
	return &object.Signature{
		Name:  id.Name,
		Email: id.Email,
		When:  when,
	}
}

// Matches reports whether sig carries this identity
func (id Identity) Matches(sig object.Signature) bool {
	return sig.Name == id.Name && sig.Email == id.Email
}

func messageOrDefault(message string) string {
	if message == "" {
		return DefaultCommitMessage
	}
	return message
}

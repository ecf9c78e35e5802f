package auth

import (
	"chatify/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_Issue_And_Verify_Roundtrip(t *testing.T) {
	req := require.New(t)
	verifier := NewVerifier("super-secret")
	identity := domain.Identity{UID: "u-1", Username: "alice"}

	token, err := verifier.Issue(identity, time.Hour)
	req.NoError(err)

	resolved, err := verifier.Verify(token)
	req.NoError(err)
	req.Equal(identity, resolved)
}

func Test_Verify_Rejects_Wrong_Secret(t *testing.T) {
	req := require.New(t)
	issuer := NewVerifier("secret-a")
	verifier := NewVerifier("secret-b")

	token, err := issuer.Issue(domain.Identity{UID: "u-1", Username: "alice"}, time.Hour)
	req.NoError(err)

	_, err = verifier.Verify(token)
	req.Error(err)
}

func Test_Verify_Rejects_Expired_Token(t *testing.T) {
	req := require.New(t)
	verifier := NewVerifier("super-secret")

	token, err := verifier.Issue(domain.Identity{UID: "u-1", Username: "alice"}, -time.Minute)
	req.NoError(err)

	_, err = verifier.Verify(token)
	req.Error(err)
}

func Test_Verify_Rejects_Garbage(t *testing.T) {
	req := require.New(t)
	verifier := NewVerifier("super-secret")

	_, err := verifier.Verify("not.a.token")
	req.Error(err)
}

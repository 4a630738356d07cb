package protect

import (
	"testing"

	"github.com/illarion/credseal/internal/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"
)

func newTestProtector(t *testing.T) *KeyringProtector {
	t.Helper()
	gokeyring.MockInit()

	p, err := NewKeyringProtector(keyring.New("credseal-test"), WithLogin("alice"))
	require.NoError(t, err)
	return p
}

func TestProtectUnprotectRoundTrip(t *testing.T) {
	p := newTestProtector(t)

	for _, scope := range []Scope{ScopeMachine, ScopeUser} {
		t.Run(scope.String(), func(t *testing.T) {
			blob, err := p.Protect([]byte("db-password"), scope)
			require.NoError(t, err)
			assert.Equal(t, byte(scope), blob[3])

			data, err := p.Unprotect(blob, scope)
			require.NoError(t, err)
			assert.Equal(t, "db-password", string(data))
		})
	}
}

func TestProtectEmptyData(t *testing.T) {
	p := newTestProtector(t)

	blob, err := p.Protect(nil, ScopeMachine)
	require.NoError(t, err)

	data, err := p.Unprotect(blob, ScopeMachine)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestProtectIsRandomized(t *testing.T) {
	p := newTestProtector(t)

	a, err := p.Protect([]byte("same"), ScopeMachine)
	require.NoError(t, err)
	b, err := p.Protect([]byte("same"), ScopeMachine)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestUnprotectScopeMismatch(t *testing.T) {
	p := newTestProtector(t)

	blob, err := p.Protect([]byte("secret"), ScopeMachine)
	require.NoError(t, err)

	_, err = p.Unprotect(blob, ScopeUser)
	assert.ErrorIs(t, err, ErrScopeMismatch)
}

func TestUnprotectRelabelledScope(t *testing.T) {
	p := newTestProtector(t)

	// Both scopes need a master key for the relabelled blob to reach decryption
	_, err := p.Protect([]byte("x"), ScopeUser)
	require.NoError(t, err)

	blob, err := p.Protect([]byte("secret"), ScopeMachine)
	require.NoError(t, err)
	blob[3] = byte(ScopeUser)

	_, err = p.Unprotect(blob, ScopeUser)
	assert.Error(t, err)
}

func TestUnprotectMalformed(t *testing.T) {
	p := newTestProtector(t)

	_, err := p.Unprotect([]byte("short"), ScopeMachine)
	assert.ErrorIs(t, err, ErrMalformedBlob)

	blob, err := p.Protect([]byte("secret"), ScopeMachine)
	require.NoError(t, err)
	blob[0] = 'X'
	_, err = p.Unprotect(blob, ScopeMachine)
	assert.ErrorIs(t, err, ErrMalformedBlob)
}

func TestUnprotectTampered(t *testing.T) {
	p := newTestProtector(t)

	blob, err := p.Protect([]byte("secret"), ScopeMachine)
	require.NoError(t, err)
	blob[len(blob)-1] ^= 0x01

	_, err = p.Unprotect(blob, ScopeMachine)
	assert.Error(t, err)
}

func TestUnprotectWithoutMasterKey(t *testing.T) {
	p := newTestProtector(t)

	blob, err := p.Protect([]byte("secret"), ScopeUser)
	require.NoError(t, err)
	require.True(t, p.HasKey(ScopeUser))

	require.NoError(t, p.DeleteKey(ScopeUser))
	assert.False(t, p.HasKey(ScopeUser))

	_, err = p.Unprotect(blob, ScopeUser)
	assert.ErrorIs(t, err, ErrNoMasterKey)
}

func TestUserScopeIsPerLogin(t *testing.T) {
	alice := newTestProtector(t)
	bob, err := NewKeyringProtector(keyring.New("credseal-test"), WithLogin("bob"))
	require.NoError(t, err)

	blob, err := alice.Protect([]byte("alice only"), ScopeUser)
	require.NoError(t, err)

	_, err = bob.Unprotect(blob, ScopeUser)
	assert.ErrorIs(t, err, ErrNoMasterKey)

	account, err := bob.Account(ScopeUser)
	require.NoError(t, err)
	assert.Equal(t, "CurrentUser:bob", account)
}

func TestParseScope(t *testing.T) {
	s, err := ParseScope("machine")
	require.NoError(t, err)
	assert.Equal(t, ScopeMachine, s)

	s, err = ParseScope("user")
	require.NoError(t, err)
	assert.Equal(t, ScopeUser, s)

	_, err = ParseScope("LocalMachine")
	assert.ErrorIs(t, err, ErrUnknownScope)

	_, err = newTestProtector(t).Protect([]byte("x"), Scope(9))
	assert.ErrorIs(t, err, ErrUnknownScope)
}

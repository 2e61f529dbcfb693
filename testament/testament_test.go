package testament

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heirloom-app/heirloom/crypto"
	"github.com/heirloom-app/heirloom/shamir"
	"github.com/heirloom-app/heirloom/storage"
	"github.com/heirloom-app/heirloom/storage/memory"
	"github.com/heirloom-app/heirloom/vault"
)

func setupTestVault(t *testing.T) (*memory.Store, *vault.Session) {
	t.Helper()
	params, err := crypto.Argon2idProfile(crypto.KDFProfileInteractive)
	require.NoError(t, err)

	repo := memory.NewRepository()
	session, err := vault.Setup(repo, "correct horse battery staple",
		vault.WithKDFParams(params))
	require.NoError(t, err)
	t.Cleanup(session.Close)
	return repo, session
}

func TestHeirLifecycle(t *testing.T) {
	repo, _ := setupTestVault(t)
	svc := NewService(repo)

	alice, err := svc.AddHeir("Alice", "alice@example.com", RoleExecutor)
	require.NoError(t, err)
	bob, err := svc.AddHeir("Bob", "bob@example.com", RoleHeir)
	require.NoError(t, err)

	got, err := svc.GetHeir(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, RoleExecutor, got.Role)
	assert.Zero(t, got.ShareIndex)

	heirs, err := svc.ListHeirs()
	require.NoError(t, err)
	require.Len(t, heirs, 2)
	assert.Equal(t, alice.ID, heirs[0].ID, "heirs list in creation order")
	assert.Equal(t, bob.ID, heirs[1].ID)

	require.NoError(t, svc.RemoveHeir(bob.ID))
	heirs, err = svc.ListHeirs()
	require.NoError(t, err)
	assert.Len(t, heirs, 1)
}

func TestAddHeir_Validation(t *testing.T) {
	repo, _ := setupTestVault(t)
	svc := NewService(repo)

	_, err := svc.AddHeir("", "a@example.com", RoleHeir)
	assert.Error(t, err)

	_, err = svc.AddHeir("Alice", "a@example.com", Role("witness"))
	assert.Error(t, err)
}

func TestGenerateShares_AssignsIndexesToHeirs(t *testing.T) {
	repo, session := setupTestVault(t)
	svc := NewService(repo)

	alice, err := svc.AddHeir("Alice", "alice@example.com", RoleHeir)
	require.NoError(t, err)
	bob, err := svc.AddHeir("Bob", "bob@example.com", RoleHeir)
	require.NoError(t, err)

	generated, err := svc.GenerateShares(session, 2, 3)
	require.NoError(t, err)
	require.Len(t, generated, 3)

	assert.Equal(t, alice.ID, generated[0].HeirID)
	assert.Equal(t, bob.ID, generated[1].HeirID)
	assert.Empty(t, generated[2].HeirID, "surplus share stays unassigned")

	for _, g := range generated {
		assert.True(t, strings.HasPrefix(g.Share, "S1-"), "share %q not in display format", g.Share)
	}

	got, err := svc.GetHeir(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ShareIndex)

	// The shares themselves are display-once: nothing but heir metadata
	// may reach storage.
	data, err := repo.Get(storage.RecordTypeHeir, alice.ID)
	require.NoError(t, err)
	hexValue := generated[0].Share[strings.LastIndex(generated[0].Share, "-")+1:]
	assert.NotContains(t, string(data), hexValue)
}

func TestGenerateShares_RequiresUnlockedSession(t *testing.T) {
	repo, session := setupTestVault(t)
	svc := NewService(repo)
	session.Lock()

	_, err := svc.GenerateShares(session, 2, 3)
	assert.ErrorIs(t, err, vault.ErrVaultLocked)
}

func TestRecoverFromShares(t *testing.T) {
	repo, session := setupTestVault(t)
	svc := NewService(repo)

	generated, err := svc.GenerateShares(session, 2, 3)
	require.NoError(t, err)

	cfg, err := vault.LoadConfig(repo)
	require.NoError(t, err)

	// Any threshold-sized subset recovers the root secret.
	secret, err := RecoverFromShares([]string{generated[0].Share, generated[2].Share}, cfg)
	require.NoError(t, err)
	assert.Len(t, secret, crypto.MasterKeySize)

	// The recovered secret re-derives the full hierarchy: its verifier
	// matches the one persisted at setup.
	kh, err := crypto.ExpandKeys(secret)
	require.NoError(t, err)
	defer kh.Wipe()
	assert.Equal(t, cfg.Verifier, crypto.AuthVerifier(kh.AuthKey[:]))
}

func TestRecoverFromShares_BelowThreshold(t *testing.T) {
	repo, session := setupTestVault(t)
	svc := NewService(repo)

	generated, err := svc.GenerateShares(session, 2, 3)
	require.NoError(t, err)
	cfg, err := vault.LoadConfig(repo)
	require.NoError(t, err)

	_, err = RecoverFromShares([]string{generated[0].Share}, cfg)
	assert.ErrorIs(t, err, shamir.ErrInsufficientShares)
}

func TestRecoverFromShares_ForgedSharesFailVerification(t *testing.T) {
	repo, session := setupTestVault(t)
	svc := NewService(repo)

	_, err := svc.GenerateShares(session, 2, 3)
	require.NoError(t, err)
	cfg, err := vault.LoadConfig(repo)
	require.NoError(t, err)

	// Internally consistent shares from a different split reconstruct a
	// secret, just not this vault's secret.
	forged, err := shamir.Split(make([]byte, crypto.MasterKeySize), 2, 3)
	require.NoError(t, err)
	_, err = RecoverFromShares([]string{
		shamir.FormatShare(forged[0]),
		shamir.FormatShare(forged[1]),
	}, cfg)
	assert.ErrorIs(t, err, ErrRecoveryFailed)
}

func TestRecoverFromShares_MalformedShare(t *testing.T) {
	repo, session := setupTestVault(t)
	svc := NewService(repo)

	generated, err := svc.GenerateShares(session, 2, 3)
	require.NoError(t, err)
	cfg, err := vault.LoadConfig(repo)
	require.NoError(t, err)

	_, err = RecoverFromShares([]string{generated[0].Share, "not-a-share"}, cfg)
	assert.Error(t, err)
}

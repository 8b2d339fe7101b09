package keys

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viniciusmaculo/filaTransplantesBackend/common/kvstore"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/logger"
)

func newTestManager(t *testing.T, dir string) (*Manager, *kvstore.Store) {
	t.Helper()
	log := logger.New("error", "text")
	store, err := kvstore.Open(dir, log)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewManager(store, log), store
}

func TestEnsureKeyPair_Idempotent(t *testing.T) {
	m, _ := newTestManager(t, t.TempDir())

	first, err := m.EnsureKeyPair("MG")
	require.NoError(t, err)
	require.NotEmpty(t, first.PublicKey)
	require.NotEmpty(t, first.PrivateKey)

	second, err := m.EnsureKeyPair("MG")
	require.NoError(t, err)
	assert.Equal(t, first.PublicKey, second.PublicKey)
	assert.Equal(t, first.PrivateKey, second.PrivateKey)
}

func TestEnsureKeyPair_DistinctPerJurisdiction(t *testing.T) {
	m, _ := newTestManager(t, t.TempDir())

	mg, err := m.EnsureKeyPair("MG")
	require.NoError(t, err)
	rj, err := m.EnsureKeyPair("RJ")
	require.NoError(t, err)

	assert.NotEqual(t, mg.PublicKey, rj.PublicKey)
}

func TestEnsureKeyPair_ConcurrentCallsAgree(t *testing.T) {
	m, _ := newTestManager(t, t.TempDir())

	const n = 16
	results := make([]KeyPair, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			kp, err := m.EnsureKeyPair("SP")
			assert.NoError(t, err)
			results[i] = kp
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Equal(t, results[0].PublicKey, results[i].PublicKey)
	}
}

func TestGetKeyPair_NoSideEffects(t *testing.T) {
	m, _ := newTestManager(t, t.TempDir())

	_, found, err := m.GetKeyPair("BA")
	require.NoError(t, err)
	assert.False(t, found)

	// Still absent after the lookup
	_, found, err = m.GetKeyPair("BA")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestKeyPair_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	log := logger.New("error", "text")

	store, err := kvstore.Open(dir, log)
	require.NoError(t, err)
	m := NewManager(store, log)
	original, err := m.EnsureKeyPair("MG")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := kvstore.Open(dir, log)
	require.NoError(t, err)
	defer reopened.Close()

	m2 := NewManager(reopened, log)
	loaded, found, err := m2.GetKeyPair("MG")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, original.PublicKey, loaded.PublicKey)
	assert.Equal(t, original.PrivateKey, loaded.PrivateKey)
}

func TestKeyPair_SignVerify(t *testing.T) {
	m, _ := newTestManager(t, t.TempDir())

	kp, err := m.EnsureKeyPair("MG")
	require.NoError(t, err)

	msg := []byte("version payload")
	sig := kp.Sign(msg)
	assert.True(t, kp.Verify(msg, sig))
	assert.False(t, kp.Verify([]byte("tampered"), sig))
}

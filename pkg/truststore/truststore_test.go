package truststore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WhileEndless/go-rawfetch/internal/testserver"
)

func TestNewFromPEM(t *testing.T) {
	cert := testserver.MustGenerateSelfSigned(t)

	store, err := New(cert.PEM)
	require.NoError(t, err)
	assert.NotNil(t, store.Pool())
	assert.Equal(t, cert.PEM, store.Bundle())
}

func TestNewRejectsGarbage(t *testing.T) {
	_, err := New([]byte("not a certificate"))
	assert.True(t, errors.Is(err, ErrNoCertificates))

	_, err = New(nil)
	assert.True(t, errors.Is(err, ErrNoCertificates))
}

func TestLoadPrefersPEMOverFile(t *testing.T) {
	pemCert := testserver.MustGenerateSelfSigned(t)
	fileCert := testserver.MustGenerateSelfSigned(t)

	path := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(path, fileCert.PEM, 0o600))

	store, err := Load(Options{PEM: pemCert.PEM, CAFile: path})
	require.NoError(t, err)
	assert.Equal(t, pemCert.PEM, store.Bundle())

	store, err = Load(Options{CAFile: path})
	require.NoError(t, err)
	assert.Equal(t, fileCert.PEM, store.Bundle())

	_, err = Load(Options{CAFile: filepath.Join(t.TempDir(), "missing.pem")})
	assert.Error(t, err)
}

func TestOverrideUntilFrozen(t *testing.T) {
	first := testserver.MustGenerateSelfSigned(t)
	second := testserver.MustGenerateSelfSigned(t)

	store, err := New(first.PEM)
	require.NoError(t, err)

	require.NoError(t, store.Override(second.PEM))
	assert.Equal(t, second.PEM, store.Bundle())

	store.Freeze()
	assert.True(t, store.Frozen())
	assert.Equal(t, ErrFrozen, store.Override(first.PEM))
	assert.Equal(t, second.PEM, store.Bundle())
}

func TestReadBundle(t *testing.T) {
	cert := testserver.MustGenerateSelfSigned(t)
	dir := t.TempDir()
	present := filepath.Join(dir, "bundle.pem")
	require.NoError(t, os.WriteFile(present, cert.PEM, 0o600))

	data, err := readBundle("", []string{filepath.Join(dir, "absent.pem"), present})
	require.NoError(t, err)
	assert.Equal(t, cert.PEM, data)

	data, err = readBundle(present, nil)
	require.NoError(t, err)
	assert.Equal(t, cert.PEM, data)

	_, err = readBundle("", []string{filepath.Join(dir, "absent.pem")})
	assert.Error(t, err)
}

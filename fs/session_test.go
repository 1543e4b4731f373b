package fs

import (
	"errors"
	iofs "io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionConnectsOnce(t *testing.T) {
	connects, disconnects := 0, 0
	s := newSession(func() (int, error) {
		connects++
		return 42, nil
	}, func(int) error {
		disconnects++
		return nil
	})
	assert.False(t, s.isConnected())
	for i := 0; i < 3; i++ {
		c, err := s.get()
		require.NoError(t, err)
		assert.Equal(t, 42, c)
	}
	assert.Equal(t, 1, connects)
	assert.True(t, s.isConnected())

	require.NoError(t, s.close())
	require.NoError(t, s.close())
	assert.Equal(t, 1, disconnects)

	_, err := s.get()
	assert.ErrorIs(t, err, iofs.ErrClosed)
	assert.Equal(t, 1, connects)
}

func TestSessionCloseWithoutConnect(t *testing.T) {
	s := newSession(func() (string, error) {
		t.Fatal("must not connect")
		return "", nil
	}, func(string) error {
		t.Fatal("must not disconnect")
		return nil
	})
	assert.NoError(t, s.close())
}

func TestSessionRetriesFailedConnect(t *testing.T) {
	attempts := 0
	s := newSession(func() (int, error) {
		attempts++
		if attempts == 1 {
			return 0, errors.New("refused")
		}
		return attempts, nil
	}, nil)
	_, err := s.get()
	assert.Error(t, err)
	assert.False(t, s.isConnected())
	c, err := s.get()
	require.NoError(t, err)
	assert.Equal(t, 2, c)
	assert.NoError(t, s.close())
}

package token

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueReturnsDistinctUUIDs(t *testing.T) {
	issuer := New()

	first, err := issuer.Issue()
	require.NoError(t, err)
	second, err := issuer.Issue()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	parsed, err := uuid.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
}

func TestIssuePropagatesEntropyFailure(t *testing.T) {
	issuer := &Issuer{newID: func() (uuid.UUID, error) {
		return uuid.Nil, errors.New("no entropy")
	}}

	_, err := issuer.Issue()
	assert.Error(t, err)
}

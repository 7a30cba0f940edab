package xclaim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEtcdClaimer_Invalid(t *testing.T) {
	_, err := NewEtcdClaimer(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilClient)

	//nolint:staticcheck // nil ctx 需被拒绝
	_, err = NewEtcdClaimer(nil, nil)
	assert.ErrorIs(t, err, ErrNilContext)
}

package querylang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperatorSplit(t *testing.T) {
	tests := []struct {
		op      Operator
		base    Operator
		negated bool
	}{
		{OpEq, OpEq, false},
		{OpNotEq, OpEq, true},
		{OpContains, OpContains, false},
		{OpNotContains, OpContains, true},
		{OpGteAlt, OpGte, false},
		{OpLteAlt, OpLte, false},
		{OpGt, OpGt, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			base, negated := tt.op.Split()
			assert.Equal(t, tt.base, base)
			assert.Equal(t, tt.negated, negated)
		})
	}
}

func TestOperatorValid(t *testing.T) {
	for _, op := range Operators {
		assert.True(t, op.Valid(), string(op))
	}
	assert.False(t, Operator("~").Valid())
	assert.False(t, Operator("").Valid())
}

func TestConnectivePrecedence(t *testing.T) {
	assert.Greater(t, And.Precedence(), Or.Precedence())
	assert.Equal(t, "and", And.String())
	assert.Equal(t, "or", Or.String())
}

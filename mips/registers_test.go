package mips

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegKinds(t *testing.T) {
	assert.True(t, F(0).IsFPR())
	assert.True(t, F(31).IsFPR())
	assert.False(t, F(31).IsVPR())
	assert.True(t, V(0).IsVPR())
	assert.True(t, V(127).IsVPR())
	assert.True(t, T(0).IsTemp())
	assert.True(t, T(15).IsTemp())
	assert.False(t, InvalidReg.Valid())
	assert.Equal(t, Reg(32), V(0))
	assert.Equal(t, Reg(160), T(0))
}

func TestRegString(t *testing.T) {
	assert.Equal(t, "f5", F(5).String())
	assert.Equal(t, "v12", V(12).String())
	assert.Equal(t, "t3", T(3).String())
	assert.Equal(t, "none", InvalidReg.String())
}

func TestParseReg(t *testing.T) {
	for _, s := range []string{"f0", "f31", "v0", "v127", "t0", "t15"} {
		r, err := ParseReg(s)
		assert.NoError(t, err, s)
		assert.Equal(t, s, r.String())
	}
	for _, s := range []string{"", "f", "f32", "v128", "t16", "x3", "f-1"} {
		_, err := ParseReg(s)
		assert.Error(t, err, s)
	}
}

func TestGetVectorRegs(t *testing.T) {
	assert.Equal(t, []int{8}, GetVectorRegs(8, Single))
	assert.Equal(t, []int{8, 9}, GetVectorRegs(8, Pair))
	assert.Equal(t, []int{8, 9, 10, 11}, GetVectorRegs(8, Quad))
}

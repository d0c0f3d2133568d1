package arm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegViews(t *testing.T) {
	assert.Equal(t, "s2", S2.String())
	assert.Equal(t, "d3", D3.String())
	assert.Equal(t, "q15", Q15.String())
	assert.Equal(t, "none", InvalidReg.String())

	assert.Equal(t, Q4, QuadAsQ(4))
	assert.Equal(t, D8, QuadAsD(4))
	assert.Equal(t, 4, QuadAsQ(4).QuadIndex())

	assert.True(t, S31.IsSingle())
	assert.False(t, D0.IsSingle())
	assert.True(t, Q0.IsQuad())
}

func TestOpRecorder(t *testing.T) {
	rec := NewOpRecorder()
	rec.VLDR(S2, 148)
	rec.VST1(QuadAsQ(4), 4, 256)
	rec.VMOV(S2, S3)
	rec.VLD1Lane(QuadAsQ(4), 2, 264)

	assert.Len(t, rec.Ops(), 4)
	assert.Equal(t, 2, rec.LoadCount())
	assert.Equal(t, 1, rec.StoreCount())
	assert.Equal(t, "vldr s2, [ctx+148]", rec.Ops()[0].String())
	assert.Equal(t, "vst1.4 q4, [ctx+256]", rec.Ops()[1].String())
	assert.Equal(t, "vmov s2, s3", rec.Ops()[2].String())
	assert.Equal(t, "vld1.lane q4[2], [ctx+264]", rec.Ops()[3].String())

	rec.Reset()
	assert.Empty(t, rec.Ops())
}

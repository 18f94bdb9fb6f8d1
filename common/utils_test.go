package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 4, Coalesce(0, 4, 8))
	assert.Equal(t, "out.hiz", Coalesce("", "out.hiz"))
	assert.Equal(t, 0, Coalesce(0, 0))
	assert.Equal(t, "", Coalesce[string]())
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, uint64(0), AlignUp(uint64(0), 16))
	assert.Equal(t, uint64(16), AlignUp(uint64(1), 16))
	assert.Equal(t, uint64(48), AlignUp(uint64(48), 16))
	assert.Equal(t, uint32(64), AlignUp(uint32(49), 16))
	assert.Equal(t, uint64(7), AlignUp(uint64(7), 0))
}

package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircularFloat(t *testing.T) {
	assert := assert.New(t)

	cf, err := NewCircularFloat(6)
	require.NoError(t, err)
	assert.Equal(6, cf.BufSize)
	assert.Equal(0, cf.Count)
	assert.Equal(0.0, cf.Mean())

	for i := 1; i <= 5; i++ {
		cf.Add(float64(i))
	}
	assert.Equal(5, cf.Count)
	assert.Nil(cf.FirstHalf())
	assert.Nil(cf.SecondHalf())
	assert.Equal([]float64{1, 2, 3, 4, 5}, cf.Values())
	assert.InDelta(3.0, cf.Mean(), 1e-12)

	cf.Add(6)
	assert.Equal(6, cf.Count)

	exp := 0.0
	for iter := cf.FirstHalf(); iter.Next(); {
		exp++
		assert.Equal(exp, iter.Value())
	}
	for iter := cf.SecondHalf(); iter.Next(); {
		exp++
		assert.Equal(exp, iter.Value())
	}

	// 1 2 3 4 5 6 add 8 add 8 => 8 8 3 4 5 6
	// So first=3,4,5 second=6,8,8
	cf.Add(8)
	cf.Add(8)
	assert.Equal(6, cf.Count)
	assert.Equal(int64(8), cf.TotalSeen)

	expVals := []float64{3, 4, 5, 6, 8, 8}
	idx := 0
	for iter := cf.FirstHalf(); iter.Next(); {
		assert.Equal(expVals[idx], iter.Value())
		idx++
	}
	for iter := cf.SecondHalf(); iter.Next(); {
		assert.Equal(expVals[idx], iter.Value())
		idx++
	}
	assert.Equal(expVals, cf.Values())
	assert.InDelta(34.0/6.0, cf.Mean(), 1e-12)
}

func TestCircularFloatSize(t *testing.T) {
	assert := assert.New(t)

	cf, err := NewCircularFloat(7)
	assert.NoError(err)
	assert.Equal(6, cf.BufSize)

	_, err = NewCircularFloat(1)
	assert.Error(err)
	_, err = NewCircularFloat(0)
	assert.Error(err)
}

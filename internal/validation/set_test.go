package validation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet_EmptyByDefault(t *testing.T) {
	s := NewSet()
	assert.False(t, s.Contains(1))
	assert.Equal(t, 0, s.Len())
}

func TestSet_ReplaceThenContains(t *testing.T) {
	s := NewSet()
	s.Replace([]int{1, 2, 3})

	assert.True(t, s.Contains(1))
	assert.True(t, s.Contains(3))
	assert.False(t, s.Contains(4))
	assert.Equal(t, 3, s.Len())
}

func TestSet_ReplaceIsAtomicSwap(t *testing.T) {
	s := NewSet()
	s.Replace([]int{1, 2})
	s.Replace([]int{3, 4})

	assert.False(t, s.Contains(1))
	assert.True(t, s.Contains(3))
}

func TestSet_ConcurrentReadsDuringReplace(t *testing.T) {
	s := NewSet()
	s.Replace([]int{1, 2, 3})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Contains(1)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Replace([]int{4, 5, 6})
	}()

	wg.Wait()
}

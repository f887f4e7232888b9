package clone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressWriter_ParsesReceivingAndResolving(t *testing.T) {
	var got []int
	w := newProgressWriter(func(p int) { got = append(got, p) })

	_, _ = w.Write([]byte("Receiving objects:  50% (5/10)\r"))
	_, _ = w.Write([]byte("Receiving objects: 100% (10/10), done.\n"))
	_, _ = w.Write([]byte("Resolving deltas:  50% (2/4)\r"))
	_, _ = w.Write([]byte("Resolving deltas: 100% (4/4), done.\n"))

	assert.Equal(t, []int{40, 80, 90, 100}, got)
}

func TestProgressWriter_NeverReportsBackward(t *testing.T) {
	var got []int
	w := newProgressWriter(func(p int) { got = append(got, p) })

	_, _ = w.Write([]byte("Receiving objects: 90% (9/10)\r"))
	_, _ = w.Write([]byte("Receiving objects: 10% (1/10)\r"))

	assert.Equal(t, []int{72}, got)
}

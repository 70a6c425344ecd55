package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToWindows1252(t *testing.T) {
	// Umlauts shrink to single bytes.
	assert.Equal(t, []byte{'K', 0xE4, 's', 'e'}, ToWindows1252([]byte("Käse")))
	assert.Equal(t, []byte("plain ascii"), ToWindows1252([]byte("plain ascii")))
	assert.Nil(t, ToWindows1252(nil))
}

func TestToUTF8(t *testing.T) {
	assert.Equal(t, "Käse", ToUTF8([]byte{'K', 0xE4, 's', 'e'}))
	// Already valid UTF-8 passes through untouched.
	assert.Equal(t, "Käse", ToUTF8([]byte("Käse")))
	assert.Equal(t, "", ToUTF8(nil))
}

func TestRoundTrip(t *testing.T) {
	in := "Zürich; Käse à 12.90"
	assert.Equal(t, in, ToUTF8(ToWindows1252([]byte(in))))
}

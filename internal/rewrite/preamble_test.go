package rewrite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreamble(t *testing.T) {
	require.Len(t, Preamble, 4)
	assert.Contains(t, Preamble[0], "print = writeln")
	assert.Contains(t, Preamble[1], "Mixed = Variant")
	assert.Contains(t, Preamble[2], "Alias")
	assert.Equal(t, "alias str = string;", Preamble[3])
}

func TestInjectPreamble(t *testing.T) {
	out, err := InjectPreamble("void main() {}")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.Equal(t, Preamble, lines[:4])
	assert.Equal(t, "", lines[4])
	assert.Equal(t, "void main() {}", lines[5])
}

func TestInjectPreamble_EmptyDocument(t *testing.T) {
	out, err := InjectPreamble("")
	require.NoError(t, err)
	assert.Equal(t, strings.Join(Preamble, "\n")+"\n\n", out)
}

package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-minigame-bot/internal/pkg/random"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.NotEmpty(t, c.Words)
	assert.NotEmpty(t, c.Subjects)
	assert.Contains(t, c.AttributeNames(), "type")

	for _, s := range c.Subjects {
		assert.NotEmpty(t, s.Attributes, "subject %s has no attributes", s.Name)
	}
}

func TestParseNormalizes(t *testing.T) {
	c, err := Parse([]byte(`
words: ["  Apple", "apple", "BERRY"]
subjects:
  - name: " Pikachu "
    aliases: ["Pika"]
    attributes:
      Type: Electric
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"apple", "berry"}, c.Words)
	require.Len(t, c.Subjects, 1)
	assert.Equal(t, "pikachu", c.Subjects[0].Name)
	assert.Equal(t, "electric", c.Subjects[0].Attributes["type"])
	assert.True(t, c.Subjects[0].Matches("PIKA"))
	assert.True(t, c.Subjects[0].Matches("pikachu"))
	assert.False(t, c.Subjects[0].Matches("raichu"))
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not yaml", "words: [unterminated"},
		{"word with digits", "words: [abc1]"},
		{"empty word", `words: [""]`},
		{"nameless subject", "subjects: [{attributes: {type: fire}}]"},
		{"attribute key with space", `subjects: [{name: eevee, attributes: {"base form": "yes"}}]`},
		{"empty attribute key", `subjects: [{name: eevee, attributes: {"": "yes"}}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestEmptyCatalog(t *testing.T) {
	c, err := Parse([]byte("{}"))
	require.NoError(t, err)

	r := random.New(1)
	_, err = c.RandomWord(r)
	assert.ErrorIs(t, err, ErrEmptyCatalog)
	_, err = c.RandomSubject(r)
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("words: [rocket]\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	w, err := c.RandomWord(random.New(7))
	require.NoError(t, err)
	assert.Equal(t, "rocket", w)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

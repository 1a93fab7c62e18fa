package session

import (
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToken(t *testing.T) {
	t.Parallel()
	t.Run("shape", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		token, err := NewToken()
		require.NoError(err)
		assert.Len(string(token), tokenEntropy*2)
		_, err = hex.DecodeString(string(token))
		assert.NoError(err)
	})
	t.Run("no-duplicates", func(t *testing.T) {
		require := require.New(t)
		seen := make(map[Token]struct{}, 10000)
		for i := 0; i < 10000; i++ {
			token, err := NewToken()
			require.NoError(err)
			_, dup := seen[token]
			require.Falsef(dup, "duplicate token after %d generations", i)
			seen[token] = struct{}{}
		}
	})
}

func TestToken_Redaction(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	token := Token("super-secret-value")
	assert.Equal(RedactedToken, token.String())
	assert.Equal(RedactedToken, fmt.Sprintf("%s", token))

	got, err := token.MarshalJSON()
	require.NoError(err)
	assert.Equal(fmt.Sprintf("%q", RedactedToken), string(got))
}

func TestHashToken(t *testing.T) {
	t.Parallel()
	t.Run("deterministic", func(t *testing.T) {
		assert := assert.New(t)
		token := Token("a8f5f167f44f4964e6c998dee827110c")
		assert.Equal(HashToken(token), HashToken(token))
		assert.Len(HashToken(token), 64)
	})
	t.Run("distinct-inputs-distinct-outputs", func(t *testing.T) {
		assert := assert.New(t)
		inputs := []Token{"", "a", "b", "ab", "ba", "token-1", "token-2"}
		for i, x := range inputs {
			for j, y := range inputs {
				if i == j {
					continue
				}
				assert.NotEqualf(HashToken(x), HashToken(y), "hash collision between %q and %q", x, y)
			}
		}
	})
	t.Run("never-the-input", func(t *testing.T) {
		assert := assert.New(t)
		token, err := NewToken()
		require.New(t).NoError(err)
		assert.NotEqual(string(token), HashToken(token))
	})
}

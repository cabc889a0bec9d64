package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{Key: "Plywood 1/4", ID: uuid.New()}
	token := c.Encode()
	require.NotEmpty(t, token)

	decoded, ok := DecodeCursor(token)
	require.True(t, ok)
	require.Equal(t, c, decoded)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, ok := DecodeCursor("")
	require.False(t, ok)

	_, ok = DecodeCursor("not base64!!!")
	require.False(t, ok)

	_, ok = DecodeCursor("aGVsbG8")
	require.False(t, ok)
}

func TestTimeKeyRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 9, 15, 4, 5, 123456789, time.UTC)
	parsed, err := ParseTimeKey(TimeKey(now))
	require.NoError(t, err)
	require.True(t, now.Equal(parsed))
}

func TestSeqCursor(t *testing.T) {
	id, ok := DecodeSeqCursor(EncodeSeqCursor(42))
	require.True(t, ok)
	require.Equal(t, int64(42), id)

	_, ok = DecodeSeqCursor("")
	require.False(t, ok)
	_, ok = DecodeSeqCursor("-5")
	require.False(t, ok)
	_, ok = DecodeSeqCursor("abc")
	require.False(t, ok)
}

func TestClampPageSize(t *testing.T) {
	require.Equal(t, DefaultPageSize, ClampPageSize(0))
	require.Equal(t, DefaultPageSize, ClampPageSize(-3))
	require.Equal(t, 50, ClampPageSize(50))
	require.Equal(t, MaxPageSize, ClampPageSize(5000))
}

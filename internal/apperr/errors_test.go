package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	base := errors.New("boom")

	cases := []struct {
		name string
		err  error
		is   func(error) bool
	}{
		{"fetch", &FetchError{URL: "https://x", Err: base}, IsFetch},
		{"conversion", &ConversionError{Codec: "mp3", Err: base}, IsConversion},
		{"provider", &ProviderError{Op: "completion", StatusCode: 429, Err: base}, IsProvider},
		{"store", Store("list posts", base), IsStore},
		{"validation", Invalid("uid", "is required"), IsValidation},
		{"not found", NotFound("comment c1"), IsNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("handler: %w", tc.err)
			assert.True(t, tc.is(wrapped))
			assert.False(t, tc.is(base))
		})
	}
}

func TestStoreNilPassesThrough(t *testing.T) {
	assert.NoError(t, Store("noop", nil))
	assert.ErrorIs(t, Store("delete comment", sql.ErrNoRows), sql.ErrNoRows)
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "fetch failed: https://x/a.mp3: status 404: not found",
		(&FetchError{URL: "https://x/a.mp3", StatusCode: 404, Err: errors.New("not found")}).Error())
	assert.Equal(t, "completion failed (status 400): prompt is required",
		(&ProviderError{Op: "completion", StatusCode: 400, Payload: "prompt is required"}).Error())
	assert.Contains(t, (&ConversionError{Src: "a.amr", Codec: "mp3", Diagnostics: "Invalid data", Err: errors.New("exit status 1")}).Error(),
		"Invalid data")
}

func TestIsClient(t *testing.T) {
	assert.True(t, IsClient(Invalid("text", "is required")))
	assert.True(t, IsClient(Store("delete comment", NotFound("comment c1"))))
	assert.True(t, IsClient(&ProviderError{Op: "completion", StatusCode: 400}))

	assert.False(t, IsClient(&ProviderError{Op: "completion", StatusCode: 429}))
	assert.False(t, IsClient(Store("list posts", errors.New("connection refused"))))
	assert.False(t, IsClient(&FetchError{URL: "https://x", StatusCode: 404, Err: errors.New("not found")}))
	assert.False(t, IsClient(nil))
}

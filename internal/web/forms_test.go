package web

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormStringDistinguishesAbsentFromEmpty(t *testing.T) {
	form := url.Values{"present": {""}}

	assert.Equal(t, "", formString(form, "present", "fallback"))
	assert.Equal(t, "fallback", formString(form, "absent", "fallback"))
}

func TestFormInt64FallsBackOnGarbage(t *testing.T) {
	form := url.Values{"n": {"12"}, "bad": {"twelve"}}

	assert.Equal(t, int64(12), formInt64(form, "n", 1))
	assert.Equal(t, int64(1), formInt64(form, "bad", 1))
	assert.Equal(t, int64(1), formInt64(form, "absent", 1))
}

func TestFormPtrHelpersSkipGarbageAndAbsentFields(t *testing.T) {
	form := url.Values{"n": {"12"}, "bad": {"twelve"}, "f": {"4.5"}, "s": {""}}

	n := formInt64Ptr(form, "n")
	require.NotNil(t, n)
	assert.Equal(t, int64(12), *n)
	assert.Nil(t, formInt64Ptr(form, "bad"))
	assert.Nil(t, formInt64Ptr(form, "absent"))

	f := formFloatPtr(form, "f")
	require.NotNil(t, f)
	assert.Equal(t, 4.5, *f)
	assert.Nil(t, formFloatPtr(form, "bad"))

	s := formStringPtr(form, "s")
	require.NotNil(t, s)
	assert.Equal(t, "", *s)
	assert.Nil(t, formStringPtr(form, "absent"))
}

func TestIntValueCoercions(t *testing.T) {
	assert.Equal(t, int64(7), intValue(int64(7)))
	assert.Equal(t, int64(7), intValue(int32(7)))
	assert.Equal(t, int64(7), intValue(7))
	assert.Equal(t, int64(7), intValue(7.0))
	assert.Equal(t, int64(7), intValue([]byte("7")))
	assert.Equal(t, int64(7), intValue("7"))
	assert.Equal(t, int64(0), intValue(nil))
	assert.Equal(t, int64(0), intValue("seven"))
}

package helper_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gridbase/gridbase_go_view_engine_service/pkg/helper"
)

func TestNormalizeValueEmptyStringIsNil(t *testing.T) {
	assert.Nil(t, helper.NormalizeValue(""))
	assert.Nil(t, helper.NormalizeValue(nil))
	assert.Equal(t, "a", helper.NormalizeValue("a"))
}

func TestNormalizeValueNumbers(t *testing.T) {
	assert.Equal(t, float64(3), helper.NormalizeValue(3))
	assert.Equal(t, float64(3), helper.NormalizeValue(int64(3)))
	assert.Equal(t, float64(3), helper.NormalizeValue(3.0))
}

func TestNormalizeValueRecursive(t *testing.T) {
	got := helper.NormalizeValue([]any{"", 1, []any{""}})
	assert.Equal(t, []any{nil, float64(1), []any{nil}}, got)

	got = helper.NormalizeValue(map[string]any{"a": "", "b": 2})
	assert.Equal(t, map[string]any{"a": nil, "b": float64(2)}, got)
}

func TestNormalizeValueIdempotent(t *testing.T) {
	values := []any{"", "x", 3, []any{"", 1}, map[string]any{"k": ""}}
	for _, v := range values {
		once := helper.NormalizeValue(v)
		assert.Equal(t, once, helper.NormalizeValue(once))
	}
}

func TestValuesEqual(t *testing.T) {
	assert.True(t, helper.ValuesEqual("", nil))
	assert.True(t, helper.ValuesEqual(3, 3.0))
	assert.True(t, helper.ValuesEqual([]string{"a"}, []any{"a"}))
	assert.False(t, helper.ValuesEqual("a", "b"))
	assert.False(t, helper.ValuesEqual(nil, "a"))
}

func TestDiffPatchSkipsUnchanged(t *testing.T) {
	snapshot := map[string]any{"name": "a", "score": float64(3), "note": nil}
	patch := map[string]any{"name": "a", "score": 3, "note": "", "extra": "x"}

	diff := helper.DiffPatch(patch, snapshot)

	assert.Equal(t, map[string]any{"extra": "x"}, diff)
}

func TestDiffPatchEmptyWhenIdentical(t *testing.T) {
	snapshot := map[string]any{"name": "a"}
	assert.Empty(t, helper.DiffPatch(map[string]any{"name": "a"}, snapshot))
}

func TestTruncateValue(t *testing.T) {
	assert.Equal(t, "short", helper.TruncateValue("short", 10))
	assert.Equal(t, "abcde...", helper.TruncateValue("abcdefgh", 5))
	assert.Equal(t, "", helper.TruncateValue(nil, 5))
}

func TestTruncateValueRendersNonScalarsAsJSON(t *testing.T) {
	assert.Equal(t, `["a","b"]`, helper.TruncateValue([]string{"a", "b"}, 50))
	assert.Equal(t, `["opt_1","opt_2"]`, helper.TruncateValue([]any{"opt_1", "opt_2"}, 50))
	assert.Equal(t, `{"url":"https://x/a.png"}`, helper.TruncateValue(map[string]any{"url": "https://x/a.png"}, 50))
	assert.Equal(t, `["opt...`, helper.TruncateValue([]any{"opt_1", "opt_2"}, 5))
}

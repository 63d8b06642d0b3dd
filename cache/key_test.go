package cache

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyDeterministicAcrossInsertionOrder(t *testing.T) {
	a := Params{"query": "cancer", "page": 1, "pageSize": 25}
	b := Params{"pageSize": 25, "page": 1, "query": "cancer"}

	ka, err := encodeKey(1, 1, "search", a, SearchPage)
	require.NoError(t, err)
	kb, err := encodeKey(1, 1, "search", b, SearchPage)
	require.NoError(t, err)
	assert.Equal(t, ka, kb)
}

func TestKeyDiffersOnAnyField(t *testing.T) {
	base, err := encodeKey(1, 1, "search", Params{"query": "cancer", "page": 1}, SearchPage)
	require.NoError(t, err)

	otherPage, err := encodeKey(1, 1, "search", Params{"query": "cancer", "page": 2}, SearchPage)
	require.NoError(t, err)
	assert.NotEqual(t, base, otherPage, "page identity is mandatory key material")

	otherOp, err := encodeKey(1, 1, "record", Params{"query": "cancer", "page": 1}, SearchPage)
	require.NoError(t, err)
	assert.NotEqual(t, base, otherOp)

	otherClass, err := encodeKey(1, 1, "search", Params{"query": "cancer", "page": 1}, RecordDetail)
	require.NoError(t, err)
	assert.NotEqual(t, base, otherClass)

	otherNamespace, err := encodeKey(2, 1, "search", Params{"query": "cancer", "page": 1}, SearchPage)
	require.NoError(t, err)
	assert.NotEqual(t, base, otherNamespace)

	otherSchema, err := encodeKey(1, 2, "search", Params{"query": "cancer", "page": 1}, SearchPage)
	require.NoError(t, err)
	assert.NotEqual(t, base, otherSchema)
}

func TestKeyFoldsIdentifiersNotFreeText(t *testing.T) {
	upper, err := encodeKey(1, 1, "record", Params{"id": Fold("PMC123")}, RecordDetail)
	require.NoError(t, err)
	lower, err := encodeKey(1, 1, "record", Params{"id": Fold("pmc123")}, RecordDetail)
	require.NoError(t, err)
	assert.Equal(t, upper, lower)

	// Free-text terms keep their case.
	mixed, err := encodeKey(1, 1, "search", Params{"query": "RNA Splicing"}, SearchPage)
	require.NoError(t, err)
	folded, err := encodeKey(1, 1, "search", Params{"query": "rna splicing"}, SearchPage)
	require.NoError(t, err)
	assert.NotEqual(t, mixed, folded)
}

func TestKeyNumericCanonicalization(t *testing.T) {
	a, err := encodeKey(1, 1, "search", Params{"score": 1.5}, SearchPage)
	require.NoError(t, err)
	b, err := encodeKey(1, 1, "search", Params{"score": 1.50}, SearchPage)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	intKey, err := encodeKey(1, 1, "search", Params{"page": int64(3)}, SearchPage)
	require.NoError(t, err)
	assert.Contains(t, intKey, "page=3")
}

func TestKeyEscapesSeparators(t *testing.T) {
	// A value containing the separator characters must not collide with a
	// differently-structured parameter set.
	a, err := encodeKey(1, 1, "search", Params{"q": "a=1,b"}, SearchPage)
	require.NoError(t, err)
	b, err := encodeKey(1, 1, "search", Params{"q": "a", "b": ""}, SearchPage)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	c, err := encodeKey(1, 1, "op:with:colons", Params{}, SearchPage)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(c, ":"), "escaped operation must not add segments: %s", c)
}

func TestKeyLongParamsDigested(t *testing.T) {
	long := Params{"query": strings.Repeat("neuroblastoma OR ", 40)}
	a, err := encodeKey(1, 1, "search", long, SearchPage)
	require.NoError(t, err)
	b, err := encodeKey(1, 1, "search", long, SearchPage)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Less(t, len(a), 256)
	// Readable prefix survives digesting.
	assert.True(t, strings.HasPrefix(a, "v1:search:search:#"), a)

	other := Params{"query": strings.Repeat("neuroblastoma OR ", 40) + "x"}
	ko, err := encodeKey(1, 1, "search", other, SearchPage)
	require.NoError(t, err)
	assert.NotEqual(t, a, ko)
}

func TestKeyEmptyParams(t *testing.T) {
	k, err := encodeKey(1, 1, "profiles", nil, RecordDetail)
	require.NoError(t, err)
	assert.Equal(t, "v1:profiles:record:-:s1", k)
}

func TestKeyInvalidMaterial(t *testing.T) {
	_, err := encodeKey(1, 1, "search", Params{"ids": []string{"a", "b"}}, SearchPage)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidKeyMaterial))

	_, err = encodeKey(1, 1, "search", Params{"cb": func() {}}, SearchPage)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidKeyMaterial))
}

func TestNamespacePrefixMatchesEncodedKeys(t *testing.T) {
	k, err := encodeKey(7, 1, "search", Params{"q": "x"}, SearchPage)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(k, namespacePrefix(7)))
	assert.False(t, strings.HasPrefix(k, namespacePrefix(77)))
}

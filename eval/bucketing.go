package eval

import (
	"crypto/sha1" //nolint:gosec // not used for cryptographic purposes, only for deterministic bucketing
	"encoding/hex"
	"strconv"

	"github.com/launchdarkly/go-sdk-common/v3/ldattr"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// longScale is the maximum value representable by the first 15 hex digits of a SHA1 hash,
// used to normalize the bucket value into [0, 1).
const longScale = float32(0xFFFFFFFFFFFFFFF)

// bucketContext computes a context's bucket value, in the range [0, 1), for a rollout or
// experiment. kind identifies which individual context to bucket by, attr names the attribute
// within that context, and seed, if non-nil, replaces the usual key+salt combination (used for
// experiments, so that reshuffling a flag's variations does not reshuffle who is in the
// experiment).
func bucketContext(
	context ldcontext.Context,
	kind ldcontext.Kind,
	key string,
	attr ldattr.Ref,
	salt string,
	seed ldvalue.OptionalInt,
) (float32, bool) {
	ic, ok := individualContext(context, kind)
	if !ok {
		return 0, false
	}

	var idHash string
	if attr.String() == ldattr.KeyAttr || !attr.IsDefined() {
		idHash = ic.Key()
	} else {
		value := ic.GetValueForRef(attr)
		var ok bool
		idHash, ok = bucketableStringValue(value)
		if !ok {
			return 0, true
		}
	}

	var hashInput string
	if seedVal, defined := seed.Get(); defined {
		hashInput = strconv.Itoa(seedVal) + "." + idHash
	} else {
		hashInput = key + "." + salt + "." + idHash
	}

	h := sha1.Sum([]byte(hashInput)) //nolint:gosec // see above
	hexDigits := hex.EncodeToString(h[:])[:15]
	intVal, err := strconv.ParseInt(hexDigits, 16, 64)
	if err != nil {
		return 0, true // COVERAGE: cannot happen, hex digits of a hash are always parseable
	}
	return float32(intVal) / longScale, true
}

// bucketableStringValue converts a context attribute value into the string used as the bucketing
// hash input. Strings pass through unchanged; integers are stringified; anything else is not
// bucketable.
func bucketableStringValue(value ldvalue.Value) (string, bool) {
	switch {
	case value.IsString():
		return value.StringValue(), true
	case value.IsInt():
		return strconv.Itoa(value.IntValue()), true
	default:
		return "", false
	}
}

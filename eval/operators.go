package eval

import (
	"regexp"
	"strings"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-semver"

	"github.com/fctrl/go-server-sdk/ldmodel"
)

// operatorFn tests a single context attribute value against a single clause value. A type
// mismatch or any other reason the test cannot be performed returns false, never an error.
type operatorFn func(contextValue, clauseValue ldvalue.Value) bool

//nolint:gochecknoglobals // read-only dispatch table built once at init
var operatorsByName = map[ldmodel.Operator]operatorFn{
	ldmodel.OperatorIn:                 operatorIn,
	ldmodel.OperatorStartsWith:         operatorStartsWith,
	ldmodel.OperatorEndsWith:           operatorEndsWith,
	ldmodel.OperatorContains:           operatorContains,
	ldmodel.OperatorMatches:            operatorMatches,
	ldmodel.OperatorLessThan:           operatorLessThan,
	ldmodel.OperatorLessThanOrEqual:    operatorLessThanOrEqual,
	ldmodel.OperatorGreaterThan:        operatorGreaterThan,
	ldmodel.OperatorGreaterThanOrEqual: operatorGreaterThanOrEqual,
	ldmodel.OperatorBefore:             operatorBefore,
	ldmodel.OperatorAfter:              operatorAfter,
	ldmodel.OperatorSemVerEqual:        operatorSemVerEqual,
	ldmodel.OperatorSemVerLessThan:     operatorSemVerLessThan,
	ldmodel.OperatorSemVerGreaterThan:  operatorSemVerGreaterThan,
}

// matchOperator looks up and applies the operator identified by op. OperatorSegmentMatch is
// handled separately by the evaluator since it needs access to the DataProvider; an unrecognized
// operator (including OperatorSegmentMatch if it reaches here) never matches.
func matchOperator(op ldmodel.Operator, contextValue, clauseValue ldvalue.Value) bool {
	fn, ok := operatorsByName[op]
	if !ok {
		return false
	}
	return fn(contextValue, clauseValue)
}

func operatorIn(contextValue, clauseValue ldvalue.Value) bool {
	return contextValue.Equal(clauseValue)
}

func operatorStartsWith(contextValue, clauseValue ldvalue.Value) bool {
	if !contextValue.IsString() || !clauseValue.IsString() {
		return false
	}
	return strings.HasPrefix(contextValue.StringValue(), clauseValue.StringValue())
}

func operatorEndsWith(contextValue, clauseValue ldvalue.Value) bool {
	if !contextValue.IsString() || !clauseValue.IsString() {
		return false
	}
	return strings.HasSuffix(contextValue.StringValue(), clauseValue.StringValue())
}

func operatorContains(contextValue, clauseValue ldvalue.Value) bool {
	if !contextValue.IsString() || !clauseValue.IsString() {
		return false
	}
	return strings.Contains(contextValue.StringValue(), clauseValue.StringValue())
}

func operatorMatches(contextValue, clauseValue ldvalue.Value) bool {
	if !contextValue.IsString() || !clauseValue.IsString() {
		return false
	}
	re, err := regexp.Compile(clauseValue.StringValue())
	if err != nil {
		return false
	}
	return re.MatchString(contextValue.StringValue())
}

func operatorLessThan(contextValue, clauseValue ldvalue.Value) bool {
	a, b, ok := bothNumbers(contextValue, clauseValue)
	return ok && a < b
}

func operatorLessThanOrEqual(contextValue, clauseValue ldvalue.Value) bool {
	a, b, ok := bothNumbers(contextValue, clauseValue)
	return ok && a <= b
}

func operatorGreaterThan(contextValue, clauseValue ldvalue.Value) bool {
	a, b, ok := bothNumbers(contextValue, clauseValue)
	return ok && a > b
}

func operatorGreaterThanOrEqual(contextValue, clauseValue ldvalue.Value) bool {
	a, b, ok := bothNumbers(contextValue, clauseValue)
	return ok && a >= b
}

func bothNumbers(a, b ldvalue.Value) (float64, float64, bool) {
	if !a.IsNumber() || !b.IsNumber() {
		return 0, 0, false
	}
	return a.Float64Value(), b.Float64Value(), true
}

func operatorBefore(contextValue, clauseValue ldvalue.Value) bool {
	a, b, ok := bothDateTimes(contextValue, clauseValue)
	return ok && a.Before(b)
}

func operatorAfter(contextValue, clauseValue ldvalue.Value) bool {
	a, b, ok := bothDateTimes(contextValue, clauseValue)
	return ok && a.After(b)
}

func bothDateTimes(a, b ldvalue.Value) (time.Time, time.Time, bool) {
	at, ok := parseDateTime(a)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	bt, ok := parseDateTime(b)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return at, bt, true
}

// parseDateTime accepts either an RFC3339 string or a number of milliseconds since the epoch.
func parseDateTime(value ldvalue.Value) (time.Time, bool) {
	switch {
	case value.IsNumber():
		ms := value.Float64Value()
		return time.UnixMilli(int64(ms)).UTC(), true
	case value.IsString():
		t, err := time.Parse(time.RFC3339Nano, value.StringValue())
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	default:
		return time.Time{}, false
	}
}

func operatorSemVerEqual(contextValue, clauseValue ldvalue.Value) bool {
	a, b, ok := bothSemVers(contextValue, clauseValue)
	return ok && a.ComparePrecedence(b) == 0
}

func operatorSemVerLessThan(contextValue, clauseValue ldvalue.Value) bool {
	a, b, ok := bothSemVers(contextValue, clauseValue)
	return ok && a.ComparePrecedence(b) < 0
}

func operatorSemVerGreaterThan(contextValue, clauseValue ldvalue.Value) bool {
	a, b, ok := bothSemVers(contextValue, clauseValue)
	return ok && a.ComparePrecedence(b) > 0
}

func bothSemVers(a, b ldvalue.Value) (semver.Version, semver.Version, bool) {
	av, ok := parseSemVer(a)
	if !ok {
		return semver.Version{}, semver.Version{}, false
	}
	bv, ok := parseSemVer(b)
	if !ok {
		return semver.Version{}, semver.Version{}, false
	}
	return av, bv, true
}

// parseSemVer parses a semver string, tolerating a missing minor and/or patch component by
// padding with ".0" (go-semver's AllowMissingMinorAndPatch mode already does this internally).
func parseSemVer(value ldvalue.Value) (semver.Version, bool) {
	if !value.IsString() {
		return semver.Version{}, false
	}
	v, err := semver.ParseAs(value.StringValue(), semver.ParseModeAllowMissingMinorAndPatch)
	if err != nil {
		return semver.Version{}, false
	}
	return v, true
}

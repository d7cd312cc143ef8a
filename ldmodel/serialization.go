package ldmodel

import (
	"encoding/json"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-sdk-common/v3/ldattr"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// JSONDataModelSerialization implements the data model's JSON encoding, matching the teacher SDK's
// DataModelSerialization interface so that data store and data kind code can depend on an interface
// value rather than on these package-level functions directly.
type JSONDataModelSerialization struct{}

// NewJSONDataModelSerialization creates a JSONDataModelSerialization.
func NewJSONDataModelSerialization() JSONDataModelSerialization {
	return JSONDataModelSerialization{}
}

// MarshalFeatureFlag delegates to the package-level MarshalFeatureFlag function.
func (s JSONDataModelSerialization) MarshalFeatureFlag(flag FeatureFlag) ([]byte, error) {
	return MarshalFeatureFlag(flag)
}

// UnmarshalFeatureFlag delegates to the package-level UnmarshalFeatureFlag function.
func (s JSONDataModelSerialization) UnmarshalFeatureFlag(data []byte) (FeatureFlag, error) {
	return UnmarshalFeatureFlag(data)
}

// MarshalSegment delegates to the package-level MarshalSegment function.
func (s JSONDataModelSerialization) MarshalSegment(segment Segment) ([]byte, error) {
	return MarshalSegment(segment)
}

// UnmarshalSegment delegates to the package-level UnmarshalSegment function.
func (s JSONDataModelSerialization) UnmarshalSegment(data []byte) (Segment, error) {
	return UnmarshalSegment(data)
}

// MarshalConfigOverride delegates to the package-level MarshalConfigOverride function.
func (s JSONDataModelSerialization) MarshalConfigOverride(override ConfigOverride) ([]byte, error) {
	return MarshalConfigOverride(override)
}

// UnmarshalConfigOverride delegates to the package-level UnmarshalConfigOverride function.
func (s JSONDataModelSerialization) UnmarshalConfigOverride(data []byte) (ConfigOverride, error) {
	return UnmarshalConfigOverride(data)
}

// MarshalMetric delegates to the package-level MarshalMetric function.
func (s JSONDataModelSerialization) MarshalMetric(metric Metric) ([]byte, error) {
	return MarshalMetric(metric)
}

// UnmarshalMetric delegates to the package-level UnmarshalMetric function.
func (s JSONDataModelSerialization) UnmarshalMetric(data []byte) (Metric, error) {
	return UnmarshalMetric(data)
}

// UnmarshalFeatureFlag parses a FeatureFlag from its JSON representation as received from the data
// system (see package fdv2proto). This uses jreader instead of encoding/json directly so that
// attribute references in clauses and rollouts are resolved the way the wire schema requires: a
// clause with no contextKind treats its attribute name as a literal property name rather than a
// slash-delimited reference.
func UnmarshalFeatureFlag(data []byte) (FeatureFlag, error) {
	r := jreader.NewReader(data)
	flag := UnmarshalFeatureFlagFromJSONReader(&r)
	if err := r.Error(); err != nil {
		return FeatureFlag{}, err
	}
	return flag, nil
}

// UnmarshalFeatureFlagFromJSONReader parses a FeatureFlag using an already-positioned jreader.Reader,
// so that a larger payload (e.g. a put-object event body, or a v1 polling response containing many
// flags) can be parsed without an intermediate byte-slice allocation per flag.
func UnmarshalFeatureFlagFromJSONReader(r *jreader.Reader) FeatureFlag {
	var flag FeatureFlag
	deprecatedClientSide := false

	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "key":
			flag.Key = r.String()
		case "version":
			flag.Version = r.Int()
		case "on":
			flag.On = r.Bool()
		case "prerequisites":
			readPrerequisites(r, &flag.Prerequisites)
		case "targets":
			readTargets(r, &flag.Targets)
		case "contextTargets":
			readTargets(r, &flag.ContextTargets)
		case "rules":
			readFlagRules(r, &flag.Rules)
		case "fallthrough":
			readVariationOrRollout(r, &flag.Fallthrough)
		case "offVariation":
			flag.OffVariation.ReadFromJSONReader(r)
		case "variations":
			readValueList(r, &flag.Variations)
		case "clientSideAvailability":
			readClientSideAvailability(r, &flag.ClientSideAvailability)
		case "clientSide":
			deprecatedClientSide = r.Bool()
		case "salt":
			flag.Salt = r.String()
		case "deleted":
			flag.Deleted = r.Bool()
		}
	}

	if !flag.ClientSideAvailability.Explicit {
		flag.ClientSideAvailability = ClientSideAvailability{
			UsingMobileKey:     true,
			UsingEnvironmentID: deprecatedClientSide,
			Explicit:           false,
		}
	}
	return flag
}

// MarshalFeatureFlag serializes a FeatureFlag back to its JSON wire representation. Unlike the
// jreader-based parser, marshaling doesn't need incremental/streaming behavior, so it goes through the
// flag's own json struct tags.
func MarshalFeatureFlag(flag FeatureFlag) ([]byte, error) {
	if flag.Deleted {
		return json.Marshal(struct {
			Key     string `json:"key"`
			Version int    `json:"version"`
			Deleted bool   `json:"deleted"`
		}{flag.Key, flag.Version, true})
	}
	return json.Marshal(flag)
}

// UnmarshalSegment parses a Segment from its JSON representation.
func UnmarshalSegment(data []byte) (Segment, error) {
	r := jreader.NewReader(data)
	segment := UnmarshalSegmentFromJSONReader(&r)
	if err := r.Error(); err != nil {
		return Segment{}, err
	}
	return segment, nil
}

// UnmarshalSegmentFromJSONReader parses a Segment using an already-positioned jreader.Reader.
func UnmarshalSegmentFromJSONReader(r *jreader.Reader) Segment {
	var segment Segment
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "key":
			segment.Key = r.String()
		case "version":
			segment.Version = r.Int()
		case "deleted":
			segment.Deleted = r.Bool()
		case "included":
			readStringList(r, &segment.Included)
		case "excluded":
			readStringList(r, &segment.Excluded)
		case "includedContexts":
			readSegmentTargets(r, &segment.IncludedContexts)
		case "excludedContexts":
			readSegmentTargets(r, &segment.ExcludedContexts)
		case "rules":
			readSegmentRules(r, &segment.Rules)
		case "salt":
			segment.Salt = r.String()
		case "unbounded":
			segment.Unbounded = r.Bool()
		case "unboundedContextKind":
			segment.UnboundedContextKind = ldcontext.Kind(r.String())
		case "generation":
			segment.Generation.ReadFromJSONReader(r)
		}
	}
	return segment
}

// MarshalSegment serializes a Segment back to its JSON wire representation.
func MarshalSegment(segment Segment) ([]byte, error) {
	if segment.Deleted {
		return json.Marshal(struct {
			Key     string `json:"key"`
			Version int    `json:"version"`
			Deleted bool   `json:"deleted"`
		}{segment.Key, segment.Version, true})
	}
	return json.Marshal(segment)
}

// UnmarshalConfigOverride parses a ConfigOverride from its JSON representation.
func UnmarshalConfigOverride(data []byte) (ConfigOverride, error) {
	r := jreader.NewReader(data)
	override := UnmarshalConfigOverrideFromJSONReader(&r)
	if err := r.Error(); err != nil {
		return ConfigOverride{}, err
	}
	return override, nil
}

// UnmarshalConfigOverrideFromJSONReader parses a ConfigOverride using an already-positioned
// jreader.Reader.
func UnmarshalConfigOverrideFromJSONReader(r *jreader.Reader) ConfigOverride {
	var override ConfigOverride
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "value":
			override.Value.ReadFromJSONReader(r)
		case "version":
			override.Version = r.Int()
		case "deleted":
			override.Deleted = r.Bool()
		}
	}
	return override
}

// MarshalConfigOverride serializes a ConfigOverride back to its JSON wire representation.
func MarshalConfigOverride(override ConfigOverride) ([]byte, error) {
	if override.Deleted {
		return json.Marshal(struct {
			Version int  `json:"version"`
			Deleted bool `json:"deleted"`
		}{override.Version, true})
	}
	return json.Marshal(override)
}

// UnmarshalMetric parses a Metric from its JSON representation.
func UnmarshalMetric(data []byte) (Metric, error) {
	r := jreader.NewReader(data)
	metric := UnmarshalMetricFromJSONReader(&r)
	if err := r.Error(); err != nil {
		return Metric{}, err
	}
	return metric, nil
}

// UnmarshalMetricFromJSONReader parses a Metric using an already-positioned jreader.Reader.
func UnmarshalMetricFromJSONReader(r *jreader.Reader) Metric {
	var metric Metric
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "samplingRatio":
			if n, ok := r.IntOrNull(); ok {
				metric.SamplingRatio = ldvalue.NewOptionalInt(n)
			}
		case "version":
			metric.Version = r.Int()
		case "deleted":
			metric.Deleted = r.Bool()
		}
	}
	return metric
}

// MarshalMetric serializes a Metric back to its JSON wire representation.
func MarshalMetric(metric Metric) ([]byte, error) {
	if metric.Deleted {
		return json.Marshal(struct {
			Version int  `json:"version"`
			Deleted bool `json:"deleted"`
		}{metric.Version, true})
	}
	return json.Marshal(metric)
}

func readPrerequisites(r *jreader.Reader, out *[]Prerequisite) {
	for arr := r.ArrayOrNull(); arr.Next(); {
		var p Prerequisite
		for obj := r.Object(); obj.Next(); {
			switch string(obj.Name()) {
			case "key":
				p.Key = r.String()
			case "variation":
				p.Variation = r.Int()
			}
		}
		*out = append(*out, p)
	}
}

func readTargets(r *jreader.Reader, out *[]Target) {
	for arr := r.ArrayOrNull(); arr.Next(); {
		var t Target
		for obj := r.Object(); obj.Next(); {
			switch string(obj.Name()) {
			case "contextKind":
				t.ContextKind = ldcontext.Kind(r.String())
			case "values":
				readStringList(r, &t.Values)
			case "variation":
				t.Variation = r.Int()
			}
		}
		*out = append(*out, t)
	}
}

func readFlagRules(r *jreader.Reader, out *[]FlagRule) {
	for arr := r.ArrayOrNull(); arr.Next(); {
		var rule FlagRule
		for obj := r.Object(); obj.Next(); {
			switch string(obj.Name()) {
			case "id":
				rule.ID = r.String()
			case "variation":
				rule.Variation.ReadFromJSONReader(r)
			case "rollout":
				readRollout(r, &rule.Rollout)
			case "clauses":
				readClauses(r, &rule.Clauses)
			}
		}
		*out = append(*out, rule)
	}
}

func readClauses(r *jreader.Reader, out *[]Clause) {
	for arr := r.ArrayOrNull(); arr.Next(); {
		var clause Clause
		var attrStr string
		for obj := r.Object(); obj.Next(); {
			switch string(obj.Name()) {
			case "contextKind":
				clause.ContextKind = ldcontext.Kind(r.String())
			case "attribute":
				attrStr, _ = r.StringOrNull()
			case "op":
				clause.Op = Operator(r.String())
			case "values":
				readValueList(r, &clause.Values)
			case "negate":
				clause.Negate = r.Bool()
			}
		}
		setAttrNameOrRef(attrStr, clause.ContextKind, &clause.Attribute)
		*out = append(*out, clause)
	}
}

func readVariationOrRollout(r *jreader.Reader, out *VariationOrRollout) {
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "variation":
			out.Variation.ReadFromJSONReader(r)
		case "rollout":
			readRollout(r, &out.Rollout)
		}
	}
}

func readRollout(r *jreader.Reader, out *Rollout) {
	obj := r.ObjectOrNull()
	if !obj.IsDefined() {
		*out = Rollout{}
		return
	}
	var bucketByStr string
	for obj.Next() {
		switch string(obj.Name()) {
		case "kind":
			out.Kind = RolloutKind(r.String())
		case "contextKind":
			out.ContextKind = ldcontext.Kind(r.String())
		case "variations":
			for arr := r.Array(); arr.Next(); {
				var wv WeightedVariation
				for wObj := r.Object(); wObj.Next(); {
					switch string(wObj.Name()) {
					case "variation":
						wv.Variation = r.Int()
					case "weight":
						wv.Weight = r.Int()
					case "untracked":
						wv.Untracked = r.Bool()
					}
				}
				out.Variations = append(out.Variations, wv)
			}
		case "bucketBy":
			bucketByStr, _ = r.StringOrNull()
		case "seed":
			if n, ok := r.IntOrNull(); ok {
				out.Seed = ldvalue.NewOptionalInt(n)
			}
		}
	}
	setAttrNameOrRef(bucketByStr, out.ContextKind, &out.BucketBy)
}

func readClientSideAvailability(r *jreader.Reader, out *ClientSideAvailability) {
	obj := r.ObjectOrNull()
	out.Explicit = obj.IsDefined()
	for obj.Next() {
		switch string(obj.Name()) {
		case "usingEnvironmentId":
			out.UsingEnvironmentID = r.Bool()
		case "usingMobileKey":
			out.UsingMobileKey = r.Bool()
		}
	}
}

func readSegmentRules(r *jreader.Reader, out *[]SegmentRule) {
	for arr := r.ArrayOrNull(); arr.Next(); {
		var rule SegmentRule
		var bucketByStr string
		for obj := r.Object(); obj.Next(); {
			switch string(obj.Name()) {
			case "id":
				rule.ID = r.String()
			case "clauses":
				readClauses(r, &rule.Clauses)
			case "weight":
				if v, ok := r.IntOrNull(); ok {
					rule.Weight = ldvalue.NewOptionalInt(v)
				}
			case "bucketBy":
				bucketByStr, _ = r.StringOrNull()
			case "rolloutContextKind":
				rule.RolloutContextKind = ldcontext.Kind(r.String())
			}
		}
		setAttrNameOrRef(bucketByStr, rule.RolloutContextKind, &rule.BucketBy)
		*out = append(*out, rule)
	}
}

func readSegmentTargets(r *jreader.Reader, out *[]SegmentTarget) {
	for arr := r.ArrayOrNull(); arr.Next(); {
		var t SegmentTarget
		for obj := r.Object(); obj.Next(); {
			switch string(obj.Name()) {
			case "contextKind":
				t.ContextKind = ldcontext.Kind(r.String())
			case "values":
				readStringList(r, &t.Values)
			}
		}
		*out = append(*out, t)
	}
}

func readStringList(r *jreader.Reader, out *[]string) {
	for arr := r.ArrayOrNull(); arr.Next(); {
		*out = append(*out, r.String())
	}
}

func readValueList(r *jreader.Reader, out *[]ldvalue.Value) {
	for arr := r.ArrayOrNull(); arr.Next(); {
		var v ldvalue.Value
		v.ReadFromJSONReader(r)
		*out = append(*out, v)
	}
}

// setAttrNameOrRef resolves an attribute property from older or newer flag data schemas: when no
// contextKind accompanies it, the string is a bare legacy attribute name rather than a slash-delimited
// reference.
func setAttrNameOrRef(value string, contextKind ldcontext.Kind, out *ldattr.Ref) {
	switch {
	case value == "":
		*out = ldattr.Ref{}
	case contextKind == "":
		*out = ldattr.NewLiteralRef(value)
	default:
		*out = ldattr.NewRef(value)
	}
}

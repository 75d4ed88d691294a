package zoning

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	cerrors "github.com/eluisluzquadros/cogniticy/internal/errors"
)

// Parameter keys of the flat zoning map.
const (
	KeyZone                  = "zot"
	KeyMaxHeight             = "max_height"
	KeyMaxFAR                = "max_far"
	KeyMaxLotCoverage        = "max_lot_coverage"
	KeyMinFrontSetback       = "min_front_setback"
	KeyMinBackSetback        = "min_back_setback"
	KeyMinSideSetback        = "min_side_setback"
	KeyGroundFloorHeight     = "ground_floor_height"
	KeyUpperFloorHeight      = "upper_floor_height"
	KeySetbackStartFloor     = "setback_start_floor"
	KeyBackSetbackGrowthRate = "back_setback_growth_rate"
	KeyMinFloorArea          = "min_floor_area"
	KeyTargetEfficiency      = "target_efficiency"
	KeyModelingMode          = "modeling_mode"
)

// Documented defaults for keys a parcel may omit.
const (
	DefaultMaxLotCoverage    = 1.0
	DefaultFloorHeight       = 3.0
	DefaultMinFloorArea      = 1.0
	DefaultSetbackStartFloor = math.MaxInt32
)

// aliases maps the attribute names found in cadastral layers to canonical keys.
var aliases = map[string]string{
	"gf_height":               KeyGroundFloorHeight,
	"gf_floor_height":         KeyGroundFloorHeight,
	"uf_height":               KeyUpperFloorHeight,
	"uf_floor_height":         KeyUpperFloorHeight,
	"min_setback_start_floor": KeySetbackStartFloor,
	"back_setback_percent":    KeyBackSetbackGrowthRate,
}

// Merge returns a deep copy of base with override applied on top. Nested
// maps merge recursively; any other override value replaces the base value.
func Merge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = copyValue(v)
	}
	for k, v := range override {
		if om, ok := v.(map[string]any); ok {
			if bm, ok := out[k].(map[string]any); ok {
				out[k] = Merge(bm, om)
				continue
			}
		}
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	if m, ok := v.(map[string]any); ok {
		return Merge(m, nil)
	}
	return v
}

// Canonical rewrites alias keys to their canonical names. A canonical key
// already present wins over its alias.
func Canonical(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		key := strings.ToLower(strings.TrimSpace(k))
		if canon, ok := aliases[key]; ok {
			if _, exists := m[canon]; exists {
				continue
			}
			key = canon
		}
		out[key] = v
	}
	return out
}

// Resolve merges parcel overrides onto defaults and builds the parcel's
// Envelope. Invalid or missing required values yield a configuration error.
func Resolve(defaults, overrides map[string]any) (Envelope, error) {
	r := reader{m: Merge(Canonical(defaults), Canonical(overrides))}

	env := Envelope{
		Zone:                  r.str(KeyZone),
		MaxHeight:             r.required(KeyMaxHeight),
		MaxFAR:                r.required(KeyMaxFAR),
		MaxLotCoverage:        r.float(KeyMaxLotCoverage, DefaultMaxLotCoverage),
		MinFrontSetback:       r.float(KeyMinFrontSetback, 0),
		MinBackSetback:        r.float(KeyMinBackSetback, 0),
		MinSideSetback:        r.float(KeyMinSideSetback, 0),
		GroundFloorHeight:     r.float(KeyGroundFloorHeight, DefaultFloorHeight),
		UpperFloorHeight:      r.float(KeyUpperFloorHeight, DefaultFloorHeight),
		SetbackStartFloor:     r.int(KeySetbackStartFloor, DefaultSetbackStartFloor),
		BackSetbackGrowthRate: r.float(KeyBackSetbackGrowthRate, 0),
		MinFloorArea:          r.float(KeyMinFloorArea, DefaultMinFloorArea),
	}
	if _, ok := r.m[KeyTargetEfficiency]; ok {
		v := r.float(KeyTargetEfficiency, 0)
		env.TargetEfficiency = &v
	}
	// Coverage above 1 is a percentage.
	if env.MaxLotCoverage > 1 {
		env.MaxLotCoverage /= 100
	}

	if r.err != nil {
		return Envelope{}, r.err
	}
	if err := Check(env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// Check enforces the value ranges the stacking loop depends on.
func Check(e Envelope) error {
	for _, f := range []struct {
		key string
		v   float64
	}{
		{KeyMaxHeight, e.MaxHeight},
		{KeyMaxFAR, e.MaxFAR},
		{KeyMaxLotCoverage, e.MaxLotCoverage},
		{KeyMinFrontSetback, e.MinFrontSetback},
		{KeyMinBackSetback, e.MinBackSetback},
		{KeyMinSideSetback, e.MinSideSetback},
		{KeyGroundFloorHeight, e.GroundFloorHeight},
		{KeyUpperFloorHeight, e.UpperFloorHeight},
		{KeyBackSetbackGrowthRate, e.BackSetbackGrowthRate},
		{KeyMinFloorArea, e.MinFloorArea},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return invalid(f.key, f.v, "finite")
		}
	}
	if e.TargetEfficiency != nil && (math.IsNaN(*e.TargetEfficiency) || math.IsInf(*e.TargetEfficiency, 0)) {
		return invalid(KeyTargetEfficiency, *e.TargetEfficiency, "finite")
	}

	switch {
	case e.MaxHeight < 0:
		return invalid(KeyMaxHeight, e.MaxHeight, ">= 0")
	case e.MaxFAR < 0:
		return invalid(KeyMaxFAR, e.MaxFAR, ">= 0")
	case e.MaxLotCoverage < 0:
		return invalid(KeyMaxLotCoverage, e.MaxLotCoverage, ">= 0")
	case e.GroundFloorHeight <= 0:
		return invalid(KeyGroundFloorHeight, e.GroundFloorHeight, "> 0")
	case e.UpperFloorHeight <= 0:
		return invalid(KeyUpperFloorHeight, e.UpperFloorHeight, "> 0")
	case e.SetbackStartFloor < 0:
		return invalid(KeySetbackStartFloor, e.SetbackStartFloor, ">= 0")
	case e.BackSetbackGrowthRate < 0:
		return invalid(KeyBackSetbackGrowthRate, e.BackSetbackGrowthRate, ">= 0")
	case e.MinFloorArea < 0:
		return invalid(KeyMinFloorArea, e.MinFloorArea, ">= 0")
	}
	return nil
}

func invalid(key string, value any, expected string) error {
	return cerrors.Configuration("%s must be %s (got %v)", key, expected, value).
		WithContext("key", key).
		WithContext("value", value)
}

// reader pulls typed values out of a merged map, keeping the first error.
type reader struct {
	m   map[string]any
	err error
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) required(key string) float64 {
	if v, ok := r.m[key]; !ok || v == nil {
		r.fail(cerrors.Configuration("%s is required", key).WithContext("key", key))
		return 0
	}
	return r.float(key, 0)
}

func (r *reader) float(key string, def float64) float64 {
	v, ok := r.m[key]
	if !ok || v == nil {
		return def
	}
	f, err := ToFloat(v)
	if err != nil {
		r.fail(cerrors.Wrapf(cerrors.KindConfiguration, err, "%s", key).WithContext("key", key))
		return def
	}
	return f
}

func (r *reader) int(key string, def int) int {
	v, ok := r.m[key]
	if !ok || v == nil {
		return def
	}
	f, err := ToFloat(v)
	if err != nil {
		r.fail(cerrors.Wrapf(cerrors.KindConfiguration, err, "%s", key).WithContext("key", key))
		return def
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		r.fail(invalid(key, v, "an integer"))
		return def
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		r.fail(invalid(key, v, "within int32 range"))
		return def
	}
	return int(f)
}

func (r *reader) str(key string) string {
	v, ok := r.m[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// ToFloat converts the scalar types produced by YAML and JSON decoding.
func ToFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", t)
		}
		return f, nil
	case bool:
		return 0, fmt.Errorf("not a number: %v", t)
	}
	return 0, fmt.Errorf("unsupported value type %T", v)
}

package profile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/hcl"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix scopes the environment variables Load layers over the config
// file, e.g. AWGSTREAM_PROFILE_VSG_GRANULARITY=4.
const envPrefix = "AWGSTREAM_"

// Load merges profiles from an HCL config file over the built-in table.
// File entries may add new models or override factory constants:
//
//	profile "m8190a-wsp" {
//	  granularity = 64
//	  min_length  = 320
//	}
//
// Omitted fields fall back to the built-in values for that model, or to zero
// for models the factory table does not know. AWGSTREAM_-prefixed environment
// variables override the file.
func Load(path string) (Set, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), hcl.Parser(true)); err != nil {
		return nil, fmt.Errorf("could not read profile config %s: %w", path, err)
	}

	blocks, err := profileBlocks(k.Get("profile"))
	if err != nil {
		return nil, fmt.Errorf("profile config %s: %w", path, err)
	}

	// Environment overrides are layered over the file through a separate
	// koanf instance: the file side may decode as a list (see
	// profileBlocks), which koanf cannot merge a key tree into.
	ke := koanf.New(".")
	if err := ke.Load(env.Provider("", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			// Only the first two underscores separate key segments; field
			// names keep theirs (profile.vsg.min_length).
			return strings.Replace(key, "_", ".", 2), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("could not read environment overrides: %w", err)
	}
	for _, model := range ke.MapKeys("profile") {
		fields := blocks[model]
		if fields == nil {
			fields = map[string]any{}
			blocks[model] = fields
		}
		for _, field := range ke.MapKeys("profile." + model) {
			fields[field] = ke.Get("profile." + model + "." + field)
		}
	}

	return merge(Builtin(), blocks)
}

// profileBlocks normalizes the shapes HCL decodes labeled blocks into: a
// single `profile "name" {}` block becomes a map keyed by label, while two or
// more become a list of single-key maps. Block bodies may themselves arrive
// wrapped in one-element lists.
func profileBlocks(raw any) (map[string]map[string]any, error) {
	out := map[string]map[string]any{}
	if raw == nil {
		return out, nil
	}

	add := func(name string, body any) error {
		fields, err := blockFields(body)
		if err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
		dst := out[name]
		if dst == nil {
			dst = map[string]any{}
			out[name] = dst
		}
		for field, value := range fields {
			dst[field] = value
		}
		return nil
	}

	switch v := raw.(type) {
	case map[string]any:
		for name, body := range v {
			if err := add(name, body); err != nil {
				return nil, err
			}
		}
	case []any:
		for _, item := range v {
			labeled, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("unexpected profile block type %T", item)
			}
			for name, body := range labeled {
				if err := add(name, body); err != nil {
					return nil, err
				}
			}
		}
	default:
		return nil, fmt.Errorf("unexpected profile section type %T", raw)
	}
	return out, nil
}

func blockFields(body any) (map[string]any, error) {
	switch v := body.(type) {
	case map[string]any:
		return v, nil
	case []any:
		fields := map[string]any{}
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("unexpected block body type %T", item)
			}
			for field, value := range m {
				fields[field] = value
			}
		}
		return fields, nil
	default:
		return nil, fmt.Errorf("unexpected block body type %T", body)
	}
}

func merge(base Set, blocks map[string]map[string]any) (Set, error) {
	for model, fields := range blocks {
		p := base[model]
		p.Model = model

		for field, value := range fields {
			var err error
			switch field {
			case "granularity":
				var n int64
				if n, err = toInt64(value); err == nil {
					p.Granularity = uint32(n)
				}
			case "min_length":
				var n int64
				if n, err = toInt64(value); err == nil {
					p.MinLength = uint32(n)
				}
			case "max_length":
				var n int64
				if n, err = toInt64(value); err == nil {
					p.MaxLength = uint32(n)
				}
			case "scale_multiplier":
				p.ScaleMultiplier, err = toInt64(value)
			case "bit_shift":
				var n int64
				if n, err = toInt64(value); err == nil {
					p.BitShift = uint8(n)
				}
			case "sample_width":
				var n int64
				if n, err = toInt64(value); err == nil {
					p.SampleWidth = uint8(n)
				}
			case "big_endian":
				p.BigEndian, err = toBool(value)
			case "interleaved":
				p.Interleaved, err = toBool(value)
			default:
				err = fmt.Errorf("unknown field")
			}
			if err != nil {
				return nil, fmt.Errorf("profile %q: field %s: %w", model, field, err)
			}
		}

		if err := p.Validate(); err != nil {
			return nil, err
		}
		base[model] = p
	}
	return base, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("not an integer (%T)", v)
	}
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(b)
	default:
		return false, fmt.Errorf("not a boolean (%T)", v)
	}
}

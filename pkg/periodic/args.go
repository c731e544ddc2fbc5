package periodic

import (
	"encoding/json"
	"errors"
	"strings"
)

// EncodeArgs serializes positional arguments to JSON text.
// A nil or empty slice encodes to "[]".
func EncodeArgs(args []string) (string, error) {
	if args == nil {
		args = []string{}
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "", errors.Join(ErrInvalidArgs, err)
	}
	return string(b), nil
}

// DecodeArgs parses JSON text into positional arguments.
// Empty text decodes to an empty slice.
func DecodeArgs(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{}, nil
	}
	var args []string
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, errors.Join(ErrInvalidArgs, err)
	}
	if args == nil {
		args = []string{}
	}
	return args, nil
}

// EncodeKwargs serializes keyword arguments to JSON text.
// A nil or empty map encodes to "{}".
func EncodeKwargs(kwargs map[string]string) (string, error) {
	if kwargs == nil {
		kwargs = map[string]string{}
	}
	b, err := json.Marshal(kwargs)
	if err != nil {
		return "", errors.Join(ErrInvalidKwargs, err)
	}
	return string(b), nil
}

// DecodeKwargs parses JSON text into keyword arguments.
// Empty text decodes to an empty map.
func DecodeKwargs(raw string) (map[string]string, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]string{}, nil
	}
	var kwargs map[string]string
	if err := json.Unmarshal([]byte(raw), &kwargs); err != nil {
		return nil, errors.Join(ErrInvalidKwargs, err)
	}
	if kwargs == nil {
		kwargs = map[string]string{}
	}
	return kwargs, nil
}

// ParseArgList splits a comma separated list into positional arguments,
// e.g. "a,b" -> ["a", "b"].
func ParseArgList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// ParseKwargList parses "key:value" pairs separated by commas.
// Pairs without a colon are ignored.
func ParseKwargList(s string) map[string]string {
	out := make(map[string]string)
	if strings.TrimSpace(s) == "" {
		return out
	}
	for kv := range strings.SplitSeq(s, ",") {
		k, v, ok := strings.Cut(kv, ":")
		if !ok {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}

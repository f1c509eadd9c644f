package npy

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// dictEntry returns the text following "'key':" in a Python dict literal.
func dictEntry(dict, key string) (string, error) {
	for _, q := range []string{"'", `"`} {
		k := q + key + q
		i := strings.Index(dict, k)
		if i < 0 {
			continue
		}
		rest := strings.TrimSpace(dict[i+len(k):])
		if !strings.HasPrefix(rest, ":") {
			return "", errors.Wrapf(ErrMalformedHeader, "missing ':' after %s", k)
		}
		return strings.TrimSpace(rest[1:]), nil
	}
	return "", errors.Wrapf(ErrMalformedHeader, "missing key %q", key)
}

// parseDict extracts descr, fortran_order and shape from the header dict.
func parseDict(dict string) (descr string, fortran bool, dims []int, err error) {
	dict = strings.TrimSpace(dict)
	if !strings.HasPrefix(dict, "{") || !strings.HasSuffix(dict, "}") {
		return "", false, nil, errors.Wrapf(ErrMalformedHeader, "not a dict: %q", dict)
	}

	v, err := dictEntry(dict, "descr")
	if err != nil {
		return "", false, nil, err
	}
	if v == "" || (v[0] != '\'' && v[0] != '"') {
		return "", false, nil, errors.Wrapf(ErrMalformedHeader, "descr is not a string: %q", v)
	}
	end := strings.IndexByte(v[1:], v[0])
	if end < 0 {
		return "", false, nil, errors.Wrap(ErrMalformedHeader, "unterminated descr")
	}
	descr = v[1 : end+1]

	if v, err = dictEntry(dict, "fortran_order"); err != nil {
		return "", false, nil, err
	}
	switch {
	case strings.HasPrefix(v, "True"):
		fortran = true
	case strings.HasPrefix(v, "False"):
	default:
		return "", false, nil, errors.Wrapf(ErrMalformedHeader, "fortran_order is not a bool: %q", v)
	}

	if v, err = dictEntry(dict, "shape"); err != nil {
		return "", false, nil, err
	}
	if !strings.HasPrefix(v, "(") {
		return "", false, nil, errors.Wrapf(ErrMalformedHeader, "shape is not a tuple: %q", v)
	}
	closing := strings.IndexByte(v, ')')
	if closing < 0 {
		return "", false, nil, errors.Wrap(ErrMalformedHeader, "unterminated shape")
	}
	dims = []int{}
	for _, p := range strings.Split(v[1:closing], ",") {
		p = strings.TrimSuffix(strings.TrimSpace(p), "L")
		if p == "" {
			continue
		}
		d, err := strconv.Atoi(p)
		if err != nil || d < 0 {
			return "", false, nil, errors.Wrapf(ErrMalformedHeader, "bad dimension %q", p)
		}
		dims = append(dims, d)
	}
	return descr, fortran, dims, nil
}

// formatDict renders the header dict for a C-ordered array.
func formatDict(descr string, dims []int) string {
	return "{'descr': '" + descr + "', 'fortran_order': False, 'shape': " + shapeTuple(dims) + ", }"
}

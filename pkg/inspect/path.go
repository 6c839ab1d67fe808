package inspect

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Path errors.
var (
	ErrEmptyPath     = errors.New("empty path")
	ErrInvalidPath   = errors.New("invalid path format")
	ErrInvalidNumber = errors.New("invalid numeric value in path")
)

// Path is a parsed field path such as "entries[1].id".
type Path []PathElem

// PathElem is one step of a path. Index is -1 when no index was given.
type PathElem struct {
	Name  string
	Index int
}

// ParsePath parses a dotted field path. Each element may carry one
// decimal or hex index in brackets.
func ParsePath(input string) (Path, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyPath
	}
	if strings.HasPrefix(input, ".") || strings.HasSuffix(input, ".") || strings.Contains(input, "..") {
		return nil, ErrInvalidPath
	}

	var p Path
	for _, part := range strings.Split(input, ".") {
		elem := PathElem{Name: part, Index: -1}
		if i := strings.IndexByte(part, '['); i >= 0 {
			if !strings.HasSuffix(part, "]") || i == 0 {
				return nil, fmt.Errorf("%w: %s", ErrInvalidPath, part)
			}
			idx, err := parseIndex(part[i+1 : len(part)-1])
			if err != nil {
				return nil, err
			}
			elem.Name, elem.Index = part[:i], idx
		}
		if !validName(elem.Name) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPath, part)
		}
		p = append(p, elem)
	}
	return p, nil
}

// String returns the path in its parsed form.
func (p Path) String() string {
	var sb strings.Builder
	for i, e := range p {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(e.Name)
		if e.Index >= 0 {
			sb.WriteString("[")
			sb.WriteString(strconv.Itoa(e.Index))
			sb.WriteString("]")
		}
	}
	return sb.String()
}

func validName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// parseIndex parses a decimal or hex index.
func parseIndex(s string) (int, error) {
	var v uint64
	var err error
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err = strconv.ParseUint(s[2:], 16, 31)
	} else {
		v, err = strconv.ParseUint(s, 10, 31)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidNumber, s)
	}
	return int(v), nil
}

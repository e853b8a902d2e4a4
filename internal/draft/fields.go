package draft

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jonathan/resume-studio/internal/types"
)

var errUnknownKey = errors.New("unknown field")

func setProfileInfo(p types.ProfileInfo, key string, v any) (types.ProfileInfo, error) {
	s, err := toString(v)
	if err != nil {
		return p, err
	}
	switch key {
	case "profilePreviewUrl":
		p.ProfilePreviewURL = s
	case "fullName":
		p.FullName = s
	case "designation":
		p.Designation = s
	case "summary":
		p.Summary = s
	default:
		return p, errUnknownKey
	}
	return p, nil
}

func setContactInfo(c types.ContactInfo, key string, v any) (types.ContactInfo, error) {
	s, err := toString(v)
	if err != nil {
		return c, err
	}
	switch key {
	case "email":
		c.Email = s
	case "phone":
		c.Phone = s
	case "location":
		c.Location = s
	case "linkedin":
		c.LinkedIn = s
	case "github":
		c.GitHub = s
	case "website":
		c.Website = s
	default:
		return c, errUnknownKey
	}
	return c, nil
}

func setTemplate(t types.Template, key string, v any) (types.Template, error) {
	switch key {
	case "theme":
		s, err := toString(v)
		if err != nil {
			return t, err
		}
		t.Theme = s
	case "colorPalette":
		palette, err := toStrings(v)
		if err != nil {
			return t, err
		}
		t.ColorPalette = palette
	default:
		return t, errUnknownKey
	}
	return t, nil
}

func setWorkExperience(e types.WorkExperience, key string, v any) (types.WorkExperience, error) {
	s, err := toString(v)
	if err != nil {
		return e, err
	}
	switch key {
	case "company":
		e.Company = s
	case "role":
		e.Role = s
	case "startDate":
		e.StartDate = s
	case "endDate":
		e.EndDate = s
	case "description":
		e.Description = s
	default:
		return e, errUnknownKey
	}
	return e, nil
}

func setEducation(e types.Education, key string, v any) (types.Education, error) {
	s, err := toString(v)
	if err != nil {
		return e, err
	}
	switch key {
	case "degree":
		e.Degree = s
	case "institution":
		e.Institution = s
	case "startDate":
		e.StartDate = s
	case "endDate":
		e.EndDate = s
	default:
		return e, errUnknownKey
	}
	return e, nil
}

func setSkill(sk types.Skill, key string, v any) (types.Skill, error) {
	switch key {
	case "name":
		s, err := toString(v)
		if err != nil {
			return sk, err
		}
		sk.Name = s
	case "progress":
		n, err := toInt(v)
		if err != nil {
			return sk, err
		}
		sk.Progress = n
	default:
		return sk, errUnknownKey
	}
	return sk, nil
}

func setProject(p types.Project, key string, v any) (types.Project, error) {
	s, err := toString(v)
	if err != nil {
		return p, err
	}
	switch key {
	case "title":
		p.Title = s
	case "description":
		p.Description = s
	case "github":
		p.GitHub = s
	case "liveDemo":
		p.LiveDemo = s
	default:
		return p, errUnknownKey
	}
	return p, nil
}

func setCertification(c types.Certification, key string, v any) (types.Certification, error) {
	s, err := toString(v)
	if err != nil {
		return c, err
	}
	switch key {
	case "title":
		c.Title = s
	case "issuer":
		c.Issuer = s
	case "year":
		c.Year = s
	default:
		return c, errUnknownKey
	}
	return c, nil
}

func setLanguage(l types.Language, key string, v any) (types.Language, error) {
	switch key {
	case "name":
		s, err := toString(v)
		if err != nil {
			return l, err
		}
		l.Name = s
	case "progress":
		n, err := toInt(v)
		if err != nil {
			return l, err
		}
		l.Progress = n
	default:
		return l, errUnknownKey
	}
	return l, nil
}

// Interests are bare strings and have no fields to patch.
func setInterest(s string, _ string, _ any) (string, error) {
	return s, errors.New("interests have no fields; use the whole-item key")
}

// decodeItem accepts either a T or a value decoded from JSON (map, string)
// and converts it into a T.
func decodeItem[T any](v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	if item, ok := v.(T); ok {
		return item, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return zero, fmt.Errorf("failed to encode item: %w", err)
	}
	var item T
	if err := json.Unmarshal(raw, &item); err != nil {
		return zero, fmt.Errorf("item has the wrong shape: %w", err)
	}
	return item, nil
}

func toString(v any) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	case json.Number:
		return s.String(), nil
	case fmt.Stringer:
		return s.String(), nil
	}
	return "", fmt.Errorf("expected a string, got %T", v)
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("expected a number, got %v", n)
		}
		return int(math.Round(n)), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, err
		}
		return int(math.Round(f)), nil
	case string:
		// form inputs deliver numbers as text
		if strings.TrimSpace(n) == "" {
			return 0, nil
		}
		return strconv.Atoi(strings.TrimSpace(n))
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}

func toStrings(v any) ([]string, error) {
	switch list := v.(type) {
	case nil:
		return []string{}, nil
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, err := toString(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a list of strings, got %T", v)
}

package request

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/yumyai/blastview/pkg/model"
)

// Form and query-string keys of the filter parameters.
const (
	FieldIdentity        = "identity"
	FieldAlignmentLength = "alignment_length"
	FieldMismatches      = "mismatches"
	FieldEValue          = "evalue"
	FieldTopN            = "top_n"
	FieldSortColumn      = "sort_column"
	FieldSortDirection   = "sort_direction"
)

const (
	DirectionAscending  = "ascending"
	DirectionDescending = "descending"
)

// ParseFilterParams reads filter parameters from a form or query string. Missing keys
// fall back to defaults; present but unreadable keys are an error.
func ParseFilterParams(values url.Values, defaults model.Params) (model.Params, error) {
	p := defaults
	var err error

	if v := values.Get(FieldIdentity); v != "" {
		if p.Identity, err = strconv.ParseFloat(v, 64); err != nil {
			return p, fmt.Errorf("%w: identity %q", model.ErrInvalidParams, v)
		}
	}
	if v := values.Get(FieldAlignmentLength); v != "" {
		if p.AlignmentLength, err = strconv.Atoi(v); err != nil {
			return p, fmt.Errorf("%w: alignment_length %q", model.ErrInvalidParams, v)
		}
	}
	if v := values.Get(FieldMismatches); v != "" {
		if p.Mismatches, err = strconv.Atoi(v); err != nil {
			return p, fmt.Errorf("%w: mismatches %q", model.ErrInvalidParams, v)
		}
	}
	// Scientific form (1e-5) is accepted by ParseFloat.
	if v := values.Get(FieldEValue); v != "" {
		if p.EValue, err = strconv.ParseFloat(v, 64); err != nil {
			return p, fmt.Errorf("%w: evalue %q", model.ErrInvalidParams, v)
		}
	}
	if v := values.Get(FieldTopN); v != "" {
		if p.TopN, err = strconv.Atoi(v); err != nil {
			return p, fmt.Errorf("%w: top_n %q", model.ErrInvalidParams, v)
		}
	}
	if v := values.Get(FieldSortColumn); v != "" {
		if p.SortColumn, err = model.ParseColumn(v); err != nil {
			return p, fmt.Errorf("%w: %w", model.ErrInvalidParams, err)
		}
	}
	if v := values.Get(FieldSortDirection); v != "" {
		if p.Ascending, err = parseDirection(v); err != nil {
			return p, err
		}
	}

	return p, p.Validate()
}

func parseDirection(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case DirectionAscending, "asc":
		return true, nil
	case DirectionDescending, "desc":
		return false, nil
	default:
		return false, fmt.Errorf("%w: sort_direction %q", model.ErrInvalidParams, raw)
	}
}

// Encode turns p back into query-string form, for links between pages.
func Encode(p model.Params) url.Values {
	values := url.Values{}
	values.Set(FieldIdentity, strconv.FormatFloat(p.Identity, 'g', -1, 64))
	values.Set(FieldAlignmentLength, strconv.Itoa(p.AlignmentLength))
	values.Set(FieldMismatches, strconv.Itoa(p.Mismatches))
	values.Set(FieldEValue, strconv.FormatFloat(p.EValue, 'g', -1, 64))
	values.Set(FieldTopN, strconv.Itoa(p.TopN))
	values.Set(FieldSortColumn, p.SortColumn.String())
	if p.Ascending {
		values.Set(FieldSortDirection, DirectionAscending)
	} else {
		values.Set(FieldSortDirection, DirectionDescending)
	}
	return values
}

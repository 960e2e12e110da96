package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/pagemirror/pagemirror/internal/core/domain"
	"github.com/pagemirror/pagemirror/internal/logger"
)

// GroupingMapper applies a source database's field map to a normalised
// record, bucketing property entities by mirrored property name and
// attribute values by mirrored attribute name.
type GroupingMapper struct {
	props *PropertyNormalizer
}

// NewGroupingMapper creates a grouping mapper.
func NewGroupingMapper(props *PropertyNormalizer) *GroupingMapper {
	return &GroupingMapper{props: props}
}

// Group buckets a record's parsed fields. Every configured attribute name
// is initialised to an empty bucket up front, so an attribute with zero
// contributing fields is present as [] rather than absent; downstream code
// indexes attributes by name unconditionally. A raw key configured in both
// maps feeds both paths from the same parsed value.
//
// A field whose file upload fails is skipped with a warning; the rest of
// the record survives. Any other conversion failure aborts the record.
func (g *GroupingMapper) Group(ctx context.Context, fields map[string]domain.ParsedPropertyValue, fm domain.FieldMap, includeAttributes bool) (*domain.GroupedRecord, error) {
	grouped := &domain.GroupedRecord{
		Properties: make(map[string][]domain.PropertyEntity),
		Attributes: make(map[string][]domain.AttributeValue),
	}
	if includeAttributes {
		for _, name := range fm.Attributes {
			grouped.Attributes[name] = []domain.AttributeValue{}
		}
	}

	for key, parsed := range fields {
		if name, ok := fm.Properties[key]; ok {
			entities, err := g.props.PropertyEntities(ctx, parsed)
			switch {
			case errors.Is(err, domain.ErrUploadFailed):
				logger.Warn("Skipping property field %q: %v", key, err)
			case err != nil:
				return nil, fmt.Errorf("field %q: %w", key, err)
			default:
				for _, entity := range entities {
					entity.PropertyName = name
					grouped.Properties[name] = append(grouped.Properties[name], entity)
				}
			}
		}

		if !includeAttributes {
			continue
		}
		if name, ok := fm.Attributes[key]; ok {
			values, err := g.props.AttributeValues(ctx, parsed)
			switch {
			case errors.Is(err, domain.ErrUploadFailed):
				logger.Warn("Skipping attribute field %q: %v", key, err)
			case err != nil:
				return nil, fmt.Errorf("field %q: %w", key, err)
			default:
				grouped.Attributes[name] = append(grouped.Attributes[name], values...)
			}
		}
	}

	return grouped, nil
}

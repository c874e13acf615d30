package extract

import (
	"fmt"

	"openmod/pkg/domain"
	"openmod/pkg/platform/sentinel"
)

// Version is written into every current-shape record.
const Version = "2"

const (
	fieldVersion   = "version"
	fieldType      = "type"
	fieldActor     = "actor"
	fieldTarget    = "target"
	fieldLink      = "link"
	fieldComment   = "comment"
	fieldLength    = "length"
	fieldThingID   = "thingId"
	fieldPermalink = "permalink"
	fieldCreatedAt = "createdAt"
)

// IsLegacy reports whether a stored record has the legacy shape, identified
// by its raw thing id field.
func IsLegacy(fields map[string]string) bool {
	_, ok := fields[fieldThingID]
	return ok
}

// Encode flattens x into hash fields. Only the fields of its variant are
// written.
func Encode(x *Extract) map[string]string {
	fields := map[string]string{
		fieldVersion: Version,
		fieldType:    string(x.Type),
		fieldActor:   x.Actor.String(),
	}
	if x.HasTarget() {
		fields[fieldTarget] = x.Target.String()
	}
	switch x.Type.Kind() {
	case KindLink:
		fields[fieldLink] = x.Link.String()
	case KindComment:
		fields[fieldComment] = x.Comment.String()
	case KindSanction:
		fields[fieldLength] = x.Length
	}
	return fields
}

// Decode reads a current-shape record. Legacy records are rejected with
// sentinel.ErrInvalidState; use DecodeLegacy for those.
func Decode(fields map[string]string) (*Extract, error) {
	if IsLegacy(fields) {
		return nil, fmt.Errorf("legacy record passed to current decoder: %w", sentinel.ErrInvalidState)
	}
	if v := fields[fieldVersion]; v != "" && v != Version {
		return nil, fmt.Errorf("unknown record version %q: %w", v, sentinel.ErrInvalidState)
	}

	x := &Extract{
		Type:  ActionType(fields[fieldType]),
		Actor: domain.UserID(fields[fieldActor]),
	}
	if x.HasTarget() {
		x.Target = domain.UserID(fields[fieldTarget])
	}
	switch x.Type.Kind() {
	case KindLink:
		x.Link = domain.LinkID(fields[fieldLink])
	case KindComment:
		x.Comment = domain.CommentID(fields[fieldComment])
	case KindSanction:
		x.Length = fields[fieldLength]
	}
	if err := x.Validate(); err != nil {
		return nil, err
	}
	return x, nil
}

// DecodeLegacy reads a legacy record.
func DecodeLegacy(fields map[string]string) (*Legacy, error) {
	if !IsLegacy(fields) {
		return nil, fmt.Errorf("record is not legacy: %w", sentinel.ErrInvalidState)
	}
	l := &Legacy{
		Type:      ActionType(fields[fieldType]),
		Actor:     fields[fieldActor],
		ThingID:   domain.ThingID(fields[fieldThingID]),
		Permalink: fields[fieldPermalink],
		CreatedAt: fields[fieldCreatedAt],
	}
	if l.Actor == "" || l.ThingID.IsNil() {
		return nil, fmt.Errorf("legacy record missing actor or thing: %w", sentinel.ErrInvalidState)
	}
	return l, nil
}

// EncodeLegacy flattens a legacy record. Only tests and fixtures need it.
func EncodeLegacy(l *Legacy) map[string]string {
	return map[string]string{
		fieldType:      string(l.Type),
		fieldActor:     l.Actor,
		fieldThingID:   l.ThingID.String(),
		fieldPermalink: l.Permalink,
		fieldCreatedAt: l.CreatedAt,
	}
}

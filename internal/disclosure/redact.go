package disclosure

import (
	"context"
	"errors"
	"fmt"

	"openmod/pkg/domain"
	"openmod/pkg/platform/sentinel"
)

// RedactedNotice replaces the body of a record that can no longer be read.
const RedactedNotice = "**" + AccountDeleted + "**\n\nThis record was redacted."

// Redact edits the published post id so it no longer identifies its subject.
// A post that is already gone is left alone. The stored record is not
// touched; callers delete it afterwards.
func (s *Service) Redact(ctx context.Context, id domain.LinkID) error {
	body, err := s.redactedBody(ctx, id)
	if err != nil {
		return err
	}

	err = s.provider.EditPost(ctx, id, body)
	if errors.Is(err, sentinel.ErrNotFound) {
		s.logger.InfoContext(ctx, "published record already gone", "extract_id", id.String())
		return nil
	}
	if err != nil {
		return fmt.Errorf("redacting %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "redacted moderation record", "extract_id", id.String())
	return nil
}

func (s *Service) redactedBody(ctx context.Context, id domain.LinkID) (string, error) {
	x, err := s.extracts.Get(ctx, id)
	switch {
	case errors.Is(err, sentinel.ErrNotFound),
		errors.Is(err, sentinel.ErrActorResolution),
		errors.Is(err, sentinel.ErrInvalidState):
		s.logger.WarnContext(ctx, "record unreadable, redacting with notice",
			"extract_id", id.String(),
			"error", err,
		)
		return RedactedNotice, nil
	case err != nil:
		return "", err
	}

	v := View{Action: x.Type, Length: x.Length}
	v.Moderator, err = s.account(ctx, x.Actor)
	if errors.Is(err, sentinel.ErrNotFound) {
		v.Moderator = Account{Name: AccountUnavailable}
	} else if err != nil {
		return "", err
	}

	text, err := Redacted(v)
	if err != nil {
		return RedactedNotice, nil
	}
	return text.Body, nil
}

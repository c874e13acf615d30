package disclosure

import (
	"fmt"
	"strings"

	"openmod/internal/extract"
)

var humanActions = map[extract.ActionType]string{
	extract.RemoveLink:     "removed a post",
	extract.SpamLink:       "marked a post as spam",
	extract.ApproveLink:    "approved a post",
	extract.RemoveComment:  "removed a comment",
	extract.SpamComment:    "marked a comment as spam",
	extract.ApproveComment: "approved a comment",
	extract.BanUser:        "banned a user",
	extract.UnbanUser:      "unbanned a user",
	extract.MuteUser:       "muted a user",
	extract.UnmuteUser:     "unmuted a user",
}

// HumanAction returns the past-tense phrase for a, if it has one.
func HumanAction(a extract.ActionType) (string, bool) {
	s, ok := humanActions[a]
	return s, ok
}

// View is everything the published text is rendered from.
type View struct {
	Action    extract.ActionType
	Moderator Account
	Author    Account
	Length    string
	Permalink string
}

// Text is a rendered title and body.
type Text struct {
	Title string
	Body  string
}

func (a Account) label() string {
	if a.IsAdmin {
		return a.Name + " (Admin)"
	}
	return a.Name
}

// Compose renders v deterministically. User actions never carry a permalink.
func Compose(v View) (Text, error) {
	phrase, ok := HumanAction(v.Action)
	if !ok {
		return Text{}, fmt.Errorf("no wording for action %q", v.Action)
	}

	headline := v.Moderator.Name + " " + phrase
	paragraphs := []string{
		"**" + headline + "**",
		"Author: " + v.Author.label(),
		"Moderator: " + v.Moderator.label(),
		"Action: " + string(v.Action),
	}
	if v.Action.Kind() == extract.KindSanction && v.Length != "" {
		paragraphs = append(paragraphs, "Duration: "+v.Length)
	}
	if v.Permalink != "" && (v.Action.Kind() == extract.KindLink || v.Action.Kind() == extract.KindComment) {
		paragraphs = append(paragraphs, "Permalink:", "https://reddit.com"+v.Permalink)
	}

	return Text{Title: headline, Body: strings.Join(paragraphs, "\n\n")}, nil
}

// Redacted renders v with the author replaced by the deleted placeholder and
// no permalink.
func Redacted(v View) (Text, error) {
	v.Author = Account{Name: AccountDeleted}
	v.Permalink = ""
	return Compose(v)
}

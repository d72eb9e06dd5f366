// Package notify mirrors in-app notifications to team chat channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/slack-go/slack"
)

// Channel posts a titled message to a chat destination.
type Channel interface {
	Post(ctx context.Context, title, message string) error
}

// format renders title in bold using the destination's marker.
func format(bold, title, message string) string {
	title = strings.TrimSpace(title)
	message = strings.TrimSpace(message)
	switch {
	case title == "":
		return message
	case message == "":
		return bold + title + bold
	}
	return fmt.Sprintf("%s%s%s\n%s", bold, title, bold, message)
}

type Slack struct {
	client    *slack.Client
	channelID string
}

func NewSlack(token, channelID string, opts ...slack.Option) *Slack {
	return &Slack{client: slack.New(token, opts...), channelID: channelID}
}

func (s *Slack) Post(ctx context.Context, title, message string) error {
	_, _, err := s.client.PostMessageContext(ctx,
		s.channelID,
		slack.MsgOptionText(format("*", title, message), false),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		return fmt.Errorf("failed to post message to Slack: %w", err)
	}
	return nil
}

// Discord posts through the REST API only; no gateway connection is opened.
type Discord struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscord(token, channelID string) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	return &Discord{session: session, channelID: channelID}, nil
}

func (d *Discord) Post(ctx context.Context, title, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := d.session.ChannelMessageSend(d.channelID, format("**", title, message)); err != nil {
		return fmt.Errorf("failed to post message to Discord: %w", err)
	}
	return nil
}

// Multi posts to every channel and joins the failures.
type Multi []Channel

func (m Multi) Post(ctx context.Context, title, message string) error {
	var errs []error
	for _, ch := range m {
		if err := ch.Post(ctx, title, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

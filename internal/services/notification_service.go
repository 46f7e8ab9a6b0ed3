package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"talky/internal/email"
	"talky/internal/events"
	"talky/internal/logger"
	"talky/internal/models"
	"talky/internal/repositories"
)

// NotificationService reacts to post-commit events by sending the
// corresponding emails. Every attempt, successful or not, is recorded
// in the notification log; nothing here ever propagates back to the
// request that caused the mutation.
type NotificationService struct {
	talkRepo     repositories.TalkRepository
	userRepo     repositories.UserRepository
	commentRepo  repositories.CommentRepository
	categoryRepo repositories.CategoryRepository
	logRepo      repositories.NotificationLogRepository
	provider     email.Provider
	baseURL      string
	replyTo      string
}

func NewNotificationService(
	talkRepo repositories.TalkRepository,
	userRepo repositories.UserRepository,
	commentRepo repositories.CommentRepository,
	categoryRepo repositories.CategoryRepository,
	logRepo repositories.NotificationLogRepository,
	provider email.Provider,
	baseURL, replyTo string,
) *NotificationService {
	return &NotificationService{
		talkRepo:     talkRepo,
		userRepo:     userRepo,
		commentRepo:  commentRepo,
		categoryRepo: categoryRepo,
		logRepo:      logRepo,
		provider:     provider,
		baseURL:      baseURL,
		replyTo:      replyTo,
	}
}

var _ events.Handler = (*NotificationService)(nil)

// HandleTalkSpeakerChanged mails the freshly minted upload link to the
// new speaker.
func (s *NotificationService) HandleTalkSpeakerChanged(ctx context.Context, ev events.TalkSpeakerChanged) {
	talk, err := s.talkRepo.FindByIDWithRelations(ev.TalkID)
	if err != nil {
		logger.CtxWithError(ctx, "speaker notification: talk lookup failed", err, "talk_id", ev.TalkID)
		return
	}

	conference := ""
	if talk.Conference != nil {
		conference = talk.Conference.Name
	}

	subject := fmt.Sprintf("You have been assigned to a talk - %s", talk.Title)
	body := fmt.Sprintf(
		"Dear speaker,\n\n"+
			"You have been assigned to the talk entitled \"%s\" at %s.\n"+
			"The talk page is %s/view/%d/%s/.\n\n"+
			"Please upload your presentation and any further revisions using "+
			"the form at %s/upload/%d/%s/. After uploading your slides all "+
			"relevant parties will be notified and able to make comments.\n",
		talk.Title, conference,
		s.baseURL, talk.ID, talk.ViewKey,
		s.baseURL, talk.ID, talk.UploadKey,
	)

	s.deliver(ctx, models.NotificationTalkAssigned, talk.ID, subject, &email.Message{
		To:      []string{talk.Speaker},
		ReplyTo: s.replyTo,
		Subject: subject,
		Body:    body,
	})
}

// HandleSubmissionCreated announces a talk whose first slides have just
// arrived. Later revisions are silent.
func (s *NotificationService) HandleSubmissionCreated(ctx context.Context, ev events.SubmissionCreated) {
	if ev.Version != 1 {
		return
	}

	talk, err := s.talkRepo.FindByIDWithRelations(ev.TalkID)
	if err != nil {
		logger.CtxWithError(ctx, "availability notification: talk lookup failed", err, "talk_id", ev.TalkID)
		return
	}

	recipients, err := s.availabilityRecipients(talk)
	if err != nil {
		logger.CtxWithError(ctx, "availability notification: recipient lookup failed", err, "talk_id", ev.TalkID)
		return
	}
	if len(recipients) == 0 {
		return
	}

	conference := ""
	if talk.Conference != nil {
		conference = talk.Conference.Name
	}

	subject := fmt.Sprintf("New talk uploaded - %s", talk.Title)
	body := fmt.Sprintf(
		"You have received this email as you have been flagged as an "+
			"interested party in the talk entitled \"%s\" at %s.\n\n"+
			"Slides are now available to view at %s/view/%d/%s/ and you may "+
			"leave comments on that page. You will not be notified of further "+
			"revisions.\n",
		talk.Title, conference,
		s.baseURL, talk.ID, talk.ViewKey,
	)

	s.deliver(ctx, models.NotificationTalkAvailable, talk.ID, subject, &email.Message{
		Bcc:     recipients,
		ReplyTo: s.replyTo,
		Subject: subject,
		Body:    body,
	})
}

// HandleCommentCreated notifies the speaker, unless they commented on
// their own talk.
func (s *NotificationService) HandleCommentCreated(ctx context.Context, ev events.CommentCreated) {
	comment, err := s.commentRepo.FindByID(ev.CommentID)
	if err != nil {
		logger.CtxWithError(ctx, "comment notification: comment lookup failed", err, "comment_id", ev.CommentID)
		return
	}
	talk, err := s.talkRepo.FindByIDWithRelations(ev.TalkID)
	if err != nil {
		logger.CtxWithError(ctx, "comment notification: talk lookup failed", err, "talk_id", ev.TalkID)
		return
	}

	if strings.EqualFold(comment.Email, talk.Speaker) {
		return
	}

	conference := ""
	if talk.Conference != nil {
		conference = talk.Conference.Name
	}

	subject := fmt.Sprintf("New comment received on %s", talk.Title)
	body := fmt.Sprintf(
		"A new comment has been submitted by %s <%s> on \"%s\" at %s.\n\n"+
			"The comment text is:\n%s\n\n"+
			"You may reply using the talk page at %s/view/%d/%s/.\n",
		comment.Name, comment.Email, talk.Title, conference,
		comment.Comment,
		s.baseURL, talk.ID, talk.ViewKey,
	)

	s.deliver(ctx, models.NotificationCommentPosted, talk.ID, subject, &email.Message{
		Bcc:     []string{talk.Speaker},
		ReplyTo: s.replyTo,
		Subject: subject,
		Body:    body,
	})
}

// availabilityRecipients gathers the deduplicated address list for the
// first-submission announcement: members of the talk's own experiment,
// members of every experiment flagged interesting, and the contacts of
// every tagged category.
func (s *NotificationService) availabilityRecipients(talk *models.Talk) ([]string, error) {
	experimentIDs := []uint{talk.ExperimentID}
	for _, exp := range talk.InterestingTo {
		experimentIDs = append(experimentIDs, exp.ID)
	}
	users, err := s.userRepo.FindByExperiments(experimentIDs)
	if err != nil {
		return nil, err
	}

	categoryIDs := make([]uint, 0, len(talk.Categories))
	for _, cat := range talk.Categories {
		categoryIDs = append(categoryIDs, cat.ID)
	}
	contacts, err := s.categoryRepo.FindContactsForCategories(categoryIDs)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var recipients []string
	add := func(addr string) {
		addr = strings.TrimSpace(addr)
		key := strings.ToLower(addr)
		if addr == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		recipients = append(recipients, addr)
	}
	for _, u := range users {
		add(u.Email)
	}
	for _, c := range contacts {
		add(c.Email)
	}
	sort.Strings(recipients)
	return recipients, nil
}

// deliver sends the message and records the attempt.
func (s *NotificationService) deliver(ctx context.Context, kind string, talkID uint, subject string, msg *email.Message) {
	sendErr := s.provider.Send(msg)

	addresses := append(append([]string{}, msg.To...), msg.Bcc...)
	payload, _ := json.Marshal(addresses)

	entry := &models.NotificationLog{
		Kind:       kind,
		TalkID:     talkID,
		Subject:    subject,
		Recipients: payload,
		SentAt:     time.Now().UTC(),
	}
	if sendErr != nil {
		entry.Error = sendErr.Error()
		logger.CtxWithError(ctx, "notification delivery failed", sendErr,
			"kind", kind, "talk_id", talkID)
	}

	if err := s.logRepo.Create(entry); err != nil {
		logger.CtxWithError(ctx, "failed to record notification", err,
			"kind", kind, "talk_id", talkID)
	}
}

package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wegovern/governance-api/internal/models"
	"github.com/wegovern/governance-api/internal/repository"
)

// EmailDispatcher mails every member of the motion's organization.
type EmailDispatcher struct {
	motionRepo  repository.MotionRepository
	voteRepo    repository.VoteRepository
	orgRepo     repository.OrganizationRepository
	sender      Sender
	frontendURL string
	logger      *slog.Logger
}

func NewEmailDispatcher(
	motionRepo repository.MotionRepository,
	voteRepo repository.VoteRepository,
	orgRepo repository.OrganizationRepository,
	sender Sender,
	frontendURL string,
	logger *slog.Logger,
) *EmailDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailDispatcher{
		motionRepo:  motionRepo,
		voteRepo:    voteRepo,
		orgRepo:     orgRepo,
		sender:      sender,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger.With("component", "email_dispatcher"),
	}
}

// NotifyNewMotion tells every member except the author that a motion is open for voting.
func (d *EmailDispatcher) NotifyNewMotion(ctx context.Context, motionID uint64) error {
	motion, err := d.motionRepo.FindByID(motionID, "Organization", "Author", "Tasks")
	if err != nil {
		return fmt.Errorf("load motion %d: %w", motionID, err)
	}

	html, err := render(newMotionTemplate, newMotionData{
		OrganizationName: motion.Organization.Name,
		AuthorName:       motion.Author.DisplayName(),
		Motion:           motion,
		Tasks:            motion.Tasks,
		MotionURL:        d.motionURL(motion.ID),
	})
	if err != nil {
		return fmt.Errorf("render new motion email: %w", err)
	}

	subject := fmt.Sprintf("[%s] New motion: %s", motion.Organization.Name, motionTitle(motion))
	return d.sendToMembers(ctx, motion.OrganizationID, motion.AuthorID, subject, html)
}

// NotifyMotionStatusChange tells every member how a motion was decided and who voted which way.
func (d *EmailDispatcher) NotifyMotionStatusChange(ctx context.Context, motionID uint64, status models.MotionStatus) error {
	motion, err := d.motionRepo.FindByID(motionID, "Organization")
	if err != nil {
		return fmt.Errorf("load motion %d: %w", motionID, err)
	}

	votes, err := d.voteRepo.ListByMotion(motionID, true)
	if err != nil {
		return fmt.Errorf("load votes for motion %d: %w", motionID, err)
	}

	data := statusChangeData{
		OrganizationName: motion.Organization.Name,
		Motion:           motion,
		Status:           string(status),
		MotionURL:        d.motionURL(motion.ID),
	}
	for _, v := range votes {
		switch v.Type {
		case models.VoteFor:
			data.VotesFor = append(data.VotesFor, v.User.DisplayName())
		case models.VoteAgainst:
			data.VotesAgainst = append(data.VotesAgainst, v.User.DisplayName())
		}
	}

	html, err := render(statusChangeTemplate, data)
	if err != nil {
		return fmt.Errorf("render status change email: %w", err)
	}

	subject := fmt.Sprintf("[%s] Motion %s: %s", motion.Organization.Name, status, motionTitle(motion))
	return d.sendToMembers(ctx, motion.OrganizationID, 0, subject, html)
}

// sendToMembers keeps going after a failed recipient and returns all failures joined.
func (d *EmailDispatcher) sendToMembers(ctx context.Context, orgID, excludeUserID uint64, subject, html string) error {
	members, err := d.orgRepo.ListMembers(orgID)
	if err != nil {
		return fmt.Errorf("load members of organization %d: %w", orgID, err)
	}

	var errs []error
	sent := 0
	for _, m := range members {
		if m.UserID == excludeUserID || m.User.Email == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := d.sender.Send(m.User.Email, subject, html); err != nil {
			errs = append(errs, err)
			continue
		}
		sent++
	}

	d.logger.Debug("notification sent", "organization_id", orgID, "subject", subject, "recipients", sent)
	return errors.Join(errs...)
}

func (d *EmailDispatcher) motionURL(motionID uint64) string {
	if d.frontendURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/motions/%d", d.frontendURL, motionID)
}

func motionTitle(m *models.Motion) string {
	if m.Summary != "" {
		return m.Summary
	}
	const maxTitleRunes = 60
	if r := []rune(m.Text); len(r) > maxTitleRunes {
		return string(r[:maxTitleRunes]) + "..."
	}
	return m.Text
}

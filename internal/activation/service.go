package activation

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallyops/reportdesk-backend/internal/settings"
	"github.com/tallyops/reportdesk-backend/pkg/db/models"
	"github.com/tallyops/reportdesk-backend/pkg/enums"
	pkgerrors "github.com/tallyops/reportdesk-backend/pkg/errors"
	"github.com/tallyops/reportdesk-backend/pkg/logger"
)

var adminGroupCodePattern = regexp.MustCompile(`^\d{4}$`)

// Options tunes code issuance.
type Options struct {
	CodeTTL          time.Duration
	MaxIssueAttempts int
}

// Service issues and consumes one-time activation codes and manages the
// standing admin group code.
type Service struct {
	repo     Repository
	settings settings.Repository
	logg     *logger.Logger
	opts     Options
	now      func() time.Time
}

// NewService builds an activation service with the required dependencies.
func NewService(repo Repository, settingsRepo settings.Repository, logg *logger.Logger, opts Options) *Service {
	if opts.CodeTTL <= 0 {
		opts.CodeTTL = 15 * time.Minute
	}
	if opts.MaxIssueAttempts <= 0 {
		opts.MaxIssueAttempts = 10
	}
	return &Service{
		repo:     repo,
		settings: settingsRepo,
		logg:     logg,
		opts:     opts,
		now:      time.Now,
	}
}

// Issue mints a fresh six-digit code for the named holder. Digits are drawn
// from crypto/rand and retried on collision with a live code.
func (s *Service) Issue(ctx context.Context, name string, codeType enums.ActivationCodeType) (*models.ActivationCode, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !codeType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown code type %q", codeType))
	}

	now := s.now()
	digits, err := s.freshDigits(ctx, now)
	if err != nil {
		return nil, err
	}

	code := &models.ActivationCode{
		ID:        uuid.New(),
		Code:      digits,
		Name:      name,
		Type:      codeType,
		CreatedAt: now,
		ExpiresAt: now.Add(s.opts.CodeTTL),
	}
	if err := s.repo.Create(ctx, code); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to store activation code")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"code_type": codeType.String(),
			"expires":   code.ExpiresAt,
		}), "activation code issued")
	}
	return code, nil
}

func (s *Service) freshDigits(ctx context.Context, now time.Time) (string, error) {
	for attempt := 0; attempt < s.opts.MaxIssueAttempts; attempt++ {
		digits, err := randomDigits(6)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to generate activation code")
		}
		taken, err := s.repo.CodeInUse(ctx, digits, now)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check activation code availability")
		}
		if !taken {
			return digits, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "could not find an unused activation code")
}

func randomDigits(n int) (string, error) {
	var builder strings.Builder
	for i := 0; i < n; i++ {
		digit, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		builder.WriteString(digit.String())
	}
	return builder.String(), nil
}

// Consume redeems a one-time code. Exactly one concurrent caller succeeds;
// the rest observe used or expired errors depending on what beat them.
func (s *Service) Consume(ctx context.Context, code string) (*models.ActivationCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}

	row, err := s.repo.FindLatestByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "activation code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to look up activation code")
	}

	now := s.now()
	if row.IsUsed {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyUsed, "activation code already used")
	}
	if !now.Before(row.ExpiresAt) {
		return nil, pkgerrors.New(pkgerrors.CodeExpired, "activation code expired")
	}

	consumed, err := s.repo.MarkUsed(ctx, row.ID.String(), now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to consume activation code")
	}
	if !consumed {
		// Lost the race. Re-read to report the accurate cause.
		fresh, freshErr := s.repo.FindLatestByCode(ctx, code)
		if freshErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, freshErr, "failed to re-check activation code")
		}
		if fresh.IsUsed {
			return nil, pkgerrors.New(pkgerrors.CodeAlreadyUsed, "activation code already used")
		}
		return nil, pkgerrors.New(pkgerrors.CodeExpired, "activation code expired")
	}

	row.IsUsed = true
	row.UsedAt = &now
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "code_type", row.Type.String()), "activation code consumed")
	}
	return row, nil
}

// List returns issued codes, optionally narrowed by type or liveness.
func (s *Service) List(ctx context.Context, codeType *enums.ActivationCodeType, activeOnly bool) ([]models.ActivationCode, error) {
	if codeType != nil && !codeType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown code type %q", *codeType))
	}
	rows, err := s.repo.List(ctx, codeType, activeOnly, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list activation codes")
	}
	return rows, nil
}

// PurgeExpired drops expired unconsumed codes and returns how many went.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	purged, err := s.repo.PurgeExpired(ctx, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to purge expired activation codes")
	}
	if purged > 0 && s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "purged", purged), "expired activation codes purged")
	}
	return purged, nil
}

// SetAdminGroupCode replaces the standing four-digit group activation code.
func (s *Service) SetAdminGroupCode(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if !adminGroupCodePattern.MatchString(code) {
		return pkgerrors.New(pkgerrors.CodeValidation, "admin group code must be exactly four digits")
	}
	if err := s.settings.Set(ctx, settings.KeyAdminGroupCode, code); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to store admin group code")
	}
	if s.logg != nil {
		s.logg.Info(ctx, "admin group code updated")
	}
	return nil
}

// AdminGroupCode returns the standing code, or empty when none is set.
func (s *Service) AdminGroupCode(ctx context.Context) (string, error) {
	value, err := s.settings.Value(ctx, settings.KeyAdminGroupCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to read admin group code")
	}
	return value, nil
}

// ActivateAdminGroup marks a chat group as an admin group when the presented
// code matches the standing code. Re-activation of a known group succeeds
// without side effects.
func (s *Service) ActivateAdminGroup(ctx context.Context, groupID, code string) error {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "group id is required")
	}

	expected, err := s.AdminGroupCode(ctx)
	if err != nil {
		return err
	}
	if expected == "" || strings.TrimSpace(code) != expected {
		return pkgerrors.New(pkgerrors.CodeInvalidCode, "invalid admin group code")
	}

	if err := s.repo.UpsertAdminGroup(ctx, groupID, s.now()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to activate admin group")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithGroupID(ctx, groupID), "admin group activated")
	}
	return nil
}

// ListAdminGroups returns every activated admin group, newest first.
func (s *Service) ListAdminGroups(ctx context.Context) ([]models.AdminGroup, error) {
	groups, err := s.repo.ListAdminGroups(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list admin groups")
	}
	return groups, nil
}

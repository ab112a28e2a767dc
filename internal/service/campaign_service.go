package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/logger"
	"github.com/edoto/marketplace/internal/models"
	"github.com/edoto/marketplace/internal/queue"
	"github.com/edoto/marketplace/internal/repository"

	"gorm.io/gorm"
)

// CampaignMailer sends the kit pickup code.
type CampaignMailer interface {
	SendCampaignOTP(toEmail, campaignTitle, otp string) error
}

// CampaignService runs kit-distribution drives: registration with OTP
// issue, OTP verification moving the kit counter.
type CampaignService struct {
	db           *gorm.DB
	campaignRepo *repository.GormCampaignRepository
	emailSvc     CampaignMailer
	queueClient  *queue.Client
}

// NewCampaignService creates the service.
func NewCampaignService(db *gorm.DB, campaignRepo *repository.GormCampaignRepository, emailSvc CampaignMailer, queueClient *queue.Client) *CampaignService {
	return &CampaignService{
		db:           db,
		campaignRepo: campaignRepo,
		emailSvc:     emailSvc,
		queueClient:  queueClient,
	}
}

// CreateCampaignInput is the admin create request.
type CreateCampaignInput struct {
	Title       string
	Slug        string
	Description string
	KitsTotal   int64
	StartsAt    *time.Time
	EndsAt      *time.Time
	IsActive    bool
}

// CreateCampaign records a new drive.
func (s *CampaignService) CreateCampaign(input CreateCampaignInput) (*models.Campaign, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Slug = strings.ToLower(strings.TrimSpace(input.Slug))
	if input.Title == "" || input.Slug == "" || input.KitsTotal <= 0 {
		return nil, ErrCampaignInvalid
	}
	existing, err := s.campaignRepo.GetBySlug(input.Slug)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCampaignInvalid, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: slug %s taken", ErrCampaignInvalid, input.Slug)
	}

	campaign := &models.Campaign{
		Title:       input.Title,
		Slug:        input.Slug,
		Description: input.Description,
		KitsTotal:   input.KitsTotal,
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		IsActive:    input.IsActive,
	}
	if err := s.campaignRepo.Create(campaign); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCampaignInvalid, err)
	}
	return campaign, nil
}

// UpdateCampaign applies admin edits.
func (s *CampaignService) UpdateCampaign(campaign *models.Campaign) error {
	if campaign == nil || campaign.ID == 0 {
		return ErrCampaignInvalid
	}
	return s.campaignRepo.Update(campaign)
}

// GetCampaign loads one drive by id.
func (s *CampaignService) GetCampaign(id uint) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCampaignInvalid, err)
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}
	return campaign, nil
}

// ListCampaigns pages through drives.
func (s *CampaignService) ListCampaigns(filter repository.CampaignListFilter) ([]models.Campaign, int64, error) {
	return s.campaignRepo.List(filter)
}

// RegisterInput is one registration attempt.
type RegisterInput struct {
	CampaignID uint
	Name       string
	Phone      string
	Email      string
}

// RegisterResult carries the issued code back for transports that hand
// it over out of band.
type RegisterResult struct {
	Registration *models.CampaignRegistration
	OTP          string
}

// Register signs a phone number up and issues the kit pickup code.
func (s *CampaignService) Register(input RegisterInput) (*RegisterResult, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Email = strings.TrimSpace(input.Email)
	if input.CampaignID == 0 || input.Name == "" || input.Phone == "" {
		return nil, ErrCampaignInvalid
	}

	var (
		reg  *models.CampaignRegistration
		code string
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.campaignRepo.WithTx(tx)
		campaign, err := repo.GetByIDForUpdate(input.CampaignID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCampaignInvalid, err)
		}
		if campaign == nil {
			return ErrCampaignNotFound
		}
		if err := checkCampaignWindow(campaign, time.Now()); err != nil {
			return err
		}
		if campaign.KitsDistributed >= campaign.KitsTotal {
			return ErrCampaignKitsExhausted
		}

		existing, err := repo.GetRegistration(input.CampaignID, input.Phone)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCampaignInvalid, err)
		}
		if existing != nil {
			return ErrCampaignAlreadyRegistered
		}

		code, err = generateOTP(constants.OTPLength)
		if err != nil {
			return err
		}
		expiresAt := otpExpiry(time.Now())
		reg = &models.CampaignRegistration{
			CampaignID:   campaign.ID,
			Name:         input.Name,
			Phone:        input.Phone,
			Email:        input.Email,
			OTPCode:      code,
			OTPExpiresAt: &expiresAt,
		}
		if err := repo.CreateRegistration(reg); err != nil {
			return fmt.Errorf("%w: %v", ErrCampaignInvalid, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Notification is best effort: the registrant can re-request the code.
	if s.queueClient != nil {
		if err := s.queueClient.EnqueueCampaignOTPNotify(queue.CampaignOTPNotifyPayload{
			CampaignID: input.CampaignID,
			Phone:      input.Phone,
		}); err != nil {
			logger.S().Warnw("campaign_otp_notify_enqueue_failed",
				"campaign_id", input.CampaignID,
				"error", err,
			)
		}
	}

	logger.S().Infow("campaign_registration_created",
		"campaign_id", input.CampaignID,
		"registration_id", reg.ID,
	)
	return &RegisterResult{Registration: reg, OTP: code}, nil
}

// NotifyRegistrant mails the pickup code for a registration. Queue
// workers call this from the notify task.
func (s *CampaignService) NotifyRegistrant(campaignID uint, phone string) error {
	campaign, err := s.campaignRepo.GetByID(campaignID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCampaignInvalid, err)
	}
	if campaign == nil {
		return ErrCampaignNotFound
	}
	reg, err := s.campaignRepo.GetRegistration(campaignID, phone)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCampaignInvalid, err)
	}
	if reg == nil {
		return ErrCampaignRegNotFound
	}
	if reg.Email == "" || reg.OTPCode == "" || reg.KitDeliveredAt != nil {
		return nil
	}
	return s.emailSvc.SendCampaignOTP(reg.Email, campaign.Title, reg.OTPCode)
}

// VerifyKitOTPInput is one handover attempt at the distribution point.
type VerifyKitOTPInput struct {
	CampaignID uint
	Phone      string
	Code       string
}

// VerifyKitOTP checks the code and marks the kit delivered.
func (s *CampaignService) VerifyKitOTP(input VerifyKitOTPInput) (*models.CampaignRegistration, error) {
	input.Phone = strings.TrimSpace(input.Phone)
	input.Code = strings.TrimSpace(input.Code)
	if input.CampaignID == 0 || input.Phone == "" || input.Code == "" {
		return nil, ErrOTPInvalid
	}

	var (
		verified *models.CampaignRegistration
		burnReg  *models.CampaignRegistration
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.campaignRepo.WithTx(tx)
		campaign, err := repo.GetByIDForUpdate(input.CampaignID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCampaignInvalid, err)
		}
		if campaign == nil {
			return ErrCampaignNotFound
		}

		reg, err := repo.GetRegistration(input.CampaignID, input.Phone)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCampaignInvalid, err)
		}
		if reg == nil {
			return ErrCampaignRegNotFound
		}
		if reg.KitDeliveredAt != nil {
			return ErrCampaignKitDelivered
		}
		if reg.OTPAttempts >= constants.OTPMaxAttempts {
			return ErrOTPAttemptsExceeded
		}
		if err := validateOTPWindow(reg.OTPExpiresAt, time.Now()); err != nil {
			return err
		}
		if reg.OTPCode == "" || reg.OTPCode != input.Code {
			burn := *reg
			burnReg = &burn
			return ErrOTPInvalid
		}
		if campaign.KitsDistributed >= campaign.KitsTotal {
			return ErrCampaignKitsExhausted
		}

		now := time.Now()
		reg.OTPVerifiedAt = &now
		reg.KitDeliveredAt = &now
		if err := repo.UpdateRegistration(reg); err != nil {
			return fmt.Errorf("%w: %v", ErrCampaignInvalid, err)
		}
		campaign.KitsDistributed++
		if err := repo.Update(campaign); err != nil {
			return fmt.Errorf("%w: %v", ErrCampaignInvalid, err)
		}
		verified = reg
		return nil
	})
	if err != nil {
		if burnReg != nil {
			burnReg.OTPAttempts++
			if updErr := s.campaignRepo.UpdateRegistration(burnReg); updErr != nil {
				logger.S().Warnw("campaign_otp_attempt_burn_failed",
					"registration_id", burnReg.ID,
					"error", updErr,
				)
			}
		}
		return nil, err
	}

	logger.S().Infow("campaign_kit_delivered",
		"campaign_id", input.CampaignID,
		"registration_id", verified.ID,
	)
	return verified, nil
}

func checkCampaignWindow(campaign *models.Campaign, now time.Time) error {
	if !campaign.IsActive {
		return ErrCampaignInactive
	}
	if campaign.StartsAt != nil && now.Before(*campaign.StartsAt) {
		return ErrCampaignInactive
	}
	if campaign.EndsAt != nil && now.After(*campaign.EndsAt) {
		return ErrCampaignInactive
	}
	return nil
}

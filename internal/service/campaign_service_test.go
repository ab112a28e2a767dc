package service

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/models"
	"github.com/edoto/marketplace/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type recordingCampaignMailer struct {
	sent []string
	fail error
}

func (m *recordingCampaignMailer) SendCampaignOTP(toEmail, campaignTitle, otp string) error {
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, fmt.Sprintf("%s|%s|%s", toEmail, campaignTitle, otp))
	return nil
}

type campaignFixture struct {
	db     *gorm.DB
	svc    *CampaignService
	mailer *recordingCampaignMailer
}

func setupCampaignTest(t *testing.T) *campaignFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:campaign_svc_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Campaign{}, &models.CampaignRegistration{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	mailer := &recordingCampaignMailer{}
	svc := NewCampaignService(db, repository.NewCampaignRepository(db), mailer, nil)
	return &campaignFixture{db: db, svc: svc, mailer: mailer}
}

func (f *campaignFixture) seedCampaign(t *testing.T, kits int64) *models.Campaign {
	t.Helper()
	campaign, err := f.svc.CreateCampaign(CreateCampaignInput{
		Title:     "School Kits 2026",
		Slug:      "school-kits-2026",
		KitsTotal: kits,
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}
	return campaign
}

func TestCampaignRegisterIssuesOTP(t *testing.T) {
	f := setupCampaignTest(t)
	campaign := f.seedCampaign(t, 2)

	result, err := f.svc.Register(RegisterInput{
		CampaignID: campaign.ID,
		Name:       "Afi",
		Phone:      "+22991112233",
		Email:      "afi@example.test",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if !regexp.MustCompile(`^\d{6}$`).MatchString(result.OTP) {
		t.Fatalf("otp must be 6 digits, got %q", result.OTP)
	}
	if result.Registration.OTPExpiresAt == nil {
		t.Fatalf("otp expiry must be set")
	}

	// The same phone cannot register twice for one campaign.
	if _, err := f.svc.Register(RegisterInput{
		CampaignID: campaign.ID,
		Name:       "Afi",
		Phone:      "+22991112233",
	}); !errors.Is(err, ErrCampaignAlreadyRegistered) {
		t.Fatalf("want ErrCampaignAlreadyRegistered got %v", err)
	}
}

func TestCampaignRegisterWindowAndKits(t *testing.T) {
	f := setupCampaignTest(t)
	campaign := f.seedCampaign(t, 1)

	// Use up the last kit.
	if err := f.db.Model(&models.Campaign{}).Where("id = ?", campaign.ID).
		Update("kits_distributed", 1).Error; err != nil {
		t.Fatalf("exhaust kits failed: %v", err)
	}
	if _, err := f.svc.Register(RegisterInput{
		CampaignID: campaign.ID, Name: "Late", Phone: "+22990000009",
	}); !errors.Is(err, ErrCampaignKitsExhausted) {
		t.Fatalf("want ErrCampaignKitsExhausted got %v", err)
	}

	// An expired window rejects registrations.
	past := time.Now().Add(-time.Hour)
	if err := f.db.Model(&models.Campaign{}).Where("id = ?", campaign.ID).
		Updates(map[string]interface{}{"kits_distributed": 0, "ends_at": past}).Error; err != nil {
		t.Fatalf("expire campaign failed: %v", err)
	}
	if _, err := f.svc.Register(RegisterInput{
		CampaignID: campaign.ID, Name: "Late", Phone: "+22990000009",
	}); !errors.Is(err, ErrCampaignInactive) {
		t.Fatalf("want ErrCampaignInactive got %v", err)
	}
}

func TestCampaignVerifyKitOTP(t *testing.T) {
	f := setupCampaignTest(t)
	campaign := f.seedCampaign(t, 2)

	result, err := f.svc.Register(RegisterInput{
		CampaignID: campaign.ID, Name: "Afi", Phone: "+22991112233",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	reg, err := f.svc.VerifyKitOTP(VerifyKitOTPInput{
		CampaignID: campaign.ID,
		Phone:      "+22991112233",
		Code:       result.OTP,
	})
	if err != nil {
		t.Fatalf("verify kit otp failed: %v", err)
	}
	if reg.KitDeliveredAt == nil || reg.OTPVerifiedAt == nil {
		t.Fatalf("delivery must be stamped: %+v", reg)
	}

	got, err := f.svc.GetCampaign(campaign.ID)
	if err != nil {
		t.Fatalf("reload campaign failed: %v", err)
	}
	if got.KitsDistributed != 1 {
		t.Fatalf("kits_distributed want 1 got %d", got.KitsDistributed)
	}

	// A delivered kit cannot be claimed again.
	if _, err := f.svc.VerifyKitOTP(VerifyKitOTPInput{
		CampaignID: campaign.ID,
		Phone:      "+22991112233",
		Code:       result.OTP,
	}); !errors.Is(err, ErrCampaignKitDelivered) {
		t.Fatalf("want ErrCampaignKitDelivered got %v", err)
	}
}

func TestCampaignVerifyKitOTPWrongCodeBurnsAttempt(t *testing.T) {
	f := setupCampaignTest(t)
	campaign := f.seedCampaign(t, 2)

	result, err := f.svc.Register(RegisterInput{
		CampaignID: campaign.ID, Name: "Afi", Phone: "+22991112233",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	wrong := "000000"
	if wrong == result.OTP {
		wrong = "000001"
	}

	for i := 1; i <= constants.OTPMaxAttempts; i++ {
		if _, err := f.svc.VerifyKitOTP(VerifyKitOTPInput{
			CampaignID: campaign.ID, Phone: "+22991112233", Code: wrong,
		}); !errors.Is(err, ErrOTPInvalid) {
			t.Fatalf("attempt %d want ErrOTPInvalid got %v", i, err)
		}
		var reg models.CampaignRegistration
		if err := f.db.Where("campaign_id = ? AND phone = ?", campaign.ID, "+22991112233").
			First(&reg).Error; err != nil {
			t.Fatalf("reload registration failed: %v", err)
		}
		if reg.OTPAttempts != i {
			t.Fatalf("attempt %d: otp_attempts want %d got %d", i, i, reg.OTPAttempts)
		}
	}

	// The ceiling locks out even the right code.
	if _, err := f.svc.VerifyKitOTP(VerifyKitOTPInput{
		CampaignID: campaign.ID, Phone: "+22991112233", Code: result.OTP,
	}); !errors.Is(err, ErrOTPAttemptsExceeded) {
		t.Fatalf("want ErrOTPAttemptsExceeded got %v", err)
	}
}

func TestCampaignNotifyRegistrant(t *testing.T) {
	f := setupCampaignTest(t)
	campaign := f.seedCampaign(t, 2)

	if _, err := f.svc.Register(RegisterInput{
		CampaignID: campaign.ID, Name: "Afi", Phone: "+22991112233", Email: "afi@example.test",
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := f.svc.NotifyRegistrant(campaign.ID, "+22991112233"); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if len(f.mailer.sent) != 1 {
		t.Fatalf("mail want 1 got %d", len(f.mailer.sent))
	}

	// Registrations without an email address are skipped silently.
	if _, err := f.svc.Register(RegisterInput{
		CampaignID: campaign.ID, Name: "Kodjo", Phone: "+22994445566",
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := f.svc.NotifyRegistrant(campaign.ID, "+22994445566"); err != nil {
		t.Fatalf("notify without email must not error: %v", err)
	}
	if len(f.mailer.sent) != 1 {
		t.Fatalf("no mail expected for registration without email")
	}

	if err := f.svc.NotifyRegistrant(campaign.ID, "+22900000000"); !errors.Is(err, ErrCampaignRegNotFound) {
		t.Fatalf("want ErrCampaignRegNotFound got %v", err)
	}
}

func TestCreateCampaignRejectsDuplicateSlug(t *testing.T) {
	f := setupCampaignTest(t)
	f.seedCampaign(t, 2)

	if _, err := f.svc.CreateCampaign(CreateCampaignInput{
		Title: "Other", Slug: "school-kits-2026", KitsTotal: 1, IsActive: true,
	}); !errors.Is(err, ErrCampaignInvalid) {
		t.Fatalf("duplicate slug want ErrCampaignInvalid got %v", err)
	}
}

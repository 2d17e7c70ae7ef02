package testutil

import (
	"context"
	"io"
	"log"
	"net/mail"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/sauti/core"
	"github.com/trezcool/sauti/core/report"
	"github.com/trezcool/sauti/core/user"
	"github.com/trezcool/sauti/services/logger"
)

// InstitutionDomain is the email domain test users belong to.
const InstitutionDomain = "uni.test"

// NewConfig returns a config fit for tests, independent of the environment.
func NewConfig() *core.Config {
	conf := &core.Config{
		AppName:                "Sauti",
		Env:                    "TEST",
		Build:                  "test",
		TestMode:               true,
		SecretKey:              "test-secret",
		InstitutionEmailDomain: InstitutionDomain,
		DefaultFromEmail:       mail.Address{Name: "Sauti", Address: "noreply@" + InstitutionDomain},
		FrontendBaseURL:        "http://localhost:3000",
	}
	conf.Auth.SigningKey = "test-signing-key"
	conf.Auth.Issuer = "https://auth." + InstitutionDomain
	return conf
}

// NewLogger returns a silent logger.
func NewLogger() core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), NewConfig())
	logger.Enable(false)
	return logger
}

// NewValidator returns a validator with all the app's validators registered.
func NewValidator() *validator.Validate {
	validate, _ := NewValidatorAndTranslator()
	return validate
}

// NewValidatorAndTranslator also returns the translator holding the validation messages.
func NewValidatorAndTranslator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator, InstitutionDomain)
	report.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(t *testing.T, repo user.Repository, email string, role user.Role, createdAt ...time.Time) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr, err := repo.CreateUser(context.Background(), user.User{
		SubjectID: uuid.New().String(),
		Email:     email,
		FirstName: "Test",
		LastName:  string(role),
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

// CreateReport inserts a SUBMITTED report for `student` directly, bypassing the submission guard.
func CreateReport(t *testing.T, repo report.Repository, student user.User, title string, createdAt ...time.Time) report.Report {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	rpt, err := repo.CreateReport(
		context.Background(),
		report.Report{
			Title:       title,
			Description: title + " description",
			Category:    "Other",
			Priority:    report.PriorityMedium,
			Status:      report.StatusSubmitted,
			StudentID:   student.ID,
			Version:     1,
			CreatedAt:   tstamp,
			UpdatedAt:   tstamp,
		},
		report.Update{
			Message:   "Report submitted",
			Status:    report.StatusSubmitted,
			ActorID:   student.ID,
			CreatedAt: tstamp,
		},
	)
	if err != nil {
		t.Fatalf("CreateReport(): %v", err)
	}
	return rpt
}

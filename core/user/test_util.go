package user

import (
	"time"

	"github.com/trezcool/ratiba/core"
)

// NewServiceMock returns a Service whose password reset tokens are made and checked at now().
func NewServiceMock(repo Repository, mailSvc core.EmailService, conf *core.Config, now func() time.Time) Service {
	gen := newTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta)
	gen.now = now
	return &service{
		repo:     repo,
		mailSvc:  mailSvc,
		tokenGen: gen,
	}
}

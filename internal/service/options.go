package service

import (
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Options carries the collaborators shared by every service. Zero values are
// replaced with working defaults.
type Options struct {
	Clock         Clock
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
	DefaultRegion string
	BcryptCost    int
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = SystemClock{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.DefaultRegion == "" {
		o.DefaultRegion = "RW"
	}
	if o.BcryptCost == 0 {
		o.BcryptCost = bcrypt.DefaultCost
	}
	return o
}

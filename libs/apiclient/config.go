package apiclient

import (
	"github.com/petsocial/petsocial/libs/config"
)

// ConfigFromEnv reads PETSOCIAL_API_URL, PETSOCIAL_REQUEST_TIMEOUT and
// PETSOCIAL_RATE_PER_SECOND.
func ConfigFromEnv() (Config, error) {
	timeout, err := config.Duration("PETSOCIAL_REQUEST_TIMEOUT", DefaultTimeout)
	if err != nil {
		return Config{}, err
	}
	rps, err := config.Float("PETSOCIAL_RATE_PER_SECOND", 0)
	if err != nil {
		return Config{}, err
	}
	return Config{
		BaseURL:       config.String("PETSOCIAL_API_URL", DefaultBaseURL),
		Timeout:       timeout,
		RatePerSecond: rps,
	}, nil
}

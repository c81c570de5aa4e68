package restricted

import (
	"strings"

	"go.uber.org/zap"
)

// Checker vetoes autonomous sends toward configured recipient domains.
// Mail to a restricted domain always requires explicit confirmation, no
// matter how confident the classifier is.
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new restricted-domain checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalized := make([]string, len(domains))
	for i, domain := range domains {
		normalized[i] = strings.ToLower(strings.TrimSpace(domain))
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized restricted-domain checker", zap.Strings("domains", normalized))
	}

	return &Checker{
		domains: normalized,
		logger:  logger,
	}
}

// IsRestricted checks if the recipient's domain is restricted
func (c *Checker) IsRestricted(email string) bool {
	if len(c.domains) == 0 {
		return false
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	domain := strings.ToLower(parts[1])

	for _, restricted := range c.domains {
		if restricted == domain {
			if c.logger != nil {
				c.logger.Debug("Recipient domain is restricted",
					zap.String("domain", domain),
					zap.String("email", email))
			}
			return true
		}
	}

	return false
}

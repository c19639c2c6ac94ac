package vip

import (
	"strings"

	"go.uber.org/zap"
)

// Checker escalates mail from configured sender domains
type Checker struct {
	domains map[string]struct{}
	logger  *zap.Logger
}

// NewChecker creates a VIP checker. Entries may be written as "example.com"
// or "@example.com"; subdomains of a listed domain match too.
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	set := make(map[string]struct{}, len(domains))
	var listed []string
	for _, domain := range domains {
		d := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), "@")
		if d == "" {
			continue
		}
		if _, ok := set[d]; !ok {
			set[d] = struct{}{}
			listed = append(listed, d)
		}
	}

	if len(listed) > 0 && logger != nil {
		logger.Info("Initialized VIP sender checker", zap.Strings("domains", listed))
	}

	return &Checker{
		domains: set,
		logger:  logger,
	}
}

// IsPriority reports whether the sender address belongs to a VIP domain
func (c *Checker) IsPriority(sender string) bool {
	if len(c.domains) == 0 {
		return false
	}

	at := strings.LastIndex(sender, "@")
	if at < 0 || at == len(sender)-1 {
		return false
	}
	domain := strings.ToLower(strings.TrimSpace(sender[at+1:]))

	for d := domain; d != ""; {
		if _, ok := c.domains[d]; ok {
			if c.logger != nil {
				c.logger.Debug("Sender is VIP",
					zap.String("domain", d),
					zap.String("sender", sender))
			}
			return true
		}
		dot := strings.Index(d, ".")
		if dot < 0 {
			break
		}
		d = d[dot+1:]
	}

	return false
}

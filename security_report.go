package cookieauth

import "time"

// SecurityReport summarizes the security-relevant posture of a built Engine.
// It never contains key material.
type SecurityReport struct {
	ProductionMode        bool
	SigningAlgorithm      string
	SecretBytes           int
	AccessTTL             time.Duration
	RefreshTTL            time.Duration
	ClockSkew             time.Duration
	CookieSecure          bool
	CookieSameSite        string
	RefreshBindingEnabled bool
	LoginThrottleActive   bool
	IPThrottleActive      bool
	AuditEnabled          bool
	Argon2                PasswordConfigReport
	LintCodes             []string
}

type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	cfg := e.config
	return SecurityReport{
		ProductionMode:        cfg.Security.ProductionMode,
		SigningAlgorithm:      "HS256",
		SecretBytes:           len(cfg.JWT.Secret),
		AccessTTL:             cfg.JWT.AccessTTL,
		RefreshTTL:            cfg.JWT.RefreshTTL,
		ClockSkew:             cfg.JWT.ClockSkew,
		CookieSecure:          cfg.Cookie.Secure,
		CookieSameSite:        sameSiteName(cfg.Cookie.SameSite),
		RefreshBindingEnabled: cfg.Security.EnforceRefreshBinding,
		LoginThrottleActive:   e.rateLimiter != nil,
		IPThrottleActive:      e.rateLimiter != nil && cfg.Security.EnableIPThrottle,
		AuditEnabled:          e.audit != nil,
		Argon2: PasswordConfigReport{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		},
		LintCodes: cfg.Lint().Codes(),
	}
}

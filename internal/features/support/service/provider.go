package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"erp-telegram-bot/internal/common/cache"
	"erp-telegram-bot/internal/platform/erp"
)

const cacheKey = "support:contact"

var errNoContact = errors.New("erp returned no support contact")

type Gateway interface {
	GetSupportContact(ctx context.Context) (*erp.Result[erp.SupportContactPayload], error)
}

// Provider resolves the operator contact shown in help and failure messages.
type Provider struct {
	gateway  Gateway
	cache    *cache.CacheService
	ttl      time.Duration
	fallback erp.SupportContact
	logger   zerolog.Logger
}

// NewProvider builds a provider. cache may be nil, in which case the ERP is
// asked every time.
func NewProvider(gateway Gateway, c *cache.CacheService, ttl time.Duration, fallback erp.SupportContact, logger zerolog.Logger) *Provider {
	return &Provider{
		gateway:  gateway,
		cache:    c,
		ttl:      ttl,
		fallback: fallback,
		logger:   logger.With().Str("component", "support").Logger(),
	}
}

// Contact never fails: the configured operator is returned when the ERP and
// the cache both come up empty.
func (p *Provider) Contact(ctx context.Context) erp.SupportContact {
	var contact erp.SupportContact
	var err error
	if p.cache != nil {
		err = p.cache.GetOrSet(ctx, cacheKey, &contact, p.ttl, func() (interface{}, error) {
			return p.fetch(ctx)
		})
	} else {
		contact, err = p.fetch(ctx)
	}
	if err != nil {
		p.logger.Debug().Err(err).Msg("Using configured operator contact")
		return p.fallback
	}
	return p.merge(contact)
}

// Fallback returns the configured operator without touching the network.
func (p *Provider) Fallback() erp.SupportContact {
	return p.fallback
}

func (p *Provider) fetch(ctx context.Context) (erp.SupportContact, error) {
	res, err := p.gateway.GetSupportContact(ctx)
	if err != nil {
		return erp.SupportContact{}, err
	}
	if !res.Success || res.Data.Contact == nil || res.Data.Contact.Phone == "" {
		return erp.SupportContact{}, errNoContact
	}
	return *res.Data.Contact, nil
}

func (p *Provider) merge(c erp.SupportContact) erp.SupportContact {
	if c.Name == "" {
		c.Name = p.fallback.Name
	}
	if c.Phone == "" {
		c.Phone = p.fallback.Phone
	}
	return c
}

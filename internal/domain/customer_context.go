package domain

import (
	"fmt"

	"github.com/phrazzld/invoice-api/internal/settings"
)

// CustomerContext is one consistent read of a customer together with the
// group and tenant it inherits settings from. Group is nil when the customer
// has none.
type CustomerContext struct {
	Tenant   *Tenant
	Group    *Group
	Customer *Customer
}

// Validate checks that the context is complete and its entities are related.
func (cc *CustomerContext) Validate() error {
	if cc.Tenant == nil || cc.Customer == nil {
		return ErrIncompleteContext
	}
	if cc.Customer.TenantID != cc.Tenant.ID {
		return fmt.Errorf("%w: customer %s", ErrTenantMismatch, cc.Customer.ID)
	}
	if cc.Group != nil {
		if cc.Group.TenantID != cc.Tenant.ID {
			return fmt.Errorf("%w: group %s", ErrTenantMismatch, cc.Group.ID)
		}
		if cc.Customer.GroupID == nil || *cc.Customer.GroupID != cc.Group.ID {
			return fmt.Errorf("%w: customer %s is not in group %s", ErrValidation, cc.Customer.ID, cc.Group.ID)
		}
	}
	return nil
}

// Cascade builds the settings cascade for the customer.
func (cc *CustomerContext) Cascade(e *settings.Engine) *settings.Cascade {
	var tenant, group, customer settings.Object
	if cc.Tenant != nil {
		tenant = cc.Tenant.Settings
		if tenant == nil {
			tenant = settings.Object{}
		}
	}
	if cc.Group != nil {
		group = cc.Group.Settings
	}
	if cc.Customer != nil {
		customer = cc.Customer.Settings
	}
	return e.Cascade(tenant, group, customer)
}

// Owner returns the entity at level, or settings.ErrSettingsNotFound when the
// context has no entity there.
func (cc *CustomerContext) Owner(level settings.Level) (settings.Owner, error) {
	switch level {
	case settings.LevelTenant:
		if cc.Tenant != nil {
			return cc.Tenant, nil
		}
	case settings.LevelGroup:
		if cc.Group != nil {
			return cc.Group, nil
		}
	case settings.LevelCustomer:
		if cc.Customer != nil {
			return cc.Customer, nil
		}
	}
	return nil, fmt.Errorf("%w: no %s in context", settings.ErrSettingsNotFound, level)
}

// Package domain contains the entities that own settings objects: tenants,
// the customer groups inside them, and customers. Each entity implements
// settings.Owner so the settings engine can write to it without knowing how
// it is stored.
package domain

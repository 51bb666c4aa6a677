// Package metrics exposes Prometheus counters for settings traffic: rejected
// and dropped payload keys, saves, cascade lookups and HTTP requests.
package metrics

package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/invoice-api/internal/platform/logger"
	"github.com/phrazzld/invoice-api/internal/settings"
)

// Fallbacks used when a customer's chain points at an identifier the
// reference catalog does not know.
const (
	DefaultCurrencyCode = "USD"
	DefaultLocale       = "en"
	defaultPrecision    = 2
)

// Localization is the customer's effective presentation settings joined
// with their reference catalog entries.
type Localization struct {
	CurrencyID       string `json:"currency_id"`
	CurrencyCode     string `json:"currency_code"`
	CurrencySymbol   string `json:"currency_symbol,omitempty"`
	Precision        int    `json:"precision"`
	ShowCurrencyCode bool   `json:"show_currency_code"`
	LanguageID       string `json:"language_id"`
	Locale           string `json:"locale"`
	DateFormatID     string `json:"date_format_id"`
	DateFormat       string `json:"date_format,omitempty"`
	DateLayout       string `json:"date_layout,omitempty"`
	TimezoneID       string `json:"timezone_id"`
	Timezone         string `json:"timezone,omitempty"`
}

// Localization implements SettingsService.Localization
func (s *settingsServiceImpl) Localization(ctx context.Context, customerID uuid.UUID) (*Localization, error) {
	_, cascade, err := s.loadCascade(ctx, "localization", customerID)
	if err != nil {
		return nil, err
	}
	return s.localize(ctx, cascade), nil
}

// CurrencyCode implements SettingsService.CurrencyCode
func (s *settingsServiceImpl) CurrencyCode(ctx context.Context, customerID uuid.UUID) (string, error) {
	loc, err := s.Localization(ctx, customerID)
	if err != nil {
		return "", err
	}
	return loc.CurrencyCode, nil
}

// Locale implements SettingsService.Locale
func (s *settingsServiceImpl) Locale(ctx context.Context, customerID uuid.UUID) (string, error) {
	loc, err := s.Localization(ctx, customerID)
	if err != nil {
		return "", err
	}
	return loc.Locale, nil
}

// localize never fails: unknown identifiers fall back to the defaults and
// are logged.
func (s *settingsServiceImpl) localize(ctx context.Context, c *settings.Cascade) *Localization {
	log := logger.FromContextOrDefault(ctx, s.logger)
	loc := &Localization{
		CurrencyCode: DefaultCurrencyCode,
		Precision:    defaultPrecision,
		Locale:       DefaultLocale,
	}

	loc.CurrencyID = s.identifier(c, "currency_id")
	if cur, err := s.catalog.Currency(loc.CurrencyID); err == nil {
		loc.CurrencyCode = cur.Code
		loc.CurrencySymbol = cur.Symbol
		loc.Precision = cur.Precision
	} else {
		log.Debug("currency fallback", slog.String("currency_id", loc.CurrencyID))
	}
	if show, err := c.Bool("show_currency_code"); err == nil {
		loc.ShowCurrencyCode = show
	}

	loc.LanguageID = s.identifier(c, "language_id")
	if lang, err := s.catalog.Language(loc.LanguageID); err == nil {
		loc.Locale = lang.Locale
	} else {
		log.Debug("locale fallback", slog.String("language_id", loc.LanguageID))
	}

	loc.DateFormatID = s.identifier(c, "date_format_id")
	if df, err := s.catalog.DateFormat(loc.DateFormatID); err == nil {
		loc.DateFormat = df.Format
		loc.DateLayout = df.Layout
	}

	loc.TimezoneID = s.identifier(c, "timezone_id")
	if tz, err := s.catalog.Timezone(loc.TimezoneID); err == nil {
		loc.Timezone = tz.Name
	}

	return loc
}

// identifier resolves a stored-as-string identifier key, recording the
// lookup. Unresolvable keys yield "".
func (s *settingsServiceImpl) identifier(c *settings.Cascade, key string) string {
	res := c.Lookup(key)
	s.recorder.ObserveLookup(res)
	if !res.Found() {
		return ""
	}
	id, err := c.String(key)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(id)
}

// PaymentGatewayIDs implements SettingsService.PaymentGatewayIDs
func (s *settingsServiceImpl) PaymentGatewayIDs(ctx context.Context, customerID uuid.UUID) ([]string, error) {
	_, cascade, err := s.loadCascade(ctx, "payment_gateway_ids", customerID)
	if err != nil {
		return nil, err
	}
	return splitGatewayIDs(s.identifier(cascade, "company_gateway_ids")), nil
}

// splitGatewayIDs turns "3, 1,3" into ["3", "1"], keeping first occurrences
// in order.
func splitGatewayIDs(list string) []string {
	ids := []string{}
	seen := make(map[string]struct{})
	for _, part := range strings.Split(list, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

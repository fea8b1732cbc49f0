package config

import "slices"

// RedactedConfig returns a shallow copy of cfg with sensitive fields replaced
// by the redaction placeholder "***". Use this when logging or printing the
// active configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg // shallow copy of the top-level struct

	redact(&out.Server.APIKey)

	redact(&out.Quotes.RapidAPIKey)
	redact(&out.Quotes.AlphaVantageKey)
	redact(&out.Quotes.PolygonKey)

	redact(&out.Generation.GeminiAPIKey)
	redact(&out.Generation.OpenAIAPIKey)

	redact(&out.Upstox.ClientSecret)

	redact(&out.Redis.Password)

	redact(&out.News.APIKey)

	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// Copy slices so callers cannot mutate the original through the redacted
	// copy.
	out.Server.CORSOrigins = slices.Clone(cfg.Server.CORSOrigins)
	out.Quotes.Order = slices.Clone(cfg.Quotes.Order)
	out.Feed.Symbols = slices.Clone(cfg.Feed.Symbols)
	out.Notify.Events = slices.Clone(cfg.Notify.Events)

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}

package producer

import (
	"context"

	"github.com/dogmatiq/dodeca/logging"
)

// filterBySettings returns the subset of userIDs for which enabled() reports
// true.
//
// Users without a stored preference record are included; notifications are
// opt-out. If the preferences can not be looked up at all, every user is
// included, favouring a possibly-unwanted notification over a missed one.
func filterBySettings(
	ctx context.Context,
	repo SettingsRepository,
	logger logging.Logger,
	userIDs []string,
	enabled func(Settings) bool,
) []string {
	if len(userIDs) == 0 {
		return nil
	}

	settings, err := repo.SettingsForUsers(ctx, userIDs)
	if err != nil {
		logging.Log(
			logger,
			"unable to load notification settings, notifying all candidates: %s",
			err,
		)

		return userIDs
	}

	var result []string

	for _, id := range userIDs {
		s, ok := settings[id]
		if !ok || enabled(s) {
			result = append(result, id)
		}
	}

	return result
}

// collectTokens returns the push tokens of the given users, flattened across
// all of their devices.
//
// A lookup failure is treated the same as having no tokens.
func collectTokens(
	ctx context.Context,
	repo TokenRepository,
	logger logging.Logger,
	userIDs []string,
) []string {
	if len(userIDs) == 0 {
		return nil
	}

	byUser, err := repo.TokensForUsers(ctx, userIDs)
	if err != nil {
		logging.Log(
			logger,
			"unable to load push tokens: %s",
			err,
		)

		return nil
	}

	var tokens []string

	for _, id := range userIDs {
		tokens = append(tokens, byUser[id]...)
	}

	return tokens
}

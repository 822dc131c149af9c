package cern

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cernauth/cernauth/internal/db/controller/remoteaccount"
	"github.com/cernauth/cernauth/internal/db/models"
)

// timestampLayouts are accepted for the snapshot's updated field. Naive
// timestamps are read as UTC.
var timestampLayouts = []string{ //nolint:gochecknoglobals
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses a stored refresh timestamp.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// ShouldRefresh reports whether a snapshot updated at updated is stale at
// now. The snapshot is fresh while updated is after now+window. Missing and
// unparsable timestamps are stale.
func ShouldRefresh(updated string, window time.Duration, now time.Time) bool {
	if updated == "" {
		return true
	}

	t, ok := ParseTimestamp(updated)
	if !ok {
		log.Debug().Str("updated", updated).Msg("unparsable refresh timestamp, treating snapshot as stale")

		return true
	}

	return !t.After(now.Add(window))
}

// Refresh recomputes the filtered groups and the extra fields from res and
// commits them, together with a fresh timestamp, into the account snapshot.
// The new group list replaces the previous one. It returns the filtered groups.
func (a *RemoteApp) Refresh(_ context.Context, account *models.RemoteAccount, res Resource) ([]string, error) {
	groups := a.filter.Filter(res.Groups())

	fields := make(map[string]any)
	for k, v := range a.config.ExtraDataSerializer(res) {
		fields[k] = v
	}

	fields[models.ExtraGroups] = groups
	fields[models.ExtraUpdated] = a.now().UTC().Format(time.RFC3339Nano)

	if err := remoteaccount.UpdateExtraData(a.db, account, account.ExtraData.Merge(fields)); err != nil {
		groupRefreshes.WithLabelValues("error").Inc()

		return nil, err
	}

	groupRefreshes.WithLabelValues("ok").Inc()

	log.Debug().
		Uint64("account_id", account.ID).
		Int("groups", len(groups)).
		Msg("refreshed remote account groups")

	return groups, nil
}

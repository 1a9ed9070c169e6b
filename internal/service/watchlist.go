package service

import (
	"context"
	"log/slog"
	"maps"

	"github.com/cineza/cineza-server/internal/domain"
	domainerrors "github.com/cineza/cineza-server/internal/errors"
	"github.com/cineza/cineza-server/internal/store"
)

// Reconciler maps an external record to its catalog entry.
// *CatalogService implements it.
type Reconciler interface {
	Ensure(ctx context.Context, r domain.ExternalRecord) (*domain.CatalogEntry, error)
}

// WatchlistTarget names the item to toggle: a known catalog entry id, or an
// external record that may not be in the catalog yet.
type WatchlistTarget struct {
	CatalogEntryID string
	Record         *domain.ExternalRecord
}

// WatchlistResult is the membership after a toggle.
type WatchlistResult struct {
	InWatchlist    bool   `json:"in_watchlist"`
	CatalogEntryID string `json:"catalog_entry_id"`
}

// WatchlistService toggles catalog entries on a user's watchlist.
type WatchlistService struct {
	profiles store.ProfileStore
	catalog  store.CatalogStore
	ensure   Reconciler
	logger   *slog.Logger
}

// NewWatchlistService creates the service.
func NewWatchlistService(profiles store.ProfileStore, catalog store.CatalogStore, ensure Reconciler, logger *slog.Logger) *WatchlistService {
	return &WatchlistService{profiles: profiles, catalog: catalog, ensure: ensure, logger: logger}
}

// Toggle adds the target when absent and removes it when present. The id
// array and the external-key index are written in one update.
func (s *WatchlistService) Toggle(ctx context.Context, userID string, target WatchlistTarget) (*WatchlistResult, error) {
	if target.CatalogEntryID == "" && target.Record == nil {
		return nil, domainerrors.Validation("catalog entry id or external record is required")
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, storeError("load profile", "user", err)
	}

	entryID, key, err := s.resolve(ctx, profile, target)
	if err != nil {
		return nil, err
	}

	index := maps.Clone(profile.WatchlistIndex)
	if index == nil {
		index = map[string]string{}
	}

	var watchlist []string
	present := profile.InWatchlist(entryID)
	if present {
		watchlist = domain.WithoutID(profile.Watchlist, entryID)
		maps.DeleteFunc(index, func(_ string, v string) bool { return v == entryID })
	} else {
		watchlist = domain.WithID(profile.Watchlist, entryID)
		if key != "" {
			index[key] = entryID
		}
	}

	if err := s.profiles.SetWatchlist(ctx, userID, watchlist, index); err != nil {
		return nil, storeError("update watchlist", "user", err)
	}

	s.logger.Debug("watchlist toggled", "user_id", userID, "catalog_entry_id", entryID, "in_watchlist", !present)
	return &WatchlistResult{InWatchlist: !present, CatalogEntryID: entryID}, nil
}

// resolve finds the catalog entry id and its external key. An index hit
// avoids reconciliation entirely.
func (s *WatchlistService) resolve(ctx context.Context, profile *domain.UserProfile, target WatchlistTarget) (string, string, error) {
	if target.CatalogEntryID != "" {
		entry, err := s.catalog.GetCatalogEntry(ctx, target.CatalogEntryID)
		if err != nil {
			return "", "", storeError("load catalog entry", "catalog entry", err)
		}
		return entry.ID, entry.ExternalKey(), nil
	}

	key := target.Record.Key()
	if entryID, ok := profile.WatchlistIndex[key]; ok {
		return entryID, key, nil
	}

	entry, err := s.ensure.Ensure(ctx, *target.Record)
	if err != nil {
		return "", "", err
	}
	return entry.ID, key, nil
}

// Contains reports whether the external item is on the user's watchlist,
// using only the profile's index.
func (s *WatchlistService) Contains(ctx context.Context, userID string, kind domain.MediaKind, externalID int64) (bool, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return false, storeError("load profile", "user", err)
	}
	_, ok := profile.WatchlistIndex[domain.ExternalKey(kind, externalID)]
	return ok, nil
}

// List returns the user's watchlist entries in watchlist order.
func (s *WatchlistService) List(ctx context.Context, userID string) ([]*domain.CatalogEntry, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, storeError("load profile", "user", err)
	}
	entries, err := s.catalog.GetCatalogEntriesByIDs(ctx, profile.Watchlist)
	if err != nil {
		return nil, storeError("load watchlist", "catalog entry", err)
	}
	return entries, nil
}

// Package segment fans independent model fits out over the listing data:
// one global model, one per city, and one per (city, room type) combination.
// Fits run on a bounded worker pool; a failed or undersized segment degrades
// to a skipped result instead of aborting the batch.
package segment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/KaiErikNiermann/roomnl-stats/internal/forecast"
	"github.com/KaiErikNiermann/roomnl-stats/internal/gp"
	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
)

// Key identifies a segment. Empty fields widen the slice: a zero Key is the
// global segment, a Key with only City set is a per-city segment.
type Key struct {
	City       string `json:"city,omitempty"`
	TypeOfRoom string `json:"type_of_room,omitempty"`
}

// String renders the key for warnings and logs.
func (k Key) String() string {
	switch {
	case k.City == "" && k.TypeOfRoom == "":
		return "global"
	case k.TypeOfRoom == "":
		return k.City
	default:
		return k.City + "/" + k.TypeOfRoom
	}
}

// Result is one segment's outcome: either a prediction set or a skip reason.
type Result struct {
	Key         Key
	Predictions []model.PredictionRow
	Skipped     bool
	Reason      string
}

// Options configures a segmented run.
type Options struct {
	// HorizonDays extends each segment's prediction range this many days
	// past Today.
	HorizonDays int
	// Today anchors the horizon; zero means time.Now in UTC.
	Today time.Time
	// Profile optionally deseasonalizes every segment's fit.
	Profile []model.MonthMultiplier
	// Workers bounds the fit pool; values < 1 mean one worker.
	Workers int
	// GP overrides the fit configuration; nil means gp.DefaultConfig.
	GP *gp.Config
}

// Run fits and predicts every segment of the listings. Results are returned
// in segment enumeration order (global, cities, city/type combinations);
// workers share nothing and results are merged only after all complete.
func Run(ctx context.Context, listings []model.Listing, opts Options) []Result {
	keys := enumerate(listings)

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	cfg := gp.DefaultConfig()
	if opts.GP != nil {
		cfg = *opts.GP
	}
	today := opts.Today
	if today.IsZero() {
		today = time.Now().UTC()
	}

	results := make([]Result, len(keys))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, key := range keys {
		i, key := i, key
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				results[i] = Result{Key: key, Skipped: true, Reason: err.Error()}
				return
			}
			results[i] = fitOne(key, subset(listings, key), today, opts.HorizonDays, opts.Profile, cfg)
		}()
	}
	wg.Wait()

	return results
}

// fitOne trains and predicts a single segment. Fit errors are converted to
// skip reasons; they never propagate.
func fitOne(key Key, listings []model.Listing, today time.Time, horizonDays int, profile []model.MonthMultiplier, cfg gp.Config) Result {
	obs := model.ListingObservations(listings)

	m, err := forecast.Fit(obs, profile, cfg)
	if err != nil {
		var insufficient *forecast.InsufficientDataError
		var fitErr *forecast.FitError
		switch {
		case errors.As(err, &insufficient), errors.As(err, &fitErr):
			return Result{Key: key, Skipped: true, Reason: err.Error()}
		default:
			return Result{Key: key, Skipped: true, Reason: fmt.Sprintf("unexpected fit failure: %v", err)}
		}
	}

	start := listings[0].ContractDate
	for _, l := range listings[1:] {
		if l.ContractDate.Before(start) {
			start = l.ContractDate
		}
	}
	end := today.AddDate(0, 0, horizonDays)

	preds, err := m.PredictRange(start, end)
	if err != nil {
		return Result{Key: key, Skipped: true, Reason: err.Error()}
	}

	for i := range preds {
		preds[i].City = key.City
		preds[i].TypeOfRoom = key.TypeOfRoom
	}
	return Result{Key: key, Predictions: preds}
}

// enumerate lists the segments in deterministic order: the global segment,
// then cities sorted ascending, then (city, room type) combinations.
func enumerate(listings []model.Listing) []Key {
	// Listings with an empty city or room type still train the wider
	// segments, but enumerate no segment of their own: an empty key field
	// widens subset, so Key{City: ""} would duplicate the global segment and
	// Key{City: "", TypeOfRoom: T} would match type T across every city.
	citySet := make(map[string]bool)
	comboSet := make(map[Key]bool)
	for _, l := range listings {
		if l.City == "" {
			continue
		}
		citySet[l.City] = true
		if l.TypeOfRoom != "" {
			comboSet[Key{City: l.City, TypeOfRoom: l.TypeOfRoom}] = true
		}
	}

	cities := make([]string, 0, len(citySet))
	for c := range citySet {
		cities = append(cities, c)
	}
	sort.Strings(cities)

	combos := make([]Key, 0, len(comboSet))
	for k := range comboSet {
		combos = append(combos, k)
	}
	sort.Slice(combos, func(i, j int) bool {
		if combos[i].City != combos[j].City {
			return combos[i].City < combos[j].City
		}
		return combos[i].TypeOfRoom < combos[j].TypeOfRoom
	})

	keys := make([]Key, 0, 1+len(cities)+len(combos))
	keys = append(keys, Key{})
	for _, c := range cities {
		keys = append(keys, Key{City: c})
	}
	keys = append(keys, combos...)
	return keys
}

// subset filters listings to a segment. An empty key field matches all.
func subset(listings []model.Listing, key Key) []model.Listing {
	if key.City == "" && key.TypeOfRoom == "" {
		return listings
	}
	out := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if key.City != "" && l.City != key.City {
			continue
		}
		if key.TypeOfRoom != "" && l.TypeOfRoom != key.TypeOfRoom {
			continue
		}
		out = append(out, l)
	}
	return out
}

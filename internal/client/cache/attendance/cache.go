// Package attendance keeps an append-only merge of per-service attendance
// rows, keyed by choir, and answers point statistics queries for single
// members. Only services that actually carry recorded attendance are stored;
// a service observed again overwrites its prior row wholesale.
package attendance

import (
	"context"
	"encoding/json"
	"math"
	"sort"

	"github.com/kantorei/chorsync/internal/client/models"
	"github.com/kantorei/chorsync/internal/client/repositories/kvstore"
	"github.com/kantorei/chorsync/internal/logging"
)

const keyPrefix = "attendance_cache_v1_"

// Key returns the kvstore key for a choir's attendance map.
func Key(choirID string) string { return keyPrefix + choirID }

type Cache struct {
	kv  kvstore.Repository
	log logging.Logger
}

func New(kv kvstore.Repository, log logging.Logger) *Cache {
	return &Cache{kv: kv, log: log}
}

// Record merges the attendance carried by the given services into the
// choir's stored map. Soft-deleted services and services without attendance
// are skipped; no-op rows are never persisted. Best-effort: failures are
// logged and swallowed.
func (c *Cache) Record(ctx context.Context, choirID string, services []models.ChoirService) {
	stored := c.load(ctx, choirID)

	changed := false
	for _, svc := range services {
		if svc.Deleted || !svc.HasAttendance() {
			continue
		}
		stored[svc.ID] = models.AttendanceRecord{
			Date:      svc.Date,
			Title:     svc.Title,
			Confirmed: svc.Confirmed,
			Absent:    svc.Absent,
		}
		changed = true
	}
	if !changed {
		return
	}

	raw, err := json.Marshal(stored)
	if err != nil {
		c.log.Warn(ctx, "attendance cache serialization failed", "choir", choirID, "error", err)
		return
	}
	if err := c.kv.Set(ctx, Key(choirID), raw); err != nil {
		c.log.Warn(ctx, "attendance cache write failed", "choir", choirID, "error", err)
	}
}

// Stats classifies the stored records for one member. Records dated before
// periodStart are ignored (calendar-date comparison; empty periodStart keeps
// everything). A member present in neither list contributes to neither
// count. The rate is 100 when no record counts for the member.
func (c *Cache) Stats(ctx context.Context, choirID, memberID, periodStart string) models.MemberStats {
	stored := c.load(ctx, choirID)

	stats := models.MemberStats{Absences: []models.Absence{}}
	for serviceID, rec := range stored {
		if periodStart != "" && rec.Date < periodStart {
			continue
		}
		switch {
		case contains(rec.Confirmed, memberID):
			stats.PresentCount++
		case contains(rec.Absent, memberID):
			stats.AbsentCount++
			stats.Absences = append(stats.Absences, models.Absence{
				ServiceID: serviceID,
				Date:      rec.Date,
				Title:     rec.Title,
			})
		}
	}

	total := stats.PresentCount + stats.AbsentCount
	if total == 0 {
		stats.AttendanceRate = 100
	} else {
		stats.AttendanceRate = int(math.Round(float64(stats.PresentCount) / float64(total) * 100))
	}

	sort.Slice(stats.Absences, func(i, j int) bool {
		if stats.Absences[i].Date != stats.Absences[j].Date {
			return stats.Absences[i].Date > stats.Absences[j].Date
		}
		return stats.Absences[i].ServiceID > stats.Absences[j].ServiceID
	})

	return stats
}

func (c *Cache) load(ctx context.Context, choirID string) map[string]models.AttendanceRecord {
	stored := make(map[string]models.AttendanceRecord)

	raw, err := c.kv.Get(ctx, Key(choirID))
	if err != nil {
		c.log.Warn(ctx, "attendance cache read failed", "choir", choirID, "error", err)
		return stored
	}
	if raw == nil {
		return stored
	}
	if err := json.Unmarshal(raw, &stored); err != nil {
		c.log.Warn(ctx, "attendance cache entry corrupt", "choir", choirID, "error", err)
		return make(map[string]models.AttendanceRecord)
	}
	return stored
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

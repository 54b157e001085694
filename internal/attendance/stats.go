package attendance

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"routemeet/backend/internal/models"
	"routemeet/backend/pkg/apperrors"

	"gorm.io/gorm"
)

// GenderStats breaks registrations down by the registrants' gender.
type GenderStats struct {
	Male   int `json:"male"`
	Female int `json:"female"`
	Other  int `json:"other"`
}

// DayStat is the verification count for one calendar day.
type DayStat struct {
	Date       string  `json:"date"`
	Registered int64   `json:"registered"`
	Attended   int     `json:"attended"`
	Percentage float64 `json:"percentage"`
}

// HourStat is the verification count for one hour-of-day bucket.
type HourStat struct {
	Hour       string  `json:"hour"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Stats aggregates attendance figures for one event.
type Stats struct {
	TotalRegistered   int64       `json:"total_registered"`
	TotalAttended     int64       `json:"total_attended"`
	TotalDidNotAttend int64       `json:"total_did_not_attend"`
	AttendanceRate    float64     `json:"attendance_rate"`
	ByGender          GenderStats `json:"by_gender"`
	ByDay             []DayStat   `json:"by_day"`
	ByHour            []HourStat  `json:"by_hour"`
}

// Statistics derives attendance aggregates for an event from stored rows.
// Read-only and organizer-only, like History. Day and hour bucketing happens
// here rather than in SQL so it behaves identically across database dialects.
func (e *Engine) Statistics(eventID, callerID string) (*Stats, error) {
	var event models.Event
	if err := e.db.First(&event, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load event", err)
	}
	if event.AuthorID != callerID {
		return nil, apperrors.ErrNotOrganizer
	}

	stats := &Stats{ByDay: []DayStat{}, ByHour: []HourStat{}}

	counts := []struct {
		state models.AttendanceState
		dest  *int64
	}{
		{models.AttendanceAttended, &stats.TotalAttended},
		{models.AttendanceDidNotAttend, &stats.TotalDidNotAttend},
	}
	err := e.db.Model(&models.Inscription{}).
		Where("event_id = ?", eventID).
		Count(&stats.TotalRegistered).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to count registrations", err)
	}
	for _, c := range counts {
		err := e.db.Model(&models.Inscription{}).
			Where("event_id = ? AND attendance = ?", eventID, c.state).
			Count(c.dest).Error
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to count attendance", err)
		}
	}
	if stats.TotalRegistered > 0 {
		stats.AttendanceRate = round2(float64(stats.TotalAttended) / float64(stats.TotalRegistered) * 100)
	}

	var genders []models.Gender
	err = e.db.Model(&models.Inscription{}).
		Joins("JOIN users ON users.id = inscriptions.user_id").
		Where("inscriptions.event_id = ?", eventID).
		Pluck("users.gender", &genders).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load registrant genders", err)
	}
	for _, g := range genders {
		switch g {
		case models.GenderMale:
			stats.ByGender.Male++
		case models.GenderFemale:
			stats.ByGender.Female++
		default:
			stats.ByGender.Other++
		}
	}

	var verifications []models.AttendanceVerification
	err = e.db.Where("event_id = ?", eventID).Find(&verifications).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load verifications", err)
	}

	byDay := map[string]int{}
	byHour := map[int]int{}
	weekAgo := time.Now().UTC().AddDate(0, 0, -7)
	for _, v := range verifications {
		ts := v.VerifiedAt.UTC()
		if ts.After(weekAgo) {
			byDay[ts.Format("2006-01-02")]++
		}
		byHour[ts.Hour()]++
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		attended := byDay[day]
		var pct float64
		if stats.TotalRegistered > 0 {
			pct = round2(float64(attended) / float64(stats.TotalRegistered) * 100)
		}
		stats.ByDay = append(stats.ByDay, DayStat{
			Date:       day,
			Registered: stats.TotalRegistered,
			Attended:   attended,
			Percentage: pct,
		})
	}

	hours := make([]int, 0, len(byHour))
	for hour := range byHour {
		hours = append(hours, hour)
	}
	sort.Ints(hours)
	for _, hour := range hours {
		count := byHour[hour]
		var pct float64
		if stats.TotalAttended > 0 {
			pct = round2(float64(count) / float64(stats.TotalAttended) * 100)
		}
		stats.ByHour = append(stats.ByHour, HourStat{
			Hour:       fmt.Sprintf("%d:00", hour),
			Count:      count,
			Percentage: pct,
		})
	}

	return stats, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

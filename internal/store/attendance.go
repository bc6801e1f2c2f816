package store

import (
	"errors"
	"fmt"
	"time"

	"faceclock/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ============================================================
// ATTENDANCE REPOSITORY
// ============================================================

const workDateLayout = "2006-01-02"

type AttendanceRepo struct {
	db *gorm.DB
}

func NewAttendanceRepo(db *gorm.DB) *AttendanceRepo {
	return &AttendanceRepo{db: db}
}

// TodayRecord returns the worker's row for the given day, or nil when the
// worker has not been seen yet.
func (r *AttendanceRepo) TodayRecord(workerId int64, day time.Time) (*models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	err := r.db.Where("worker_id = ? AND work_date = ?", workerId, day.Format(workDateLayout)).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance record: %w", err)
	}
	return &rec, nil
}

// CheckIn creates the worker-day row. The unique index on worker_id+work_date
// makes the first writer win; a concurrent duplicate insert is absorbed by
// DoNothing and the existing row is returned.
func (r *AttendanceRepo) CheckIn(workerId int64, at time.Time) (*models.AttendanceRecord, error) {
	rec := models.AttendanceRecord{
		WorkerId:    workerId,
		WorkDate:    at.Format(workDateLayout),
		CheckInTime: &at,
		Status:      "PRESENT",
	}
	err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
	if err != nil {
		return nil, fmt.Errorf("failed to record check-in: %w", err)
	}
	if rec.Id == 0 {
		// Lost the race; hand back whoever got there first.
		return r.TodayRecord(workerId, at)
	}
	return &rec, nil
}

// CheckOut closes the worker's day. Only an open PRESENT row is touched, so a
// double checkout cannot overwrite the first timestamp.
func (r *AttendanceRepo) CheckOut(workerId int64, at time.Time) error {
	res := r.db.Model(&models.AttendanceRecord{}).
		Where("worker_id = ? AND work_date = ? AND check_out_time IS NULL", workerId, at.Format(workDateLayout)).
		Updates(map[string]interface{}{
			"check_out_time": at,
			"status":         "LEFT",
		})
	if res.Error != nil {
		return fmt.Errorf("failed to record check-out: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.New("no open attendance record to close")
	}
	return nil
}

// History lists a worker's rows between two dates inclusive, newest first.
func (r *AttendanceRepo) History(workerId int64, from, to time.Time) ([]models.AttendanceRecord, error) {
	var recs []models.AttendanceRecord
	err := r.db.Where("worker_id = ? AND work_date BETWEEN ? AND ?",
		workerId, from.Format(workDateLayout), to.Format(workDateLayout)).
		Order("work_date DESC").Find(&recs).Error
	return recs, err
}

// DayRoster lists everyone seen on the given day.
func (r *AttendanceRepo) DayRoster(day time.Time) ([]models.AttendanceRecord, error) {
	var recs []models.AttendanceRecord
	err := r.db.Where("work_date = ?", day.Format(workDateLayout)).
		Order("check_in_time ASC").Find(&recs).Error
	return recs, err
}

// CloseDanglingBefore marks every still-open row from past days CLOSED. Run
// nightly; workers who never scanned out get an auditable terminal state
// instead of a perpetually open day.
func (r *AttendanceRepo) CloseDanglingBefore(day time.Time) (int64, error) {
	res := r.db.Model(&models.AttendanceRecord{}).
		Where("work_date < ? AND check_out_time IS NULL", day.Format(workDateLayout)).
		Update("status", "CLOSED")
	return res.RowsAffected, res.Error
}

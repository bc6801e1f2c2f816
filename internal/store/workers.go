package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"faceclock/internal/descriptor"
	"faceclock/internal/matcher"
	"faceclock/models"

	"gorm.io/gorm"
)

// ============================================================
// WORKER REPOSITORY
// ============================================================

var ErrWorkerNotFound = errors.New("worker not found")

type WorkerRepo struct {
	db *gorm.DB
}

func NewWorkerRepo(db *gorm.DB) *WorkerRepo {
	return &WorkerRepo{db: db}
}

// ListActiveCandidates loads every active enrolled worker and decodes their
// stored embedding into matcher candidates. Rows with broken or missing
// embeddings are skipped with a warning rather than poisoning the scan loop.
func (r *WorkerRepo) ListActiveCandidates() ([]matcher.Candidate, error) {
	var workers []models.WorkerProfile
	if err := r.db.Where("is_active = ? AND embedding IS NOT NULL", true).Find(&workers).Error; err != nil {
		return nil, fmt.Errorf("failed to load workers: %w", err)
	}

	candidates := make([]matcher.Candidate, 0, len(workers))
	for _, w := range workers {
		var raw []float64
		if err := json.Unmarshal(w.Embedding, &raw); err != nil {
			log.Printf("⚠️ Worker %d has an unreadable embedding, skipping: %v", w.Id, err)
			continue
		}
		desc, err := descriptor.New(raw)
		if err != nil {
			log.Printf("⚠️ Worker %d embedding rejected: %v", w.Id, err)
			continue
		}
		candidates = append(candidates, matcher.Candidate{
			WorkerId:   w.Id,
			WorkerName: w.Name,
			Descriptor: desc,
		})
	}
	return candidates, nil
}

// GetById fetches one worker row.
func (r *WorkerRepo) GetById(id int64) (*models.WorkerProfile, error) {
	var w models.WorkerProfile
	if err := r.db.First(&w, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkerNotFound
		}
		return nil, err
	}
	return &w, nil
}

// List returns all workers, active first, for the roster endpoint.
func (r *WorkerRepo) List() ([]models.WorkerProfile, error) {
	var workers []models.WorkerProfile
	err := r.db.Order("is_active DESC, name ASC").Find(&workers).Error
	return workers, err
}

// SaveEnrollment writes the averaged descriptor (and photo path) produced by
// a completed enrollment session onto the worker row.
func (r *WorkerRepo) SaveEnrollment(workerId int64, desc descriptor.Descriptor, photoPath string, now time.Time) error {
	raw, err := json.Marshal([]float64(desc))
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}
	res := r.db.Model(&models.WorkerProfile{}).Where("id = ?", workerId).Updates(map[string]interface{}{
		"embedding":   json.RawMessage(raw),
		"photo_path":  photoPath,
		"is_active":   true,
		"enrolled_at": now,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to save enrollment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrWorkerNotFound
	}
	log.Printf("✅ Enrollment saved for worker %d", workerId)
	return nil
}

// Create inserts a worker row without biometrics; enrollment fills those in.
func (r *WorkerRepo) Create(w *models.WorkerProfile) error {
	return r.db.Create(w).Error
}

// Deactivate takes a worker out of the match set without deleting history.
func (r *WorkerRepo) Deactivate(workerId int64) error {
	res := r.db.Model(&models.WorkerProfile{}).Where("id = ?", workerId).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrWorkerNotFound
	}
	return nil
}

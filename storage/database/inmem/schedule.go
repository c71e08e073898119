package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/ratiba/core/schedule"
)

type scheduleRepository struct {
	db *scheduleTable
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) schedule.Repository {
	return &scheduleRepository{db: db.schedule}
}

func (repo *scheduleRepository) CreateSchedule(_ context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.seq++
	repo.db.table[s.ID] = &scheduleRow{seq: repo.db.seq, s: s}
	return s, nil
}

func (repo *scheduleRepository) GetScheduleByID(_ context.Context, id string) (schedule.Schedule, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.table[id]; ok {
		return r.s, nil
	}
	return schedule.Schedule{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) FilterSchedules(_ context.Context, filter schedule.QueryFilter) ([]schedule.Schedule, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rows := make([]scheduleRow, 0, len(repo.db.table))
	for _, r := range repo.db.table {
		if filter.Match(r.s) {
			rows = append(rows, *r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	schedules := make([]schedule.Schedule, len(rows))
	for i, r := range rows {
		schedules[i] = r.s
	}
	return schedules, nil
}

func (repo *scheduleRepository) UpdateSchedule(_ context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	r, ok := repo.db.table[s.ID]
	if !ok {
		return schedule.Schedule{}, schedule.ErrNotFound
	}
	r.s = s
	return s, nil
}

func (repo *scheduleRepository) DeleteSchedulesByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

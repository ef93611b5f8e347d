package store

import (
	"testing"
	"time"
)

func TestTaskCRUD(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "a@example.com", "EMP001")
	logs := NewTimeLogStore(db)
	tasks := NewTaskStore(db)

	rec, err := logs.Create(user.ID, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("create time log: %v", err)
	}

	task, err := tasks.Create(rec.ID, user.ID, nil, "code review", 45)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Description != "code review" || task.Duration != 45 {
		t.Errorf("task = %+v", task)
	}

	task, err = tasks.Update(task.ID, nil, "code review + fixes", 60)
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if task.Duration != 60 {
		t.Errorf("duration = %d, want 60", task.Duration)
	}

	if err := tasks.Delete(task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	got, err := tasks.GetByID(task.ID)
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after delete, got %+v", got)
	}
}

func TestTaskSumByTimeLog(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "a@example.com", "EMP001")
	logs := NewTimeLogStore(db)
	tasks := NewTaskStore(db)

	rec, _ := logs.Create(user.ID, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	tasks.Create(rec.ID, user.ID, nil, "standup", 15)
	tasks.Create(rec.ID, user.ID, nil, "feature work", 120)

	total, err := tasks.SumDurationByTimeLog(rec.ID)
	if err != nil {
		t.Fatalf("sum durations: %v", err)
	}
	if total != 135 {
		t.Errorf("total = %d, want 135", total)
	}

	list, err := tasks.ListByTimeLog(rec.ID)
	if err != nil {
		t.Fatalf("list by time log: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("got %d tasks, want 2", len(list))
	}
}

func TestTasksDeletedWithTimeLog(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "a@example.com", "EMP001")
	logs := NewTimeLogStore(db)
	tasks := NewTaskStore(db)

	rec, _ := logs.Create(user.ID, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	task, _ := tasks.Create(rec.ID, user.ID, nil, "doomed", 10)

	if _, err := db.Exec(`DELETE FROM time_logs WHERE id = ?`, rec.ID); err != nil {
		t.Fatalf("delete time log: %v", err)
	}
	got, err := tasks.GetByID(task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got != nil {
		t.Error("task should cascade-delete with its time log")
	}
}

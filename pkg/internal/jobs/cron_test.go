package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/jobs"
	"github.com/yeisme/docvault/pkg/internal/types"
	"github.com/yeisme/docvault/pkg/scheduler"
)

type fakeMaintainer struct {
	cleanup types.CleanupResponse
	scan    types.ScanResponse
	err     error
	ran     chan string
}

func (f *fakeMaintainer) Cleanup(context.Context, bool) (types.CleanupResponse, error) {
	f.ran <- jobs.JobCleanupDeleted
	return f.cleanup, f.err
}

func (f *fakeMaintainer) ScanBucket(context.Context, bool) (types.ScanResponse, error) {
	f.ran <- jobs.JobBucketScan
	return f.scan, f.err
}

func newScheduler(t *testing.T) *scheduler.Scheduler {
	t.Helper()

	s, err := scheduler.NewScheduler()
	if err != nil {
		t.Fatalf("scheduler: %v", err)
	}

	t.Cleanup(func() { _ = s.Stop() })

	return s
}

func TestRegisterCronJobs(t *testing.T) {
	s := newScheduler(t)
	m := &fakeMaintainer{ran: make(chan string, 4)}

	names, err := jobs.RegisterCronJobs(s, m, configs.JobsConfig{
		CleanupDeleted: configs.CronJobConfig{Enabled: true, Cron: "0 3 * * *"},
		BucketScan:     configs.CronJobConfig{Enabled: false, Cron: "*/5 * * * *"},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if len(names) != 1 || names[0] != jobs.JobCleanupDeleted {
		t.Fatalf("names = %v", names)
	}

	s.Start()

	if err := s.RunNow(jobs.JobCleanupDeleted); err != nil {
		t.Fatalf("run now: %v", err)
	}

	select {
	case got := <-m.ran:
		if got != jobs.JobCleanupDeleted {
			t.Fatalf("ran %s", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cleanup job did not run")
	}

	if err := s.RunNow(jobs.JobBucketScan); !errors.Is(err, scheduler.ErrJobNotFound) {
		t.Fatalf("disabled job: err = %v", err)
	}
}

func TestRegisterCronJobsInvalid(t *testing.T) {
	m := &fakeMaintainer{ran: make(chan string, 1)}

	if _, err := jobs.RegisterCronJobs(nil, m, configs.JobsConfig{}); err == nil {
		t.Fatal("expected error without scheduler")
	}

	_, err := jobs.RegisterCronJobs(newScheduler(t), m, configs.JobsConfig{
		CleanupDeleted: configs.CronJobConfig{Enabled: true, Cron: "not a cron"},
	})
	if err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestJobResults(t *testing.T) {
	tests := []struct {
		name    string
		m       *fakeMaintainer
		job     func(jobs.Maintainer) scheduler.Job
		wantErr bool
	}{
		{
			name: "cleanup all purged",
			m:    &fakeMaintainer{cleanup: types.CleanupResponse{Total: 2, Purged: 2}},
			job:  jobs.Cleanup,
		},
		{
			name:    "cleanup partial",
			m:       &fakeMaintainer{cleanup: types.CleanupResponse{Total: 3, Purged: 1}},
			job:     jobs.Cleanup,
			wantErr: true,
		},
		{
			name:    "cleanup error",
			m:       &fakeMaintainer{err: errors.New("db down")},
			job:     jobs.Cleanup,
			wantErr: true,
		},
		{
			name: "scan created",
			m:    &fakeMaintainer{scan: types.ScanResponse{Created: 1, Exists: 4, Total: 5}},
			job:  jobs.BucketScan,
		},
		{
			name:    "scan with failures",
			m:       &fakeMaintainer{scan: types.ScanResponse{Created: 1, Errors: 1, Total: 2}},
			job:     jobs.BucketScan,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.m.ran = make(chan string, 1)

			err := tt.job(tt.m)(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

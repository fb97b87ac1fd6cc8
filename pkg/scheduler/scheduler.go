// Package scheduler 基于 gocron/v2 运行文档维护任务（清理、桶扫描），并记录每个任务的运行状态.
//
// 同一任务不会并发执行：上一次还没结束时，本次触发会被跳过并顺延到下一个周期.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/metrics"
)

// ErrJobNotFound 任务不存在.
var ErrJobNotFound = errors.New("job not found")

// JobStatus 任务状态.
type JobStatus string

const (
	StatusScheduled JobStatus = "scheduled" // 等待下次触发
	StatusRunning   JobStatus = "running"   // 正在执行
	StatusError     JobStatus = "error"     // 最近一次执行失败
)

// Job 任务函数. ctx 在调度器停止时取消.
type Job func(ctx context.Context) error

// JobInfo 任务运行信息，供 /scheduler/jobs 展示.
type JobInfo struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	CronExpr    string        `json:"cron_expr"`
	NextRun     time.Time     `json:"next_run"`
	LastRun     time.Time     `json:"last_run,omitzero"`
	LastSuccess time.Time     `json:"last_success,omitzero"`
	LastElapsed time.Duration `json:"last_elapsed_ns,omitempty"`
	Runs        int64         `json:"runs"`
	Failures    int64         `json:"failures"`
	Status      JobStatus     `json:"status"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Scheduler 按名称管理 cron 任务.
type Scheduler struct {
	scheduler gocron.Scheduler
	jobs      map[string]gocron.Job
	infos     map[string]*JobInfo
	mu        sync.RWMutex
	logger    *zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	now       func() time.Time
}

// NewScheduler 创建调度器，创建后需调用 Start 才开始触发.
func NewScheduler(opts ...gocron.SchedulerOption) (*Scheduler, error) {
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		scheduler: s,
		jobs:      make(map[string]gocron.Job),
		infos:     make(map[string]*JobInfo),
		logger:    log.Component("scheduler"),
		ctx:       ctx,
		cancel:    cancel,
		now:       time.Now,
	}, nil
}

// AddCron 以 5 段 cron 表达式注册任务，名称必须唯一.
func (s *Scheduler) AddCron(name, cronExpr string, job Job) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("job name is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	j, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() { s.run(name, job) }),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("add job %s: %w", name, err)
	}

	info := &JobInfo{
		ID:        j.ID().String(),
		Name:      name,
		CronExpr:  cronExpr,
		Status:    StatusScheduled,
		CreatedAt: s.now(),
	}
	info.NextRun, _ = j.NextRun()

	s.jobs[name] = j
	s.infos[name] = info

	s.logger.Info().Str("job", name).Str("cron", cronExpr).Msg("cron job added")

	return nil
}

// run 执行一次任务，记录耗时与结果，吞掉 panic.
func (s *Scheduler) run(name string, job Job) {
	start := s.now()
	s.setRunning(name, start)

	var (
		err    error
		result = "ok"
	)

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
				result = "panic"
			}
		}()

		if err = job(s.ctx); err != nil {
			result = "error"
		}
	}()

	elapsed := s.now().Sub(start)
	metrics.JobDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	metrics.JobRuns.WithLabelValues(name, result).Inc()

	if err != nil {
		s.logger.Error().Err(err).Str("job", name).Dur("elapsed", elapsed).Msg("job failed")
	} else {
		s.logger.Debug().Str("job", name).Dur("elapsed", elapsed).Msg("job finished")
	}

	s.setFinished(name, elapsed, err)
}

func (s *Scheduler) setRunning(name string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info, ok := s.infos[name]; ok {
		info.Status = StatusRunning
		info.LastRun = at
		info.Runs++
	}
}

func (s *Scheduler) setFinished(name string, elapsed time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.infos[name]
	if !ok {
		return
	}

	info.LastElapsed = elapsed

	if j, ok := s.jobs[name]; ok {
		info.NextRun, _ = j.NextRun()
	}

	if err != nil {
		info.Status = StatusError
		info.Error = err.Error()
		info.Failures++

		return
	}

	info.Status = StatusScheduled
	info.Error = ""
	info.LastSuccess = s.now()
}

// RunNow 立即触发一次任务，不影响原有周期.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	return j.RunNow()
}

// RemoveJob 按名称移除任务.
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	if err := s.scheduler.RemoveJob(j.ID()); err != nil {
		return err
	}

	delete(s.jobs, name)
	delete(s.infos, name)

	s.logger.Info().Str("job", name).Msg("job removed")

	return nil
}

// JobInfo 返回单个任务信息的副本.
func (s *Scheduler) JobInfo(name string) (JobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.infos[name]
	if !ok {
		return JobInfo{}, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	return *info, nil
}

// JobInfos 返回全部任务信息，按名称排序.
func (s *Scheduler) JobInfos() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.infos))
	for _, info := range s.infos {
		out = append(out, *info)
	}

	slices.SortFunc(out, func(a, b JobInfo) int { return strings.Compare(a.Name, b.Name) })

	return out
}

// Start 启动调度器.
func (s *Scheduler) Start() {
	s.logger.Info().Int("jobs", len(s.JobInfos())).Msg("scheduler started")
	s.scheduler.Start()
}

// Stop 取消运行中任务的 ctx 并等待其退出.
func (s *Scheduler) Stop() error {
	s.logger.Info().Msg("scheduler stopping")
	s.cancel()

	return s.scheduler.Shutdown()
}

package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/community/pkg/logger"
)

var (
	// ErrJobRunning 上一次执行尚未结束，触发被拒绝（不排队）
	ErrJobRunning  = errors.New("job is already running")
	ErrJobNotFound = errors.New("job not found")
)

// Scheduler 定时任务调度：每个任务持有独立的单飞标记，
// 定时 tick 与手动触发都不会与自身重叠。
type Scheduler struct {
	mu     sync.Mutex
	jobs   map[string]*schedJob
	stopCh chan struct{}
	wg     sync.WaitGroup
}

type schedJob struct {
	name      string
	run       func(ctx context.Context) error
	interval  time.Duration // >0：固定间隔
	dailyHour int           // interval==0：每日本地时间整点
	running   atomic.Bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{jobs: make(map[string]*schedJob), stopCh: make(chan struct{})}
}

// AddInterval 注册固定间隔任务
func (s *Scheduler) AddInterval(name string, every time.Duration, fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[name] = &schedJob{name: name, run: fn, interval: every}
}

// AddDaily 注册每日定点任务（本地时间 hour 点整）
func (s *Scheduler) AddDaily(name string, hour int, fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[name] = &schedJob{name: name, run: fn, dailyHour: hour}
}

// Start 为每个任务起一个计时循环
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		s.wg.Add(1)
		if j.interval > 0 {
			go s.intervalLoop(j)
		} else {
			go s.dailyLoop(j)
		}
	}
}

// Stop 停止所有计时循环；正在执行的任务自然跑完
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// Trigger 手动触发：立即异步执行，调用方不等待结果。
// 上一次执行还在进行时返回 ErrJobRunning。
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return ErrJobNotFound
	}
	if !j.running.CompareAndSwap(false, true) {
		return ErrJobRunning
	}
	go func() {
		defer j.running.Store(false)
		if err := j.run(context.Background()); err != nil {
			logger.Error("triggered job failed", zap.String("job", j.name), zap.Error(err))
		}
	}()
	return nil
}

func (s *Scheduler) intervalLoop(j *schedJob) {
	defer s.wg.Done()
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.execute(j)
		}
	}
}

func (s *Scheduler) dailyLoop(j *schedJob) {
	defer s.wg.Done()
	for {
		timer := time.NewTimer(time.Until(nextDaily(time.Now(), j.dailyHour)))
		select {
		case <-s.stopCh:
			timer.Stop()
			return
		case <-timer.C:
			s.execute(j)
		}
	}
}

func nextDaily(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

func (s *Scheduler) execute(j *schedJob) {
	if !j.running.CompareAndSwap(false, true) {
		// tick 重叠说明上一轮超时，跳过本轮而不是排队
		logger.Warn("job still running, tick skipped", zap.String("job", j.name))
		return
	}
	defer j.running.Store(false)
	if err := j.run(context.Background()); err != nil {
		logger.Error("scheduled job failed", zap.String("job", j.name), zap.Error(err))
	}
}

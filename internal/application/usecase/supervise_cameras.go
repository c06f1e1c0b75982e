package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/PavithraS-567/Video-Surveillance-System/pkg/logger"
)

// CameraResult - итог работы одного монитора
type CameraResult struct {
	CameraID string
	Reason   TerminationReason
	Err      error
}

// Report - итог работы всех мониторов
type Report struct {
	Results []CameraResult
}

// ExitCode: 0 - все камеры остановлены штатно, 1 - ошибка чтения или детектора,
// 2 - источник хотя бы одной камеры не открылся
func (r Report) ExitCode() int {
	code := 0
	for _, result := range r.Results {
		switch result.Reason {
		case TerminationOpenFailure:
			return 2
		case TerminationSourceError, TerminationDetectorFailure:
			code = 1
		}
	}
	return code
}

// Abnormal возвращает камеры, остановленные с ошибкой
func (r Report) Abnormal() []CameraResult {
	var out []CameraResult
	for _, result := range r.Results {
		if result.Reason.Abnormal() {
			out = append(out, result)
		}
	}
	return out
}

// CameraRunner - то, что умеет супервизор: монитор одной камеры
type CameraRunner interface {
	CameraID() string
	Run(ctx context.Context) error
	Status() CameraStatus
}

// Supervisor запускает по монитору на камеру и ждет завершения всех
type Supervisor struct {
	monitors []CameraRunner
	logger   *logger.Logger
	started  atomic.Bool
}

// NewSupervisor создает супервизор для набора мониторов
func NewSupervisor(monitors []CameraRunner, logger *logger.Logger) *Supervisor {
	return &Supervisor{monitors: monitors, logger: logger}
}

// Started сообщает, что мониторы запущены (используется в /readyz)
func (s *Supervisor) Started() bool {
	return s.started.Load()
}

// Run блокируется до остановки всех мониторов. Отмена ctx останавливает каждый монитор
// после текущего кадра. Авария одной камеры не затрагивает остальные.
func (s *Supervisor) Run(ctx context.Context) Report {
	results := make([]CameraResult, len(s.monitors))

	var wg sync.WaitGroup
	for i, monitor := range s.monitors {
		wg.Add(1)
		go func(i int, monitor CameraRunner) {
			defer wg.Done()
			results[i] = s.runOne(ctx, monitor)
		}(i, monitor)
	}

	s.started.Store(true)
	s.logger.Info("Supervisor started", "cameras", len(s.monitors))

	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].CameraID < results[j].CameraID
	})
	report := Report{Results: results}

	s.logger.Info("All cameras terminated",
		"cameras", len(results),
		"abnormal", len(report.Abnormal()),
		"exit_code", report.ExitCode(),
	)

	return report
}

func (s *Supervisor) runOne(ctx context.Context, monitor CameraRunner) (result CameraResult) {
	result.CameraID = monitor.CameraID()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("monitor panic: %v", r)
			s.logger.Error("Camera monitor panicked", err, "camera_id", result.CameraID)
			result.Reason = TerminationSourceError
			result.Err = err
		}
	}()

	err := monitor.Run(ctx)

	var monitorErr *MonitorError
	switch {
	case err == nil:
		result.Reason = monitor.Status().Termination
		if result.Reason == "" {
			result.Reason = TerminationShutdown
		}
	case errors.As(err, &monitorErr):
		result.Reason = monitorErr.Reason
		result.Err = monitorErr
	default:
		result.Reason = TerminationSourceError
		result.Err = err
	}

	return result
}
